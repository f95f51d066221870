// Package elaborate implements the elaboration core (spec §1, components
// C3-C9): constant folding, wire/module/gate/expression/statement lowering,
// and the two-pass task/function scheme, all driven from the single
// top-level Elaborate entry point.
package elaborate

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/velab/diag"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
)

// Logger is the package-level internal/developer-facing logger
// (SPEC_FULL.md §B.1). Overridable the way a teacher component accepts an
// injected collaborator; defaults to slog.Default().
var Logger = slog.Default()

// ModuleLookup resolves a module or primitive definition by name. Elaborate
// wires a static map-backed implementation by default; tests substitute a
// mock (see elaborate_suite_test.go's go:generate mockgen directive) to
// exercise the missing-module path without a full parse tree.
type ModuleLookup interface {
	FindModule(name string) (*pform.Module, bool)
	FindUDP(name string) (*pform.Udp, bool)
}

type staticLookup struct {
	modules    map[string]*pform.Module
	primitives map[string]*pform.Udp
}

func (s staticLookup) FindModule(name string) (*pform.Module, bool) {
	m, ok := s.modules[name]
	return m, ok
}

func (s staticLookup) FindUDP(name string) (*pform.Udp, bool) {
	u, ok := s.primitives[name]
	return u, ok
}

// ElabCtx replaces the original's process-wide modlist/udplist globals
// (spec §5, §9) by threading the module/primitive lookup and the owning
// Design down every elaborate call.
type ElabCtx struct {
	Lookup ModuleLookup
	Design *netlist.Design
	Report *diag.Report
}

// report is a convenience wrapper that also logs internal-severity issues
// through slog, matching core/emu.go's habit of pairing structured issue
// collection with developer-facing log lines.
func (c *ElabCtx) report(pos pform.Pos, sev diag.Severity, format string, args ...interface{}) {
	c.Report.Add(pos.File, pos.Line, sev, format, args...)
	if sev == diag.Error || sev == diag.Internal {
		c.Design.Errors++
	}
	if sev == diag.Internal {
		Logger.Warn("internal error during elaboration", "design_id", c.Design.ID, "pos", pos.String(), "msg", fmt.Sprintf(format, args...))
	}
}

// Elaborate is the top-level entry point (spec §6): given the parsed module
// and primitive tables and a root module name, produce a fully instantiated
// Design, or nil if the root module cannot be found.
func Elaborate(modules map[string]*pform.Module, primitives map[string]*pform.Udp, rootName string) (*netlist.Design, *diag.Report) {
	report := &diag.Report{}
	root, ok := modules[rootName]
	if !ok {
		report.Add("", 0, diag.Error, "Unable to find root module %q.", rootName)
		return nil, report
	}

	des := netlist.NewDesign()
	ctx := &ElabCtx{
		Lookup: staticLookup{modules: modules, primitives: primitives},
		Design: des,
		Report: report,
	}

	Logger.Debug("elaboration started", "design_id", des.ID, "root", rootName)

	scope, ok := des.NewScope(des.Root(), netlist.ModuleScope, rootName)
	if !ok {
		// Unreachable for a fresh Design's first scope, but recorded for
		// symmetry with the recursive-instantiation duplicate-scope path.
		report.Add(root.Pos.File, root.Pos.Line, diag.Internal, "root scope %q already exists", rootName)
		return des, report
	}

	ElaborateModule(ctx, root, scope, nil, nil, nil)

	Logger.Debug("elaboration finished", "design_id", des.ID, "errors", report.Errors)
	return des, report
}
