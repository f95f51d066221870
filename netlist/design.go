// Package netlist defines the elaborated output intermediate representation
// (spec §3.2): scopes, signals, memories, structural and procedural nodes,
// and the pin/link graph (§9's arena-allocated union-find replacement for
// the original's doubly-linked pin ring). Design is the sole owner of
// everything reachable from it; freeing a Design frees the lot.
package netlist

import (
	"fmt"
	"sync"

	"github.com/rs/xid"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// ParamValue is a module parameter's resolved value, stored keyed by its
// fully qualified name once Pass A (elaborate.ElaborateModule) folds it to
// a constant (spec §4.3, invariant 6 "parameter closure").
type ParamValue struct {
	Expr  NetExpr // the lowered (possibly still-unfolded) expression
	Value verinum.Vector
	Const bool
}

// FuncDef and TaskDef are the design-wide definition tables that make
// mutual/self recursion between user functions and tasks possible (spec
// §4.3 Pass C/D, invariant 7): pass 1 installs the signature, pass 2 fills
// in Body once the statement lowering for the body succeeds.
type FuncDef struct {
	Scope  *NetScope
	Name   string
	Return *NetNet
	Ports  []*NetNet
	Body   NetProc
}

type TaskDef struct {
	Scope *NetScope
	Name  string
	Ports []*NetNet
	Body  NetProc
}

// NetProcTop wraps one top-level behavior (spec §4.3 Pass F): an `initial`
// or `always` block attached to a module scope.
type NetProcTop struct {
	Scope *NetScope
	Kind  pform.ProcessKind
	Body  NetProc
}

// Design is the owning container for one elaboration run (spec §3.2, §3.4).
// Scope, signal, memory, node, process, and parameter storage are all
// design-local; nothing here is shared between two Designs.
type Design struct {
	ID string // xid-generated, log-correlation only (SPEC_FULL.md §C) — never part of scope._L<n> naming

	mu sync.Mutex

	root        *NetScope
	scopesByFQ  map[string]*NetScope
	signals     []*NetNet
	signalsByFQ map[string]*NetNet
	memories    []*NetMemory
	memByFQ     map[string]*NetMemory
	nodes       []Node
	procs       []*NetProcTop

	params map[string]*ParamValue // key: "scope.fqname.paramname"

	funcs map[string]*FuncDef // key: "scope.fqname.funcname"
	tasks map[string]*TaskDef // key: "scope.fqname.taskname"

	arena []pinInfo

	localCounter int
	Errors       int // incremented on every error:/internal error: diagnostic (spec §7)
}

// NewDesign allocates an empty Design with a ROOT scope, mirroring the
// fluent-builder construction entry point core/builder.go uses for other
// owning containers in this codebase (here a single-shot constructor is
// enough since a Design has no optional construction-time configuration).
func NewDesign() *Design {
	d := &Design{
		ID:          xid.New().String(),
		scopesByFQ:  make(map[string]*NetScope),
		signalsByFQ: make(map[string]*NetNet),
		memByFQ:     make(map[string]*NetMemory),
		params:      make(map[string]*ParamValue),
		funcs:       make(map[string]*FuncDef),
		tasks:       make(map[string]*TaskDef),
	}
	d.root = &NetScope{Type: Root, Name: "", FQName: ""}
	d.scopesByFQ[""] = d.root
	return d
}

// Root returns the design's root scope.
func (d *Design) Root() *NetScope { return d.root }

// NewScope creates a child scope under parent, enforcing scope uniqueness
// (invariant 1). Returns (scope, true) on success, or (nil, false) if the
// fully qualified name is already taken — callers report the duplicate-scope
// diagnostic and skip the duplicate (spec §7, scenario S5).
func (d *Design) NewScope(parent *NetScope, typ ScopeType, name string) (*NetScope, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fq := name
	if parent != nil && parent.FQName != "" {
		fq = parent.FQName + "." + name
	}
	if _, exists := d.scopesByFQ[fq]; exists {
		return nil, false
	}
	s := &NetScope{Parent: parent, Type: typ, Name: name, FQName: fq}
	d.scopesByFQ[fq] = s
	if parent != nil {
		parent.Children = append(parent.Children, s)
	}
	return s, true
}

// ScopeByFQName looks up a scope by its fully qualified name, for tests and
// diagnostics.
func (d *Design) ScopeByFQName(fq string) (*NetScope, bool) {
	s, ok := d.scopesByFQ[fq]
	return s, ok
}

// Scopes returns every scope in the design, root included, in no particular
// order.
func (d *Design) Scopes() []*NetScope {
	out := make([]*NetScope, 0, len(d.scopesByFQ))
	for _, s := range d.scopesByFQ {
		out = append(out, s)
	}
	return out
}

// AddSignal registers a signal under its scope, keyed by fully qualified
// name.
func (d *Design) AddSignal(n *NetNet) {
	n.FQName = n.Scope.Qualify(n.Name)
	d.signals = append(d.signals, n)
	d.signalsByFQ[n.FQName] = n
}

// FindSignal looks a signal up by name starting from scope, walking up the
// scope chain (invariant 2, signal resolution).
func (d *Design) FindSignal(scope *NetScope, name string) (*NetNet, bool) {
	for s := scope; s != nil; s = s.Parent {
		if n, ok := d.signalsByFQ[s.Qualify(name)]; ok {
			return n, true
		}
	}
	if n, ok := d.signalsByFQ[name]; ok {
		return n, true
	}
	return nil, false
}

// Signals returns every signal registered in the design, in registration
// order.
func (d *Design) Signals() []*NetNet { return d.signals }

// AddMemory registers a memory under its scope.
func (d *Design) AddMemory(m *NetMemory) {
	m.FQName = m.Scope.Qualify(m.Name)
	d.memories = append(d.memories, m)
	d.memByFQ[m.FQName] = m
}

// FindMemory looks a memory up by name starting from scope.
func (d *Design) FindMemory(scope *NetScope, name string) (*NetMemory, bool) {
	for s := scope; s != nil; s = s.Parent {
		if m, ok := d.memByFQ[s.Qualify(name)]; ok {
			return m, true
		}
	}
	return nil, false
}

// Memories returns every memory registered in the design.
func (d *Design) Memories() []*NetMemory { return d.memories }

// AddNode registers a structural node.
func (d *Design) AddNode(n Node) { d.nodes = append(d.nodes, n) }

// Nodes returns every structural node in the design.
func (d *Design) Nodes() []Node { return d.nodes }

// RemoveProc deletes a top-level process (used by synth after a successful
// pattern match, spec §4.8 "delete the behavioral process").
func (d *Design) RemoveProc(p *NetProcTop) {
	out := d.procs[:0]
	for _, q := range d.procs {
		if q != p {
			out = append(out, q)
		}
	}
	d.procs = out
}

// AddProc registers a top-level behavior.
func (d *Design) AddProc(p *NetProcTop) { d.procs = append(d.procs, p) }

// Procs returns every top-level behavior currently in the design.
func (d *Design) Procs() []*NetProcTop { return d.procs }

// DeclareParam pre-declares an opaque placeholder for a parameter so later
// expression lowering can see its name before it is folded (spec §4.3 Pass
// A step 1).
func (d *Design) DeclareParam(fq string) {
	if _, ok := d.params[fq]; !ok {
		d.params[fq] = &ParamValue{}
	}
}

// SetParam records a lowered-but-not-yet-folded parameter expression.
func (d *Design) SetParam(fq string, expr NetExpr) {
	d.params[fq] = &ParamValue{Expr: expr}
}

// FoldParam records a parameter's folded constant value.
func (d *Design) FoldParam(fq string, v verinum.Vector) {
	pv := d.params[fq]
	if pv == nil {
		pv = &ParamValue{}
		d.params[fq] = pv
	}
	pv.Value = v
	pv.Const = true
}

// FindParameter returns the folded constant for a fully qualified parameter
// name (spec §6, testable property 2: "FindParameter(p) returns a constant
// vector").
func (d *Design) FindParameter(fq string) (verinum.Vector, bool) {
	pv, ok := d.params[fq]
	if !ok || !pv.Const {
		return verinum.Vector{}, false
	}
	return pv.Value, true
}

// ParamEntry returns the raw bookkeeping entry for fq, for the fixed-point
// folding loop in elaborate.
func (d *Design) ParamEntry(fq string) (*ParamValue, bool) {
	pv, ok := d.params[fq]
	return pv, ok
}

// DeclareFunc installs a function signature (spec §4.3 Pass C sweep 1).
func (d *Design) DeclareFunc(fq string, def *FuncDef) { d.funcs[fq] = def }

// FindFunc resolves a function by name starting from scope (two-pass
// closure, invariant 7).
func (d *Design) FindFunc(scope *NetScope, name string) (*FuncDef, bool) {
	for s := scope; s != nil; s = s.Parent {
		if f, ok := d.funcs[s.Qualify(name)]; ok {
			return f, true
		}
	}
	return nil, false
}

// DeclareTask installs a task signature (spec §4.3 Pass D sweep 1).
func (d *Design) DeclareTask(fq string, def *TaskDef) { d.tasks[fq] = def }

// FindTask resolves a task by name starting from scope.
func (d *Design) FindTask(scope *NetScope, name string) (*TaskDef, bool) {
	for s := scope; s != nil; s = s.Parent {
		if t, ok := d.tasks[s.Qualify(name)]; ok {
			return t, true
		}
	}
	return nil, false
}

// FreshLocalName synthesizes a compiler-temporary unqualified name
// `_L<counter>` (spec §6 "Local symbol naming": fully qualified it reads
// `scope._L<counter>`), the counter monotonically increasing per Design
// regardless of scope. Callers register the resulting signal under scope
// via AddSignal, which supplies the qualification.
func (d *Design) FreshLocalName(scope *NetScope) string {
	d.localCounter++
	return fmt.Sprintf("_L%d", d.localCounter)
}
