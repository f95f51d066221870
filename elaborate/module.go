package elaborate

import (
	"github.com/sarchlab/velab/diag"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
)

// ElaborateModule is Module::elaborate (spec §4.3, C5): parameters (Pass A),
// wires (Pass B), functions two-pass (Pass C), tasks two-pass (Pass D),
// gates (Pass E), behaviors (Pass F). parentScope/overridesPos/overridesName
// are nil for the top-level root module; a recursive instantiation (C6)
// supplies the instantiating scope and the `#(...)` override list it parsed
// off the instance (positional XOR named, mirroring port binding).
func ElaborateModule(ctx *ElabCtx, mod *pform.Module, scope *netlist.NetScope, parentScope *netlist.NetScope, overridesPos []pform.Expr, overridesName map[string]pform.Expr) {
	elaborateParams(ctx, mod, scope, parentScope, overridesPos, overridesName)

	for _, w := range mod.Wires {
		ElaborateWire(ctx, scope, w)
	}

	elaborateFunctions(ctx, mod, scope)
	elaborateTasks(ctx, mod, scope)

	ElaborateGates(ctx, mod, scope)

	for _, proc := range mod.Processes {
		body := ElaborateStatement(ctx, scope, proc.Stmt)
		ctx.Design.AddProc(&netlist.NetProcTop{Scope: scope, Kind: proc.Kind, Body: body})
	}
}

// paramPending tracks one not-yet-folded parameter across the fixed-point
// sweep: which expression to fold, and in which scope (SPEC_FULL.md §D.6 —
// overrides fold against the parent/instantiating scope, defaults against
// the module's own scope).
type paramPending struct {
	name     string
	fq       string
	expr     pform.Expr
	evalIn   *netlist.NetScope
}

// elaborateParams is Pass A (spec §4.3): pre-declare every parameter name,
// pick override-or-default per parameter, then fold to a fixed point.
func elaborateParams(ctx *ElabCtx, mod *pform.Module, scope, parentScope *netlist.NetScope, overridesPos []pform.Expr, overridesName map[string]pform.Expr) {
	var pending []paramPending

	for _, p := range mod.Params {
		fq := scope.Qualify(p.Name)
		ctx.Design.DeclareParam(fq)
	}

	for i, p := range mod.Params {
		expr := p.Default
		evalIn := scope
		switch {
		case overridesName != nil:
			if ov, ok := overridesName[p.Name]; ok {
				expr = ov
				evalIn = parentScope
			}
		case overridesPos != nil:
			if i < len(overridesPos) && overridesPos[i] != nil {
				expr = overridesPos[i]
				evalIn = parentScope
			}
		}
		fq := scope.Qualify(p.Name)
		pending = append(pending, paramPending{name: p.Name, fq: fq, expr: expr, evalIn: evalIn})
	}

	for {
		progressed := false
		var stillPending []paramPending
		for _, pp := range pending {
			v, ok := EvalConst(ctx, pp.evalIn, pp.expr)
			if !ok {
				stillPending = append(stillPending, pp)
				continue
			}
			ctx.Design.FoldParam(pp.fq, v)
			progressed = true
		}
		pending = stillPending
		if len(pending) == 0 || !progressed {
			break
		}
	}

	for _, pp := range pending {
		pos := mod.Pos
		ctx.report(pos, diag.Error, "unable to evaluate parameter %q of module %q.", pp.name, mod.Name)
	}
}

// elaborateFunctions is Pass C (spec §4.3, C9): install every function's
// signature first (so mutual/self recursion resolves, invariant 7), then
// lower every body in a second sweep.
func elaborateFunctions(ctx *ElabCtx, mod *pform.Module, scope *netlist.NetScope) {
	defs := make(map[string]*netlist.FuncDef, len(mod.Functions))
	for name, fn := range mod.Functions {
		fscope, ok := ctx.Design.NewScope(scope, netlist.FunctionScope, name)
		if !ok {
			ctx.report(fn.Pos, diag.Error, "Instance/Scope name %s already used in this context.", name)
			continue
		}
		if fn.Return == nil {
			ctx.report(fn.Pos, diag.Error, "function %q has no return declaration.", name)
			continue
		}
		ElaborateWire(ctx, fscope, fn.Return)
		retSig, found := ctx.Design.FindSignal(fscope, fn.Return.Name)
		if !found {
			continue
		}

		var ports []*netlist.NetNet
		for _, pw := range fn.Ports {
			ElaborateWire(ctx, fscope, pw)
			if sig, ok := ctx.Design.FindSignal(fscope, pw.Name); ok {
				ports = append(ports, sig)
			}
		}

		def := &netlist.FuncDef{Scope: fscope, Name: name, Return: retSig, Ports: ports}
		fq := scope.Qualify(name)
		ctx.Design.DeclareFunc(fq, def)
		defs[name] = def
	}

	for name, fn := range mod.Functions {
		def, ok := defs[name]
		if !ok {
			continue
		}
		def.Body = ElaborateStatement(ctx, def.Scope, fn.Body)
	}
}

// elaborateTasks is Pass D (spec §4.3, C9), the same two-pass scheme as
// functions.
func elaborateTasks(ctx *ElabCtx, mod *pform.Module, scope *netlist.NetScope) {
	defs := make(map[string]*netlist.TaskDef, len(mod.Tasks))
	for name, tk := range mod.Tasks {
		tscope, ok := ctx.Design.NewScope(scope, netlist.TaskScope, name)
		if !ok {
			ctx.report(tk.Pos, diag.Error, "Instance/Scope name %s already used in this context.", name)
			continue
		}

		var ports []*netlist.NetNet
		for _, pw := range tk.Ports {
			ElaborateWire(ctx, tscope, pw)
			if sig, ok := ctx.Design.FindSignal(tscope, pw.Name); ok {
				ports = append(ports, sig)
			}
		}

		def := &netlist.TaskDef{Scope: tscope, Name: name, Ports: ports}
		fq := scope.Qualify(name)
		ctx.Design.DeclareTask(fq, def)
		defs[name] = def
	}

	for name, tk := range mod.Tasks {
		def, ok := defs[name]
		if !ok {
			continue
		}
		def.Body = ElaborateStatement(ctx, def.Scope, tk.Body)
	}
}
