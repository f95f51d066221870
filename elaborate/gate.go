package elaborate

import (
	"github.com/sarchlab/velab/diag"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// ElaborateGates dispatches every PGate of mod, elaborated in scope (spec
// §4.3 Pass E). Module instances recurse into ElaborateModule.
func ElaborateGates(ctx *ElabCtx, mod *pform.Module, scope *netlist.NetScope) {
	for _, g := range mod.Gates {
		switch gt := g.(type) {
		case pform.GateAssign:
			ElaborateContinuousAssign(ctx, scope, gt)
		case pform.GateBuiltin:
			ElaborateBuiltinGate(ctx, scope, gt)
		case pform.GateModule:
			ElaborateModuleInstance(ctx, scope, gt)
		default:
			ctx.report(g.Position(), diag.Internal, "unreachable gate variant %T", g)
		}
	}
}

// resolveDelays evaluates a DelaySpec's rise/fall/decay, per spec §4.4's
// 1/2/3-expression promotion rules.
func resolveDelays(ctx *ElabCtx, scope *netlist.NetScope, d *pform.DelaySpec) (rise, fall, decay int) {
	if d == nil || d.Rise == nil {
		return 0, 0, 0
	}
	rv, ok := EvalConst(ctx, scope, d.Rise)
	if !ok {
		ctx.report(d.Rise.Position(), diag.Sorry, "delay must be constant.")
		return 0, 0, 0
	}
	rise = int(rv.Int64())
	if d.Fall == nil {
		return rise, rise, rise
	}
	fv, _ := EvalConst(ctx, scope, d.Fall)
	fall = int(fv.Int64())
	if d.Decay == nil {
		decay = rise
		if fall < decay {
			decay = fall
		}
		return rise, fall, decay
	}
	dv, _ := EvalConst(ctx, scope, d.Decay)
	return rise, fall, int(dv.Int64())
}

// ElaborateContinuousAssign lowers `assign lval = rval;` (spec §4.4).
func ElaborateContinuousAssign(ctx *ElabCtx, scope *netlist.NetScope, g pform.GateAssign) {
	rise, fall, decay := resolveDelays(ctx, scope, g.Delay)

	sig, msb, lsb, mux, ok := ElaborateLNet(ctx, scope, g.LVal)
	if !ok {
		return
	}
	if mux != nil {
		ctx.report(g.Pos, diag.Sorry, "non-constant bit-select on a continuous assign l-value is not supported.")
		return
	}
	lw := msb - lsb
	if lw < 0 {
		lw = -lw
	}
	lw++

	rval := ElaborateExpr(ctx, scope, g.RVal, lw)
	if rval.Width() < lw {
		ctx.report(g.Pos, diag.Sorry, "continuous assign l-value is wider than the r-value.")
		return
	}

	// One BUFZ driver per bit carries the delays and ties the r-value net
	// to the assigned signal slice.
	base := ctx.Design.FreshLocalName(scope)
	lo := lsb
	if msb < lsb {
		lo = msb
	}
	for i := 0; i < lw; i++ {
		li := localBitIndex(sig, lo+i)
		if li < 0 || li >= sig.Width() {
			continue
		}
		node := netlist.NewLogic(scope, base+itoaSimple(i), netlist.LogicBufz, rise, fall, decay)
		outPin := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "O"})
		inPin := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "I0"})
		node.Pins = []netlist.Pin{outPin, inPin}
		ctx.Design.Connect(sig.Pin(li), outPin)
		ctx.Design.Connect(rval.Pin(i), inPin)
		ctx.Design.AddNode(node)
	}
}

// ElaborateBuiltinGate lowers a primitive logic gate, optionally bussed
// (spec §4.4, SPEC_FULL.md §D.2 for bank-index direction).
func ElaborateBuiltinGate(ctx *ElabCtx, scope *netlist.NetScope, g pform.GateBuiltin) {
	rise, fall, decay := resolveDelays(ctx, scope, g.Delay)

	indices := []int{0}
	if g.Range != nil {
		mv, mok := EvalConst(ctx, scope, g.Range.MSB)
		lv, lok := EvalConst(ctx, scope, g.Range.LSB)
		if mok && lok {
			indices = bankIndices(int(mv.Int64()), int(lv.Int64()))
		}
	}
	count := len(indices)

	instName := g.InstanceName
	if instName == "" {
		instName = ctx.Design.FreshLocalName(scope)
	}

	logics := make([]*netlist.NetLogic, count)
	for bi, idx := range indices {
		name := instName
		if g.Range != nil {
			name = name + itoaSimple(idx)
		}
		lg := netlist.NewLogic(scope, name, netlist.FromBuiltinType(g.Type), rise, fall, decay)
		outPin := ctx.Design.NewPin(netlist.PinOwner{Node: lg, PinName: "O"})
		lg.Pins = append(lg.Pins, outPin)
		logics[bi] = lg
		ctx.Design.AddNode(lg)
	}

	for pinPos, pinExpr := range g.Pins {
		net := ElaborateExpr(ctx, scope, pinExpr, 0)
		switch {
		case net.Width() == 1:
			for _, lg := range logics {
				p := ctx.Design.NewPin(netlist.PinOwner{Node: lg, PinName: pinName(pinPos)})
				lg.Pins = append(lg.Pins, p)
				ctx.Design.Connect(p, net.Pin(0))
			}
		case net.Width() == count:
			for bi, lg := range logics {
				p := ctx.Design.NewPin(netlist.PinOwner{Node: lg, PinName: pinName(pinPos)})
				lg.Pins = append(lg.Pins, p)
				ctx.Design.Connect(p, net.Pin(bi))
			}
		default:
			ctx.report(g.Pos, diag.Error, "Gate pin width %d does not match instance count %d.", net.Width(), count)
		}
	}
}

func pinName(i int) string {
	if i == 0 {
		return "O"
	}
	return "I" + itoaSimple(i-1)
}

// bankIndices walks the bank range in the declared direction (ascending if
// msb>=lsb, else descending), per SPEC_FULL.md §D.2.
func bankIndices(msb, lsb int) []int {
	var out []int
	if msb >= lsb {
		for i := lsb; i <= msb; i++ {
			out = append(out, i)
		}
	} else {
		for i := lsb; i >= msb; i-- {
			out = append(out, i)
		}
	}
	return out
}

func itoaSimple(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// ElaborateModuleInstance dispatches a PGModule instantiation to either a
// recursive module elaboration or a UDP instance (spec §4.4).
func ElaborateModuleInstance(ctx *ElabCtx, scope *netlist.NetScope, g pform.GateModule) {
	if g.InstanceName == "" {
		ctx.report(g.Pos, diag.Error, "Instance of %q must have a name.", g.TargetName)
		return
	}
	if g.Range != nil {
		ctx.report(g.Pos, diag.Sorry, "instantiation arrays are not supported.")
		return
	}

	if target, ok := ctx.Lookup.FindModule(g.TargetName); ok {
		elaborateModuleGateInstance(ctx, scope, g, target)
		return
	}
	if udp, ok := ctx.Lookup.FindUDP(g.TargetName); ok {
		elaborateUDPInstance(ctx, scope, g, udp)
		return
	}
	ctx.report(g.Pos, diag.Error, "Unknown module or primitive %q.", g.TargetName)
}

func elaborateModuleGateInstance(ctx *ElabCtx, scope *netlist.NetScope, g pform.GateModule, target *pform.Module) {
	childScope, ok := ctx.Design.NewScope(scope, netlist.ModuleScope, g.InstanceName)
	if !ok {
		ctx.report(g.Pos, diag.Error, "Instance/Scope name %s already used in this context.", g.InstanceName)
		return
	}

	pins, ok := resolvePinOrder(ctx, scope, g, target)
	if !ok {
		return
	}

	ElaborateModule(ctx, target, childScope, scope, g.ParamsPositional, g.ParamsNamed)

	for i, expr := range pins {
		if expr == nil {
			continue
		}
		wires := target.GetPort(i)
		var prts []*netlist.NetNet
		total := 0
		for _, w := range wires {
			sig, found := ctx.Design.FindSignal(childScope, w.Name)
			if !found {
				continue
			}
			prts = append(prts, sig)
			total += sig.Width()
		}
		outer := ElaborateExpr(ctx, scope, expr, total)
		if outer.Width() != total {
			ctx.report(g.Pos, diag.Error, "Port %d of %s expects %d pins, got %d.", i, g.TargetName, total, outer.Width())
			continue
		}
		// The decrementing counter walk of the original: the first port
		// wire takes the most significant slice of the outer expression,
		// each wire's own bits pairing off MSB-to-MSB downward (spec §9,
		// SPEC_FULL.md §D.2, scenario S2's 8-bit bus).
		remaining := total
		for _, sig := range prts {
			for p := 0; p < sig.Width(); p++ {
				remaining--
				ctx.Design.Connect(outer.Pin(remaining), sig.Pin(sig.Width()-p-1))
			}
		}
	}
}

// resolvePinOrder builds the per-port-position expression list for either
// positional or named binding (spec §4.4).
func resolvePinOrder(ctx *ElabCtx, scope *netlist.NetScope, g pform.GateModule, target *pform.Module) ([]pform.Expr, bool) {
	if g.Named != nil {
		out := make([]pform.Expr, target.PortCount())
		for name, expr := range g.Named {
			idx := target.FindPort(name)
			if idx >= target.PortCount() {
				ctx.report(g.Pos, diag.Error, "Unknown port %q on module %q.", name, target.Name)
				continue
			}
			if out[idx] != nil {
				ctx.report(g.Pos, diag.Error, "Duplicate binding for port %q.", name)
				continue
			}
			out[idx] = expr
		}
		return out, true
	}
	if len(g.Positional) != target.PortCount() {
		ctx.report(g.Pos, diag.Error, "Wrong port count for instance %q: got %d, module %q declares %d.", g.InstanceName, len(g.Positional), target.Name, target.PortCount())
		return nil, false
	}
	return g.Positional, true
}

func elaborateUDPInstance(ctx *ElabCtx, scope *netlist.NetScope, g pform.GateModule, u *pform.Udp) {
	args := g.Positional
	if len(args) != u.PortCount {
		ctx.report(g.Pos, diag.Error, "Wrong pin count for UDP %q: got %d, want %d.", u.Name, len(args), u.PortCount)
		return
	}

	table := u.Table
	if u.Sequential {
		// Sequential UDPs match against rows that carry the current state
		// as a leading input token; prepend it here so the runtime table is
		// self-contained (spec §4.4, SPEC_FULL.md §D.3).
		table = make([]pform.UdpRow, len(u.Table))
		for i, row := range u.Table {
			in := make([]verinum.Bit, 0, len(row.Inputs)+1)
			in = append(in, row.State)
			in = append(in, row.Inputs...)
			table[i] = pform.UdpRow{State: row.State, Inputs: in, Output: row.Output}
		}
	}
	node := netlist.NewUDP(scope, g.InstanceName, u.Name, u.Sequential, u.Initial, table)
	for _, a := range args {
		net := ElaborateExpr(ctx, scope, a, 1)
		p := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "P"})
		node.Pins = append(node.Pins, p)
		if net.Width() > 0 {
			ctx.Design.Connect(p, net.Pin(0))
		}
	}
	ctx.Design.AddNode(node)
}
