package elaborate

import (
	"github.com/sarchlab/velab/diag"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// ElaborateExpr lowers a parse expression to a structural net of the given
// width hint (0 = let the expression pick its own width), spec §4.5 / C7.
// It is the dispatch-table-by-variant entry point grounded on
// core/emu.go's instFuncs map idiom (spec §9 "single match-per-visitor
// function family"): each case below is one table entry.
func ElaborateExpr(ctx *ElabCtx, scope *netlist.NetScope, e pform.Expr, widthHint int) *netlist.NetNet {
	switch n := e.(type) {
	case pform.ENumber:
		return constNet(ctx, scope, n.Value, widthHint)

	case pform.EIdent:
		return elabIdentNet(ctx, scope, n, widthHint)

	case pform.EUnary:
		return elabUnaryNet(ctx, scope, n, widthHint)

	case pform.EBinary:
		return elabBinaryNet(ctx, scope, n, widthHint)

	case pform.ETernary:
		return elabTernaryNet(ctx, scope, n, widthHint)

	case pform.EConcat:
		return elabConcatNet(ctx, scope, n)

	case pform.EFuncCall:
		return elabFuncCallNet(ctx, scope, n, widthHint)

	case pform.EString:
		v := stringToVector(n.Value)
		return constNet(ctx, scope, v, widthHint)

	default:
		ctx.report(e.Position(), diag.Internal, "unreachable expression variant %T", e)
		return newLocalNet(ctx, scope, maxInt(widthHint, 1), netlist.KindWire)
	}
}

func stringToVector(s string) verinum.Vector {
	bs := make([]verinum.Bit, 0, len(s)*8)
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		for b := 0; b < 8; b++ {
			if c&(1<<uint(b)) != 0 {
				bs = append(bs, verinum.B1)
			} else {
				bs = append(bs, verinum.B0)
			}
		}
	}
	if len(bs) == 0 {
		bs = []verinum.Bit{verinum.B0}
	}
	return verinum.Vector{Bits: bs}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// newLocalNet allocates a compiler-synthesized temporary signal of kind k
// and width, flagged Local so the (future) dead-code pass may remove it if
// unused (spec §4.5, §3.4).
func newLocalNet(ctx *ElabCtx, scope *netlist.NetScope, width int, k netlist.NetKind) *netlist.NetNet {
	if width < 1 {
		width = 1
	}
	name := ctx.Design.FreshLocalName(scope)
	n := &netlist.NetNet{
		Scope: scope,
		Name:  name,
		MSB:   width - 1,
		LSB:   0,
		Kind:  k,
		Local: true,
		Init:  verinum.Bz,
	}
	for i := 0; i < width; i++ {
		n.Pins = append(n.Pins, ctx.Design.NewPin(netlist.PinOwner{Signal: n, BitIndex: i}))
	}
	ctx.Design.AddSignal(n)
	return n
}

func constNet(ctx *ElabCtx, scope *netlist.NetScope, v verinum.Vector, widthHint int) *netlist.NetNet {
	w := v.Width()
	if widthHint > 0 {
		w = widthHint
	}
	v = v.Resized(w)
	n := newLocalNet(ctx, scope, w, netlist.KindWire)
	node := &netlist.NetConst{Value: v}
	for i := 0; i < w; i++ {
		p := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "O"})
		node.Pins = append(node.Pins, p)
		ctx.Design.Connect(n.Pin(i), p)
	}
	ctx.Design.AddNode(node)
	return n
}

func elabIdentNet(ctx *ElabCtx, scope *netlist.NetScope, n pform.EIdent, widthHint int) *netlist.NetNet {
	if sig, ok := ctx.Design.FindSignal(scope, n.Name); ok {
		return sliceSignalNet(ctx, scope, sig, n, widthHint)
	}
	if v, ok := lookupParam(ctx, scope, n.Name); ok {
		if n.Bit != nil || n.MSB != nil {
			v2, ok := sliceConstIdent(ctx, scope, n, v)
			if ok {
				return constNet(ctx, scope, v2, widthHint)
			}
		}
		return constNet(ctx, scope, v, widthHint)
	}
	ctx.report(n.Pos, diag.Error, "Unable to bind wire/parameter ``%s'' in %s.", n.Name, scope.FQName)
	return newLocalNet(ctx, scope, maxInt(widthHint, 1), netlist.KindWire)
}

func sliceSignalNet(ctx *ElabCtx, scope *netlist.NetScope, sig *netlist.NetNet, n pform.EIdent, widthHint int) *netlist.NetNet {
	if n.Bit == nil && n.MSB == nil {
		if widthHint == 0 || widthHint == sig.Width() {
			return sig
		}
		out := newLocalNet(ctx, scope, widthHint, netlist.KindWire)
		w := minInt(widthHint, sig.Width())
		for i := 0; i < w; i++ {
			ctx.Design.Connect(out.Pin(i), sig.Pin(i))
		}
		return out
	}

	if n.Bit != nil {
		idx, ok := EvalConst(ctx, scope, n.Bit)
		out := newLocalNet(ctx, scope, 1, netlist.KindWire)
		if ok && idx.IsConstant() {
			i := localBitIndex(sig, int(idx.Int64()))
			if i >= 0 && i < sig.Width() {
				ctx.Design.Connect(out.Pin(0), sig.Pin(i))
			}
		}
		return out
	}

	msb, mok := EvalConst(ctx, scope, n.MSB)
	lsb, lok := EvalConst(ctx, scope, n.LSB)
	if !mok || !lok {
		ctx.report(n.Pos, diag.Sorry, "non-constant part-select bounds on %q are not supported.", n.Name)
		return newLocalNet(ctx, scope, maxInt(widthHint, 1), netlist.KindWire)
	}
	hi, lo := int(msb.Int64()), int(lsb.Int64())
	if hi < lo {
		hi, lo = lo, hi
	}
	w := hi - lo + 1
	out := newLocalNet(ctx, scope, w, netlist.KindWire)
	for i := 0; i < w; i++ {
		li := localBitIndex(sig, lo+i)
		if li >= 0 && li < sig.Width() {
			ctx.Design.Connect(out.Pin(i), sig.Pin(li))
		}
	}
	return out
}

// localBitIndex maps a Verilog-numbered bit (as declared, which may count
// down from msb) to the signal's own 0-based Pins index.
func localBitIndex(sig *netlist.NetNet, bitNum int) int {
	if sig.MSB >= sig.LSB {
		return bitNum - sig.LSB
	}
	return sig.LSB - bitNum
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// elabUnaryNet lowers a unary operator to structure. Bitwise complement
// expands to one NOT gate per bit, each named base<index> the way a bussed
// gate bank is; reductions become one many-input gate.
func elabUnaryNet(ctx *ElabCtx, scope *netlist.NetScope, n pform.EUnary, widthHint int) *netlist.NetNet {
	operand := ElaborateExpr(ctx, scope, n.Operand, widthHint)

	if n.Op == "~" {
		w := operand.Width()
		out := newLocalNet(ctx, scope, w, netlist.KindWire)
		base := out.Name
		for i := 0; i < w; i++ {
			g := netlist.NewLogic(scope, base+itoaSimple(i), netlist.LogicNot, 0, 0, 0)
			outPin := ctx.Design.NewPin(netlist.PinOwner{Node: g, PinName: "O"})
			inPin := ctx.Design.NewPin(netlist.PinOwner{Node: g, PinName: "I0"})
			g.Pins = []netlist.Pin{outPin, inPin}
			ctx.Design.Connect(out.Pin(i), outPin)
			if i < operand.Width() {
				ctx.Design.Connect(operand.Pin(i), inPin)
			}
			ctx.Design.AddNode(g)
		}
		return out
	}

	// Reduction (and logical-not, which reduces then inverts): one gate,
	// all operand bits as inputs.
	out := newLocalNet(ctx, scope, 1, netlist.KindWire)
	g := netlist.NewLogic(scope, out.Name, reductionLogicFunc(n.Op), 0, 0, 0)
	outPin := ctx.Design.NewPin(netlist.PinOwner{Node: g, PinName: "O"})
	g.Pins = []netlist.Pin{outPin}
	ctx.Design.Connect(out.Pin(0), outPin)
	for i := 0; i < operand.Width(); i++ {
		p := ctx.Design.NewPin(netlist.PinOwner{Node: g, PinName: "I" + itoaSimple(i)})
		g.Pins = append(g.Pins, p)
		ctx.Design.Connect(operand.Pin(i), p)
	}
	ctx.Design.AddNode(g)
	return out
}

func isReduction(op string) bool {
	switch op {
	case "&", "~&", "|", "~|", "^", "~^", "!":
		return true
	default:
		return false
	}
}

func reductionLogicFunc(op string) netlist.LogicFunc {
	switch op {
	case "&":
		return netlist.LogicAnd
	case "~&":
		return netlist.LogicNand
	case "|":
		return netlist.LogicOr
	case "~|", "!":
		return netlist.LogicNor
	case "^":
		return netlist.LogicXor
	case "~^":
		return netlist.LogicXnor
	default:
		return netlist.LogicBuf
	}
}

// elabBinaryNet lowers a binary operator to structure. Bitwise operators
// expand to a per-bit gate bank; comparisons and arithmetic become one
// many-pin node each, the LPM-style devices the synthesis pass targets.
func elabBinaryNet(ctx *ElabCtx, scope *netlist.NetScope, n pform.EBinary, widthHint int) *netlist.NetNet {
	if isBitwiseOp(n.Op) {
		l := ElaborateExpr(ctx, scope, n.L, widthHint)
		r := ElaborateExpr(ctx, scope, n.R, widthHint)
		w := maxInt(l.Width(), r.Width())
		out := newLocalNet(ctx, scope, w, netlist.KindWire)
		base := out.Name
		for i := 0; i < w; i++ {
			g := netlist.NewLogic(scope, base+itoaSimple(i), binaryLogicFunc(n.Op), 0, 0, 0)
			outPin := ctx.Design.NewPin(netlist.PinOwner{Node: g, PinName: "O"})
			lPin := ctx.Design.NewPin(netlist.PinOwner{Node: g, PinName: "I0"})
			rPin := ctx.Design.NewPin(netlist.PinOwner{Node: g, PinName: "I1"})
			g.Pins = []netlist.Pin{outPin, lPin, rPin}
			ctx.Design.Connect(out.Pin(i), outPin)
			if i < l.Width() {
				ctx.Design.Connect(l.Pin(i), lPin)
			}
			if i < r.Width() {
				ctx.Design.Connect(r.Pin(i), rPin)
			}
			ctx.Design.AddNode(g)
		}
		return out
	}

	l := ElaborateExpr(ctx, scope, n.L, 0)
	r := ElaborateExpr(ctx, scope, n.R, 0)
	w := maxInt(l.Width(), r.Width())
	if isCompareOp(n.Op) {
		w = 1
	} else if widthHint > 0 {
		w = widthHint
	}
	out := newLocalNet(ctx, scope, w, netlist.KindWire)
	node := netlist.NewLogic(scope, out.Name, netlist.LogicBufz, 0, 0, 0)
	for i := 0; i < w; i++ {
		p := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "O" + itoaSimple(i)})
		node.Pins = append(node.Pins, p)
		ctx.Design.Connect(out.Pin(i), p)
	}
	for i := 0; i < l.Width(); i++ {
		p := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "DataA" + itoaSimple(i)})
		node.Pins = append(node.Pins, p)
		ctx.Design.Connect(l.Pin(i), p)
	}
	for i := 0; i < r.Width(); i++ {
		p := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "DataB" + itoaSimple(i)})
		node.Pins = append(node.Pins, p)
		ctx.Design.Connect(r.Pin(i), p)
	}
	ctx.Design.AddNode(node)
	return out
}

func isBitwiseOp(op string) bool {
	switch op {
	case "&", "|", "^", "~^":
		return true
	default:
		return false
	}
}

func isCompareOp(op string) bool {
	switch op {
	case "==", "!=", "===", "!==", "<", ">", "<=", ">=", "&&", "||":
		return true
	default:
		return false
	}
}

func binaryLogicFunc(op string) netlist.LogicFunc {
	switch op {
	case "&":
		return netlist.LogicAnd
	case "|":
		return netlist.LogicOr
	case "^":
		return netlist.LogicXor
	case "~^":
		return netlist.LogicXnor
	default:
		return netlist.LogicBuf
	}
}

func elabTernaryNet(ctx *ElabCtx, scope *netlist.NetScope, n pform.ETernary, widthHint int) *netlist.NetNet {
	cond := ElaborateExpr(ctx, scope, n.Cond, 1)
	then := ElaborateExpr(ctx, scope, n.Then, 0)
	els := ElaborateExpr(ctx, scope, n.Else, 0)
	w := maxInt(then.Width(), els.Width())
	if widthHint > 0 {
		w = widthHint
	}
	out := newLocalNet(ctx, scope, w, netlist.KindWire)
	node := &netlist.NetLogic{Type: netlist.LogicBufz}
	sPin := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "S"})
	node.Pins = append(node.Pins, sPin)
	if cond.Width() > 0 {
		ctx.Design.Connect(cond.Pin(0), sPin)
	}
	for i := 0; i < w; i++ {
		oPin := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "O" + itoaSimple(i)})
		tPin := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "T" + itoaSimple(i)})
		fPin := ctx.Design.NewPin(netlist.PinOwner{Node: node, PinName: "F" + itoaSimple(i)})
		node.Pins = append(node.Pins, oPin, tPin, fPin)
		ctx.Design.Connect(out.Pin(i), oPin)
		if i < then.Width() {
			ctx.Design.Connect(then.Pin(i), tPin)
		}
		if i < els.Width() {
			ctx.Design.Connect(els.Pin(i), fPin)
		}
	}
	ctx.Design.AddNode(node)
	return out
}

func elabConcatNet(ctx *ElabCtx, scope *netlist.NetScope, n pform.EConcat) *netlist.NetNet {
	var parts []*netlist.NetNet
	if n.Repeat != nil {
		rep, ok := EvalConst(ctx, scope, n.Repeat)
		count := int64(1)
		if ok && rep.IsConstant() {
			count = rep.Int64()
		}
		for i := int64(0); i < count; i++ {
			for _, p := range n.Parts {
				parts = append(parts, ElaborateExpr(ctx, scope, p, 0))
			}
		}
	} else {
		for _, p := range n.Parts {
			parts = append(parts, ElaborateExpr(ctx, scope, p, 0))
		}
	}
	total := 0
	for _, p := range parts {
		total += p.Width()
	}
	out := newLocalNet(ctx, scope, total, netlist.KindWire)
	// Connect least-significant-first: parts[last] is least significant
	// (spec §4.5 "reverse of the textual order").
	bit := 0
	for i := len(parts) - 1; i >= 0; i-- {
		p := parts[i]
		for j := 0; j < p.Width(); j++ {
			ctx.Design.Connect(out.Pin(bit), p.Pin(j))
			bit++
		}
	}
	return out
}

// elabFuncCallNet lowers a function call used in a structural (net) context
// (spec §4.5 FuncCall): argument nets feed the function's port signals, and
// the result is a temporary connected to the function's return signal, which
// the elaborated function body drives.
func elabFuncCallNet(ctx *ElabCtx, scope *netlist.NetScope, n pform.EFuncCall, widthHint int) *netlist.NetNet {
	def, ok := ctx.Design.FindFunc(scope, n.Name)
	if !ok {
		ctx.report(n.Pos, diag.Error, "Unable to find function %q.", n.Name)
		return newLocalNet(ctx, scope, maxInt(widthHint, 1), netlist.KindWire)
	}
	if len(n.Args) != len(def.Ports) {
		ctx.report(n.Pos, diag.Error, "Port count mismatch in call to function ``%s''.", n.Name)
	}
	for i, arg := range n.Args {
		if i >= len(def.Ports) {
			break
		}
		port := def.Ports[i]
		argNet := ElaborateExpr(ctx, scope, arg, port.Width())
		for b := 0; b < minInt(argNet.Width(), port.Width()); b++ {
			ctx.Design.Connect(port.Pin(b), argNet.Pin(b))
		}
	}
	ret := newLocalNet(ctx, scope, def.Return.Width(), netlist.KindWire)
	for i := 0; i < ret.Width(); i++ {
		ctx.Design.Connect(ret.Pin(i), def.Return.Pin(i))
	}
	return ret
}

// ElaborateLNet lowers a continuous-assign l-value expression to (signal,
// msb, lsb, mux), for callers (C6) that need the target signal and selected
// range rather than a driving net (spec §4.5 elaborate_lnet). An identifier
// resolves to its own signal without connecting any pins; a concatenation
// yields a local holder net whose pins are connected to each operand's
// selected bits.
func ElaborateLNet(ctx *ElabCtx, scope *netlist.NetScope, e pform.Expr) (sig *netlist.NetNet, msb, lsb int, mux netlist.NetExpr, ok bool) {
	switch n := e.(type) {
	case pform.EIdent:
		s, found := ctx.Design.FindSignal(scope, n.Name)
		if !found {
			ctx.report(n.Pos, diag.Error, "Unable to bind wire/reg ``%s'' in %s.", n.Name, scope.FQName)
			return nil, 0, 0, nil, false
		}
		if n.Bit == nil && n.MSB == nil {
			return s, s.MSB, s.LSB, nil, true
		}
		if n.Bit != nil {
			if v, cok := EvalConst(ctx, scope, n.Bit); cok && v.IsConstant() {
				bi := int(v.Int64())
				return s, bi, bi, nil, true
			}
			muxExpr := lowerExprToNetExpr(ctx, scope, n.Bit, 0)
			return s, s.MSB, s.LSB, muxExpr, true
		}
		mv, mok := EvalConst(ctx, scope, n.MSB)
		lv, lok := EvalConst(ctx, scope, n.LSB)
		if !mok || !lok {
			ctx.report(n.Pos, diag.Error, "Part-select bounds of %q must be constant.", n.Name)
			return nil, 0, 0, nil, false
		}
		return s, int(mv.Int64()), int(lv.Int64()), nil, true

	case pform.EConcat:
		if n.Repeat != nil {
			ctx.report(n.Pos, diag.Sorry, "repeat-concatenation is not supported as an l-value.")
			return nil, 0, 0, nil, false
		}
		type lslice struct {
			sig      *netlist.NetNet
			msb, lsb int
		}
		total := 0
		slices := make([]lslice, 0, len(n.Parts))
		for _, p := range n.Parts {
			s, m, l, mx, pok := ElaborateLNet(ctx, scope, p)
			if !pok {
				return nil, 0, 0, nil, false
			}
			if mx != nil {
				ctx.report(p.Position(), diag.Sorry, "non-constant bit-select inside a concatenation l-value is not supported.")
				return nil, 0, 0, nil, false
			}
			slices = append(slices, lslice{sig: s, msb: m, lsb: l})
			total += widthOfSel(m, l)
		}
		// The merged holder's low bits alias the last (textually
		// rightmost, least significant) operand, same ordering as the
		// r-value concat lowering above.
		merged := newLocalNet(ctx, scope, total, netlist.KindWire)
		bit := 0
		for i := len(slices) - 1; i >= 0; i-- {
			sl := slices[i]
			w := widthOfSel(sl.msb, sl.lsb)
			lo := sl.lsb
			if sl.msb < sl.lsb {
				lo = sl.msb
			}
			for j := 0; j < w; j++ {
				li := localBitIndex(sl.sig, lo+j)
				if li >= 0 && li < sl.sig.Width() {
					ctx.Design.Connect(merged.Pin(bit), sl.sig.Pin(li))
				}
				bit++
			}
		}
		return merged, merged.MSB, merged.LSB, nil, true

	default:
		ctx.report(e.Position(), diag.Error, "expression is not a valid l-value.")
		return nil, 0, 0, nil, false
	}
}

func lowerExprToNetExpr(ctx *ElabCtx, scope *netlist.NetScope, e pform.Expr, widthHint int) netlist.NetExpr {
	net := ElaborateExpr(ctx, scope, e, widthHint)
	return netlist.NetESignal{Sig: net, MSB: net.MSB, LSB: net.LSB}
}
