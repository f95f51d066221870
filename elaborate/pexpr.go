package elaborate

import (
	"github.com/sarchlab/velab/diag"
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// ElaborateNetExpr lowers a parse expression to a procedural netlist
// expression (the NetE* family of spec §3.2), the r-value side of the
// statement elaborator (C8). widthHint works like C7's: 0 lets the
// expression pick. Like ElaborateExpr, the dispatch is one table entry per
// closed-sum variant.
func ElaborateNetExpr(ctx *ElabCtx, scope *netlist.NetScope, e pform.Expr, widthHint int) netlist.NetExpr {
	switch n := e.(type) {
	case pform.ENumber:
		v := n.Value
		if widthHint > 0 {
			v = v.Resized(widthHint)
		}
		return netlist.NetEConst{Value: v}

	case pform.EString:
		return netlist.NetEConst{Value: stringToVector(n.Value)}

	case pform.EIdent:
		return elabIdentExpr(ctx, scope, n)

	case pform.EUnary:
		op := ElaborateNetExpr(ctx, scope, n.Operand, 0)
		w := op.Width()
		if isReduction(n.Op) {
			w = 1
		}
		return netlist.NetEUnary{Op: n.Op, Operand: op, W: w}

	case pform.EBinary:
		l := ElaborateNetExpr(ctx, scope, n.L, 0)
		r := ElaborateNetExpr(ctx, scope, n.R, 0)
		if isCompareOp(n.Op) {
			return netlist.NetEBComp{Op: n.Op, L: l, R: r}
		}
		return netlist.NetEBinary{Op: n.Op, L: l, R: r, W: maxInt(l.Width(), r.Width())}

	case pform.ETernary:
		// The procedural expression family has no ternary node; fold a
		// constant condition, otherwise lower structurally and reference
		// the resulting net.
		if c, ok := EvalConst(ctx, scope, n.Cond); ok && c.IsConstant() {
			if c.Int64() != 0 {
				return ElaborateNetExpr(ctx, scope, n.Then, widthHint)
			}
			return ElaborateNetExpr(ctx, scope, n.Else, widthHint)
		}
		net := ElaborateExpr(ctx, scope, e, widthHint)
		return netlist.NetESignal{Sig: net, MSB: net.MSB, LSB: net.LSB}

	case pform.EConcat:
		return elabConcatExpr(ctx, scope, n)

	case pform.EFuncCall:
		net := elabFuncCallNet(ctx, scope, n, widthHint)
		return netlist.NetESignal{Sig: net, MSB: net.MSB, LSB: net.LSB}

	default:
		ctx.report(e.Position(), diag.Internal, "unreachable expression variant %T", e)
		return netlist.NetEConst{Value: verinum.Vector{Bits: xbits(maxInt(widthHint, 1))}}
	}
}

func elabIdentExpr(ctx *ElabCtx, scope *netlist.NetScope, n pform.EIdent) netlist.NetExpr {
	if sig, ok := ctx.Design.FindSignal(scope, n.Name); ok {
		if n.Bit == nil && n.MSB == nil {
			return netlist.NetESignal{Sig: sig, MSB: sig.MSB, LSB: sig.LSB}
		}
		if n.Bit != nil {
			if v, ok := EvalConst(ctx, scope, n.Bit); ok && v.IsConstant() {
				bi := int(v.Int64())
				return netlist.NetESignal{Sig: sig, MSB: bi, LSB: bi}
			}
			// A non-constant bit-select of a signal in an r-value position
			// reads through a 1-bit slice of a structurally lowered net.
			net := ElaborateExpr(ctx, scope, pform.Expr(n), 1)
			return netlist.NetESignal{Sig: net, MSB: net.MSB, LSB: net.LSB}
		}
		mv, mok := EvalConst(ctx, scope, n.MSB)
		lv, lok := EvalConst(ctx, scope, n.LSB)
		if !mok || !lok {
			ctx.report(n.Pos, diag.Error, "Part-select bounds of %q must be constant.", n.Name)
			return netlist.NetESignal{Sig: sig, MSB: sig.MSB, LSB: sig.LSB}
		}
		return netlist.NetESignal{Sig: sig, MSB: int(mv.Int64()), LSB: int(lv.Int64())}
	}

	if v, ok := lookupParam(ctx, scope, n.Name); ok {
		if n.Bit != nil || n.MSB != nil {
			if sliced, ok := sliceConstIdent(ctx, scope, n, v); ok {
				return netlist.NetEParam{Name: n.Name, Value: sliced}
			}
		}
		return netlist.NetEParam{Name: n.Name, Value: v}
	}

	ctx.report(n.Pos, diag.Error, "Unable to bind wire/reg/parameter ``%s'' in %s.", n.Name, scope.FQName)
	return netlist.NetEConst{Value: verinum.Vector{Bits: xbits(1)}}
}

func elabConcatExpr(ctx *ElabCtx, scope *netlist.NetScope, n pform.EConcat) netlist.NetExpr {
	var parts []netlist.NetExpr
	appendParts := func() {
		for _, p := range n.Parts {
			parts = append(parts, ElaborateNetExpr(ctx, scope, p, 0))
		}
	}
	if n.Repeat != nil {
		rep, ok := EvalConst(ctx, scope, n.Repeat)
		if !ok || !rep.IsConstant() {
			ctx.report(n.Pos, diag.Error, "Repeat count of a concatenation must be constant.")
			appendParts()
			return netlist.NetEConcat{Parts: parts}
		}
		for i := int64(0); i < rep.Int64(); i++ {
			appendParts()
		}
		return netlist.NetEConcat{Parts: parts}
	}
	appendParts()
	return netlist.NetEConcat{Parts: parts}
}

// EvalTree folds a procedural expression as far as its sub-expressions are
// constant (the netlist-side half of C3). It is idempotent: folding an
// already-folded tree returns it unchanged (testable property 7).
func EvalTree(e netlist.NetExpr) netlist.NetExpr {
	switch n := e.(type) {
	case netlist.NetEConst:
		return n

	case netlist.NetEParam:
		return netlist.NetEConst{Value: n.Value}

	case netlist.NetEUnary:
		op := EvalTree(n.Operand)
		if c, ok := op.(netlist.NetEConst); ok {
			return netlist.NetEConst{Value: foldUnary(n.Op, c.Value)}
		}
		return netlist.NetEUnary{Op: n.Op, Operand: op, W: n.W}

	case netlist.NetEBinary:
		l, r := EvalTree(n.L), EvalTree(n.R)
		lc, lok := l.(netlist.NetEConst)
		rc, rok := r.(netlist.NetEConst)
		if lok && rok {
			return netlist.NetEConst{Value: foldBinary(n.Op, lc.Value, rc.Value)}
		}
		return netlist.NetEBinary{Op: n.Op, L: l, R: r, W: n.W}

	case netlist.NetEBComp:
		l, r := EvalTree(n.L), EvalTree(n.R)
		lc, lok := l.(netlist.NetEConst)
		rc, rok := r.(netlist.NetEConst)
		if lok && rok {
			return netlist.NetEConst{Value: foldBinary(n.Op, lc.Value, rc.Value)}
		}
		return netlist.NetEBComp{Op: n.Op, L: l, R: r}

	case netlist.NetEConcat:
		parts := make([]netlist.NetExpr, len(n.Parts))
		allConst := true
		for i, p := range n.Parts {
			parts[i] = EvalTree(p)
			if _, ok := parts[i].(netlist.NetEConst); !ok {
				allConst = false
			}
		}
		if allConst && len(parts) > 0 {
			// Parts are MSB-first; verinum.Concat takes them the same way.
			vs := make([]verinum.Vector, len(parts))
			for i, p := range parts {
				vs[i] = p.(netlist.NetEConst).Value
			}
			return netlist.NetEConst{Value: verinum.Concat(vs...)}
		}
		return netlist.NetEConcat{Parts: parts}

	default:
		return e
	}
}

// padToWidth zero-extends a procedural expression to wid bits (invariant 3:
// "the r-value width is padded (zero-extended) to the l-value part-select
// width"). A wider expression is left alone; consumers take the low bits.
func padToWidth(e netlist.NetExpr, wid int) netlist.NetExpr {
	if e.Width() >= wid {
		return e
	}
	if c, ok := e.(netlist.NetEConst); ok {
		return netlist.NetEConst{Value: c.Value.Resized(wid)}
	}
	pad := verinum.FromInt64(0, wid-e.Width())
	return netlist.NetEConcat{Parts: []netlist.NetExpr{netlist.NetEConst{Value: pad}, e}}
}

// truncToWidth drops the high bits of a procedural expression down to wid
// (SPEC_FULL.md §D.7, the narrower-caller copy-back direction).
func truncToWidth(e netlist.NetExpr, wid int) netlist.NetExpr {
	if e.Width() <= wid {
		return e
	}
	if c, ok := e.(netlist.NetEConst); ok {
		return netlist.NetEConst{Value: c.Value.Resized(wid)}
	}
	return netlist.NetEUBits{Operand: e, MSB: wid - 1, LSB: 0}
}
