package elaborate

import (
	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// EvalConst folds a parse expression to a 4-valued constant vector (spec
// §4.1, C3). It succeeds for literals, parameter references resolved
// against scope's chain, and pure-arithmetic compositions of the above; it
// fails (ok=false) the moment any sub-expression references a signal, a
// non-constant function call, or an unresolved parameter — callers then
// fall back to expression lowering (C7).
func EvalConst(ctx *ElabCtx, scope *netlist.NetScope, e pform.Expr) (verinum.Vector, bool) {
	switch n := e.(type) {
	case pform.ENumber:
		return n.Value, true

	case pform.EIdent:
		if n.Bit != nil || n.MSB != nil {
			// A constant bit/part-select of a parameter is legal but rare;
			// the base identifier must itself fold first.
			base, ok := lookupParam(ctx, scope, n.Name)
			if !ok {
				return verinum.Vector{}, false
			}
			return sliceConstIdent(ctx, scope, n, base)
		}
		v, ok := lookupParam(ctx, scope, n.Name)
		return v, ok

	case pform.EUnary:
		v, ok := EvalConst(ctx, scope, n.Operand)
		if !ok {
			return verinum.Vector{}, false
		}
		return foldUnary(n.Op, v), true

	case pform.EBinary:
		l, ok := EvalConst(ctx, scope, n.L)
		if !ok {
			return verinum.Vector{}, false
		}
		r, ok := EvalConst(ctx, scope, n.R)
		if !ok {
			return verinum.Vector{}, false
		}
		return foldBinary(n.Op, l, r), true

	case pform.ETernary:
		c, ok := EvalConst(ctx, scope, n.Cond)
		if !ok {
			return verinum.Vector{}, false
		}
		t, ok := EvalConst(ctx, scope, n.Then)
		if !ok {
			return verinum.Vector{}, false
		}
		f, ok := EvalConst(ctx, scope, n.Else)
		if !ok {
			return verinum.Vector{}, false
		}
		if !c.IsConstant() {
			w := t.Width()
			if f.Width() > w {
				w = f.Width()
			}
			bs := make([]verinum.Bit, w)
			for i := range bs {
				bs[i] = verinum.Bx
			}
			return verinum.Vector{Bits: bs}, true
		}
		if c.Int64() != 0 {
			return t, true
		}
		return f, true

	case pform.EConcat:
		if n.Repeat != nil {
			rep, ok := EvalConst(ctx, scope, n.Repeat)
			if !ok || !rep.IsConstant() {
				return verinum.Vector{}, false
			}
			parts := make([]verinum.Vector, 0, len(n.Parts)*int(rep.Int64()))
			for i := int64(0); i < rep.Int64(); i++ {
				for _, p := range n.Parts {
					v, ok := EvalConst(ctx, scope, p)
					if !ok {
						return verinum.Vector{}, false
					}
					parts = append(parts, v)
				}
			}
			return verinum.Concat(parts...), true
		}
		parts := make([]verinum.Vector, 0, len(n.Parts))
		for _, p := range n.Parts {
			v, ok := EvalConst(ctx, scope, p)
			if !ok {
				return verinum.Vector{}, false
			}
			parts = append(parts, v)
		}
		return verinum.Concat(parts...), true

	default:
		// EString, EFuncCall, EEvent: never fold to a constant.
		return verinum.Vector{}, false
	}
}

func lookupParam(ctx *ElabCtx, scope *netlist.NetScope, name string) (verinum.Vector, bool) {
	for s := scope; s != nil; s = s.Parent {
		if v, ok := ctx.Design.FindParameter(s.Qualify(name)); ok {
			return v, ok
		}
	}
	return verinum.Vector{}, false
}

func sliceConstIdent(ctx *ElabCtx, scope *netlist.NetScope, n pform.EIdent, base verinum.Vector) (verinum.Vector, bool) {
	if n.Bit != nil {
		idx, ok := EvalConst(ctx, scope, n.Bit)
		if !ok || !idx.IsConstant() {
			return verinum.Vector{}, false
		}
		i := int(idx.Int64())
		if i < 0 || i >= base.Width() {
			return verinum.Vector{Bits: []verinum.Bit{verinum.Bx}}, true
		}
		return verinum.Vector{Bits: []verinum.Bit{base.Bits[i]}}, true
	}
	msb, ok := EvalConst(ctx, scope, n.MSB)
	if !ok || !msb.IsConstant() {
		return verinum.Vector{}, false
	}
	lsb, ok := EvalConst(ctx, scope, n.LSB)
	if !ok || !lsb.IsConstant() {
		return verinum.Vector{}, false
	}
	hi, lo := int(msb.Int64()), int(lsb.Int64())
	if hi < lo {
		hi, lo = lo, hi
	}
	bs := make([]verinum.Bit, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		if i < 0 || i >= base.Width() {
			bs = append(bs, verinum.Bx)
			continue
		}
		bs = append(bs, base.Bits[i])
	}
	return verinum.Vector{Bits: bs}, true
}

func foldUnary(op string, v verinum.Vector) verinum.Vector {
	switch op {
	case "~":
		return verinum.Not(v)
	case "-":
		return verinum.Neg(v)
	case "!":
		return verinum.LogicalNot(v)
	case "&":
		return verinum.ReduceAnd(v)
	case "~&":
		return verinum.Not(verinum.ReduceAnd(v))
	case "|":
		return verinum.ReduceOr(v)
	case "~|":
		return verinum.Not(verinum.ReduceOr(v))
	case "^":
		return verinum.ReduceXor(v)
	case "~^":
		return verinum.Not(verinum.ReduceXor(v))
	default:
		return v
	}
}

func foldBinary(op string, l, r verinum.Vector) verinum.Vector {
	switch op {
	case "+":
		return verinum.Add(l, r)
	case "-":
		return verinum.Sub(l, r)
	case "*":
		return verinum.Mul(l, r)
	case "/":
		return verinum.Div(l, r)
	case "%":
		return verinum.Mod(l, r)
	case "&":
		return verinum.And(l, r)
	case "|":
		return verinum.Or(l, r)
	case "^":
		return verinum.Xor(l, r)
	case "~^":
		return verinum.Xnor(l, r)
	case "&&":
		return verinum.LogicalAnd(l, r)
	case "||":
		return verinum.LogicalOr(l, r)
	case "==", "===":
		if op == "===" {
			return verinum.FromBool(verinum.Eq(l, r))
		}
		return verinum.LogicalEq(l, r)
	case "!=", "!==":
		if op == "!==" {
			return verinum.FromBool(!verinum.Eq(l, r))
		}
		return verinum.NotEq(l, r)
	case "<":
		return verinum.Lt(l, r)
	case ">":
		return verinum.Gt(l, r)
	case "<=":
		return verinum.Le(l, r)
	case ">=":
		return verinum.Ge(l, r)
	case "<<":
		if !r.IsConstant() {
			return verinum.Vector{Bits: xbits(l.Width())}
		}
		return verinum.Shl(l, r.Int64())
	case ">>":
		if !r.IsConstant() {
			return verinum.Vector{Bits: xbits(l.Width())}
		}
		return verinum.Shr(l, r.Int64())
	default:
		return verinum.Vector{Bits: xbits(l.Width())}
	}
}

func xbits(w int) []verinum.Bit {
	bs := make([]verinum.Bit, w)
	for i := range bs {
		bs[i] = verinum.Bx
	}
	return bs
}
