package netlist

import "github.com/sarchlab/velab/verinum"

// NetExpr is the closed sum of procedural (netlist-side) expression
// variants (spec §3.2).
type NetExpr interface {
	isNetExpr()
	Width() int
}

// NetEConst is a folded constant value used in a procedural expression.
type NetEConst struct {
	Value verinum.Vector
}

func (NetEConst) isNetExpr()   {}
func (e NetEConst) Width() int { return e.Value.Width() }

// NetESignal references a (possibly selected) range of a signal's bits.
// MSB/LSB index into the signal's own bit numbering.
type NetESignal struct {
	Sig      *NetNet
	MSB, LSB int
}

func (NetESignal) isNetExpr() {}
func (e NetESignal) Width() int {
	if e.MSB >= e.LSB {
		return e.MSB - e.LSB + 1
	}
	return e.LSB - e.MSB + 1
}

// NetEUnary applies a reduction/sign/logical-not unary operator.
type NetEUnary struct {
	Op      string
	Operand NetExpr
	W       int
}

func (NetEUnary) isNetExpr()   {}
func (e NetEUnary) Width() int { return e.W }

// NetEUBits slices an arbitrary sub-expression's bits (used where the
// operand being selected isn't a bare NetESignal).
type NetEUBits struct {
	Operand  NetExpr
	MSB, LSB int
}

func (NetEUBits) isNetExpr() {}
func (e NetEUBits) Width() int {
	if e.MSB >= e.LSB {
		return e.MSB - e.LSB + 1
	}
	return e.LSB - e.MSB + 1
}

// NetEBinary applies an arithmetic/bitwise binary operator; width follows
// Verilog's max-of-operands promotion rule.
type NetEBinary struct {
	Op   string
	L, R NetExpr
	W    int
}

func (NetEBinary) isNetExpr()   {}
func (e NetEBinary) Width() int { return e.W }

// NetEBComp applies a comparison operator, always producing a 1-bit result.
type NetEBComp struct {
	Op   string
	L, R NetExpr
}

func (NetEBComp) isNetExpr()   {}
func (NetEBComp) Width() int   { return 1 }

// NetEConcat concatenates sub-expressions MSB-first (Parts[0] most
// significant), matching pform.EConcat's textual order.
type NetEConcat struct {
	Parts []NetExpr
}

func (NetEConcat) isNetExpr() {}
func (e NetEConcat) Width() int {
	w := 0
	for _, p := range e.Parts {
		w += p.Width()
	}
	return w
}

// NetEParam references a folded module parameter by qualified name.
type NetEParam struct {
	Name  string
	Value verinum.Vector
}

func (NetEParam) isNetExpr()   {}
func (e NetEParam) Width() int { return e.Value.Width() }
