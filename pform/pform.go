// Package pform defines the parse-tree intermediate representation that the
// elaborator consumes: modules, wires, gates, statements, and expressions.
// Nothing in this package produces or mutates a netlist — it is the
// read-only input side of elaboration (lexing and parsing themselves are
// out of scope; callers build a pform.Module literally, or via the yaml.v3
// fixture format in fixture.go).
package pform

import "github.com/sarchlab/velab/verinum"

// Pos is the source location carried by every parse node, used for
// diagnostics ("file:line: ...").
type Pos struct {
	File string
	Line int
}

func (p Pos) String() string {
	if p.File == "" {
		return "<unknown>"
	}
	return p.File + ":" + itoa(p.Line)
}

func itoa(n int) string {
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

// WireKind is the declared storage class of a PWire.
type WireKind int

const (
	Implicit WireKind = iota
	Wire
	ImplicitReg
	Reg
	Integer
)

func (k WireKind) IsRegLike() bool {
	return k == Reg || k == ImplicitReg || k == Integer
}

func (k WireKind) String() string {
	switch k {
	case Implicit:
		return "implicit"
	case Wire:
		return "wire"
	case ImplicitReg:
		return "implicit_reg"
	case Reg:
		return "reg"
	case Integer:
		return "integer"
	default:
		return "unknown"
	}
}

// PortDir is a port's declared direction.
type PortDir int

const (
	PortNone PortDir = iota
	PortInput
	PortOutput
	PortInout
)

func (d PortDir) String() string {
	switch d {
	case PortInput:
		return "input"
	case PortOutput:
		return "output"
	case PortInout:
		return "inout"
	default:
		return "none"
	}
}

// Range is an [MSB:LSB] declaration; either bound may be a non-trivial
// constant expression that the constant evaluator must fold.
type Range struct {
	MSB, LSB Expr
}

// PWire is a single wire/reg/integer declaration. The same name may be
// declared more than once (e.g. separate width and direction statements);
// all declarations must agree after constant evaluation (spec §4.2).
type PWire struct {
	Pos        Pos
	Name       string
	Kind       WireKind
	Dir        PortDir
	Ranges     []Range
	MemRange   *Range // non-nil => this is a memory, not a plain signal
	Attributes map[string]string
}

// Param is a module parameter declaration: a name and its default
// expression, elaborated in the module's own scope unless overridden.
type Param struct {
	Pos     Pos
	Name    string
	Default Expr
}

// Port is one position in the module's ordered port list. Verilog allows a
// single port position to bind more than one internal wire (concatenated
// ports); Names holds them in declaration order.
type Port struct {
	Names []string
}

// ProcessKind distinguishes initial from always blocks.
type ProcessKind int

const (
	Initial ProcessKind = iota
	Always
)

// Process is one top-level behavioral block.
type Process struct {
	Pos  Pos
	Kind ProcessKind
	Stmt Statement
}

// Task is a user task declaration.
type Task struct {
	Pos   Pos
	Name  string
	Ports []*PWire // in declaration order; Dir distinguishes input/output/inout
	Body  Statement
}

// Function is a user function declaration. Return describes the function's
// return signal (its width and kind, named after the function itself).
type Function struct {
	Pos    Pos
	Name   string
	Return *PWire
	Ports  []*PWire
	Body   Statement
}

// Module is one parsed module definition.
type Module struct {
	Pos       Pos
	Name      string
	Params    []Param
	Ports     []Port
	Wires     map[string]*PWire
	Gates     []Gate
	Processes []*Process
	Tasks     map[string]*Task
	Functions map[string]*Function
}

// FindPort returns the index of the port binding the given internal wire
// name, or PortCount() if no port binds it ("not found", per spec §6).
func (m *Module) FindPort(name string) int {
	for i, p := range m.Ports {
		for _, n := range p.Names {
			if n == name {
				return i
			}
		}
	}
	return len(m.Ports)
}

// PortCount returns the number of port positions.
func (m *Module) PortCount() int { return len(m.Ports) }

// GetPort returns the wires bound at port position i.
func (m *Module) GetPort(i int) []*PWire {
	out := make([]*PWire, 0, len(m.Ports[i].Names))
	for _, n := range m.Ports[i].Names {
		if w, ok := m.Wires[n]; ok {
			out = append(out, w)
		}
	}
	return out
}

// UdpRow is one row of a UDP truth table: an input pattern (one verinum.Bit
// per input pin) mapped to an output bit. For a sequential UDP, State is the
// current-state symbol the row matches against; the elaborator prepends it
// to Inputs when installing the runtime table. Combinational UDPs leave
// State unused.
type UdpRow struct {
	State  verinum.Bit
	Inputs []verinum.Bit
	Output verinum.Bit
}

// Udp is a user-defined primitive declaration.
type Udp struct {
	Pos        Pos
	Name       string
	PortCount  int
	Sequential bool
	Initial    verinum.Bit
	Table      []UdpRow
}
