package netlist

import (
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// NetKind is a signal's storage discipline (spec §3.2, invariant 4:
// register/wire discipline).
type NetKind int

const (
	KindWire NetKind = iota
	KindReg
	KindInteger
)

func (k NetKind) String() string {
	switch k {
	case KindReg:
		return "reg"
	case KindInteger:
		return "integer"
	default:
		return "wire"
	}
}

// IsRegLike reports whether a signal of this kind may be the l-value target
// of a procedural assign (invariant 4).
func (k NetKind) IsRegLike() bool { return k == KindReg || k == KindInteger }

// NetNet is one elaborated signal: a bus of Width() bits, each with its own
// pin in the link graph.
type NetNet struct {
	Scope      *NetScope
	Name       string // unqualified
	FQName     string
	MSB, LSB   int
	Kind       NetKind
	Dir        pform.PortDir
	Local      bool // true for compiler-synthesized temporaries
	Attributes map[string]string
	Pins       []Pin // one per bit, index 0 = LSB-most allocated bit
	Init       verinum.Bit
}

// Width returns the signal's bit width.
func (n *NetNet) Width() int {
	if n.MSB >= n.LSB {
		return n.MSB - n.LSB + 1
	}
	return n.LSB - n.MSB + 1
}

// Pin returns the pin for bit index i (0-based from the LSB-most declared
// bit, matching Pins' allocation order).
func (n *NetNet) Pin(i int) Pin { return n.Pins[i] }

// NetMemory is a declared memory (array of words), spec §3.2.
type NetMemory struct {
	Scope         *NetScope
	Name          string
	FQName        string
	Width         int
	LIdx, RIdx    int
	Attributes    map[string]string
}

// WordCount returns the number of addressable words.
func (m *NetMemory) WordCount() int {
	if m.LIdx >= m.RIdx {
		return m.LIdx - m.RIdx + 1
	}
	return m.RIdx - m.LIdx + 1
}

// Node is the closed sum of structural node variants (spec §3.2).
type Node interface {
	isNode()
	ScopeOf() *NetScope
	NameOf() string
}

type NodeBase struct {
	Scope *NetScope
	Name  string
}

func (n NodeBase) ScopeOf() *NetScope { return n.Scope }
func (n NodeBase) NameOf() string     { return n.Name }

// LogicFunc is the function computed by a NetLogic node. It extends
// pform.BuiltinType with LogicBufz, the implicit buffer synthesized for a
// continuous assign (spec scenario S1: "a 4-pin NetBUFZ ... connecting").
type LogicFunc int

const (
	LogicAnd LogicFunc = iota
	LogicBuf
	LogicBufif0
	LogicBufif1
	LogicNand
	LogicNor
	LogicNot
	LogicOr
	LogicXnor
	LogicXor
	LogicBufz
)

func FromBuiltinType(t pform.BuiltinType) LogicFunc {
	switch t {
	case pform.GateAnd:
		return LogicAnd
	case pform.GateBuf:
		return LogicBuf
	case pform.GateBufif0:
		return LogicBufif0
	case pform.GateBufif1:
		return LogicBufif1
	case pform.GateNand:
		return LogicNand
	case pform.GateNor:
		return LogicNor
	case pform.GateNot:
		return LogicNot
	case pform.GateOr:
		return LogicOr
	case pform.GateXnor:
		return LogicXnor
	default:
		return LogicXor
	}
}

func (f LogicFunc) String() string {
	switch f {
	case LogicAnd:
		return "and"
	case LogicBuf:
		return "buf"
	case LogicBufif0:
		return "bufif0"
	case LogicBufif1:
		return "bufif1"
	case LogicNand:
		return "nand"
	case LogicNor:
		return "nor"
	case LogicNot:
		return "not"
	case LogicOr:
		return "or"
	case LogicXnor:
		return "xnor"
	case LogicXor:
		return "xor"
	case LogicBufz:
		return "bufz"
	default:
		return "?"
	}
}

// NetLogic is a primitive gate or continuous-assign driver.
type NetLogic struct {
	NodeBase
	Type                  LogicFunc
	Rise, Fall, Decay     int
	Pins                  []Pin // pin 0 is the output
}

func (NetLogic) isNode() {}

// NewLogic constructs a named, scoped NetLogic node (callers outside this
// package cannot name the unexported NodeBase field directly).
func NewLogic(scope *NetScope, name string, t LogicFunc, rise, fall, decay int) *NetLogic {
	return &NetLogic{NodeBase: NodeBase{Scope: scope, Name: name}, Type: t, Rise: rise, Fall: fall, Decay: decay}
}

// NetUDP is a user-defined-primitive instance.
type NetUDP struct {
	NodeBase
	UdpName    string
	Sequential bool
	Initial    verinum.Bit
	Table      []pform.UdpRow
	Pins       []Pin // pin 0 is the output
}

func (NetUDP) isNode() {}

// NewUDP constructs a named, scoped NetUDP node.
func NewUDP(scope *NetScope, name, udpName string, sequential bool, initial verinum.Bit, table []pform.UdpRow) *NetUDP {
	return &NetUDP{NodeBase: NodeBase{Scope: scope, Name: name}, UdpName: udpName, Sequential: sequential, Initial: initial, Table: table}
}

// NetConst is a constant-value driver synthesized for a literal operand.
type NetConst struct {
	NodeBase
	Value verinum.Vector
	Pins  []Pin
}

func (NetConst) isNode() {}

// NetFF is a synthesized flip-flop (C11 output).
type NetFF struct {
	NodeBase
	DataPins, QPins []Pin
	ClockPin        Pin
	EnablePin       Pin
	HasEnable       bool
	Attributes      map[string]string
}

func (n NetFF) Width() int { return len(n.QPins) }

func (NetFF) isNode() {}

// NewFF constructs a named, scoped NetFF node.
func NewFF(scope *NetScope, name string) *NetFF {
	return &NetFF{NodeBase: NodeBase{Scope: scope, Name: name}, Attributes: map[string]string{}}
}

// NetRamDq is a synthesized RAM write port (C11 output).
type NetRamDq struct {
	NodeBase
	Memory     *NetMemory
	AddrPins   []Pin
	DataPins   []Pin
	WEPin      Pin
	HasWE      bool
	InClockPin Pin
	Attributes map[string]string
}

func (NetRamDq) isNode() {}

// NewRamDq constructs a named, scoped NetRamDq node.
func NewRamDq(scope *NetScope, name string, mem *NetMemory) *NetRamDq {
	return &NetRamDq{NodeBase: NodeBase{Scope: scope, Name: name}, Memory: mem, Attributes: map[string]string{}}
}
