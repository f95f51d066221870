// Package synth is the behavioral-to-structural rewrite pass (spec §4.8,
// C11). It walks every top-level process of an elaborated design and rewrites
// recognized always-block idioms into library primitives: single-edge
// register assignments become NetFF flip-flops, and posedge memory-word
// assignments become NetRamDq write ports. Unmatched always processes and
// all initial processes are left intact.
package synth

import (
	"log/slog"

	"github.com/sarchlab/velab/netlist"
	"github.com/sarchlab/velab/pform"
	"github.com/sarchlab/velab/verinum"
)

// Logger is the package's internal tracing logger, overridable the same way
// elaborate.Logger is.
var Logger = slog.Default()

// Run applies the synthesis functor to every process in the design. Matched
// processes are deleted after their replacement node is installed.
func Run(d *netlist.Design) {
	// Snapshot the process list: a successful match deletes from the
	// design's own slice mid-walk.
	procs := append([]*netlist.NetProcTop(nil), d.Procs()...)
	for _, top := range procs {
		if top.Kind != pform.Always {
			continue
		}
		m := &dffMatch{des: d, top: top}
		if m.matchProc(top.Body) {
			Logger.Debug("synthesis pattern matched", "design_id", d.ID, "scope", top.Scope.FQName)
			m.makeIt()
			d.RemoveProc(top)
		}
	}
}

// dffMatch accumulates the pieces of the DFF / RAM-write pattern as the
// matcher descends:
//
//	always @(posedge|negedge CLK)           Q = D
//	always @(posedge|negedge CLK) if (CE)   Q = D
//	always @(posedge CLK)           M[a] = D
//	always @(posedge CLK) if (CE)   M[a] = D
type dffMatch struct {
	des *netlist.Design
	top *netlist.NetProcTop

	clk     *netlist.NetNet
	negedge bool

	ce *netlist.NetNet

	asn *netlist.NetAssign
	asm *netlist.NetAssignMem

	data *netlist.NetNet
}

// matchProc is the closed-sum dispatch that replaces the original's
// double-dispatch proc_match_t visitor: each variant method below returns
// whether the partial match can continue.
func (m *dffMatch) matchProc(p netlist.NetProc) bool {
	switch n := p.(type) {
	case netlist.NetPEvent:
		return m.pevent(n)
	case netlist.NetCondit:
		return m.condit(n)
	case netlist.NetAssign:
		return m.assign(n)
	case netlist.NetAssignNB:
		// A nonblocking register transfer under a single clock edge is the
		// same hardware; fold it into the blocking shape for the match.
		if n.HasDelay {
			return false
		}
		return m.assign(netlist.NetAssign{
			LVal: n.LVal, MSB: n.MSB, LSB: n.LSB, Mux: n.Mux, RVal: n.RVal, Width: n.Width,
		})
	case netlist.NetAssignMem:
		return m.assignMem(n)
	default:
		return false
	}
}

func (m *dffMatch) pevent(pe netlist.NetPEvent) bool {
	if m.clk != nil || m.ce != nil || m.asn != nil || m.asm != nil {
		return false
	}
	if len(pe.Sources) != 1 {
		return false
	}
	src := pe.Sources[0]
	if src.Kind != pform.Posedge && src.Kind != pform.Negedge {
		return false
	}
	if src.Net == nil || src.Net.Width() < 1 {
		return false
	}
	m.clk = src.Net
	m.negedge = src.Kind == pform.Negedge
	if pe.Body == nil {
		return false
	}
	return m.matchProc(pe.Body)
}

func (m *dffMatch) condit(co netlist.NetCondit) bool {
	if m.clk == nil {
		return false
	}
	if m.ce != nil || m.asn != nil || m.asm != nil {
		return false
	}
	if co.Elsep != nil {
		return false
	}
	ce := m.synthesize(co.Cond)
	if ce == nil || ce.Width() != 1 {
		return false
	}
	m.ce = ce
	if co.Ifp == nil {
		return false
	}
	return m.matchProc(co.Ifp)
}

func (m *dffMatch) assign(as netlist.NetAssign) bool {
	if m.clk == nil {
		return false
	}
	if m.asn != nil || m.asm != nil {
		return false
	}
	if as.Mux != nil {
		return false
	}
	d := m.synthesize(as.RVal)
	if d == nil {
		return false
	}
	m.asn = &as
	m.data = d
	return true
}

func (m *dffMatch) assignMem(as netlist.NetAssignMem) bool {
	if m.clk == nil {
		return false
	}
	if m.asn != nil || m.asm != nil {
		return false
	}
	// The memory write port carries only a non-inverted clock input, so the
	// negedge form of the pattern stays behavioral.
	if m.negedge {
		return false
	}
	d := m.synthesize(as.RVal)
	if d == nil {
		return false
	}
	m.asm = &as
	m.data = d
	return true
}

// synthesize renders a procedural expression as a structural net. Only
// identifier and constant r-values participate in the pattern; anything
// else fails the match, matching the original's constraint that "the
// r-value of the assignments must be identifiers".
func (m *dffMatch) synthesize(e netlist.NetExpr) *netlist.NetNet {
	switch n := e.(type) {
	case netlist.NetESignal:
		if n.MSB == n.Sig.MSB && n.LSB == n.Sig.LSB {
			return n.Sig
		}
		return m.sliceNet(n)
	case netlist.NetEConst:
		return m.constNet(n.Value)
	default:
		return nil
	}
}

func (m *dffMatch) newLocal(width int) *netlist.NetNet {
	scope := m.top.Scope
	n := &netlist.NetNet{
		Scope: scope,
		Name:  m.des.FreshLocalName(scope),
		MSB:   width - 1,
		LSB:   0,
		Kind:  netlist.KindWire,
		Local: true,
		Init:  verinum.Bz,
	}
	for i := 0; i < width; i++ {
		n.Pins = append(n.Pins, m.des.NewPin(netlist.PinOwner{Signal: n, BitIndex: i}))
	}
	m.des.AddSignal(n)
	return n
}

func (m *dffMatch) sliceNet(sel netlist.NetESignal) *netlist.NetNet {
	w := sel.Width()
	out := m.newLocal(w)
	lo := sel.LSB
	if sel.MSB < sel.LSB {
		lo = sel.MSB
	}
	for i := 0; i < w; i++ {
		li := bitIndex(sel.Sig, lo+i)
		if li >= 0 && li < sel.Sig.Width() {
			m.des.Connect(out.Pin(i), sel.Sig.Pin(li))
		}
	}
	return out
}

func (m *dffMatch) constNet(v verinum.Vector) *netlist.NetNet {
	out := m.newLocal(v.Width())
	node := &netlist.NetConst{Value: v}
	for i := 0; i < v.Width(); i++ {
		p := m.des.NewPin(netlist.PinOwner{Node: node, PinName: "O"})
		node.Pins = append(node.Pins, p)
		m.des.Connect(out.Pin(i), p)
	}
	m.des.AddNode(node)
	return out
}

// bitIndex maps a declared bit number to a signal's 0-based pin index.
func bitIndex(sig *netlist.NetNet, bitNum int) int {
	if sig.MSB >= sig.LSB {
		return bitNum - sig.LSB
	}
	return sig.LSB - bitNum
}

func (m *dffMatch) makeIt() {
	if m.asn != nil {
		m.makeDFF()
		return
	}
	m.makeRAM()
}

func (m *dffMatch) makeDFF() {
	scope := m.top.Scope
	reg := m.asn.LVal
	wid := m.asn.Width
	lo := m.asn.LSB
	if m.asn.MSB < m.asn.LSB {
		lo = m.asn.MSB
	}

	ff := netlist.NewFF(scope, m.des.FreshLocalName(scope))
	for i := 0; i < wid; i++ {
		dPin := m.des.NewPin(netlist.PinOwner{Node: ff, PinName: "Data" + itoa(i)})
		qPin := m.des.NewPin(netlist.PinOwner{Node: ff, PinName: "Q" + itoa(i)})
		ff.DataPins = append(ff.DataPins, dPin)
		ff.QPins = append(ff.QPins, qPin)
		if i < m.data.Width() {
			m.des.Connect(dPin, m.data.Pin(i))
		}
		li := bitIndex(reg, lo+i)
		if li >= 0 && li < reg.Width() {
			m.des.Connect(qPin, reg.Pin(li))
		}
	}

	ff.ClockPin = m.des.NewPin(netlist.PinOwner{Node: ff, PinName: "Clock"})
	m.des.Connect(ff.ClockPin, m.clk.Pin(0))

	if m.ce != nil {
		ff.EnablePin = m.des.NewPin(netlist.PinOwner{Node: ff, PinName: "Enable"})
		ff.HasEnable = true
		m.des.Connect(ff.EnablePin, m.ce.Pin(0))
	}

	ff.Attributes["LPM_FFType"] = "DFF"
	if m.negedge {
		ff.Attributes["Clock:LPM_Polarity"] = "INVERT"
	}

	m.des.AddNode(ff)
}

func (m *dffMatch) makeRAM() {
	scope := m.top.Scope
	mem := m.asm.Mem

	addr := m.synthesize(m.asm.Index)
	if addr == nil {
		// Index was more than an identifier or constant; fall back to a
		// holder net so address lines still exist for the write port.
		addr = m.newLocal(m.asm.Index.Width())
	}

	ram := netlist.NewRamDq(scope, m.des.FreshLocalName(scope), mem)
	for i := 0; i < addr.Width(); i++ {
		aPin := m.des.NewPin(netlist.PinOwner{Node: ram, PinName: "Address" + itoa(i)})
		ram.AddrPins = append(ram.AddrPins, aPin)
		m.des.Connect(aPin, addr.Pin(i))
	}
	for i := 0; i < mem.Width; i++ {
		dPin := m.des.NewPin(netlist.PinOwner{Node: ram, PinName: "Data" + itoa(i)})
		ram.DataPins = append(ram.DataPins, dPin)
		if i < m.data.Width() {
			m.des.Connect(dPin, m.data.Pin(i))
		}
	}
	if m.ce != nil {
		ram.WEPin = m.des.NewPin(netlist.PinOwner{Node: ram, PinName: "WE"})
		ram.HasWE = true
		m.des.Connect(ram.WEPin, m.ce.Pin(0))
	}
	ram.InClockPin = m.des.NewPin(netlist.PinOwner{Node: ram, PinName: "InClock"})
	m.des.Connect(ram.InClockPin, m.clk.Pin(0))

	m.absorbPartners(ram)
	m.des.AddNode(ram)
}

// absorbPartners folds sibling ports on the same memory into this write
// port's address and clock nexus (SPEC_FULL.md §D.8), so a previously
// synthesized access path and this one present as a single device rather
// than two disconnected ones.
func (m *dffMatch) absorbPartners(ram *netlist.NetRamDq) {
	for _, node := range m.des.Nodes() {
		other, ok := node.(*netlist.NetRamDq)
		if !ok || other == ram || other.Memory != ram.Memory {
			continue
		}
		for i := 0; i < len(ram.AddrPins) && i < len(other.AddrPins); i++ {
			m.des.Connect(ram.AddrPins[i], other.AddrPins[i])
		}
		m.des.Connect(ram.InClockPin, other.InClockPin)
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
