package netlist

import (
	"testing"

	"github.com/sarchlab/velab/verinum"
)

func TestScopeUniqueness(t *testing.T) {
	d := NewDesign()

	m, ok := d.NewScope(d.Root(), ModuleScope, "m")
	if !ok {
		t.Fatalf("creating scope m failed")
	}
	if m.FQName != "m" {
		t.Fatalf("FQName = %q, want m", m.FQName)
	}

	u, ok := d.NewScope(m, ModuleScope, "u1")
	if !ok || u.FQName != "m.u1" {
		t.Fatalf("creating m.u1 failed, got %+v", u)
	}

	if _, ok := d.NewScope(m, ModuleScope, "u1"); ok {
		t.Fatalf("duplicate scope m.u1 was allowed")
	}

	if _, ok := d.ScopeByFQName("m.u1"); !ok {
		t.Fatalf("lookup of m.u1 failed")
	}
}

func TestConnectSymmetry(t *testing.T) {
	d := NewDesign()
	a := d.NewPin(PinOwner{})
	b := d.NewPin(PinOwner{})
	c := d.NewPin(PinOwner{})
	lone := d.NewPin(PinOwner{})

	d.Connect(a, b)
	d.Connect(b, c)

	if !d.Connected(a, b) || !d.Connected(b, a) {
		t.Fatalf("connect is not symmetric")
	}
	if !d.Connected(a, c) {
		t.Fatalf("connect is not transitive")
	}
	if d.Connected(a, lone) {
		t.Fatalf("unrelated pin joined the nexus")
	}

	members := d.NexusMembers(b)
	if len(members) != 3 {
		t.Fatalf("nexus has %d members, want 3", len(members))
	}

	// Re-connecting is a no-op.
	d.Connect(c, a)
	if got := len(d.NexusMembers(a)); got != 3 {
		t.Fatalf("nexus has %d members after reconnect, want 3", got)
	}
}

func TestFreshLocalNameMonotonic(t *testing.T) {
	d := NewDesign()
	scope, _ := d.NewScope(d.Root(), ModuleScope, "m")

	if got := d.FreshLocalName(scope); got != "_L1" {
		t.Fatalf("first local name = %q, want _L1", got)
	}
	if got := d.FreshLocalName(scope); got != "_L2" {
		t.Fatalf("second local name = %q, want _L2", got)
	}

	other, _ := d.NewScope(d.Root(), ModuleScope, "n")
	if got := d.FreshLocalName(other); got != "_L3" {
		t.Fatalf("counter is not design-wide, got %q", got)
	}
}

func TestSignalWidthAndLookup(t *testing.T) {
	d := NewDesign()
	m, _ := d.NewScope(d.Root(), ModuleScope, "m")
	u, _ := d.NewScope(m, ModuleScope, "u")

	sig := &NetNet{Scope: m, Name: "x", MSB: 7, LSB: 0, Kind: KindWire, Init: verinum.Bz}
	d.AddSignal(sig)

	if sig.Width() != 8 {
		t.Fatalf("width = %d, want 8", sig.Width())
	}

	rev := &NetNet{Scope: m, Name: "y", MSB: 0, LSB: 3, Kind: KindReg, Init: verinum.Bx}
	d.AddSignal(rev)
	if rev.Width() != 4 {
		t.Fatalf("reversed-bounds width = %d, want 4", rev.Width())
	}

	// Lookup walks up the scope chain.
	found, ok := d.FindSignal(u, "x")
	if !ok || found != sig {
		t.Fatalf("FindSignal from child scope failed")
	}
	if _, ok := d.FindSignal(u, "nope"); ok {
		t.Fatalf("found a signal that does not exist")
	}
}

func TestMemoryRegistration(t *testing.T) {
	d := NewDesign()
	m, _ := d.NewScope(d.Root(), ModuleScope, "m")

	mem := &NetMemory{Scope: m, Name: "ram", Width: 8, LIdx: 15, RIdx: 0}
	d.AddMemory(mem)

	if mem.FQName != "m.ram" {
		t.Fatalf("memory FQName = %q", mem.FQName)
	}
	if mem.WordCount() != 16 {
		t.Fatalf("word count = %d, want 16", mem.WordCount())
	}
	if _, ok := d.FindMemory(m, "ram"); !ok {
		t.Fatalf("FindMemory failed")
	}
}
