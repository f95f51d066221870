package nexus

import (
	"testing"

	"github.com/sarchlab/velab/netlist"
)

func makeSignal(d *netlist.Design, scope *netlist.NetScope, name string, width int, local bool) *netlist.NetNet {
	n := &netlist.NetNet{Scope: scope, Name: name, MSB: width - 1, LSB: 0, Local: local}
	for i := 0; i < width; i++ {
		n.Pins = append(n.Pins, d.NewPin(netlist.PinOwner{Signal: n, BitIndex: i}))
	}
	d.AddSignal(n)
	return n
}

func TestPrefersNonLocalMultiBitSignals(t *testing.T) {
	d := netlist.NewDesign()
	m, _ := d.NewScope(d.Root(), netlist.ModuleScope, "m")

	tmp := makeSignal(d, m, "_L1", 1, true)
	bus := makeSignal(d, m, "data", 4, false)

	d.Connect(tmp.Pin(0), bus.Pin(2))

	want := "m.data<2>"
	if got := NameOf(d, tmp.Pin(0)); got != want {
		t.Fatalf("NameOf = %q, want %q", got, want)
	}
}

func TestLexicographicTieBreak(t *testing.T) {
	d := netlist.NewDesign()
	m, _ := d.NewScope(d.Root(), netlist.ModuleScope, "m")

	b := makeSignal(d, m, "beta", 1, false)
	a := makeSignal(d, m, "alpha", 1, false)

	d.Connect(b.Pin(0), a.Pin(0))

	if got := NameOf(d, b.Pin(0)); got != "m.alpha" {
		t.Fatalf("NameOf = %q, want m.alpha", got)
	}
}

func TestDeterministicAcrossMembers(t *testing.T) {
	d := netlist.NewDesign()
	m, _ := d.NewScope(d.Root(), netlist.ModuleScope, "m")

	x := makeSignal(d, m, "x", 2, false)
	y := makeSignal(d, m, "y", 2, false)
	tmp := makeSignal(d, m, "_L9", 1, true)

	d.Connect(x.Pin(1), y.Pin(0))
	d.Connect(y.Pin(0), tmp.Pin(0))

	want := NameOf(d, x.Pin(1))
	for _, p := range d.NexusMembers(x.Pin(1)) {
		if got := NameOf(d, p); got != want {
			t.Fatalf("NameOf(%d) = %q, want %q", int(p), got, want)
		}
	}
}

func TestSingleBitSignalHasNoIndexSuffix(t *testing.T) {
	d := netlist.NewDesign()
	m, _ := d.NewScope(d.Root(), netlist.ModuleScope, "m")

	clk := makeSignal(d, m, "clk", 1, false)

	if got := NameOf(d, clk.Pin(0)); got != "m.clk" {
		t.Fatalf("NameOf = %q, want m.clk", got)
	}
}
