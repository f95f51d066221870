package pform

import "testing"

func TestLoadFixtureFile(t *testing.T) {
	mods, err := LoadFixtureFile("testdata/s1_continuous_assign.yaml")
	if err != nil {
		t.Fatalf("LoadFixtureFile: %v", err)
	}

	m, ok := mods["m"]
	if !ok {
		t.Fatalf("module m not found, got %v", mods)
	}

	if m.PortCount() != 2 {
		t.Fatalf("port count = %d, want 2", m.PortCount())
	}
	if m.FindPort("a") != 1 {
		t.Fatalf("FindPort(a) = %d, want 1", m.FindPort("a"))
	}
	if m.FindPort("nope") != m.PortCount() {
		t.Fatalf("FindPort(missing) should equal PortCount()")
	}

	if len(m.Gates) != 1 {
		t.Fatalf("expected 1 gate, got %d", len(m.Gates))
	}
	ga, ok := m.Gates[0].(GateAssign)
	if !ok {
		t.Fatalf("gate 0 is %T, want GateAssign", m.Gates[0])
	}
	lv, ok := ga.LVal.(EIdent)
	if !ok || lv.Name != "y" {
		t.Fatalf("lval = %+v, want ident y", ga.LVal)
	}
}

func TestWireYAMLRegKind(t *testing.T) {
	yamlWire := WireYAML{Kind: "reg"}
	pw, err := yamlWire.ToWire("q", Pos{})
	if err != nil {
		t.Fatalf("ToWire: %v", err)
	}
	if pw.Kind != Reg {
		t.Fatalf("kind = %v, want Reg", pw.Kind)
	}
	if !pw.Kind.IsRegLike() {
		t.Fatalf("expected reg-like kind")
	}
}
