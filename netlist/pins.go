package netlist

// Pin is a handle into a Design's pin arena: one electrical connection
// point, belonging either to a signal bit or to a named pin of a node.
// The arena is an arena-allocated union-find graph (spec §9's explicit
// replacement for the original's raw doubly-linked pointer ring):
// Connect is union, and the nexus of a pin is its union-find class.
type Pin int

// PinOwner describes what a Pin is attached to, for nexus naming (C10) and
// diagnostics.
type PinOwner struct {
	Signal   *NetNet // non-nil if this pin is one bit of a signal
	BitIndex int
	Node     Node   // non-nil if this pin belongs to a node
	PinName  string // e.g. "Data3", "Clock", "Q1"
}

type pinInfo struct {
	parent Pin
	rank   int
	owner  PinOwner
}

// NewPin allocates a new singleton pin and returns its handle.
func (d *Design) NewPin(owner PinOwner) Pin {
	p := Pin(len(d.arena))
	d.arena = append(d.arena, pinInfo{parent: p, owner: owner})
	return p
}

// Find returns the canonical representative of p's nexus, path-compressing
// along the way.
func (d *Design) Find(p Pin) Pin {
	root := p
	for d.arena[root].parent != root {
		root = d.arena[root].parent
	}
	for d.arena[p].parent != root {
		next := d.arena[p].parent
		d.arena[p].parent = root
		p = next
	}
	return root
}

// Connect splices a and b into the same nexus (spec §3.2 "connect(a,b)
// splices two rings"; here, a union). It is idempotent and order-independent
// (testable property 4, connection symmetry).
func (d *Design) Connect(a, b Pin) {
	ra, rb := d.Find(a), d.Find(b)
	if ra == rb {
		return
	}
	ia, ib := &d.arena[ra], &d.arena[rb]
	switch {
	case ia.rank < ib.rank:
		ia.parent = rb
	case ia.rank > ib.rank:
		ib.parent = ra
	default:
		ib.parent = ra
		ia.rank++
	}
}

// Connected reports whether a and b belong to the same nexus.
func (d *Design) Connected(a, b Pin) bool {
	return d.Find(a) == d.Find(b)
}

// NexusMembers returns every pin sharing p's nexus, including p itself.
// This is a full arena scan; elaborated designs are small enough (a single
// compilation unit's worth of signals and nodes) that this is not a
// bottleneck, and it keeps the union-find representation free of an
// auxiliary adjacency list to maintain.
func (d *Design) NexusMembers(p Pin) []Pin {
	rep := d.Find(p)
	var out []Pin
	for i := range d.arena {
		if d.Find(Pin(i)) == rep {
			out = append(out, Pin(i))
		}
	}
	return out
}

// Owner returns the PinOwner recorded for p.
func (d *Design) Owner(p Pin) PinOwner {
	return d.arena[p].owner
}
