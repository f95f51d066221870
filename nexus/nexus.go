// Package nexus maps a point in the elaborated link graph to the canonical
// name of its nexus (spec §4.7, C10). The original walked the doubly-linked
// pin ring; here the same tie-break runs over the members of the pin's
// union-find class.
package nexus

import (
	"fmt"

	"github.com/sarchlab/velab/netlist"
)

// NameOf returns the canonical string name of p's nexus. Candidates are the
// signal bits touching the nexus; signals beat nodes, multi-bit signals beat
// single-bit ones, non-local signals beat local temporaries, and remaining
// ties go to the lexicographically least fully qualified name. A winner with
// more than one pin gets its bit index appended as "<i>" (testable property
// 5: any two pins of one nexus resolve to the same string).
func NameOf(d *netlist.Design, p netlist.Pin) string {
	var sig *netlist.NetNet
	bit := 0

	for _, member := range d.NexusMembers(p) {
		owner := d.Owner(member)
		cur := owner.Signal
		if cur == nil {
			continue
		}
		if sig == nil {
			sig, bit = cur, owner.BitIndex
			continue
		}
		if cur.Width() == 1 && sig.Width() > 1 {
			continue
		}
		if cur.Width() > 1 && sig.Width() == 1 {
			sig, bit = cur, owner.BitIndex
			continue
		}
		if cur.Local && !sig.Local {
			continue
		}
		if !cur.Local && sig.Local {
			sig, bit = cur, owner.BitIndex
			continue
		}
		if cur.FQName < sig.FQName {
			sig, bit = cur, owner.BitIndex
		}
	}

	if sig == nil {
		owner := d.Owner(p)
		if owner.Node != nil {
			return fmt.Sprintf("%s.%s", owner.Node.NameOf(), owner.PinName)
		}
		return fmt.Sprintf("<pin%d>", int(p))
	}

	if sig.Width() > 1 {
		return fmt.Sprintf("%s<%d>", sig.FQName, bit)
	}
	return sig.FQName
}
