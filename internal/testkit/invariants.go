// Package testkit holds structural invariant checks shared by tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"vesper/internal/sym"
)

// CheckTableInvariants validates every completed dispatch table in the
// graph:
//  1. each slot holds a live declaration
//  2. slots occupied by the table owner's own members point back at their
//     index, finals likewise
//  3. a derived table starts with its base's entries slot-for-slot,
//     allowing a replacement only where the occupant records an override
//     edge to the base entry it displaced
//
// Intended for tests after a clean resolution pass; tables sealed through
// error recovery may legitimately violate (2).
func CheckTableInvariants(g *sym.Graph) error {
	if g == nil {
		return fmt.Errorf("nil graph")
	}
	for i := 1; i <= g.Classes.Len(); i++ {
		id := sym.ClassID(i)
		c := g.Classes.Get(id)
		if c == nil || c.Stage != sym.ClassTableDone {
			continue
		}
		if err := checkClassTable(g, id, c); err != nil {
			return fmt.Errorf("class %s: %w", g.ClassName(id), err)
		}
	}
	for i := 1; i <= g.Ifaces.Len(); i++ {
		id := sym.IfaceID(i)
		f := g.Ifaces.Get(id)
		if f == nil {
			continue
		}
		for slot, d := range f.Table {
			if g.Decls.Get(d) == nil {
				return fmt.Errorf("interface %s: slot %d holds a dead declaration", g.IfaceName(id), slot)
			}
		}
	}
	return nil
}

func checkClassTable(g *sym.Graph, id sym.ClassID, c *sym.Class) error {
	for slot, d := range c.Vtbl {
		decl := g.Decls.Get(d)
		if decl == nil {
			return fmt.Errorf("slot %d holds a dead declaration", slot)
		}
		if decl.OwnerClass != id {
			continue // inherited entry, owned by an ancestor's table
		}
		want, err := safecast.Conv[int32](slot)
		if err != nil {
			return fmt.Errorf("table too large: %w", err)
		}
		if decl.Slot != want {
			return fmt.Errorf("%s occupies slot %d but records %d", g.Name(d), slot, decl.Slot)
		}
	}
	for idx, d := range c.Finals {
		decl := g.Decls.Get(d)
		if decl == nil {
			return fmt.Errorf("final %d holds a dead declaration", idx)
		}
		want, err := safecast.Conv[int32](idx)
		if err != nil {
			return fmt.Errorf("finals list too large: %w", err)
		}
		if decl.FinalIndex != want {
			return fmt.Errorf("%s is final %d but records %d", g.Name(d), idx, decl.FinalIndex)
		}
	}
	if b := g.Classes.Get(c.Base); b != nil && b.Stage == sym.ClassTableDone {
		if len(c.Vtbl) < len(b.Vtbl) {
			return fmt.Errorf("table shorter than base prefix: %d < %d", len(c.Vtbl), len(b.Vtbl))
		}
		ok := sym.TableOf(c).HasPrefix(b.Vtbl, func(entry, baseEntry sym.DeclID) bool {
			d := g.Decls.Get(entry)
			if d == nil {
				return false
			}
			for _, anc := range d.Overrides {
				if anc == baseEntry {
					return true
				}
			}
			return false
		})
		if !ok {
			return fmt.Errorf("base prefix slot replaced without an override edge")
		}
	}
	return nil
}
