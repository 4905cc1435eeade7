package sym

import (
	"fmt"

	"fortio.org/safecast"
)

// Vtable is a thin helper over an explicit dispatch-table handle. Class
// and Interface do not share implementation; both expose their slot slice
// through this helper so prefix copying and slot replacement stay trivial
// to verify in isolation.
type Vtable struct {
	slots *[]DeclID
}

// TableOf wraps a class's dispatch table.
func TableOf(c *Class) Vtable { return Vtable{slots: &c.Vtbl} }

// IfaceTableOf wraps an interface's matching table.
func IfaceTableOf(f *Interface) Vtable { return Vtable{slots: &f.Table} }

// Len returns the number of occupied slots.
func (v Vtable) Len() int { return len(*v.slots) }

// At returns the declaration at slot i, or NoDeclID when out of range.
func (v Vtable) At(i int) DeclID {
	if i < 0 || i >= len(*v.slots) {
		return NoDeclID
	}
	return (*v.slots)[i]
}

// Append allocates the next free slot and returns its index.
func (v Vtable) Append(d DeclID) int32 {
	idx, err := safecast.Conv[int32](len(*v.slots))
	if err != nil {
		panic(fmt.Errorf("vtable overflow: %w", err))
	}
	*v.slots = append(*v.slots, d)
	return idx
}

// Replace installs d at slot i, returning the superseded entry. Used when
// an override is discovered after a speculative entry was installed.
func (v Vtable) Replace(i int32, d DeclID) DeclID {
	if i < 0 || int(i) >= len(*v.slots) {
		return NoDeclID
	}
	old := (*v.slots)[i]
	(*v.slots)[i] = d
	return old
}

// CopyPrefix extends the table with base's entries so that slot indices
// stay identical up to base's length. Existing entries are never moved.
func (v Vtable) CopyPrefix(base []DeclID) {
	if len(*v.slots) >= len(base) {
		return
	}
	*v.slots = append(*v.slots, base[len(*v.slots):]...)
}

// Merge appends base's entries that are not already present, keeping
// existing slot order. Idempotent, so seeding from several sources (or a
// retried pass) is safe and diamond inheritance collapses to one entry.
func (v Vtable) Merge(base []DeclID) {
	for _, d := range base {
		dup := false
		for _, e := range *v.slots {
			if e == d {
				dup = true
				break
			}
		}
		if !dup {
			*v.slots = append(*v.slots, d)
		}
	}
}

// HasPrefix reports whether the table starts with base's entries
// slot-for-slot. A differing entry is accepted only when the overrides
// predicate rules it a legitimate replacement of the base entry; a nil
// predicate accepts no replacements.
func (v Vtable) HasPrefix(base []DeclID, overrides func(entry, baseEntry DeclID) bool) bool {
	if len(*v.slots) < len(base) {
		return false
	}
	for i, b := range base {
		e := (*v.slots)[i]
		if e == b {
			continue
		}
		if overrides == nil || !overrides(e, b) {
			return false
		}
	}
	return true
}
