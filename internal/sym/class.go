package sym

import (
	"vesper/internal/source"
	"vesper/internal/types"
)

// ClassStage mirrors the incremental nature of class layout: tables may be
// requested before the class has finished resolving its own bases.
type ClassStage uint8

const (
	ClassForward ClassStage = iota // declared, bases not yet resolved
	ClassBasesKnown
	ClassTableBuilding
	ClassTableDone
)

func (s ClassStage) String() string {
	switch s {
	case ClassForward:
		return "forward"
	case ClassBasesKnown:
		return "bases-known"
	case ClassTableBuilding:
		return "table-building"
	case ClassTableDone:
		return "table-done"
	default:
		return "unknown"
	}
}

// Class is an aggregate type owning a dispatch table. Slot indices are
// dense and zero-based; the table begins with the base class's entries
// slot for slot (prefix compatibility is what makes dispatch-by-index
// valid across the hierarchy).
type Class struct {
	Name source.StringID
	Span source.Span
	Type types.TypeID // the class handle type

	RawBases []types.TypeID // declared base list, pre-classification
	Base     ClassID        // zero-or-one base class
	Ifaces   []IfaceID      // directly implemented interfaces

	Quals types.Qual // class-level qualifiers inherited by member receivers

	Vtbl    []DeclID // dispatch table, slot index -> declaration
	Finals  []DeclID // non-overridable methods kept for linkage only
	Members []DeclID // declaration order, as handed over by the front end

	Stage ClassStage

	// Nested aggregates record that they capture an enclosing context so
	// receiver construction can reach the outer frame.
	Parent          DeclID
	CapturesContext bool
}

// Interface is like Class but admits no data layout and no base class;
// its table exists purely for override matching.
type Interface struct {
	Name source.StringID
	Span source.Span
	Type types.TypeID

	RawBases []types.TypeID
	Extends  []IfaceID

	Table   []DeclID
	Members []DeclID

	Stage ClassStage
}
