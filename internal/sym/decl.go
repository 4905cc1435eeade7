package sym

import (
	"vesper/internal/source"
	"vesper/internal/types"
)

// Storage encodes declaration storage attributes.
type Storage uint16

const (
	StorageStatic Storage = 1 << iota
	StorageFinal
	StorageAbstract
	StorageOverride
	StorageDisabled
	StorageDeprecated
	StorageAutoReturn
	StorageMixin // arrived through a composed fragment, not direct text
	StoragePrivate
	StoragePackage
	StorageCtor // constructors opt out of dispatch entirely
)

func (s Storage) Has(flag Storage) bool { return s&flag != 0 }

// Strings returns textual labels for the set storage flags.
func (s Storage) Strings() []string {
	if s == 0 {
		return nil
	}
	labels := make([]string, 0, 8)
	if s.Has(StorageStatic) {
		labels = append(labels, "static")
	}
	if s.Has(StorageFinal) {
		labels = append(labels, "final")
	}
	if s.Has(StorageAbstract) {
		labels = append(labels, "abstract")
	}
	if s.Has(StorageOverride) {
		labels = append(labels, "override")
	}
	if s.Has(StorageDisabled) {
		labels = append(labels, "disabled")
	}
	if s.Has(StorageDeprecated) {
		labels = append(labels, "deprecated")
	}
	if s.Has(StorageAutoReturn) {
		labels = append(labels, "auto")
	}
	if s.Has(StorageMixin) {
		labels = append(labels, "mixin")
	}
	if s.Has(StoragePrivate) {
		labels = append(labels, "private")
	}
	if s.Has(StoragePackage) {
		labels = append(labels, "package")
	}
	if s.Has(StorageCtor) {
		labels = append(labels, "constructor")
	}
	return labels
}

// Stage tracks how far a declaration has progressed through resolution.
// Stages only move forward; the in-progress guard lives separately so a
// re-entrant call can detect a cycle instead of recursing.
type Stage uint8

const (
	StageUnresolved Stage = iota
	StageSignature
	StageSlot
	StageBody
)

func (s Stage) String() string {
	switch s {
	case StageUnresolved:
		return "unresolved"
	case StageSignature:
		return "signature-resolved"
	case StageSlot:
		return "slot-resolved"
	case StageBody:
		return "body-resolved"
	default:
		return "unknown"
	}
}

// NotDispatched is the slot value of declarations outside the dispatch
// table (statics, finals, constructors, free functions).
const NotDispatched int32 = -1

// RawSig is the unresolved syntactic signature handed over by the front
// end. PlainType is set instead of Params/Result when the declaration was
// written with a non-function type.
type RawSig struct {
	Params    []types.TypeID
	Result    types.TypeID
	PlainType types.TypeID
	Conv      types.CallConv
}

// Decl is a named function-like symbol. Created once by the front end,
// mutated in place across resolution passes, never destroyed while the
// compilation unit lives.
type Decl struct {
	Name source.StringID
	Span source.Span

	OwnerClass ClassID // enclosing class, if member of one
	OwnerIface IfaceID // enclosing interface, if member of one
	Parent     DeclID  // enclosing function for nested declarations

	Storage Storage
	Quals   types.Qual // declared receiver/type qualifiers
	Effects types.Effect
	Safety  types.Safety

	Raw RawSig       // syntactic signature from the front end
	Sig types.TypeID // resolved function type; error sentinel on failure

	Stage      Stage
	InProgress bool // set while slot resolution is on the call stack
	Errored    bool // sticky terminal state

	Slot       int32 // index into the owner's dispatch table, or NotDispatched
	FinalIndex int32 // index into the owner's finals list, or NotDispatched

	Introducing bool         // allocated a fresh slot instead of reusing one
	Overrides   []DeclID     // ancestor/interface declarations this one overrides
	IntroType   types.TypeID // ancestor return type requiring call-site adjustment

	HasReceiver bool
	Receiver    types.TypeID // synthesized receiver parameter type

	// Speculative purity seeded from the enclosing declaration; finalized
	// later by body analysis.
	InferredPure bool
}

// Dispatchable reports whether the declaration may occupy a virtual slot.
func (d *Decl) Dispatchable() bool {
	if d.Storage.Has(StorageStatic) || d.Storage.Has(StorageCtor) {
		return false
	}
	return d.OwnerClass.IsValid() || d.OwnerIface.IsValid()
}
