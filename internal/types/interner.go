package types

import (
	"fmt"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Void    TypeID
	Bool    TypeID
	Int     TypeID
	Float   TypeID
	String  TypeID
}

// Interner provides stable TypeIDs. Structural kinds (pointers) are
// deduplicated by descriptor; nominal kinds (classes, interfaces, values)
// and function signatures allocate a fresh slot per registration.
type Interner struct {
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	classes  []ClassInfo
	ifaces   []IfaceInfo
	values   []ValueInfo
	funcs    []FuncInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 32),
	}
	// Index 0 of each side table is reserved as an invalid sentinel.
	in.classes = append(in.classes, ClassInfo{})
	in.ifaces = append(in.ifaces, IfaceInfo{})
	in.values = append(in.values, ValueInfo{})
	in.funcs = append(in.funcs, FuncInfo{})
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Void = in.Intern(Type{Kind: KindVoid})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.Float = in.Intern(Type{Kind: KindFloat})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// ErrorSentinel returns the explicit error type installed on failed
// declarations in place of a resolved signature.
func (in *Interner) ErrorSentinel() TypeID {
	return in.builtins.Invalid
}

// Intern ensures the provided structural descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	key := typeKey{kind: t.Kind, payload: t.Payload}
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internRaw(t)
}

// MakePointer interns a pointer type over elem.
func (in *Interner) MakePointer(elem TypeID) TypeID {
	return in.Intern(Type{Kind: KindPointer, Payload: uint32(elem)})
}

// PointerElem returns the pointee for a pointer TypeID.
func (in *Interner) PointerElem(id TypeID) (TypeID, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindPointer {
		return NoTypeID, false
	}
	return TypeID(tt.Payload), true
}

// internRaw adds the descriptor to storage without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	key := typeKey{kind: t.Kind, payload: t.Payload}
	in.index[key] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Kind returns the kind for a TypeID, KindInvalid when unknown.
func (in *Interner) Kind(id TypeID) Kind {
	tt, ok := in.Lookup(id)
	if !ok {
		return KindInvalid
	}
	return tt.Kind
}

// IsHandle reports whether the type is an indirection (class or interface
// reference, or pointer) that admits covariant adjustment.
func (in *Interner) IsHandle(id TypeID) bool {
	switch in.Kind(id) {
	case KindClass, KindIface, KindPointer:
		return true
	default:
		return false
	}
}

type typeKey struct {
	kind    Kind
	payload uint32
}
