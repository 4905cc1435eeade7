package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota // error sentinel, never NoTypeID once resolved
	KindVoid
	KindBool
	KindInt
	KindFloat
	KindString
	KindValue    // value aggregate, no dispatch participation
	KindClass    // class handle
	KindIface    // interface handle
	KindPointer  // pointer to element type
	KindFunction // resolved function signature
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindVoid:
		return "void"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindValue:
		return "value"
	case KindClass:
		return "class"
	case KindIface:
		return "interface"
	case KindPointer:
		return "pointer"
	case KindFunction:
		return "function"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is the compact descriptor stored in the interner. Payload indexes
// the kind-specific side table (classes, interfaces, values, functions)
// or holds the element TypeID for pointers.
type Type struct {
	Kind    Kind
	Payload uint32
}

// Qual holds type qualifiers carried by receivers and handle types.
type Qual uint8

const (
	QualConst Qual = 1 << iota
	QualShared
	QualImmutable
	QualUnique
	QualScope
	QualReturn
)

// ReceiverOnly reports the subset of qualifiers that are meaningless
// without a receiver.
func (q Qual) ReceiverOnly() Qual {
	return q & (QualConst | QualShared | QualImmutable | QualUnique)
}

func (q Qual) Has(flag Qual) bool { return q&flag != 0 }

// Strings returns textual labels for the set qualifiers.
func (q Qual) Strings() []string {
	if q == 0 {
		return nil
	}
	labels := make([]string, 0, 6)
	if q.Has(QualConst) {
		labels = append(labels, "const")
	}
	if q.Has(QualShared) {
		labels = append(labels, "shared")
	}
	if q.Has(QualImmutable) {
		labels = append(labels, "immutable")
	}
	if q.Has(QualUnique) {
		labels = append(labels, "unique")
	}
	if q.Has(QualScope) {
		labels = append(labels, "scope")
	}
	if q.Has(QualReturn) {
		labels = append(labels, "return")
	}
	return labels
}

// Effect flags describe checked behavior guarantees of a function.
type Effect uint8

const (
	EffectPure Effect = 1 << iota
	EffectNothrow
	EffectNoAlloc
)

func (e Effect) Has(flag Effect) bool { return e&flag != 0 }

// Safety is the three-level memory-safety attribute.
type Safety uint8

const (
	SafetyDefault Safety = iota
	SafetySystem
	SafetyTrusted
	SafetySafe
)

func (s Safety) String() string {
	switch s {
	case SafetySystem:
		return "system"
	case SafetyTrusted:
		return "trusted"
	case SafetySafe:
		return "safe"
	default:
		return "default"
	}
}

// Relaxes reports whether using s where required was demanded is a
// safety relaxation (a safe contract fulfilled by unsafe code).
func (s Safety) Relaxes(required Safety) bool {
	if required != SafetySafe && required != SafetyTrusted {
		return false
	}
	return s == SafetySystem
}

// CallConv is the calling convention recorded on a signature.
type CallConv uint8

const (
	ConvVesper CallConv = iota
	ConvC
	ConvMember
)

func (c CallConv) String() string {
	switch c {
	case ConvC:
		return "extern(c)"
	case ConvMember:
		return "member"
	default:
		return "vesper"
	}
}
