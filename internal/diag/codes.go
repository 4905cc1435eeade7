package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Manifest loading (the parser collaborator boundary).
	ManifestInfo             Code = 1000
	ManifestBadSyntax        Code = 1001
	ManifestUnknownType      Code = 1002
	ManifestBadAttr          Code = 1003
	ManifestBadEffect        Code = 1004
	ManifestDuplicateType    Code = 1005
	ManifestMultipleBases    Code = 1006
	ManifestBaseNotClasslike Code = 1007

	// Signature resolution.
	SigInfo                Code = 4000
	SigNotAFunction        Code = 4001
	SigQualifierNoReceiver Code = 4002
	SigIncompatibleRedecl  Code = 4003
	SigQualifierDropped    Code = 4004

	// Override / dispatch-slot resolution.
	OvrInfo                  Code = 5000
	OvrFinalOverride         Code = 5001
	OvrImplicitOverride      Code = 5002
	OvrNoMatch               Code = 5003
	OvrMixinAmbiguous        Code = 5004
	OvrIncompatibleCovariant Code = 5005
	OvrUnsafeRelaxation      Code = 5006
	OvrParamMismatch         Code = 5007

	// Structural consistency.
	StructInfo               Code = 6000
	StructAbstractFinal      Code = 6001
	StructAbstractNonVirtual Code = 6002
	StructCircularClass      Code = 6003
	StructIfaceUnsatisfied   Code = 6004
)

var codeDescription = map[Code]string{
	UnknownCode: "unknown diagnostic",

	ManifestInfo:             "manifest note",
	ManifestBadSyntax:        "manifest is not valid TOML",
	ManifestUnknownType:      "reference to unknown type",
	ManifestBadAttr:          "unknown storage attribute",
	ManifestBadEffect:        "unknown effect attribute",
	ManifestDuplicateType:    "duplicate type declaration",
	ManifestMultipleBases:    "more than one base class",
	ManifestBaseNotClasslike: "base is neither class nor interface",

	SigInfo:                "signature note",
	SigNotAFunction:        "declaration is not a function",
	SigQualifierNoReceiver: "storage qualifier requires a receiver",
	SigIncompatibleRedecl:  "redeclaration with incompatible type",
	SigQualifierDropped:    "qualifier has no effect on this receiver",

	OvrInfo:                  "override note",
	OvrFinalOverride:         "cannot override final function",
	OvrImplicitOverride:      "implicit override requires attribute",
	OvrNoMatch:               "does not override any function",
	OvrMixinAmbiguous:        "ambiguous mixin override",
	OvrIncompatibleCovariant: "incompatible covariant types",
	OvrUnsafeRelaxation:      "override relaxes safety",
	OvrParamMismatch:         "override parameters do not match",

	StructInfo:               "structural note",
	StructAbstractFinal:      "abstract function cannot be final",
	StructAbstractNonVirtual: "abstract function must be virtual",
	StructCircularClass:      "circular reference to class",
	StructIfaceUnsatisfied:   "interface function not implemented",
}

// ID renders a stable machine-readable identifier like MAN1002 or OVR5001.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("MAN%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("SIG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("OVR%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("STR%04d", ic)
	default:
		return fmt.Sprintf("VSP%04d", ic)
	}
}

// Title returns the short human description registered for the code.
func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
