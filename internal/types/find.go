package types

// SubtypeAnswer is the tri-state result of a base-of query over a
// hierarchy that may still be under construction.
type SubtypeAnswer uint8

const (
	SubtypeNo SubtypeAnswer = iota
	SubtypeYes
	SubtypeForward // a class on the walk has not reported its bases yet
)

// IsBaseOf reports whether ancestor appears in derived's transitive base
// chain (base classes plus implemented/extended interfaces). Pointer types
// compare by pointee. The walk carries a visited set so circular base
// references terminate; encountering a type whose bases are unknown turns
// a negative answer into SubtypeForward.
func (in *Interner) IsBaseOf(ancestor, derived TypeID) SubtypeAnswer {
	if ancestor == NoTypeID || derived == NoTypeID {
		return SubtypeNo
	}
	if pa, ok := in.PointerElem(ancestor); ok {
		pd, okD := in.PointerElem(derived)
		if !okD {
			return SubtypeNo
		}
		ancestor, derived = pa, pd
	}
	if ancestor == derived {
		return SubtypeYes
	}
	visited := make(map[TypeID]bool, 8)
	return in.walkBases(ancestor, derived, visited)
}

func (in *Interner) walkBases(ancestor, current TypeID, visited map[TypeID]bool) SubtypeAnswer {
	if current == NoTypeID {
		return SubtypeNo
	}
	if current == ancestor {
		return SubtypeYes
	}
	if visited[current] {
		return SubtypeNo
	}
	visited[current] = true

	answer := SubtypeNo
	switch in.Kind(current) {
	case KindClass:
		info := in.classInfo(current)
		if info == nil {
			return SubtypeNo
		}
		if !info.BasesKnown {
			return SubtypeForward
		}
		if r := in.walkBases(ancestor, info.Base, visited); r != SubtypeNo {
			answer = r
		}
		for _, iface := range info.Ifaces {
			if answer == SubtypeYes {
				break
			}
			if r := in.walkBases(ancestor, iface, visited); r != SubtypeNo {
				answer = r
			}
		}
	case KindIface:
		info := in.ifaceInfo(current)
		if info == nil {
			return SubtypeNo
		}
		if !info.BasesKnown {
			return SubtypeForward
		}
		for _, ext := range info.Extends {
			if answer == SubtypeYes {
				break
			}
			if r := in.walkBases(ancestor, ext, visited); r != SubtypeNo {
				answer = r
			}
		}
	}
	return answer
}

// Covariance classifies a candidate signature against an ancestor entry
// during override search.
type Covariance uint8

const (
	// CovDistinct: parameter lists differ, the candidate is an unrelated
	// overload, never an override.
	CovDistinct Covariance = iota
	// CovEqual: parameters and return type match exactly.
	CovEqual
	// CovCovariant: parameters match; the candidate's return handle type
	// is derived from the ancestor's return type.
	CovCovariant
	// CovMismatch: parameters match but returns are incompatible.
	CovMismatch
	// CovForward: the verdict depends on a base chain that is still
	// resolving; retry once it settles.
	CovForward
)

func (c Covariance) String() string {
	switch c {
	case CovDistinct:
		return "distinct"
	case CovEqual:
		return "equal"
	case CovCovariant:
		return "covariant"
	case CovMismatch:
		return "mismatch"
	case CovForward:
		return "forward"
	default:
		return "unknown"
	}
}

// CovarianceResult pairs the verdict with attribute-level findings that
// matter for diagnostics but not for matching.
type CovarianceResult struct {
	Kind          Covariance
	SafetyRelaxed bool // a safe ancestor fulfilled by unsafe code
	QualsDiffer   bool // receiver qualifiers differ between the two
}

// Covariant compares a candidate function type against an ancestor slot
// entry. Parameters must match exactly; the return type may be identical
// or related by base-of when the candidate returns a handle type.
func (in *Interner) Covariant(candidate, ancestor TypeID) CovarianceResult {
	fc, okC := in.FuncInfo(candidate)
	fa, okA := in.FuncInfo(ancestor)
	if !okC || !okA {
		return CovarianceResult{Kind: CovDistinct}
	}
	if !in.SameParams(candidate, ancestor) {
		return CovarianceResult{Kind: CovDistinct}
	}

	res := CovarianceResult{
		SafetyRelaxed: fc.Safety.Relaxes(fa.Safety),
		QualsDiffer:   fc.Quals != fa.Quals,
	}

	switch {
	case fc.Result == fa.Result:
		res.Kind = CovEqual
	case in.IsHandle(fc.Result):
		switch in.IsBaseOf(fa.Result, fc.Result) {
		case SubtypeYes:
			res.Kind = CovCovariant
		case SubtypeForward:
			res.Kind = CovForward
		default:
			res.Kind = CovMismatch
		}
	default:
		res.Kind = CovMismatch
	}
	return res
}
