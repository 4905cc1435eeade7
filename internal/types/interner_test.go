package types

import (
	"testing"

	"vesper/internal/source"
)

func TestInternerBuiltins(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	if b.Void == NoTypeID || b.Bool == NoTypeID {
		t.Fatalf("builtins not initialized")
	}
	if in.Kind(b.Void) != KindVoid {
		t.Fatalf("expected void kind, got %v", in.Kind(b.Void))
	}
	if in.ErrorSentinel() == NoTypeID {
		t.Fatalf("error sentinel must be a real TypeID")
	}
}

func TestPointerTypesDeduplicate(t *testing.T) {
	in := NewInterner()
	p1 := in.MakePointer(in.Builtins().Int)
	p2 := in.MakePointer(in.Builtins().Int)
	if p1 != p2 {
		t.Fatalf("pointer types should be deduplicated")
	}
	elem, ok := in.PointerElem(p1)
	if !ok || elem != in.Builtins().Int {
		t.Fatalf("unexpected pointee %v", elem)
	}
}

func TestFunctionTypesAreNominal(t *testing.T) {
	in := NewInterner()
	sig := FuncInfo{Result: in.Builtins().Void}
	f1 := in.RegisterFunc(sig)
	f2 := in.RegisterFunc(sig)
	if f1 == f2 {
		t.Fatalf("each registration must allocate a fresh function type")
	}
	if !in.CallCompatible(f1, f2) {
		t.Fatalf("identical signatures must stay call-compatible")
	}
}

func TestSameParamsExactMatch(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	f1 := in.RegisterFunc(FuncInfo{Params: []TypeID{b.Int, b.String}, Result: b.Void})
	f2 := in.RegisterFunc(FuncInfo{Params: []TypeID{b.Int, b.String}, Result: b.Bool})
	f3 := in.RegisterFunc(FuncInfo{Params: []TypeID{b.Int}, Result: b.Void})
	if !in.SameParams(f1, f2) {
		t.Fatalf("same parameter lists must match")
	}
	if in.SameParams(f1, f3) {
		t.Fatalf("different arity must not match")
	}
	if in.CallCompatible(f1, f2) {
		t.Fatalf("different results are not call-compatible")
	}
}

func registerClass(t *testing.T, in *Interner, strs *source.Interner, name string) TypeID {
	t.Helper()
	return in.RegisterClass(strs.Intern(name), source.Span{})
}

func TestIsBaseOfWalksChainAndInterfaces(t *testing.T) {
	in := NewInterner()
	strs := source.NewInterner()

	speaker := in.RegisterIface(strs.Intern("Speaker"), source.Span{})
	in.SetIfaceBases(speaker, nil)
	animal := registerClass(t, in, strs, "Animal")
	in.SetClassBases(animal, NoTypeID, nil)
	dog := registerClass(t, in, strs, "Dog")
	in.SetClassBases(dog, animal, []TypeID{speaker})
	puppy := registerClass(t, in, strs, "Puppy")
	in.SetClassBases(puppy, dog, nil)

	if in.IsBaseOf(animal, puppy) != SubtypeYes {
		t.Fatalf("Animal must be a base of Puppy")
	}
	if in.IsBaseOf(speaker, puppy) != SubtypeYes {
		t.Fatalf("Speaker must be reachable through Dog")
	}
	if in.IsBaseOf(puppy, animal) != SubtypeNo {
		t.Fatalf("base-of must not be symmetric")
	}
}

func TestIsBaseOfForwardWhenBasesUnknown(t *testing.T) {
	in := NewInterner()
	strs := source.NewInterner()

	animal := registerClass(t, in, strs, "Animal")
	in.SetClassBases(animal, NoTypeID, nil)
	dog := registerClass(t, in, strs, "Dog")
	// Dog never reports its bases.

	if got := in.IsBaseOf(animal, dog); got != SubtypeForward {
		t.Fatalf("expected forward answer, got %v", got)
	}
}

func TestIsBaseOfTerminatesOnCycle(t *testing.T) {
	in := NewInterner()
	strs := source.NewInterner()

	a := registerClass(t, in, strs, "A")
	b := registerClass(t, in, strs, "B")
	in.SetClassBases(a, b, nil)
	in.SetClassBases(b, a, nil)

	other := registerClass(t, in, strs, "Other")
	in.SetClassBases(other, NoTypeID, nil)
	if got := in.IsBaseOf(other, a); got != SubtypeNo {
		t.Fatalf("cyclic hierarchy must answer no, got %v", got)
	}
}

func TestCovariantMatrix(t *testing.T) {
	in := NewInterner()
	strs := source.NewInterner()

	animal := registerClass(t, in, strs, "Animal")
	in.SetClassBases(animal, NoTypeID, nil)
	dog := registerClass(t, in, strs, "Dog")
	in.SetClassBases(dog, animal, nil)

	b := in.Builtins()
	base := in.RegisterFunc(FuncInfo{Params: []TypeID{b.Int}, Result: animal})
	same := in.RegisterFunc(FuncInfo{Params: []TypeID{b.Int}, Result: animal})
	cov := in.RegisterFunc(FuncInfo{Params: []TypeID{b.Int}, Result: dog})
	otherParams := in.RegisterFunc(FuncInfo{Params: []TypeID{b.String}, Result: dog})
	badResult := in.RegisterFunc(FuncInfo{Params: []TypeID{b.Int}, Result: b.String})

	if got := in.Covariant(same, base).Kind; got != CovEqual {
		t.Fatalf("expected equal, got %v", got)
	}
	if got := in.Covariant(cov, base).Kind; got != CovCovariant {
		t.Fatalf("expected covariant, got %v", got)
	}
	if got := in.Covariant(otherParams, base).Kind; got != CovDistinct {
		t.Fatalf("expected distinct, got %v", got)
	}
	if got := in.Covariant(badResult, base).Kind; got != CovMismatch {
		t.Fatalf("expected mismatch, got %v", got)
	}
	// Non-handle returns never get covariance, whatever the relationship.
	if got := in.Covariant(base, cov).Kind; got != CovMismatch {
		t.Fatalf("widening the return type must not be covariant, got %v", got)
	}
}

func TestCovariantFlagsSafetyRelaxation(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	safe := in.RegisterFunc(FuncInfo{Result: b.Void, Safety: SafetySafe})
	unsafe := in.RegisterFunc(FuncInfo{Result: b.Void, Safety: SafetySystem})

	res := in.Covariant(unsafe, safe)
	if res.Kind != CovEqual {
		t.Fatalf("expected equal kind, got %v", res.Kind)
	}
	if !res.SafetyRelaxed {
		t.Fatalf("system overriding safe must flag relaxation")
	}
	if back := in.Covariant(safe, unsafe); back.SafetyRelaxed {
		t.Fatalf("tightening safety is not a relaxation")
	}
}

func TestCovariantForwardResult(t *testing.T) {
	in := NewInterner()
	strs := source.NewInterner()
	animal := registerClass(t, in, strs, "Animal")
	in.SetClassBases(animal, NoTypeID, nil)
	pending := registerClass(t, in, strs, "Pending") // bases unreported

	base := in.RegisterFunc(FuncInfo{Result: animal})
	cand := in.RegisterFunc(FuncInfo{Result: pending})
	if got := in.Covariant(cand, base).Kind; got != CovForward {
		t.Fatalf("expected forward, got %v", got)
	}
}
