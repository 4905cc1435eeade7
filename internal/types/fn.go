package types

import (
	"fmt"

	"fortio.org/safecast"
)

// FuncInfo is the resolved signature payload of a function type. Params
// use exact-match semantics for override search; only the result type may
// vary covariantly.
type FuncInfo struct {
	Params  []TypeID
	Result  TypeID
	Conv    CallConv
	Effects Effect
	Safety  Safety
	Quals   Qual // receiver qualifiers
}

// RegisterFunc allocates a function type slot. Function types are nominal
// per declaration; two identical signatures get distinct TypeIDs, which is
// what lets resolution mutate one without affecting the other.
func (in *Interner) RegisterFunc(info FuncInfo) TypeID {
	in.funcs = append(in.funcs, FuncInfo{
		Params:  append([]TypeID(nil), info.Params...),
		Result:  info.Result,
		Conv:    info.Conv,
		Effects: info.Effects,
		Safety:  info.Safety,
		Quals:   info.Quals,
	})
	slot, err := safecast.Conv[uint32](len(in.funcs) - 1)
	if err != nil {
		panic(fmt.Errorf("func info overflow: %w", err))
	}
	return in.internRaw(Type{Kind: KindFunction, Payload: slot})
}

// FuncInfo returns the mutable signature payload for a function TypeID.
func (in *Interner) FuncInfo(id TypeID) (*FuncInfo, bool) {
	if id == NoTypeID {
		return nil, false
	}
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindFunction {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.funcs) {
		return nil, false
	}
	return &in.funcs[tt.Payload], true
}

// SameParams reports whether two function types have exactly matching
// parameter lists. Covariance never applies to parameters.
func (in *Interner) SameParams(a, b TypeID) bool {
	fa, okA := in.FuncInfo(a)
	fb, okB := in.FuncInfo(b)
	if !okA || !okB {
		return false
	}
	if len(fa.Params) != len(fb.Params) {
		return false
	}
	for i := range fa.Params {
		if fa.Params[i] != fb.Params[i] {
			return false
		}
	}
	return true
}

// CallCompatible reports whether a redeclaration with signature b can
// stand in for a prior declaration with signature a: same parameters,
// same result, same calling convention. Effect attributes may differ.
func (in *Interner) CallCompatible(a, b TypeID) bool {
	fa, okA := in.FuncInfo(a)
	fb, okB := in.FuncInfo(b)
	if !okA || !okB {
		return false
	}
	if !in.SameParams(a, b) {
		return false
	}
	return fa.Result == fb.Result && fa.Conv == fb.Conv
}
