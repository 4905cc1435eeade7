package sema

import (
	"vesper/internal/diag"
	"vesper/internal/fix"
	"vesper/internal/sym"
	"vesper/internal/types"
)

// slotSearch captures the outcome of scanning the base table for a
// covariant-compatible entry.
type slotSearch struct {
	slot         int32      // matched slot, -1 when none
	entry        sym.DeclID // matched base entry
	cov          types.Covariance
	safetyRelax  bool
	qualsDiffer  bool
	mismatch     sym.DeclID // same name+params, incompatible return
	sameNameOnly sym.DeclID // same name, different params
	forwardOn    types.TypeID
}

// resolveSlot finds or allocates the dispatch slot for a candidate member
// function of a class, enforcing covariance, finality and override
// discipline. Preconditions: signature resolved, owner is a class, the
// declaration is a candidate (not static, not a constructor).
func (r *Resolver) resolveSlot(id sym.DeclID, d *sym.Decl) Result {
	owner := r.graph.Classes.Get(d.OwnerClass)
	name := r.graph.Name(id)

	// Re-entrant call on an already placed declaration: overriding, no-op.
	if d.Slot != sym.NotDispatched || d.FinalIndex != sym.NotDispatched {
		return done()
	}

	// Step 1: no resolvable base class, or a final declaration with no
	// base table to consult, introduces directly.
	base := r.graph.Classes.Get(owner.Base)
	if base == nil {
		return r.introduce(id, d, owner, false)
	}

	// The base's table must be complete before slot indices are stable.
	// Depth-first: try to finish the base here; when it is already in
	// progress higher up the stack this is a forward reference and the
	// caller retries once the base settles.
	if base.Stage != sym.ClassTableDone {
		if !r.classBusy[owner.Base] {
			if res := r.ResolveClass(owner.Base); res.Outcome == OutcomeDeferred {
				return res
			}
		}
		if base.Stage != sym.ClassTableDone {
			return deferred(base.Type)
		}
	}
	r.seedPrefix(owner, base)

	search := r.searchTable(d, base.Vtbl)
	if search.forwardOn != types.NoTypeID {
		return deferred(search.forwardOn)
	}

	if search.slot < 0 {
		return r.introduceUnmatched(id, d, owner, base, search)
	}

	// A match whose slot exceeds the derived table-so-far means the base
	// grew after our prefix was taken: retry once it settles.
	if int(search.slot) >= len(owner.Vtbl) {
		return deferred(base.Type)
	}

	entry := r.graph.Decls.Get(search.entry)

	// Re-entrant call: the slot already holds this declaration.
	if owner.Vtbl[search.slot] == id {
		return done()
	}

	// Qualifier-only differentiation creates a parallel overload family,
	// not a dispatch override: re-enter the introduction logic.
	if search.qualsDiffer && search.cov == types.CovEqual && r.hasQualifierTwin(d, base.Vtbl, search.entry) {
		return r.introduce(id, d, owner, true)
	}

	// Overriding a final ancestor: error, but still install so later
	// diagnostics see a stable table shape.
	if entry.Storage.Has(sym.StorageFinal) {
		r.report(diag.OvrFinalOverride, d.Span,
			"cannot override final function '%s.%s'",
			r.graph.ClassName(entry.OwnerClass), name).
			WithNote(entry.Span, "final function declared here").Emit()
		d.Errored = true
	}

	if search.safetyRelax {
		r.report(diag.OvrUnsafeRelaxation, d.Span,
			"cannot override safe function '%s.%s' with a system function",
			r.graph.ClassName(entry.OwnerClass), name).Emit()
		d.Errored = true
	}

	// Explicit override marking is required policy.
	if !d.Storage.Has(sym.StorageOverride) && !entry.Storage.Has(sym.StorageFinal) {
		r.report(diag.OvrImplicitOverride, d.Span,
			"cannot implicitly override base function '%s.%s'; add override attribute",
			r.graph.ClassName(entry.OwnerClass), name).
			WithFixSuggestion(fix.InsertText(
				"add override attribute",
				d.Span.Collapse(),
				"override ",
				"",
				fix.WithID(fix.MakeFixID(diag.OvrImplicitOverride, d.Span)),
				fix.Preferred(),
			)).Emit()
		d.Errored = true
	}

	// Mixin arbitration: when the slot was already claimed by another
	// member of this class, the direct declaration keeps the official
	// slot and the mixin-introduced one gets an extra slot of its own so
	// both stay independently callable.
	if occupant := owner.Vtbl[search.slot]; occupant != search.entry && occupant != sym.NoDeclID {
		occ := r.graph.Decls.Get(occupant)
		if occ != nil && occ.OwnerClass == d.OwnerClass {
			return r.arbitrateMixin(id, d, occupant, occ, owner, search)
		}
	}

	return r.installOverride(id, d, owner, search)
}

// installOverride replaces the inherited slot entry and records the
// override edge plus introductory-type information.
func (r *Resolver) installOverride(id sym.DeclID, d *sym.Decl, owner *sym.Class, search slotSearch) Result {
	sym.TableOf(owner).Replace(search.slot, id)
	d.Slot = search.slot
	d.Introducing = false
	r.recordOverride(id, d, search.entry)
	if d.Errored {
		return failed()
	}
	return done()
}

// recordOverride appends the ancestor to the override set and propagates
// or establishes the introductory type: transitive when the ancestor
// already carries one, fresh when the return types differ and the
// ancestor's return is a strict base of the candidate's.
func (r *Resolver) recordOverride(id sym.DeclID, d *sym.Decl, ancestor sym.DeclID) {
	for _, prev := range d.Overrides {
		if prev == ancestor {
			return
		}
	}
	d.Overrides = append(d.Overrides, ancestor)

	anc := r.graph.Decls.Get(ancestor)
	if anc == nil {
		return
	}
	if anc.IntroType != types.NoTypeID {
		r.mergeIntroType(id, d, anc, anc.IntroType)
		return
	}
	in := r.graph.Types
	fa, okA := in.FuncInfo(anc.Sig)
	fd, okD := in.FuncInfo(d.Sig)
	if !okA || !okD || fa.Result == fd.Result {
		return
	}
	if in.IsBaseOf(fa.Result, fd.Result) == types.SubtypeYes {
		r.mergeIntroType(id, d, anc, fa.Result)
	}
}

// mergeIntroType reconciles a newly discovered introductory return type
// with one already recorded from another ancestor. The more basal of the
// two wins; when neither derives from the other the two obligations
// cannot share a dispatch slot and the override is rejected.
func (r *Resolver) mergeIntroType(id sym.DeclID, d *sym.Decl, anc *sym.Decl, t types.TypeID) {
	if d.IntroType == types.NoTypeID || d.IntroType == t {
		d.IntroType = t
		return
	}
	in := r.graph.Types
	if in.IsBaseOf(d.IntroType, t) == types.SubtypeYes {
		return
	}
	if in.IsBaseOf(t, d.IntroType) == types.SubtypeYes {
		d.IntroType = t
		return
	}
	r.report(diag.OvrIncompatibleCovariant, d.Span,
		"function '%s' overrides functions with incompatible covariant return types '%s' and '%s'",
		r.graph.Name(id), r.typeLabel(d.IntroType), r.typeLabel(t)).
		WithNote(anc.Span, "conflicting requirement declared here").Emit()
	d.Errored = true
}

// searchTable scans a dispatch table for a covariant-compatible entry.
// The first equal-or-covariant match wins; mismatches and same-name
// overloads are remembered for diagnostics.
func (r *Resolver) searchTable(d *sym.Decl, table []sym.DeclID) slotSearch {
	search := slotSearch{slot: -1}
	in := r.graph.Types
	for i, entryID := range table {
		entry := r.graph.Decls.Get(entryID)
		if entry == nil || entry.Name != d.Name {
			continue
		}
		res := in.Covariant(d.Sig, entry.Sig)
		switch res.Kind {
		case types.CovDistinct:
			if search.sameNameOnly == sym.NoDeclID {
				search.sameNameOnly = entryID
			}
		case types.CovForward:
			if fd, ok := in.FuncInfo(d.Sig); ok {
				search.forwardOn = fd.Result
			} else {
				search.forwardOn = in.ErrorSentinel()
			}
			return search
		case types.CovMismatch:
			if search.mismatch == sym.NoDeclID {
				search.mismatch = entryID
			}
		case types.CovEqual, types.CovCovariant:
			if search.slot < 0 {
				search.slot = int32(i)
				search.entry = entryID
				search.cov = res.Kind
				search.safetyRelax = res.SafetyRelaxed
				search.qualsDiffer = res.QualsDiffer
			}
		}
	}
	return search
}

// introduceUnmatched handles the no-match outcomes: final shadowing,
// stray override markers, incompatible returns, then a fresh slot.
func (r *Resolver) introduceUnmatched(id sym.DeclID, d *sym.Decl, owner, base *sym.Class, search slotSearch) Result {
	name := r.graph.Name(id)

	// Params match but returns are incompatible: never silently two
	// overloads, whatever the keyword says.
	if search.mismatch != sym.NoDeclID {
		entry := r.graph.Decls.Get(search.mismatch)
		r.report(diag.OvrIncompatibleCovariant, d.Span,
			"function '%s' overrides '%s.%s' with incompatible covariant types",
			name, r.graph.ClassName(entry.OwnerClass), name).
			WithNote(entry.Span, "base function declared here").Emit()
		d.Errored = true
	}

	// Shadowing a final method by name is disallowed even for a fresh
	// introduction.
	finalShadow := false
	if finalID := r.findFinal(owner.Base, d); finalID != sym.NoDeclID {
		finalShadow = true
		final := r.graph.Decls.Get(finalID)
		r.report(diag.OvrFinalOverride, d.Span,
			"cannot override final function '%s.%s'",
			r.graph.ClassName(final.OwnerClass), name).
			WithNote(final.Span, "final function declared here").Emit()
		d.Errored = true
	}

	// A stray override keyword gets a best-effort "did you mean" hint.
	// Suppressed when a more precise error already fired above.
	if d.Storage.Has(sym.StorageOverride) && !finalShadow && search.mismatch == sym.NoDeclID {
		if search.sameNameOnly != sym.NoDeclID {
			entry := r.graph.Decls.Get(search.sameNameOnly)
			r.report(diag.OvrParamMismatch, d.Span,
				"function '%s' marked override does not override any function; parameters do not match '%s.%s'",
				name, r.graph.ClassName(entry.OwnerClass), name).
				WithNote(entry.Span, "candidate declared here").Emit()
		} else if hint := r.similarBaseName(owner.Base, name); hint != "" {
			r.report(diag.OvrNoMatch, d.Span,
				"function '%s' does not override any function; did you mean '%s'?", name, hint).
				WithFixSuggestion(fix.ReplaceSpan(
					"rename to '"+hint+"'",
					d.Span, hint, name,
					fix.WithID(fix.MakeFixID(diag.OvrNoMatch, d.Span)),
					fix.WithKind(diag.FixKindRefactor),
					fix.WithApplicability(diag.FixApplicabilityMaybeIncorrect),
				)).Emit()
		} else {
			r.report(diag.OvrNoMatch, d.Span,
				"function '%s' does not override any function", name).Emit()
		}
		d.Errored = true
	}

	return r.introduce(id, d, owner, false)
}

// introduce allocates the next free slot in the final-or-virtual table.
// Errored declarations still get a best-effort slot so downstream
// consumers see a stable table rather than a hole.
func (r *Resolver) introduce(id sym.DeclID, d *sym.Decl, owner *sym.Class, qualifierSplit bool) Result {
	name := r.graph.Name(id)

	// An override marker with no base class at all can never match. The
	// qualifier-split path never lands here without a base.
	if !qualifierSplit && !owner.Base.IsValid() && d.Storage.Has(sym.StorageOverride) {
		r.report(diag.OvrNoMatch, d.Span,
			"function '%s' does not override any function", name).Emit()
		d.Errored = true
	}

	if d.Storage.Has(sym.StorageFinal) {
		d.FinalIndex = int32(len(owner.Finals))
		owner.Finals = append(owner.Finals, id)
	} else {
		d.Slot = sym.TableOf(owner).Append(id)
	}
	d.Introducing = true
	if d.Errored {
		return failed()
	}
	return done()
}

// arbitrateMixin resolves two same-signature functions arriving from two
// composition sources. Exactly one mixin-introduced source loses the
// official slot but is appended as a new slot so both remain callable by
// static type; anything else is an ambiguity error.
func (r *Resolver) arbitrateMixin(id sym.DeclID, d *sym.Decl, occupantID sym.DeclID, occ *sym.Decl, owner *sym.Class, search slotSearch) Result {
	name := r.graph.Name(id)
	dMixin := d.Storage.Has(sym.StorageMixin)
	oMixin := occ.Storage.Has(sym.StorageMixin)

	if dMixin == oMixin {
		r.report(diag.OvrMixinAmbiguous, d.Span,
			"ambiguous override of '%s': conflicts with a declaration from another composition source", name).
			WithNote(occ.Span, "conflicting declaration here").Emit()
		d.Errored = true
		// Best-effort extra slot keeps the table stable.
		d.Slot = sym.TableOf(owner).Append(id)
		d.Introducing = true
		return failed()
	}

	if dMixin {
		// The direct declaration keeps the official slot; the
		// mixin-introduced one gets an additional slot of its own.
		d.Slot = sym.TableOf(owner).Append(id)
		d.Introducing = true
		r.recordOverride(id, d, search.entry)
		return done()
	}

	// The candidate is direct: it takes the official slot, the mixin
	// occupant moves to a fresh slot.
	sym.TableOf(owner).Replace(search.slot, id)
	d.Slot = search.slot
	r.recordOverride(id, d, search.entry)
	occ.Slot = sym.TableOf(owner).Append(occupantID)
	occ.Introducing = true
	return done()
}

// hasQualifierTwin reports whether the table carries a second entry that
// differs from the matched one only by receiver qualifiers.
func (r *Resolver) hasQualifierTwin(d *sym.Decl, table []sym.DeclID, matched sym.DeclID) bool {
	in := r.graph.Types
	matchedDecl := r.graph.Decls.Get(matched)
	if matchedDecl == nil {
		return false
	}
	for _, entryID := range table {
		if entryID == matched {
			continue
		}
		entry := r.graph.Decls.Get(entryID)
		if entry == nil || entry.Name != d.Name {
			continue
		}
		res := in.Covariant(entry.Sig, matchedDecl.Sig)
		if res.Kind == types.CovEqual && res.QualsDiffer {
			return true
		}
	}
	return false
}

// findFinal searches the final-methods lists up the base chain for a
// same-name, same-signature entry.
func (r *Resolver) findFinal(classID sym.ClassID, d *sym.Decl) sym.DeclID {
	in := r.graph.Types
	for classID.IsValid() {
		c := r.graph.Classes.Get(classID)
		if c == nil {
			return sym.NoDeclID
		}
		for _, fid := range c.Finals {
			f := r.graph.Decls.Get(fid)
			if f == nil || f.Name != d.Name {
				continue
			}
			res := in.Covariant(d.Sig, f.Sig)
			if res.Kind == types.CovEqual || res.Kind == types.CovCovariant {
				return fid
			}
		}
		classID = c.Base
	}
	return sym.NoDeclID
}

// seedPrefix extends the derived table with the base's completed table so
// slot indices stay identical up to the base's length.
func (r *Resolver) seedPrefix(owner, base *sym.Class) {
	if owner.Stage < sym.ClassTableBuilding {
		owner.Stage = sym.ClassTableBuilding
	}
	sym.TableOf(owner).CopyPrefix(base.Vtbl)
}

// checkAbstractConsistency enforces step 5 of slot resolution: abstract
// cannot pair with final, and an abstract declaration must be virtual.
// The disqualifying storage class is named in priority order.
func (r *Resolver) checkAbstractConsistency(id sym.DeclID, d *sym.Decl) {
	if !d.Storage.Has(sym.StorageAbstract) {
		return
	}
	name := r.graph.Name(id)
	if d.Storage.Has(sym.StorageFinal) {
		r.report(diag.StructAbstractFinal, d.Span,
			"function '%s' cannot be both abstract and final", name).Emit()
		d.Errored = true
		return
	}
	var disqualifier string
	switch {
	case d.Storage.Has(sym.StorageStatic):
		disqualifier = "static"
	case d.Storage.Has(sym.StoragePrivate):
		disqualifier = "private"
	case d.Storage.Has(sym.StoragePackage):
		disqualifier = "package"
	}
	if disqualifier != "" {
		r.report(diag.StructAbstractNonVirtual, d.Span,
			"abstract function '%s' cannot be %s; abstract functions must be virtual",
			name, disqualifier).Emit()
		d.Errored = true
	}
}
