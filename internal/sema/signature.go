package sema

import (
	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/sym"
	"vesper/internal/types"
)

// resolveSignature finalizes a declaration's type, storage attributes and
// effect attributes. Idempotent: re-invocation on an already resolved
// declaration is a no-op.
func (r *Resolver) resolveSignature(id sym.DeclID, d *sym.Decl) Result {
	if d.Stage >= sym.StageSignature {
		if d.Errored {
			return failed()
		}
		return done()
	}
	in := r.graph.Types
	name := r.graph.Name(id)

	// Wrong kind of type: mark errored, signature becomes the explicit
	// error sentinel, never NoTypeID.
	if d.Raw.PlainType != types.NoTypeID {
		r.report(diag.SigNotAFunction, d.Span,
			"'%s' must be a function, not '%s'", name, r.typeLabel(d.Raw.PlainType)).Emit()
		d.Sig = in.ErrorSentinel()
		d.Errored = true
		d.Stage = sym.StageSignature
		return failed()
	}

	hasReceiver := r.needsReceiver(d)

	// Merge contextual qualifiers from the enclosing class. Explicit
	// declaration attributes win; inherited qualifiers apply only with a
	// receiver present.
	quals := d.Quals
	if hasReceiver && d.OwnerClass.IsValid() {
		owner := r.graph.Classes.Get(d.OwnerClass)
		quals |= owner.Quals
	}

	// A nested aggregate must record that it captures an enclosing
	// context; receiver construction depends on it. This mutates the
	// owning aggregate, not the declaration.
	if d.OwnerClass.IsValid() {
		owner := r.graph.Classes.Get(d.OwnerClass)
		if owner.Parent.IsValid() {
			owner.CapturesContext = true
		}
	}

	// Seed speculative purity from the enclosing declaration's inferred
	// (not yet finalized) purity. Body analysis settles it later.
	if enclosing := r.enclosingDecl(d); enclosing != nil && enclosing.InferredPure {
		d.InferredPure = true
	}
	if d.Effects.Has(types.EffectPure) {
		d.InferredPure = true
	}

	// Qualifiers that are meaningless for the receiver type are cleared,
	// together with the return/scope flags that depended on them.
	if quals.Has(types.QualUnique) && !r.receiverIsHandle(d) {
		dropped := quals & (types.QualUnique | types.QualReturn | types.QualScope)
		quals &^= dropped
		r.warn(diag.SigQualifierDropped, d.Span,
			"qualifier 'unique' has no effect on '%s' and was dropped", name).Emit()
	}

	// Free and static declarations cannot carry receiver-only qualifiers.
	if !hasReceiver && quals.ReceiverOnly() != 0 {
		r.report(diag.SigQualifierNoReceiver, d.Span,
			"storage qualifier '%s' requires a receiver; '%s' has none",
			quals.ReceiverOnly().Strings()[0], name).Emit()
		d.Errored = true
		quals &^= quals.ReceiverOnly()
	}

	// Synthesize the implicit receiver parameter: exactly one, typed as a
	// handle to the aggregate or the enclosing frame.
	if hasReceiver {
		d.HasReceiver = true
		d.Receiver = r.receiverType(d)
	}

	result := d.Raw.Result
	if result == types.NoTypeID {
		// Auto-inferred returns settle during body analysis; until then
		// the signature carries void.
		result = in.Builtins().Void
	}

	d.Sig = in.RegisterFunc(types.FuncInfo{
		Params:  d.Raw.Params,
		Result:  result,
		Conv:    d.Raw.Conv,
		Effects: d.Effects,
		Safety:  d.Safety,
		Quals:   quals,
	})
	d.Quals = quals
	d.Stage = sym.StageSignature

	// C-style redeclaration check for free functions: a same-named prior
	// declaration is benign only when call-compatible; otherwise it is an
	// error and the two are not linked as overloads.
	if !d.OwnerClass.IsValid() && !d.OwnerIface.IsValid() && !d.Parent.IsValid() {
		if prior := r.priorFreeDecl(id, d.Name); prior != nil {
			if prior.Stage >= sym.StageSignature && !in.CallCompatible(prior.Sig, d.Sig) {
				r.report(diag.SigIncompatibleRedecl, d.Span,
					"redeclaration of '%s' with incompatible type", name).
					WithNote(prior.Span, "previously declared here").Emit()
				d.Errored = true
			}
		}
	}

	if d.Errored {
		return failed()
	}
	return done()
}

// needsReceiver reports whether the declaration gets an implicit receiver
// parameter: non-static members, nested functions, and dual-context
// declarations (nested inside something itself nested).
func (r *Resolver) needsReceiver(d *sym.Decl) bool {
	if d.OwnerClass.IsValid() || d.OwnerIface.IsValid() {
		return !d.Storage.Has(sym.StorageStatic)
	}
	return d.Parent.IsValid()
}

// receiverIsHandle reports whether the receiver would be an indirection
// with addressable sub-objects.
func (r *Resolver) receiverIsHandle(d *sym.Decl) bool {
	if d.OwnerClass.IsValid() {
		return true // class handles are references
	}
	if d.OwnerIface.IsValid() {
		return true
	}
	return d.Parent.IsValid() // frame pointer
}

func (r *Resolver) receiverType(d *sym.Decl) types.TypeID {
	in := r.graph.Types
	switch {
	case d.OwnerClass.IsValid():
		return r.graph.Classes.Get(d.OwnerClass).Type
	case d.OwnerIface.IsValid():
		return r.graph.Ifaces.Get(d.OwnerIface).Type
	default:
		// Nested function: pointer to the enclosing frame.
		return in.MakePointer(in.Builtins().Void)
	}
}

// enclosingDecl walks to the nearest enclosing function declaration,
// through the class parent when the declaration is a member of a nested
// aggregate.
func (r *Resolver) enclosingDecl(d *sym.Decl) *sym.Decl {
	if d.Parent.IsValid() {
		return r.graph.Decls.Get(d.Parent)
	}
	if d.OwnerClass.IsValid() {
		owner := r.graph.Classes.Get(d.OwnerClass)
		if owner.Parent.IsValid() {
			return r.graph.Decls.Get(owner.Parent)
		}
	}
	return nil
}

// priorFreeDecl finds an earlier free function with the same name.
func (r *Resolver) priorFreeDecl(self sym.DeclID, name source.StringID) *sym.Decl {
	for _, fid := range r.graph.FreeFns {
		if fid == self {
			break
		}
		cand := r.graph.Decls.Get(fid)
		if cand != nil && cand.Name == name {
			return cand
		}
	}
	return nil
}
