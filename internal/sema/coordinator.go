package sema

import (
	"vesper/internal/diag"
	"vesper/internal/sym"
	"vesper/internal/types"
)

// ResolveDecl runs the full per-declaration pipeline: signature, then
// dispatch placement when the declaration participates in dispatch.
// Safe to call repeatedly; completed declarations return immediately.
func (r *Resolver) ResolveDecl(id sym.DeclID) Result {
	d := r.graph.Decls.Get(id)
	if d == nil {
		return done()
	}
	if d.Stage >= sym.StageSlot {
		if d.Errored {
			return failed()
		}
		return done()
	}
	if d.InProgress {
		r.report(diag.StructCircularClass, d.Span,
			"circular reference to '%s' during resolution", r.graph.Name(id)).Emit()
		d.Errored = true
		return failed()
	}
	d.InProgress = true
	defer func() { d.InProgress = false }()

	// A failed signature is sticky but does not abort placement: the
	// declaration still receives a best-effort slot so the table shape
	// stays stable for downstream consumers.
	if res := r.resolveSignature(id, d); res.Outcome == OutcomeDeferred {
		return res
	}

	r.checkAbstractConsistency(id, d)

	if !d.Dispatchable() {
		d.Stage = sym.StageSlot
		if d.Errored {
			return failed()
		}
		return done()
	}

	var res Result
	switch {
	case d.OwnerClass.IsValid():
		res = r.resolveSlot(id, d)
	case d.OwnerIface.IsValid():
		res = r.resolveIfaceSlot(id, d)
	default:
		res = done()
	}
	if res.Outcome == OutcomeDeferred {
		return res
	}
	d.Stage = sym.StageSlot
	if d.Errored {
		return failed()
	}
	return res
}

// ResolveClass drives a class to a completed dispatch table: bases first,
// then every member in declaration order, then interface reconciliation.
// A deferral of any member defers the whole class.
func (r *Resolver) ResolveClass(id sym.ClassID) Result {
	c := r.graph.Classes.Get(id)
	if c == nil {
		return done()
	}
	if c.Stage == sym.ClassTableDone {
		return done()
	}
	if r.classBusy[id] {
		// Already on the call stack: the caller must wait for it.
		return deferred(c.Type)
	}
	r.classBusy[id] = true
	defer delete(r.classBusy, id)

	if res := r.resolveClassBases(id, c); res.Outcome != OutcomeDone {
		return res
	}

	for _, mid := range c.Members {
		if res := r.ResolveDecl(mid); res.Outcome == OutcomeDeferred {
			return res
		}
	}

	if res := r.reconcileInterfaces(id, c); res.Outcome != OutcomeDone {
		return res
	}

	c.Stage = sym.ClassTableDone
	return done()
}

// ResolveIface drives an interface to a completed matching table.
func (r *Resolver) ResolveIface(id sym.IfaceID) Result {
	f := r.graph.Ifaces.Get(id)
	if f == nil {
		return done()
	}
	if f.Stage == sym.ClassTableDone {
		return done()
	}
	if r.ifaceBusy[id] {
		return deferred(f.Type)
	}
	r.ifaceBusy[id] = true
	defer delete(r.ifaceBusy, id)

	if res := r.resolveIfaceBases(id, f); res.Outcome != OutcomeDone {
		return res
	}

	// Inherited obligations come first so a member-less extending
	// interface still carries everything it extends.
	if res := r.seedIfaceTable(f); res.Outcome != OutcomeDone {
		return res
	}

	for _, mid := range f.Members {
		if res := r.ResolveDecl(mid); res.Outcome == OutcomeDeferred {
			return res
		}
	}

	f.Stage = sym.ClassTableDone
	return done()
}

// resolveClassBases classifies the raw base list into zero-or-one base
// class plus implemented interfaces, checks for inheritance cycles and
// publishes the classification to the type interner so subtype queries
// stop answering "forward".
func (r *Resolver) resolveClassBases(id sym.ClassID, c *sym.Class) Result {
	if c.Stage >= sym.ClassBasesKnown {
		return done()
	}
	in := r.graph.Types
	for _, bt := range c.RawBases {
		if bc, ok := r.graph.ClassByType(bt); ok {
			if c.Base.IsValid() && c.Base != bc {
				r.report(diag.ManifestMultipleBases, c.Span,
					"class '%s' cannot extend more than one base class", r.graph.ClassName(id)).Emit()
				continue
			}
			c.Base = bc
			continue
		}
		if bi, ok := r.graph.IfaceByType(bt); ok {
			c.Ifaces = append(c.Ifaces, bi)
			continue
		}
		r.report(diag.ManifestBaseNotClasslike, c.Span,
			"base '%s' of class '%s' is not a class or interface",
			r.typeLabel(bt), r.graph.ClassName(id)).Emit()
	}

	if r.classChainCyclic(id) {
		r.report(diag.StructCircularClass, c.Span,
			"circular inheritance involving class '%s'", r.graph.ClassName(id)).Emit()
		c.Base = sym.NoClassID
	}

	var baseType types.TypeID
	if bc := r.graph.Classes.Get(c.Base); bc != nil {
		baseType = bc.Type
	}
	ifaceTypes := make([]types.TypeID, 0, len(c.Ifaces))
	for _, fid := range c.Ifaces {
		if f := r.graph.Ifaces.Get(fid); f != nil {
			ifaceTypes = append(ifaceTypes, f.Type)
		}
	}
	in.SetClassBases(c.Type, baseType, ifaceTypes)
	c.Stage = sym.ClassBasesKnown
	return done()
}

// resolveIfaceBases flattens the raw extends list and publishes it.
func (r *Resolver) resolveIfaceBases(id sym.IfaceID, f *sym.Interface) Result {
	if f.Stage >= sym.ClassBasesKnown {
		return done()
	}
	for _, bt := range f.RawBases {
		if bi, ok := r.graph.IfaceByType(bt); ok {
			f.Extends = append(f.Extends, bi)
			continue
		}
		r.report(diag.ManifestBaseNotClasslike, f.Span,
			"base '%s' of interface '%s' is not an interface",
			r.typeLabel(bt), r.graph.IfaceName(id)).Emit()
	}
	extTypes := make([]types.TypeID, 0, len(f.Extends))
	for _, eid := range f.Extends {
		if e := r.graph.Ifaces.Get(eid); e != nil {
			extTypes = append(extTypes, e.Type)
		}
	}
	r.graph.Types.SetIfaceBases(f.Type, extTypes)
	f.Stage = sym.ClassBasesKnown
	return done()
}

// classChainCyclic walks the base chain looking for a repeat.
func (r *Resolver) classChainCyclic(id sym.ClassID) bool {
	seen := map[sym.ClassID]bool{}
	for id.IsValid() {
		if seen[id] {
			return true
		}
		seen[id] = true
		c := r.graph.Classes.Get(id)
		if c == nil {
			return false
		}
		id = c.Base
	}
	return false
}

// seedIfaceTable merges every extended interface's completed table into
// f's own before any of f's members are appended. Merge deduplicates, so
// re-seeding after a deferral, a second extends clause or a diamond in
// the extends graph never duplicates an obligation.
func (r *Resolver) seedIfaceTable(f *sym.Interface) Result {
	for _, eid := range f.Extends {
		ext := r.graph.Ifaces.Get(eid)
		if ext == nil {
			continue
		}
		if ext.Stage != sym.ClassTableDone {
			if !r.ifaceBusy[eid] {
				if res := r.ResolveIface(eid); res.Outcome == OutcomeDeferred {
					return res
				}
			}
			if ext.Stage != sym.ClassTableDone {
				return deferred(ext.Type)
			}
		}
		sym.IfaceTableOf(f).Merge(ext.Table)
	}
	return done()
}

// resolveIfaceSlot assigns an interface member its matching-table slot,
// after any inherited prefix from extended interfaces is in place.
func (r *Resolver) resolveIfaceSlot(id sym.DeclID, d *sym.Decl) Result {
	f := r.graph.Ifaces.Get(d.OwnerIface)
	if d.Slot != sym.NotDispatched {
		return done()
	}
	if res := r.seedIfaceTable(f); res.Outcome != OutcomeDone {
		return res
	}
	d.Slot = sym.IfaceTableOf(f).Append(id)
	d.Introducing = true
	if d.Errored {
		return failed()
	}
	return done()
}

// Resolve drives every class and interface in the graph to completion
// with a bounded work list. Deferred items are retried; the retry budget
// is tied to the hierarchy size, so a genuine cycle exhausts it and is
// reported rather than looping forever.
func (r *Resolver) Resolve() {
	type pending struct {
		class sym.ClassID
		iface sym.IfaceID
	}

	var work []pending
	for i := 1; i <= r.graph.Ifaces.Len(); i++ {
		work = append(work, pending{iface: sym.IfaceID(i)})
	}
	for i := 1; i <= r.graph.Classes.Len(); i++ {
		work = append(work, pending{class: sym.ClassID(i)})
	}

	budget := r.graph.Classes.Len() + r.graph.Ifaces.Len() + 1
	for pass := 0; pass < budget && len(work) > 0; pass++ {
		var again []pending
		for _, p := range work {
			var res Result
			switch {
			case p.class.IsValid():
				res = r.ResolveClass(p.class)
			case p.iface.IsValid():
				res = r.ResolveIface(p.iface)
			}
			if res.Outcome == OutcomeDeferred {
				again = append(again, p)
			}
		}
		if len(again) == len(work) {
			// No progress this pass: everything left depends on
			// something that will never finish.
			work = again
			break
		}
		work = again
	}

	for _, p := range work {
		switch {
		case p.class.IsValid():
			if c := r.graph.Classes.Get(p.class); c != nil && c.Stage != sym.ClassTableDone {
				r.report(diag.StructCircularClass, c.Span,
					"class '%s' has circular or unresolvable references",
					r.graph.ClassName(p.class)).Emit()
				r.sealErrored(c)
			}
		case p.iface.IsValid():
			if f := r.graph.Ifaces.Get(p.iface); f != nil && f.Stage != sym.ClassTableDone {
				r.report(diag.StructCircularClass, f.Span,
					"interface '%s' has circular or unresolvable references",
					r.graph.IfaceName(p.iface)).Emit()
				f.Stage = sym.ClassTableDone
			}
		}
	}

	for _, fid := range r.graph.FreeFns {
		r.ResolveDecl(fid)
	}
}

// sealErrored gives every still-unplaced member a best-effort slot so the
// table shape is stable for downstream consumers, then marks the class
// done in its errored state.
func (r *Resolver) sealErrored(c *sym.Class) {
	for _, mid := range c.Members {
		d := r.graph.Decls.Get(mid)
		if d == nil || !d.Dispatchable() {
			continue
		}
		d.Errored = true
		if d.Slot == sym.NotDispatched && d.FinalIndex == sym.NotDispatched {
			if d.Storage.Has(sym.StorageFinal) {
				d.FinalIndex = int32(len(c.Finals))
				c.Finals = append(c.Finals, mid)
			} else {
				d.Slot = sym.TableOf(c).Append(mid)
			}
			d.Introducing = true
		}
		d.Stage = sym.StageSlot
	}
	c.Stage = sym.ClassTableDone
}
