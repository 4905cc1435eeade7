package sema

import (
	"vesper/internal/diag"
	"vesper/internal/sym"
	"vesper/internal/types"
)

// reconcileInterfaces checks that every member of every implemented
// interface is matched by a compatible class method, and records the
// satisfaction edges so call sites dispatching through the interface
// know which slot answers. The base chain's interfaces are walked too:
// a derived override must carry the edge to the interface member it now
// answers for. Only the class's own interface list can surface a missing
// implementation; the ancestor already reported its own.
func (r *Resolver) reconcileInterfaces(id sym.ClassID, c *sym.Class) Result {
	seen := map[sym.IfaceID]bool{}
	cur, cc := id, c
	for cc != nil {
		if cur != id && cc.Stage != sym.ClassTableDone {
			if !r.classBusy[cur] {
				if res := r.ResolveClass(cur); res.Outcome == OutcomeDeferred {
					return res
				}
			}
			if cc.Stage != sym.ClassTableDone {
				return deferred(cc.Type)
			}
		}
		for _, fid := range cc.Ifaces {
			if seen[fid] {
				continue
			}
			seen[fid] = true
			f := r.graph.Ifaces.Get(fid)
			if f == nil {
				continue
			}
			if f.Stage != sym.ClassTableDone {
				if !r.ifaceBusy[fid] {
					if res := r.ResolveIface(fid); res.Outcome == OutcomeDeferred {
						return res
					}
				}
				if f.Stage != sym.ClassTableDone {
					return deferred(f.Type)
				}
			}
			if res := r.reconcileOne(id, c, fid, f, cur == id); res.Outcome != OutcomeDone {
				return res
			}
		}
		cur = cc.Base
		cc = r.graph.Classes.Get(cur)
	}
	return done()
}

// reconcileOne matches a single interface's table against the class.
// direct marks interfaces from the class's own implements list; only
// those may report an unsatisfied member here.
func (r *Resolver) reconcileOne(id sym.ClassID, c *sym.Class, fid sym.IfaceID, f *sym.Interface, direct bool) Result {
	abstract := classIsAbstract(r.graph, c)
	for _, reqID := range f.Table {
		req := r.graph.Decls.Get(reqID)
		if req == nil {
			continue
		}
		implID, forwardOn := r.findImplementation(id, req)
		if forwardOn != types.NoTypeID {
			return deferred(forwardOn)
		}
		if !implID.IsValid() {
			if direct && !abstract {
				r.report(diag.StructIfaceUnsatisfied, c.Span,
					"class '%s' does not implement interface function '%s.%s'",
					r.graph.ClassName(id), r.graph.IfaceName(fid), r.graph.Name(reqID)).
					WithNote(req.Span, "required by interface declared here").Emit()
			}
			continue
		}
		impl := r.graph.Decls.Get(implID)
		r.recordOverride(implID, impl, reqID)
	}
	return done()
}

// findImplementation searches the class's dispatch table and final list,
// then the base chain, for a method satisfying the interface member.
// Returns the implementing declaration, or a type the search is blocked
// on when covariance cannot be decided yet.
func (r *Resolver) findImplementation(id sym.ClassID, req *sym.Decl) (sym.DeclID, types.TypeID) {
	in := r.graph.Types
	for id.IsValid() {
		c := r.graph.Classes.Get(id)
		if c == nil {
			break
		}
		for _, pool := range [][]sym.DeclID{c.Vtbl, c.Finals} {
			for _, mid := range pool {
				m := r.graph.Decls.Get(mid)
				if m == nil || m.Name != req.Name || m.OwnerIface.IsValid() {
					continue
				}
				res := in.Covariant(m.Sig, req.Sig)
				switch res.Kind {
				case types.CovEqual, types.CovCovariant:
					return mid, types.NoTypeID
				case types.CovForward:
					if fm, ok := in.FuncInfo(m.Sig); ok {
						return sym.NoDeclID, fm.Result
					}
					return sym.NoDeclID, in.ErrorSentinel()
				}
			}
		}
		id = c.Base
	}
	return sym.NoDeclID, types.NoTypeID
}

func classIsAbstract(g *sym.Graph, c *sym.Class) bool {
	for _, mid := range c.Members {
		d := g.Decls.Get(mid)
		if d != nil && d.Storage.Has(sym.StorageAbstract) {
			return true
		}
	}
	return false
}
