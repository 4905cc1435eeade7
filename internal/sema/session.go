package sema

import (
	"fmt"

	"vesper/internal/diag"
	"vesper/internal/source"
	"vesper/internal/sym"
	"vesper/internal/types"
)

// Outcome is the status every pipeline step reports to its caller. No
// errors cross component boundaries; "failed" is sticky on the
// declaration and short-circuits later checks.
type Outcome uint8

const (
	OutcomeDone Outcome = iota
	OutcomeDeferred
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeDone:
		return "done"
	case OutcomeDeferred:
		return "deferred"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result pairs an outcome with the symbol a deferred step is blocked on.
type Result struct {
	Outcome   Outcome
	BlockedOn types.TypeID // class or interface still resolving
}

func done() Result   { return Result{Outcome: OutcomeDone} }
func failed() Result { return Result{Outcome: OutcomeFailed} }
func deferred(t types.TypeID) Result {
	return Result{Outcome: OutcomeDeferred, BlockedOn: t}
}

// Session owns compilation-wide one-shot bookkeeping that used to hide in
// process globals. One Session per independent compilation; Reset makes a
// session reusable between runs.
type Session struct {
	entryReported bool
	entryDecl     sym.DeclID
}

func NewSession() *Session {
	return &Session{}
}

// NoteEntryPoint records the program entry point the first time it is
// seen and reports whether this call was the first. Later calls return
// false so the driver prints the entry-point notice exactly once.
func (s *Session) NoteEntryPoint(id sym.DeclID) bool {
	if s.entryReported {
		return false
	}
	s.entryReported = true
	s.entryDecl = id
	return true
}

// EntryPoint returns the recorded entry declaration, if any.
func (s *Session) EntryPoint() (sym.DeclID, bool) {
	return s.entryDecl, s.entryReported
}

// Reset clears all one-shot state. Call between independent compilations
// that reuse the session object.
func (s *Session) Reset() {
	s.entryReported = false
	s.entryDecl = sym.NoDeclID
}

// Resolver runs the per-declaration pipeline: signature resolution, slot
// resolution against the base table, then interface reconciliation. The
// external driver owns invocation order and retries; the resolver only
// reports done/deferred/failed.
type Resolver struct {
	graph    *sym.Graph
	reporter diag.Reporter
	session  *Session

	classBusy map[sym.ClassID]bool
	ifaceBusy map[sym.IfaceID]bool
}

// NewResolver wires a resolver to a symbol graph. A nil session allocates
// a private one.
func NewResolver(g *sym.Graph, reporter diag.Reporter, session *Session) *Resolver {
	if session == nil {
		session = NewSession()
	}
	return &Resolver{
		graph:     g,
		reporter:  reporter,
		session:   session,
		classBusy: make(map[sym.ClassID]bool),
		ifaceBusy: make(map[sym.IfaceID]bool),
	}
}

// Graph exposes the symbol graph the resolver mutates.
func (r *Resolver) Graph() *sym.Graph { return r.graph }

func (r *Resolver) report(code diag.Code, span source.Span, format string, args ...interface{}) *diag.ReportBuilder {
	msg := fmt.Sprintf(format, args...)
	return diag.ReportError(r.reporter, code, span, msg)
}

func (r *Resolver) warn(code diag.Code, span source.Span, format string, args ...interface{}) *diag.ReportBuilder {
	msg := fmt.Sprintf(format, args...)
	return diag.ReportWarning(r.reporter, code, span, msg)
}

// typeLabel renders a short human label for a type.
func (r *Resolver) typeLabel(id types.TypeID) string {
	in := r.graph.Types
	tt, ok := in.Lookup(id)
	if !ok {
		return "<error>"
	}
	switch tt.Kind {
	case types.KindClass:
		if info, ok := in.ClassInfo(id); ok {
			if name, ok := r.graph.Strings.Lookup(info.Name); ok && name != "" {
				return name
			}
		}
	case types.KindIface:
		if info, ok := in.IfaceInfo(id); ok {
			if name, ok := r.graph.Strings.Lookup(info.Name); ok && name != "" {
				return name
			}
		}
	case types.KindValue:
		if info, ok := in.ValueInfo(id); ok {
			if name, ok := r.graph.Strings.Lookup(info.Name); ok && name != "" {
				return name
			}
		}
	case types.KindPointer:
		if elem, ok := in.PointerElem(id); ok {
			return "*" + r.typeLabel(elem)
		}
	case types.KindFunction:
		if info, ok := in.FuncInfo(id); ok {
			label := "fn("
			for i, p := range info.Params {
				if i > 0 {
					label += ", "
				}
				label += r.typeLabel(p)
			}
			return label + ") " + r.typeLabel(info.Result)
		}
	}
	return tt.Kind.String()
}

// TypeLabel renders a short human label for a type, for table dumps and
// cache exports.
func (r *Resolver) TypeLabel(id types.TypeID) string { return r.typeLabel(id) }

// DeclLabels renders a declaration's signature label and, when present,
// its introductory type label.
func (r *Resolver) DeclLabels(id sym.DeclID) (sig, intro string) {
	d := r.graph.Decls.Get(id)
	if d == nil {
		return "", ""
	}
	sig = r.typeLabel(d.Sig)
	if d.IntroType != types.NoTypeID {
		intro = r.typeLabel(d.IntroType)
	}
	return sig, intro
}
