package diag

import (
	"vesper/internal/source"
)

// Note attaches secondary context to a diagnostic (e.g. the ancestor
// declaration an override conflicts with).
type Note struct {
	Span source.Span
	Msg  string
}

// FixKind classifies a suggested fix.
type FixKind uint8

const (
	FixKindQuickFix FixKind = iota
	FixKindRefactor
)

// FixApplicability expresses how safely a fix can be applied automatically.
type FixApplicability uint8

const (
	FixApplicabilityAlwaysSafe FixApplicability = iota
	FixApplicabilityMaybeIncorrect
)

// TextEdit replaces the text covered by Span with NewText. OldText acts as
// an optional guard: appliers should refuse the edit when the current text
// differs.
type TextEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

// Fix is a suggested source edit attached to a diagnostic.
type Fix struct {
	ID            string
	Title         string
	Kind          FixKind
	Applicability FixApplicability
	IsPreferred   bool
	Edits         []TextEdit
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
