// Package diag defines the diagnostic model shared by all resolution phases.
//
// Diagnostic is the central record: a Severity, a compact numeric Code with a
// stable string form, a short human message, a primary source.Span, optional
// Notes (secondary spans such as "overridden function declared here") and
// optional Fixes (structured edits such as inserting an override attribute).
//
// Phases emit through the Reporter interface so that emission stays decoupled
// from storage and formatting. BagReporter aggregates into a Bag, which
// supports sorting, merging and deduplication; DedupReporter suppresses
// repeats, which matters when the forward-reference coordinator retries a
// declaration and the same error surfaces again.
//
// Rendering lives in internal/diagfmt and fix construction in internal/fix;
// this package performs no IO and keeps all data deterministic so bags can be
// compared in tests and serialised by tooling.
package diag
