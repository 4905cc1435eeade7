package diag

import (
	"testing"

	"vesper/internal/source"
)

func TestBagLimit(t *testing.T) {
	b := NewBag(2)
	sp := source.Span{File: 1, Start: 0, End: 1}
	if !b.Add(NewError(OvrNoMatch, sp, "one")) {
		t.Fatalf("first add must succeed")
	}
	if !b.Add(NewError(OvrNoMatch, sp, "two")) {
		t.Fatalf("second add must succeed")
	}
	if b.Add(NewError(OvrNoMatch, sp, "three")) {
		t.Fatalf("third add must be rejected")
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 items, got %d", b.Len())
	}
}

func TestBagSortOrdersBySpanThenSeverity(t *testing.T) {
	b := NewBag(8)
	b.Add(New(SevWarning, SigQualifierDropped, source.Span{File: 1, Start: 10, End: 12}, "late"))
	b.Add(New(SevError, OvrFinalOverride, source.Span{File: 1, Start: 2, End: 4}, "early"))
	b.Add(New(SevError, OvrNoMatch, source.Span{File: 0, Start: 50, End: 51}, "other file"))
	b.Sort()

	items := b.Items()
	if items[0].Message != "other file" || items[1].Message != "early" || items[2].Message != "late" {
		t.Fatalf("unexpected order: %q %q %q", items[0].Message, items[1].Message, items[2].Message)
	}
}

func TestBagDedup(t *testing.T) {
	b := NewBag(8)
	sp := source.Span{File: 1, Start: 5, End: 9}
	b.Add(NewError(OvrFinalOverride, sp, "dup"))
	b.Add(NewError(OvrFinalOverride, sp, "dup"))
	b.Add(NewError(OvrNoMatch, sp, "kept"))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
}

func TestDedupReporterSuppressesRepeats(t *testing.T) {
	bag := NewBag(8)
	r := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 1, Start: 0, End: 3}
	r.Report(StructCircularClass, SevError, sp, "circular reference to class A", nil, nil)
	r.Report(StructCircularClass, SevError, sp, "circular reference to class A", nil, nil)
	if bag.Len() != 1 {
		t.Fatalf("expected 1 diagnostic after dedup, got %d", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	if got := OvrFinalOverride.ID(); got != "OVR5001" {
		t.Fatalf("unexpected ID %q", got)
	}
	if got := SigNotAFunction.ID(); got != "SIG4001" {
		t.Fatalf("unexpected ID %q", got)
	}
	if got := StructCircularClass.ID(); got != "STR6003" {
		t.Fatalf("unexpected ID %q", got)
	}
	if got := ManifestUnknownType.ID(); got != "MAN1002" {
		t.Fatalf("unexpected ID %q", got)
	}
}
