package fix

import (
	"testing"

	"vesper/internal/diag"
	"vesper/internal/source"
)

func TestInsertTextDefaults(t *testing.T) {
	at := source.Span{File: 1, Start: 4, End: 4}
	f := InsertText("add override attribute", at, "override ", "")
	if f.Kind != diag.FixKindQuickFix {
		t.Fatalf("expected quick fix kind")
	}
	if f.Applicability != diag.FixApplicabilityAlwaysSafe {
		t.Fatalf("expected always-safe applicability")
	}
	if len(f.Edits) != 1 || f.Edits[0].NewText != "override " {
		t.Fatalf("unexpected edits %+v", f.Edits)
	}
}

func TestReplaceSpanOptions(t *testing.T) {
	sp := source.Span{File: 2, Start: 10, End: 14}
	id := MakeFixID(diag.OvrNoMatch, sp)
	f := ReplaceSpan("rename to 'speak'", sp, "speak", "speek", WithID(id), Preferred(), WithKind(diag.FixKindRefactor))
	if f.ID != "OVR5003@2:10-14" {
		t.Fatalf("unexpected fix ID %q", f.ID)
	}
	if !f.IsPreferred {
		t.Fatalf("expected preferred fix")
	}
	if f.Kind != diag.FixKindRefactor {
		t.Fatalf("expected refactor kind")
	}
	if f.Edits[0].OldText != "speek" {
		t.Fatalf("guard text lost")
	}
}
