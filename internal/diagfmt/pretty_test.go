package diagfmt

import (
	"strings"
	"testing"

	"vesper/internal/diag"
	"vesper/internal/source"
)

func demoBag(t *testing.T) (*diag.Bag, *source.FileSet, source.FileID) {
	t.Helper()
	fs := source.NewFileSet()
	content := "class Dog : Animal\n  fn speak()\n"
	id := fs.AddVirtual("pets/dog.vd.toml", []byte(content))

	bag := diag.NewBag(10)
	speak := source.Span{File: id, Start: 24, End: 29}
	d := diag.NewError(diag.OvrImplicitOverride, speak,
		"'speak' overrides a base function without the override attribute").
		WithNote(source.Span{File: id, Start: 6, End: 9}, "base function declared here").
		WithFixSuggestion(diag.Fix{
			ID:          "add-override",
			Title:       "add override attribute",
			IsPreferred: true,
			Edits:       []diag.TextEdit{{Span: speak.Collapse(), NewText: "override "}},
		})
	bag.Add(d)
	return bag, fs, id
}

func TestPrettyHeaderAndCaret(t *testing.T) {
	bag, fs, _ := demoBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	out := sb.String()

	if !strings.Contains(out, "dog.vd.toml:2:6: error[OVR5002]:") {
		t.Fatalf("header missing or mispositioned:\n%s", out)
	}
	if !strings.Contains(out, "  fn speak()\n") {
		t.Fatalf("source excerpt missing:\n%s", out)
	}
	// Column 6 on the excerpt line, five chars underlined.
	if !strings.Contains(out, "\n       ^~~~~\n") {
		t.Fatalf("caret underline misaligned:\n%s", out)
	}
	if !strings.Contains(out, "note: dog.vd.toml:1:7: base function declared here") {
		t.Fatalf("note line missing:\n%s", out)
	}
	if !strings.Contains(out, "fix (preferred): add override attribute") {
		t.Fatalf("fix line missing:\n%s", out)
	}
}

func TestPrettyFullPathAndSuppressedExtras(t *testing.T) {
	bag, fs, _ := demoBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{PathMode: PathModeFull})
	out := sb.String()

	if !strings.Contains(out, "pets/dog.vd.toml:2:6:") {
		t.Fatalf("full path expected:\n%s", out)
	}
	if strings.Contains(out, "note:") || strings.Contains(out, "fix") {
		t.Fatalf("notes and fixes must stay hidden by default:\n%s", out)
	}
}

func TestPrettyColorDisabledHasNoEscapes(t *testing.T) {
	bag, fs, _ := demoBag(t)
	var sb strings.Builder
	Pretty(&sb, bag, fs, PrettyOpts{Color: false, ShowNotes: true, ShowFixes: true})
	if strings.Contains(sb.String(), "\x1b[") {
		t.Fatalf("escape sequences leaked with color off")
	}
}

func TestPrettyEmptyBag(t *testing.T) {
	fs := source.NewFileSet()
	var sb strings.Builder
	Pretty(&sb, diag.NewBag(10), fs, PrettyOpts{})
	if sb.Len() != 0 {
		t.Fatalf("empty bag must render nothing, got %q", sb.String())
	}
}
