package diagfmt

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"vesper/internal/diag"
	"vesper/internal/source"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan, color.Bold)
	noteColor    = color.New(color.FgBlue)
	caretColor   = color.New(color.FgGreen, color.Bold)
)

// Pretty writes human-readable diagnostics. Callers are expected to sort
// the bag first. Each diagnostic prints as
//
//	<path>:<line>:<col>: <severity>[CODE]: <message>
//
// followed by the source line with a caret underline, then notes and fix
// titles when enabled.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	for i := range bag.Items() {
		d := &bag.Items()[i]
		writeHeader(w, fs, d, opts)
		writeExcerpt(w, fs, d.Primary, opts)
		if opts.ShowNotes {
			for _, n := range d.Notes {
				start, _ := fs.Resolve(n.Span)
				fmt.Fprintf(w, "  %s %s:%d:%d: %s\n",
					paint(opts.Color, noteColor, "note:"),
					displayPath(fs, n.Span.File, opts.PathMode), start.Line, start.Col, n.Msg)
			}
		}
		if opts.ShowFixes {
			for _, fx := range d.Fixes {
				marker := "fix:"
				if fx.IsPreferred {
					marker = "fix (preferred):"
				}
				fmt.Fprintf(w, "  %s %s\n", paint(opts.Color, noteColor, marker), fx.Title)
			}
		}
	}
}

func writeHeader(w io.Writer, fs *source.FileSet, d *diag.Diagnostic, opts PrettyOpts) {
	start, _ := fs.Resolve(d.Primary)
	var sev string
	switch d.Severity {
	case diag.SevError:
		sev = paint(opts.Color, errorColor, "error")
	case diag.SevWarning:
		sev = paint(opts.Color, warningColor, "warning")
	default:
		sev = paint(opts.Color, infoColor, "info")
	}
	fmt.Fprintf(w, "%s:%d:%d: %s[%s]: %s\n",
		displayPath(fs, d.Primary.File, opts.PathMode),
		start.Line, start.Col, sev, d.Code.ID(), d.Message)
}

// writeExcerpt prints the source line the span starts on, underlined with
// ^~~~ aligned by display width so wide runes and tabs line up.
func writeExcerpt(w io.Writer, fs *source.FileSet, sp source.Span, opts PrettyOpts) {
	f := fs.Get(sp.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(sp)
	line := f.GetLine(start.Line)
	if line == "" && sp.Empty() {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)

	prefix := line
	if int(start.Col-1) <= len(line) {
		prefix = line[:start.Col-1]
	}
	pad := strings.Repeat(" ", runewidth.StringWidth(prefix))

	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		covered := line
		if int(end.Col-1) <= len(line) {
			covered = line[start.Col-1 : end.Col-1]
		}
		if wdt := runewidth.StringWidth(covered); wdt > 1 {
			width = wdt
		}
	}
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "  %s%s\n", pad, paint(opts.Color, caretColor, underline))
}

func displayPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return "<unknown>"
	}
	if mode == PathModeBasename {
		return filepath.Base(f.Path)
	}
	return f.Path
}

func paint(enabled bool, c *color.Color, s string) string {
	if !enabled {
		return s
	}
	return c.Sprint(s)
}
