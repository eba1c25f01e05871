package diag

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/roach88/verbcheck/internal/ir"
)

// Position is a resolved 1-indexed line/column.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Locate resolves a span to a line/column. Spans that carry a line are
// trusted; otherwise the byte offset is mapped onto source.
func Locate(span ir.Span, source string) Position {
	if span.Line > 0 {
		col := span.Column
		if col < 1 {
			col = 1
		}
		return Position{Line: span.Line, Column: col}
	}
	off := span.Start
	if off < 0 {
		off = 0
	}
	if off > len(source) {
		off = len(source)
	}
	prefix := source[:off]
	line := strings.Count(prefix, "\n") + 1
	lineStart := strings.LastIndexByte(prefix, '\n') + 1
	return Position{Line: line, Column: utf8.RuneCountInString(prefix[lineStart:]) + 1}
}

// Render writes every diagnostic as a source snippet followed by a summary:
//
//	error[E201]: unknown verb 'cse.open'
//	 --> program.dsl:1:2
//	  |
//	1 | (cse.open :title "Fraud review")
//	  |  ^^^^^^^^
//	  = help: did you mean 'case.open'?
//
//	error: aborting due to 1 previous error
//
// Output is plain text with no ANSI escapes. name labels the source.
func (r *Report) Render(w io.Writer, name, source string) error {
	if name == "" {
		name = "<input>"
	}
	lines := strings.Split(source, "\n")

	var b strings.Builder
	for _, d := range r.Diagnostics {
		renderOne(&b, d, name, source, lines)
		b.WriteByte('\n')
	}

	n := r.Len()
	noun := "errors"
	if n == 1 {
		noun = "error"
	}
	fmt.Fprintf(&b, "error: aborting due to %d previous %s\n", n, noun)

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders the report without a source.
func (r *Report) String() string {
	var b strings.Builder
	_ = r.Render(&b, "", "")
	return b.String()
}

func renderOne(b *strings.Builder, d Diagnostic, name, source string, lines []string) {
	pos := Locate(d.Span, source)
	gutter := strings.Repeat(" ", len(strconv.Itoa(pos.Line)))

	fmt.Fprintf(b, "error[%s]: %s\n", d.Code, d.Message)
	fmt.Fprintf(b, "%s--> %s:%d:%d\n", gutter, name, pos.Line, pos.Column)

	if source != "" && pos.Line <= len(lines) {
		text := lines[pos.Line-1]
		fmt.Fprintf(b, "%s |\n", gutter)
		fmt.Fprintf(b, "%d | %s\n", pos.Line, text)
		pad := min(pos.Column-1, utf8.RuneCountInString(text))
		fmt.Fprintf(b, "%s | %s%s\n", gutter, caretPadding(text, pad), strings.Repeat("^", caretWidth(d.Span, source, text, pad)))
	}

	if d.Related != nil {
		rel := Locate(*d.Related, source)
		fmt.Fprintf(b, "%s = note: first defined at %s:%d:%d\n", gutter, name, rel.Line, rel.Column)
	}
	if d.Hint != nil {
		if len(d.Hint.Suggestions) > 0 {
			fmt.Fprintf(b, "%s = help: did you mean %s?\n", gutter, quoteJoin(d.Hint.Suggestions))
		}
		if d.Hint.Note != "" {
			fmt.Fprintf(b, "%s = note: %s\n", gutter, d.Hint.Note)
		}
	}
}

// caretPadding blanks the first pad runes of lineText, keeping tabs so the
// caret lines up with the echoed source.
func caretPadding(lineText string, pad int) string {
	var b strings.Builder
	for _, r := range lineText {
		if pad == 0 {
			break
		}
		if r == '\t' {
			b.WriteByte('\t')
		} else {
			b.WriteByte(' ')
		}
		pad--
	}
	return b.String()
}

// caretWidth underlines the span on its first line, at least one column.
func caretWidth(span ir.Span, source, lineText string, pad int) int {
	if span.End <= span.Start || span.Start < 0 || span.End > len(source) {
		return 1
	}
	width := utf8.RuneCountInString(source[span.Start:span.End])
	if nl := strings.IndexByte(source[span.Start:span.End], '\n'); nl >= 0 {
		width = utf8.RuneCountInString(source[span.Start : span.Start+nl])
	}
	remaining := utf8.RuneCountInString(lineText) - pad
	if width > remaining {
		width = remaining
	}
	if width < 1 {
		return 1
	}
	return width
}

func quoteJoin(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	if len(quoted) == 1 {
		return quoted[0]
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}

// Record is the structured form of a diagnostic for editor integration.
type Record struct {
	Code        Code      `json:"code"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Position    Position  `json:"position"`
	Span        ir.Span   `json:"span"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Note        string    `json:"note,omitempty"`
	Related     *Position `json:"related,omitempty"`
}

// Structured converts the report to records with resolved positions.
func (r *Report) Structured(source string) []Record {
	records := make([]Record, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		rec := Record{
			Code:     d.Code,
			Title:    d.Code.Title(),
			Message:  d.Message,
			Position: Locate(d.Span, source),
			Span:     d.Span,
		}
		if d.Hint != nil {
			rec.Suggestions = d.Hint.Suggestions
			rec.Note = d.Hint.Note
		}
		if d.Related != nil {
			p := Locate(*d.Related, source)
			rec.Related = &p
		}
		records[i] = rec
	}
	return records
}
