package ir

import "fmt"

// Span locates a piece of program text.
// Start and End are byte offsets into the source; Line and Column are
// 1-indexed. A zero Line means the producer only supplied offsets.
type Span struct {
	Start  int `json:"start" yaml:"start"`
	End    int `json:"end" yaml:"end"`
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// IsZero reports whether the span carries no position at all.
func (s Span) IsZero() bool {
	return s == Span{}
}

// String renders the span as "line:column", falling back to the byte range.
func (s Span) String() string {
	if s.Line > 0 {
		return fmt.Sprintf("%d:%d", s.Line, s.Column)
	}
	return fmt.Sprintf("@%d-%d", s.Start, s.End)
}
