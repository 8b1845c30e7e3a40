// Package protocol writes and reads the text findings protocol consumed by
// report generators.
package protocol

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dakshscra/scra/internal/domain"
)

var (
	errGroupOpen   = errors.New("protocol: group already open")
	errNoGroupOpen = errors.New("protocol: no group open")
)

// Writer implements domain.FindingsWriter. Group numbers continue across
// every rule set written through the same Writer.
type Writer struct {
	w       io.Writer
	last    int
	groups  int
	open    bool
	current string
	err     error
}

// NewWriter creates a Writer whose first group is numbered start+1.
func NewWriter(w io.Writer, start int) *Writer {
	return &Writer{w: w, last: start}
}

// BeginGroup writes the group header for r and returns its number.
func (w *Writer) BeginGroup(r *domain.Rule) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.open {
		return 0, errGroupOpen
	}
	if w.groups > 0 {
		w.printf("\n\n")
	}
	w.last++
	w.groups++
	w.open = true
	w.current = ""
	w.printf("%d. Rule Title: %s\n\n", w.last, oneLine(r.Name))
	w.printf("\t Rule Description  : %s\n", oneLine(r.RuleDesc))
	w.printf("\t Issue Description : %s\n", oneLine(r.IssueDesc))
	w.printf("\t Developer Note    : %s\n", oneLine(r.DeveloperNote))
	w.printf("\t Reviewer Note     : %s\n", oneLine(r.ReviewerNote))
	return w.last, w.err
}

// AddFinding writes one finding line, preceded by a source header whenever
// the source file changes within the group.
func (w *Writer) AddFinding(f domain.Finding) error {
	if w.err != nil {
		return w.err
	}
	if !w.open {
		return errNoGroupOpen
	}
	if f.SourceFile != w.current {
		w.current = f.SourceFile
		w.printf("\n\t -> Source File: %s\n", f.SourceFile)
	}
	w.printf("\t\t [%d] %s\n", f.Line, f.Text)
	return w.err
}

// EndGroup closes the open group.
func (w *Writer) EndGroup() error {
	if !w.open {
		return errNoGroupOpen
	}
	w.open = false
	return w.err
}

// Groups returns how many groups this Writer has emitted.
func (w *Writer) Groups() int { return w.groups }

func (w *Writer) printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.w, format, args...)
}

// PathWriter implements domain.PathFindingsWriter. Numbering starts at 1.
type PathWriter struct {
	w    io.Writer
	last int
	open bool
	err  error
}

// NewPathWriter creates a PathWriter.
func NewPathWriter(w io.Writer) *PathWriter {
	return &PathWriter{w: w}
}

func (w *PathWriter) BeginGroup(r *domain.Rule) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	if w.open {
		return 0, errGroupOpen
	}
	w.last++
	w.open = true
	_, w.err = fmt.Fprintf(w.w, "%d. Rule Title: %s\n", w.last, oneLine(r.Name))
	return w.last, w.err
}

func (w *PathWriter) AddPath(p domain.PathFinding) error {
	if w.err != nil {
		return w.err
	}
	if !w.open {
		return errNoGroupOpen
	}
	_, w.err = fmt.Fprintf(w.w, "\tFile Path: %s\n", p.Path)
	return w.err
}

func (w *PathWriter) EndGroup() error {
	if !w.open {
		return errNoGroupOpen
	}
	w.open = false
	return w.err
}

// Groups returns how many groups have been emitted.
func (w *PathWriter) Groups() int { return w.last }

// oneLine keeps header fields on a single protocol line.
func oneLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
