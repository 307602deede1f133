// Package render prints check results as compiler-style text or JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/l3aro/idbranch/pkg/idcheck"
	"github.com/l3aro/idbranch/pkg/lint"
)

// Printer writes diagnostics as text, one line per event:
//
//	path:line:col: warning: message [altera-id-dependent-backward-branch]
//	path:line:col: note: message
type Printer struct {
	w       io.Writer
	path    *color.Color
	warning *color.Color
	note    *color.Color
	errc    *color.Color
	check   *color.Color
}

// NewPrinter returns a Printer writing to w. Colors are used only when
// enabled is true.
func NewPrinter(w io.Writer, enabled bool) *Printer {
	p := &Printer{
		w:       w,
		path:    color.New(color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		note:    color.New(color.FgCyan, color.Bold),
		errc:    color.New(color.FgRed, color.Bold),
		check:   color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.path, p.warning, p.note, p.errc, p.check} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Event prints a single event of the file at path.
func (p *Printer) Event(path string, ev idcheck.Event) error {
	loc := p.path.Sprintf("%s:%d:%d:", path, ev.Pos.Line, ev.Pos.Column)

	var err error
	switch ev.Severity {
	case idcheck.Warning:
		_, err = fmt.Fprintf(p.w, "%s %s %s %s\n", loc, p.warning.Sprint("warning:"), ev.Message, p.check.Sprintf("[%s]", ev.Check))
	default:
		_, err = fmt.Fprintf(p.w, "%s %s %s\n", loc, p.note.Sprint("note:"), ev.Message)
	}
	return err
}

// File prints every event of a result, or its error.
func (p *Printer) File(r *lint.FileResult) error {
	if r == nil {
		return nil
	}
	if r.Err != nil {
		_, err := fmt.Fprintf(p.w, "%s %s %v\n", p.path.Sprintf("%s:", r.Path), p.errc.Sprint("error:"), r.Err)
		return err
	}
	for _, fn := range r.Functions {
		for _, ev := range fn.Events {
			if err := p.Event(r.Path, ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// Text prints all results in order.
func (p *Printer) Text(results []*lint.FileResult) error {
	for _, r := range results {
		if err := p.File(r); err != nil {
			return err
		}
	}
	return nil
}

// Summary prints the closing count line, for example
// "3 warnings in 2 files".
func (p *Printer) Summary(results []*lint.FileResult) error {
	_, err := fmt.Fprintln(p.w, SummaryLine(results))
	return err
}

// SummaryLine counts warnings and the files that were checked.
func SummaryLine(results []*lint.FileResult) string {
	w := lint.Warnings(results)
	line := fmt.Sprintf("%s in %s", plural(w, "warning"), plural(len(results), "file"))
	if failed := len(lint.Failed(results)); failed > 0 {
		line += fmt.Sprintf(" (%s)", plural(failed, "error"))
	}
	return line
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// Diagnostic is the JSON form of one event.
type Diagnostic struct {
	File     string `json:"file"`
	Function string `json:"function,omitempty"`
	Severity string `json:"severity"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
	Message  string `json:"message"`
	Check    string `json:"check,omitempty"`
}

// Diagnostics flattens results into JSON records in output order. File
// errors become records with severity "error".
func Diagnostics(results []*lint.FileResult) []Diagnostic {
	out := make([]Diagnostic, 0)
	for _, r := range results {
		if r == nil {
			continue
		}
		if r.Err != nil {
			out = append(out, Diagnostic{File: r.Path, Severity: "error", Message: r.Err.Error()})
			continue
		}
		for _, fn := range r.Functions {
			for _, ev := range fn.Events {
				out = append(out, Diagnostic{
					File:     r.Path,
					Function: fn.Name,
					Severity: ev.Severity.String(),
					Line:     ev.Pos.Line,
					Column:   ev.Pos.Column,
					Message:  ev.Message,
					Check:    ev.Check,
				})
			}
		}
	}
	return out
}

// JSON writes results as an indented JSON array.
func JSON(w io.Writer, results []*lint.FileResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Diagnostics(results))
}
