// Package output prints user-facing command results, either as styled
// lines or as a single JSON document.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/sadopc/prismo/internal/theme"
)

// Printer writes command output. Messages go to out, errors to errOut. In
// JSON mode the message helpers are silent and only Emit writes.
type Printer struct {
	out    io.Writer
	errOut io.Writer
	th     *theme.Theme
	color  bool
	json   bool
}

// Option configures a Printer.
type Option func(*Printer)

// WithJSON switches the printer to JSON mode.
func WithJSON(on bool) Option { return func(p *Printer) { p.json = on } }

// WithColor forces colour on or off.
func WithColor(on bool) Option { return func(p *Printer) { p.color = on } }

// New creates a Printer. Colour defaults to off; callers decide with
// ColorEnabled.
func New(out, errOut io.Writer, th *theme.Theme, opts ...Option) *Printer {
	if th == nil {
		th = theme.Default()
	}
	p := &Printer{out: out, errOut: errOut, th: th}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ColorEnabled reports whether f is a terminal and NO_COLOR is unset.
func ColorEnabled(f *os.File) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Theme returns the theme in use.
func (p *Printer) Theme() *theme.Theme { return p.th }

// Colored reports whether styles are applied.
func (p *Printer) Colored() bool { return p.color }

// JSON reports whether the printer is in JSON mode.
func (p *Printer) JSON() bool { return p.json }

// Style renders s with st when colour is enabled.
func (p *Printer) Style(st lipgloss.Style, s string) string {
	if !p.color {
		return s
	}
	return st.Render(s)
}

func (p *Printer) line(w io.Writer, st lipgloss.Style, symbol, format string, args []any) {
	if p.json {
		return
	}
	fmt.Fprintln(w, p.Style(st, symbol+" "+fmt.Sprintf(format, args...)))
}

// Success prints a confirmation line.
func (p *Printer) Success(format string, args ...any) {
	p.line(p.out, p.th.Success, "✔", format, args)
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.line(p.out, p.th.Info, "ℹ", format, args)
}

// Warn prints a warning line.
func (p *Printer) Warn(format string, args ...any) {
	p.line(p.out, p.th.Warning, "⚠", format, args)
}

// Error prints an error line to the error stream.
func (p *Printer) Error(format string, args ...any) {
	p.line(p.errOut, p.th.Error, "✖", format, args)
}

// Step prints a progress line.
func (p *Printer) Step(format string, args ...any) {
	p.line(p.out, p.th.Step, "→", format, args)
}

// Title prints a section heading preceded by a blank line.
func (p *Printer) Title(format string, args ...any) {
	if p.json {
		return
	}
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.Style(p.th.Title, fmt.Sprintf(format, args...)))
}

// Println prints pre-rendered text.
func (p *Printer) Println(s string) {
	if p.json {
		return
	}
	fmt.Fprintln(p.out, s)
}

// Block prints a multi-line block, ensuring it ends with a newline.
func (p *Printer) Block(s string) {
	if p.json {
		return
	}
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	fmt.Fprint(p.out, s)
}

// Emit writes v as indented JSON. It writes in every mode so commands whose
// only output is data can use it directly.
func (p *Printer) Emit(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode json: %w", err)
	}
	return nil
}

// Envelope is the JSON document written for every command in JSON mode.
type Envelope struct {
	OK        bool     `json:"ok"`
	Command   string   `json:"command,omitempty"`
	Data      any      `json:"data,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Migration string   `json:"migration,omitempty"`
	Error     any      `json:"error,omitempty"`
}
