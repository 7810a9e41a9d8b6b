// Package output renders command results as styled text, markdown or JSON.
//
// Auto mode picks styled text for terminals and markdown otherwise, which
// keeps piped output readable for agents and scripts.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode is an output format.
type Mode string

// OutputMode is an alias kept for call sites that read better with it.
type OutputMode = Mode

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes command output in one mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, IsTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit terminal state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	lr := lipgloss.NewRenderer(out)
	lr.SetColorProfile(colorProfile(isTTY))
	return &Renderer{out: out, errOut: errOut, mode: mode, isTTY: isTTY, styles: newStyles(lr)}
}

// IsTerminal reports whether w is a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves auto mode against the terminal state.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether output goes to a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Styles returns the text-mode styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Writer returns the standard output writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// Println writes a line to standard output.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted text to standard output.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a heading in the effective mode.
func (r *Renderer) Header(level int, text string) {
	switch r.EffectiveMode() {
	case ModeText:
		style := r.styles.Header2
		if level <= 1 {
			style = r.styles.Header1
		}
		r.Println(style.Render(Heading(text)))
	case ModeMarkdown:
		r.Println(FormatHeader(level, text))
		r.Println("")
	}
}

// KeyValue writes one labelled value.
func (r *Renderer) KeyValue(key, value string) {
	if r.EffectiveMode() == ModeText {
		r.Printf("%s %s\n", r.styles.Key.Render(key+":"), value)
		return
	}
	r.Println(FormatKeyValue(key, value))
}

// List writes bullet items.
func (r *Renderer) List(items []string) {
	for _, item := range items {
		r.Printf("- %s\n", item)
	}
}

// Table writes rows as a go-pretty table in text mode and a pipe table in
// markdown mode.
func (r *Renderer) Table(header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)

	hr := make(table.Row, len(header))
	for i, h := range header {
		hr[i] = h
	}
	t.AppendHeader(hr)
	for _, row := range rows {
		tr := make(table.Row, len(row))
		for i, c := range row {
			tr[i] = c
		}
		t.AppendRow(tr)
	}

	if r.EffectiveMode() == ModeText {
		t.SetStyle(table.StyleLight)
		t.Render()
		return
	}
	t.RenderMarkdown()
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success writes a success message to standard output.
func (r *Renderer) Success(msg string) {
	r.status(r.styles.Success.Render("✓"), msg, r.out)
}

// Warning writes a warning to standard error.
func (r *Renderer) Warning(msg string) {
	r.status(r.styles.Warning.Render("!"), msg, r.errOut)
}

// Error writes an error to standard error.
func (r *Renderer) Error(msg string) {
	r.status(r.styles.Error.Render("✗"), msg, r.errOut)
}

// Muted writes de-emphasised text to standard output.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() == ModeText {
		r.Println(r.styles.Muted.Render(msg))
		return
	}
	r.Println("_" + msg + "_")
}

// StatusLine writes one item with a status marker: success, warn or error.
func (r *Renderer) StatusLine(name, status, detail string) {
	line := name
	if detail != "" {
		line += " (" + detail + ")"
	}
	if r.EffectiveMode() != ModeText {
		marker := map[string]string{"success": "PASS", "warn": "WARN", "error": "ERROR"}[status]
		if marker == "" {
			marker = strings.ToUpper(status)
		}
		r.Printf("- **[%s]** %s\n", marker, line)
		return
	}
	icon := r.styles.Success.Render("✓")
	switch status {
	case "warn":
		icon = r.styles.Warning.Render("!")
	case "error":
		icon = r.styles.Error.Render("✗")
	}
	r.Printf("  %s %s\n", icon, line)
}

func (r *Renderer) status(icon, msg string, w io.Writer) {
	if r.EffectiveMode() == ModeJSON {
		// keep stdout parseable
		w = r.errOut
	}
	if r.EffectiveMode() == ModeText {
		_, _ = fmt.Fprintf(w, "%s %s\n", icon, msg)
		return
	}
	_, _ = fmt.Fprintln(w, strings.TrimSpace(msg))
}
