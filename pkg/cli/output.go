package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer formats command output. With ANSI disabled every style renders
// plain text.
type Printer struct {
	w    io.Writer
	ansi bool

	success lipgloss.Style
	failure lipgloss.Style
	key     lipgloss.Style
	muted   lipgloss.Style
	header  lipgloss.Style
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, ansi bool) *Printer {
	return &Printer{
		w:       w,
		ansi:    ansi,
		success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		failure: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		key:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		header:  lipgloss.NewStyle().Bold(true),
	}
}

func (p *Printer) render(s lipgloss.Style, text string) string {
	if !p.ansi {
		return text
	}
	return s.Render(text)
}

// Success prints a ✓ line.
func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", p.render(p.success, "✓"), fmt.Sprintf(format, args...))
}

// Failure prints a ✗ line.
func (p *Printer) Failure(format string, args ...interface{}) {
	fmt.Fprintf(p.w, "%s %s\n", p.render(p.failure, "✗"), fmt.Sprintf(format, args...))
}

// Line prints unformatted text.
func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Header prints a section title.
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w, p.render(p.header, title))
	fmt.Fprintln(p.w, p.render(p.muted, strings.Repeat("─", 40)))
}

// KeyValues prints a map sorted by key, with keys aligned.
func (p *Printer) KeyValues(values map[string]string) {
	keys := make([]string, 0, len(values))
	width := 0
	for k := range values {
		keys = append(keys, k)
		if len(k) > width {
			width = len(k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		label := fmt.Sprintf("%-*s", width, k)
		fmt.Fprintf(p.w, "  %s  %s\n", p.render(p.key, label), values[k])
	}
}

// Table prints rows under a header row, columns padded to the widest cell.
func (p *Printer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	format := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	fmt.Fprintln(p.w, p.render(p.header, format(header)))
	for _, row := range rows {
		fmt.Fprintln(p.w, format(row))
	}
}

// JSON prints v as indented JSON.
func (p *Printer) JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Fprintln(p.w, string(data))
	return nil
}
