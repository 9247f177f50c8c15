package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/chazu/pyjs/compiler"
)

var (
	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	styleKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	styleDim = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	styleOK = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	styleErr = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	styleCaret = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// renderDiagnostics writes each diagnostic with the source line it points
// at, when srcs has the file.
func renderDiagnostics(w io.Writer, diags []*compiler.Error, srcs map[string]string) {
	for i, e := range diags {
		if i > 0 {
			fmt.Fprintln(w)
		}
		pos := e.Pos.String()
		if pos == "" {
			pos = "<unknown>"
		}
		fmt.Fprintf(w, "%s %s\n", styleTitle.Render(pos), styleErr.Render(e.Code.String()))
		msg := e.Msg
		if e.Func != "" {
			msg += styleDim.Render(" (in " + e.Func + ")")
		}
		fmt.Fprintf(w, "  %s\n", msg)
		if excerpt := sourceExcerpt(e, srcs[e.Pos.File]); excerpt != "" {
			fmt.Fprint(w, excerpt)
		}
	}
}

// sourceExcerpt renders the offending line with carets under the
// construct, or "" when the line is unknown.
func sourceExcerpt(e *compiler.Error, src string) string {
	if src == "" || e.Pos.Line <= 0 {
		return ""
	}
	lines := strings.Split(src, "\n")
	if e.Pos.Line > len(lines) {
		return ""
	}
	line := strings.TrimRight(lines[e.Pos.Line-1], "\r")
	gutter := fmt.Sprintf("%5d | ", e.Pos.Line)

	var b strings.Builder
	b.WriteString(styleDim.Render(gutter))
	b.WriteString(line)
	b.WriteByte('\n')
	if col := e.Pos.Column; col > 0 && col <= len(line)+1 {
		width := 1
		if c := e.Construct; c != "" && strings.HasPrefix(line[col-1:], c) {
			width = len(c)
		}
		b.WriteString(styleDim.Render(strings.Repeat(" ", len(gutter)-2) + "| "))
		b.WriteString(strings.Repeat(" ", col-1))
		b.WriteString(styleCaret.Render(strings.Repeat("^", width)))
		b.WriteByte('\n')
	}
	return b.String()
}

// summary describes a finished build.
type summary struct {
	Project string
	Roots   []*compiler.Function
	Bundle  *compiler.Bundle
	Cached  bool
	Output  string
}

func renderSummary(w io.Writer, s summary) {
	dest := s.Output
	if dest == "" {
		dest = "stdout"
	}
	fmt.Fprintf(w, "%s %s  %d root(s) -> %s\n", styleTitle.Render(appName), s.Project, len(s.Roots), dest)

	row := func(key, value string) {
		fmt.Fprintf(w, "  %s %s\n", styleKey.Render(fmt.Sprintf("%-10s", key)), value)
	}
	row("functions", fmt.Sprint(len(s.Bundle.Functions)))
	row("constants", fmt.Sprint(len(s.Bundle.Constants)))
	if len(s.Bundle.Modules) > 0 {
		row("modules", strings.Join(s.Bundle.Modules, ", ")+styleDim.Render("  (host must provide)"))
	}
	hash := s.Bundle.ContentHash
	if len(hash) > 12 {
		hash = hash[:12]
	}
	if s.Cached {
		hash += styleOK.Render("  (cached)")
	}
	row("hash", hash)
}
