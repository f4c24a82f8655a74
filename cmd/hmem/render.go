package main

import (
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// renderPretty renders md for an interactive terminal, the one piece of
// viewer functionality kept from bd's own TUI (adapted from its glamour
// + lipgloss rendering path in internal/ui). Callers that want the raw
// Markdown — the MCP adapter's non-interactive clients — should use
// exportimport's output directly instead.
func renderPretty(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}

// colorEnabled reports whether stdout is an interactive terminal that
// accepts ANSI color, honoring NO_COLOR the way bd's terminal.go does.
func colorEnabled() bool {
	if termenv.EnvNoColor() {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}

var (
	styleOK   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleFail = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// paintStatus renders s in green (ok) or red+bold (failure) when the
// terminal supports it, and falls back to plain text otherwise.
func paintStatus(s string, ok bool) string {
	if !colorEnabled() {
		return s
	}
	if ok {
		return styleOK.Render(s)
	}
	return styleFail.Render(s)
}
