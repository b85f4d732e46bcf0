// Package ui holds terminal styling shared by the CLI commands.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	accentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7AA2F7"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F39C12"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

// Interactive reports whether stdout is a terminal. Styling and prompt
// forms are skipped when it isn't.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Accent renders s in the highlight style.
func Accent(s string) string {
	if !Interactive() {
		return s
	}
	return accentStyle.Render(s)
}

// Success renders s in the success style.
func Success(s string) string {
	if !Interactive() {
		return s
	}
	return successStyle.Render(s)
}

// Warn renders s in the warning style.
func Warn(s string) string {
	if !Interactive() {
		return s
	}
	return warningStyle.Render(s)
}

// Error renders s in the error style.
func Error(s string) string {
	if !Interactive() {
		return s
	}
	return errorStyle.Render(s)
}

// Muted renders s in the de-emphasized style.
func Muted(s string) string {
	if !Interactive() {
		return s
	}
	return mutedStyle.Render(s)
}
