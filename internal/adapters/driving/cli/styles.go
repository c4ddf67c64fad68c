package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Console palette.
var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6C7086")
	colorSuccess = lipgloss.Color("#A6E3A1")
	colorWarning = lipgloss.Color("#F9E2AF")
	colorError   = lipgloss.Color("#F38BA8")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

func title(s string) string   { return titleStyle.Render(s) }
func muted(s string) string   { return mutedStyle.Render(s) }
func success(s string) string { return successStyle.Render("[+] " + s) }
func warning(s string) string { return warningStyle.Render("[!] " + s) }
func failure(s string) string { return errorStyle.Render("[-] " + s) }
