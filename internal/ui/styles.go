package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // cyan: headings
	colorAccent  = lipgloss.Color("#FFD700") // gold: values of interest
	colorSuccess = lipgloss.Color("#00E676") // green: converged
	colorDanger  = lipgloss.Color("#FF5252") // red: errors
	colorMuted   = lipgloss.Color("#636363") // gray: de-emphasized
)

// Status icons.
const (
	iconDone   = "✓"
	iconFailed = "✗"
	iconStep   = "·"
)

var (
	styleHeading = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleValue   = lipgloss.NewStyle().Foreground(colorAccent)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleDanger  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
)
