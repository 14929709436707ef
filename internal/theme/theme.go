package theme

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// SenderStyle renders the sender column.
var SenderStyle = lipgloss.NewStyle().
	Foreground(ColorGreen)

// DateStyle renders timestamps.
var DateStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// AttachmentBadgeStyle marks messages that carry attachments.
var AttachmentBadgeStyle = lipgloss.NewStyle().
	Foreground(ColorMagenta)

// ErrorStyle is used for failures in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// WarnStyle is used for partial failures.
var WarnStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// formTheme is the huh theme used by every prompt.
var formTheme = huh.ThemeCharm()

// Form returns the huh theme selected by Use.
func Form() *huh.Theme {
	return formTheme
}

// Use selects a named display theme. "plain" also disables colors.
func Use(name string) error {
	switch name {
	case "", "default", "charm":
		formTheme = huh.ThemeCharm()
	case "dracula":
		formTheme = huh.ThemeDracula()
	case "catppuccin":
		formTheme = huh.ThemeCatppuccin()
	case "base16":
		formTheme = huh.ThemeBase16()
	case "plain":
		formTheme = huh.ThemeBase()
		lipgloss.SetColorProfile(termenv.Ascii)
	default:
		return fmt.Errorf("unknown theme %q", name)
	}
	return nil
}
