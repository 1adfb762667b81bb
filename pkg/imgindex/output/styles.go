package output

import "github.com/charmbracelet/lipgloss"

// Color constants using ANSI 256-color palette.
const (
	// ColorPrimary is used for titles (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for positive status indicators (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for warning messages (orange/yellow).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for deletions and errors (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for labels and secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Text styles shared by the summary renderers.
var (
	// TitleStyle is used for summary titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// LabelStyle is used for field labels (e.g., "Indexed:", "Errors:").
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is used for positive status text.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// WarningStyle is used for warning text.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// DangerStyle is used for deletion counts and error text.
	DangerStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)
)
