package ui

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	ColorGreenStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	ColorRedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true)
	ColorYellowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)
	ColorBlueStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Bold(true)
	ColorCyanStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF"))
	ColorMagentaStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF")).Italic(true)
	ColorDimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))

	// Delta status styles, keyed by the letter git prints.
	statusStyles = map[byte]lipgloss.Style{
		'A': lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true),
		'D': lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4444")).Bold(true),
		'M': lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true),
		'R': lipgloss.NewStyle().Foreground(lipgloss.Color("#00BFFF")).Bold(true),
		'C': lipgloss.NewStyle().Foreground(lipgloss.Color("#00FFFF")).Bold(true),
		'T': lipgloss.NewStyle().Foreground(lipgloss.Color("#FF00FF")).Bold(true),
		'?': lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	}

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#5F5FFF")).
			MarginBottom(1)

	SectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true).
			Underline(true)

	CommitBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5FFF")).
			Padding(0, 2).
			MarginBottom(1)
)

// Icons
const (
	IconCheck     = "✓"
	IconCross     = "✗"
	IconBranch    = "⎇"
	IconCommit    = "⊚"
	IconAuthor    = "👤"
	IconDate      = "📅"
	IconSeparator = "│"
	IconCurrent   = "*"
)

func Green(s string) string   { return ColorGreenStyle.Render(s) }
func Red(s string) string     { return ColorRedStyle.Render(s) }
func Yellow(s string) string  { return ColorYellowStyle.Render(s) }
func Blue(s string) string    { return ColorBlueStyle.Render(s) }
func Cyan(s string) string    { return ColorCyanStyle.Render(s) }
func Magenta(s string) string { return ColorMagentaStyle.Render(s) }
func Dim(s string) string     { return ColorDimStyle.Render(s) }

func Header(text string) string  { return HeaderStyle.Render(text) }
func Section(text string) string { return SectionStyle.Render(text) }

// CommitBox frames a commit rendered by FormatCommit.
func CommitBox(text string) string { return CommitBoxStyle.Render(text) }
