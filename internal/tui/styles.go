package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/existflow/taskdeck/internal/model"
)

// Color palette based on TUI design
var (
	// Schedule colors
	StatusPassedColor   = lipgloss.Color("#FF6B6B") // Red
	StatusUpcomingColor = lipgloss.Color("#FFB347") // Orange
	StatusPendingColor  = lipgloss.Color("#4ECDC4") // Blue

	// Status colors
	Completed   = lipgloss.Color("#95E1A3") // Green
	SyncOK      = lipgloss.Color("#95E1A3") // Green
	SyncPending = lipgloss.Color("#FFE66D") // Yellow
	SyncError   = lipgloss.Color("#FF6B6B") // Red
	Offline     = lipgloss.Color("#6C757D") // Gray

	// UI colors
	Primary   = lipgloss.Color("#4ECDC4")
	Secondary = lipgloss.Color("#6C757D")
	Surface   = lipgloss.Color("#16213e")
	Text      = lipgloss.Color("#FFFFFF")
	TextMuted = lipgloss.Color("#888888")
	Border    = lipgloss.Color("#333333")
)

// Styles
var (
	// Header
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Padding(0, 1)

	SectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Secondary)

	// Task list
	TaskListStyle = lipgloss.NewStyle().
			Padding(1, 2)

	// Task item
	TaskItemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	TaskItemSelectedStyle = lipgloss.NewStyle().
				Padding(0, 1).
				Background(Surface).
				Bold(true)

	TaskDoneStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Strikethrough(true).
			Padding(0, 1)

	// Status badges
	StatusCompletedStyle = lipgloss.NewStyle().Foreground(Completed)
	StatusPassedStyle    = lipgloss.NewStyle().Foreground(StatusPassedColor).Bold(true)
	StatusUpcomingStyle  = lipgloss.NewStyle().Foreground(StatusUpcomingColor).Bold(true)
	StatusPendingStyle   = lipgloss.NewStyle().Foreground(StatusPendingColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(Border)

	// Input modal
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(1, 2)

	ErrorStyle = lipgloss.NewStyle().Foreground(SyncError)

	// Help text
	HelpStyle = lipgloss.NewStyle().
			Foreground(TextMuted)
)

// GetStatusStyle returns the style for a given task status
func GetStatusStyle(status model.Status) lipgloss.Style {
	switch status {
	case model.StatusCompleted:
		return StatusCompletedStyle
	case model.StatusPassed:
		return StatusPassedStyle
	case model.StatusUpcoming:
		return StatusUpcomingStyle
	default:
		return StatusPendingStyle
	}
}

// FormatStatus returns a formatted status badge
func FormatStatus(status model.Status) string {
	style := GetStatusStyle(status)
	switch status {
	case model.StatusCompleted:
		return style.Render("done")
	case model.StatusPassed:
		return style.Render("passed")
	case model.StatusUpcoming:
		return style.Render("soon")
	default:
		return style.Render("pending")
	}
}
