package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/finchlabs/labflow/internal/tui/colors"
)

var (
	// Header styles
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Status styles
	StatusInPositionStyle = lipgloss.NewStyle().
				Foreground(colors.Green).
				Bold(true)

	StatusUnknownStyle = lipgloss.NewStyle().
				Foreground(colors.Red).
				Bold(true)

	StatusMovingStyle = lipgloss.NewStyle().
				Foreground(colors.Yellow).
				Bold(true)

	// Content area styles
	ContentBorderStyle = lipgloss.NewStyle().
				BorderTop(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(colors.Surface1)

	TableBaseStyle = lipgloss.NewStyle().
			BorderForeground(colors.Surface2).
			Foreground(colors.Text)

	// Error styles
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	// Info styles
	InfoStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)
)

type StatusType int

const (
	StatusInPosition StatusType = iota
	StatusUnknown
	StatusMoving
	StatusError
)

func GetStatusStyle(status StatusType) lipgloss.Style {
	switch status {
	case StatusInPosition:
		return StatusInPositionStyle
	case StatusMoving:
		return StatusMovingStyle
	case StatusUnknown, StatusError:
		return StatusUnknownStyle
	default:
		return StatusUnknownStyle
	}
}
