package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/internal/tui/colors"
	"github.com/finchlabs/labflow/internal/tui/styles"
	"github.com/finchlabs/labflow/valve"
)

// StatusBar renders the console's bottom bar: device identity on the left,
// the confirmed valve position on the right.
type StatusBar struct {
	info   labflow.Info
	status styles.StatusType
	key    valve.Position
	known  bool
	err    error
	width  int
}

func NewStatusBar(info labflow.Info) *StatusBar {
	return &StatusBar{
		info:   info,
		status: styles.StatusUnknown,
	}
}

func (sb *StatusBar) SetWidth(width int) {
	sb.width = width
}

func (sb *StatusBar) SetMoving() {
	sb.status = styles.StatusMoving
	sb.err = nil
}

func (sb *StatusBar) SetPosition(key valve.Position) {
	sb.status = styles.StatusInPosition
	sb.key = key
	sb.known = true
	sb.err = nil
}

func (sb *StatusBar) SetError(err error) {
	sb.status = styles.StatusError
	sb.err = err
}

// Position returns the last confirmed position shown in the bar.
func (sb *StatusBar) Position() (valve.Position, bool) {
	return sb.key, sb.known
}

func (sb *StatusBar) indicator() string {
	switch sb.status {
	case styles.StatusInPosition:
		return styles.StatusInPositionStyle.Render("●")
	case styles.StatusMoving:
		return styles.StatusMovingStyle.Render("○")
	default:
		return styles.StatusUnknownStyle.Render("✗")
	}
}

func (sb *StatusBar) View() string {
	width := sb.width
	if width <= 0 {
		width = 80
	}

	name := styles.TitleStyle.Render(sb.info.Name)

	portStyle := lipgloss.NewStyle().
		Foreground(colors.Subtext0).
		Padding(0, 1)
	port := portStyle.Render(fmt.Sprintf("%s %s · %s", sb.info.Vendor, sb.info.Model, sb.info.Port))

	left := lipgloss.JoinHorizontal(lipgloss.Left, name, sb.indicator(), port)

	var rightText string
	switch {
	case sb.err != nil:
		rightText = styles.ErrorStyle.Render(sb.err.Error())
	case sb.status == styles.StatusMoving:
		rightText = styles.StatusMovingStyle.Render("switching...")
	case sb.known:
		rightText = styles.StatusInPositionStyle.Render(fmt.Sprintf("position %d", int(sb.key)))
	default:
		rightText = styles.StatusUnknownStyle.Render("position unknown")
	}
	right := lipgloss.NewStyle().Padding(0, 1).Render(rightText)

	spacerWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacerWidth < 1 {
		spacerWidth = 1
	}
	spacer := lipgloss.NewStyle().Width(spacerWidth).Render("")

	bar := lipgloss.NewStyle().
		Foreground(colors.Text).
		Background(colors.Surface0).
		Width(width)
	return bar.Render(lipgloss.JoinHorizontal(lipgloss.Left, left, spacer, right))
}
