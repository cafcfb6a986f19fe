package models

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"

	"github.com/finchlabs/labflow"
	"github.com/finchlabs/labflow/internal/tui/components"
	"github.com/finchlabs/labflow/internal/tui/keys"
	"github.com/finchlabs/labflow/internal/tui/styles"
	"github.com/finchlabs/labflow/valve"
)

const (
	columnKeyCurrent     = "current"
	columnKeyPosition    = "position"
	columnKeyConnections = "connections"

	hardwareTimeout = 5 * time.Second
)

type readResultMsg struct {
	key valve.Position
	err error
}

type switchResultMsg struct {
	key valve.Position
	err error
}

// ConsoleModel is the interactive console for one valve: a table of every
// switching position with the confirmed one marked, enter to switch.
type ConsoleModel struct {
	dev    labflow.Device
	keys   keys.ConsoleKeys
	help   help.Model
	table  table.Model
	status *components.StatusBar
	busy   bool
	width  int
}

func NewConsole(dev labflow.Device) ConsoleModel {
	m := ConsoleModel{
		dev:    dev,
		keys:   keys.NewConsoleKeys(),
		help:   help.New(),
		status: components.NewStatusBar(dev.Info()),
	}

	m.table = table.New([]table.Column{
		table.NewColumn(columnKeyCurrent, "", 3),
		table.NewColumn(columnKeyPosition, "Position", 10),
		table.NewFlexColumn(columnKeyConnections, "Connections", 1),
	}).
		WithRows(m.rows(valve.PositionUnknown)).
		WithBaseStyle(styles.TableBaseStyle).
		Focused(true)

	return m
}

func (m ConsoleModel) rows(current valve.Position) []table.Row {
	states := m.dev.Controller().Graph().States()
	rows := make([]table.Row, len(states))
	for i, cs := range states {
		marker := ""
		if valve.Position(i) == current {
			marker = styles.StatusInPositionStyle.Render("●")
		}
		rows[i] = table.NewRow(table.RowData{
			columnKeyCurrent:     marker,
			columnKeyPosition:    i,
			columnKeyConnections: cs.String(),
		})
	}
	return rows
}

func (m ConsoleModel) readPosition() tea.Cmd {
	ctrl := m.dev.Controller()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hardwareTimeout)
		defer cancel()
		if _, err := ctrl.Position(ctx); err != nil {
			return readResultMsg{err: err}
		}
		key, _ := ctrl.Current()
		return readResultMsg{key: key}
	}
}

func (m ConsoleModel) switchTo(key valve.Position) tea.Cmd {
	ctrl := m.dev.Controller()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), hardwareTimeout)
		defer cancel()
		if err := ctrl.SwitchTo(ctx, key); err != nil {
			return switchResultMsg{key: key, err: err}
		}
		return switchResultMsg{key: key}
	}
}

func (m ConsoleModel) Init() tea.Cmd {
	return m.readPosition()
}

func (m ConsoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.table = m.table.WithTargetWidth(msg.Width)
		m.status.SetWidth(msg.Width)
		m.help.Width = msg.Width
		return m, nil

	case readResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status.SetError(msg.err)
		} else {
			m.status.SetPosition(msg.key)
			m.table = m.table.WithRows(m.rows(msg.key))
		}
		return m, nil

	case switchResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status.SetError(msg.err)
			return m, nil
		}
		m.status.SetPosition(msg.key)
		m.table = m.table.WithRows(m.rows(msg.key))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			if m.busy {
				return m, nil
			}
			m.busy = true
			return m, m.readPosition()
		case key.Matches(msg, m.keys.Switch):
			if m.busy {
				return m, nil
			}
			key, ok := m.highlightedKey()
			if !ok {
				return m, nil
			}
			m.busy = true
			m.status.SetMoving()
			return m, m.switchTo(key)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ConsoleModel) highlightedKey() (valve.Position, bool) {
	row := m.table.HighlightedRow()
	key, ok := row.Data[columnKeyPosition].(int)
	if !ok {
		return valve.PositionUnknown, false
	}
	return valve.Position(key), true
}

func (m ConsoleModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.table.View(),
		m.status.View(),
		m.help.View(m.keys),
	)
}
