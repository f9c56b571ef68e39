package cli

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	boardBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))
	boardHelpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boardErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("161"))
)

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Interactive conflict board",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newBoardModel(app)
			_, err := tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// conflictRow keeps the conflict id next to its rendered table row.
type conflictRow struct {
	id       string
	resolved bool
	cells    table.Row
}

type boardLoadedMsg struct {
	rows []conflictRow
	err  error
}

type boardActionDoneMsg struct {
	err error
}

// boardModel lists unresolved conflicts and lets the planner re-run
// detection (r) or mark the selected conflict resolved (x).
type boardModel struct {
	app     *App
	table   table.Model
	rows    []conflictRow
	loading bool
	status  string
	err     error
}

func newBoardModel(app *App) *boardModel {
	columns := []table.Column{
		{Title: "Severity", Width: 8},
		{Title: "Type", Width: 17},
		{Title: "Todo", Width: 28},
		{Title: "Description", Width: 60},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Bold(true).BorderBottom(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))
	t.SetStyles(styles)

	return &boardModel{app: app, table: t, loading: true}
}

func (m *boardModel) Init() tea.Cmd {
	return m.load()
}

func (m *boardModel) load() tea.Cmd {
	return func() tea.Msg {
		conflicts, err := m.app.Conflicts.List(context.Background(), true)
		if err != nil {
			return boardLoadedMsg{err: err}
		}
		rows := make([]conflictRow, len(conflicts))
		for i, c := range conflicts {
			rows[i] = conflictRow{
				id:       c.Conflict.ID,
				resolved: c.Conflict.Resolved,
				cells: table.Row{
					string(c.Conflict.Severity),
					string(c.Conflict.Type),
					c.TodoTitle,
					c.Conflict.Description,
				},
			}
		}
		return boardLoadedMsg{rows: rows}
	}
}

func (m *boardModel) recheck() tea.Cmd {
	return func() tea.Msg {
		_, err := m.app.Conflicts.CheckAll(context.Background())
		return boardActionDoneMsg{err: err}
	}
}

func (m *boardModel) resolveSelected() tea.Cmd {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.rows) {
		return nil
	}
	id := m.rows[cursor].id
	return func() tea.Msg {
		return boardActionDoneMsg{err: m.app.Conflicts.Resolve(context.Background(), id, true)}
	}
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case boardLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.rows = msg.rows
			cells := make([]table.Row, len(msg.rows))
			for i, r := range msg.rows {
				cells[i] = r.cells
			}
			m.table.SetRows(cells)
			m.status = fmt.Sprintf("%d unresolved conflict(s)", len(msg.rows))
		}
		return m, nil

	case boardActionDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.loading = true
		return m, m.load()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.status = "running detection pass..."
			return m, m.recheck()
		case "x":
			return m, m.resolveSelected()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *boardModel) View() string {
	if m.loading {
		return "loading conflicts...\n"
	}
	view := boardBorderStyle.Render(m.table.View()) + "\n"
	if m.err != nil {
		view += boardErrorStyle.Render("error: "+m.err.Error()) + "\n"
	} else if m.status != "" {
		view += m.status + "\n"
	}
	view += boardHelpStyle.Render("r: re-check  x: resolve  q: quit")
	return view
}
