package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/filter"
	"scoutdeck/internal/metrics"
	"scoutdeck/internal/recommend"
	"scoutdeck/internal/store"
)

// localUserID keys the terminal user's saved list and profile in the store.
const localUserID = "local"

// viewMode selects the main pane.
type viewMode int

const (
	modeList viewMode = iota
	modeDetail
	modeRecommendations
)

// divisionFilter cycles All, D1, D2, D3 with the tab key.
type divisionFilter int

// Model is the explorer's bubbletea model.
type Model struct {
	source *dataset.Source
	store  *store.Store
	engine *recommend.Engine
	logger *zap.Logger

	width  int
	height int
	mode   viewMode

	table       table.Model
	search      textinput.Model
	searchFocus bool
	division    divisionFilter

	rows     []dataset.School
	selected *dataset.School
	detail   string

	recsLoading bool
	recs        string

	status string
	styles Styles
}

// Run starts the terminal explorer. engine may be nil; the AI pane then
// explains how to enable it.
func Run(source *dataset.Source, st *store.Store, engine *recommend.Engine, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := st.EnsureUser(localUserID); err != nil {
		return err
	}

	m := newModel(source, st, engine, logger)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func newModel(source *dataset.Source, st *store.Store, engine *recommend.Engine, logger *zap.Logger) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "School", Width: 34},
			{Title: "St", Width: 3},
			{Title: "Div", Width: 4},
			{Title: "Conference", Width: 24},
			{Title: "Win%", Width: 6},
			{Title: "SAT", Width: 5},
			{Title: "Accept%", Width: 8},
		}),
		table.WithFocused(true),
		table.WithHeight(18),
	)

	search := textinput.New()
	search.Placeholder = "Search school name..."
	search.CharLimit = 60
	search.Width = 40

	m := Model{
		source: source,
		store:  st,
		engine: engine,
		logger: logger,
		table:  t,
		search: search,
		styles: DefaultStyles(),
	}
	m.applyFilter()
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// recsMsg carries an async recommendation result.
type recsMsg struct {
	markdown string
	err      error
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width - 4)
		m.table.SetHeight(msg.Height - 8)
		return m, nil

	case recsMsg:
		m.recsLoading = false
		if msg.err != nil {
			m.recs = m.styles.Error.Render("Recommendations failed: " + msg.err.Error())
		} else {
			m.recs = msg.markdown
		}
		m.mode = modeRecommendations
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if !m.searchFocus {
				return m, tea.Quit
			}
		case "/":
			if m.mode == modeList && !m.searchFocus {
				m.searchFocus = true
				m.search.Focus()
				return m, nil
			}
		case "esc":
			if m.searchFocus {
				m.searchFocus = false
				m.search.Blur()
				return m, nil
			}
			if m.mode != modeList {
				m.mode = modeList
				return m, nil
			}
		case "enter":
			if m.searchFocus {
				m.searchFocus = false
				m.search.Blur()
				return m, nil
			}
			if m.mode == modeList {
				m.openDetail()
				return m, nil
			}
		case "tab":
			if m.mode == modeList && !m.searchFocus {
				m.division = (m.division + 1) % 4
				m.applyFilter()
				return m, nil
			}
		case "s":
			if m.mode != modeList || m.searchFocus {
				break
			}
			m.saveSelected()
			return m, nil
		case "r":
			if m.searchFocus || m.recsLoading {
				break
			}
			if m.engine == nil || !m.engine.Available() {
				m.status = "Set OPENAI_API_KEY or GEMINI_API_KEY to enable AI recommendations"
				return m, nil
			}
			m.recsLoading = true
			m.status = "Generating recommendations..."
			return m, m.fetchRecommendations()
		}
	}

	if m.searchFocus {
		m.search, cmd = m.search.Update(msg)
		cmds = append(cmds, cmd)
		m.applyFilter()
	} else if m.mode == modeList {
		m.table, cmd = m.table.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// currentState builds the filter state from the UI controls.
func (m *Model) currentState() filter.State {
	st := filter.State{NameSearch: m.search.Value()}
	if m.division > 0 {
		st.Divisions = []int{int(m.division)}
	}
	return st
}

func (m *Model) applyFilter() {
	m.rows = filter.Evaluate(m.source.Table(), m.currentState())

	rows := make([]table.Row, 0, len(m.rows))
	for _, s := range m.rows {
		rows = append(rows, table.Row{
			s.Name,
			s.State,
			fmt.Sprintf("D%d", s.Division),
			s.Conference,
			fmt.Sprintf("%.1f", s.WinPct),
			sentinelCell(s.SATScore, "%.0f"),
			sentinelCell(s.AcceptPct, "%.0f"),
		})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
}

func sentinelCell(v float64, format string) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

func (m *Model) selectedSchool() (dataset.School, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return dataset.School{}, false
	}
	return m.rows[i], true
}

func (m *Model) saveSelected() {
	s, ok := m.selectedSchool()
	if !ok {
		return
	}
	if err := m.store.AddSavedSchool(localUserID, s.UnitID); err != nil {
		m.status = "Failed to save " + s.Name
		m.logger.Warn("failed to save school", zap.Error(err))
		return
	}
	m.status = "Saved " + s.Name
}

func (m *Model) openDetail() {
	s, ok := m.selectedSchool()
	if !ok {
		return
	}
	m.selected = &s
	m.detail = m.renderDetail(s)
	m.mode = modeDetail
}

// renderDetail builds the school page as markdown and renders it through
// glamour. Rendering failures fall back to the raw markdown.
func (m *Model) renderDetail(s dataset.School) string {
	t := m.source.Table()
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	fmt.Fprintf(&b, "%s, %s | Division %d | %s\n\n", s.City, s.State, s.Division, s.Conference)
	fmt.Fprintf(&b, "- Win pct: %.1f%%\n", s.WinPct)
	if s.SATScore > 0 {
		fmt.Fprintf(&b, "- SAT average: %.0f\n", s.SATScore)
	}
	if s.AcceptPct > 0 {
		fmt.Fprintf(&b, "- Acceptance rate: %.0f%%\n", s.AcceptPct)
	}
	if s.Enrollment == s.Enrollment {
		fmt.Fprintf(&b, "- Undergrad enrollment: %.0f\n", s.Enrollment)
	}
	if s.Climate.AvgTempF == s.Climate.AvgTempF {
		fmt.Fprintf(&b, "- Avg temperature: %.1f F\n", s.Climate.AvgTempF)
	}

	if s.PrevTeamID != 0 {
		b.WriteString("\n## Program\n\n")
		traj := metrics.WinTrajectory(t.TeamSeasons(s.PrevTeamID))
		fmt.Fprintf(&b, "- Trajectory: %s\n", traj.Trend)
		if rate, ok := metrics.FreshmanRetention(t.TeamRoster(s.PrevTeamID)); ok {
			fmt.Fprintf(&b, "- Freshman retention: %.0f%%\n", rate)
		}
		full := t.TeamRosterFull(s.PrevTeamID)
		depth, _ := metrics.CurrentDepth(full)
		fmt.Fprintf(&b, "- Roster depth: %d P / %d C / %d IF / %d OF\n",
			depth.Pitchers, depth.Catchers, depth.Infielders, depth.Outfielders)
		if share, ok := metrics.InStateShare(full, s.State); ok {
			fmt.Fprintf(&b, "- In-state players: %.0f%%\n", share)
		}
		if coach, ok := metrics.CurrentCoach(t, s.PrevTeamID); ok {
			fmt.Fprintf(&b, "- Head coach: %s (%d-%d over %d seasons)\n",
				coach.Name, coach.Wins, coach.Losses, coach.Seasons)
		}
	}

	md := b.String()
	rendered, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return rendered
}

// fetchRecommendations asks the engine for picks off the current filter.
func (m *Model) fetchRecommendations() tea.Cmd {
	state := m.currentState()
	rows := make([]dataset.School, len(m.rows))
	copy(rows, m.rows)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		in := recommend.Input{Schools: rows}
		if stateJSON, err := json.Marshal(state); err == nil {
			in.FilterState = stateJSON
		}
		if saved, err := m.store.SavedSchools(localUserID); err == nil {
			in.SavedCount = len(saved)
		}
		if profile, ok, err := m.store.GetProfile(localUserID); err == nil && ok {
			in.Profile = &profile
		}

		recs, err := m.engine.Recommend(ctx, in)
		if err != nil {
			return recsMsg{err: err}
		}

		var b strings.Builder
		b.WriteString("# Recommended Programs\n\n")
		for i, r := range recs {
			fmt.Fprintf(&b, "## %d. %s (%s)\n\n", i+1, r.SchoolName, r.Classification)
			for _, reason := range r.Reasons {
				fmt.Fprintf(&b, "- %s\n", reason)
			}
			if r.Opportunity != "" {
				fmt.Fprintf(&b, "\n*%s*\n\n", r.Opportunity)
			}
		}
		md := b.String()
		if rendered, err := glamour.Render(md, "dark"); err == nil {
			md = rendered
		}
		return recsMsg{markdown: md}
	}
}

// View renders the explorer.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" scoutdeck ") + "\n\n")

	switch m.mode {
	case modeDetail:
		sb.WriteString(m.detail)
		sb.WriteString("\n" + m.styles.Footer.Render("[Esc] Back  [q] Quit"))
	case modeRecommendations:
		sb.WriteString(m.recs)
		sb.WriteString("\n" + m.styles.Footer.Render("[Esc] Back  [q] Quit"))
	default:
		sb.WriteString(m.renderFilterBar())
		sb.WriteString("\n\n")
		sb.WriteString(m.styles.Content.Render(m.table.View()))
		fmt.Fprintf(&sb, "\n%s\n", m.styles.Muted.Render(fmt.Sprintf("%d programs", len(m.rows))))
		if m.status != "" {
			sb.WriteString(m.styles.Success.Render(m.status) + "\n")
		}
		sb.WriteString(m.styles.Footer.Render("[/] Search  [Tab] Division  [Enter] Detail  [s] Save  [r] AI picks  [q] Quit"))
	}

	return sb.String()
}

func (m Model) renderFilterBar() string {
	var sb strings.Builder

	style := m.styles.Filter
	if m.searchFocus {
		style = m.styles.Focused
	}
	sb.WriteString(style.Render(m.search.View()))
	sb.WriteString("  ")

	labels := []string{"All", "D1", "D2", "D3"}
	for i, label := range labels {
		if divisionFilter(i) == m.division {
			sb.WriteString(m.styles.Badge.Render(label))
		} else {
			sb.WriteString(m.styles.Muted.Render(label))
		}
		sb.WriteString("  ")
	}
	return sb.String()
}
