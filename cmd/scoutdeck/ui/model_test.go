package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/store"
)

func testModel(t *testing.T) Model {
	t.Helper()
	schools := []dataset.School{
		{UnitID: 100, Name: "Coastal State University", State: "CA", Division: 1, Conference: "West Coast", WinPct: 62.5, SATScore: 1200, AcceptPct: 40},
		{UnitID: 200, Name: "Prairie College", State: "KS", Division: 3, Conference: "Plains Athletic", WinPct: 41.0},
	}
	source := dataset.NewStaticSource(dataset.NewTable(schools, nil, nil, nil, nil, nil))

	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.EnsureUser(localUserID))

	return newModel(source, st, nil, nil)
}

func TestModelInitialRows(t *testing.T) {
	m := testModel(t)
	assert.Len(t, m.rows, 2)
	assert.Len(t, m.table.Rows(), 2)
}

func TestDivisionCycle(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "Coastal State University", m.rows[0].Name)

	// D2 has no rows, D3 has one, then back to All.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Empty(t, m.rows)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "Prairie College", m.rows[0].Name)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = next.(Model)
	assert.Len(t, m.rows, 2)
}

func TestSearchFiltersRows(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m = next.(Model)
	require.True(t, m.searchFocus)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("prairie")})
	m = next.(Model)
	require.Len(t, m.rows, 1)
	assert.Equal(t, "Prairie College", m.rows[0].Name)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.False(t, m.searchFocus)
}

func TestSaveSelected(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'s'}})
	m = next.(Model)

	ids, err := m.store.SavedSchools(localUserID)
	require.NoError(t, err)
	assert.Equal(t, []int64{100}, ids)
	assert.Contains(t, m.status, "Saved")
}

func TestSentinelCell(t *testing.T) {
	assert.Equal(t, "-", sentinelCell(0, "%.0f"))
	assert.Equal(t, "1200", sentinelCell(1200, "%.0f"))
}

func TestRecommendationsUnavailable(t *testing.T) {
	m := testModel(t)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	m = next.(Model)
	assert.False(t, m.recsLoading)
	assert.Contains(t, m.status, "API_KEY")
}
