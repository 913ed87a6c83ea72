package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUserAndProfile(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateUser()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	p, ok, err := s.GetProfile(id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, Profile{}, p)

	want := Profile{
		Name:           "Jordan Reyes",
		GraduationYear: 2027,
		Position:       "SS",
		HighSchool:     "Lincoln HS",
		AthleticMetrics: map[string]string{
			"exit_velo": "92 mph",
			"sixty":     "6.8s",
		},
		AcademicInfo: map[string]string{"gpa": "3.7"},
	}
	require.NoError(t, s.SaveProfile(id, want))

	got, ok, err := s.GetProfile(id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = s.GetProfile("no-such-user")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.SaveProfile("no-such-user", want)
	assert.Error(t, err)
}

func TestEnsureUserIdempotent(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.EnsureUser("u1"))
	require.NoError(t, s.EnsureUser("u1"))

	_, ok, err := s.GetProfile("u1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSavedSchools(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureUser("u1"))

	require.NoError(t, s.AddSavedSchool("u1", 100))
	require.NoError(t, s.AddSavedSchool("u1", 200))
	require.NoError(t, s.AddSavedSchool("u1", 100)) // duplicate, ignored

	ids, err := s.SavedSchools("u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{100, 200}, ids)

	require.NoError(t, s.RemoveSavedSchool("u1", 100))
	require.NoError(t, s.RemoveSavedSchool("u1", 999)) // never saved, not an error

	ids, err = s.SavedSchools("u1")
	require.NoError(t, err)
	assert.Equal(t, []int64{200}, ids)

	ids, err = s.SavedSchools("other")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTrackSearch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureUser("u1"))

	state := json.RawMessage(`{"divisions":[1]}`)
	other := json.RawMessage(`{"divisions":[3]}`)

	require.NoError(t, s.TrackSearch("u1", state))
	require.NoError(t, s.TrackSearch("u1", state))
	require.NoError(t, s.TrackSearch("u1", other))

	n, err := s.SearchCount("u1", state)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.SearchCount("u1", json.RawMessage(`{"never":"ran"}`))
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	recent, err := s.RecentSearches("u1", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	// The lifetime total counts every run, across distinct states.
	total, err := s.TotalSearches("u1")
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	total, err = s.TotalSearches("nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestClassifications(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.EnsureUser("u1"))

	c := Classification{UnitID: 100, Category: "Target", AthleticScore: 55, AcademicScore: 60, OverallScore: 57}
	require.NoError(t, s.SaveClassification("u1", c))

	got, ok, err := s.GetClassification("u1", 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c, got)

	// Re-saving replaces the cached row.
	c.Category = "Safety"
	c.OverallScore = 80
	require.NoError(t, s.SaveClassification("u1", c))

	all, err := s.Classifications("u1")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Safety", all[0].Category)

	_, ok, err = s.GetClassification("u1", 999)
	require.NoError(t, err)
	assert.False(t, ok)
}
