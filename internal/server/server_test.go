package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/geo"
	"scoutdeck/internal/llm"
	"scoutdeck/internal/recommend"
	"scoutdeck/internal/store"
)

type stubLLM struct{ reply string }

func (s *stubLLM) Complete(_ context.Context, _ llm.Request) (string, error) {
	return s.reply, nil
}

func testServer(t *testing.T, client llm.Client) *Server {
	t.Helper()
	nan := math.NaN()

	schools := []dataset.School{
		{
			UnitID: 100, Name: "Coastal State University", City: "Long Beach", State: "CA",
			Latitude: 34.0, Longitude: -118.2, Division: 1, Conference: "West Coast",
			Control: 1, Region: 8, Locale: 11, Religious: nan,
			Enrollment: 25000, USNewsRank: 80,
			WinPct: 62.5, AcceptPct: 40, SATScore: 1200,
			PrevTeamID:   9001,
			TotalPlayers: 35,
		},
		{
			UnitID: 200, Name: "Prairie College", City: "Hays", State: "KS",
			Latitude: 38.5, Longitude: -98.0, Division: 3, Conference: "Plains Athletic",
			Control: 2, Region: 4, Locale: 32, Religious: 30,
			Enrollment: 800, USNewsRank: nan,
			WinPct: 41.0, AcceptPct: 0, SATScore: 0,
		},
	}
	history := []dataset.TeamSeason{
		{PrevTeamID: 9001, YearLabel: "2023-24", WinPct: 0.55},
		{PrevTeamID: 9001, YearLabel: "2024-25", WinPct: 0.62},
		{PrevTeamID: 9001, YearLabel: "bad", WinPct: 0.50},
	}
	roster := []dataset.RosterEntry{
		{PrevTeamID: 9001, Year: 2024, Player: "Alvarez", Class: "Fr."},
		{PrevTeamID: 9001, Year: 2025, Player: "Alvarez", Class: "So."},
	}
	full := []dataset.RosterEntry{
		{PrevTeamID: 9001, Year: 2025, Player: "Alvarez", Class: "So.", Position: "SS", State: "CA"},
		{PrevTeamID: 9001, Year: 2025, Player: "Brown", Class: "Fr.", Position: "RHP", State: "TX"},
	}
	coaches := []dataset.CoachSeason{
		{PrevTeamID: 9001, Year: 2026, HeadCoach: "Pat Rivers", WinsAtTeam: 120, LossesAtTeam: 80, SeasonsAtTeam: 5},
	}
	tbl := dataset.NewTable(schools, nil, roster, full, history, coaches)
	source := dataset.NewStaticSource(tbl)

	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	var engine *recommend.Engine
	if client != nil {
		engine = recommend.NewEngine(client, nil)
	}
	geocoder := geo.NewGeocoder(geo.GeocoderConfig{}, nil)

	return New(source, st, engine, geocoder, nil)
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	h := testServer(t, nil).Router()
	rec := doJSON(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(2), body["schools"])
}

func TestOptions(t *testing.T) {
	h := testServer(t, nil).Router()
	rec := doJSON(t, h, http.MethodGet, "/api/options", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Divisions   []map[string]any `json:"divisions"`
		Conferences []map[string]any `json:"conferences"`
		Religious   []map[string]any `json:"religious"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Divisions, 3)
	assert.Len(t, body.Conferences, 2)
	assert.Equal(t, "Non-affiliated", body.Religious[0]["label"])
}

func TestSearchFiltersAndNulls(t *testing.T) {
	h := testServer(t, nil).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/schools/search", map[string]any{
		"state": map[string]any{"divisions": []int{3}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int              `json:"count"`
		Schools []map[string]any `json:"schools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Prairie College", body.Schools[0]["name"])
	// NaN source fields serialize as null, not as an encoding error.
	assert.Nil(t, body.Schools[0]["us_news_rank"])
}

func TestSearchTracksHistory(t *testing.T) {
	srv := testServer(t, nil)
	h := srv.Router()

	payload := map[string]any{
		"user_id": "u1",
		"state":   map[string]any{"divisions": []int{1}},
	}
	doJSON(t, h, http.MethodPost, "/api/schools/search", payload)
	rec := doJSON(t, h, http.MethodPost, "/api/schools/search", payload)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2.0, body["times_run"])

	recent, err := srv.store.RecentSearches("u1", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	// The searches endpoint reports the lifetime total alongside the log.
	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/searches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2.0, body["total"])
	assert.Len(t, body["recent"], 1)
}

func TestSchoolDetail(t *testing.T) {
	h := testServer(t, nil).Router()
	rec := doJSON(t, h, http.MethodGet, "/api/schools/100", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Coastal State University", body["name"])
	require.NotNil(t, body["trajectory"])
	require.NotNil(t, body["coach"])
	coach := body["coach"].(map[string]any)
	assert.Equal(t, "Pat Rivers", coach["name"])

	rec = doJSON(t, h, http.MethodGet, "/api/schools/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/schools/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTeamDetail(t *testing.T) {
	h := testServer(t, nil).Router()
	rec := doJSON(t, h, http.MethodGet, "/api/schools/100/team", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Seasons []map[string]any `json:"seasons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	// The unparseable season label is dropped.
	assert.Len(t, body.Seasons, 2)

	// No team history linked.
	rec = doJSON(t, h, http.MethodGet, "/api/schools/200/team", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSavedSchoolsFlow(t *testing.T) {
	h := testServer(t, nil).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/users/u1/saved", map[string]any{"unitid": 200})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/users/u1/saved", map[string]any{"unitid": 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/saved", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Count   int              `json:"count"`
		Schools []map[string]any `json:"schools"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Prairie College", body.Schools[0]["name"])

	rec = doJSON(t, h, http.MethodDelete, "/api/users/u1/saved/200", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/saved", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 0, body.Count)
}

func TestProfileFlow(t *testing.T) {
	h := testServer(t, nil).Router()

	rec := doJSON(t, h, http.MethodGet, "/api/users/u1/profile", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	profile := map[string]any{"name": "Jordan Reyes", "graduation_year": 2027, "position": "SS"}
	rec = doJSON(t, h, http.MethodPut, "/api/users/u1/profile", profile)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got store.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Jordan Reyes", got.Name)
	assert.Equal(t, 2027, got.GraduationYear)
}

func TestClassifyEndpoint(t *testing.T) {
	h := testServer(t, nil).Router()

	profile := map[string]any{
		"athletic_metrics": map[string]string{"exit_velo": "90"},
		"academic_info":    map[string]string{"sat_total": "1250"},
	}
	rec := doJSON(t, h, http.MethodPut, "/api/users/u1/profile", profile)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/users/u1/classifications/200", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var c store.Classification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, int64(200), c.UnitID)
	assert.NotEmpty(t, c.Category)

	rec = doJSON(t, h, http.MethodGet, "/api/users/u1/classifications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestRecommendationsEndpoint(t *testing.T) {
	stub := &stubLLM{reply: `[
		{"school_name": "Coastal State University", "unitid": 100,
		 "reasons": ["Strong conference"], "opportunity": "Pitching depth is thin",
		 "classification": "Target"}
	]`}
	h := testServer(t, stub).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/recommendations", map[string]any{
		"state": map[string]any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Recommendations []map[string]any `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Recommendations, 1)
	assert.Equal(t, "Target", body.Recommendations[0]["classification"])
}

func TestRecommendationsUnconfigured(t *testing.T) {
	h := testServer(t, nil).Router()
	rec := doJSON(t, h, http.MethodPost, "/api/recommendations", map[string]any{"state": map[string]any{}})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEmailEndpoint(t *testing.T) {
	stub := &stubLLM{reply: `{"subject": "2027 SS - Jordan Reyes", "body": "Dear Coach,"}`}
	h := testServer(t, stub).Router()

	rec := doJSON(t, h, http.MethodPost, "/api/emails", map[string]any{
		"unitid": 100,
		"kind":   "introduction",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var email recommend.Email
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &email))
	assert.Equal(t, "2027 SS - Jordan Reyes", email.Subject)

	rec = doJSON(t, h, http.MethodPost, "/api/emails", map[string]any{"unitid": 999})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := testServer(t, nil).Router()
	doJSON(t, h, http.MethodGet, "/healthz", nil)

	rec := doJSON(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "scoutdeck_http_requests_total")
}
