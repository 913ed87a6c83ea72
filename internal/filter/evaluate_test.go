package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/geo"
)

func testTable(t *testing.T) *dataset.Table {
	t.Helper()
	nan := math.NaN()
	schools := []dataset.School{
		{
			UnitID: 100, Name: "Coastal State University", State: "CA",
			Latitude: 34.0, Longitude: -118.2,
			Division: 1, Conference: "West Coast", Control: 1,
			Region: 8, Locale: 11, Religious: nan,
			AdmitRate: 0.40, SATAvg: 1200, Enrollment: 25000, USNewsRank: 80,
			WinPct: 62.5, AcceptPct: 40, SATScore: 1200,
			Climate: dataset.ClimateNormal{AvgTempF: 65, AvgPrecipMMDay: 1.0, AvgCloudPct: 35},
		},
		{
			UnitID: 200, Name: "Prairie College", State: "KS",
			Latitude: 38.5, Longitude: -98.0,
			Division: 3, Conference: "Plains Athletic", Control: 2,
			Region: 4, Locale: 32, Religious: 30,
			AdmitRate: nan, SATAvg: nan, Enrollment: 800, USNewsRank: nan,
			WinPct: 41.0, AcceptPct: 0, SATScore: 0,
			Climate: dataset.ClimateNormal{AvgTempF: 55, AvgPrecipMMDay: 2.0, AvgCloudPct: 50},
		},
		{
			UnitID: 300, Name: "Northern Tech", State: "MN",
			Latitude: 46.8, Longitude: -92.1,
			Division: 2, Conference: "Great North", Control: 1,
			Region: 4, Locale: 13, Religious: nan,
			AdmitRate: 0.70, SATAvg: 1050, Enrollment: 6000, USNewsRank: nan,
			WinPct: 55.0, AcceptPct: 70, SATScore: 1050,
			Climate: dataset.ClimateNormal{AvgTempF: nan, AvgPrecipMMDay: nan, AvgCloudPct: nan},
		},
	}
	monthly := []dataset.MonthlyClimate{
		{UnitID: 100, Month: 2, TempF: 58, PrecipMMDay: 2.5, CloudPct: 40},
		{UnitID: 200, Month: 2, TempF: 34, PrecipMMDay: 0.8, CloudPct: 55},
		{UnitID: 300, Month: 2, TempF: nan, PrecipMMDay: 1.0, CloudPct: 60},
	}
	return dataset.NewTable(schools, monthly, nil, nil, nil, nil)
}

func unitIDs(rows []dataset.School) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UnitID)
	}
	return ids
}

func TestEvaluateZeroState(t *testing.T) {
	tbl := testTable(t)
	rows := Evaluate(tbl, State{})
	assert.Equal(t, []int64{100, 200, 300}, unitIDs(rows))
}

func TestEvaluateCategories(t *testing.T) {
	tbl := testTable(t)

	tests := []struct {
		name string
		st   State
		want []int64
	}{
		{"division", State{Divisions: []int{1, 2}}, []int64{100, 300}},
		{"conference", State{Conferences: []string{"Plains Athletic"}}, []int64{200}},
		{"region", State{Regions: []float64{4}}, []int64{200, 300}},
		{"locale", State{Locales: []float64{11, 13}}, []int64{100, 300}},
		{"control", State{Controls: []int{2}}, []int64{200}},
		{"religious code", State{Religious: []float64{30}}, []int64{200}},
		{"non-affiliated admits missing", State{Religious: []float64{NonAffiliated}}, []int64{100, 300}},
		{"enrollment bands or-combine", State{Enrollment: []string{"extra-small", "extra-large"}}, []int64{100, 200}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, unitIDs(Evaluate(tbl, tc.st)))
		})
	}
}

func TestEvaluateCombinedCategories(t *testing.T) {
	tbl := testTable(t)

	// Division alone keeps {100, 200}, region alone keeps {200, 300};
	// together they intersect to {200}.
	assert.Equal(t, []int64{200}, unitIDs(Evaluate(tbl, State{
		Divisions: []int{1, 3},
		Regions:   []float64{4},
	})))
	assert.Equal(t, []int64{100}, unitIDs(Evaluate(tbl, State{
		Divisions: []int{1},
		Regions:   []float64{8},
	})))
	assert.Empty(t, unitIDs(Evaluate(tbl, State{
		Divisions: []int{3},
		Regions:   []float64{8},
	})))
}

func TestEvaluateSentinelRanges(t *testing.T) {
	tbl := testTable(t)

	// Prairie's accept rate is unavailable (sentinel 0); the default policy
	// keeps it even though 0 is outside the band.
	rows := Evaluate(tbl, State{AcceptRate: &Range{Min: 30, Max: 60}})
	assert.Equal(t, []int64{100, 200}, unitIDs(rows))

	rows = Evaluate(tbl, State{AcceptRate: &Range{Min: 30, Max: 60}, MissingData: ExcludeMissing})
	assert.Equal(t, []int64{100}, unitIDs(rows))

	rows = Evaluate(tbl, State{SAT: &Range{Min: 1100, Max: 1600}})
	assert.Equal(t, []int64{100, 200}, unitIDs(rows))
}

func TestEvaluateWinPct(t *testing.T) {
	tbl := testTable(t)
	rows := Evaluate(tbl, State{WinPct: &Range{Min: 50, Max: 100}})
	assert.Equal(t, []int64{100, 300}, unitIDs(rows))
}

func TestEvaluateAnnualClimate(t *testing.T) {
	tbl := testTable(t)

	// Northern Tech has no climate normals; NaN passes under the default
	// policy and drops under ExcludeMissing.
	rows := Evaluate(tbl, State{Temp: &Range{Min: 60, Max: 80}})
	assert.Equal(t, []int64{100, 300}, unitIDs(rows))

	rows = Evaluate(tbl, State{Temp: &Range{Min: 60, Max: 80}, MissingData: ExcludeMissing})
	assert.Equal(t, []int64{100}, unitIDs(rows))
}

func TestEvaluateMonthlyClimate(t *testing.T) {
	tbl := testTable(t)

	// February temps: Coastal 58, Prairie 34, Northern NaN (passes its band).
	rows := Evaluate(tbl, State{Month: 2, Temp: &Range{Min: 50, Max: 90}})
	assert.Equal(t, []int64{100, 300}, unitIDs(rows))

	// Two bands intersect within the month.
	rows = Evaluate(tbl, State{
		Month:  2,
		Temp:   &Range{Min: 50, Max: 90},
		Precip: &Range{Min: 2, Max: 5},
	})
	assert.Equal(t, []int64{100}, unitIDs(rows))

	// A month selection with no climate bands constrains nothing.
	rows = Evaluate(tbl, State{Month: 2})
	assert.Equal(t, []int64{100, 200, 300}, unitIDs(rows))
}

func TestEvaluateRankedOnly(t *testing.T) {
	tbl := testTable(t)
	rows := Evaluate(tbl, State{RankedOnly: true})
	assert.Equal(t, []int64{100}, unitIDs(rows))
}

func TestEvaluateDistance(t *testing.T) {
	tbl := testTable(t)
	home := &geo.Point{Lat: 39.0, Lon: -98.5} // central Kansas

	rows := Evaluate(tbl, State{Home: home, MaxDistanceMiles: 300})
	assert.Equal(t, []int64{200}, unitIDs(rows))

	// At or above the cap the distance filter is inert.
	rows = Evaluate(tbl, State{Home: home, MaxDistanceMiles: MaxDistanceCap})
	assert.Len(t, rows, 3)

	// No home location means no distance constraint regardless of radius.
	rows = Evaluate(tbl, State{MaxDistanceMiles: 100})
	assert.Len(t, rows, 3)
}

func TestEvaluateNameSearch(t *testing.T) {
	tbl := testTable(t)
	rows := Evaluate(tbl, State{NameSearch: "  NORTH  "})
	require.Len(t, rows, 1)
	assert.Equal(t, int64(300), rows[0].UnitID)
}

func TestEvaluateReturnsCopies(t *testing.T) {
	tbl := testTable(t)
	rows := Evaluate(tbl, State{})
	require.NotEmpty(t, rows)
	rows[0].Name = "mutated"
	again := Evaluate(tbl, State{})
	assert.Equal(t, "Coastal State University", again[0].Name)
}

func TestSearchOptions(t *testing.T) {
	opts := []Option{
		{Label: "Roman Catholic", Value: 30.0},
		{Label: "Southern Baptist", Value: 75.0},
		{Label: "Presbyterian", Value: 103.0},
	}
	got := SearchOptions(opts, "bapt")
	require.Len(t, got, 1)
	assert.Equal(t, "Southern Baptist", got[0].Label)

	assert.Equal(t, opts, SearchOptions(opts, ""))
	assert.Empty(t, SearchOptions(opts, "zzz"))
}
