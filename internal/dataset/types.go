// Package dataset loads the flat CSV tables that back the dashboard and joins
// them into a single denormalized working table. The working table is built
// once at startup and is read-only afterwards; every consumer works on copies
// or index sets, never on the shared rows.
package dataset

import "math"

// School is one row of the working table: institution identity, athletic and
// academic descriptors, and the annual climate normals joined on unitid.
//
// Two join keys coexist and must never be conflated:
//   - UnitID is the IPEDS institution id (joins climate, saved lists, scorecard).
//   - PrevTeamID links to roster/history/coach tables. Zero means absent.
type School struct {
	UnitID     int64
	Name       string
	City       string
	State      string
	Latitude   float64
	Longitude  float64
	Division   int
	Conference string
	Nickname   string
	NCAAName   string

	Region    float64 // IPEDS OBEREG code; NaN when absent
	Locale    float64 // IPEDS locale code; NaN when absent
	Control   int     // 1 public, 2 private nonprofit, 3 private for-profit
	Religious float64 // IPEDS relaffil code; NaN when non-affiliated/unknown

	AdmitRate  float64 // 0..1, NaN when unknown
	SATAvg     float64 // NaN when unknown
	Enrollment float64 // undergraduate enrollment (ugds), NaN when unknown
	USNewsRank float64 // NaN when unranked

	Wins   float64
	Losses float64

	PrevTeamID int64

	TotalPlayers       int
	ClassCounts        ClassCounts
	AvgPitcherHeightIn float64
	AvgOtherHeightIn   float64
	TopStates          [3]StateCount

	// Derived at load time.
	WinPct    float64 // 0..100; 0 when no games on record
	AcceptPct float64 // 0..100; 0 is the "unavailable" sentinel
	SATScore  float64 // SAT average; 0 is the "unavailable" sentinel

	Climate ClimateNormal
}

// HasCoordinates reports whether the row carries a usable location.
func (s *School) HasCoordinates() bool {
	return !math.IsNaN(s.Latitude) && !math.IsNaN(s.Longitude)
}

// ClassCounts is the roster headcount by class year.
type ClassCounts struct {
	Freshmen   int
	Sophomores int
	Juniors    int
	Seniors    int
}

// Total returns the summed headcount.
func (c ClassCounts) Total() int {
	return c.Freshmen + c.Sophomores + c.Juniors + c.Seniors
}

// StateCount is a recruiting-state tally from the roster aggregates.
type StateCount struct {
	State string
	Count int
}

// ClimateNormal holds the annual climate aggregates for a school.
// All fields may be NaN when the climate table has no row for the school.
type ClimateNormal struct {
	AvgTempF       float64 // t2m
	AvgPrecipMMDay float64 // prectotcorr
	AvgCloudPct    float64 // cloud_amt
}

// MonthlyClimate is one row of the long-format monthly climate table.
// Consulted only when a filter carries a month-scoped constraint.
type MonthlyClimate struct {
	UnitID      int64
	Month       int
	TempF       float64
	PrecipMMDay float64
	CloudPct    float64
}

// RosterEntry is one player-season row. Joined to schools via PrevTeamID.
type RosterEntry struct {
	PrevTeamID int64
	UnitID     int64
	Year       int
	Player     string
	Class      string // "Fr.", "So.", "Jr.", "Sr." (whitespace-tolerant)
	Position   string
	State      string
	HeightIn   float64
}

// TeamSeason is one season of win-history for a team. YearLabel keeps the
// original split-year form ("2024-25"); normalization to a sortable year is
// the metrics layer's job.
type TeamSeason struct {
	PrevTeamID int64
	YearLabel  string
	WinPct     float64 // 0..1, NaN when the source cell was unparseable
}

// CoachSeason is one season of head-coach tenure metrics for a team.
type CoachSeason struct {
	PrevTeamID    int64
	Year          int
	HeadCoach     string
	WinsAtTeam    int
	LossesAtTeam  int
	SeasonsAtTeam int
	StatsURL      string
}
