package server

import (
	"encoding/json"
	"math"
	"net/http"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/metrics"
)

// schoolView is the JSON shape of one working-table row. Fields that can be
// absent in the source are pointers so they serialize as null rather than
// as an unencodable NaN.
type schoolView struct {
	UnitID     int64   `json:"unitid"`
	Name       string  `json:"name"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Division   int     `json:"division"`
	Conference string  `json:"conference"`
	Nickname   string  `json:"nickname,omitempty"`

	Region    *float64 `json:"region"`
	Locale    *float64 `json:"locale"`
	Control   int      `json:"control"`
	Religious *float64 `json:"religious"`

	Enrollment *float64 `json:"enrollment"`
	USNewsRank *float64 `json:"us_news_rank"`

	WinPct    float64 `json:"win_pct"`
	AcceptPct float64 `json:"accept_rate_pct"`
	SATScore  float64 `json:"sat_avg"`

	AvgTempF   *float64 `json:"avg_temp_f"`
	AvgPrecip  *float64 `json:"avg_precip_mm_day"`
	AvgCloud   *float64 `json:"avg_cloud_pct"`
}

func viewOf(s dataset.School) schoolView {
	return schoolView{
		UnitID:     s.UnitID,
		Name:       s.Name,
		City:       s.City,
		State:      s.State,
		Latitude:   s.Latitude,
		Longitude:  s.Longitude,
		Division:   s.Division,
		Conference: s.Conference,
		Nickname:   s.Nickname,
		Region:     fptr(s.Region),
		Locale:     fptr(s.Locale),
		Control:    s.Control,
		Religious:  fptr(s.Religious),
		Enrollment: fptr(s.Enrollment),
		USNewsRank: fptr(s.USNewsRank),
		WinPct:     s.WinPct,
		AcceptPct:  s.AcceptPct,
		SATScore:   s.SATScore,
		AvgTempF:   fptr(s.Climate.AvgTempF),
		AvgPrecip:  fptr(s.Climate.AvgPrecipMMDay),
		AvgCloud:   fptr(s.Climate.AvgCloudPct),
	}
}

func viewsOf(rows []dataset.School) []schoolView {
	out := make([]schoolView, 0, len(rows))
	for _, r := range rows {
		out = append(out, viewOf(r))
	}
	return out
}

// schoolDetail adds the derived program metrics to the base row.
type schoolDetail struct {
	schoolView

	TotalPlayers int                        `json:"total_players"`
	Classes      dataset.ClassCounts        `json:"class_counts"`
	TopStates    []dataset.StateCount       `json:"top_states"`
	PitcherHt    string                     `json:"avg_pitcher_height"`
	PositionHt   string                     `json:"avg_position_height"`
	Trajectory   *metrics.Trajectory        `json:"trajectory,omitempty"`
	Retention    *float64                   `json:"freshman_retention_pct,omitempty"`
	InStatePct   *float64                   `json:"in_state_pct,omitempty"`
	Depth        *metrics.PositionDepth     `json:"position_depth,omitempty"`
	ClassDist    *metrics.ClassDistribution `json:"class_distribution,omitempty"`
	Coach        *metrics.CoachSummary      `json:"coach,omitempty"`
}

// teamSeasonView is one win-history season for the team page.
type teamSeasonView struct {
	Year   int      `json:"year"`
	Label  string   `json:"label"`
	WinPct *float64 `json:"win_pct"`
}

func fptr(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
