// Package metrics derives program-level metrics from the roster, win-history
// and coach tables: win trajectory, freshman retention, position depth and
// recruiting footprint. Everything here is pure computation over row slices.
package metrics

import (
	"math"
	"strconv"
	"strings"

	"scoutdeck/internal/dataset"
)

// CurrentSeasonYear is the ending year of the most recent completed season.
const CurrentSeasonYear = 2025

// trajectoryWindow is how many seasons back the trend regression looks.
const trajectoryWindow = 10

// Trend labels a program's recent win-percentage slope.
type Trend string

const (
	TrendImproving    Trend = "improving"
	TrendDeclining    Trend = "declining"
	TrendStable       Trend = "stable"
	TrendNotAvailable Trend = "not available"
)

// trendSlopeEpsilon separates a real slope from season-to-season noise.
const trendSlopeEpsilon = 0.01

// Trajectory is the fitted win-percentage trend for one program.
type Trajectory struct {
	Trend   Trend   `json:"trend"`
	Slope   float64 `json:"slope"`   // win-pct points (0..1 scale) per season
	Seasons int     `json:"seasons"` // usable seasons inside the window
}

// SeasonEndYear normalizes a season label to its ending year: the split form
// "2024-25" maps to 2025, a plain "2024" stays 2024. Returns false when the
// label cannot be parsed.
func SeasonEndYear(label string) (int, bool) {
	label = strings.TrimSpace(label)
	if i := strings.IndexByte(label, '-'); i > 0 {
		first, err := strconv.Atoi(label[:i])
		if err != nil {
			return 0, false
		}
		return first + 1, true
	}
	y, err := strconv.Atoi(label)
	if err != nil {
		return 0, false
	}
	return y, true
}

// WinTrajectory fits a least-squares line through the win percentages of the
// last ten seasons ending at CurrentSeasonYear. Fewer than two usable seasons
// in the window yields TrendNotAvailable.
func WinTrajectory(seasons []dataset.TeamSeason) Trajectory {
	type point struct{ year, pct float64 }
	var pts []point
	for _, s := range seasons {
		year, ok := SeasonEndYear(s.YearLabel)
		if !ok || math.IsNaN(s.WinPct) {
			continue
		}
		if year <= CurrentSeasonYear-trajectoryWindow || year > CurrentSeasonYear {
			continue
		}
		pts = append(pts, point{float64(year), s.WinPct})
	}
	if len(pts) < 2 {
		return Trajectory{Trend: TrendNotAvailable, Seasons: len(pts)}
	}

	var sumX, sumY, sumXY, sumXX float64
	for _, p := range pts {
		sumX += p.year
		sumY += p.pct
		sumXY += p.year * p.pct
		sumXX += p.year * p.year
	}
	n := float64(len(pts))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return Trajectory{Trend: TrendNotAvailable, Seasons: len(pts)}
	}
	slope := (n*sumXY - sumX*sumY) / denom

	trend := TrendStable
	switch {
	case slope > trendSlopeEpsilon:
		trend = TrendImproving
	case slope < -trendSlopeEpsilon:
		trend = TrendDeclining
	}
	return Trajectory{Trend: trend, Slope: slope, Seasons: len(pts)}
}
