// Package classify scores a school's fit for a recruit and buckets it as
// Safety, Target or Reach. Scoring is heuristic: a 50-point base nudged by
// how hard the roster and the admissions office are to crack.
package classify

import (
	"math"
	"strconv"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/store"
)

// Classification categories.
const (
	CategorySafety = "Safety"
	CategoryTarget = "Target"
	CategoryReach  = "Reach"
)

// FitScores is the score breakdown for one school.
type FitScores struct {
	Athletic float64 `json:"athletic_score"`
	Academic float64 `json:"academic_score"`
	Overall  float64 `json:"overall_score"`
}

// AthleticFit scores roster accessibility 0-100. A weaker or lower-division
// program means an easier roster spot and a higher score. Without metrics to
// compare against, the score stays at the neutral 50.
func AthleticFit(metrics map[string]string, school dataset.School) float64 {
	if len(metrics) == 0 {
		return 50
	}
	score := 50.0

	switch {
	case school.WinPct < 40:
		score += 20
	case school.WinPct < 60:
		score += 10
	case school.WinPct > 75:
		score -= 10
	}

	switch school.Division {
	case 3:
		score += 15
	case 2:
		score += 5
	}

	return clamp(score)
}

// AcademicFit scores admission likelihood 0-100 from the recruit's SAT
// against the school's average and the school's acceptance rate. Sentinel
// zeros on the school side skip their component.
func AcademicFit(academic map[string]string, school dataset.School) float64 {
	if len(academic) == 0 {
		return 50
	}
	score := 50.0

	userSAT := parseNumber(academic["sat_total"])
	if userSAT > 0 && school.SATScore > 0 {
		diff := userSAT - school.SATScore
		switch {
		case diff > 100:
			score += 20
		case diff > 0:
			score += 10
		case diff > -100:
			score -= 10
		default:
			score -= 20
		}
	}

	if school.AcceptPct > 0 {
		switch {
		case school.AcceptPct > 70:
			score += 15
		case school.AcceptPct > 50:
			score += 5
		case school.AcceptPct < 20:
			score -= 15
		case school.AcceptPct < 35:
			score -= 5
		}
	}

	return clamp(score)
}

// Fit combines the component scores, 60% athletic and 40% academic, each
// rounded to a tenth of a point.
func Fit(profile store.Profile, school dataset.School) FitScores {
	athletic := AthleticFit(profile.AthleticMetrics, school)
	academic := AcademicFit(profile.AcademicInfo, school)
	return FitScores{
		Athletic: round1(athletic),
		Academic: round1(academic),
		Overall:  round1(athletic*0.6 + academic*0.4),
	}
}

// AutoLabel buckets an overall score: 75+ Safety, 50+ Target, below Reach.
func AutoLabel(overall float64) string {
	switch {
	case overall >= 75:
		return CategorySafety
	case overall >= 50:
		return CategoryTarget
	default:
		return CategoryReach
	}
}

// Classify scores the school and returns a store-ready record.
func Classify(profile store.Profile, school dataset.School) store.Classification {
	scores := Fit(profile, school)
	return store.Classification{
		UnitID:        school.UnitID,
		Category:      AutoLabel(scores.Overall),
		AthleticScore: scores.Athletic,
		AcademicScore: scores.Academic,
		OverallScore:  scores.Overall,
	}
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func clamp(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
