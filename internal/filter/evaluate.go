package filter

import (
	"math"
	"strings"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/geo"
)

// Evaluate applies the filter state to the working table and returns copies
// of the surviving rows, in table order. Category filters with no selection
// are skipped entirely, so the zero State returns every school.
func Evaluate(t *dataset.Table, st State) []dataset.School {
	divisions := intSet(st.Divisions)
	conferences := stringSet(st.Conferences)
	regions := floatSet(st.Regions)
	locales := floatSet(st.Locales)
	controls := intSet(st.Controls)
	religious := floatSet(st.Religious)

	var bands []EnrollmentCategory
	for _, key := range st.Enrollment {
		if c, ok := enrollmentCategory(key); ok {
			bands = append(bands, c)
		}
	}

	monthly := st.Month >= 1 && st.Month <= 12
	var monthPass map[int64]bool
	if monthly && (st.Temp != nil || st.Precip != nil || st.Cloud != nil) {
		monthPass = monthlyPassSet(t, st)
	}

	nameNeedle := strings.ToLower(strings.TrimSpace(st.NameSearch))
	keepMissing := st.keepMissing()

	var out []dataset.School
	for _, s := range t.Schools {
		if len(divisions) > 0 && !divisions[s.Division] {
			continue
		}
		if len(conferences) > 0 && !conferences[s.Conference] {
			continue
		}
		if len(regions) > 0 && !matchFloat(regions, s.Region, false) {
			continue
		}
		if len(locales) > 0 && !matchFloat(locales, s.Locale, false) {
			continue
		}
		if len(controls) > 0 && !controls[s.Control] {
			continue
		}
		// Selecting the non-affiliated code also admits rows where the
		// affiliation field is absent.
		if len(religious) > 0 && !matchFloat(religious, s.Religious, religious[NonAffiliated]) {
			continue
		}
		if len(bands) > 0 && !inAnyBand(bands, s.Enrollment, keepMissing) {
			continue
		}

		if st.WinPct != nil && !st.WinPct.Contains(s.WinPct) {
			continue
		}
		if !sentinelRangeOK(st.AcceptRate, s.AcceptPct, keepMissing) {
			continue
		}
		if !sentinelRangeOK(st.SAT, s.SATScore, keepMissing) {
			continue
		}

		if monthly {
			if monthPass != nil && !monthPass[s.UnitID] {
				continue
			}
		} else {
			if !climateRangeOK(st.Temp, s.Climate.AvgTempF, keepMissing) {
				continue
			}
			if !climateRangeOK(st.Precip, s.Climate.AvgPrecipMMDay, keepMissing) {
				continue
			}
			if !climateRangeOK(st.Cloud, s.Climate.AvgCloudPct, keepMissing) {
				continue
			}
		}

		if st.RankedOnly && math.IsNaN(s.USNewsRank) {
			continue
		}

		if st.DistanceActive() {
			if !s.HasCoordinates() {
				continue
			}
			d := geo.Miles(*st.Home, geo.Point{Lat: s.Latitude, Lon: s.Longitude})
			if d > st.MaxDistanceMiles {
				continue
			}
		}

		if nameNeedle != "" && !strings.Contains(strings.ToLower(s.Name), nameNeedle) {
			continue
		}

		out = append(out, s)
	}
	return out
}

// monthlyPassSet computes the unitids whose rows for the selected month fall
// inside every active climate band. A NaN value passes its band; a school
// with no row for the month fails.
func monthlyPassSet(t *dataset.Table, st State) map[int64]bool {
	pass := make(map[int64]bool)
	for _, m := range t.MonthlyForMonth(st.Month) {
		ok := bandOK(st.Temp, m.TempF) &&
			bandOK(st.Precip, m.PrecipMMDay) &&
			bandOK(st.Cloud, m.CloudPct)
		if ok {
			pass[m.UnitID] = true
		}
	}
	return pass
}

func bandOK(r *Range, v float64) bool {
	if r == nil || math.IsNaN(v) {
		return true
	}
	return r.Contains(v)
}

// sentinelRangeOK checks a range filter over a field that uses 0 as its
// "unavailable" sentinel.
func sentinelRangeOK(r *Range, v float64, keepMissing bool) bool {
	if r == nil {
		return true
	}
	if v == 0 {
		return keepMissing
	}
	return r.Contains(v)
}

func climateRangeOK(r *Range, v float64, keepMissing bool) bool {
	if r == nil {
		return true
	}
	if math.IsNaN(v) {
		return keepMissing
	}
	return r.Contains(v)
}

func inAnyBand(bands []EnrollmentCategory, enrollment float64, keepMissing bool) bool {
	if math.IsNaN(enrollment) {
		return keepMissing
	}
	for _, b := range bands {
		if enrollment >= b.Min && enrollment <= b.Max {
			return true
		}
	}
	return false
}

func matchFloat(set map[float64]bool, v float64, nanOK bool) bool {
	if math.IsNaN(v) {
		return nanOK
	}
	return set[v]
}

func intSet(vs []int) map[int]bool {
	m := make(map[int]bool, len(vs))
	for _, v := range vs {
		m[v] = true
	}
	return m
}

func stringSet(vs []string) map[string]bool {
	m := make(map[string]bool, len(vs))
	for _, v := range vs {
		m[v] = true
	}
	return m
}

func floatSet(vs []float64) map[float64]bool {
	m := make(map[float64]bool, len(vs))
	for _, v := range vs {
		m[v] = true
	}
	return m
}
