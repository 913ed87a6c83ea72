package metrics

import (
	"math"
	"strings"

	"scoutdeck/internal/dataset"
)

// FreshmanRetention estimates how often freshmen return for a second season.
// For every pair of consecutive roster years it takes the freshmen of the
// first year and checks whether each name reappears in the next year's
// roster, then averages the per-pair rates. Returns the rate as a percentage
// and false when no year pair has any freshmen.
func FreshmanRetention(roster []dataset.RosterEntry) (float64, bool) {
	byYear := make(map[int]map[string]string) // year -> player -> class
	for _, r := range roster {
		name := strings.TrimSpace(r.Player)
		if name == "" {
			continue
		}
		if byYear[r.Year] == nil {
			byYear[r.Year] = make(map[string]string)
		}
		// Duplicate rows for a player within a year keep the last one seen;
		// the source orders rows oldest first.
		byYear[r.Year][name] = strings.TrimSpace(r.Class)
	}

	var rates []float64
	for year, players := range byYear {
		next, ok := byYear[year+1]
		if !ok {
			continue
		}
		var freshmen, retained int
		for name, class := range players {
			if !isFreshman(class) {
				continue
			}
			freshmen++
			if _, back := next[name]; back {
				retained++
			}
		}
		if freshmen > 0 {
			rates = append(rates, float64(retained)/float64(freshmen))
		}
	}
	if len(rates) == 0 {
		return math.NaN(), false
	}
	var sum float64
	for _, r := range rates {
		sum += r
	}
	return sum / float64(len(rates)) * 100, true
}

func isFreshman(class string) bool {
	return strings.EqualFold(strings.TrimSuffix(class, "."), "fr")
}
