package metrics

import (
	"fmt"
	"math"
	"strings"

	"scoutdeck/internal/dataset"
)

// InStateShare returns the percentage of current-season roster players whose
// home state matches the school's state. False when the season has no rows
// with a usable state.
func InStateShare(roster []dataset.RosterEntry, schoolState string) (float64, bool) {
	schoolState = strings.ToUpper(strings.TrimSpace(schoolState))
	if schoolState == "" {
		return math.NaN(), false
	}
	var total, inState int
	for _, r := range roster {
		if r.Year != CurrentSeasonYear {
			continue
		}
		st := strings.ToUpper(strings.TrimSpace(r.State))
		if st == "" {
			continue
		}
		total++
		if st == schoolState {
			inState++
		}
	}
	if total == 0 {
		return math.NaN(), false
	}
	return float64(inState) / float64(total) * 100, true
}

// HeightLabel renders a height in inches as feet'inches", e.g. 74 -> 6'2".
// NaN or non-positive heights render as "N/A".
func HeightLabel(inches float64) string {
	if math.IsNaN(inches) || inches <= 0 {
		return "N/A"
	}
	whole := int(math.Round(inches))
	return fmt.Sprintf("%d'%d\"", whole/12, whole%12)
}
