package metrics

import (
	"strings"

	"scoutdeck/internal/dataset"
)

// PositionDepth is the current-season roster headcount by position group.
// A utility player can land in more than one group.
type PositionDepth struct {
	Pitchers    int `json:"pitchers"`
	Catchers    int `json:"catchers"`
	Infielders  int `json:"infielders"`
	Outfielders int `json:"outfielders"`
}

// ClassDistribution is the current-season headcount by class year.
type ClassDistribution struct {
	Freshmen   int `json:"freshmen"`
	Sophomores int `json:"sophomores"`
	Juniors    int `json:"juniors"`
	Seniors    int `json:"seniors"`
}

// CurrentDepth tallies position depth and class distribution from the
// position-bearing roster, using only CurrentSeasonYear rows.
func CurrentDepth(roster []dataset.RosterEntry) (PositionDepth, ClassDistribution) {
	var depth PositionDepth
	var classes ClassDistribution
	for _, r := range roster {
		if r.Year != CurrentSeasonYear {
			continue
		}
		pos := strings.ToUpper(strings.TrimSpace(r.Position))
		if isPitcher(pos) {
			depth.Pitchers++
		}
		if isCatcher(pos) {
			depth.Catchers++
		}
		if isInfielder(pos) {
			depth.Infielders++
		}
		if isOutfielder(pos) {
			depth.Outfielders++
		}
		switch strings.TrimSuffix(strings.TrimSpace(r.Class), ".") {
		case "Fr", "fr", "FR":
			classes.Freshmen++
		case "So", "so", "SO":
			classes.Sophomores++
		case "Jr", "jr", "JR":
			classes.Juniors++
		case "Sr", "sr", "SR":
			classes.Seniors++
		}
	}
	return depth, classes
}

// isPitcher matches any position string carrying a P that is not the DH's.
// "RHP", "LHP", "P/IF" count; "DH" does not.
func isPitcher(pos string) bool {
	return strings.Contains(pos, "P") && pos != "DH"
}

// isCatcher matches C tokens while ignoring the C inside "CF".
func isCatcher(pos string) bool {
	for _, tok := range splitPos(pos) {
		if tok == "C" || tok == "CA" {
			return true
		}
	}
	return false
}

func isInfielder(pos string) bool {
	for _, tok := range splitPos(pos) {
		switch tok {
		case "IF", "INF", "1B", "2B", "3B", "SS", "UTL", "UT":
			return true
		}
	}
	return false
}

func isOutfielder(pos string) bool {
	for _, tok := range splitPos(pos) {
		switch tok {
		case "OF", "CF", "LF", "RF":
			return true
		}
	}
	return false
}

func splitPos(pos string) []string {
	return strings.FieldsFunc(pos, func(r rune) bool {
		return r == '/' || r == ',' || r == ' ' || r == '-'
	})
}
