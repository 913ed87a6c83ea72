package metrics

import "scoutdeck/internal/dataset"

// coachYear is the season the coach table reports current tenures under.
const coachYear = CurrentSeasonYear + 1

// CoachSummary is the current head coach's tenure record at the school.
type CoachSummary struct {
	Name     string  `json:"name"`
	Seasons  int     `json:"seasons"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	WinPct   float64 `json:"win_pct"` // 0..100 over the tenure
	StatsURL string  `json:"stats_url,omitempty"`
}

// CurrentCoach looks up the current head coach for a team. The source carries
// one row per season; the current one is keyed to the upcoming season year.
func CurrentCoach(t *dataset.Table, prevTeamID int64) (CoachSummary, bool) {
	c, ok := t.CoachSeasonFor(prevTeamID, coachYear)
	if !ok {
		return CoachSummary{}, false
	}
	sum := CoachSummary{
		Name:     c.HeadCoach,
		Seasons:  c.SeasonsAtTeam,
		Wins:     c.WinsAtTeam,
		Losses:   c.LossesAtTeam,
		StatsURL: c.StatsURL,
	}
	if games := c.WinsAtTeam + c.LossesAtTeam; games > 0 {
		sum.WinPct = float64(c.WinsAtTeam) / float64(games) * 100
	}
	return sum, true
}
