package dataset

import (
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Files names the seven CSV inputs inside the data directory. The defaults
// match the upstream export pipeline; column names are part of the contract.
type Files struct {
	Schools        string `yaml:"schools"`
	ClimateAnnual  string `yaml:"climate_annual"`
	ClimateMonthly string `yaml:"climate_monthly"`
	Roster         string `yaml:"roster"`
	RosterFull     string `yaml:"roster_full"`
	TeamHistory    string `yaml:"team_history"`
	CoachMetrics   string `yaml:"coach_metrics"`
}

// DefaultFiles returns the canonical file names.
func DefaultFiles() Files {
	return Files{
		Schools:        "input_filtered.csv",
		ClimateAnnual:  "climate_data_processed.csv",
		ClimateMonthly: "climate_data_monthly_long.csv",
		Roster:         "combined_ncaa_rosters_filtered.csv",
		RosterFull:     "combined_ncaa_rosters.csv",
		TeamHistory:    "ncaa_team_history_updated.csv",
		CoachMetrics:   "team_coach_metrics.csv",
	}
}

// Load reads all input tables from dir and builds the working table.
// The files are independent, so they load concurrently; the join and
// derivation pass runs once everything is in memory.
func Load(dir string, files Files, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		schools []School
		annual  map[int64]ClimateNormal
		monthly []MonthlyClimate
		roster  []RosterEntry
		full    []RosterEntry
		history []TeamSeason
		coaches []CoachSeason
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		schools, err = loadSchools(filepath.Join(dir, files.Schools))
		return err
	})
	g.Go(func() (err error) {
		annual, err = loadClimateAnnual(filepath.Join(dir, files.ClimateAnnual))
		return err
	})
	g.Go(func() (err error) {
		monthly, err = loadClimateMonthly(filepath.Join(dir, files.ClimateMonthly))
		return err
	})
	g.Go(func() (err error) {
		roster, err = loadRoster(filepath.Join(dir, files.Roster))
		return err
	})
	g.Go(func() (err error) {
		full, err = loadRoster(filepath.Join(dir, files.RosterFull))
		return err
	})
	g.Go(func() (err error) {
		history, err = loadTeamHistory(filepath.Join(dir, files.TeamHistory))
		return err
	})
	g.Go(func() (err error) {
		coaches, err = loadCoachMetrics(filepath.Join(dir, files.CoachMetrics))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := build(schools, annual, monthly, roster, full, history, coaches)
	logger.Info("dataset loaded",
		zap.String("dir", dir),
		zap.Int("schools", len(table.Schools)),
		zap.Int("monthly_climate", len(table.Monthly)),
		zap.Int("roster", len(table.Roster)),
		zap.Int("roster_full", len(table.RosterFull)),
		zap.Int("team_history", len(table.TeamHistory)),
		zap.Int("coach_seasons", len(table.Coaches)))
	return table, nil
}

// build joins climate onto schools, drops rows without coordinates, and
// computes the derived columns. Mirrors the upstream merge/derive pass.
func build(schools []School, annual map[int64]ClimateNormal, monthly []MonthlyClimate,
	roster, full []RosterEntry, history []TeamSeason, coaches []CoachSeason) *Table {

	rows := make([]School, 0, len(schools))
	for _, s := range schools {
		if !s.HasCoordinates() {
			continue
		}
		if c, ok := annual[s.UnitID]; ok {
			s.Climate = c
		} else {
			s.Climate = ClimateNormal{AvgTempF: math.NaN(), AvgPrecipMMDay: math.NaN(), AvgCloudPct: math.NaN()}
		}

		games := s.Wins + s.Losses
		if games > 0 {
			s.WinPct = round1(s.Wins / games * 100)
		}
		if !math.IsNaN(s.AdmitRate) {
			s.AcceptPct = round1(s.AdmitRate * 100)
		}
		if !math.IsNaN(s.SATAvg) {
			s.SATScore = s.SATAvg
		}
		rows = append(rows, s)
	}

	return NewTable(rows, monthly, roster, full, history, coaches)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func loadSchools(path string) ([]School, error) {
	var out []School
	err := readCSV(path, func(r record) error {
		s := School{
			UnitID:     r.intOr("unitid", 0),
			Name:       r.text("inst_name"),
			City:       r.text("city"),
			State:      r.text("state_abbr"),
			Latitude:   r.float("latitude"),
			Longitude:  r.float("longitude"),
			Division:   int(r.intOr("division", 0)),
			Conference: r.text("Conference_Name"),
			Nickname:   r.text("Nickname"),
			NCAAName:   r.text("NCAA_Name.x"),
			Region:     r.float("region"),
			Locale:     r.float("locale"),
			Control:    int(r.intOr("control", 0)),
			Religious:  r.float("relaffil"),
			AdmitRate:  r.float("adm_rate"),
			SATAvg:     r.float("sat_avg"),
			Enrollment: r.float("ugds"),
			USNewsRank: r.float("US_Rank"),
			Wins:       r.float("wins"),
			Losses:     r.float("losses"),
			PrevTeamID: r.intOr("prev_team_id", 0),

			TotalPlayers: int(r.intOr("total_players", 0)),
			ClassCounts: ClassCounts{
				Freshmen:   int(r.intOr("count_Fr", 0)),
				Sophomores: int(r.intOr("count_So", 0)),
				Juniors:    int(r.intOr("count_Jr", 0)),
				Seniors:    int(r.intOr("count_Sr", 0)),
			},
			AvgPitcherHeightIn: r.float("avg_p_height_in"),
			AvgOtherHeightIn:   r.float("avg_other_height_in"),
		}
		s.TopStates = [3]StateCount{
			{State: r.text("top_state_1"), Count: int(r.intOr("top_state_1_count", 0))},
			{State: r.text("top_state_2"), Count: int(r.intOr("top_state_2_count", 0))},
			{State: r.text("top_state_3"), Count: int(r.intOr("top_state_3_count", 0))},
		}
		if math.IsNaN(s.Wins) {
			s.Wins = 0
		}
		if math.IsNaN(s.Losses) {
			s.Losses = 0
		}
		if s.UnitID == 0 {
			return nil // identity-less rows cannot join anything
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func loadClimateAnnual(path string) (map[int64]ClimateNormal, error) {
	out := make(map[int64]ClimateNormal)
	err := readCSV(path, func(r record) error {
		id := r.intOr("unitid", 0)
		if id == 0 {
			return nil
		}
		out[id] = ClimateNormal{
			AvgTempF:       r.float("t2m"),
			AvgPrecipMMDay: r.float("prectotcorr"),
			AvgCloudPct:    r.float("cloud_amt"),
		}
		return nil
	})
	return out, err
}

func loadClimateMonthly(path string) ([]MonthlyClimate, error) {
	var out []MonthlyClimate
	err := readCSV(path, func(r record) error {
		id := r.intOr("unitid", 0)
		month := int(r.intOr("month", 0))
		if id == 0 || month < 1 || month > 12 {
			return nil
		}
		out = append(out, MonthlyClimate{
			UnitID:      id,
			Month:       month,
			TempF:       r.float("t2m"),
			PrecipMMDay: r.float("prectotcorr"),
			CloudPct:    r.float("cloud_amt"),
		})
		return nil
	})
	return out, err
}

func loadRoster(path string) ([]RosterEntry, error) {
	var out []RosterEntry
	err := readCSV(path, func(r record) error {
		out = append(out, RosterEntry{
			PrevTeamID: r.intOr("prev_team_id", 0),
			UnitID:     r.intOr("unitid", 0),
			Year:       int(r.intOr("year", 0)),
			Player:     r.text("player_name"),
			Class:      r.text("class"),
			Position:   r.text("position"),
			State:      r.text("State"),
			HeightIn:   r.float("height_in"),
		})
		return nil
	})
	return out, err
}

func loadTeamHistory(path string) ([]TeamSeason, error) {
	var out []TeamSeason
	err := readCSV(path, func(r record) error {
		id := r.intOr("prev_team_id", 0)
		if id == 0 {
			return nil
		}
		out = append(out, TeamSeason{
			PrevTeamID: id,
			YearLabel:  r.text("Year"),
			WinPct:     ParseWLPct(r.text("WL_pct")),
		})
		return nil
	})
	return out, err
}

func loadCoachMetrics(path string) ([]CoachSeason, error) {
	var out []CoachSeason
	err := readCSV(path, func(r record) error {
		id := r.intOr("prev_team_id", 0)
		if id == 0 {
			return nil
		}
		out = append(out, CoachSeason{
			PrevTeamID:    id,
			Year:          int(r.intOr("Year", 0)),
			HeadCoach:     r.text("Head_Coach"),
			WinsAtTeam:    int(r.intOr("Wins_At_Team", 0)),
			LossesAtTeam:  int(r.intOr("Losses_At_Team", 0)),
			SeasonsAtTeam: int(r.intOr("Seasons_At_Team", 0)),
			StatsURL:      r.text("Coach_Stats_URL"),
		})
		return nil
	})
	return out, err
}

// ParseWLPct normalizes the history table's winning-percentage text, which
// arrives as bare thousandths with an optional leading dot (".596", "1.000").
// The digits are read as thousandths regardless of dot placement.
func ParseWLPct(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	digits := strings.ReplaceAll(s, ".", "")
	n, err := strconv.Atoi(digits)
	if err != nil {
		return math.NaN()
	}
	return float64(n) / 1000
}
