package dataset

import "sort"

// Table is the denormalized working table plus the side tables that join to
// it. It is immutable after construction; accessors hand out copies.
type Table struct {
	Schools     []School
	Monthly     []MonthlyClimate
	Roster      []RosterEntry
	RosterFull  []RosterEntry
	TeamHistory []TeamSeason
	Coaches     []CoachSeason

	byUnitID       map[int64]int
	unitByPrevTeam map[int64]int64
	monthlyByMonth map[int][]MonthlyClimate
}

// NewTable assembles a working table from already-parsed rows and builds the
// join indexes. Load is the usual entry point; NewTable exists for callers
// that construct rows directly, tests mostly.
func NewTable(schools []School, monthly []MonthlyClimate, roster, full []RosterEntry,
	history []TeamSeason, coaches []CoachSeason) *Table {

	t := &Table{
		Schools:     schools,
		Monthly:     monthly,
		Roster:      roster,
		RosterFull:  full,
		TeamHistory: history,
		Coaches:     coaches,

		byUnitID:       make(map[int64]int, len(schools)),
		unitByPrevTeam: make(map[int64]int64),
		monthlyByMonth: make(map[int][]MonthlyClimate),
	}
	for i, s := range schools {
		t.byUnitID[s.UnitID] = i
		if s.PrevTeamID != 0 {
			t.unitByPrevTeam[s.PrevTeamID] = s.UnitID
		}
	}
	for _, m := range monthly {
		t.monthlyByMonth[m.Month] = append(t.monthlyByMonth[m.Month], m)
	}
	return t
}

// Len returns the number of schools in the working table.
func (t *Table) Len() int { return len(t.Schools) }

// SchoolByUnitID returns a copy of the school row for the institution id.
func (t *Table) SchoolByUnitID(unitID int64) (School, bool) {
	i, ok := t.byUnitID[unitID]
	if !ok {
		return School{}, false
	}
	return t.Schools[i], true
}

// SchoolsByUnitIDs returns copies of the rows for the given ids, in table
// order. Unknown ids are skipped; the saved-school set treats ids as opaque.
func (t *Table) SchoolsByUnitIDs(ids []int64) []School {
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []School
	for _, s := range t.Schools {
		if want[s.UnitID] {
			out = append(out, s)
		}
	}
	return out
}

// UnitIDForPrevTeam resolves a team-history key to an institution id.
func (t *Table) UnitIDForPrevTeam(prevTeamID int64) (int64, bool) {
	id, ok := t.unitByPrevTeam[prevTeamID]
	return id, ok
}

// MonthlyForMonth returns the long-format climate rows for one month.
// The returned slice aliases the table and must be treated as read-only.
func (t *Table) MonthlyForMonth(month int) []MonthlyClimate {
	return t.monthlyByMonth[month]
}

// TeamSeasons returns the win-history rows for a team-history key.
func (t *Table) TeamSeasons(prevTeamID int64) []TeamSeason {
	var out []TeamSeason
	for _, h := range t.TeamHistory {
		if h.PrevTeamID == prevTeamID {
			out = append(out, h)
		}
	}
	return out
}

// TeamRoster returns roster rows for a team-history key, most recent first
// within equal years preserved in file order.
func (t *Table) TeamRoster(prevTeamID int64) []RosterEntry {
	return rosterFor(t.Roster, prevTeamID)
}

// TeamRosterFull is TeamRoster over the full roster table (with positions).
func (t *Table) TeamRosterFull(prevTeamID int64) []RosterEntry {
	return rosterFor(t.RosterFull, prevTeamID)
}

func rosterFor(rows []RosterEntry, prevTeamID int64) []RosterEntry {
	if prevTeamID == 0 {
		return nil
	}
	var out []RosterEntry
	for _, r := range rows {
		if r.PrevTeamID == prevTeamID {
			out = append(out, r)
		}
	}
	return out
}

// CoachSeasons returns all coach-metrics rows for a team-history key.
func (t *Table) CoachSeasons(prevTeamID int64) []CoachSeason {
	var out []CoachSeason
	for _, c := range t.Coaches {
		if c.PrevTeamID == prevTeamID {
			out = append(out, c)
		}
	}
	return out
}

// CoachSeasonFor returns the coach-metrics row for a team and season year.
func (t *Table) CoachSeasonFor(prevTeamID int64, year int) (CoachSeason, bool) {
	for _, c := range t.Coaches {
		if c.PrevTeamID == prevTeamID && c.Year == year {
			return c, true
		}
	}
	return CoachSeason{}, false
}

// Conferences returns the distinct conference names, sorted.
func (t *Table) Conferences() []string {
	seen := make(map[string]bool)
	for _, s := range t.Schools {
		if s.Conference != "" {
			seen[s.Conference] = true
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// RegionCodes returns the distinct region codes present, sorted.
func (t *Table) RegionCodes() []float64 { return t.distinctFloat(func(s School) float64 { return s.Region }) }

// LocaleCodes returns the distinct locale codes present, sorted.
func (t *Table) LocaleCodes() []float64 { return t.distinctFloat(func(s School) float64 { return s.Locale }) }

// ReligiousCodes returns the distinct affiliation codes present, sorted.
func (t *Table) ReligiousCodes() []float64 {
	return t.distinctFloat(func(s School) float64 { return s.Religious })
}

func (t *Table) distinctFloat(get func(School) float64) []float64 {
	seen := make(map[float64]bool)
	for _, s := range t.Schools {
		v := get(s)
		if v == v { // skip NaN
			seen[v] = true
		}
	}
	out := make([]float64, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}
