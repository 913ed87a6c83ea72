// Package filter holds the explorer's filter state and the evaluator that
// applies it to the working table. Evaluation is pure: it reads the table,
// never mutates it, and returns fresh row copies.
package filter

import "scoutdeck/internal/geo"

// MissingDataPolicy says what to do with rows whose value for an active
// range filter is unavailable (the 0 sentinel for accept rate and SAT,
// NaN for enrollment and climate).
type MissingDataPolicy string

const (
	// PreserveMissing keeps rows with unavailable values. Default.
	PreserveMissing MissingDataPolicy = "preserve"
	// ExcludeMissing drops rows with unavailable values.
	ExcludeMissing MissingDataPolicy = "exclude"
)

// Range is an inclusive numeric bound. A nil *Range means the filter is off.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the bound. NaN never matches.
func (r *Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MaxDistanceCap is the slider ceiling; at or above it the distance filter
// is treated as "anywhere" and skipped entirely.
const MaxDistanceCap = 2500

// State is one complete set of filter selections. Empty category slices and
// nil ranges mean "no constraint". State is plain data so it can round-trip
// through the HTTP API and the saved-search store unchanged.
type State struct {
	Divisions   []int     `json:"divisions,omitempty"`
	Conferences []string  `json:"conferences,omitempty"`
	Regions     []float64 `json:"regions,omitempty"`
	Locales     []float64 `json:"locales,omitempty"`
	Controls    []int     `json:"controls,omitempty"`
	Religious   []float64 `json:"religious,omitempty"`
	Enrollment  []string  `json:"enrollment,omitempty"` // category keys

	WinPct     *Range `json:"win_pct,omitempty"`     // 0..100
	AcceptRate *Range `json:"accept_rate,omitempty"` // 0..100
	SAT        *Range `json:"sat,omitempty"`

	Temp   *Range `json:"temp,omitempty"`   // degrees F
	Precip *Range `json:"precip,omitempty"` // mm/day
	Cloud  *Range `json:"cloud,omitempty"`  // percent
	Month  int    `json:"month,omitempty"`  // 0 annual, 1..12 monthly

	RankedOnly bool `json:"ranked_only,omitempty"`

	MaxDistanceMiles float64    `json:"max_distance_miles,omitempty"`
	Home             *geo.Point `json:"home,omitempty"`

	NameSearch string `json:"name_search,omitempty"`

	MissingData MissingDataPolicy `json:"missing_data,omitempty"`
}

// DistanceActive reports whether the distance constraint applies: it needs a
// resolved home location and a radius below the "anywhere" cap.
func (s *State) DistanceActive() bool {
	return s.Home != nil && s.MaxDistanceMiles > 0 && s.MaxDistanceMiles < MaxDistanceCap
}

func (s *State) keepMissing() bool {
	return s.MissingData != ExcludeMissing
}
