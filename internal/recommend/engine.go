// Package recommend turns the current filter results and the recruit's
// profile into LLM-generated school recommendations and coach outreach
// emails. The completion backend sits behind llm.Client so it can be a real
// provider or a test stub.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"scoutdeck/internal/dataset"
	"scoutdeck/internal/llm"
	"scoutdeck/internal/store"
)

const recommendationSystemPrompt = `You are an expert college baseball recruiting advisor helping high school players find the best college fit.

Your task is to analyze the provided data and recommend schools that would be the best fit for the student-athlete.

Consider:
1. Athletic fit: Division level, team win percentage, roster depth, playing time opportunities
2. Academic fit: SAT scores, acceptance rates, academic rigor
3. Location preferences: Distance from home, region, locale (urban/suburban/rural)
4. Program characteristics: Conference strength, team history, coaching stability
5. Personal preferences: School size, religious affiliation, climate

For each recommendation, provide:
1. School name
2. Key reasons why it's a good fit (2-3 bullet points)
3. One specific opportunity or advantage at this school
4. Classification suggestion (Target/Reach/Safety)

Return your response as a JSON array with this structure:
[
  {
    "school_name": "School Name",
    "unitid": "school_unitid",
    "reasons": ["Reason 1", "Reason 2", "Reason 3"],
    "opportunity": "Specific opportunity or advantage",
    "classification": "Target|Reach|Safety"
  }
]

Focus on schools that genuinely match the student's profile and preferences. Be realistic about fit.`

// How much of the filtered list the model sees, and the default result size.
const (
	contextSchoolLimit        = 20
	DefaultNumRecommendations = 5
)

// Recommendation is one recommended school plus the matched table row.
type Recommendation struct {
	SchoolName     string   `json:"school_name"`
	UnitID         int64    `json:"unitid"`
	Reasons        []string `json:"reasons"`
	Opportunity    string   `json:"opportunity"`
	Classification string   `json:"classification"`

	School *SchoolSummary `json:"school_data,omitempty"`
}

// SchoolSummary is the compact school view shared with the model and echoed
// back on matched recommendations.
type SchoolSummary struct {
	UnitID     int64   `json:"unitid"`
	Name       string  `json:"name"`
	Division   int     `json:"division"`
	Conference string  `json:"conference"`
	WinPct     float64 `json:"win_pct"`
	SATAvg     float64 `json:"sat_avg"`
	AcceptPct  float64 `json:"accept_rate_pct"`
	Enrollment float64 `json:"enrollment,omitempty"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state"`
}

// Engine generates recommendations through a completion client.
type Engine struct {
	client llm.Client
	logger *zap.Logger
}

// NewEngine builds a recommendation engine.
func NewEngine(client llm.Client, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{client: client, logger: logger}
}

// Available reports whether a completion backend is configured.
func (e *Engine) Available() bool { return e.client != nil }

// Input carries everything one recommendation call needs.
type Input struct {
	Schools     []dataset.School // current filter results, table order
	FilterState json.RawMessage  // serialized filter selections
	SavedCount  int
	Profile     *store.Profile
	Num         int // 0 means DefaultNumRecommendations
}

// Recommend asks the model for personalized school picks and matches each
// one back to a row from the candidate list.
func (e *Engine) Recommend(ctx context.Context, in Input) ([]Recommendation, error) {
	if !e.Available() {
		return nil, fmt.Errorf("recommendation engine not configured")
	}
	num := in.Num
	if num <= 0 {
		num = DefaultNumRecommendations
	}

	payload, err := json.Marshal(e.buildContext(in))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal context: %w", err)
	}

	raw, err := e.client.Complete(ctx, llm.Request{
		System:      recommendationSystemPrompt,
		Prompt:      string(payload),
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate recommendations: %w", err)
	}

	recs, err := ParseRecommendations(raw, in.Schools)
	if err != nil {
		e.logger.Warn("failed to parse recommendations", zap.Error(err))
		return nil, err
	}
	if len(recs) > num {
		recs = recs[:num]
	}
	return recs, nil
}

type promptContext struct {
	AvailableSchools []SchoolSummary `json:"available_schools"`
	UserPreferences  json.RawMessage `json:"user_preferences"`
	SavedCount       int             `json:"saved_schools_count"`
	UserProfile      *store.Profile  `json:"user_profile,omitempty"`
}

func (e *Engine) buildContext(in Input) promptContext {
	schools := in.Schools
	if len(schools) > contextSchoolLimit {
		schools = schools[:contextSchoolLimit]
	}
	summaries := make([]SchoolSummary, 0, len(schools))
	for _, s := range schools {
		summaries = append(summaries, Summarize(s))
	}
	prefs := in.FilterState
	if len(prefs) == 0 {
		prefs = json.RawMessage(`{}`)
	}
	return promptContext{
		AvailableSchools: summaries,
		UserPreferences:  prefs,
		SavedCount:       in.SavedCount,
		UserProfile:      in.Profile,
	}
}

// Summarize compacts a school row for prompts and responses.
func Summarize(s dataset.School) SchoolSummary {
	return SchoolSummary{
		UnitID:     s.UnitID,
		Name:       s.Name,
		Division:   s.Division,
		Conference: s.Conference,
		WinPct:     s.WinPct,
		SATAvg:     s.SATScore,
		AcceptPct:  s.AcceptPct,
		Enrollment: nanToZero(s.Enrollment),
		City:       s.City,
		State:      s.State,
	}
}

func nanToZero(v float64) float64 {
	if v != v {
		return 0
	}
	return v
}

// rawRecommendation tolerates unitid arriving as a number or a string.
type rawRecommendation struct {
	SchoolName     string          `json:"school_name"`
	UnitID         json.RawMessage `json:"unitid"`
	Reasons        []string        `json:"reasons"`
	Opportunity    string          `json:"opportunity"`
	Classification string          `json:"classification"`
}

// ParseRecommendations extracts the JSON array from a model reply, which may
// arrive bare or inside a code fence, and matches each entry to a candidate
// row by unitid or, failing that, by name substring. Unmatched entries are
// dropped.
func ParseRecommendations(reply string, candidates []dataset.School) ([]Recommendation, error) {
	body := StripFence(reply)

	var raws []rawRecommendation
	if err := json.Unmarshal([]byte(body), &raws); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", err)
	}

	var out []Recommendation
	for _, r := range raws {
		rec := Recommendation{
			SchoolName:     r.SchoolName,
			Reasons:        r.Reasons,
			Opportunity:    r.Opportunity,
			Classification: r.Classification,
		}
		school, ok := matchSchool(r, candidates)
		if !ok {
			continue
		}
		summary := Summarize(school)
		rec.UnitID = school.UnitID
		rec.School = &summary
		out = append(out, rec)
	}
	return out, nil
}

func matchSchool(r rawRecommendation, candidates []dataset.School) (dataset.School, bool) {
	if id, ok := parseUnitID(r.UnitID); ok {
		for _, s := range candidates {
			if s.UnitID == id {
				return s, true
			}
		}
	}
	name := strings.ToLower(strings.TrimSpace(r.SchoolName))
	if name == "" {
		return dataset.School{}, false
	}
	for _, s := range candidates {
		if strings.Contains(strings.ToLower(s.Name), name) {
			return s, true
		}
	}
	return dataset.School{}, false
}

func parseUnitID(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		var n int64
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

// StripFence removes a surrounding markdown code fence, if present.
func StripFence(s string) string {
	if i := strings.Index(s, "```json"); i >= 0 {
		rest := s[i+7:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := s[i+3:]
		if j := strings.Index(rest, "```"); j >= 0 {
			return strings.TrimSpace(rest[:j])
		}
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(s)
}
