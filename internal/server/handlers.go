package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"scoutdeck/internal/classify"
	"scoutdeck/internal/dataset"
	"scoutdeck/internal/filter"
	"scoutdeck/internal/metrics"
	"scoutdeck/internal/recommend"
	"scoutdeck/internal/store"
)

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	opts := filter.BuildOptions(s.source.Table())
	if q := r.URL.Query().Get("q"); q != "" {
		opts.Conferences = filter.SearchOptions(opts.Conferences, q)
		opts.Religious = filter.SearchOptions(opts.Religious, q)
	}
	writeJSON(w, http.StatusOK, opts)
}

type searchRequest struct {
	UserID string       `json:"user_id,omitempty"`
	State  filter.State `json:"state"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid search request")
		return
	}

	rows := filter.Evaluate(s.source.Table(), req.State)

	resp := map[string]any{
		"count":   len(rows),
		"schools": viewsOf(rows),
	}
	if req.UserID != "" {
		stateJSON, err := json.Marshal(req.State)
		if err == nil {
			if err := s.store.EnsureUser(req.UserID); err == nil {
				if err := s.store.TrackSearch(req.UserID, stateJSON); err != nil {
					s.logger.Warn("failed to track search", zap.Error(err))
				} else if n, err := s.store.SearchCount(req.UserID, stateJSON); err == nil {
					resp["times_run"] = n
				}
			}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSearches(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	total, err := s.store.TotalSearches(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load searches")
		return
	}
	recent, err := s.store.RecentSearches(userID, 10)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load searches")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":  total,
		"recent": recent,
	})
}

func (s *Server) handleSchoolDetail(w http.ResponseWriter, r *http.Request) {
	school, ok := s.schoolFromURL(w, r)
	if !ok {
		return
	}
	t := s.source.Table()

	detail := schoolDetail{
		schoolView:   viewOf(school),
		TotalPlayers: school.TotalPlayers,
		Classes:      school.ClassCounts,
		PitcherHt:    metrics.HeightLabel(school.AvgPitcherHeightIn),
		PositionHt:   metrics.HeightLabel(school.AvgOtherHeightIn),
	}
	for _, st := range school.TopStates {
		if st.State != "" {
			detail.TopStates = append(detail.TopStates, st)
		}
	}

	if school.PrevTeamID != 0 {
		traj := metrics.WinTrajectory(t.TeamSeasons(school.PrevTeamID))
		detail.Trajectory = &traj

		roster := t.TeamRoster(school.PrevTeamID)
		if rate, ok := metrics.FreshmanRetention(roster); ok {
			detail.Retention = &rate
		}

		full := t.TeamRosterFull(school.PrevTeamID)
		if share, ok := metrics.InStateShare(full, school.State); ok {
			detail.InStatePct = &share
		}
		depth, classes := metrics.CurrentDepth(full)
		detail.Depth = &depth
		detail.ClassDist = &classes

		if coach, ok := metrics.CurrentCoach(t, school.PrevTeamID); ok {
			detail.Coach = &coach
		}
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleTeamDetail(w http.ResponseWriter, r *http.Request) {
	school, ok := s.schoolFromURL(w, r)
	if !ok {
		return
	}
	if school.PrevTeamID == 0 {
		writeError(w, http.StatusNotFound, "no team history for school")
		return
	}
	t := s.source.Table()

	var seasons []teamSeasonView
	for _, ts := range t.TeamSeasons(school.PrevTeamID) {
		year, ok := metrics.SeasonEndYear(ts.YearLabel)
		if !ok {
			continue
		}
		v := teamSeasonView{Year: year, Label: ts.YearLabel}
		if ts.WinPct == ts.WinPct {
			pct := ts.WinPct
			v.WinPct = &pct
		}
		seasons = append(seasons, v)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"unitid":  school.UnitID,
		"name":    school.Name,
		"seasons": seasons,
	})
}

func (s *Server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	zip := r.URL.Query().Get("zip")
	if zip == "" {
		writeError(w, http.StatusBadRequest, "zip parameter required")
		return
	}
	point, ok := s.geocoder.ResolveZip(r.Context(), zip)
	if !ok {
		writeError(w, http.StatusNotFound, "zip code not found")
		return
	}
	writeJSON(w, http.StatusOK, point)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	profile, ok, err := s.store.GetProfile(userID)
	if err != nil {
		s.logger.Error("failed to load profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "unknown user")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var profile store.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, http.StatusBadRequest, "invalid profile")
		return
	}
	if err := s.store.EnsureUser(userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	if err := s.store.SaveProfile(userID, profile); err != nil {
		s.logger.Error("failed to save profile", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (s *Server) handleListSaved(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	ids, err := s.store.SavedSchools(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load saved schools")
		return
	}
	rows := s.source.Table().SchoolsByUnitIDs(ids)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(rows),
		"schools": viewsOf(rows),
	})
}

type savedRequest struct {
	UnitID int64 `json:"unitid"`
}

func (s *Server) handleAddSaved(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	var req savedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UnitID == 0 {
		writeError(w, http.StatusBadRequest, "unitid required")
		return
	}
	if _, ok := s.source.Table().SchoolByUnitID(req.UnitID); !ok {
		writeError(w, http.StatusNotFound, "unknown school")
		return
	}
	if err := s.store.EnsureUser(userID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save school")
		return
	}
	if err := s.store.AddSavedSchool(userID, req.UnitID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save school")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveSaved(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	unitID, err := strconv.ParseInt(chi.URLParam(r, "unitid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unitid")
		return
	}
	if err := s.store.RemoveSavedSchool(userID, unitID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove saved school")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListClassifications(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	all, err := s.store.Classifications(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load classifications")
		return
	}
	summary := map[string]int{"Safety": 0, "Target": 0, "Reach": 0}
	for _, c := range all {
		summary[c.Category]++
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"classifications": all,
		"summary":         summary,
		"total":           len(all),
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	school, ok := s.schoolFromURL(w, r)
	if !ok {
		return
	}
	profile, _, err := s.store.GetProfile(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c := classify.Classify(profile, school)
	if err := s.store.EnsureUser(userID); err == nil {
		if err := s.store.SaveClassification(userID, c); err != nil {
			s.logger.Warn("failed to cache classification", zap.Error(err))
		}
	}
	writeJSON(w, http.StatusOK, c)
}

type recommendationRequest struct {
	UserID string       `json:"user_id,omitempty"`
	State  filter.State `json:"state"`
	Num    int          `json:"num,omitempty"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil || !s.engine.Available() {
		writeError(w, http.StatusServiceUnavailable, "AI recommendations not configured")
		return
	}
	var req recommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid recommendation request")
		return
	}

	rows := filter.Evaluate(s.source.Table(), req.State)

	in := recommend.Input{Schools: rows, Num: req.Num}
	if stateJSON, err := json.Marshal(req.State); err == nil {
		in.FilterState = stateJSON
	}
	if req.UserID != "" {
		if saved, err := s.store.SavedSchools(req.UserID); err == nil {
			in.SavedCount = len(saved)
		}
		if profile, ok, err := s.store.GetProfile(req.UserID); err == nil && ok {
			in.Profile = &profile
		}
	}

	recs, err := s.engine.Recommend(r.Context(), in)
	if err != nil {
		s.logger.Error("recommendation request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to generate recommendations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": recs})
}

type emailRequest struct {
	UserID         string `json:"user_id"`
	UnitID         int64  `json:"unitid"`
	Kind           string `json:"kind,omitempty"` // introduction (default) or followup
	Tone           string `json:"tone,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	if s.engine == nil || !s.engine.Available() {
		writeError(w, http.StatusServiceUnavailable, "AI email drafting not configured")
		return
	}
	var req emailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email request")
		return
	}
	school, ok := s.source.Table().SchoolByUnitID(req.UnitID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown school")
		return
	}

	var profile store.Profile
	if req.UserID != "" {
		if p, ok, err := s.store.GetProfile(req.UserID); err == nil && ok {
			profile = p
		}
	}

	kind := recommend.EmailIntroduction
	if req.Kind == string(recommend.EmailFollowup) {
		kind = recommend.EmailFollowup
	}

	email, err := s.engine.DraftEmail(r.Context(), recommend.EmailRequest{
		Kind:           kind,
		School:         school,
		Profile:        profile,
		Tone:           req.Tone,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		s.logger.Error("email draft failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "failed to generate email")
		return
	}
	writeJSON(w, http.StatusOK, email)
}

func (s *Server) schoolFromURL(w http.ResponseWriter, r *http.Request) (dataset.School, bool) {
	unitID, err := strconv.ParseInt(chi.URLParam(r, "unitid"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid unitid")
		return dataset.School{}, false
	}
	school, ok := s.source.Table().SchoolByUnitID(unitID)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown school")
		return dataset.School{}, false
	}
	return school, true
}
