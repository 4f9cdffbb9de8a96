package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/provider"
	"github.com/socialscope/tracker/internal/storage/memory"
	"github.com/socialscope/tracker/internal/storage/postgres"
	"github.com/socialscope/tracker/internal/tracker"
)

type createProfileRequest struct {
	Username string `json:"username"`
	Platform string `json:"platform"`
	URL      string `json:"url"`
	UserID   int64  `json:"user_id"`
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	all := r.URL.Query().Get("all") == "true"
	profiles, err := s.profiles.ListProfiles(r.Context(), userID, all)
	if err != nil {
		s.logger.Error("profiles not listed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list profiles")
		return
	}
	if profiles == nil {
		profiles = []tracker.Profile{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Username == "" || req.Platform == "" || req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "username, platform and user_id are required")
		return
	}

	exists, err := s.profiles.ProfileExists(r.Context(), req.Username, req.Platform, req.UserID)
	if err != nil {
		s.logger.Error("profile existence check failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "profile already tracked")
		return
	}

	url := req.URL
	if url == "" {
		url = provider.BuildProfileURL(req.Platform, req.Username)
	}
	id, err := s.profiles.CreateProfile(r.Context(), tracker.Profile{
		Username: req.Username,
		Platform: req.Platform,
		URL:      url,
		UserID:   req.UserID,
		Status:   tracker.StatusPending,
	})
	if err != nil {
		s.logger.Error("profile not created", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to create profile")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}
	p, err := s.profiles.GetProfile(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"profile": p})
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}
	if err := s.profiles.DeleteProfile(r.Context(), id); err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		s.logger.Error("profile not deleted", zap.Int64("profile_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete profile")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "profile deleted"})
}

func (s *Server) analyzeProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}
	p, err := s.profiles.GetProfile(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch profile")
		return
	}
	jobID, err := s.analyzer.Analyze(r.Context(), p)
	if err != nil {
		s.logger.Error("analysis not started", zap.Int64("profile_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to start analysis")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": string(tracker.StatusAnalyzing)})
}

func (s *Server) profileHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := profileID(w, r)
	if !ok {
		return
	}
	records, err := s.history.ListProfileHistory(r.Context(), id)
	if err != nil {
		s.logger.Error("history not listed", zap.Int64("profile_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": historyItems(records)})
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	all := r.URL.Query().Get("all") == "true"
	records, err := s.history.ListHistory(r.Context(), userID, all)
	if err != nil {
		s.logger.Error("history not listed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": historyItems(records)})
}

// historyItem mirrors tracker.HistoryRecord with the stored JSON inlined
// instead of base64-encoded bytes.
type historyItem struct {
	tracker.HistoryRecord
	RawResult json.RawMessage `json:"raw_result"`
}

func historyItems(records []tracker.HistoryRecord) []historyItem {
	out := make([]historyItem, 0, len(records))
	for _, rec := range records {
		raw := json.RawMessage(rec.RawResult)
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		out = append(out, historyItem{HistoryRecord: rec, RawResult: raw})
	}
	return out
}

func profileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "profile_id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid profile id")
		return 0, false
	}
	return id, true
}

func isNotFound(err error) bool {
	return errors.Is(err, postgres.ErrNotFound) || errors.Is(err, memory.ErrNotFound)
}
