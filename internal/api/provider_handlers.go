package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/tracker"
)

type setDefaultProviderRequest struct {
	Platform string `json:"platform"`
	Provider string `json:"provider"`
}

// listProviders returns the providers installed on disk together with the
// per-platform defaults configured in the database.
func (s *Server) listProviders(w http.ResponseWriter, r *http.Request) {
	configs := s.registry.List()
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	settings, err := s.settings.ListSettings(r.Context())
	if err != nil {
		s.logger.Error("provider settings not listed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list provider settings")
		return
	}
	if settings == nil {
		settings = []tracker.ProviderSetting{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"providers": names,
		"defaults":  settings,
	})
}

func (s *Server) setDefaultProvider(w http.ResponseWriter, r *http.Request) {
	var req setDefaultProviderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Platform == "" || req.Provider == "" {
		writeError(w, http.StatusBadRequest, "platform and provider are required")
		return
	}
	if _, err := s.registry.Resolve(req.Provider); err != nil {
		writeError(w, http.StatusNotFound, "provider not installed")
		return
	}
	if err := s.settings.SetDefaultProvider(r.Context(), req.Platform, req.Provider); err != nil {
		s.logger.Error("default provider not set", zap.String("platform", req.Platform), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to set default provider")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"platform": req.Platform, "provider": req.Provider})
}
