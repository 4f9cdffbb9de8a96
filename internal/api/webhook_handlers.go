package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/socialscope/tracker/internal/artifacts"
	"github.com/socialscope/tracker/internal/tracker"
)

// Fixed wire strings of the webhook protocol. The worker and any existing
// clients match on them, so they are kept verbatim.
const (
	msgInvalidPayload = "Payload inválido. profileId e status são obrigatórios."
	msgProcessed      = "Webhook processado com sucesso."
	msgInternalError  = "Erro interno do servidor ao processar webhook."
)

// scrapingCompleted ingests one worker result. The profile picture download
// and the artifact rewrites are best-effort; only the database write decides
// the response status.
func (s *Server) scrapingCompleted(w http.ResponseWriter, r *http.Request) {
	var payload tracker.ResultPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if payload.ProfileID == 0 || payload.Status == "" {
		writeError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	s.logger.Info("webhook received",
		zap.String("request_id", RequestID(r.Context())),
		zap.Int64("profile_id", payload.ProfileID),
		zap.String("status", string(payload.Status)),
		zap.String("provider", payload.Provider))

	s.fetchProfileImage(r, &payload)

	if err := s.processor.ProcessScrapingResult(r.Context(), payload); err != nil {
		s.logger.Error("scraping result not applied",
			zap.String("request_id", RequestID(r.Context())),
			zap.Int64("profile_id", payload.ProfileID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": msgProcessed})
}

// fetchProfileImage downloads the remote profile picture next to the run's
// profile artifacts and rewrites the raw and profile-data files so they
// reference the local copy. Failures are logged and ignored.
func (s *Server) fetchProfileImage(r *http.Request, payload *tracker.ResultPayload) {
	if payload.ProfilePicURL == "" || payload.ProfileDir == "" {
		return
	}
	if !artifacts.IsImageURL(payload.ProfilePicURL) {
		s.logger.Warn("profile picture url not fetchable", zap.String("url", payload.ProfilePicURL))
		return
	}

	imgPath, err := artifacts.ImagePath(payload.ProfileDir, payload.Username, payload.ProfilePicURL)
	if err != nil {
		s.logger.Warn("profile image path not derivable",
			zap.String("url", payload.ProfilePicURL), zap.Error(err))
		return
	}
	payload.ImagePath = imgPath

	if err := artifacts.DownloadResource(r.Context(), s.images, payload.ProfilePicURL, imgPath); err != nil {
		s.logger.Warn("profile image download failed",
			zap.Int64("profile_id", payload.ProfileID),
			zap.String("url", payload.ProfilePicURL),
			zap.Error(err))
		return
	}

	payload.LocalProfilePic = imgPath
	if payload.RawResult != nil {
		payload.RawResult["local_profile_pic"] = imgPath
	}

	if payload.RawPath != "" {
		if err := artifacts.WriteJSON(payload.RawPath, payload); err != nil {
			s.logger.Warn("raw artifact not rewritten", zap.String("path", payload.RawPath), zap.Error(err))
		}
	}
	if payload.ProfileDir != "" {
		raw := payload.RawResult
		if raw == nil {
			raw = map[string]any{}
		}
		path := filepath.Join(payload.ProfileDir, "profile-data.json")
		if err := artifacts.WriteJSON(path, raw); err != nil {
			s.logger.Warn("profile data not rewritten", zap.String("path", path), zap.Error(err))
		}
	}
}
