package handlers

import (
	"encoding/json"
	"net/http"

	"langsite/config"
	"langsite/internal/i18n"
	"langsite/internal/logger"
	"langsite/middleware"
)

// ConfigResponse holds the public configuration exposed to the frontend.
type ConfigResponse struct {
	DefaultLanguage    string   `json:"defaultLanguage"`
	SupportedLanguages []string `json:"supportedLanguages"`
	StorageBackend     string   `json:"storageBackend"`
	MinPasswordLength  int      `json:"minPasswordLength"`
	MinNameLength      int      `json:"minNameLength"`
}

// GetConfig returns the public part of the configuration.
func GetConfig(cfg config.Config, catalog *i18n.Catalog, minPassword, minName int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())

		resp := ConfigResponse{
			DefaultLanguage:   string(catalog.Default()),
			StorageBackend:    cfg.Storage.Backend,
			MinPasswordLength: minPassword,
			MinNameLength:     minName,
		}
		for _, lang := range catalog.Supported() {
			resp.SupportedLanguages = append(resp.SupportedLanguages, string(lang))
		}
		if resp.SupportedLanguages == nil {
			resp.SupportedLanguages = []string{}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.HTTPError(r.Method, r.URL.Path, http.StatusInternalServerError, err).
				Str("request_id", requestID).
				Msg("failed to encode config response")
			return
		}

		logger.HTTPEvent(r.Method, r.URL.Path, http.StatusOK, 0).
			Str("request_id", requestID).
			Msg("config retrieved")
	}
}
