package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"langsite/internal/i18n"
	"langsite/internal/logger"
	"langsite/middleware"
)

// RegisterI18nRoutes exposes the translation tables as JSON.
func RegisterI18nRoutes(router chi.Router, catalog *i18n.Catalog) {
	router.Get("/api/i18n", func(writer http.ResponseWriter, request *http.Request) {
		language := resolveLanguage(request, catalog)
		payload := i18n.Response{
			Language: language,
			Messages: catalog.Table(language).Entries(),
		}
		writer.Header().Set("Content-Type", "application/json")
		encodeError := json.NewEncoder(writer).Encode(payload)
		if encodeError != nil {
			requestID := middleware.GetRequestID(request.Context())
			logger.HTTPError(request.Method, request.URL.Path, http.StatusInternalServerError, encodeError).
				Str("request_id", requestID).
				Msg("failed to encode i18n response")
			writer.WriteHeader(http.StatusInternalServerError)
		}
	})
}

// resolveLanguage picks the ?lang= query value, then Accept-Language, then the default.
func resolveLanguage(request *http.Request, catalog *i18n.Catalog) i18n.Language {
	if queryLanguage := request.URL.Query().Get("lang"); queryLanguage != "" {
		if language, ok := catalog.Parse(queryLanguage); ok {
			return language
		}
	}
	if language, ok := catalog.FromAcceptLanguage(request.Header.Get("Accept-Language")); ok {
		return language
	}
	return catalog.Default()
}
