// Package server is the browser-facing HTTP surface. The live endpoint
// streams enrichment snapshots as Server-Sent Events so the UI can render
// each participant as it settles.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"league-tracker/internal/api"
	"league-tracker/internal/config"
	"league-tracker/internal/domain"
	"league-tracker/internal/gateway"
	"league-tracker/internal/regions"
	"league-tracker/internal/service"
)

const credentialHeader = "X-Riot-Token"

type Server struct {
	live   *service.LiveGameService
	cfg    *config.Config
	logger zerolog.Logger
}

func New(live *service.LiveGameService, cfg *config.Config, logger zerolog.Logger) *Server {
	return &Server{live: live, cfg: cfg, logger: logger}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/api/live/{name}/{tag}", s.handleLive)
	r.Get("/api/search", s.handleSearch)
	r.Get("/api/regions", s.handleRegions)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_name", "player name is not valid"))
		return
	}
	tag, err := url.PathUnescape(chi.URLParam(r, "tag"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_tag", "player tag is not valid"))
		return
	}
	region := r.URL.Query().Get("region")

	apiKey := r.Header.Get(credentialHeader)
	if apiKey == "" {
		apiKey = s.cfg.RiotAPIKey
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody("streaming_unsupported", "response writer does not support streaming"))
		return
	}

	streaming := false
	publish := func(snap domain.Snapshot) {
		if !streaming {
			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.Header().Set("Connection", "keep-alive")
			w.WriteHeader(http.StatusOK)
			streaming = true
		}
		writeEvent(w, "snapshot", snap)
		flusher.Flush()
	}

	_, _, err = s.live.Watch(r.Context(), name, tag, region, apiKey, publish)
	if err != nil {
		if streaming {
			// Headers are gone; the error has to travel in-band.
			writeEvent(w, "error", errorBody(errorCode(err), userMessage(err)))
			flusher.Flush()
			return
		}
		status, body := errorResponse(err)
		writeJSON(w, status, body)
		return
	}

	writeEvent(w, "done", map[string]int{"progress": 100})
	flusher.Flush()
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	lookups, err := s.live.Suggestions(r.Context(), query)
	if err != nil {
		s.logger.Error().Err(err).Str("query", query).Msg("search failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("search_failed", "could not search recent lookups"))
		return
	}
	if lookups == nil {
		lookups = []domain.Lookup{}
	}
	writeJSON(w, http.StatusOK, lookups)
}

func (s *Server) handleRegions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, regions.Supported())
}

func errorResponse(err error) (int, map[string]string) {
	switch {
	case errors.Is(err, gateway.ErrForbidden):
		return http.StatusUnauthorized, errorBody("credential_invalid", userMessage(err))
	case errors.Is(err, service.ErrNotInGame):
		return http.StatusNotFound, errorBody("not_in_game", userMessage(err))
	case errors.Is(err, api.ErrAccountNotFound):
		return http.StatusNotFound, errorBody("account_not_found", userMessage(err))
	case errors.Is(err, gateway.ErrRateLimited):
		return http.StatusTooManyRequests, errorBody("rate_limited", userMessage(err))
	default:
		return http.StatusBadGateway, errorBody("upstream_failure", userMessage(err))
	}
}

func errorCode(err error) string {
	_, body := errorResponse(err)
	return body["code"]
}

// userMessage keeps the three user-visible cases distinct: a dead credential
// needs replacing, not-in-game is an expected state, everything else gets
// the generic message with the underlying error text.
func userMessage(err error) string {
	switch {
	case errors.Is(err, gateway.ErrForbidden):
		return "the API key was rejected; it has expired or is invalid, supply a new one"
	case errors.Is(err, service.ErrNotInGame):
		return "this player is not currently in an active game"
	case errors.Is(err, api.ErrAccountNotFound):
		return "no account exists with that name and tag"
	case errors.Is(err, gateway.ErrRateLimited):
		return "the upstream API is rate limiting requests, try again shortly"
	default:
		return fmt.Sprintf("lookup failed: %v", err)
	}
}

func errorBody(code, message string) map[string]string {
	return map[string]string{"code": code, "error": message}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
