package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Chative-core-poc-v1/voice/internal/assistant/model"
	errx "github.com/Chative-core-poc-v1/voice/internal/core/error"
	logx "github.com/Chative-core-poc-v1/voice/pkg/logger"
)

const defaultHistoryLimit = 20

// Sessions runs dialogue sessions and exposes their history.
type Sessions interface {
	Serve(ctx context.Context, ws *websocket.Conn) error
	History(ctx context.Context, sessionID string, limit int) (model.HistoryPage, bool, error)
	ClearHistory(ctx context.Context, sessionID string) (bool, error)
}

// Server is the HTTP host for the browser bridge.
type Server struct {
	base     context.Context
	sessions Sessions
	upgrader websocket.Upgrader
	origins  map[string]struct{}
	log      zerolog.Logger
}

// New returns a server whose sessions live until base is done.
// Pages are accepted from the server's own host and from allowedOrigins
// ("scheme://host[:port]", or "*" for any).
func New(base context.Context, sessions Sessions, allowedOrigins []string) *Server {
	s := &Server{
		base:     base,
		sessions: sessions,
		origins:  make(map[string]struct{}, len(allowedOrigins)),
		log:      logx.With("http"),
	}
	for _, o := range allowedOrigins {
		if o = strings.TrimRight(strings.ToLower(strings.TrimSpace(o)), "/"); o != "" {
			s.origins[o] = struct{}{}
		}
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if _, ok := s.origins["*"]; ok {
		return true
	}
	_, ok := s.origins[strings.ToLower(u.Scheme+"://"+u.Host)]
	if !ok {
		s.log.Warn().Str("origin", origin).Str("remote", r.RemoteAddr).Msg("websocket origin rejected")
	}
	return ok
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.serveWS)
	r.Get("/sessions/{id}/history", s.history)
	r.Delete("/sessions/{id}/history", s.clearHistory)
	return r
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	if err := s.sessions.Serve(s.base, ws); err != nil && s.base.Err() == nil {
		s.log.Warn().Err(err).Msg("session ended with error")
	}
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	page, enabled, err := s.sessions.History(r.Context(), id, limit)
	switch {
	case !enabled:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
	case err != nil:
		s.log.Error().Err(err).Str("session_id", id).Msg("failed to load history")
		writeJSON(w, storageStatus(err), map[string]string{"error": "history unavailable"})
	default:
		writeJSON(w, http.StatusOK, page)
	}
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	enabled, err := s.sessions.ClearHistory(r.Context(), id)
	switch {
	case !enabled:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "history disabled"})
	case err != nil:
		s.log.Error().Err(err).Str("session_id", id).Msg("failed to clear history")
		writeJSON(w, storageStatus(err), map[string]string{"error": "history unavailable"})
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func storageStatus(err error) int {
	if errx.KindOf(err) == errx.KindStorage {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
