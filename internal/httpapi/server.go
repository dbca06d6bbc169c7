package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/denizyalin/museguide/internal/config"
	"github.com/denizyalin/museguide/internal/convo"
	"github.com/denizyalin/museguide/internal/errlog"
	"github.com/denizyalin/museguide/internal/exhibits"
	"github.com/denizyalin/museguide/internal/gateway"
	"github.com/denizyalin/museguide/internal/guide"
	"github.com/denizyalin/museguide/internal/observability"
	"github.com/denizyalin/museguide/internal/retrieval"
	"github.com/denizyalin/museguide/internal/usage"
)

// Guide is the answer pipeline surface the HTTP layer depends on.
type Guide interface {
	Ask(ctx context.Context, userID, question, code string) (guide.Answer, error)
	Reset(userID string)
}

type Server struct {
	cfg       config.Config
	guide     Guide
	convos    *convo.Manager
	catalog   *exhibits.Catalog
	retriever retrieval.Retriever
	gateway   *gateway.Gateway
	sink      *errlog.Sink
	tracker   *usage.Tracker
	activity  *usage.Activity
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader
}

func New(
	cfg config.Config,
	g Guide,
	convos *convo.Manager,
	catalog *exhibits.Catalog,
	retriever retrieval.Retriever,
	gw *gateway.Gateway,
	sink *errlog.Sink,
	tracker *usage.Tracker,
	activity *usage.Activity,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:       cfg,
		guide:     g,
		convos:    convos,
		catalog:   catalog,
		retriever: retriever,
		gateway:   gw,
		sink:      sink,
		tracker:   tracker,
		activity:  activity,
		metrics:   metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only same-origin browser connections unless the
				// deployment explicitly opens the socket up.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/v1/chat", s.handleChat)
	r.Get("/api/v1/chat/ws", s.handleChatWS)
	r.Post("/api/v1/chat/reset", s.handleChatReset)
	r.Get("/api/v1/qr/{code}", s.handleQRLookup)
	r.Get("/api/v1/exhibits", s.handleListExhibits)
	r.Get("/api/v1/errors", s.handleListErrors)
	r.Get("/api/v1/usage", s.handleUsage)
	r.Get("/api/v1/perf", s.handlePerf)
	r.Get("/api/v1/admin/keys", s.handleKeyInfo)
	r.Post("/api/v1/admin/reload-keys", s.handleReloadKeys)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"exhibits": s.catalog.Stats().Total,
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	info := s.gateway.Info()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":       "ready",
		"llm_model":    info.Model,
		"llm_keys":     info.TotalKeys,
		"active_chats": s.convos.ActiveCount(),
	})
}

type chatRequest struct {
	UserID   string `json:"user_id"`
	Question string `json:"question"`
	QRID     string `json:"qr_id,omitempty"`
}

type chatResponse struct {
	guide.Answer
	UserID string `json:"user_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "missing_question", "question is required")
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		// Fresh anonymous session. The id is echoed back so the client
		// can keep the conversation going on later requests.
		req.UserID = "anon-" + uuid.NewString()
	}

	answer, err := s.guide.Ask(r.Context(), req.UserID, req.Question, req.QRID)
	if err != nil {
		s.respondAskError(w, err)
		return
	}
	if s.metrics != nil {
		s.metrics.ActiveConversations.Set(float64(s.convos.ActiveCount()))
	}
	respondJSON(w, http.StatusOK, chatResponse{Answer: answer, UserID: req.UserID})
}

func (s *Server) respondAskError(w http.ResponseWriter, err error) {
	var exhausted *gateway.ExhaustedError
	switch {
	case errors.As(err, &exhausted):
		respondError(w, http.StatusServiceUnavailable, "llm_unavailable", exhausted.Error())
	case errors.Is(err, gateway.ErrNoCredentials):
		respondError(w, http.StatusServiceUnavailable, "llm_unavailable", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (s *Server) handleChatReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.UserID) == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	s.guide.Reset(req.UserID)
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleQRLookup(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		respondError(w, http.StatusBadRequest, "missing_code", "qr code is required")
		return
	}

	result := s.catalog.Lookup(r.Context(), code, s.retriever)
	if s.activity != nil && result.ExhibitID != "UNKNOWN" {
		s.activity.TrackScan(code, result.Title)
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleListExhibits(w http.ResponseWriter, _ *http.Request) {
	all := s.catalog.All()
	respondJSON(w, http.StatusOK, map[string]any{
		"exhibits": all,
		"total":    len(all),
	})
}

func (s *Server) handleListErrors(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records := s.sink.Recent(limit)
	respondJSON(w, http.StatusOK, map[string]any{
		"errors": records,
		"count":  len(records),
	})
}

func (s *Server) handleUsage(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{"tokens": s.tracker.Stats()}
	if s.activity != nil {
		resp["activity"] = s.activity.Stats()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePerf(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		respondError(w, http.StatusNotImplemented, "unavailable", "metrics not configured")
		return
	}
	respondJSON(w, http.StatusOK, s.metrics.SnapshotStages())
}

func (s *Server) handleKeyInfo(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.gateway.Info())
}

func (s *Server) handleReloadKeys(w http.ResponseWriter, _ *http.Request) {
	keys := config.GeminiKeysFromEnv()
	if err := s.gateway.Reload(keys); err != nil {
		respondError(w, http.StatusBadRequest, "reload_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.gateway.Info())
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
