package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Service is the request/response contract the transport calls into.
type Service interface {
	GetEvents(ctx context.Context, forceRefresh bool) (*EventsResponse, error)
	GetEventDetail(ctx context.Context, client, eventID string) (*EventDetail, error)
	Sources() []Source
}

// HTTPHandler exposes the calendar over REST.
type HTTPHandler struct {
	service Service
	logger  *zap.Logger
	timeout time.Duration
	router  chi.Router
}

// NewHTTPHandler constructs the HTTP handler and wires routes. timeout
// bounds every request; zero means ten seconds.
func NewHTTPHandler(service Service, logger *zap.Logger, timeout time.Duration) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	h := &HTTPHandler{
		service: service,
		logger:  logger,
		timeout: timeout,
	}
	h.buildRouter()
	return h
}

func (h *HTTPHandler) buildRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.timeout))

	r.Get("/healthz", h.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", h.handleEvents)
		r.Get("/events/detail", h.handleEventDetail)
		r.Get("/sources", h.handleSources)
	})

	h.router = r
}

// Router exposes the configured chi router.
func (h *HTTPHandler) Router() http.Handler {
	return h.router
}

func (h *HTTPHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *HTTPHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	force := false
	if raw := r.URL.Query().Get("forceRefresh"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "forceRefresh must be a boolean")
			return
		}
		force = parsed
	}

	resp, err := h.service.GetEvents(r.Context(), force)
	if err != nil {
		h.logger.Error("get events failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *HTTPHandler) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	detail, err := h.service.GetEventDetail(r.Context(), q.Get("client"), q.Get("eventId"))
	if err != nil {
		h.logger.Warn("get event detail failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("client", q.Get("client")),
			zap.String("event_id", q.Get("eventId")),
			zap.Error(err),
		)
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (h *HTTPHandler) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": h.service.Sources(),
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrMissingParameter):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownSource):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
