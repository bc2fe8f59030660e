package httpx

import (
	"context"
	"errors"
	"net/http"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
	"github.com/ipcproject/luna/internal/service/analytics"
	"github.com/ipcproject/luna/internal/service/registry"
	"github.com/ipcproject/luna/internal/service/settings"
	"github.com/ipcproject/luna/internal/ws"
)

// roleHeader carries the caller role resolved by the gateway in front of
// this service. Authentication itself happens there, not here.
const roleHeader = "X-Caller-Role"

const healthCheckTimeout = 2 * time.Second

// Router wires HTTP endpoints to services.
type Router struct {
	mux          *http.ServeMux
	logger       *slog.Logger
	analytics    *analytics.Service
	settings     settings.Service
	registry     registry.Service
	hub          *ws.Hub
	upgrader     websocket.Upgrader
	queryTimeout time.Duration
	dbHealth     func(context.Context) error
}

// NewRouter assembles routes with dependencies.
func NewRouter(logger *slog.Logger, analyticsSvc *analytics.Service, settingsSvc settings.Service, registrySvc registry.Service, hub *ws.Hub, queryTimeout time.Duration, dbHealth func(context.Context) error) *Router {
	if queryTimeout <= 0 {
		queryTimeout = 30 * time.Second
	}
	r := &Router{
		mux:       http.NewServeMux(),
		logger:    logger,
		analytics: analyticsSvc,
		settings:  settingsSvc,
		registry:  registrySvc,
		hub:       hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		queryTimeout: queryTimeout,
		dbHealth:     dbHealth,
	}
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.handleHealthz)
	r.mux.HandleFunc("/api/request-log", r.withQueryTimeout(r.handleDashboard))
	r.mux.HandleFunc("/api/request-log/overview", r.withQueryTimeout(r.handleOverview))
	r.mux.HandleFunc("/api/configuration", r.handleConfiguration)
	r.mux.HandleFunc("/api/application", r.handleApplications)
	r.mux.HandleFunc("/ws/alerts", r.handleAlertsWS)
}

// withQueryTimeout bounds the cross-tenant query and aggregation work; a
// disconnecting client cancels the request context and abandons the call.
func (r *Router) withQueryTimeout(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), r.queryTimeout)
		defer cancel()
		next(w, req.WithContext(ctx))
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	if r.dbHealth != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.dbHealth(ctx); err != nil {
			r.logger.Warn("health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) handleAlertsWS(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := ws.NewClient(conn, r.logger)
	r.hub.Register(ws.AlertChannel, client)
	defer func() {
		r.hub.Unregister(ws.AlertChannel, client)
		client.Close()
	}()
	// Hold the connection open; clients only receive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// respondServiceError maps core errors onto HTTP statuses. Validation and
// configuration errors carry detail; storage failures stay opaque.
func (r *Router) respondServiceError(w http.ResponseWriter, req *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, settings.ErrConfigUnavailable):
		r.logger.Error("configuration unavailable", "path", req.URL.Path, "error", err)
		writeError(w, http.StatusServiceUnavailable, "configuration unavailable")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repository.ErrQueryFailed):
		r.logger.Error("log query failed", "path", req.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to query request logs")
	case errors.Is(err, context.DeadlineExceeded):
		r.logger.Warn("request timed out", "path", req.URL.Path)
		writeError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		r.logger.Error("request failed", "path", req.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
