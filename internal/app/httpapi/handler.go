// Package httpapi exposes the application services over a JSON REST API.
//
// Every response is wrapped in an envelope: {"success": true, ...payload}
// on success, {"success": false, "error": {"code", "message"}} on failure.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ArenaX-Network/arena_layer/internal/app"
	"github.com/ArenaX-Network/arena_layer/internal/app/metrics"
	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/internal/middleware"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// Options configures the HTTP surface around the handlers.
type Options struct {
	CORSOrigins     []string
	RateLimitPerSec float64
	RateLimitBurst  int
}

// Handler is the root HTTP handler of the gateway.
type Handler struct {
	app    *app.Application
	log    *logger.Logger
	router *mux.Router
	stream *streamHub
}

// publicPaths are reachable without credentials.
var publicPaths = []string{
	"/health",
	"/metrics",
	"/api/v1/auth/nonce",
	"/api/v1/auth/register",
	"/api/v1/auth/login",
	"/api/v1/auth/verify-email",
	"/api/v1/price",
}

// NewHandler builds the router with the full middleware chain applied.
func NewHandler(application *app.Application, opts Options, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.NewDefault("httpapi")
	}
	h := &Handler{app: application, log: log, router: mux.NewRouter()}
	h.stream = newStreamHub(log)
	h.routes()

	requestID := middleware.NewRequestIDMiddleware(log)
	cors := middleware.NewCORSMiddleware(opts.CORSOrigins)
	auth := middleware.NewAuthMiddleware(application.Auth, application.Auth, log, publicPaths)

	h.router.Use(
		requestID.Handler,
		cors.Handler,
		metrics.InstrumentHandler,
		auth.Handler,
	)
	if opts.RateLimitPerSec > 0 {
		limiter := middleware.NewRateLimiter(opts.RateLimitPerSec, opts.RateLimitBurst, log)
		h.router.Use(limiter.Handler)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	h.router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := h.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/nonce", h.handleAuthNonce).Methods(http.MethodPost)
	api.HandleFunc("/auth/register", h.handleAuthRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.handleAuthLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify-email", h.handleAuthVerifyEmail).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", h.handleAuthLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", h.handleAuthMe).Methods(http.MethodGet)

	api.HandleFunc("/agents", h.handleAgentCreate).Methods(http.MethodPost)
	api.HandleFunc("/agents", h.handleAgentList).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}", h.handleAgentGet).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}", h.handleAgentUpdate).Methods(http.MethodPut)
	api.HandleFunc("/agents/{id}/reset-key", h.handleAgentResetKey).Methods(http.MethodPost)
	api.HandleFunc("/agents/{id}/balances", h.handleAgentBalances).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}/trades", h.handleAgentTrades).Methods(http.MethodGet)
	api.HandleFunc("/agents/{id}/portfolio", h.handleAgentPortfolio).Methods(http.MethodGet)

	api.HandleFunc("/competitions", h.handleCompetitionList).Methods(http.MethodGet)
	api.HandleFunc("/competitions", h.handleCompetitionCreate).Methods(http.MethodPost)
	api.HandleFunc("/competitions/{id}", h.handleCompetitionGet).Methods(http.MethodGet)
	api.HandleFunc("/competitions/{id}/rules", h.handleCompetitionRules).Methods(http.MethodGet)
	api.HandleFunc("/competitions/{id}/leaderboard", h.handleCompetitionLeaderboard).Methods(http.MethodGet)
	api.HandleFunc("/competitions/{id}/start", h.handleCompetitionStart).Methods(http.MethodPost)
	api.HandleFunc("/competitions/{id}/end", h.handleCompetitionEnd).Methods(http.MethodPost)
	api.HandleFunc("/competitions/{id}/join", h.handleCompetitionJoin).Methods(http.MethodPost)
	api.HandleFunc("/competitions/{id}/leave", h.handleCompetitionLeave).Methods(http.MethodPost)
	api.HandleFunc("/competitions/{id}/disqualify", h.handleCompetitionDisqualify).Methods(http.MethodPost)

	api.HandleFunc("/trade/execute", h.handleTradeExecute).Methods(http.MethodPost)
	api.HandleFunc("/trade/quote", h.handleTradeQuote).Methods(http.MethodGet)

	api.HandleFunc("/competitions/{id}/perps/positions", h.handlePerpsPositions).Methods(http.MethodGet)
	api.HandleFunc("/competitions/{id}/perps/summary", h.handlePerpsSummary).Methods(http.MethodGet)
	api.HandleFunc("/competitions/{id}/perps/risk", h.handlePerpsRisk).Methods(http.MethodGet)
	api.HandleFunc("/competitions/{id}/perps/sync", h.handlePerpsSync).Methods(http.MethodPost)

	api.HandleFunc("/price", h.handlePrice).Methods(http.MethodGet)

	api.HandleFunc("/stream", h.handleStream).Methods(http.MethodGet)
}

// writeJSON writes the success envelope. payload keys are merged into the
// envelope alongside "success".
func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.WithError(err).Error("encode response")
	}
}

// jsonError writes the failure envelope, deriving status and code from the
// service error.
func (h *Handler) jsonError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.StatusOf(err)
	if status >= http.StatusInternalServerError {
		h.log.WithError(err).WithFields(map[string]any{
			"path":       r.URL.Path,
			"method":     r.Method,
			"request_id": middleware.GetRequestID(r.Context()),
		}).Error("request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    errors.CodeOf(err),
			"message": err.Error(),
		},
	})
}

// decodeJSON strictly decodes the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Validation("invalid request body").WithDetail(err.Error())
	}
	return nil
}
