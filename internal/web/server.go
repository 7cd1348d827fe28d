package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kongswap/treasury-adaptor/internal/adaptor"
	"github.com/kongswap/treasury-adaptor/internal/audit"
	"github.com/kongswap/treasury-adaptor/internal/config"
	"github.com/kongswap/treasury-adaptor/internal/logger"
	"github.com/kongswap/treasury-adaptor/internal/state"
	"github.com/kongswap/treasury-adaptor/internal/types"
	"github.com/kongswap/treasury-adaptor/internal/validation"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the adaptor's service surface over HTTP.
type WebServer struct {
	router  *mux.Router
	port    string
	service *adaptor.Service
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, service *adaptor.Service) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router:  mux.NewRouter(),
		port:    port,
		service: service,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")
	ws.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := ws.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/balances", ws.handleBalances).Methods("GET")
	api.HandleFunc("/audit_trail", ws.handleAuditTrail).Methods("GET")

	// Mutating endpoints are reserved for the instance's controllers.
	api.Handle("/deposit", ws.controllerOnly(http.HandlerFunc(ws.handleDeposit))).Methods("POST")
	api.Handle("/withdraw", ws.controllerOnly(http.HandlerFunc(ws.handleWithdraw))).Methods("POST")

	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// allowanceRequest is one allowance as submitted by the governance body.
type allowanceRequest struct {
	Symbol       string          `json:"symbol"`
	LedgerID     types.Principal `json:"ledger_id"`
	LedgerFee    uint64          `json:"ledger_fee"`
	Amount       uint64          `json:"amount"`
	OwnerAccount types.Account   `json:"owner_account"`
}

type depositRequest struct {
	Allowances []allowanceRequest `json:"allowances"`
}

type withdrawRequest struct {
	// WithdrawAccounts maps ledger id to destination account. Missing
	// entries fall back to the owner accounts captured at init.
	WithdrawAccounts map[types.Principal]types.Account `json:"withdraw_accounts,omitempty"`
}

func (ws *WebServer) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	allowances := make([]validation.Allowance, 0, len(req.Allowances))
	for _, a := range req.Allowances {
		asset, err := validation.NewAsset(a.Symbol, a.LedgerID, a.LedgerFee)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		allowance, err := validation.ValidateAllowance(asset, a.Amount, a.OwnerAccount)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		allowances = append(allowances, allowance)
	}

	position, errs := ws.service.Deposit(r.Context(), allowances)
	ws.writeOperationResponse(w, position, errs)
}

func (ws *WebServer) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req withdrawRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	position, errs := ws.service.Withdraw(r.Context(), req.WithdrawAccounts)
	ws.writeOperationResponse(w, position, errs)
}

func (ws *WebServer) handleBalances(w http.ResponseWriter, r *http.Request) {
	ws.writeJSONResponse(w, http.StatusOK, ws.service.Balances())
}

func (ws *WebServer) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	records := ws.service.AuditTrail()
	rendered := make([]json.RawMessage, 0, len(records))
	for _, record := range records {
		rendered = append(rendered, json.RawMessage(audit.Render(record)))
	}

	response := map[string]interface{}{
		"records": rendered,
		"count":   len(rendered),
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	position := ws.service.Balances()

	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"adaptor_status": map[string]interface{}{
			"database_healthy":       dbHealthy,
			"last_reconciliation_ns": position.TimestampNS,
			"managed_pair":           position.Asset0.Symbol.String() + "/" + position.Asset1.Symbol.String(),
			"audit_trail_records":    len(ws.service.AuditTrail()),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

func (ws *WebServer) writeOperationResponse(w http.ResponseWriter, position interface{}, errs []*types.Error) {
	if len(errs) == 0 {
		ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"position": position,
		})
		return
	}

	statusCode := http.StatusUnprocessableEntity
	for _, err := range errs {
		if err.Kind == types.KindTemporarilyUnavailable {
			statusCode = http.StatusConflict
		}
	}
	ws.writeJSONResponse(w, statusCode, map[string]interface{}{
		"position": position,
		"errors":   errs,
	})
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// controllerOnly rejects callers that do not present the controller token.
func (ws *WebServer) controllerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("Authorization")
		if token != "Bearer "+config.ControllerToken {
			ws.writeErrorResponse(w, http.StatusForbidden, "Caller is not a controller")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
