package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"lounge/internal/config"
	"lounge/internal/domain"
	"lounge/internal/export"
	"lounge/internal/metrics"
	"lounge/internal/models"
	"lounge/internal/schedule"
	"lounge/internal/service"

	"golang.org/x/time/rate"
)

// HTTPServer exposes the status and booking-draft API the site pages
// call.
type HTTPServer struct {
	cfg      config.APIConfig
	drafts   domain.DraftService
	status   domain.StatusService
	archive  domain.RequestArchive
	exporter *export.Exporter
	server   *http.Server
	auth     *HTTPAuth
}

func NewHTTPServer(cfg config.APIConfig, drafts domain.DraftService, status domain.StatusService, archive domain.RequestArchive, exporter *export.Exporter) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{cfg: cfg, drafts: drafts, status: status, archive: archive, exporter: exporter}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/status", srv.handleStatus)
	mux.HandleFunc("/api/v1/draft/", srv.handleDraft)
	mux.HandleFunc("/api/v1/submit", srv.handleSubmit)
	mux.HandleFunc("/api/v1/requests", srv.handleRequests)
	mux.HandleFunc("/api/v1/requests/export", srv.handleRequestsExport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	log.Printf("HTTP API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler chain; used by tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statusResponse struct {
	IsOpen        bool   `json:"is_open"`
	ClosesAt      string `json:"closes_at,omitempty"`
	NextOpensAt   string `json:"next_opens_at,omitempty"`
	NextOpensText string `json:"next_opens_text,omitempty"`
	StatusText    string `json:"status_text"`
}

func (s *HTTPServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("status")

	st := s.status.Current()
	resp := statusResponse{
		IsOpen:     st.IsOpen,
		StatusText: s.status.StatusText(),
	}
	if st.ClosesAt != nil {
		resp.ClosesAt = st.ClosesAt.Format(time.RFC3339)
	}
	if st.NextOpensAt != nil {
		resp.NextOpensAt = st.NextOpensAt.Format(time.RFC3339)
		resp.NextOpensText = schedule.FormatOpening(st.NextOpensAt)
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleDraft(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/draft/"
	sessionID := strings.TrimPrefix(r.URL.Path, prefix)
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusBadRequest, "session id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		metrics.IncHTTP("draft_restore")
		draft, err := s.drafts.Restore(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to restore draft")
			return
		}
		writeJSON(w, http.StatusOK, draft)

	case http.MethodPut:
		metrics.IncHTTP("draft_save")
		var draft models.BookingDraft
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&draft); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.drafts.Save(r.Context(), sessionID, draft); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save draft")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})

	case http.MethodDelete:
		metrics.IncHTTP("draft_clear")
		draft, err := s.drafts.Clear(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to clear draft")
			return
		}
		writeJSON(w, http.StatusOK, draft)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

type submitRequest struct {
	SessionID string              `json:"session_id"`
	Draft     models.BookingDraft `json:"draft"`
}

type submitResponse struct {
	RequestID string `json:"request_id"`
	Message   string `json:"message"`
	Mailto    string `json:"mailto,omitempty"`
}

func (s *HTTPServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("submit")

	var body submitRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.SessionID) == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	req, message, err := s.drafts.Submit(r.Context(), body.SessionID, body.Draft)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   "missing required fields",
				"missing": verr.Missing,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to submit booking request")
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		RequestID: req.ID,
		Message:   message,
		Mailto:    s.drafts.MailtoLink(body.Draft, message),
	})
}

func (s *HTTPServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("requests")

	start, end, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests, err := s.archive.ListRequests(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

func (s *HTTPServer) handleRequestsExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	metrics.IncHTTP("requests_export")

	if s.exporter == nil {
		writeError(w, http.StatusNotImplemented, "export is not configured")
		return
	}

	start, end, err := parsePeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	requests, err := s.archive.ListRequests(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}

	filename, err := s.exporter.ExportRequests(requests, start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to export requests")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file": filename})
}

// parsePeriod reads start/end query params (YYYY-MM-DD); end is
// exclusive and defaults to the month after start.
func parsePeriod(r *http.Request) (time.Time, time.Time, error) {
	startStr := strings.TrimSpace(r.URL.Query().Get("start"))
	if startStr == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("start is required")
	}
	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start date; expected YYYY-MM-DD")
	}

	end := start.AddDate(0, 1, 0)
	if endStr := strings.TrimSpace(r.URL.Query().Get("end")); endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end date; expected YYYY-MM-DD")
		}
	}

	return start, end, nil
}

// HTTPAuth provides API-key auth and per-key rate limiting.
type HTTPAuth struct {
	cfg      config.APIConfig
	clients  map[string]config.APIClientKey
	limiters sync.Map // map[string]*rate.Limiter
}

func NewHTTPAuth(cfg config.APIConfig) *HTTPAuth {
	m := make(map[string]config.APIClientKey, len(cfg.Auth.APIKeys))
	for _, k := range cfg.Auth.APIKeys {
		m[k.Key] = k
	}
	return &HTTPAuth{cfg: cfg, clients: m}
}

func (a *HTTPAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.Auth.Enabled {
			if err := a.checkAuth(r); err != nil {
				statusCode := http.StatusUnauthorized
				if err == errPermissionDenied {
					statusCode = http.StatusForbidden
				}
				writeError(w, statusCode, err.Error())
				return
			}
		}

		if err := a.checkRateLimit(r); err != nil {
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}

var errPermissionDenied = fmt.Errorf("permission denied")

func (a *HTTPAuth) checkAuth(r *http.Request) error {
	// The public page endpoints stay open; auth guards the staff
	// surface only.
	if requiredPermission(r) == "" {
		return nil
	}

	apiKeyHeader := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if apiKeyHeader == "" {
		apiKeyHeader = "x-api-key"
	}

	apiKey := strings.TrimSpace(r.Header.Get(apiKeyHeader))
	if apiKey == "" {
		return fmt.Errorf("missing api key header")
	}

	client, ok := a.clients[apiKey]
	if !ok || subtle.ConstantTimeCompare([]byte(client.Key), []byte(apiKey)) != 1 {
		return fmt.Errorf("invalid api key")
	}

	return a.checkPermissions(client, r)
}

func (a *HTTPAuth) checkPermissions(client config.APIClientKey, r *http.Request) error {
	required := requiredPermission(r)
	if required == "" {
		return nil
	}
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == required {
			return nil
		}
	}
	return errPermissionDenied
}

func requiredPermission(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/api/v1/requests") {
		return "read:requests"
	}
	return ""
}

func (a *HTTPAuth) checkRateLimit(r *http.Request) error {
	if a.cfg.RateLimit.RPS <= 0 {
		return nil
	}

	key := a.clientKey(r)
	lim := a.getLimiter(key)
	if !lim.Allow() {
		return fmt.Errorf("rate limit exceeded")
	}
	return nil
}

func (a *HTTPAuth) clientKey(r *http.Request) string {
	apiKeyHeader := strings.TrimSpace(strings.ToLower(a.cfg.Auth.HeaderAPIKey))
	if apiKeyHeader == "" {
		apiKeyHeader = "x-api-key"
	}

	if apiKey := strings.TrimSpace(r.Header.Get(apiKeyHeader)); apiKey != "" {
		return apiKey
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return "unknown"
}

func (a *HTTPAuth) getLimiter(key string) *rate.Limiter {
	if v, ok := a.limiters.Load(key); ok {
		return v.(*rate.Limiter)
	}

	burst := a.cfg.RateLimit.Burst
	if burst <= 0 {
		burst = 5
	}

	lim := rate.NewLimiter(rate.Limit(a.cfg.RateLimit.RPS), burst)
	actual, loaded := a.limiters.LoadOrStore(key, lim)
	if loaded {
		return actual.(*rate.Limiter)
	}
	return lim
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)
		log.Printf("http method=%s path=%s status=%d dur=%s", r.Method, r.URL.Path, recorder.status, dur)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
