package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"whorep/internal/export"
	"whorep/internal/hierarchy"
	"whorep/internal/metrics"
	"whorep/internal/search"
	"whorep/internal/store"
	"whorep/internal/traverse"
)

const maxImportBytes = 8 << 20

type requestIDKey struct{}

type HTTPServer struct {
	service    *Service
	corsOrigin string
	metrics    *metrics.Metrics
	promHTTP   http.Handler
	logger     *slog.Logger
}

// NewHTTPServer wires the API. A nil gatherer disables /metrics.
func NewHTTPServer(service *Service, corsOrigin string, m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {
	s := &HTTPServer{
		service:    service,
		corsOrigin: corsOrigin,
		metrics:    m,
		logger:     service.logger.With("component", "http"),
	}
	if gatherer != nil {
		s.promHTTP = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
	}
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/metrics" {
		if s.promHTTP == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
			return
		}
		s.promHTTP.ServeHTTP(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/sessions" {
		s.handleCreateSession(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/sessions/import" {
		s.handleImportSession(w, r)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) >= 3 && parts[0] == "api" && parts[1] == "sessions" {
		s.handleSession(w, r, parts[2], parts[3:])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}
	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}
	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Address string `json:"address"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	build, err := s.service.Build(r.Context(), strings.TrimSpace(body.Address))
	if err != nil {
		s.fail(w, err)
		return
	}
	notices := build.Notices
	if notices == nil {
		notices = []Notice{}
	}
	id := s.service.Sessions.Open(build.Hierarchy, notices)
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": id,
		"view":      traverse.New(build.Hierarchy).View(),
		"notices":   notices,
	})
}

func (s *HTTPServer) handleImportSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "could not read body", nil)
		return
	}
	h, err := s.service.Open(data)
	if err != nil {
		s.fail(w, err)
		return
	}
	id := s.service.Sessions.Open(h, []Notice{})
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": id,
		"view":      traverse.New(h).View(),
	})
}

func (s *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request, id string, rest []string) {
	switch {
	case len(rest) == 0 && r.Method == http.MethodGet:
		s.withSession(w, id, func(m *traverse.Machine, notices []Notice) error {
			writeJSON(w, http.StatusOK, map[string]any{"view": m.View(), "notices": notices})
			return nil
		})
	case len(rest) == 0 && r.Method == http.MethodDelete:
		if !s.service.Sessions.Close(id) {
			s.fail(w, ErrSessionNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	case len(rest) == 1 && rest[0] == "input" && r.Method == http.MethodPost:
		s.handleInput(w, r, id)
	case len(rest) == 1 && rest[0] == "tally" && r.Method == http.MethodGet:
		s.withSession(w, id, func(m *traverse.Machine, _ []Notice) error {
			tally := m.Tally()
			writeJSON(w, http.StatusOK, map[string]any{
				"state": m.State(),
				"total": tally.Total(),
				"tally": nonNilTally(tally.Entries()),
			})
			return nil
		})
	case len(rest) == 1 && rest[0] == "export" && r.Method == http.MethodGet:
		s.handleExport(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	}
}

func (s *HTTPServer) handleInput(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Input json.RawMessage `json:"input"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	in := traverse.Parse(inputText(body.Input))
	s.withSession(w, id, func(m *traverse.Machine, _ []Notice) error {
		view, err := m.Apply(in)
		if err != nil {
			return err
		}
		writeJSON(w, http.StatusOK, map[string]any{"view": view})
		return nil
	})
}

// inputText accepts both "2" and 2 as the input value.
func inputText(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return strconv.Itoa(n)
	}
	return ""
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request, id string) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.fail(w, err)
		return
	}
	var h *hierarchy.Hierarchy
	if err := s.service.Sessions.With(id, func(m *traverse.Machine, _ []Notice) error {
		h = m.Hierarchy()
		return nil
	}); err != nil {
		s.fail(w, err)
		return
	}

	if publish, _ := strconv.ParseBool(r.URL.Query().Get("publish")); publish {
		location, err := s.service.Publish(r.Context(), h, format)
		if err != nil {
			s.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"location": location})
		return
	}

	result, err := s.service.Export(r.Context(), h, format)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", result.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))
	group := strings.ToLower(strings.TrimSpace(query.Get("level")))
	if group == "" {
		group = strings.ToLower(strings.TrimSpace(query.Get("group")))
	}
	if group != "" && !validGroup(group) {
		writeError(w, http.StatusBadRequest, "INVALID_LEVEL", "unknown level", map[string]any{"level": group})
		return
	}
	resp := s.service.Search(r.Context(), search.Query{
		Text:   strings.TrimSpace(query.Get("q")),
		Group:  group,
		Limit:  limit,
		Offset: offset,
	})
	writeJSON(w, http.StatusOK, resp)
}

func validGroup(group string) bool {
	for _, kind := range hierarchy.GroupKinds {
		if store.GroupKey(kind) == group {
			return true
		}
	}
	return false
}

// withSession runs fn on the session's machine and maps its error.
func (s *HTTPServer) withSession(w http.ResponseWriter, id string, fn func(m *traverse.Machine, notices []Notice) error) {
	var current traverse.View
	err := s.service.Sessions.With(id, func(m *traverse.Machine, notices []Notice) error {
		current = m.View()
		return fn(m, notices)
	})
	if err == nil {
		return
	}
	if errors.Is(err, traverse.ErrInvalidSelection) {
		writeError(w, http.StatusUnprocessableEntity, "INVALID_SELECTION", "Invalid entry", map[string]any{"view": current})
		return
	}
	s.fail(w, err)
}

func (s *HTTPServer) fail(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		s.metrics.HTTPRequest(r.Method, strconv.Itoa(writer.status))
		s.logger.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", writer.status,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func nonNilTally(entries []hierarchy.TallyEntry) []hierarchy.TallyEntry {
	if entries == nil {
		return []hierarchy.TallyEntry{}
	}
	return entries
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "Session not found", nil
	case errors.Is(err, traverse.ErrSessionEnded):
		return http.StatusGone, "SESSION_ENDED", "Session has ended", nil
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	case errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error(), nil
	case errors.Is(err, export.ErrPDFDependencyMissing):
		return http.StatusNotImplemented, "PDF_UNAVAILABLE", err.Error(), nil
	case errors.Is(err, export.ErrPublishingDisabled):
		return http.StatusNotImplemented, "PUBLISHING_DISABLED", err.Error(), nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
