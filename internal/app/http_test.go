package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"whorep/internal/hierarchy"
	"whorep/internal/metrics"
	"whorep/internal/search"
)

func newTestServer(t *testing.T, deps Deps) (*HTTPServer, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if deps.Civic == nil {
		deps.Civic = &fakeCivic{}
	}
	if deps.Roster == nil {
		deps.Roster = testRoster
	}
	svc := NewService(deps, NewSessions(DefaultSessionTTL, m))
	return NewHTTPServer(svc, "*", m, reg), reg
}

func do(t *testing.T, s *HTTPServer, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	var decoded map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rr.Body.Bytes(), &decoded)
	}
	return rr, decoded
}

func openSession(t *testing.T, s *HTTPServer) string {
	t.Helper()
	rr, body := do(t, s, http.MethodPost, "/api/sessions", `{"address":"`+testAddress+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	id, _ := body["sessionId"].(string)
	require.NotEmpty(t, id)
	return id
}

func viewState(body map[string]any) string {
	view, _ := body["view"].(map[string]any)
	state, _ := view["state"].(string)
	return state
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	rr, body := do(t, s, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, true, body["ok"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestReadyEndpoint(t *testing.T) {
	t.Run("no database", func(t *testing.T) {
		s, _ := newTestServer(t, Deps{})
		rr, body := do(t, s, http.MethodGet, "/api/ready", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ready", body["status"])
	})
	t.Run("database down", func(t *testing.T) {
		s, _ := newTestServer(t, Deps{Store: &fakeStore{pingErr: errors.New("connection refused")}})
		rr, body := do(t, s, http.MethodGet, "/api/ready", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "not_ready", body["status"])
		checks := body["checks"].(map[string]any)
		assert.Equal(t, "error", checks["database"].(map[string]any)["status"])
	})
}

func TestCreateSessionReturnsRootView(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	rr, body := do(t, s, http.MethodPost, "/api/sessions", `{"address":"`+testAddress+`"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	assert.Equal(t, "root", viewState(body))
	options := body["view"].(map[string]any)["options"].([]any)
	assert.Len(t, options, 4)
	notices := body["notices"].([]any)
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeMalformedRecord, notices[0].(map[string]any)["kind"])
}

func TestCreateSessionRequiresAddress(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	rr, body := do(t, s, http.MethodPost, "/api/sessions", `{"address":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_ADDRESS", body["code"])
}

func TestSessionInputFlow(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	id := openSession(t, s)
	path := "/api/sessions/" + id + "/input"

	rr, body := do(t, s, http.MethodPost, path, `{"input":"1"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "group", viewState(body))

	rr, body = do(t, s, http.MethodPost, path, `{"input":99}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "INVALID_SELECTION", body["code"])
	details := body["details"].(map[string]any)
	assert.Equal(t, "group", details["view"].(map[string]any)["state"])

	rr, body = do(t, s, http.MethodGet, "/api/sessions/"+id, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "group", viewState(body), "invalid input leaves the state unchanged")

	rr, body = do(t, s, http.MethodPost, path, `{"input":"exit"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ended", viewState(body))

	rr, body = do(t, s, http.MethodPost, path, `{"input":"1"}`)
	assert.Equal(t, http.StatusGone, rr.Code)
	assert.Equal(t, "SESSION_ENDED", body["code"])
}

func TestSessionTally(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	id := openSession(t, s)

	rr, body := do(t, s, http.MethodGet, "/api/sessions/"+id+"/tally", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "root", body["state"])
	assert.EqualValues(t, 4, body["total"])

	_, _ = do(t, s, http.MethodPost, "/api/sessions/"+id+"/input", `{"input":"4"}`)
	rr, body = do(t, s, http.MethodGet, "/api/sessions/"+id+"/tally", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.EqualValues(t, 2, body["total"])
}

func TestUnknownAndDeletedSessions(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	rr, body := do(t, s, http.MethodGet, "/api/sessions/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", body["code"])

	id := openSession(t, s)
	rr, _ = do(t, s, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	rr, _ = do(t, s, http.MethodGet, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr, _ = do(t, s, http.MethodDelete, "/api/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExportAndImportSession(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	id := openSession(t, s)

	rr, _ := do(t, s, http.MethodGet, "/api/sessions/"+id+"/export?format=json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".json")
	exported := rr.Body.String()

	h, err := hierarchy.Import([]byte(exported))
	require.NoError(t, err)
	assert.Len(t, h.Group(hierarchy.GroupPeers).Members, 2)

	rr, body := do(t, s, http.MethodPost, "/api/sessions/import", exported)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "root", viewState(body))
	assert.NotEqual(t, id, body["sessionId"])

	rr, body = do(t, s, http.MethodGet, "/api/sessions/"+id+"/export?format=docx", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "UNSUPPORTED_FORMAT", body["code"])

	rr, body = do(t, s, http.MethodGet, "/api/sessions/"+id+"/export?publish=true", "")
	assert.Equal(t, http.StatusNotImplemented, rr.Code)
	assert.Equal(t, "PUBLISHING_DISABLED", body["code"])
}

func TestImportRejectsGarbage(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	rr, body := do(t, s, http.MethodPost, "/api/sessions/import", `not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_EXPORT", body["code"])
}

func TestSearchEndpoint(t *testing.T) {
	t.Run("without index", func(t *testing.T) {
		s, _ := newTestServer(t, Deps{})
		rr, body := do(t, s, http.MethodGet, "/api/search?q=stabenow", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []any{}, body["results"])
	})
	t.Run("with index", func(t *testing.T) {
		idx := &fakeIndexer{response: search.Response{
			Results: []search.Result{{ID: "abc-federal-2", Name: "Debbie Stabenow", Group: "federal"}},
			Total:   1,
			Query:   "stabenow",
		}}
		s, _ := newTestServer(t, Deps{Search: idx})
		rr, body := do(t, s, http.MethodGet, "/api/search?q=stabenow&level=Federal&limit=5", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.EqualValues(t, 1, body["total"])
		require.Len(t, idx.queries, 1)
		assert.Equal(t, search.Query{Text: "stabenow", Group: "federal", Limit: 5}, idx.queries[0])
	})
	t.Run("unknown level", func(t *testing.T) {
		s, _ := newTestServer(t, Deps{})
		rr, body := do(t, s, http.MethodGet, "/api/search?q=x&level=galactic", "")
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "INVALID_LEVEL", body["code"])
	})
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	_ = openSession(t, s)

	rr, _ := do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	text := rr.Body.String()
	assert.Contains(t, text, `whorep_http_requests_total{method="POST",status="201"} 1`)
	assert.Contains(t, text, "whorep_sessions_active 1")
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	rr, body := do(t, s, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	s, _ := newTestServer(t, Deps{})
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil).WithContext(context.Background())
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "req-42", rr.Header().Get("X-Request-ID"))
}
