package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkamal/stockaudit/internal/audit"
	"github.com/mkamal/stockaudit/internal/database"
	"github.com/mkamal/stockaudit/internal/extraction"
	"github.com/mkamal/stockaudit/internal/history"
	"github.com/mkamal/stockaudit/internal/llm"
	"github.com/mkamal/stockaudit/internal/pipeline"
)

// stubProvider returns a canned extraction response.
type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) GenerateContent(_ context.Context, _ *llm.ContentRequest) (*llm.ContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ContentResponse{Text: s.response}, nil
}

func (s *stubProvider) Close() error { return nil }

const extractionResponse = `[
	{"ticker": "GP", "sector": "Telecommunication", "category": "A", "price": 80, "eps": 10, "nav": 100, "debt": 50, "sponsor_holding": 90}
]`

var memCounter int

type testEnv struct {
	server *Server
	repo   *history.Repository
}

func newTestServer(t *testing.T, provider llm.Provider) *testEnv {
	t.Helper()
	memCounter++
	db, err := database.New(database.Config{
		Path:    fmt.Sprintf("file:server_test_%d?mode=memory&cache=shared", memCounter),
		Profile: database.ProfileStandard,
		Name:    "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := history.NewRepository(db, zerolog.Nop())
	require.NoError(t, err)

	extractor := extraction.New(provider, zerolog.Nop())
	engine := audit.NewEngine(audit.CanonicalProfile(), zerolog.Nop())
	p := pipeline.New(extractor, nil, engine, repo, "canonical", zerolog.Nop())

	srv := New(Config{
		Log:       zerolog.Nop(),
		Port:      0,
		Pipeline:  p,
		Runs:      repo,
		HistoryDB: db,
		Profile:   "canonical",
	})

	return &testEnv{server: srv, repo: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleHealth(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	rec := env.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "stockaudit", body["service"])
}

func TestHandleAudit_Text(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	rec := env.do(t, http.MethodPost, "/api/audit", map[string]string{"text": "pasted table"})

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["run_id"])
	assert.Equal(t, "text", body["source"])
	results := body["results"].([]interface{})
	assert.Len(t, results, 1)
}

func TestHandleAudit_Validation(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	testCases := []struct {
		name string
		body map[string]string
		want int
	}{
		{"empty body", map[string]string{}, http.StatusBadRequest},
		{"both inputs", map[string]string{"text": "a", "document": "YQ=="}, http.StatusBadRequest},
		{"bad base64", map[string]string{"document": "not base64!!"}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/audit", tc.body)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandleAudit_MalformedJSON(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	req := httptest.NewRequest(http.MethodPost, "/api/audit", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleAudit_NoRecords(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: "[]"})

	rec := env.do(t, http.MethodPost, "/api/audit", map[string]string{"text": "nothing useful"})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleLatest(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	rec := env.do(t, http.MethodGet, "/api/audit/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	created := env.do(t, http.MethodPost, "/api/audit", map[string]string{"text": "pasted"})
	require.Equal(t, http.StatusOK, created.Code)

	rec = env.do(t, http.MethodGet, "/api/audit/latest", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, decodeBody(t, created)["run_id"], decodeBody(t, rec)["run_id"])
}

func TestHandleRuns_ListGetDelete(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	created := env.do(t, http.MethodPost, "/api/audit", map[string]string{"text": "pasted"})
	require.Equal(t, http.StatusOK, created.Code)
	runID := decodeBody(t, created)["run_id"].(string)

	list := env.do(t, http.MethodGet, "/api/runs", nil)
	assert.Equal(t, http.StatusOK, list.Code)
	assert.EqualValues(t, 1, decodeBody(t, list)["count"])

	got := env.do(t, http.MethodGet, "/api/runs/"+runID, nil)
	assert.Equal(t, http.StatusOK, got.Code)
	assert.Equal(t, runID, decodeBody(t, got)["id"])

	del := env.do(t, http.MethodDelete, "/api/runs/"+runID, nil)
	assert.Equal(t, http.StatusOK, del.Code)

	gone := env.do(t, http.MethodGet, "/api/runs/"+runID, nil)
	assert.Equal(t, http.StatusNotFound, gone.Code)
}

func TestHandleRuns_BadLimit(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	rec := env.do(t, http.MethodGet, "/api/runs?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/runs?limit=-2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRuns_DeleteMissing(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	rec := env.do(t, http.MethodDelete, "/api/runs/no-such-run", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleProfiles(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	rec := env.do(t, http.MethodGet, "/api/profiles", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "canonical", body["active"])
	profiles := body["profiles"].([]interface{})
	assert.Len(t, profiles, 3)
}

func TestHandleSystemStatus(t *testing.T) {
	env := newTestServer(t, &stubProvider{response: extractionResponse})

	rec := env.do(t, http.MethodGet, "/api/system/status", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	databases := body["databases"].(map[string]interface{})
	assert.Equal(t, "ok", databases["history"])
	assert.Equal(t, "not configured", databases["cache"])
}
