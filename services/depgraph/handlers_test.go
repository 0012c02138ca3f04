// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package depgraph

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/depgraph/services/depgraph/config"
	"github.com/AleutianAI/depgraph/services/depgraph/engine"
	"github.com/AleutianAI/depgraph/services/depgraph/storage/badger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, withCache bool, mutate func(*ServiceConfig)) *gin.Engine {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)
	eng, err := engine.New(cfg, nil)
	require.NoError(t, err)

	var cache *badger.ResultCache
	if withCache {
		db, err := badger.Open(badger.InMemoryConfig())
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		cache = badger.NewResultCache(db, 0)
	}

	opts := DefaultServiceConfig()
	if mutate != nil {
		mutate(&opts)
	}
	svc, err := NewService(eng, cache, opts, nil)
	require.NoError(t, err)
	return NewRouter(svc, NewHandlers(svc, nil))
}

func do(router *gin.Engine, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

const scenarioBody = `{"graph": {"src/a.ts": [], "src/b.ts": ["src/a.ts"], "src/c.ts": []}}`

func TestNewService_NilEngine(t *testing.T) {
	_, err := NewService(nil, nil, DefaultServiceConfig(), nil)
	assert.ErrorIs(t, err, ErrNilEngine)
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(t, true, nil)
	rec := do(router, http.MethodGet, "/v1/depgraph/health", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceVersion, resp.Version)
	assert.Equal(t, "enabled", resp.Cache)
}

func TestHandleConfig(t *testing.T) {
	router := newTestRouter(t, false, nil)
	rec := do(router, http.MethodGet, "/v1/depgraph/config", "", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"default_package":"other"`)
	assert.Contains(t, rec.Body.String(), `"max_iterations":10`)
}

func TestHandleAnalyze_JSON(t *testing.T) {
	router := newTestRouter(t, true, nil)

	rec := do(router, http.MethodPost, "/v1/depgraph/analyze", scenarioBody, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var first AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &first))
	assert.False(t, first.Cached)
	assert.NotEmpty(t, first.RunID)
	require.NotNil(t, first.Report)
	assert.Equal(t, 3, first.Report.Summary.Nodes)
	assert.Equal(t, 3, first.Report.Summary.Dead)
	assert.Equal(t, []string{"src/c.ts"}, first.Report.Orphans)

	rec = do(router, http.MethodPost, "/v1/depgraph/analyze", scenarioBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var second AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &second))
	assert.True(t, second.Cached)
	assert.NotEqual(t, first.RunID, second.RunID)

	a, err := json.Marshal(first.Report)
	require.NoError(t, err)
	b, err := json.Marshal(second.Report)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestHandleAnalyze_NoCache(t *testing.T) {
	router := newTestRouter(t, false, nil)
	for i := 0; i < 2; i++ {
		rec := do(router, http.MethodPost, "/v1/depgraph/analyze", scenarioBody, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp AnalyzeResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Cached)
	}
}

func TestHandleAnalyze_Formats(t *testing.T) {
	router := newTestRouter(t, false, nil)

	rec := do(router, http.MethodPost, "/v1/depgraph/analyze",
		`{"graph": {"a.ts": []}, "format": "yaml"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "runId:")
	assert.Contains(t, rec.Body.String(), "report:")

	rec = do(router, http.MethodPost, "/v1/depgraph/analyze",
		`{"graph": {"a.ts": []}, "format": "text"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.Contains(t, rec.Body.String(), "Dependency graph report")
}

func TestHandleAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{"malformed json", `{"graph": [`, http.StatusBadRequest, CodeInvalidRequest},
		{"wrong shape", `{"graph": {"a": "b"}}`, http.StatusBadRequest, CodeInvalidRequest},
		{"missing graph", `{}`, http.StatusBadRequest, CodeInvalidRequest},
		{"unknown format", `{"graph": {}, "format": "xml"}`, http.StatusBadRequest, CodeInvalidFormat},
	}
	router := newTestRouter(t, false, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, "/v1/depgraph/analyze", tt.body, nil)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantErr, decodeError(t, rec).Code)
		})
	}
}

func TestHandleAnalyze_EmptyGraph(t *testing.T) {
	router := newTestRouter(t, false, nil)
	rec := do(router, http.MethodPost, "/v1/depgraph/analyze", `{"graph": {}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deadCodeCandidates": []`)
}

func TestHandleAnalyze_BodyTooLarge(t *testing.T) {
	router := newTestRouter(t, false, func(o *ServiceConfig) { o.MaxBodyBytes = 16 })
	rec := do(router, http.MethodPost, "/v1/depgraph/analyze", scenarioBody, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, CodeRequestTooLarge, decodeError(t, rec).Code)
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, false, func(o *ServiceConfig) {
		o.RateLimit = 0.001
		o.RateBurst = 1
	})

	rec := do(router, http.MethodGet, "/v1/depgraph/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(router, http.MethodGet, "/v1/depgraph/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, CodeRateLimited, decodeError(t, rec).Code)
}

func TestRequestID(t *testing.T) {
	router := newTestRouter(t, false, nil)

	rec := do(router, http.MethodGet, "/v1/depgraph/health", "", map[string]string{RequestIDHeader: "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))

	rec = do(router, http.MethodPost, "/v1/depgraph/analyze", `{}`, nil)
	generated := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, decodeError(t, rec).RequestID)
}

func TestService_CacheKeyCoversGraph(t *testing.T) {
	router := newTestRouter(t, true, nil)

	rec := do(router, http.MethodPost, "/v1/depgraph/analyze", scenarioBody, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	other := bytes.ReplaceAll([]byte(scenarioBody), []byte(`"src/c.ts": []`), []byte(`"src/c.ts": ["src/a.ts"]`))
	rec = do(router, http.MethodPost, "/v1/depgraph/analyze", string(other), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Cached)
	assert.Empty(t, resp.Report.Orphans)
}
