package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChecker struct {
	err error
}

func (s *stubChecker) Ping(ctx context.Context) error { return s.err }

type stubCounter struct {
	count int
}

func (s *stubCounter) ConnectionCount() int { return s.count }

func TestHealthHandler_DetailedHealthReportsRealtimeConnections(t *testing.T) {
	h := NewHealthHandler(&stubChecker{}, &stubCounter{count: 3}, "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	h.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status              string `json:"status"`
		Version             string `json:"version"`
		RealtimeConnections int    `json:"realtime_connections"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, 3, body.RealtimeConnections)
}

func TestHealthHandler_ReadinessFailsWhenDatabaseIsDown(t *testing.T) {
	h := NewHealthHandler(&stubChecker{err: errors.New("connection refused")}, &stubCounter{}, "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	h.HandleReadiness(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "unhealthy", body.Checks["database"].Status)
}

func TestHealthHandler_LivenessAlwaysHealthy(t *testing.T) {
	h := NewHealthHandler(nil, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()

	h.HandleLiveness(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
