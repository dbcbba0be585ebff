package web_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/airquality-report-service/internal/adapter/web"
	"github.com/couchcryptid/airquality-report-service/internal/domain"
	"github.com/couchcryptid/airquality-report-service/internal/observability"
)

type mockProducer struct {
	report domain.Report
	err    error
}

func (m *mockProducer) ProduceReport(_ context.Context) (domain.Report, error) {
	return m.report, m.err
}

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockPublisher struct {
	mu       sync.Mutex
	reports  []domain.Report
	outcomes []string
}

func (m *mockPublisher) PublishReport(_ context.Context, report domain.Report, outcome string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports = append(m.reports, report)
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

func (m *mockPublisher) published() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.outcomes...)
}

func newTestServer(t *testing.T, producer web.ReportProducer, readyErr error, publisher web.ReportPublisher) *web.Server {
	t.Helper()
	srv, err := web.NewServer(":0", producer, &mockReadiness{err: readyErr}, publisher, observability.NewMetricsForTesting(), slog.Default())
	require.NoError(t, err)
	return srv
}

func TestHomePage(t *testing.T) {
	srv := newTestServer(t, &mockProducer{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "HabiTech")
	assert.Contains(t, rec.Body.String(), "/california-model")
}

func TestCaliforniaModelLiveReport(t *testing.T) {
	report := domain.NewLiveReport(2.5e-9, domain.DefaultHighRiskThreshold)
	srv := newTestServer(t, &mockProducer{report: report}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/california-model", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Greater California Area (Live Earthdata)")
	assert.Contains(t, body, "HIGH RISK")
	assert.Contains(t, body, "#DC2626")
	assert.Contains(t, body, "2.50e-09")
	assert.Contains(t, body, "Live satellite data")
}

func TestCaliforniaModelFallsBackToMockOnError(t *testing.T) {
	srv := newTestServer(t, &mockProducer{err: fmt.Errorf("granule search failed")}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/california-model", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Greater Los Angeles Area (Simulated)")
	assert.Contains(t, body, "2024-10-01 (Simulated)")
	assert.Contains(t, body, "5.50e+15")
	assert.Contains(t, body, "Simulated data")
	assert.NotContains(t, body, "HIGH RISK")
}

func TestCaliforniaModelLowRiskReport(t *testing.T) {
	report := domain.NewLiveReport(1.0e-10, domain.DefaultHighRiskThreshold)
	srv := newTestServer(t, &mockProducer{report: report}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/california-model", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "LOW/MODERATE RISK")
	assert.Contains(t, body, "#059669")
}

func TestCaliforniaModelPublishesOutcome(t *testing.T) {
	pub := &mockPublisher{}
	srv := newTestServer(t, &mockProducer{err: fmt.Errorf("boom")}, nil, pub)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/california-model", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Eventually(t, func() bool {
		out := pub.published()
		return len(out) == 1 && out[0] == "mock"
	}, time.Second, 10*time.Millisecond)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, &mockProducer{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(t, &mockProducer{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(t, &mockProducer{}, fmt.Errorf("window start after end"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "window start after end", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, &mockProducer{}, nil, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
