package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/service/analytics"
	"github.com/ipcproject/luna/internal/service/registry"
	"github.com/ipcproject/luna/internal/service/settings"
	"github.com/ipcproject/luna/internal/ws"
)

type stubApps struct {
	apps []domain.Application
	err  error
}

func (s *stubApps) ListApplications(context.Context) ([]domain.Application, error) {
	return s.apps, s.err
}

type stubLogs struct {
	entries   []domain.LogEntry
	err       error
	gotFilter domain.Filter
}

func (s *stubLogs) QueryLogs(_ context.Context, _ []domain.Application, filter domain.Filter) ([]domain.LogEntry, error) {
	s.gotFilter = filter
	return s.entries, s.err
}

type stubConfigStore struct {
	values map[string]string
	err    error

	upserts []domain.ConfigEntry
}

func (s *stubConfigStore) GetConfigurations(_ context.Context, keys []string) (map[string]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[string]string)
	for _, key := range keys {
		if v, ok := s.values[key]; ok {
			out[key] = v
		}
	}
	return out, nil
}

func (s *stubConfigStore) UpsertConfiguration(_ context.Context, entry *domain.ConfigEntry) error {
	if s.err != nil {
		return s.err
	}
	s.upserts = append(s.upserts, *entry)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultConfigValues() map[string]string {
	return map[string]string{
		domain.KeyDefaultDateRange:      "7D",
		domain.KeyAlertActivated:        "False",
		domain.KeyErrorRateThreshold:    "10",
		domain.KeyResponseTimeThreshold: "10000",
		domain.KeySendEmailEvery:        "15",
		domain.KeyRecipients:            "[]",
		domain.KeyApplications:          "[]",
	}
}

func newTestRouter(apps *stubApps, logs *stubLogs, store *stubConfigStore) *Router {
	logger := testLogger()
	registrySvc := registry.New(apps, logger)
	settingsSvc := settings.New(nil, store, logger)
	analyticsSvc := analytics.New(registrySvc, logs, settingsSvc, logger, time.UTC)
	return NewRouter(logger, analyticsSvc, settingsSvc, registrySvc, ws.NewHub(), 5*time.Second, nil)
}

func TestOverviewEndpoint(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	logs := &stubLogs{entries: []domain.LogEntry{
		{AppName: "billing", Path: "/a", Method: "GET", StatusCode: 200, ProcessTime: 40, CreatedAt: start.Add(time.Minute)},
	}}
	router := newTestRouter(&stubApps{apps: []domain.Application{{Name: "billing"}}}, logs, &stubConfigStore{values: defaultConfigValues()})

	body := `{
		"start_date": "2024-01-01T00:00:00Z",
		"end_date": "2024-01-01T00:30:00Z",
		"status_code": 200,
		"request_method": "GET",
		"application_name": ["billing"]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/request-log/overview", strings.NewReader(body))
	req.Header.Set(roleHeader, domain.RoleAdmin)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var overview domain.Overview
	if err := json.Unmarshal(rec.Body.Bytes(), &overview); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if overview.Statistics.TotalRequests != 1 {
		t.Fatalf("expected one summarized row, got %d", overview.Statistics.TotalRequests)
	}
	if overview.Filters.StartDate != "2024-01-01T00:00:00Z" {
		t.Fatalf("wrong echoed start date: %s", overview.Filters.StartDate)
	}
	if logs.gotFilter.Role != domain.RoleAdmin {
		t.Fatalf("expected role header to reach the query, got %q", logs.gotFilter.Role)
	}
	if len(logs.gotFilter.StatusCodes) != 1 || logs.gotFilter.StatusCodes[0] != 200 {
		t.Fatalf("expected scalar status_code promoted to a list, got %v", logs.gotFilter.StatusCodes)
	}
}

func TestOverviewEndpointRejectsBadStatusCode(t *testing.T) {
	router := newTestRouter(&stubApps{}, &stubLogs{}, &stubConfigStore{values: defaultConfigValues()})

	body := `{"start_date": "2024-01-01T00:00:00Z", "end_date": "2024-01-01T01:00:00Z", "status_code": [42]}`
	req := httptest.NewRequest(http.MethodPost, "/api/request-log/overview", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestOverviewEndpointRejectsInvertedRange(t *testing.T) {
	router := newTestRouter(&stubApps{}, &stubLogs{}, &stubConfigStore{values: defaultConfigValues()})

	body := `{"start_date": "2024-01-02T00:00:00Z", "end_date": "2024-01-01T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/request-log/overview", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on inverted range, got %d", rec.Code)
	}
}

func TestDashboardEndpointDefaultsWindow(t *testing.T) {
	logs := &stubLogs{}
	router := newTestRouter(&stubApps{}, logs, &stubConfigStore{values: defaultConfigValues()})

	req := httptest.NewRequest(http.MethodGet, "/api/request-log", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := logs.gotFilter.End.Sub(logs.gotFilter.Start); got != 7*24*time.Hour {
		t.Fatalf("expected configured 7 day window, got %v", got)
	}
}

func TestConfigurationEndpointRoundTrip(t *testing.T) {
	store := &stubConfigStore{values: defaultConfigValues()}
	router := newTestRouter(&stubApps{}, &stubLogs{}, store)

	req := httptest.NewRequest(http.MethodGet, "/api/configuration", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var values map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &values); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if values[domain.KeySendEmailEvery] != "15" {
		t.Fatalf("expected stored interval, got %v", values)
	}

	update := `{"alert_activated": "True"}`
	req = httptest.NewRequest(http.MethodPost, "/api/configuration", strings.NewReader(update))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.upserts) != 1 || store.upserts[0].Key != domain.KeyAlertActivated {
		t.Fatalf("expected canonicalized upsert, got %+v", store.upserts)
	}
}

func TestConfigurationEndpointUnavailable(t *testing.T) {
	router := newTestRouter(&stubApps{}, &stubLogs{}, &stubConfigStore{})

	req := httptest.NewRequest(http.MethodGet, "/api/configuration", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no tier holds configuration, got %d", rec.Code)
	}
}

func TestApplicationsEndpoint(t *testing.T) {
	apps := &stubApps{apps: []domain.Application{{Name: "billing"}, {Name: "identity"}}}
	router := newTestRouter(apps, &stubLogs{}, &stubConfigStore{values: defaultConfigValues()})

	req := httptest.NewRequest(http.MethodGet, "/api/application", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(&stubApps{}, &stubLogs{}, &stubConfigStore{values: defaultConfigValues()})

	req := httptest.NewRequest(http.MethodDelete, "/api/request-log", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(&stubApps{}, &stubLogs{}, &stubConfigStore{values: defaultConfigValues()})
	router.dbHealth = func(context.Context) error { return nil }

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	router.dbHealth = func(context.Context) error { return errors.New("down") }
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the database is down, got %d", rec.Code)
	}
}

func TestIntListUnmarshal(t *testing.T) {
	var l intList
	if err := json.Unmarshal([]byte(`[200, 404]`), &l); err != nil || len(l) != 2 {
		t.Fatalf("list form failed: %v %v", l, err)
	}
	if err := json.Unmarshal([]byte(`500`), &l); err != nil || len(l) != 1 || l[0] != 500 {
		t.Fatalf("scalar form failed: %v %v", l, err)
	}
	if err := json.Unmarshal([]byte(`"404"`), &l); err != nil || len(l) != 1 || l[0] != 404 {
		t.Fatalf("quoted scalar form failed: %v %v", l, err)
	}
	if err := json.Unmarshal([]byte(`"nope"`), &l); err == nil {
		t.Fatal("expected error on non-numeric scalar")
	}
}

func TestStringListUnmarshal(t *testing.T) {
	var l stringList
	if err := json.Unmarshal([]byte(`["GET", "POST"]`), &l); err != nil || len(l) != 2 {
		t.Fatalf("list form failed: %v %v", l, err)
	}
	if err := json.Unmarshal([]byte(`"GET"`), &l); err != nil || len(l) != 1 || l[0] != "GET" {
		t.Fatalf("scalar form failed: %v %v", l, err)
	}
}
