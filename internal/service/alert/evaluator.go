package alert

import (
	"context"
	"sort"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
	"github.com/ipcproject/luna/internal/service/settings"
)

const maxTickTimeout = time.Minute

// Notifier receives alert payloads when a threshold is exceeded. Delivery
// guarantees beyond best-effort are the notifier's concern.
type Notifier interface {
	Notify(ctx context.Context, payload domain.AlertPayload) error
}

// TenantLister scopes the evaluation query.
type TenantLister interface {
	List(ctx context.Context, names []string, strict bool) ([]domain.Application, error)
}

// Evaluator periodically re-runs the aggregation over the trailing window
// and notifies when error rate or mean latency exceeds its threshold.
type Evaluator struct {
	settings settings.Service
	registry TenantLister
	logs     repository.LogRepository
	notifier Notifier
	logger   *slog.Logger

	interval time.Duration
	loc      *time.Location
	now      func() time.Time

	// running guards against overlapping ticks: at most one evaluation
	// is in flight per evaluator.
	running sync.Mutex
}

// New constructs an alert evaluator.
func New(settingsSvc settings.Service, reg TenantLister, logs repository.LogRepository, notifier Notifier, logger *slog.Logger, loc *time.Location) *Evaluator {
	if loc == nil {
		loc = time.UTC
	}
	if logger != nil {
		logger = logger.With("component", "alert")
	}
	return &Evaluator{
		settings: settingsSvc,
		registry: reg,
		logs:     logs,
		notifier: notifier,
		logger:   logger,
		interval: settings.DefaultInterval,
		loc:      loc,
		now:      time.Now,
	}
}

// Run executes the evaluation loop until the context is cancelled. The tick
// interval follows the SEND_EMAIL_EVERY configuration and is re-read every
// tick; a failed tick is logged and skipped, never fatal to the loop.
func (e *Evaluator) Run(ctx context.Context) {
	if e == nil {
		return
	}
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.logger.Info("alert evaluator started", "interval", e.interval)
	e.Tick(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("alert evaluator stopped")
			return
		case <-ticker.C:
			before := e.interval
			e.Tick(ctx)
			if e.interval != before {
				ticker.Reset(e.interval)
				e.logger.Info("alert interval updated", "interval", e.interval)
			}
		}
	}
}

// Tick runs one evaluation. Ticks are independent and idempotent: whatever
// happens, the evaluator returns to idle and waits for the next schedule.
func (e *Evaluator) Tick(parent context.Context) {
	if !e.running.TryLock() {
		e.logger.Warn("previous evaluation still in flight, skipping tick")
		return
	}
	defer e.running.Unlock()

	timeout := maxTickTimeout
	if e.interval > 0 && e.interval < timeout {
		timeout = e.interval
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	cfg, err := e.settings.Load(ctx)
	if err != nil {
		e.logger.Warn("configuration unavailable, skipping evaluation", "error", err)
		return
	}
	if cfg.Interval > 0 {
		e.interval = cfg.Interval
	}
	if !cfg.AlertActivated {
		return
	}

	end := e.now().In(e.loc)
	start := end.Add(-cfg.Interval)

	apps, err := e.registry.List(ctx, cfg.Applications, false)
	if err != nil {
		e.logger.Warn("failed to resolve tenant scope", "error", err)
		return
	}
	entries, err := e.logs.QueryLogs(ctx, apps, domain.Filter{Start: start, End: end})
	if err != nil {
		e.logger.Warn("trailing window query failed", "error", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	payload, exceeded := evaluate(entries, cfg, start, end)
	if !exceeded {
		return
	}
	payload.ID = uuid.NewString()
	payload.TriggeredAt = e.now().In(e.loc)

	e.logger.Error("alert threshold exceeded",
		"error_rate", payload.ErrorRatePercent,
		"error_rate_threshold", payload.ErrorRateThreshold,
		"avg_response_time", payload.AvgResponseTime,
		"response_time_threshold", payload.ResponseTimeThreshold,
		"window_start", payload.WindowStart,
		"window_end", payload.WindowEnd,
	)
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Notify(ctx, payload); err != nil {
		e.logger.Warn("alert notification failed", "alert_id", payload.ID, "error", err)
	}
}

// evaluate compares the window against the thresholds and assembles the
// payload when either is exceeded.
func evaluate(entries []domain.LogEntry, cfg settings.Settings, start, end time.Time) (domain.AlertPayload, bool) {
	var clientErrors, serverErrors int
	var latencySum float64
	for _, entry := range entries {
		switch {
		case entry.IsServerError():
			serverErrors++
		case entry.IsClientError():
			clientErrors++
		}
		latencySum += entry.ProcessTime
	}

	total := len(entries)
	errorRate := float64(clientErrors+serverErrors) / float64(total) * 100
	avgLatency := latencySum / float64(total)

	payload := domain.AlertPayload{
		WindowStart:           start,
		WindowEnd:             end,
		TotalRequests:         total,
		ClientErrorRequests:   clientErrors,
		ServerErrorRequests:   serverErrors,
		ErrorRatePercent:      errorRate,
		ErrorRateThreshold:    cfg.ErrorRateThreshold,
		ErrorRateExceeded:     errorRate > cfg.ErrorRateThreshold,
		AvgResponseTime:       avgLatency,
		ResponseTimeThreshold: cfg.ResponseTimeThreshold,
		ResponseTimeExceeded:  avgLatency > cfg.ResponseTimeThreshold,
		Recipients:            cfg.Recipients,
	}
	if !payload.ErrorRateExceeded && !payload.ResponseTimeExceeded {
		return domain.AlertPayload{}, false
	}
	payload.RouteBreakdown = routeBreakdown(entries)
	return payload, true
}

// routeBreakdown groups error rows by (tenant, url) and drops routes with
// no errors in the window.
func routeBreakdown(entries []domain.LogEntry) []domain.RouteErrors {
	type key struct{ app, url string }

	order := make([]key, 0)
	routes := make(map[key]*domain.RouteErrors)
	for _, entry := range entries {
		if entry.StatusCode < 400 {
			continue
		}
		k := key{entry.AppName, entry.Path}
		route, ok := routes[k]
		if !ok {
			route = &domain.RouteErrors{AppName: entry.AppName, URL: entry.Path}
			routes[k] = route
			order = append(order, k)
		}
		if entry.IsServerError() {
			route.ServerErrors++
		} else {
			route.ClientErrors++
		}
	}

	out := make([]domain.RouteErrors, 0, len(order))
	for _, k := range order {
		out = append(out, *routes[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ClientErrors+out[i].ServerErrors > out[j].ClientErrors+out[j].ServerErrors
	})
	return out
}
