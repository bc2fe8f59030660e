package alert

import (
	"context"
	"encoding/json"
	"fmt"

	"log/slog"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/ws"
)

// LogNotifier records alert payloads in the structured log. It stands in
// for outbound delivery, which lives outside this service.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *slog.Logger) LogNotifier {
	if logger != nil {
		logger = logger.With("component", "alert_notifier")
	}
	return LogNotifier{logger: logger}
}

// Notify logs the payload.
func (n LogNotifier) Notify(_ context.Context, payload domain.AlertPayload) error {
	if n.logger == nil {
		return nil
	}
	n.logger.Error("alert notification",
		"alert_id", payload.ID,
		"window_start", payload.WindowStart,
		"window_end", payload.WindowEnd,
		"total_requests", payload.TotalRequests,
		"error_rate", payload.ErrorRatePercent,
		"avg_response_time", payload.AvgResponseTime,
		"recipients", payload.Recipients,
		"routes", len(payload.RouteBreakdown),
	)
	return nil
}

// HubNotifier streams alert payloads to connected dashboard clients.
type HubNotifier struct {
	hub *ws.Hub
}

// NewHubNotifier constructs a HubNotifier.
func NewHubNotifier(hub *ws.Hub) HubNotifier {
	return HubNotifier{hub: hub}
}

// Notify broadcasts the payload on the alerts channel.
func (n HubNotifier) Notify(_ context.Context, payload domain.AlertPayload) error {
	if n.hub == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert payload: %w", err)
	}
	n.hub.Broadcast(ws.AlertChannel, data)
	return nil
}

// MultiNotifier fans one payload out to several notifiers. Every notifier
// is attempted; the first error is returned.
type MultiNotifier []Notifier

// Notify delivers to each wrapped notifier in order.
func (m MultiNotifier) Notify(ctx context.Context, payload domain.AlertPayload) error {
	var firstErr error
	for _, n := range m {
		if err := n.Notify(ctx, payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
