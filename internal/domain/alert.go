package domain

import "time"

// RouteErrors is the per-route error breakdown attached to an alert.
// Only routes with at least one error in the window are included.
type RouteErrors struct {
	AppName      string `json:"app_name"`
	URL          string `json:"url"`
	ClientErrors int    `json:"client_errors"`
	ServerErrors int    `json:"server_errors"`
}

// AlertPayload is handed to the notifier collaborator when a threshold is
// exceeded over the trailing evaluation window.
type AlertPayload struct {
	ID                    string        `json:"id"`
	WindowStart           time.Time     `json:"window_start"`
	WindowEnd             time.Time     `json:"window_end"`
	TotalRequests         int           `json:"total_requests"`
	ClientErrorRequests   int           `json:"client_error_requests"`
	ServerErrorRequests   int           `json:"server_error_requests"`
	ErrorRatePercent      float64       `json:"error_rate_percent"`
	ErrorRateThreshold    float64       `json:"error_rate_threshold"`
	ErrorRateExceeded     bool          `json:"error_rate_exceeded"`
	AvgResponseTime       float64       `json:"avg_response_time_ms"`
	ResponseTimeThreshold float64       `json:"response_time_threshold_ms"`
	ResponseTimeExceeded  bool          `json:"response_time_exceeded"`
	RouteBreakdown        []RouteErrors `json:"route_breakdown"`
	Recipients            []string      `json:"recipients,omitempty"`
	TriggeredAt           time.Time     `json:"triggered_at"`
}
