package domain

import "time"

// Statistics is the summary block of one aggregation run. Rates are
// pre-formatted percentages so every consumer renders them identically.
type Statistics struct {
	TotalRequests       int     `json:"total_requests"`
	SuccessRequests     int     `json:"success_requests"`
	ClientErrorRequests int     `json:"client_error_requests"`
	ServerErrorRequests int     `json:"server_error_requests"`
	SuccessRate         string  `json:"success_rate"`
	ClientErrorRate     string  `json:"client_error_rate"`
	ServerErrorRate     string  `json:"server_error_rate"`
	AverageResponseTime float64 `json:"average_response_time"`
}

// Series is one named data line within a chart. Every series in a chart is
// reindexed onto the chart's category set, so all share the same length.
type Series struct {
	Name string    `json:"name"`
	Data []float64 `json:"data"`
}

// TimeChart buckets requests over the resolved bucket-edge sequence.
type TimeChart struct {
	Categories         []string `json:"categories"`
	RequestSeries      []Series `json:"request_series"`
	ResponseTimeSeries []Series `json:"response_time_series"`
}

// Chart is a categorical breakdown with string categories.
type Chart struct {
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
}

// StatusChart is a categorical breakdown keyed by status code.
type StatusChart struct {
	Categories []int    `json:"categories"`
	Series     []Series `json:"series"`
}

// SlowRoute is one entry of the slowest-routes ranking, grouped by
// (tenant, path) with every method observed for the group.
type SlowRoute struct {
	AppName        string   `json:"app_name"`
	Path           string   `json:"path"`
	Methods        []string `json:"method"`
	AvgProcessTime float64  `json:"process_time_ms"`
}

// CountryCount is one entry of the countries ranking.
type CountryCount struct {
	CountryName string `json:"country_name"`
	CountryCode string `json:"country_code,omitempty"`
	Count       int    `json:"count"`
}

// ErrorEntry is one row of the recent-errors ranking.
type ErrorEntry struct {
	ID           int64     `json:"id"`
	AppName      string    `json:"app_name"`
	Path         string    `json:"path"`
	Method       string    `json:"method"`
	StatusCode   int       `json:"status_code"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}

// PathStats is one row of the grouped-by-path rollup table.
type PathStats struct {
	Path                string    `json:"path"`
	Methods             []string  `json:"methods"`
	StatusCodes         []int     `json:"status_codes"`
	AvgProcessTime      float64   `json:"avg_process_time_ms"`
	MinProcessTime      float64   `json:"min_process_time_ms"`
	MaxProcessTime      float64   `json:"max_process_time_ms"`
	LastSeen            time.Time `json:"last_seen"`
	TotalRequests       int       `json:"total_requests"`
	SuccessRequests     int       `json:"success_requests"`
	ClientErrorRequests int       `json:"client_error_requests"`
	ServerErrorRequests int       `json:"server_error_requests"`
}

// FilterEcho mirrors the resolved filter back to the caller.
type FilterEcho struct {
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	StatusCode      []int    `json:"status_code,omitempty"`
	RequestMethod   []string `json:"request_method,omitempty"`
	ApplicationName []string `json:"application_name,omitempty"`
	Path            []string `json:"path,omitempty"`
}

// Overview is the uniform analytics response envelope.
type Overview struct {
	Filters            FilterEcho     `json:"filters"`
	Statistics         Statistics     `json:"statistics"`
	TimeChart          TimeChart      `json:"time_chart"`
	AppChart           Chart          `json:"app_chart"`
	StatusCodeChart    StatusChart    `json:"status_code_chart"`
	RequestMethodChart Chart          `json:"request_method_chart"`
	TopSlowestRoutes   []SlowRoute    `json:"top_50_slowest_routes"`
	TopCountries       []CountryCount `json:"top_50_countries"`
	TopErrors          []ErrorEntry   `json:"top_50_errors"`
	DataTable          []PathStats    `json:"data_table"`
}
