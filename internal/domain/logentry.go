package domain

import "time"

// UnknownCountry is substituted for rows whose geolocation lookup produced
// no country name.
const UnknownCountry = "Unknown"

// LogEntry is one captured HTTP request read from a tenant's log relation.
// Rows are written by the ingestion middleware and are immutable here.
type LogEntry struct {
	ID           int64
	AppName      string
	User         string
	Path         string
	Method       string
	StatusCode   int
	ProcessTime  float64 // milliseconds
	Headers      []byte  // privileged columns: empty unless the caller is an admin
	Body         string
	IPAddress    string
	UserAgent    string
	City         string
	CountryName  string
	CountryCode  string
	ErrorMessage string
	CreatedAt    time.Time
}

// IsSuccess reports whether the entry completed without an error status.
func (e LogEntry) IsSuccess() bool { return e.StatusCode < 400 }

// IsClientError reports a 4xx status.
func (e LogEntry) IsClientError() bool { return e.StatusCode >= 400 && e.StatusCode < 500 }

// IsServerError reports a 5xx status.
func (e LogEntry) IsServerError() bool { return e.StatusCode >= 500 }
