package domain

import (
	"fmt"
	"strings"
	"time"
)

// RoleAdmin grants the full column projection, including request headers,
// body, user agent and client address.
const RoleAdmin = "ADMIN"

// Filter narrows one cross-tenant log query. It lives for a single request
// or evaluator tick and is never persisted.
type Filter struct {
	Start        time.Time
	End          time.Time
	StatusCodes  []int
	Methods      []string
	Paths        []string
	Applications []string
	Role         string
}

// Privileged reports whether the caller may read the full column set.
func (f Filter) Privileged() bool {
	return strings.EqualFold(strings.TrimSpace(f.Role), RoleAdmin)
}

// Validate rejects ranges the query builder cannot serve.
func (f Filter) Validate() error {
	if f.Start.IsZero() || f.End.IsZero() {
		return &ValidationError{Field: "date_range", Message: "start_date and end_date are required"}
	}
	if f.Start.After(f.End) {
		return &ValidationError{
			Field:   "date_range",
			Message: fmt.Sprintf("start_date %s is after end_date %s", f.Start.Format(time.RFC3339), f.End.Format(time.RFC3339)),
		}
	}
	for _, code := range f.StatusCodes {
		if code < 100 || code > 599 {
			return &ValidationError{Field: "status_code", Message: fmt.Sprintf("status code %d out of range", code)}
		}
	}
	return nil
}

// ValidationError describes a request the caller can correct.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}
