package repository

import "errors"

// ErrNotFound indicates an entity was not located.
var ErrNotFound = errors.New("repository: not found")

// ErrQueryFailed wraps storage failures during the cross-tenant log query.
// Callers surface it opaquely; the underlying cause stays in the logs.
var ErrQueryFailed = errors.New("repository: query failed")
