package repository

import (
	"context"

	"github.com/ipcproject/luna/internal/domain"
)

// ApplicationRepository reads the tenant registry.
type ApplicationRepository interface {
	ListApplications(ctx context.Context) ([]domain.Application, error)
}

// ConfigurationRepository is the durable configuration store.
type ConfigurationRepository interface {
	GetConfigurations(ctx context.Context, keys []string) (map[string]string, error)
	UpsertConfiguration(ctx context.Context, entry *domain.ConfigEntry) error
}

// LogRepository executes the cross-tenant log query. The applications slice
// fixes the query scope and must come from the tenant registry, never from
// request input.
type LogRepository interface {
	QueryLogs(ctx context.Context, apps []domain.Application, filter domain.Filter) ([]domain.LogEntry, error)
}
