package registry

import (
	"context"
	"fmt"
	"strings"

	"log/slog"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
)

// Service is the tenant registry. It scopes every cross-tenant query: the
// set of registered applications is the universe unless narrowed by name.
type Service struct {
	apps   repository.ApplicationRepository
	logger *slog.Logger
}

// New constructs a registry service.
func New(apps repository.ApplicationRepository, logger *slog.Logger) Service {
	if logger != nil {
		logger = logger.With("component", "registry")
	}
	return Service{apps: apps, logger: logger}
}

// List returns registered tenants. With names given, only matching tenants
// are returned; names form a set, so repeats select a tenant once. Unknown
// names are silently excluded unless strict is set, in which case the first
// unknown name fails with repository.ErrNotFound.
func (s Service) List(ctx context.Context, names []string, strict bool) ([]domain.Application, error) {
	apps, err := s.apps.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	if len(names) == 0 {
		return apps, nil
	}

	byName := make(map[string]domain.Application, len(apps))
	for _, app := range apps {
		byName[strings.ToLower(app.Name)] = app
	}

	selected := make([]domain.Application, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		key := strings.ToLower(strings.TrimSpace(name))
		app, ok := byName[key]
		if !ok {
			if strict {
				return nil, fmt.Errorf("application %q: %w", name, repository.ErrNotFound)
			}
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		selected = append(selected, app)
	}
	return selected, nil
}
