package analytics

import (
	"context"
	"fmt"
	"time"

	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
	"github.com/ipcproject/luna/internal/service/settings"
)

// aggregationWorkers bounds the pool for independent sub-aggregations.
// They share only the immutable normalized table, so no locking is needed.
const aggregationWorkers = 3

// TenantLister scopes queries to registered tenants.
type TenantLister interface {
	List(ctx context.Context, names []string, strict bool) ([]domain.Application, error)
}

// SettingsLoader supplies the default date range for requests without one.
type SettingsLoader interface {
	Load(ctx context.Context) (settings.Settings, error)
}

// Service runs cross-tenant aggregations and assembles response envelopes.
type Service struct {
	registry TenantLister
	logs     repository.LogRepository
	settings SettingsLoader
	logger   *slog.Logger

	loc *time.Location
	now func() time.Time
}

// New constructs an analytics service.
func New(reg TenantLister, logs repository.LogRepository, settingsSvc SettingsLoader, logger *slog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger != nil {
		logger = logger.With("component", "analytics")
	}
	return &Service{
		registry: reg,
		logs:     logs,
		settings: settingsSvc,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

// Overview executes the full pipeline for one filter: frequency resolution,
// the cross-tenant query, the aggregations and the response envelope.
// Missing range boundaries default to the configured trailing window ending
// now.
func (s *Service) Overview(ctx context.Context, filter domain.Filter) (domain.Overview, error) {
	filter, err := s.applyDefaults(ctx, filter)
	if err != nil {
		return domain.Overview{}, err
	}
	if err := filter.Validate(); err != nil {
		return domain.Overview{}, err
	}

	freq, err := ResolveFrequency(filter.Start, filter.End)
	if err != nil {
		return domain.Overview{}, err
	}

	apps, err := s.registry.List(ctx, filter.Applications, false)
	if err != nil {
		return domain.Overview{}, fmt.Errorf("resolve tenant scope: %w", err)
	}

	entries, err := s.logs.QueryLogs(ctx, apps, filter)
	if err != nil {
		return domain.Overview{}, err
	}
	if s.logger != nil {
		s.logger.Debug("request logs queried",
			"tenants", len(apps),
			"rows", len(entries),
			"width", freq.Width.String(),
		)
	}

	return s.assemble(ctx, filter, freq, entries)
}

// Dashboard is the default landing view: the configured trailing window
// ending now, all tenants, no predicates.
func (s *Service) Dashboard(ctx context.Context, role string) (domain.Overview, error) {
	return s.Overview(ctx, domain.Filter{Role: role})
}

// assemble runs the independent aggregations on a bounded pool and joins
// the results into the envelope. The entries slice is read-only from here.
func (s *Service) assemble(ctx context.Context, filter domain.Filter, freq Frequency, entries []domain.LogEntry) (domain.Overview, error) {
	overview := domain.Overview{
		Filters: domain.FilterEcho{
			StartDate:       freq.Start.Format(time.RFC3339),
			EndDate:         freq.End.Format(time.RFC3339),
			StatusCode:      filter.StatusCodes,
			RequestMethod:   filter.Methods,
			ApplicationName: filter.Applications,
			Path:            filter.Paths,
		},
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(aggregationWorkers)

	run := func(task func()) {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			task()
			return nil
		})
	}

	run(func() { overview.Statistics = Summarize(entries) })
	run(func() { overview.TimeChart = BuildTimeChart(entries, freq) })
	run(func() {
		overview.AppChart = BuildAppChart(entries)
		overview.StatusCodeChart = BuildStatusChart(entries)
		overview.RequestMethodChart = BuildMethodChart(entries)
	})
	run(func() { overview.TopSlowestRoutes = TopSlowestRoutes(entries, TopN) })
	run(func() { overview.TopCountries = TopCountries(entries, TopN) })
	run(func() {
		overview.TopErrors = TopRecentErrors(entries, TopN)
		overview.DataTable = BuildDataTable(entries)
	})

	if err := group.Wait(); err != nil {
		return domain.Overview{}, err
	}
	return overview, nil
}

func (s *Service) applyDefaults(ctx context.Context, filter domain.Filter) (domain.Filter, error) {
	if !filter.Start.IsZero() && !filter.End.IsZero() {
		filter.Start = filter.Start.In(s.loc)
		filter.End = filter.End.In(s.loc)
		return filter, nil
	}

	window := settings.DefaultDateRange
	if s.settings != nil {
		resolved, err := s.settings.Load(ctx)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("resolve default date range: %w", err)
		}
		window = resolved.DefaultRange
	}

	now := s.now().In(s.loc)
	if filter.End.IsZero() {
		filter.End = now
	} else {
		filter.End = filter.End.In(s.loc)
	}
	if filter.Start.IsZero() {
		filter.Start = filter.End.Add(-window)
	} else {
		filter.Start = filter.Start.In(s.loc)
	}
	return filter, nil
}
