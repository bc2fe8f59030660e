package settings

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"log/slog"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
)

// ErrConfigUnavailable indicates neither the cache nor durable storage
// holds any of the required keys. The calling operation aborts.
var ErrConfigUnavailable = errors.New("settings: configuration unavailable")

// Cache is the fast configuration tier. Every error it returns is recovered
// locally by falling back to durable storage.
type Cache interface {
	Ping(ctx context.Context) error
	GetAll(ctx context.Context, keys []string) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// Service resolves configuration values cache-aside: fast tier first,
// durable storage on miss or cache failure, with best-effort backfill.
type Service struct {
	cache  Cache
	store  repository.ConfigurationRepository
	logger *slog.Logger
}

// New constructs a settings service.
func New(cache Cache, store repository.ConfigurationRepository, logger *slog.Logger) Service {
	if logger != nil {
		logger = logger.With("component", "settings")
	}
	return Service{cache: cache, store: store, logger: logger}
}

// Resolve returns the stored values for the required keys. The resolution
// chain is explicit: cache hit returns directly; a cache miss or any cache
// error falls back to durable storage; storage results are backfilled into
// the cache best-effort. Only when storage holds none of the keys does the
// call fail with ErrConfigUnavailable.
func (s Service) Resolve(ctx context.Context, keys ...string) (map[string]string, error) {
	canonical := canonicalKeys(keys)
	if len(canonical) == 0 {
		return map[string]string{}, nil
	}

	if cached, ok := s.fromCache(ctx, canonical); ok {
		return cached, nil
	}

	values, err := s.store.GetConfigurations(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("configuration storage: %w", err)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrConfigUnavailable, strings.Join(canonical, ", "))
	}

	s.backfill(ctx, values)
	return values, nil
}

// Put upserts configuration entries in durable storage and writes them
// through to the cache. Keys are canonicalized to upper case.
func (s Service) Put(ctx context.Context, values map[string]string) ([]domain.ConfigEntry, error) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	entries := make([]domain.ConfigEntry, 0, len(values))
	for _, key := range keys {
		entry := domain.ConfigEntry{Key: domain.CanonicalKey(key), Value: values[key]}
		if err := s.store.UpsertConfiguration(ctx, &entry); err != nil {
			return nil, fmt.Errorf("upsert configuration %s: %w", entry.Key, err)
		}
		if s.cache != nil {
			if err := s.cache.Set(ctx, entry.Key, entry.Value); err != nil {
				s.warn("cache write-through failed", "key", entry.Key, "error", err)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// fromCache attempts the fast path. It reports success only when the cache
// is reachable and holds an entry for every required key.
func (s Service) fromCache(ctx context.Context, keys []string) (map[string]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	if err := s.cache.Ping(ctx); err != nil {
		s.warn("configuration cache unreachable, falling back to storage", "error", err)
		return nil, false
	}
	values, err := s.cache.GetAll(ctx, keys)
	if err != nil {
		s.warn("configuration cache read failed, falling back to storage", "error", err)
		return nil, false
	}
	if len(values) < len(keys) {
		return nil, false
	}
	return values, true
}

func (s Service) backfill(ctx context.Context, values map[string]string) {
	if s.cache == nil {
		return
	}
	for key, value := range values {
		if err := s.cache.Set(ctx, key, value); err != nil {
			s.warn("configuration cache backfill failed", "key", key, "error", err)
			return
		}
	}
}

func (s Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func canonicalKeys(keys []string) []string {
	out := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		canonical := domain.CanonicalKey(key)
		if canonical == "" {
			continue
		}
		if _, dup := seen[canonical]; dup {
			continue
		}
		seen[canonical] = struct{}{}
		out = append(out, canonical)
	}
	return out
}
