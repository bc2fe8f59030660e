package registry

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
)

type stubApps struct {
	apps []domain.Application
	err  error
}

func (s *stubApps) ListApplications(context.Context) ([]domain.Application, error) {
	return s.apps, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListReturnsAllWithoutNames(t *testing.T) {
	svc := New(&stubApps{apps: []domain.Application{{Name: "Billing"}, {Name: "Identity"}}}, testLogger())

	apps, err := svc.List(context.Background(), nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected every registered tenant, got %d", len(apps))
	}
}

func TestListMatchesCaseInsensitively(t *testing.T) {
	svc := New(&stubApps{apps: []domain.Application{{Name: "Billing"}}}, testLogger())

	apps, err := svc.List(context.Background(), []string{"  bIlLiNg "}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(apps) != 1 || apps[0].Name != "Billing" {
		t.Fatalf("expected case-insensitive match, got %+v", apps)
	}
}

func TestListSilentlyExcludesUnknownNames(t *testing.T) {
	svc := New(&stubApps{apps: []domain.Application{{Name: "Billing"}}}, testLogger())

	apps, err := svc.List(context.Background(), []string{"billing", "ghost"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("expected unknown names to be dropped, got %+v", apps)
	}
}

func TestListDeduplicatesNames(t *testing.T) {
	svc := New(&stubApps{apps: []domain.Application{{Name: "Billing"}, {Name: "Identity"}}}, testLogger())

	apps, err := svc.List(context.Background(), []string{"billing", "Billing", " BILLING ", "identity"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("expected repeated names to select each tenant once, got %+v", apps)
	}
	if apps[0].Name != "Billing" || apps[1].Name != "Identity" {
		t.Fatalf("wrong selection: %+v", apps)
	}
}

func TestListStrictFailsOnUnknownName(t *testing.T) {
	svc := New(&stubApps{apps: []domain.Application{{Name: "Billing"}}}, testLogger())

	_, err := svc.List(context.Background(), []string{"ghost"}, true)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListStorageErrorSurfaces(t *testing.T) {
	svc := New(&stubApps{err: repository.ErrQueryFailed}, testLogger())

	_, err := svc.List(context.Background(), nil, false)
	if !errors.Is(err, repository.ErrQueryFailed) {
		t.Fatalf("expected ErrQueryFailed, got %v", err)
	}
}
