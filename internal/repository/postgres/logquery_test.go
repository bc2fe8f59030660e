package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/ipcproject/luna/internal/domain"
)

func TestBuildLogQueryUnionsTenantSchemas(t *testing.T) {
	apps := []domain.Application{{Name: "Billing"}, {Name: "identity"}}

	query, args := buildLogQuery(apps, domain.Filter{Role: domain.RoleAdmin})

	if got := strings.Count(query, " UNION ALL "); got != 1 {
		t.Fatalf("expected one UNION ALL for two tenants, got %d in %s", got, query)
	}
	if !strings.Contains(query, `"billing"."request_log"`) || !strings.Contains(query, `"identity"."request_log"`) {
		t.Fatalf("expected quoted per-tenant relations, got %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY created_at ASC") {
		t.Fatalf("expected chronological ordering, got %s", query)
	}
	if len(args) != 2 || args[0] != "Billing" || args[1] != "identity" {
		t.Fatalf("expected tenant names bound as app_name args, got %v", args)
	}
}

func TestBuildLogQueryBindsPredicates(t *testing.T) {
	apps := []domain.Application{{Name: "billing"}}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	filter := domain.Filter{
		Start:       start,
		End:         start.Add(time.Hour),
		StatusCodes: []int{500, 502},
		Methods:     []string{"GET"},
		Paths:       []string{"/checkout'; DROP TABLE users;--"},
	}

	query, args := buildLogQuery(apps, filter)

	if strings.Contains(query, "DROP TABLE") {
		t.Fatalf("filter values must never be interpolated: %s", query)
	}
	for _, placeholder := range []string{"$1", "$2", "$3", "$4", "$5", "$6"} {
		if !strings.Contains(query, placeholder) {
			t.Fatalf("missing placeholder %s in %s", placeholder, query)
		}
	}
	if len(args) != 6 {
		t.Fatalf("expected 6 bound args, got %d: %v", len(args), args)
	}
	for _, clause := range []string{"created_at >= $2", "created_at <= $3", "status_code = ANY($4)", "method = ANY($5)", "path = ANY($6)"} {
		if !strings.Contains(query, clause) {
			t.Fatalf("missing clause %q in %s", clause, query)
		}
	}
}

func TestBuildLogQueryRestrictedProjection(t *testing.T) {
	apps := []domain.Application{{Name: "billing"}}

	restricted, _ := buildLogQuery(apps, domain.Filter{})
	if !strings.Contains(restricted, "''::text AS body") || !strings.Contains(restricted, "NULL::jsonb AS headers") {
		t.Fatalf("expected empty typed literals for sensitive columns, got %s", restricted)
	}
	if !strings.Contains(restricted, "''::text AS ip_address") || !strings.Contains(restricted, "''::text AS user_agent") {
		t.Fatalf("expected client address and agent redacted, got %s", restricted)
	}

	full, _ := buildLogQuery(apps, domain.Filter{Role: domain.RoleAdmin})
	if strings.Contains(full, "''::text AS body") {
		t.Fatalf("privileged projection must expose real columns, got %s", full)
	}
	if !strings.Contains(full, "headers") || !strings.Contains(full, "ip_address") {
		t.Fatalf("privileged projection missing sensitive columns: %s", full)
	}
}
