package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ipcproject/luna/internal/domain"
	"github.com/ipcproject/luna/internal/repository"
)

// logRelation is the per-tenant table holding captured requests. The schema
// part varies per tenant; both parts are quoted through pgx.Identifier.
const logRelation = "request_log"

// Column projections. Non-privileged callers never see request headers,
// body, user agent or the client address; those positions are filled with
// typed empty literals so a single scan path serves both roles.
const (
	fullColumns = `id, user_name, path, body, headers, method, ip_address, user_agent,
		city, country_name, country_code, process_time_ms, status_code, error_message, created_at`
	restrictedColumns = `id, user_name, path, ''::text AS body, NULL::jsonb AS headers, method,
		''::text AS ip_address, ''::text AS user_agent,
		city, country_name, country_code, process_time_ms, status_code, error_message, created_at`
)

// QueryLogs unions the log relation of every tenant in scope into one
// ordered result. All filter values are bound as parameters; the only text
// interpolated into the statement is the registry-sourced schema identifier,
// quoted via pgx.Identifier.
func (r *Repository) QueryLogs(ctx context.Context, apps []domain.Application, filter domain.Filter) ([]domain.LogEntry, error) {
	if len(apps) == 0 {
		return []domain.LogEntry{}, nil
	}

	query, args := buildLogQuery(apps, filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrQueryFailed, err)
	}
	defer rows.Close()

	entries := make([]domain.LogEntry, 0)
	for rows.Next() {
		entry, err := r.scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", repository.ErrQueryFailed, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrQueryFailed, err)
	}
	return entries, nil
}

// buildLogQuery assembles the cross-tenant statement and its bound
// arguments. Each tenant contributes one subquery over its own schema;
// predicates apply once over the combined result.
func buildLogQuery(apps []domain.Application, filter domain.Filter) (string, []any) {
	columns := restrictedColumns
	if filter.Privileged() {
		columns = fullColumns
	}

	var (
		args []any
		subs = make([]string, 0, len(apps))
	)
	for _, app := range apps {
		relation := pgx.Identifier{app.Schema(), logRelation}.Sanitize()
		args = append(args, app.Name)
		subs = append(subs, fmt.Sprintf("SELECT %s, $%d::text AS app_name FROM %s", columns, len(args), relation))
	}

	query := strings.Join(subs, " UNION ALL ")

	var conditions []string
	if !filter.Start.IsZero() && !filter.End.IsZero() {
		args = append(args, filter.Start)
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", len(args)))
		args = append(args, filter.End)
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if len(filter.StatusCodes) > 0 {
		args = append(args, filter.StatusCodes)
		conditions = append(conditions, fmt.Sprintf("status_code = ANY($%d)", len(args)))
	}
	if len(filter.Methods) > 0 {
		args = append(args, filter.Methods)
		conditions = append(conditions, fmt.Sprintf("method = ANY($%d)", len(args)))
	}
	if len(filter.Paths) > 0 {
		args = append(args, filter.Paths)
		conditions = append(conditions, fmt.Sprintf("path = ANY($%d)", len(args)))
	}

	if len(conditions) > 0 {
		query = fmt.Sprintf("SELECT * FROM (%s) AS combined WHERE %s", query, strings.Join(conditions, " AND "))
	} else {
		query = fmt.Sprintf("SELECT * FROM (%s) AS combined", query)
	}
	return query + " ORDER BY created_at ASC", args
}

func (r *Repository) scanLogEntry(rows pgx.Rows) (domain.LogEntry, error) {
	var (
		entry                      domain.LogEntry
		user, body, ip, agent      sql.NullString
		city, country, countryCode sql.NullString
		errorMessage               sql.NullString
		headers                    []byte
	)
	if err := rows.Scan(
		&entry.ID,
		&user,
		&entry.Path,
		&body,
		&headers,
		&entry.Method,
		&ip,
		&agent,
		&city,
		&country,
		&countryCode,
		&entry.ProcessTime,
		&entry.StatusCode,
		&errorMessage,
		&entry.CreatedAt,
		&entry.AppName,
	); err != nil {
		return domain.LogEntry{}, err
	}

	entry.User = user.String
	entry.Body = body.String
	entry.Headers = headers
	entry.IPAddress = ip.String
	entry.UserAgent = agent.String
	entry.City = city.String
	entry.CountryCode = countryCode.String
	entry.ErrorMessage = errorMessage.String
	entry.CountryName = country.String
	if strings.TrimSpace(entry.CountryName) == "" {
		entry.CountryName = domain.UnknownCountry
	}
	entry.CreatedAt = entry.CreatedAt.In(r.loc)
	return entry, nil
}
