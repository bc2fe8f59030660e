package analytics

import (
	"sort"

	"github.com/ipcproject/luna/internal/domain"
)

// TopN is the size bound for every ranked list.
const TopN = 50

// TopSlowestRoutes ranks (tenant, path) groups by mean process time,
// descending. Ties keep the original grouping order. Each group carries
// every method observed for it.
func TopSlowestRoutes(entries []domain.LogEntry, n int) []domain.SlowRoute {
	type key struct{ app, path string }
	type group struct {
		route   domain.SlowRoute
		sum     float64
		count   int
		methods map[string]struct{}
	}

	order := make([]key, 0)
	groups := make(map[key]*group)
	for _, entry := range entries {
		k := key{entry.AppName, entry.Path}
		g, ok := groups[k]
		if !ok {
			g = &group{
				route:   domain.SlowRoute{AppName: entry.AppName, Path: entry.Path},
				methods: make(map[string]struct{}),
			}
			groups[k] = g
			order = append(order, k)
		}
		g.sum += entry.ProcessTime
		g.count++
		if _, seen := g.methods[entry.Method]; !seen {
			g.methods[entry.Method] = struct{}{}
			g.route.Methods = append(g.route.Methods, entry.Method)
		}
	}

	routes := make([]domain.SlowRoute, 0, len(order))
	for _, k := range order {
		g := groups[k]
		g.route.AvgProcessTime = round3(g.sum / float64(g.count))
		routes = append(routes, g.route)
	}
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].AvgProcessTime > routes[j].AvgProcessTime
	})
	if len(routes) > n {
		routes = routes[:n]
	}
	return routes
}

// TopCountries ranks countries by request count, descending. Rows without a
// resolved country (blank or the "Unknown" sentinel) are excluded.
func TopCountries(entries []domain.LogEntry, n int) []domain.CountryCount {
	type key struct{ name, code string }

	order := make([]key, 0)
	counts := make(map[key]int)
	for _, entry := range entries {
		if entry.CountryName == "" || entry.CountryName == domain.UnknownCountry {
			continue
		}
		k := key{entry.CountryName, entry.CountryCode}
		if _, ok := counts[k]; !ok {
			order = append(order, k)
		}
		counts[k]++
	}

	countries := make([]domain.CountryCount, 0, len(order))
	for _, k := range order {
		countries = append(countries, domain.CountryCount{
			CountryName: k.name,
			CountryCode: k.code,
			Count:       counts[k],
		})
	}
	sort.SliceStable(countries, func(i, j int) bool {
		return countries[i].Count > countries[j].Count
	})
	if len(countries) > n {
		countries = countries[:n]
	}
	return countries
}

// TopRecentErrors returns the most recent error rows (status >= 400),
// newest first.
func TopRecentErrors(entries []domain.LogEntry, n int) []domain.ErrorEntry {
	errorRows := make([]domain.ErrorEntry, 0)
	for _, entry := range entries {
		if entry.StatusCode < 400 {
			continue
		}
		errorRows = append(errorRows, domain.ErrorEntry{
			ID:           entry.ID,
			AppName:      entry.AppName,
			Path:         entry.Path,
			Method:       entry.Method,
			StatusCode:   entry.StatusCode,
			ErrorMessage: entry.ErrorMessage,
			CreatedAt:    entry.CreatedAt,
		})
	}
	sort.SliceStable(errorRows, func(i, j int) bool {
		return errorRows[i].CreatedAt.After(errorRows[j].CreatedAt)
	})
	if len(errorRows) > n {
		errorRows = errorRows[:n]
	}
	return errorRows
}

// BuildDataTable rolls every row up by path: observed methods, process-time
// spread, sorted status codes, most recent hit and per-class counts, ordered
// by total count descending.
func BuildDataTable(entries []domain.LogEntry) []domain.PathStats {
	type group struct {
		stats   domain.PathStats
		sum     float64
		methods map[string]struct{}
		codes   map[int]struct{}
	}

	order := make([]string, 0)
	groups := make(map[string]*group)
	for _, entry := range entries {
		g, ok := groups[entry.Path]
		if !ok {
			g = &group{
				stats:   domain.PathStats{Path: entry.Path, MinProcessTime: entry.ProcessTime},
				methods: make(map[string]struct{}),
				codes:   make(map[int]struct{}),
			}
			groups[entry.Path] = g
			order = append(order, entry.Path)
		}

		g.stats.TotalRequests++
		switch {
		case entry.IsServerError():
			g.stats.ServerErrorRequests++
		case entry.IsClientError():
			g.stats.ClientErrorRequests++
		default:
			g.stats.SuccessRequests++
		}

		g.sum += entry.ProcessTime
		if entry.ProcessTime < g.stats.MinProcessTime {
			g.stats.MinProcessTime = entry.ProcessTime
		}
		if entry.ProcessTime > g.stats.MaxProcessTime {
			g.stats.MaxProcessTime = entry.ProcessTime
		}
		if entry.CreatedAt.After(g.stats.LastSeen) {
			g.stats.LastSeen = entry.CreatedAt
		}
		if _, seen := g.methods[entry.Method]; !seen {
			g.methods[entry.Method] = struct{}{}
			g.stats.Methods = append(g.stats.Methods, entry.Method)
		}
		if _, seen := g.codes[entry.StatusCode]; !seen {
			g.codes[entry.StatusCode] = struct{}{}
			g.stats.StatusCodes = append(g.stats.StatusCodes, entry.StatusCode)
		}
	}

	table := make([]domain.PathStats, 0, len(order))
	for _, path := range order {
		g := groups[path]
		g.stats.AvgProcessTime = round2(g.sum / float64(g.stats.TotalRequests))
		g.stats.MinProcessTime = round2(g.stats.MinProcessTime)
		g.stats.MaxProcessTime = round2(g.stats.MaxProcessTime)
		sort.Ints(g.stats.StatusCodes)
		table = append(table, g.stats)
	}
	sort.SliceStable(table, func(i, j int) bool {
		return table[i].TotalRequests > table[j].TotalRequests
	})
	return table
}
