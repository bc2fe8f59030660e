package analytics

import (
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/ipcproject/luna/internal/domain"
)

// Summarize computes the summary statistics block. Percentages are 0%-safe:
// an empty table yields zero counts and "0%" rates, never a division by zero.
func Summarize(entries []domain.LogEntry) domain.Statistics {
	stats := domain.Statistics{
		TotalRequests:   len(entries),
		SuccessRate:     "0%",
		ClientErrorRate: "0%",
		ServerErrorRate: "0%",
	}

	var processTimeSum float64
	for _, entry := range entries {
		processTimeSum += entry.ProcessTime
		switch {
		case entry.IsServerError():
			stats.ServerErrorRequests++
		case entry.IsClientError():
			stats.ClientErrorRequests++
		default:
			stats.SuccessRequests++
		}
	}
	if stats.TotalRequests == 0 {
		return stats
	}

	total := float64(stats.TotalRequests)
	stats.SuccessRate = formatPercent(float64(stats.SuccessRequests) / total * 100)
	stats.ClientErrorRate = formatPercent(float64(stats.ClientErrorRequests) / total * 100)
	stats.ServerErrorRate = formatPercent(float64(stats.ServerErrorRequests) / total * 100)
	stats.AverageResponseTime = round2(processTimeSum / total)
	return stats
}

// BuildTimeChart buckets success counts, error counts and mean process time
// onto the frequency's edge sequence. Every edge appears; empty buckets are
// zero-filled.
func BuildTimeChart(entries []domain.LogEntry, freq Frequency) domain.TimeChart {
	index := make(map[int64]int, len(freq.Edges))
	categories := make([]string, len(freq.Edges))
	for i, edge := range freq.Edges {
		index[edge.Unix()] = i
		categories[i] = edge.Format(time.RFC3339)
	}

	success := make([]float64, len(freq.Edges))
	errorsData := make([]float64, len(freq.Edges))
	latencySum := make([]float64, len(freq.Edges))
	latencyCount := make([]float64, len(freq.Edges))
	for _, entry := range entries {
		i, ok := index[freq.Bucket(entry.CreatedAt).Unix()]
		if !ok {
			continue
		}
		if entry.IsSuccess() {
			success[i]++
		} else {
			errorsData[i]++
		}
		latencySum[i] += entry.ProcessTime
		latencyCount[i]++
	}

	latency := make([]float64, len(freq.Edges))
	for i := range latency {
		if latencyCount[i] > 0 {
			latency[i] = round2(latencySum[i] / latencyCount[i])
		}
	}

	return domain.TimeChart{
		Categories: categories,
		RequestSeries: []domain.Series{
			{Name: "Success", Data: success},
			{Name: "Error", Data: errorsData},
		},
		ResponseTimeSeries: []domain.Series{
			{Name: "Response Time (ms)", Data: latency},
		},
	}
}

// BuildAppChart breaks requests down per tenant into success and error
// series sharing the tenant category set.
func BuildAppChart(entries []domain.LogEntry) domain.Chart {
	apps := appCategories(entries)
	index := make(map[string]int, len(apps))
	for i, app := range apps {
		index[app] = i
	}

	success := make([]float64, len(apps))
	errorsData := make([]float64, len(apps))
	for _, entry := range entries {
		i := index[entry.AppName]
		if entry.IsSuccess() {
			success[i]++
		} else {
			errorsData[i]++
		}
	}
	return domain.Chart{
		Categories: apps,
		Series: []domain.Series{
			{Name: "Success", Data: success},
			{Name: "Error", Data: errorsData},
		},
	}
}

// BuildStatusChart breaks error responses (status >= 400) down per tenant.
// Every tenant series is reindexed onto the global sorted status-code set,
// so all series align across tenants.
func BuildStatusChart(entries []domain.LogEntry) domain.StatusChart {
	apps := appCategories(entries)

	codeSet := make(map[int]struct{})
	for _, entry := range entries {
		if entry.StatusCode >= 400 {
			codeSet[entry.StatusCode] = struct{}{}
		}
	}
	codes := make([]int, 0, len(codeSet))
	for code := range codeSet {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	codeIndex := make(map[int]int, len(codes))
	for i, code := range codes {
		codeIndex[code] = i
	}

	series := make([]domain.Series, len(apps))
	for i, app := range apps {
		series[i] = domain.Series{Name: app, Data: make([]float64, len(codes))}
	}
	appIndex := make(map[string]int, len(apps))
	for i, app := range apps {
		appIndex[app] = i
	}
	for _, entry := range entries {
		j, ok := codeIndex[entry.StatusCode]
		if !ok {
			continue
		}
		series[appIndex[entry.AppName]].Data[j]++
	}
	return domain.StatusChart{Categories: codes, Series: series}
}

// BuildMethodChart breaks requests down per tenant over the global sorted
// method set.
func BuildMethodChart(entries []domain.LogEntry) domain.Chart {
	apps := appCategories(entries)

	methodSet := make(map[string]struct{})
	for _, entry := range entries {
		methodSet[entry.Method] = struct{}{}
	}
	methods := make([]string, 0, len(methodSet))
	for method := range methodSet {
		methods = append(methods, method)
	}
	sort.Strings(methods)

	methodIndex := make(map[string]int, len(methods))
	for i, method := range methods {
		methodIndex[method] = i
	}

	series := make([]domain.Series, len(apps))
	for i, app := range apps {
		series[i] = domain.Series{Name: app, Data: make([]float64, len(methods))}
	}
	appIndex := make(map[string]int, len(apps))
	for i, app := range apps {
		appIndex[app] = i
	}
	for _, entry := range entries {
		series[appIndex[entry.AppName]].Data[methodIndex[entry.Method]]++
	}
	return domain.Chart{Categories: methods, Series: series}
}

// appCategories returns tenant names in first-appearance order.
func appCategories(entries []domain.LogEntry) []string {
	seen := make(map[string]struct{})
	apps := make([]string, 0)
	for _, entry := range entries {
		if _, ok := seen[entry.AppName]; ok {
			continue
		}
		seen[entry.AppName] = struct{}{}
		apps = append(apps, entry.AppName)
	}
	return apps
}

// formatPercent renders a rate rounded to two decimals, keeping at least
// one decimal place ("80.0%", "33.33%").
func formatPercent(v float64) string {
	s := strconv.FormatFloat(round2(v), 'f', 2, 64)
	if s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	return s + "%"
}

func round2(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*100) / 100
}

func round3(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Round(v*1000) / 1000
}
