package analytics

import (
	"time"

	"github.com/ipcproject/luna/internal/domain"
)

// Width is the adaptive resampling granularity for time-series buckets.
type Width int

const (
	WidthMinute Width = iota
	WidthFiveMinutes
	WidthTenMinutes
	WidthHour
	WidthDay
	WidthWeek
	WidthMonth
	WidthYear
)

// String names the width the way chart consumers label it.
func (w Width) String() string {
	switch w {
	case WidthMinute:
		return "min"
	case WidthFiveMinutes:
		return "5min"
	case WidthTenMinutes:
		return "10min"
	case WidthHour:
		return "hour"
	case WidthDay:
		return "day"
	case WidthWeek:
		return "week"
	case WidthMonth:
		return "month"
	case WidthYear:
		return "year"
	default:
		return "unknown"
	}
}

// Frequency is a resolved resampling plan: the chosen bucket width, the
// range boundaries aligned to bucket edges, and the complete ordered edge
// sequence. The edges are the reindexing domain for every time series, so a
// bucket appears even when no rows fall into it.
type Frequency struct {
	Width Width
	Start time.Time
	End   time.Time
	Edges []time.Time
}

// ResolveFrequency picks the bucket width for a start/end pair and aligns
// the boundaries. Policy, first match wins, with days the floored day span
// and hours the fractional hour span:
//
//	days <= 2, hours <= 1    minute
//	days <= 2, hours <= 4    5 minutes
//	days <= 2, hours <= 12   10 minutes
//	days <= 2                hour        (minutes truncated)
//	days <= 60               day         (midnight; end pushed to 23:59)
//	days <= 180              week        (weeks end on Sunday)
//	days <= 1825             month
//	else                     year
//
// Seconds and sub-second components are always zeroed first.
func ResolveFrequency(start, end time.Time) (Frequency, error) {
	start = start.Truncate(time.Minute)
	end = end.Truncate(time.Minute)
	if start.After(end) {
		return Frequency{}, &domain.ValidationError{Field: "date_range", Message: "start is after end"}
	}

	days := int(end.Sub(start).Hours() / 24)
	hours := end.Sub(start).Hours()

	var width Width
	switch {
	case days <= 2 && hours <= 1:
		width = WidthMinute
	case days <= 2 && hours <= 4:
		width = WidthFiveMinutes
	case days <= 2 && hours <= 12:
		width = WidthTenMinutes
	case days <= 2:
		width = WidthHour
		start = start.Add(-time.Duration(start.Minute()) * time.Minute)
		end = end.Add(-time.Duration(end.Minute()) * time.Minute)
	case days <= 60:
		width = WidthDay
		start = midnight(start)
		end = midnight(end).Add(23*time.Hour + 59*time.Minute)
	case days <= 180:
		width = WidthWeek
		start = midnight(start)
		end = midnight(end)
	case days <= 1825:
		width = WidthMonth
		start = midnight(start)
		end = midnight(end)
	default:
		width = WidthYear
		start = midnight(start)
		end = midnight(end)
	}

	f := Frequency{Width: width, Start: start, End: end}
	f.Edges = f.edges()
	return f, nil
}

// Bucket maps a timestamp onto its bucket edge. Fixed widths bucket with
// the aligned start as origin; calendar widths truncate to the enclosing
// day, month or year, and weeks label by their ending Sunday.
func (f Frequency) Bucket(t time.Time) time.Time {
	switch f.Width {
	case WidthMinute, WidthFiveMinutes, WidthTenMinutes, WidthHour:
		d := f.width()
		return f.Start.Add(t.Sub(f.Start) / d * d)
	case WidthDay:
		return midnight(t)
	case WidthWeek:
		return weekEnd(t)
	case WidthMonth:
		return monthStart(t)
	default:
		return yearStart(t)
	}
}

func (f Frequency) width() time.Duration {
	switch f.Width {
	case WidthMinute:
		return time.Minute
	case WidthFiveMinutes:
		return 5 * time.Minute
	case WidthTenMinutes:
		return 10 * time.Minute
	default:
		return time.Hour
	}
}

func (f Frequency) edges() []time.Time {
	var out []time.Time
	switch f.Width {
	case WidthMinute, WidthFiveMinutes, WidthTenMinutes, WidthHour:
		for e := f.Start; !e.After(f.End); e = e.Add(f.width()) {
			out = append(out, e)
		}
	case WidthDay:
		for e := midnight(f.Start); !e.After(f.End); e = e.AddDate(0, 0, 1) {
			out = append(out, e)
		}
	case WidthWeek:
		last := weekEnd(f.End)
		for e := weekEnd(f.Start); !e.After(last); e = e.AddDate(0, 0, 7) {
			out = append(out, e)
		}
	case WidthMonth:
		last := monthStart(f.End)
		for e := monthStart(f.Start); !e.After(last); e = e.AddDate(0, 1, 0) {
			out = append(out, e)
		}
	default:
		last := yearStart(f.End)
		for e := yearStart(f.Start); !e.After(last); e = e.AddDate(1, 0, 0) {
			out = append(out, e)
		}
	}
	return out
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekEnd returns midnight of the Sunday ending the week containing t.
// A Sunday maps to itself.
func weekEnd(t time.Time) time.Time {
	d := midnight(t)
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset)
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func yearStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}
