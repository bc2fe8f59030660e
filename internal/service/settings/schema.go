package settings

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ipcproject/luna/internal/domain"
)

// Documented defaults applied when a key is absent or unparseable.
const (
	DefaultDateRange             = 7 * 24 * time.Hour
	DefaultErrorRateThreshold    = 10      // percent
	DefaultResponseTimeThreshold = 10000   // milliseconds
	DefaultInterval              = 15 * time.Minute
)

// Settings is the typed view of the configuration keys the core consumes.
type Settings struct {
	DefaultRange          time.Duration
	AlertActivated        bool
	ErrorRateThreshold    float64
	ResponseTimeThreshold float64
	Interval              time.Duration
	Recipients            []string
	Applications          []string
}

// fieldSpec binds one configuration key to its parser and default. The
// schema replaces scattered parse-or-default calls at each use site.
type fieldSpec struct {
	key      string
	fallback string
	apply    func(*Settings, string) error
}

var schema = []fieldSpec{
	{domain.KeyDefaultDateRange, "7D", func(s *Settings, v string) (err error) {
		s.DefaultRange, err = parseRange(v)
		return err
	}},
	{domain.KeyAlertActivated, "False", func(s *Settings, v string) (err error) {
		s.AlertActivated, err = strconv.ParseBool(v)
		return err
	}},
	{domain.KeyErrorRateThreshold, "10", func(s *Settings, v string) (err error) {
		s.ErrorRateThreshold, err = strconv.ParseFloat(v, 64)
		return err
	}},
	{domain.KeyResponseTimeThreshold, "10000", func(s *Settings, v string) (err error) {
		s.ResponseTimeThreshold, err = strconv.ParseFloat(v, 64)
		return err
	}},
	{domain.KeySendEmailEvery, "15", func(s *Settings, v string) error {
		minutes, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if minutes <= 0 {
			return fmt.Errorf("interval must be positive, got %d", minutes)
		}
		s.Interval = time.Duration(minutes) * time.Minute
		return nil
	}},
	{domain.KeyRecipients, "[]", func(s *Settings, v string) error {
		s.Recipients = domain.ParseList(v)
		return nil
	}},
	{domain.KeyApplications, "[]", func(s *Settings, v string) error {
		s.Applications = domain.ParseList(v)
		return nil
	}},
}

// Load resolves every core configuration key and parses the values against
// the schema in one pass. A key that is absent or fails to parse takes its
// documented default; the failure is logged, not raised.
func (s Service) Load(ctx context.Context) (Settings, error) {
	keys := make([]string, len(schema))
	for i, field := range schema {
		keys[i] = field.key
	}
	values, err := s.Resolve(ctx, keys...)
	if err != nil {
		return Settings{}, err
	}

	var out Settings
	for _, field := range schema {
		raw, ok := values[field.key]
		if !ok {
			raw = field.fallback
		}
		if err := field.apply(&out, raw); err != nil {
			s.warn("invalid configuration value, using default", "key", field.key, "value", raw, "error", err)
			if err := field.apply(&out, field.fallback); err != nil {
				return Settings{}, fmt.Errorf("default for %s: %w", field.key, err)
			}
		}
	}
	return out, nil
}

// parseRange reads range literals such as "7D", "36H" or "90M". The bare
// number form means days.
func parseRange(value string) (time.Duration, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return 0, fmt.Errorf("empty range")
	}
	unit := time.Duration(24) * time.Hour
	switch v[len(v)-1] {
	case 'D':
		v = v[:len(v)-1]
	case 'W':
		unit = 7 * 24 * time.Hour
		v = v[:len(v)-1]
	case 'H':
		unit = time.Hour
		v = v[:len(v)-1]
	case 'M':
		unit = time.Minute
		v = v[:len(v)-1]
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid range %q: %w", value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("range must be positive, got %d", n)
	}
	return time.Duration(n) * unit, nil
}
