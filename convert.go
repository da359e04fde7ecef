package cascata

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// buildRegistry overlays user converters on the built-in defaults. The result
// is built once per entry-point call and shared read-only across the whole
// recursive materialization.
func buildRegistry(o *options) map[reflect.Type]Converter {
	reg := make(map[reflect.Type]Converter, len(o.converters)+2)
	if o.convertPaths {
		reg[pathType] = convertPath
	}
	if o.convertDates {
		reg[timeType] = convertTime
	}
	for t, fn := range o.converters {
		reg[t] = fn
	}
	return reg
}

// convertPath widens a raw string to Path. An already-converted Path passes
// through unchanged.
func convertPath(raw any) (any, error) {
	switch v := raw.(type) {
	case Path:
		return v, nil
	case string:
		return Path(v), nil
	default:
		return nil, fmt.Errorf("expected string for path, got %T", raw)
	}
}

// convertTime accepts time.Time values unchanged and parses strings as
// RFC 3339 / ISO-8601 date-times or dates, widening date-only values to
// midnight UTC.
func convertTime(raw any) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTimeString(strings.TrimSpace(v))
	default:
		return nil, fmt.Errorf("expected datetime or string, got %T", raw)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimeString(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	if d, err := time.Parse("2006-01-02", s); err == nil {
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time %q", s)
}
