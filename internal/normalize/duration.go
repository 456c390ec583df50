package normalize

import (
	"strings"
	"time"
)

// DefaultFallbackDurationDays is the day count assumed when the duration
// field is absent or cannot be parsed.
const DefaultFallbackDurationDays = 7

// Accepted date layouts: ISO for structured extractor output, day-first
// for dates copied verbatim from Czech forms.
var dateLayouts = []string{
	"2006-01-02",
	"2.1.2006",
	"2. 1. 2006",
}

// ParseDuration normalizes the three duration shapes extractors produce
// into an inclusive day count:
//
//   - object with start_date/end_date (or start/end) ISO dates,
//   - a single "<start> - <end>" string with day-first dates,
//   - anything else → fallbackDays.
func ParseDuration(v any, fallbackDays int) int {
	if fallbackDays <= 0 {
		fallbackDays = DefaultFallbackDurationDays
	}
	switch t := v.(type) {
	case map[string]any:
		start, end := durationBounds(t)
		if days, ok := daysBetween(start, end); ok {
			return days
		}
	case string:
		if start, end, ok := splitRange(t); ok {
			if days, ok := daysBetween(start, end); ok {
				return days
			}
		}
	}
	return fallbackDays
}

// durationBounds pulls the start/end strings out of an object-shaped
// duration, accepting both key spellings.
func durationBounds(m map[string]any) (string, string) {
	pick := func(keys ...string) string {
		for _, k := range keys {
			if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
		return ""
	}
	return pick("start_date", "start"), pick("end_date", "end")
}

// splitRange splits "<start> - <end>". The separator must be a spaced
// hyphen so that ISO dates inside the bounds survive.
func splitRange(s string) (string, string, bool) {
	parts := strings.SplitN(s, " - ", 2)
	if len(parts) != 2 {
		// tolerate "01.01.2025-10.01.2025" when neither side is ISO
		if !strings.Contains(s, "-") || strings.Count(s, "-") != 1 {
			return "", "", false
		}
		parts = strings.SplitN(s, "-", 2)
	}
	start := strings.TrimSpace(parts[0])
	end := strings.TrimSpace(parts[1])
	if start == "" || end == "" {
		return "", "", false
	}
	return start, end, true
}

// daysBetween returns the inclusive day count (end - start) + 1.
func daysBetween(start, end string) (int, bool) {
	s, ok := parseDate(start)
	if !ok {
		return 0, false
	}
	e, ok := parseDate(end)
	if !ok {
		return 0, false
	}
	if e.Before(s) {
		return 0, false
	}
	return int(e.Sub(s).Hours()/24) + 1, true
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
