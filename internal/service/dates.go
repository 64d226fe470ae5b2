package service

import "time"

// parseDate parses a YYYY-MM-DD string, reporting ok=false for empty or
// malformed input. Request validation catches malformed dates first; this is
// the conversion step.
func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
