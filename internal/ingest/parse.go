package ingest

import (
	"strconv"
	"strings"
	"time"
)

// dateLayouts are tried in order when normalizing the source date field.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006/01/02",
	"02-01-2006",
	"Jan 2, 2006",
	time.RFC3339,
}

// parseDateISO normalizes a source date to YYYY-MM-DD. Unparsable input
// yields nil, never a sentinel date.
func parseDateISO(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}
	return nil
}

// parseFloatPtr parses a float, returning nil on empty or unparsable input.
// A value that parses to literal 0 is kept as 0; missing and zero stay
// distinct all the way to the store.
func parseFloatPtr(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseCoordinate splits a quoted "lon, lat" pair. A missing or malformed
// component degrades to nil for that component only.
func parseCoordinate(s string) (lon, lat *float64) {
	parts := strings.Split(trimQuotes(s), ",")
	if len(parts) < 2 {
		return nil, nil
	}
	return parseFloatPtr(parts[0]), parseFloatPtr(parts[1])
}

// trimQuotes removes double quotes and surrounding space from a CSV field.
func trimQuotes(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}

// strPtr returns a pointer to the trimmed string, or nil when empty.
func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
