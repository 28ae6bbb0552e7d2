// Package timeparse normalizes the timestamp encodings used by the facility
// status sources into UTC instants.
//
// Every parser is total: a missing or malformed value yields ok == false and
// never an error or panic. Two-digit years follow the Go time package pivot
// (69-99 map to 19xx, 00-68 map to 20xx).
package timeparse

import (
	"strings"
	"time"
)

const (
	// TabularLayout is the outage log format, e.g. "12/17/25 14:00".
	TabularLayout = "01/02/06 15:04"

	// CompactLayout is the NOTAM effective time format YYMMDDHHMM, e.g. "2512171400".
	CompactLayout = "0601021504"
	compactLen    = len(CompactLayout)
)

// isoLayouts are tried in order. Layouts without a zone parse as UTC.
var isoLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
	"2006-01-02T15Z07:00",
	"2006-01-02T15-0700",
	"2006-01-02T15",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04-0700",
	"2006-01-02 15:04",
	"2006-01-02 15Z07:00",
	"2006-01-02 15-0700",
	"2006-01-02 15",
	"2006-01-02",
}

// missingValues are the cell contents a spreadsheet export uses for "no value".
var missingValues = map[string]struct{}{
	"":     {},
	"nan":  {},
	"-nan": {},
	"na":   {},
	"n/a":  {},
	"#n/a": {},
	"<na>": {},
	"null": {},
	"none": {},
}

// ParseISO parses an ISO-8601 timestamp down to hour precision. A trailing Z
// (either case) is the same as +00:00,
// a timestamp without an offset is taken as UTC, and an explicit offset is
// converted to UTC.
func ParseISO(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if last := s[len(s)-1]; last == 'Z' || last == 'z' {
		s = s[:len(s)-1] + "+00:00"
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseTabular parses the outage log format "MM/DD/YY HH:MM" as UTC.
func ParseTabular(s string) (time.Time, bool) {
	if IsMissing(s) {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(TabularLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseCompact parses a YYMMDDHHMM block as UTC. Only the first ten
// characters are read so a block followed by other text still parses.
func ParseCompact(s string) (time.Time, bool) {
	if len(s) < compactLen {
		return time.Time{}, false
	}
	block := s[:compactLen]
	for i := 0; i < compactLen; i++ {
		if block[i] < '0' || block[i] > '9' {
			return time.Time{}, false
		}
	}
	t, err := time.ParseInLocation(CompactLayout, block, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsMissing reports whether a tabular cell holds a not-a-value marker.
func IsMissing(s string) bool {
	_, ok := missingValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Ptr converts a parse result into an optional time.
func Ptr(t time.Time, ok bool) *time.Time {
	if !ok {
		return nil
	}
	return &t
}
