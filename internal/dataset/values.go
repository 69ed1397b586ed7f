package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// TryParseNumber is the single definition of "numeric-looking" used by
// inference, aggregation and plan building. Surrounding spaces are ignored;
// the value must parse as a decimal float and be finite. Go's hex float
// and digit-separator forms are not numbers here.
func TryParseNumber(v string) (float64, bool) {
	s := strings.TrimSpace(v)
	if s == "" || strings.ContainsRune(s, '_') {
		return 0, false
	}
	if digits := strings.TrimLeft(s, "+-"); len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// dateLayouts is the accepted date grammar. Month-first is the only
// numeric day/month order; bare numbers such as "2024" never match.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2006",
	"January 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate parses v against the date grammar.
func ParseDate(v string) (time.Time, bool) {
	s := strings.TrimSpace(v)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LooksLikeDate reports whether v is a calendar date under the grammar.
func LooksLikeDate(v string) bool {
	_, ok := ParseDate(v)
	return ok
}
