// Package datefield converts date-like values in schemaless client payloads
// into time.Time, which the document store persists as its timestamp type.
//
// Detection is gated on the key name only: a value is converted when its key
// contains one of KeySubstrings (case-insensitive). A parseable date under any
// other key is left exactly as sent.
package datefield

import (
	"math"
	"strings"
	"time"
)

// KeySubstrings are the case-insensitive substrings that mark a key as date-like.
var KeySubstrings = []string{"date", "created", "expires", "time"}

// layouts are tried in order when converting string values.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"January 2, 2006",
	"Jan 2, 2006",
	"01/02/2006",
}

// IsDateKey reports whether key names a date-like field.
func IsDateKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range KeySubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Normalize walks v in place. Map entries under date-like keys holding epoch
// milliseconds or a parseable date string become time.Time (UTC); maps and
// slices are descended into. Normalize returns v for convenience.
func Normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		normalizeMap(t)
	case []interface{}:
		for i := range t {
			t[i] = Normalize(t[i])
		}
	}
	return v
}

func normalizeMap(m map[string]interface{}) {
	for k, val := range m {
		if val == nil {
			continue
		}
		if _, ok := val.(time.Time); ok {
			continue
		}
		if IsDateKey(k) {
			if ts, ok := convert(val); ok {
				m[k] = ts
				continue
			}
		}
		switch val.(type) {
		case map[string]interface{}, []interface{}:
			Normalize(val)
		}
	}
}

func convert(v interface{}) (time.Time, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(n)).UTC(), true
	case int64:
		return time.UnixMilli(n).UTC(), true
	case int:
		return time.UnixMilli(int64(n)).UTC(), true
	case string:
		return Parse(n)
	}
	return time.Time{}, false
}

// Parse parses s with the first matching supported layout.
func Parse(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
