package core

// convert.go provides the value coercions shared by the interactive and
// import paths.
//
// These functions handle the messy reality of form posts and spreadsheets:
//   - Date-only strings that must not drift across time zones
//   - Spreadsheet date serials (days since 1899-12-30)
//   - Phone numbers typed with spaces, dashes and parentheses
//   - National IDs with separators and mixed case
//   - Boolean answers in English, digits, or Arabic
//
// None of them fail loudly. A value that cannot be coerced is reported with
// ok=false and the caller drops the field.

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	isoDatePattern    = regexp.MustCompile(`^\s*(\d{4})-(\d{1,2})-(\d{1,2})\s*$`)
	dateSerialPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
	phoneNoise        = regexp.MustCompile(`[\s\-()]+`)
	cinSeparators     = regexp.MustCompile(`[-\s]+`)
)

// SpreadsheetEpoch is day zero for spreadsheet date serials.
var SpreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// genericDateLayouts are tried in order when a date is not YYYY-M-D.
// Month-first slash dates follow the usual spreadsheet export convention.
var genericDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/1/2",
	"2006.1.2",
	"1/2/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Mon Jan 2 2006",
	time.RFC1123,
	time.RFC1123Z,
}

// utcDate builds a UTC midnight date. Out-of-range components are rejected
// unless rollover is set, in which case they carry into the next month or
// year (2024-02-30 is 2024-03-01).
func utcDate(y, m, d int, rollover bool) (time.Time, bool) {
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if !rollover && (t.Year() != y || int(t.Month()) != m || t.Day() != d) {
		return time.Time{}, false
	}
	return t, true
}

// parseISODate parses YYYY-M-D. matched reports whether the pattern applied
// at all, so callers can fall through to other encodings only when it did not.
func parseISODate(s string, rollover bool) (t time.Time, ok bool, matched bool) {
	m := isoDatePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	t, ok = utcDate(y, mo, d, rollover)
	return t, ok, true
}

func parseGenericDate(s string) (time.Time, bool) {
	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseMembershipDate parses a membership date typed into a form.
// YYYY-M-D input becomes UTC midnight; other input goes through the
// generic layouts. Blank or unparseable input returns ok=false.
func ParseMembershipDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok, matched := parseISODate(s, false); matched {
		return t, ok
	}
	return parseGenericDate(s)
}

// ParseSpreadsheetDate parses a membership date cell. It accepts YYYY-M-D
// strings, numeric date serials (as numbers or digit strings), and the
// generic layouts. Unlike ParseMembershipDate, out-of-range YYYY-M-D
// components roll over instead of failing.
func ParseSpreadsheetDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return x.UTC(), true
	case float64:
		return serialDate(x)
	case float32:
		return serialDate(float64(x))
	case int:
		return serialDate(float64(x))
	case int64:
		return serialDate(float64(x))
	}

	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return time.Time{}, false
	}
	if t, ok, matched := parseISODate(s, true); matched {
		return t, ok
	}
	if dateSerialPattern.MatchString(s) {
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, false
		}
		return serialDate(n)
	}
	return parseGenericDate(s)
}

func serialDate(n float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return time.Time{}, false
	}
	return SerialToTime(n), true
}

// SerialToTime converts a spreadsheet date serial to a UTC time using exact
// millisecond arithmetic from SpreadsheetEpoch.
func SerialToTime(serial float64) time.Time {
	ms := math.Round(serial * 24 * 60 * 60 * 1000)
	return SpreadsheetEpoch.Add(time.Duration(ms) * time.Millisecond)
}

// CleanPhone strips whitespace, hyphens and parentheses.
func CleanPhone(s string) string {
	return strings.TrimSpace(phoneNoise.ReplaceAllString(s, ""))
}

// CleanCIN trims and uppercases a national ID and strips dashes and spaces.
func CleanCIN(s string) string {
	return cinSeparators.ReplaceAllString(strings.ToUpper(strings.TrimSpace(s)), "")
}

// ParseBool accepts true, "1", "yes", "y" and "نعم" (case-insensitive).
// Everything else, including nil, is false.
func ParseBool(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	}
	switch strings.ToLower(strings.TrimSpace(stringify(v))) {
	case "true", "1", "نعم", "y", "yes":
		return true
	default:
		return false
	}
}

// ToMembershipID coerces a positive whole number. Anything else is rejected.
func ToMembershipID(v any) (int64, bool) {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		if x <= 0 {
			return 0, false
		}
		return x, true
	case float32:
		f = float64(x)
	case float64:
		f = x
	default:
		s := strings.TrimSpace(stringify(v))
		if s == "" {
			return 0, false
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			if n <= 0 {
				return 0, false
			}
			return n, true
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f <= 0 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// stringify renders a scalar cell or form value as text.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// isBlank reports whether v is nil or a whitespace-only string.
func isBlank(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}

// formatDate renders a stored date so that it parses back to the same
// instant: date-only for UTC midnight, RFC 3339 otherwise.
func formatDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339Nano)
}
