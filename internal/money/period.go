package money

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	exactPeriod   = regexp.MustCompile(`^(\d{4})-(\d{2})$`)
	leadingPeriod = regexp.MustCompile(`^(\d{4})-(\d{2})`)
)

// Layouts tried, in order, when a value is not already a period key.
// Date-only layouts are civil dates and never shift across time zones.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
}

// PeriodKey normalizes a date-like value into a "YYYY-MM" key. It returns ""
// when nothing usable is found; callers must treat that as unaggregatable.
func PeriodKey(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01")
	case float64:
		if x == 0 {
			return ""
		}
		return time.UnixMilli(int64(x)).Local().Format("2006-01")
	case string:
		return periodFromString(x)
	case fmt.Stringer:
		return periodFromString(x.String())
	}
	return ""
}

func periodFromString(s string) string {
	if s == "" {
		return ""
	}
	if exactPeriod.MatchString(s) {
		return s
	}
	if t, ok := parseDate(s); ok {
		return t.Format("2006-01")
	}
	if m := leadingPeriod.FindStringSubmatch(s); m != nil {
		return m[1] + "-" + m[2]
	}
	return ""
}

func parseDate(s string) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		if strings.Contains(layout, "Z07") {
			t = t.Local()
		}
		return t, true
	}
	return time.Time{}, false
}

// FormatDate renders a backend date as "DD/MM/YYYY". Unparseable input is
// returned unchanged.
func FormatDate(s string) string {
	if t, ok := parseDate(s); ok {
		return t.Format("02/01/2006")
	}
	return s
}

// PreviousPeriod returns the period immediately before key, rolling January
// back into December of the prior year. Malformed keys yield "".
func PreviousPeriod(key string) string {
	year, month, ok := splitPeriod(key)
	if !ok {
		return ""
	}
	month--
	if month == 0 {
		month = 12
		year--
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}

// ComparePeriods orders period keys chronologically. Zero-padded "YYYY-MM"
// keys sort the same way as strings and as calendar months.
func ComparePeriods(a, b string) int {
	return strings.Compare(a, b)
}

// CurrentPeriod is the period key for t.
func CurrentPeriod(t time.Time) string {
	return t.Format("2006-01")
}

func splitPeriod(key string) (year, month int, ok bool) {
	m := exactPeriod.FindStringSubmatch(key)
	if m == nil {
		return 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	month, _ = strconv.Atoi(m[2])
	if month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}
