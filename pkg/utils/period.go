package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	reYearQuarter = regexp.MustCompile(`^(\d{4})\s*[-/]?\s*[QT]([1-4])$`)
	reQuarterYear = regexp.MustCompile(`^[QT]([1-4])\s*[-/]?\s*(\d{4})$`)
	reISODate     = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})(?:[T ].*)?$`)
	reSlashDate   = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})(?:\s.*)?$`)
	reYearMonth   = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	reYear        = regexp.MustCompile(`^(\d{4})$`)
)

// NormalizePeriod converts a period cell to the canonical calendar-quarter
// form "YYYYQn". Accepted inputs: "2024Q1", "2024-Q1", "2024 Q1", "Q1 2024",
// "2024T1", ISO dates and datetimes, "mm/dd/yyyy" (read as "dd/mm/yyyy" when
// the first field exceeds 12), "yyyy-mm" and a bare year
// (which maps to its first quarter).
func NormalizePeriod(value string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(value))
	if v == "" {
		return "", fmt.Errorf("empty period")
	}

	if m := reYearQuarter.FindStringSubmatch(v); m != nil {
		return m[1] + "Q" + m[2], nil
	}
	if m := reQuarterYear.FindStringSubmatch(v); m != nil {
		return m[2] + "Q" + m[1], nil
	}
	if m := reISODate.FindStringSubmatch(v); m != nil {
		return quarterOf(m[1], m[2], m[3], value)
	}
	if m := reSlashDate.FindStringSubmatch(v); m != nil {
		// Month first; day first only when the leading field cannot be a month.
		if mo, _ := strconv.Atoi(m[1]); mo > 12 {
			return quarterOf(m[3], m[2], m[1], value)
		}
		return quarterOf(m[3], m[1], m[2], value)
	}
	if m := reYearMonth.FindStringSubmatch(v); m != nil {
		return quarterOf(m[1], m[2], "1", value)
	}
	if m := reYear.FindStringSubmatch(v); m != nil {
		return m[1] + "Q1", nil
	}
	return "", fmt.Errorf("unrecognized period %q", value)
}

func quarterOf(year, month, day, raw string) (string, error) {
	y, _ := strconv.Atoi(year)
	mo, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return "", fmt.Errorf("invalid date in period %q", raw)
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return "", fmt.Errorf("invalid date in period %q", raw)
	}
	return QuarterOf(t), nil
}

// QuarterOf returns the "YYYYQn" label of the quarter containing t.
func QuarterOf(t time.Time) string {
	q := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%dQ%d", t.Year(), q)
}

// ParseYearQuarter splits a canonical "YYYYQn" label.
func ParseYearQuarter(period string) (year, quarter int, ok bool) {
	parts := strings.Split(strings.ToUpper(strings.TrimSpace(period)), "Q")
	if len(parts) != 2 || len(parts[0]) != 4 {
		return 0, 0, false
	}
	y, errYear := strconv.Atoi(parts[0])
	q, errQuarter := strconv.Atoi(parts[1])
	if errYear != nil || errQuarter != nil || q < 1 || q > 4 {
		return 0, 0, false
	}
	return y, q, true
}

// ComparePeriods orders two canonical period labels. Unparseable labels sort
// before every valid one.
func ComparePeriods(a, b string) int {
	ka, kb := periodKey(a), periodKey(b)
	switch {
	case ka > kb:
		return 1
	case ka < kb:
		return -1
	default:
		return 0
	}
}

func periodKey(period string) int {
	y, q, ok := ParseYearQuarter(period)
	if !ok {
		return 0
	}
	return y*10 + q
}
