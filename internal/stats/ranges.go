package stats

import (
	"fmt"
	"time"

	"github.com/fentz26/daylog/internal/daylog"
)

// Daily returns today's key.
func Daily(ref time.Time) []string {
	return lastDays(ref, 1)
}

// Weekly returns the 7 days ending on ref, oldest first.
func Weekly(ref time.Time) []string {
	return lastDays(ref, 7)
}

// Monthly returns the 30 days ending on ref, oldest first.
func Monthly(ref time.Time) []string {
	return lastDays(ref, 30)
}

func lastDays(ref time.Time, n int) []string {
	ref = ref.Local()
	y, m, d := ref.Date()
	out := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		out = append(out, daylog.DateKey(time.Date(y, m, d-i, 12, 0, 0, 0, time.Local)))
	}
	return out
}

// CalendarMonth returns every day of the month.
func CalendarMonth(year int, month time.Month) []string {
	var out []string
	for d := time.Date(year, month, 1, 12, 0, 0, 0, time.Local); d.Month() == month; d = d.AddDate(0, 0, 1) {
		out = append(out, daylog.DateKey(d))
	}
	return out
}

// CalendarYear returns every day of the year.
func CalendarYear(year int) []string {
	var out []string
	for m := time.January; m <= time.December; m++ {
		out = append(out, CalendarMonth(year, m)...)
	}
	return out
}

// Dates resolves a named range. The calendar ranges read year and month;
// zero values mean the current ones.
func Dates(name string, ref time.Time, year int, month time.Month) ([]string, error) {
	ref = ref.Local()
	if year == 0 {
		year = ref.Year()
	}
	if month == 0 {
		month = ref.Month()
	}
	switch name {
	case RangeDaily, "":
		return Daily(ref), nil
	case RangeWeekly:
		return Weekly(ref), nil
	case RangeMonthly:
		return Monthly(ref), nil
	case RangeMonth:
		if month < time.January || month > time.December {
			return nil, fmt.Errorf("month %d out of range", month)
		}
		return CalendarMonth(year, month), nil
	case RangeYear:
		return CalendarYear(year), nil
	}
	return nil, fmt.Errorf("unknown range %q", name)
}
