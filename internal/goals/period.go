package goals

import (
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/daylog/internal/models"
)

// ParseType resolves a period type name.
func ParseType(s string) (models.PeriodType, bool) {
	for _, typ := range models.PeriodTypes {
		if string(typ) == strings.ToLower(s) {
			return typ, true
		}
	}
	return "", false
}

// PeriodKey returns the key of the period of typ containing t. Weeks use the
// ISO-8601 week and week-year.
func PeriodKey(typ models.PeriodType, t time.Time) string {
	t = t.Local()
	switch typ {
	case models.PeriodYear:
		return fmt.Sprintf("Y%d", t.Year())
	case models.PeriodMonth:
		return fmt.Sprintf("Y%d-M%02d", t.Year(), int(t.Month()))
	case models.PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("Y%d-W%02d", year, week)
	}
	return ""
}

// CurrentKeys returns the key of every period type at t.
func CurrentKeys(t time.Time) models.PeriodKeys {
	var keys models.PeriodKeys
	for _, typ := range models.PeriodTypes {
		keys.Set(typ, PeriodKey(typ, t))
	}
	return keys
}

// BucketKey is the store key of the goal list for a period key, e.g.
// `Y2024-M03` is stored under `goals-month-2024-03`.
func BucketKey(typ models.PeriodType, periodKey string) string {
	suffix := strings.TrimPrefix(periodKey, "Y")
	if typ == models.PeriodMonth {
		suffix = strings.Replace(suffix, "-M", "-", 1)
	}
	return "goals-" + string(typ) + "-" + suffix
}
