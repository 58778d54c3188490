package stats

import "fmt"

// Split breaks seconds into hours, minutes and seconds. Negative input is
// treated as zero.
func Split(seconds int64) (hrs, mins, secs int64) {
	if seconds < 0 {
		seconds = 0
	}
	return seconds / 3600, seconds % 3600 / 60, seconds % 60
}

// FormatDuration renders totals: "45s", "12m", "1h 1m".
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		if seconds < 0 {
			seconds = 0
		}
		return fmt.Sprintf("%ds", seconds)
	}
	hrs, mins, _ := Split(seconds)
	if hrs > 0 {
		return fmt.Sprintf("%dh %dm", hrs, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// FormatShort renders compact labels: "45s", "12m", "1h", "1h1m".
func FormatShort(seconds int64) string {
	if seconds < 60 {
		if seconds < 0 {
			seconds = 0
		}
		return fmt.Sprintf("%ds", seconds)
	}
	hrs, mins, _ := Split(seconds)
	switch {
	case hrs > 0 && mins > 0:
		return fmt.Sprintf("%dh%dm", hrs, mins)
	case hrs > 0:
		return fmt.Sprintf("%dh", hrs)
	}
	return fmt.Sprintf("%dm", mins)
}

// FormatClock renders a running timer: "M:SS" or "H:MM:SS".
func FormatClock(seconds int64) string {
	hrs, mins, secs := Split(seconds)
	if hrs > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hrs, mins, secs)
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}
