// Package models defines the core domain types for daylog.
package models

import "time"

// Session is a closed interval of tracked time for one task.
type Session struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the session.
func (s Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Task is one entry in a day's todo list.
type Task struct {
	ID             string     `json:"id"`
	Text           string     `json:"text"`
	Completed      bool       `json:"completed"`
	CategoryID     string     `json:"category_id,omitempty"`
	Memo           string     `json:"memo,omitempty"`
	CumulativeTime int64      `json:"cumulative_time"` // seconds, excludes the running session
	RunningStart   *time.Time `json:"running_start,omitempty"`
	Sessions       []Session  `json:"sessions"`
}

// IsRunning reports whether the task carries a persisted running start.
func (t *Task) IsRunning() bool {
	return t.RunningStart != nil
}

// Category is an externally owned label used for grouping tracked time.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Goal is a single entry in a period goal bucket.
type Goal struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// PeriodType identifies which goal bucket a key belongs to.
type PeriodType string

const (
	PeriodYear  PeriodType = "year"
	PeriodMonth PeriodType = "month"
	PeriodWeek  PeriodType = "week"
)

// PeriodTypes lists every period type in rollover order.
var PeriodTypes = []PeriodType{PeriodYear, PeriodMonth, PeriodWeek}

// PeriodKeys is a snapshot of the current key for each period type.
type PeriodKeys struct {
	Year  string `json:"year"`
	Month string `json:"month"`
	Week  string `json:"week"`
}

// Get returns the key stored for typ.
func (k PeriodKeys) Get(typ PeriodType) string {
	switch typ {
	case PeriodYear:
		return k.Year
	case PeriodMonth:
		return k.Month
	case PeriodWeek:
		return k.Week
	}
	return ""
}

// Set replaces the key stored for typ.
func (k *PeriodKeys) Set(typ PeriodType, key string) {
	switch typ {
	case PeriodYear:
		k.Year = key
	case PeriodMonth:
		k.Month = key
	case PeriodWeek:
		k.Week = key
	}
}

// IsZero reports whether no key has ever been recorded.
func (k PeriodKeys) IsZero() bool {
	return k.Year == "" && k.Month == "" && k.Week == ""
}

// ArchivedGoalBatch is an immutable snapshot of a goal bucket taken when its
// period ended.
type ArchivedGoalBatch struct {
	Type       PeriodType `json:"type"`
	Key        string     `json:"key"`
	Goals      []Goal     `json:"goals"`
	ArchivedAt time.Time  `json:"archived_at"`
}

// Completed returns how many goals in the batch were done.
func (b ArchivedGoalBatch) Completed() int {
	n := 0
	for _, g := range b.Goals {
		if g.Completed {
			n++
		}
	}
	return n
}

// ActivityEntry records a state-mutating action for the activity journal.
type ActivityEntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     string    `json:"task_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
