// Package daylog stores each calendar day's ordered task list and the index
// of days that hold any tasks.
package daylog

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/store"
	"github.com/google/uuid"
)

const (
	// DateLayout is the format of a date key.
	DateLayout = "2006-01-02"

	// IndexKey holds the sorted list of date keys with at least one task.
	IndexKey = "dates-with-data"

	taskKeyPrefix = "todos-"
)

// DateKey returns the local calendar day of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Local().Format(DateLayout)
}

// ParseDateKey parses a YYYY-MM-DD key as local midnight.
func ParseDateKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, key, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", key, err)
	}
	return t, nil
}

// DayBounds returns local midnight of the day and its last millisecond.
func DayBounds(key string) (time.Time, time.Time, error) {
	start, err := ParseDateKey(key)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return start, end, nil
}

// NextMidnight returns the first local midnight strictly after t.
func NextMidnight(t time.Time) time.Time {
	t = t.Local()
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.Local)
}

// TaskKey is the store key of a day's task list.
func TaskKey(date string) string {
	return taskKeyPrefix + date
}

// Repo reads and writes day logs.
type Repo struct {
	store store.Store
}

// New creates a day log repository over s.
func New(s store.Store) *Repo {
	return &Repo{store: s}
}

// Tasks returns the ordered task list for date. A missing or unreadable
// record yields an empty list.
func (r *Repo) Tasks(ctx context.Context, date string) ([]models.Task, error) {
	return store.Get[[]models.Task](ctx, r.store, TaskKey(date))
}

// Save replaces the task list for date and registers the date in the index
// when the list is non-empty.
func (r *Repo) Save(ctx context.Context, date string, tasks []models.Task) error {
	if err := store.Set(ctx, r.store, TaskKey(date), tasks); err != nil {
		return fmt.Errorf("save day %s: %w", date, err)
	}
	if len(tasks) == 0 {
		return nil
	}
	return r.addDate(ctx, date)
}

// Dates returns every date key known to hold tasks, ascending. A missing or
// malformed index is rebuilt from the stored day logs.
func (r *Repo) Dates(ctx context.Context) ([]string, error) {
	dates, ok, err := store.Lookup[[]string](ctx, r.store, IndexKey)
	if err != nil || ok {
		return dates, err
	}
	return r.rebuildIndex(ctx)
}

func (r *Repo) rebuildIndex(ctx context.Context) ([]string, error) {
	keys, err := r.store.Keys(ctx, taskKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list day logs: %w", err)
	}
	var dates []string
	for _, k := range keys {
		date := strings.TrimPrefix(k, taskKeyPrefix)
		if _, err := ParseDateKey(date); err != nil {
			continue
		}
		tasks, err := r.Tasks(ctx, date)
		if err != nil {
			return nil, err
		}
		if len(tasks) > 0 {
			dates = append(dates, date)
		}
	}
	if len(dates) == 0 {
		return nil, nil
	}
	sort.Strings(dates)
	log.Printf("daylog: rebuilt date index with %d days", len(dates))
	if err := store.Set(ctx, r.store, IndexKey, dates); err != nil {
		return nil, fmt.Errorf("update date index: %w", err)
	}
	return dates, nil
}

func (r *Repo) addDate(ctx context.Context, date string) error {
	dates, err := r.Dates(ctx)
	if err != nil {
		return err
	}
	i := sort.SearchStrings(dates, date)
	if i < len(dates) && dates[i] == date {
		return nil
	}
	dates = append(dates, "")
	copy(dates[i+1:], dates[i:])
	dates[i] = date
	if err := store.Set(ctx, r.store, IndexKey, dates); err != nil {
		return fmt.Errorf("update date index: %w", err)
	}
	return nil
}

// Find returns the day's tasks and the index of id in it, or -1.
func (r *Repo) Find(ctx context.Context, date, id string) ([]models.Task, int, error) {
	tasks, err := r.Tasks(ctx, date)
	if err != nil {
		return nil, -1, err
	}
	return tasks, IndexOf(tasks, id), nil
}

// Get returns a copy of one task, or nil if the day has no such task.
func (r *Repo) Get(ctx context.Context, date, id string) (*models.Task, error) {
	tasks, i, err := r.Find(ctx, date, id)
	if err != nil || i < 0 {
		return nil, err
	}
	t := tasks[i]
	return &t, nil
}

// Add appends a new task to the end of the day's list.
func (r *Repo) Add(ctx context.Context, date, text string) (*models.Task, error) {
	text = strings.TrimSpace(text)
	tasks, err := r.Tasks(ctx, date)
	if err != nil {
		return nil, err
	}
	task := models.Task{
		ID:       uuid.New().String(),
		Text:     text,
		Sessions: []models.Session{},
	}
	tasks = append(tasks, task)
	if err := r.Save(ctx, date, tasks); err != nil {
		return nil, err
	}
	return &task, nil
}

// Update applies fn to the task and saves the day. It returns nil when the
// task does not exist.
func (r *Repo) Update(ctx context.Context, date, id string, fn func(*models.Task)) (*models.Task, error) {
	tasks, i, err := r.Find(ctx, date, id)
	if err != nil || i < 0 {
		return nil, err
	}
	fn(&tasks[i])
	if err := r.Save(ctx, date, tasks); err != nil {
		return nil, err
	}
	t := tasks[i]
	return &t, nil
}

// Delete removes the task. It reports whether the task existed.
func (r *Repo) Delete(ctx context.Context, date, id string) (bool, error) {
	tasks, i, err := r.Find(ctx, date, id)
	if err != nil || i < 0 {
		return false, err
	}
	tasks = append(tasks[:i], tasks[i+1:]...)
	if err := r.Save(ctx, date, tasks); err != nil {
		return false, err
	}
	return true, nil
}

// Move places the task at position to, shifting the others. Positions past
// either end are clamped.
func (r *Repo) Move(ctx context.Context, date, id string, to int) (bool, error) {
	tasks, i, err := r.Find(ctx, date, id)
	if err != nil || i < 0 {
		return false, err
	}
	if to < 0 {
		to = 0
	}
	if to > len(tasks)-1 {
		to = len(tasks) - 1
	}
	if to == i {
		return true, nil
	}
	task := tasks[i]
	tasks = append(tasks[:i], tasks[i+1:]...)
	tasks = append(tasks[:to], append([]models.Task{task}, tasks[to:]...)...)
	if err := r.Save(ctx, date, tasks); err != nil {
		return false, err
	}
	return true, nil
}

// IndexOf returns the position of id in tasks, or -1.
func IndexOf(tasks []models.Task, id string) int {
	for i := range tasks {
		if tasks[i].ID == id {
			return i
		}
	}
	return -1
}
