// Package goals keeps the live yearly, monthly and weekly goal lists and
// archives each list when its period ends.
package goals

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/fentz26/daylog/internal/audit"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/scheduler"
	"github.com/fentz26/daylog/internal/store"
	"github.com/google/uuid"
)

const (
	// ArchiveKey holds the append-only archive log.
	ArchiveKey = "goals-archive"
	// LastKeysKey holds the period keys seen by the last rollover check.
	LastKeysKey = "goals-last-period-keys"

	// DefaultPollInterval is how often the rollover check runs while started.
	DefaultPollInterval = 60 * time.Second
)

// Manager owns the goal buckets and their rollover. Callers serialize
// access; poll callbacks run under the scheduler's lock.
type Manager struct {
	store   store.Store
	sched   *scheduler.Scheduler
	journal *audit.Journal

	poll     scheduler.Handle
	interval time.Duration
}

// NewManager creates a goal manager.
func NewManager(s store.Store, sched *scheduler.Scheduler, journal *audit.Journal) *Manager {
	return &Manager{
		store:    s,
		sched:    sched,
		journal:  journal,
		interval: DefaultPollInterval,
	}
}

// Start runs the startup rollover check and arms the recurring poll.
func (m *Manager) Start(ctx context.Context, interval time.Duration) error {
	if _, err := m.Check(ctx); err != nil {
		return err
	}
	m.SetPollInterval(interval)
	return nil
}

// SetPollInterval cancels the running poll and arms one with the new
// interval. A non-positive interval uses DefaultPollInterval.
func (m *Manager) SetPollInterval(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	m.sched.Cancel(m.poll)
	m.interval = interval
	m.poll = m.sched.Every(interval, func() {
		if _, err := m.Check(context.Background()); err != nil {
			log.Printf("goals: rollover check failed: %v", err)
		}
	})
}

// PollInterval returns the interval of the recurring poll.
func (m *Manager) PollInterval() time.Duration {
	return m.interval
}

// Stop cancels the recurring poll.
func (m *Manager) Stop() {
	m.sched.Cancel(m.poll)
	m.poll = 0
}

// CurrentKeys returns the live period keys.
func (m *Manager) CurrentKeys() models.PeriodKeys {
	return CurrentKeys(m.sched.Now())
}

// Check archives and clears every bucket whose period key changed since the
// last check. The first check ever only records the current keys. It
// returns the batches appended to the archive.
func (m *Manager) Check(ctx context.Context) ([]models.ArchivedGoalBatch, error) {
	now := m.sched.Now()
	current := CurrentKeys(now)

	last, err := store.Get[models.PeriodKeys](ctx, m.store, LastKeysKey)
	if err != nil {
		return nil, err
	}
	if last.IsZero() {
		return nil, m.saveLastKeys(ctx, current)
	}

	var archived []models.ArchivedGoalBatch
	changed := false
	for _, typ := range models.PeriodTypes {
		oldKey, newKey := last.Get(typ), current.Get(typ)
		if oldKey == newKey {
			continue
		}
		changed = true
		if oldKey == "" {
			continue
		}

		bucket := BucketKey(typ, oldKey)
		goals, err := store.Get[[]models.Goal](ctx, m.store, bucket)
		if err != nil {
			return nil, err
		}
		if len(goals) > 0 {
			archived = append(archived, models.ArchivedGoalBatch{
				Type:       typ,
				Key:        oldKey,
				Goals:      goals,
				ArchivedAt: now,
			})
		}
		if err := m.store.Remove(ctx, bucket); err != nil {
			return nil, fmt.Errorf("clear %s: %w", bucket, err)
		}
		log.Printf("goals: %s rolled over %s -> %s (%d goals archived)", typ, oldKey, newKey, len(goals))
	}
	if !changed {
		return nil, nil
	}

	if len(archived) > 0 {
		batches, err := store.Get[[]models.ArchivedGoalBatch](ctx, m.store, ArchiveKey)
		if err != nil {
			return nil, err
		}
		batches = append(batches, archived...)
		if err := store.Set(ctx, m.store, ArchiveKey, batches); err != nil {
			return nil, fmt.Errorf("append archive: %w", err)
		}
		for _, b := range archived {
			m.journal.Log(ctx, "goals.archive", map[string]string{"type": string(b.Type), "key": b.Key},
				"success", "", fmt.Sprintf("%d/%d completed", b.Completed(), len(b.Goals)))
		}
	}
	return archived, m.saveLastKeys(ctx, current)
}

func (m *Manager) saveLastKeys(ctx context.Context, keys models.PeriodKeys) error {
	if err := store.Set(ctx, m.store, LastKeysKey, keys); err != nil {
		return fmt.Errorf("save period keys: %w", err)
	}
	return nil
}

// LastKeys returns the period keys recorded by the last check.
func (m *Manager) LastKeys(ctx context.Context) (models.PeriodKeys, error) {
	return store.Get[models.PeriodKeys](ctx, m.store, LastKeysKey)
}

// List returns the live bucket for typ.
func (m *Manager) List(ctx context.Context, typ models.PeriodType) ([]models.Goal, error) {
	if _, err := m.Check(ctx); err != nil {
		return nil, err
	}
	return store.Get[[]models.Goal](ctx, m.store, m.liveKey(typ))
}

// Add appends a goal to the live bucket.
func (m *Manager) Add(ctx context.Context, typ models.PeriodType, text string) (*models.Goal, error) {
	goal := models.Goal{ID: uuid.New().String(), Text: strings.TrimSpace(text)}
	err := m.mutate(ctx, typ, func(goals []models.Goal) []models.Goal {
		return append(goals, goal)
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

// Toggle flips a goal's completed flag. It returns nil if the goal is not in
// the live bucket.
func (m *Manager) Toggle(ctx context.Context, typ models.PeriodType, id string) (*models.Goal, error) {
	return m.update(ctx, typ, id, func(g *models.Goal) { g.Completed = !g.Completed })
}

// Edit replaces a goal's text.
func (m *Manager) Edit(ctx context.Context, typ models.PeriodType, id, text string) (*models.Goal, error) {
	text = strings.TrimSpace(text)
	return m.update(ctx, typ, id, func(g *models.Goal) { g.Text = text })
}

// Delete removes a goal. It reports whether the goal existed.
func (m *Manager) Delete(ctx context.Context, typ models.PeriodType, id string) (bool, error) {
	found := false
	err := m.mutate(ctx, typ, func(goals []models.Goal) []models.Goal {
		out := goals[:0]
		for _, g := range goals {
			if g.ID == id {
				found = true
				continue
			}
			out = append(out, g)
		}
		return out
	})
	return found, err
}

func (m *Manager) update(ctx context.Context, typ models.PeriodType, id string, fn func(*models.Goal)) (*models.Goal, error) {
	var updated *models.Goal
	err := m.mutate(ctx, typ, func(goals []models.Goal) []models.Goal {
		for i := range goals {
			if goals[i].ID == id {
				fn(&goals[i])
				g := goals[i]
				updated = &g
			}
		}
		return goals
	})
	return updated, err
}

// mutate runs the rollover check, then read-modify-writes the live bucket.
func (m *Manager) mutate(ctx context.Context, typ models.PeriodType, fn func([]models.Goal) []models.Goal) error {
	if _, err := m.Check(ctx); err != nil {
		return err
	}
	key := m.liveKey(typ)
	goals, err := store.Get[[]models.Goal](ctx, m.store, key)
	if err != nil {
		return err
	}
	if err := store.Set(ctx, m.store, key, fn(goals)); err != nil {
		return fmt.Errorf("save goals: %w", err)
	}
	return nil
}

func (m *Manager) liveKey(typ models.PeriodType) string {
	return BucketKey(typ, PeriodKey(typ, m.sched.Now()))
}

// Archive returns archived batches newest first, optionally restricted to
// one period type.
func (m *Manager) Archive(ctx context.Context, typ models.PeriodType) ([]models.ArchivedGoalBatch, error) {
	all, err := store.Get[[]models.ArchivedGoalBatch](ctx, m.store, ArchiveKey)
	if err != nil {
		return nil, err
	}
	var out []models.ArchivedGoalBatch
	for i := len(all) - 1; i >= 0; i-- {
		if typ == "" || all[i].Type == typ {
			out = append(out, all[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ArchivedAt.After(out[j].ArchivedAt)
	})
	return out, nil
}
