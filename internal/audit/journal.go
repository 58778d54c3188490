// Package audit provides the activity journal for daylog.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"

	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/store"
	"github.com/google/uuid"
)

const keyPrefix = "activity-"

// Journal appends one entry per state-mutating action, grouped by day.
type Journal struct {
	store    store.Store
	clock    clock.Clock
	disabled bool
}

// NewJournal creates a journal writer.
func NewJournal(s store.Store, c clock.Clock) *Journal {
	if c == nil {
		c = clock.Real{}
	}
	return &Journal{store: s, clock: c}
}

// SetEnabled turns recording on or off.
func (j *Journal) SetEnabled(enabled bool) {
	if j != nil {
		j.disabled = !enabled
	}
}

// Record writes an entry for a state-mutating action. A nil or disabled
// journal records nothing.
func (j *Journal) Record(ctx context.Context, action string, inputs interface{}, outcome, taskID, details string) (*models.ActivityEntry, error) {
	if j == nil || j.disabled {
		return nil, nil
	}
	now := j.clock.Now()
	entry := models.ActivityEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: hashInputs(inputs),
		Outcome:    outcome,
		TaskID:     taskID,
		Details:    details,
		Timestamp:  now,
	}

	key := keyPrefix + daylog.DateKey(now)
	entries, err := store.Get[[]models.ActivityEntry](ctx, j.store, key)
	if err != nil {
		return nil, err
	}
	entries = append(entries, entry)
	if err := store.Set(ctx, j.store, key, entries); err != nil {
		return nil, fmt.Errorf("write activity: %w", err)
	}
	return &entry, nil
}

// Log records an entry and logs a failed write instead of returning it.
func (j *Journal) Log(ctx context.Context, action string, inputs interface{}, outcome, taskID, details string) {
	if _, err := j.Record(ctx, action, inputs, outcome, taskID, details); err != nil {
		log.Printf("journal: %s: %v", action, err)
	}
}

// Entries returns the journal for one day in recording order.
func (j *Journal) Entries(ctx context.Context, date string) ([]models.ActivityEntry, error) {
	return store.Get[[]models.ActivityEntry](ctx, j.store, keyPrefix+date)
}

// hashInputs creates a SHA256 hash of the inputs for reproducibility.
func hashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
