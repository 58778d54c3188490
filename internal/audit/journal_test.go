package audit

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/store"
)

func TestRecord(t *testing.T) {
	c := clock.NewFake(time.Date(2024, 1, 31, 10, 0, 0, 0, time.Local))
	j := NewJournal(store.NewMemory(), c)
	ctx := context.Background()

	if _, err := j.Record(ctx, "task.start", map[string]string{"id": "a"}, "success", "a", ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	entry, err := j.Record(ctx, "task.stop", map[string]string{"id": "a"}, "success", "a", "12s")
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if entry.InputsHash != hashInputs(map[string]string{"id": "a"}) {
		t.Error("Inputs hash should be deterministic")
	}

	entries, err := j.Entries(ctx, "2024-01-31")
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Action != "task.start" || entries[1].Details != "12s" {
		t.Errorf("Unexpected entries %+v", entries)
	}
}

func TestDisabledJournal(t *testing.T) {
	j := NewJournal(store.NewMemory(), nil)
	j.SetEnabled(false)
	ctx := context.Background()

	if entry, err := j.Record(ctx, "task.add", nil, "success", "", ""); entry != nil || err != nil {
		t.Errorf("Disabled journal should record nothing, got %+v, %v", entry, err)
	}

	var nilJournal *Journal
	if _, err := nilJournal.Record(ctx, "task.add", nil, "success", "", ""); err != nil {
		t.Errorf("Nil journal should be a no-op: %v", err)
	}
}

func TestHashInputsUnmarshalable(t *testing.T) {
	if got := hashInputs(make(chan int)); got != "hash_error" {
		t.Errorf("Expected hash_error, got %s", got)
	}
}

type failingStore struct {
	store.Store
}

func (failingStore) Write(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func TestLogReportsWriteFailure(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	j := NewJournal(failingStore{store.NewMemory()}, nil)
	j.Log(context.Background(), "task.add", map[string]string{"id": "a"}, "success", "a", "")

	if !strings.Contains(buf.String(), "journal: task.add: write activity: ") {
		t.Errorf("Expected logged write failure, got %q", buf.String())
	}
	if entries, _ := j.Entries(context.Background(), daylog.DateKey(time.Now())); len(entries) != 0 {
		t.Errorf("Failed write should store nothing, got %+v", entries)
	}
}
