package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/daylog/internal/audit"
	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/scheduler"
	"github.com/fentz26/daylog/internal/store"
	"github.com/fentz26/daylog/internal/timer"
)

type fixture struct {
	clock   *clock.Fake
	days    *daylog.Repo
	timer   *timer.Engine
	journal *audit.Journal
	rec     *Reconciler
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	c := clock.NewFake(now)
	s := store.NewMemory()
	days := daylog.New(s)
	engine := timer.New(days, c)
	sched := scheduler.New(c, &sync.Mutex{})
	t.Cleanup(sched.Stop)
	journal := audit.NewJournal(s, c)
	return &fixture{
		clock:   c,
		days:    days,
		timer:   engine,
		journal: journal,
		rec:     New(sched, days, engine, journal),
	}
}

func TestMidnightSplit(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 31, 22, 59, 0, 0, time.Local))
	ctx := context.Background()
	boundary := time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local)

	task, _ := f.days.Add(ctx, "2024-01-31", "deep work")
	f.days.Update(ctx, "2024-01-31", task.ID, func(tk *models.Task) {
		tk.CategoryID = "work"
		tk.Memo = "chapter 3"
	})
	f.rec.Start()
	if at, ok := f.rec.Armed(); !ok || !at.Equal(boundary) {
		t.Fatalf("Expected reconciler armed for %v, got %v", boundary, at)
	}

	f.clock.Advance(time.Minute) // 23:00
	if err := f.timer.Start(ctx, "2024-01-31", task.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	f.clock.Advance(time.Hour + 5*time.Second)

	old, _ := f.days.Get(ctx, "2024-01-31", task.ID)
	if old.CumulativeTime != 3600 {
		t.Errorf("Expected +3600s on the old day, got %d", old.CumulativeTime)
	}
	if old.RunningStart != nil {
		t.Error("Old task should no longer be running")
	}
	if len(old.Sessions) != 1 || !old.Sessions[0].End.Equal(boundary) ||
		!old.Sessions[0].Start.Equal(time.Date(2024, 1, 31, 23, 0, 0, 0, time.Local)) {
		t.Errorf("Expected one session [23:00, midnight], got %+v", old.Sessions)
	}

	newTasks, _ := f.days.Tasks(ctx, "2024-02-01")
	if len(newTasks) != 1 {
		t.Fatalf("Expected one carried-over task, got %d", len(newTasks))
	}
	carry := newTasks[0]
	if carry.ID == task.ID {
		t.Error("Carried-over task needs a fresh id")
	}
	if carry.Text != "deep work" || carry.CategoryID != "work" || carry.Memo != "chapter 3" {
		t.Errorf("Carry-over should copy text, category and memo: %+v", carry)
	}
	if carry.CumulativeTime != 0 || len(carry.Sessions) != 0 {
		t.Errorf("Carry-over should start empty: %+v", carry)
	}
	if carry.RunningStart == nil || !carry.RunningStart.Equal(boundary) {
		t.Errorf("Carry-over should run from the boundary, got %v", carry.RunningStart)
	}

	p, ok := f.timer.Running()
	if !ok || p.TaskID != carry.ID || p.DateKey != "2024-02-01" {
		t.Errorf("Pointer should move to the carried-over task, got %+v", p)
	}
	dates, _ := f.days.Dates(ctx)
	if len(dates) != 2 || dates[1] != "2024-02-01" {
		t.Errorf("New day should be indexed, got %v", dates)
	}
	if at, ok := f.rec.Armed(); !ok || !at.Equal(boundary.AddDate(0, 0, 1)) {
		t.Errorf("Expected re-arm for the following midnight, got %v", at)
	}

	entries, _ := f.journal.Entries(ctx, "2024-02-01")
	if len(entries) != 1 || entries[0].Action != "timer.split" {
		t.Errorf("Expected a split journal entry, got %+v", entries)
	}
}

func TestCarryOverIsPrepended(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 31, 23, 0, 0, 0, time.Local))
	ctx := context.Background()

	existing, _ := f.days.Add(ctx, "2024-02-01", "planned")
	task, _ := f.days.Add(ctx, "2024-01-31", "late night")
	f.timer.Start(ctx, "2024-01-31", task.ID)
	f.rec.Start()

	f.clock.Advance(2 * time.Hour)

	tasks, _ := f.days.Tasks(ctx, "2024-02-01")
	if len(tasks) != 2 || tasks[0].Text != "late night" || tasks[1].ID != existing.ID {
		t.Errorf("Carry-over should be first on the new day: %+v", tasks)
	}
}

func TestNothingRunningStillRearms(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 31, 12, 0, 0, 0, time.Local))
	f.rec.Start()

	f.clock.Advance(35 * time.Hour) // Feb 1 23:00

	dates, _ := f.days.Dates(context.Background())
	if len(dates) != 0 {
		t.Errorf("No day should be created, got %v", dates)
	}
	at, ok := f.rec.Armed()
	if !ok || !at.Equal(time.Date(2024, 2, 2, 0, 0, 0, 0, time.Local)) {
		t.Errorf("Expected armed for Feb 2 midnight, got %v", at)
	}
}

func TestMultipleMidnights(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 31, 20, 0, 0, 0, time.Local))
	ctx := context.Background()

	task, _ := f.days.Add(ctx, "2024-01-31", "marathon")
	f.timer.Start(ctx, "2024-01-31", task.ID)
	f.rec.Start()

	f.clock.Advance(51 * time.Hour) // Feb 2 23:00, past the Feb 1 and Feb 2 midnights

	feb1, _ := f.days.Tasks(ctx, "2024-02-01")
	if len(feb1) != 1 || feb1[0].CumulativeTime != 86400 || feb1[0].RunningStart != nil {
		t.Errorf("Feb 1 should hold one full stopped day: %+v", feb1)
	}
	feb2, _ := f.days.Tasks(ctx, "2024-02-02")
	if len(feb2) != 1 || feb2[0].RunningStart == nil {
		t.Errorf("Feb 2 should hold the running carry-over: %+v", feb2)
	}
}

func TestStaleTaskIsNotSplit(t *testing.T) {
	f := newFixture(t, time.Date(2024, 2, 1, 10, 0, 0, 0, time.Local))
	ctx := context.Background()

	// Running since two days ago; the process missed the earlier midnights.
	task, _ := f.days.Add(ctx, "2024-01-30", "forgotten")
	start := time.Date(2024, 1, 30, 21, 0, 0, 0, time.Local)
	f.days.Update(ctx, "2024-01-30", task.ID, func(tk *models.Task) { tk.RunningStart = &start })
	if err := f.timer.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	f.rec.Start()

	f.clock.Advance(15 * time.Hour)

	if p, ok := f.timer.Running(); !ok || p.TaskID != task.ID {
		t.Errorf("Stale task should remain running, got %+v", p)
	}
	if tasks, _ := f.days.Tasks(ctx, "2024-02-02"); len(tasks) != 0 {
		t.Errorf("No carry-over expected for a stale task, got %+v", tasks)
	}
}

func TestStopCancels(t *testing.T) {
	f := newFixture(t, time.Date(2024, 1, 31, 23, 0, 0, 0, time.Local))
	ctx := context.Background()

	task, _ := f.days.Add(ctx, "2024-01-31", "a")
	f.timer.Start(ctx, "2024-01-31", task.ID)
	f.rec.Start()
	f.rec.Stop()

	f.clock.Advance(2 * time.Hour)

	if _, ok := f.rec.Armed(); ok {
		t.Error("Stopped reconciler should be idle")
	}
	if tasks, _ := f.days.Tasks(ctx, "2024-02-01"); len(tasks) != 0 {
		t.Errorf("Stopped reconciler should not split, got %+v", tasks)
	}
}
