package timer

import (
	"context"
	"testing"
	"time"

	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/store"
)

const day = "2024-01-31"

func newTestEngine(t *testing.T) (*Engine, *daylog.Repo, *clock.Fake) {
	t.Helper()
	c := clock.NewFake(time.Date(2024, 1, 31, 9, 0, 0, 0, time.Local))
	days := daylog.New(store.NewMemory())
	return New(days, c), days, c
}

func mustAdd(t *testing.T, days *daylog.Repo, text string) *models.Task {
	t.Helper()
	task, err := days.Add(context.Background(), day, text)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return task
}

func mustGet(t *testing.T, days *daylog.Repo, id string) models.Task {
	t.Helper()
	task, err := days.Get(context.Background(), day, id)
	if err != nil || task == nil {
		t.Fatalf("Get %s failed: %v", id, err)
	}
	return *task
}

// countRunning returns how many persisted tasks carry a runningStart.
func countRunning(t *testing.T, days *daylog.Repo) int {
	t.Helper()
	ctx := context.Background()
	dates, _ := days.Dates(ctx)
	n := 0
	for _, d := range dates {
		tasks, _ := days.Tasks(ctx, d)
		for _, task := range tasks {
			if task.RunningStart != nil {
				n++
			}
		}
	}
	return n
}

func TestStartStop(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")

	if err := e.Start(ctx, day, a.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.Advance(90 * time.Second)
	if got := e.Elapsed(mustGet(t, days, a.ID), day, c.Now()); got != 90 {
		t.Errorf("Expected 90s elapsed while running, got %d", got)
	}

	if err := e.Stop(ctx, day, a.ID); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	got := mustGet(t, days, a.ID)
	if got.RunningStart != nil {
		t.Error("Task should not be running after Stop")
	}
	if got.CumulativeTime != 90 {
		t.Errorf("Expected 90s cumulative, got %d", got.CumulativeTime)
	}
	if len(got.Sessions) != 1 || got.Sessions[0].Duration() != 90*time.Second {
		t.Errorf("Unexpected sessions %+v", got.Sessions)
	}
	if _, ok := e.Running(); ok {
		t.Error("Pointer should be cleared")
	}

	// Stopping again is a no-op.
	if err := e.Stop(ctx, day, a.ID); err != nil {
		t.Fatalf("Second stop failed: %v", err)
	}
	if again := mustGet(t, days, a.ID); len(again.Sessions) != 1 {
		t.Errorf("Second stop should not record a session, got %d", len(again.Sessions))
	}
}

func TestStartMovesPointer(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")
	b := mustAdd(t, days, "b")

	e.Start(ctx, day, a.ID)
	c.Advance(time.Minute)
	if err := e.Start(ctx, day, b.ID); err != nil {
		t.Fatalf("Start b failed: %v", err)
	}

	gotA := mustGet(t, days, a.ID)
	if gotA.RunningStart != nil || gotA.CumulativeTime != 60 || len(gotA.Sessions) != 1 {
		t.Errorf("a should be stopped with one 60s session: %+v", gotA)
	}
	gotB := mustGet(t, days, b.ID)
	if gotB.RunningStart == nil || !gotB.RunningStart.Equal(c.Now()) {
		t.Errorf("b should be running from now: %+v", gotB)
	}
	if !gotA.Sessions[0].End.Equal(*gotB.RunningStart) {
		t.Error("a's session should end exactly when b starts")
	}
	if n := countRunning(t, days); n != 1 {
		t.Errorf("Expected exactly one running task, got %d", n)
	}
	if p, _ := e.Running(); p.TaskID != b.ID {
		t.Errorf("Pointer should be on b, got %s", p.TaskID)
	}
}

func TestStopImmediatelyAfterStart(t *testing.T) {
	e, days, _ := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")

	e.Start(ctx, day, a.ID)
	e.Stop(ctx, day, a.ID)

	got := mustGet(t, days, a.ID)
	if len(got.Sessions) != 1 {
		t.Fatalf("Expected one session, got %d", len(got.Sessions))
	}
	if !got.Sessions[0].Start.Equal(got.Sessions[0].End) {
		t.Errorf("Expected start == end, got %+v", got.Sessions[0])
	}
	if got.CumulativeTime != 0 {
		t.Errorf("Expected 0 cumulative, got %d", got.CumulativeTime)
	}
}

func TestStopAtBeforeStartDiscards(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")

	e.Start(ctx, day, a.ID)
	stopped, err := e.StopAt(ctx, c.Now().Add(-time.Minute))
	if err != nil || stopped == nil {
		t.Fatalf("StopAt failed: %v", err)
	}
	got := mustGet(t, days, a.ID)
	if len(got.Sessions) != 0 || got.CumulativeTime != 0 || got.RunningStart != nil {
		t.Errorf("Backwards session should be discarded: %+v", got)
	}
}

func TestElapsedClampsBackwardClock(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")

	e.Start(ctx, day, a.ID)
	c.Set(c.Now().Add(-time.Hour))

	if got := e.Elapsed(mustGet(t, days, a.ID), day, c.Now()); got != 0 {
		t.Errorf("Expected clamped 0, got %d", got)
	}
}

func TestElapsedKeepsRecordedTimeOnBackwardClock(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")
	days.Update(ctx, day, a.ID, func(tk *models.Task) { tk.CumulativeTime = 600 })

	e.Start(ctx, day, a.ID)
	c.Set(c.Now().Add(-100 * time.Second))

	if got := e.Elapsed(mustGet(t, days, a.ID), day, c.Now()); got != 600 {
		t.Errorf("Expected recorded 600s to stand, got %d", got)
	}
}

func TestToggle(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")

	e.Toggle(ctx, day, a.ID)
	if !e.IsRunning(day, a.ID) {
		t.Fatal("Toggle should start a stopped task")
	}
	c.Advance(5 * time.Second)
	e.Toggle(ctx, day, a.ID)
	if e.IsRunning(day, a.ID) {
		t.Fatal("Toggle should stop a running task")
	}
	if got := mustGet(t, days, a.ID); got.CumulativeTime != 5 {
		t.Errorf("Expected 5s, got %d", got.CumulativeTime)
	}
}

func TestCompleteStopsRunning(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")

	e.Start(ctx, day, a.ID)
	c.Advance(30 * time.Second)
	got, err := e.Complete(ctx, day, a.ID)
	if err != nil || got == nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if !got.Completed || got.RunningStart != nil || got.CumulativeTime != 30 {
		t.Errorf("Completed task should be stopped with 30s: %+v", got)
	}
	if _, ok := e.Running(); ok {
		t.Error("Pointer should be cleared")
	}

	got, _ = e.Complete(ctx, day, a.ID)
	if got.Completed {
		t.Error("Complete should toggle back to not completed")
	}
}

func TestDeleteRunningDropsSession(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")

	e.Start(ctx, day, a.ID)
	c.Advance(time.Minute)
	if ok, err := e.Delete(ctx, day, a.ID); !ok || err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok := e.Running(); ok {
		t.Error("Deleting the running task should clear the pointer")
	}
}

func TestLoadRebuildsPointer(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()
	a := mustAdd(t, days, "a")
	b := mustAdd(t, days, "b")

	// Corrupt state: both tasks persisted as running.
	early := c.Now().Add(-time.Hour)
	late := c.Now().Add(-time.Minute)
	tasks, _ := days.Tasks(ctx, day)
	tasks[0].RunningStart = &early
	tasks[1].RunningStart = &late
	days.Save(ctx, day, tasks)

	if err := e.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p, ok := e.Running()
	if !ok || p.TaskID != b.ID || !p.Start.Equal(late) {
		t.Fatalf("Expected latest-started task b to hold the pointer, got %+v", p)
	}
	gotA := mustGet(t, days, a.ID)
	if gotA.RunningStart != nil || gotA.CumulativeTime != 0 {
		t.Errorf("a should be stopped with no time added: %+v", gotA)
	}
	if n := countRunning(t, days); n != 1 {
		t.Errorf("Expected one running task after load, got %d", n)
	}
}

func TestLoadStaleRunningTask(t *testing.T) {
	e, days, c := newTestEngine(t)
	ctx := context.Background()

	// A task left running on an earlier day stays running against its start.
	old := "2024-01-29"
	task, _ := days.Add(ctx, old, "stale")
	start := time.Date(2024, 1, 29, 22, 0, 0, 0, time.Local)
	days.Update(ctx, old, task.ID, func(t *models.Task) { t.RunningStart = &start })

	if err := e.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	p, ok := e.Running()
	if !ok || p.DateKey != old {
		t.Fatalf("Expected stale task to hold the pointer, got %+v", p)
	}
	got, _ := days.Get(ctx, old, task.ID)
	if want := int64(c.Now().Sub(start) / time.Second); e.Elapsed(*got, old, c.Now()) != want {
		t.Errorf("Expected elapsed against stale start %d", want)
	}
}

func TestLoadWithoutDateIndex(t *testing.T) {
	s := store.NewMemory()
	days := daylog.New(s)
	e := New(days, clock.NewFake(time.Date(2024, 1, 31, 9, 0, 0, 0, time.Local)))
	ctx := context.Background()

	// Day log written without its index entry.
	start := time.Date(2024, 1, 29, 22, 0, 0, 0, time.Local)
	if err := store.Set(ctx, s, daylog.TaskKey("2024-01-29"), []models.Task{{ID: "a", Text: "stale", RunningStart: &start}}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := e.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p, ok := e.Running(); !ok || p.TaskID != "a" || p.DateKey != "2024-01-29" {
		t.Errorf("Expected the unindexed running task to be found, got %+v", p)
	}
}
