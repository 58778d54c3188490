package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/store"
)

func newTestService(t *testing.T, now time.Time) (*Service, *clock.Fake) {
	t.Helper()
	c := clock.NewFake(now)
	svc := NewService(store.NewMemory(), Options{Clock: c})
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc, c
}

func TestServiceMidnightCarryOver(t *testing.T) {
	svc, c := newTestService(t, time.Date(2024, 1, 31, 23, 0, 0, 0, time.Local))
	ctx := context.Background()

	task, _ := svc.AddTask(ctx, "today", "night shift")
	if _, err := svc.StartTask(ctx, "today", task.ID); err != nil {
		t.Fatalf("StartTask failed: %v", err)
	}

	c.Advance(90 * time.Minute)

	old, err := svc.GetTask(ctx, "2024-01-31", task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if old.Running || old.CumulativeTime != 3600 {
		t.Errorf("Old day task should be stopped at midnight with 3600s: %+v", old)
	}

	today, _ := svc.ListTasks(ctx, "today")
	if len(today) != 1 || !today[0].Running || today[0].Elapsed != 1800 {
		t.Errorf("Expected running carry-over with 1800s elapsed, got %+v", today)
	}

	entries, _ := svc.Activity(ctx, "today")
	found := false
	for _, e := range entries {
		if e.Action == "timer.split" {
			found = true
		}
	}
	if !found {
		t.Error("Expected the split in the activity journal")
	}
}

func TestServiceStartOnAnotherDayStopsRunning(t *testing.T) {
	svc, c := newTestService(t, time.Date(2024, 1, 31, 10, 0, 0, 0, time.Local))
	ctx := context.Background()

	a, _ := svc.AddTask(ctx, "2024-01-30", "yesterday")
	b, _ := svc.AddTask(ctx, "today", "today")
	svc.StartTask(ctx, "2024-01-30", a.ID)
	c.Advance(time.Minute)
	svc.StartTask(ctx, "today", b.ID)

	running, _ := svc.Running(ctx)
	if running == nil || running.TaskID != b.ID {
		t.Fatalf("Expected b running, got %+v", running)
	}
	gotA, _ := svc.GetTask(ctx, "2024-01-30", a.ID)
	if gotA.Running || gotA.CumulativeTime != 60 {
		t.Errorf("a should be stopped with 60s: %+v", gotA)
	}
}

func TestServiceReloadRearms(t *testing.T) {
	svc, c := newTestService(t, time.Date(2024, 1, 31, 10, 0, 0, 0, time.Local))

	svc.Reload(5*time.Minute, false)
	if got := svc.goals.PollInterval(); got != 5*time.Minute {
		t.Errorf("Expected 5m poll, got %v", got)
	}
	at, ok := svc.reconciler.Armed()
	if !ok || !at.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local)) {
		t.Errorf("Expected reconciler re-armed for midnight, got %v", at)
	}

	ctx := context.Background()
	svc.AddTask(ctx, "today", "quiet")
	if entries, _ := svc.Activity(ctx, "today"); len(entries) != 0 {
		t.Errorf("Disabled journal should record nothing, got %d", len(entries))
	}
	c.Advance(time.Hour)
}

func TestServiceErrors(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2024, 1, 31, 10, 0, 0, 0, time.Local))
	ctx := context.Background()

	if _, err := svc.AddTask(ctx, "today", ""); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
	if _, err := svc.ListTasks(ctx, "yesterday"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("Expected ErrInvalidDate, got %v", err)
	}
	if _, err := svc.StopTask(ctx, "today", "nope"); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Expected ErrTaskNotFound, got %v", err)
	}
	if _, err := svc.AddGoal(ctx, "quarter", "x"); !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Expected ErrInvalidPeriod, got %v", err)
	}
	if _, err := svc.Stats(ctx, StatsQuery{Range: "month", Month: 13}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
	if err := svc.DeleteGoal(ctx, "week", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestServiceConcurrentToggles(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2024, 1, 31, 10, 0, 0, 0, time.Local))
	ctx := context.Background()

	var ids []string
	for i := 0; i < 5; i++ {
		task, _ := svc.AddTask(ctx, "today", "task")
		ids = append(ids, task.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			svc.ToggleTask(ctx, "today", ids[n%len(ids)])
		}(i)
	}
	wg.Wait()

	tasks, _ := svc.ListTasks(ctx, "today")
	running := 0
	for _, task := range tasks {
		if task.RunningStart != nil {
			running++
		}
	}
	if running > 1 {
		t.Errorf("At most one task may be running, got %d", running)
	}
}
