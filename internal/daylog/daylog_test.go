package daylog

import (
	"context"
	"testing"
	"time"

	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/store"
)

func newTestRepo(t *testing.T) (*Repo, store.Store) {
	t.Helper()
	s := store.NewMemory()
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func TestDateKeyAndBounds(t *testing.T) {
	ts := time.Date(2024, 1, 31, 23, 59, 59, 0, time.Local)
	if got := DateKey(ts); got != "2024-01-31" {
		t.Errorf("Expected 2024-01-31, got %s", got)
	}

	start, end, err := DayBounds("2024-01-31")
	if err != nil {
		t.Fatalf("DayBounds failed: %v", err)
	}
	if !start.Equal(time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)) {
		t.Errorf("Unexpected day start %v", start)
	}
	if want := time.Date(2024, 1, 31, 23, 59, 59, int(999*time.Millisecond), time.Local); !end.Equal(want) {
		t.Errorf("Expected day end %v, got %v", want, end)
	}

	if _, _, err := DayBounds("31/01/2024"); err == nil {
		t.Error("Expected error for malformed date key")
	}
}

func TestNextMidnight(t *testing.T) {
	cases := []struct {
		now  time.Time
		want time.Time
	}{
		{time.Date(2024, 1, 31, 23, 0, 0, 0, time.Local), time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local)},
		{time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local), time.Date(2024, 2, 2, 0, 0, 0, 0, time.Local)},
		{time.Date(2024, 12, 31, 12, 0, 0, 0, time.Local), time.Date(2025, 1, 1, 0, 0, 0, 0, time.Local)},
	}
	for _, c := range cases {
		if got := NextMidnight(c.now); !got.Equal(c.want) {
			t.Errorf("NextMidnight(%v) = %v, want %v", c.now, got, c.want)
		}
	}
}

func TestAddUpdatesIndex(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	for _, d := range []string{"2024-01-03", "2024-01-01", "2024-01-03"} {
		if _, err := r.Add(ctx, d, "  write report  "); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	dates, err := r.Dates(ctx)
	if err != nil {
		t.Fatalf("Dates failed: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2024-01-01" || dates[1] != "2024-01-03" {
		t.Errorf("Unexpected index %v", dates)
	}

	tasks, _ := r.Tasks(ctx, "2024-01-03")
	if len(tasks) != 2 {
		t.Fatalf("Expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].Text != "write report" {
		t.Errorf("Expected trimmed text, got %q", tasks[0].Text)
	}
	if tasks[0].ID == tasks[1].ID {
		t.Error("Task ids should be unique")
	}
}

func TestSaveEmptyDoesNotIndex(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()

	if err := r.Save(ctx, "2024-01-01", nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	dates, _ := r.Dates(ctx)
	if len(dates) != 0 {
		t.Errorf("Empty day should not be indexed, got %v", dates)
	}
}

func TestUpdateDeleteMove(t *testing.T) {
	r, _ := newTestRepo(t)
	ctx := context.Background()
	day := "2024-01-01"

	a, _ := r.Add(ctx, day, "a")
	b, _ := r.Add(ctx, day, "b")
	c, _ := r.Add(ctx, day, "c")

	updated, err := r.Update(ctx, day, b.ID, func(t *models.Task) { t.Memo = "notes" })
	if err != nil || updated == nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got, _ := r.Get(ctx, day, b.ID); got.Memo != "notes" {
		t.Errorf("Memo not saved: %+v", got)
	}
	if missing, _ := r.Update(ctx, day, "nope", func(*models.Task) {}); missing != nil {
		t.Error("Update of missing task should return nil")
	}

	if ok, _ := r.Move(ctx, day, c.ID, 0); !ok {
		t.Fatal("Move failed")
	}
	tasks, _ := r.Tasks(ctx, day)
	if tasks[0].ID != c.ID || tasks[1].ID != a.ID || tasks[2].ID != b.ID {
		t.Errorf("Unexpected order after move: %s %s %s", tasks[0].Text, tasks[1].Text, tasks[2].Text)
	}

	if ok, _ := r.Move(ctx, day, c.ID, 99); !ok {
		t.Fatal("Move to end failed")
	}
	tasks, _ = r.Tasks(ctx, day)
	if tasks[2].ID != c.ID {
		t.Errorf("Expected c last, got %s", tasks[2].Text)
	}

	if ok, _ := r.Delete(ctx, day, a.ID); !ok {
		t.Fatal("Delete failed")
	}
	if ok, _ := r.Delete(ctx, day, a.ID); ok {
		t.Error("Second delete should report false")
	}
	tasks, _ = r.Tasks(ctx, day)
	if len(tasks) != 2 {
		t.Errorf("Expected 2 tasks after delete, got %d", len(tasks))
	}
}

func TestDatesRebuildsMissingIndex(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	store.Set(ctx, s, TaskKey("2024-01-05"), []models.Task{{ID: "a", Text: "a"}})
	store.Set(ctx, s, TaskKey("2024-01-02"), []models.Task{{ID: "b", Text: "b"}})
	store.Set(ctx, s, TaskKey("2024-01-03"), []models.Task{})
	store.Set(ctx, s, TaskKey("not-a-date"), []models.Task{{ID: "c", Text: "c"}})

	dates, err := r.Dates(ctx)
	if err != nil {
		t.Fatalf("Dates failed: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2024-01-02" || dates[1] != "2024-01-05" {
		t.Errorf("Unexpected rebuilt index %v", dates)
	}
	if stored, _ := store.Get[[]string](ctx, s, IndexKey); len(stored) != 2 {
		t.Errorf("Rebuilt index should be persisted, got %v", stored)
	}
}

func TestDatesRebuildsMalformedIndex(t *testing.T) {
	r, s := newTestRepo(t)
	ctx := context.Background()

	store.Set(ctx, s, TaskKey("2024-01-02"), []models.Task{{ID: "b", Text: "b"}})
	s.Write(ctx, IndexKey, []byte("{not json"))

	dates, err := r.Dates(ctx)
	if err != nil {
		t.Fatalf("Dates failed: %v", err)
	}
	if len(dates) != 1 || dates[0] != "2024-01-02" {
		t.Errorf("Unexpected rebuilt index %v", dates)
	}
}
