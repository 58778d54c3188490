package stats

import (
	"context"
	"testing"
	"time"

	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/store"
	"github.com/fentz26/daylog/internal/timer"
)

func TestAggregateRunningAndCategorized(t *testing.T) {
	now := time.Date(2024, 1, 31, 15, 0, 0, 0, time.Local)
	c := clock.NewFake(now.Add(-120 * time.Second))
	days := daylog.New(store.NewMemory())
	engine := timer.New(days, c)
	ctx := context.Background()
	today := daylog.DateKey(now)

	work, _ := days.Add(ctx, today, "report")
	days.Update(ctx, today, work.ID, func(t *models.Task) {
		t.CategoryID = "work"
		t.CumulativeTime = 600
	})
	loose, _ := days.Add(ctx, today, "inbox")
	if err := engine.Start(ctx, today, loose.ID); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	c.Set(now)

	totals, err := New(days, engine).Aggregate(ctx, Daily(now), now)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if totals.ByCategory["work"] != 600 {
		t.Errorf("Expected Work 600, got %d", totals.ByCategory["work"])
	}
	if totals.Uncategorized < 119 || totals.Uncategorized > 121 {
		t.Errorf("Expected uncategorized ~120, got %d", totals.Uncategorized)
	}
	if len(totals.ByCategory) != 1 {
		t.Errorf("Expected only the work category, got %v", totals.ByCategory)
	}
}

func TestAggregateIgnoresRunningOnOtherDays(t *testing.T) {
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.Local)
	c := clock.NewFake(time.Date(2024, 1, 31, 22, 0, 0, 0, time.Local))
	days := daylog.New(store.NewMemory())
	engine := timer.New(days, c)
	ctx := context.Background()

	// Stale running task from yesterday with some recorded time.
	task, _ := days.Add(ctx, "2024-01-31", "stale")
	days.Update(ctx, "2024-01-31", task.ID, func(t *models.Task) { t.CumulativeTime = 30 })
	engine.Start(ctx, "2024-01-31", task.ID)
	c.Set(now)

	totals, _ := New(days, engine).Aggregate(ctx, Weekly(now), now)
	if totals.Uncategorized != 30 {
		t.Errorf("Only recorded time should count for a past day, got %d", totals.Uncategorized)
	}
}

func TestAggregateBackwardClockKeepsRecorded(t *testing.T) {
	start := time.Date(2024, 1, 31, 15, 0, 0, 0, time.Local)
	c := clock.NewFake(start)
	days := daylog.New(store.NewMemory())
	engine := timer.New(days, c)
	ctx := context.Background()

	task, _ := days.Add(ctx, "2024-01-31", "inbox")
	days.Update(ctx, "2024-01-31", task.ID, func(t *models.Task) { t.CumulativeTime = 600 })
	engine.Start(ctx, "2024-01-31", task.ID)

	now := start.Add(-100 * time.Second)
	c.Set(now)

	totals, _ := New(days, engine).Aggregate(ctx, Daily(now), now)
	if totals.Uncategorized != 600 {
		t.Errorf("Expected 600s uncategorized, got %d", totals.Uncategorized)
	}
}

func TestAggregateOmitsZero(t *testing.T) {
	days := daylog.New(store.NewMemory())
	ctx := context.Background()
	task, _ := days.Add(ctx, "2024-01-31", "untouched")
	days.Update(ctx, "2024-01-31", task.ID, func(t *models.Task) { t.CategoryID = "work" })

	now := time.Date(2024, 1, 31, 12, 0, 0, 0, time.Local)
	totals, _ := New(days, timer.New(days, clock.NewFake(now))).Aggregate(ctx, Daily(now), now)
	if _, ok := totals.ByCategory["work"]; ok {
		t.Error("Zero totals should be omitted")
	}
	if totals.Sum() != 0 {
		t.Errorf("Expected empty totals, got %d", totals.Sum())
	}
}

func TestBreakdown(t *testing.T) {
	totals := Totals{
		ByCategory:    map[string]int64{"work": 600, "gone": 50, "study": 0},
		Uncategorized: 120,
	}
	cats := []models.Category{
		{ID: "study", Name: "Study", Color: "#3b82f6"},
		{ID: "work", Name: "Work", Color: "#ef4444"},
	}
	rows := totals.Breakdown(cats)
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %+v", rows)
	}
	if rows[0].Name != "Work" || rows[0].Seconds != 600 {
		t.Errorf("Unexpected first row %+v", rows[0])
	}
	if rows[1].Name != UncategorizedName || rows[1].Color != UncategorizedColor || rows[1].Seconds != 120 {
		t.Errorf("Unexpected uncategorized row %+v", rows[1])
	}
}

func TestRanges(t *testing.T) {
	ref := time.Date(2024, 3, 2, 8, 0, 0, 0, time.Local)

	week := Weekly(ref)
	if len(week) != 7 || week[0] != "2024-02-25" || week[6] != "2024-03-02" {
		t.Errorf("Unexpected weekly range %v", week)
	}
	month := Monthly(ref)
	if len(month) != 30 || month[29] != "2024-03-02" || month[0] != "2024-02-02" {
		t.Errorf("Unexpected monthly range %v..%v", month[0], month[len(month)-1])
	}
	if feb := CalendarMonth(2024, time.February); len(feb) != 29 {
		t.Errorf("Leap February should have 29 days, got %d", len(feb))
	}
	if year := CalendarYear(2023); len(year) != 365 || year[0] != "2023-01-01" || year[364] != "2023-12-31" {
		t.Errorf("Unexpected year range, %d days", len(year))
	}

	if _, err := Dates("fortnight", ref, 0, 0); err == nil {
		t.Error("Expected error for unknown range")
	}
	if got, _ := Dates(RangeMonth, ref, 2024, 0); len(got) != 31 {
		t.Errorf("Zero month should mean the current month, got %d days", len(got))
	}
}

func TestDatesUsesLocalCalendar(t *testing.T) {
	local := time.Date(2024, 3, 1, 0, 30, 0, 0, time.Local)
	_, offset := local.Zone()
	// Same instant seen from a zone where it is still February 29.
	ref := local.In(time.FixedZone("west", offset-3600))

	got, err := Dates(RangeMonth, ref, 0, 0)
	if err != nil {
		t.Fatalf("Dates failed: %v", err)
	}
	if len(got) != 31 || got[0] != "2024-03-01" {
		t.Errorf("Expected local March, got %d days from %s", len(got), got[0])
	}
}

func TestFormatters(t *testing.T) {
	if h, m, s := Split(3661); h != 1 || m != 1 || s != 1 {
		t.Errorf("Split(3661) = %d %d %d", h, m, s)
	}

	cases := []struct {
		secs               int64
		long, short, clock string
	}{
		{45, "45s", "45s", "0:45"},
		{720, "12m", "12m", "12:00"},
		{3600, "1h 0m", "1h", "1:00:00"},
		{3661, "1h 1m", "1h1m", "1:01:01"},
		{-5, "0s", "0s", "0:00"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.secs); got != c.long {
			t.Errorf("FormatDuration(%d) = %q, want %q", c.secs, got, c.long)
		}
		if got := FormatShort(c.secs); got != c.short {
			t.Errorf("FormatShort(%d) = %q, want %q", c.secs, got, c.short)
		}
		if got := FormatClock(c.secs); got != c.clock {
			t.Errorf("FormatClock(%d) = %q, want %q", c.secs, got, c.clock)
		}
	}
}
