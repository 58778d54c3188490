// Package stats totals tracked time per category over a range of days.
package stats

import (
	"context"
	"time"

	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/timer"
)

// Range names accepted by Dates.
const (
	RangeDaily   = "daily"
	RangeWeekly  = "weekly"
	RangeMonthly = "monthly"
	RangeMonth   = "month"
	RangeYear    = "year"
)

// Totals maps category ids to tracked seconds. Categories with no time are
// absent.
type Totals struct {
	ByCategory    map[string]int64 `json:"by_category"`
	Uncategorized int64            `json:"uncategorized"`
}

// Sum returns all tracked seconds.
func (t Totals) Sum() int64 {
	sum := t.Uncategorized
	for _, v := range t.ByCategory {
		sum += v
	}
	return sum
}

// Engine aggregates day logs.
type Engine struct {
	days  *daylog.Repo
	timer *timer.Engine
}

// New creates an aggregation engine.
func New(days *daylog.Repo, engine *timer.Engine) *Engine {
	return &Engine{days: days, timer: engine}
}

// Aggregate totals every task on the given days. Only the running task on
// today's log contributes its open session.
func (e *Engine) Aggregate(ctx context.Context, dates []string, now time.Time) (Totals, error) {
	totals := Totals{ByCategory: map[string]int64{}}
	today := daylog.DateKey(now)
	for _, date := range dates {
		tasks, err := e.days.Tasks(ctx, date)
		if err != nil {
			return Totals{}, err
		}
		for _, t := range tasks {
			effective := t.CumulativeTime
			if date == today && t.RunningStart != nil && e.timer.IsRunning(date, t.ID) {
				if d := timer.Seconds(*t.RunningStart, now); d > 0 {
					effective += d
				}
			}
			if effective <= 0 {
				continue
			}
			if t.CategoryID == "" {
				totals.Uncategorized += effective
			} else {
				totals.ByCategory[t.CategoryID] += effective
			}
		}
	}
	return totals, nil
}

// Row is one line of a category breakdown.
type Row struct {
	CategoryID string `json:"category_id,omitempty"`
	Name       string `json:"name"`
	Color      string `json:"color"`
	Seconds    int64  `json:"seconds"`
}

// UncategorizedName and UncategorizedColor label time without a category.
const (
	UncategorizedName  = "Uncategorized"
	UncategorizedColor = "#999999"
)

// Breakdown lists known categories with time in the given order, followed
// by the uncategorized total. Totals for unknown category ids are skipped.
func (t Totals) Breakdown(categories []models.Category) []Row {
	var rows []Row
	for _, c := range categories {
		if secs := t.ByCategory[c.ID]; secs > 0 {
			rows = append(rows, Row{CategoryID: c.ID, Name: c.Name, Color: c.Color, Seconds: secs})
		}
	}
	if t.Uncategorized > 0 {
		rows = append(rows, Row{Name: UncategorizedName, Color: UncategorizedColor, Seconds: t.Uncategorized})
	}
	return rows
}
