// Package timeline turns a day's sessions into blocks clamped to that day.
package timeline

import (
	"context"
	"time"

	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/stats"
	"github.com/fentz26/daylog/internal/timer"
)

// Block is one renderable span of tracked time.
type Block struct {
	TaskID   string    `json:"task_id"`
	Text     string    `json:"text"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Color    string    `json:"color"`
	Category string    `json:"category"`
	Running  bool      `json:"running,omitempty"`
}

// Duration returns the block length.
func (b Block) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Builder derives timeline blocks.
type Builder struct {
	days  *daylog.Repo
	timer *timer.Engine
}

// New creates a timeline builder.
func New(days *daylog.Repo, engine *timer.Engine) *Builder {
	return &Builder{days: days, timer: engine}
}

// Build returns the blocks for date. When date is today the running task
// contributes a provisional block ending at now. Block order is not
// significant.
func (b *Builder) Build(ctx context.Context, date string, categories []models.Category, now time.Time) ([]Block, error) {
	dayStart, dayEnd, err := daylog.DayBounds(date)
	if err != nil {
		return nil, err
	}
	tasks, err := b.days.Tasks(ctx, date)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	var blocks []Block
	add := func(t models.Task, start, end time.Time, running bool) {
		start, end, ok := clamp(start, end, dayStart, dayEnd)
		if !ok {
			return
		}
		color, name := stats.UncategorizedColor, stats.UncategorizedName
		if c, found := byID[t.CategoryID]; found {
			color, name = c.Color, c.Name
		}
		blocks = append(blocks, Block{
			TaskID:   t.ID,
			Text:     t.Text,
			Start:    start,
			End:      end,
			Color:    color,
			Category: name,
			Running:  running,
		})
	}

	today := date == daylog.DateKey(now)
	for _, t := range tasks {
		for _, s := range t.Sessions {
			add(t, s.Start, s.End, false)
		}
		if today && t.RunningStart != nil && b.timer.IsRunning(date, t.ID) {
			add(t, *t.RunningStart, now, true)
		}
	}
	return blocks, nil
}

func clamp(start, end, lo, hi time.Time) (time.Time, time.Time, bool) {
	if start.Before(lo) {
		start = lo
	}
	if end.After(hi) {
		end = hi
	}
	return start, end, start.Before(end)
}

// Position returns ts as a percentage of the day starting at dayStart,
// clamped to [0, 100].
func Position(ts, dayStart time.Time) float64 {
	pct := float64(ts.Sub(dayStart)) / float64(24*time.Hour) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
