// Package api provides the service layer and HTTP API for daylog.
package api

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/fentz26/daylog/internal/audit"
	"github.com/fentz26/daylog/internal/category"
	"github.com/fentz26/daylog/internal/clock"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/goals"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/reconcile"
	"github.com/fentz26/daylog/internal/scheduler"
	"github.com/fentz26/daylog/internal/stats"
	"github.com/fentz26/daylog/internal/store"
	"github.com/fentz26/daylog/internal/timeline"
	"github.com/fentz26/daylog/internal/timer"
)

// Options configures a Service.
type Options struct {
	Clock            clock.Clock
	GoalPollInterval time.Duration
	DisableJournal   bool
}

// Service serializes every user operation and scheduled wake-up behind one
// mutex. Scheduled callbacks are dispatched with that mutex held.
type Service struct {
	mu sync.Mutex

	store      store.Store
	clock      clock.Clock
	sched      *scheduler.Scheduler
	days       *daylog.Repo
	timer      *timer.Engine
	stats      *stats.Engine
	timeline   *timeline.Builder
	goals      *goals.Manager
	categories *category.Repo
	journal    *audit.Journal
	reconciler *reconcile.Reconciler

	pollInterval time.Duration
}

// NewService wires the engines over s. Call Start to load state and arm
// the scheduled triggers.
func NewService(s store.Store, opts Options) *Service {
	c := opts.Clock
	if c == nil {
		c = clock.Real{}
	}
	svc := &Service{
		store:        s,
		clock:        c,
		pollInterval: opts.GoalPollInterval,
	}
	svc.sched = scheduler.New(c, &svc.mu)
	svc.days = daylog.New(s)
	svc.timer = timer.New(svc.days, c)
	svc.stats = stats.New(svc.days, svc.timer)
	svc.timeline = timeline.New(svc.days, svc.timer)
	svc.journal = audit.NewJournal(s, c)
	svc.journal.SetEnabled(!opts.DisableJournal)
	svc.goals = goals.NewManager(s, svc.sched, svc.journal)
	svc.categories = category.New(s)
	svc.reconciler = reconcile.New(svc.sched, svc.days, svc.timer, svc.journal)
	return svc
}

// Start rebuilds the running pointer, runs the startup goal rollover and
// arms the midnight reconciler and goal poll.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.timer.Load(ctx); err != nil {
		return fmt.Errorf("load running timer: %w", err)
	}
	if p, ok := s.timer.Running(); ok {
		log.Printf("Resuming timer for task %s on %s (started %s)", p.TaskID, p.DateKey, p.Start.Format(time.RFC3339))
	}
	if err := s.goals.Start(ctx, s.pollInterval); err != nil {
		return fmt.Errorf("goal rollover: %w", err)
	}
	s.reconciler.Start()
	return nil
}

// Stop cancels every scheduled trigger.
func (s *Service) Stop() {
	s.mu.Lock()
	s.reconciler.Stop()
	s.goals.Stop()
	s.mu.Unlock()
	s.sched.Stop()
}

// Reload applies changed settings and re-arms the scheduled triggers.
func (s *Service) Reload(pollInterval time.Duration, journal bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pollInterval = pollInterval
	s.journal.SetEnabled(journal)
	s.reconciler.Rearm()
	s.goals.SetPollInterval(pollInterval)
	log.Printf("Settings reloaded (goal poll %s, journal %v)", s.goals.PollInterval(), journal)
}

// Ping checks that the store is reachable when the backend supports it.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Now returns the service clock's reading.
func (s *Service) Now() time.Time {
	return s.clock.Now()
}

func (s *Service) resolveDate(date string) (string, error) {
	if date == "" || date == "today" {
		return daylog.DateKey(s.clock.Now()), nil
	}
	if _, err := daylog.ParseDateKey(date); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return date, nil
}

// --- Task Operations ---

// TaskView is a task with its live elapsed time.
type TaskView struct {
	models.Task
	Date    string `json:"date"`
	Elapsed int64  `json:"elapsed"`
	Running bool   `json:"running"`
}

func (s *Service) view(date string, t models.Task) TaskView {
	return TaskView{
		Task:    t,
		Date:    date,
		Elapsed: s.timer.Elapsed(t, date, s.clock.Now()),
		Running: s.timer.IsRunning(date, t.ID),
	}
}

// ListTasks returns a day's tasks in order.
func (s *Service) ListTasks(ctx context.Context, date string) ([]TaskView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	tasks, err := s.days.Tasks(ctx, date)
	if err != nil {
		return nil, err
	}
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, s.view(date, t))
	}
	return views, nil
}

// GetTask retrieves one task.
func (s *Service) GetTask(ctx context.Context, date, id string) (*TaskView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	return s.getTask(ctx, date, id)
}

func (s *Service) getTask(ctx context.Context, date, id string) (*TaskView, error) {
	t, err := s.days.Get(ctx, date, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTaskNotFound
	}
	v := s.view(date, *t)
	return &v, nil
}

// AddTask appends a task to a day.
func (s *Service) AddTask(ctx context.Context, date, text string) (*TaskView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	t, err := s.days.Add(ctx, date, text)
	if err != nil {
		return nil, err
	}
	s.journal.Log(ctx, "task.add", map[string]string{"date": date, "text": t.Text}, "success", t.ID, "")
	v := s.view(date, *t)
	return &v, nil
}

// taskOp resolves the date, checks the task exists, runs fn and returns
// the task's fresh state.
func (s *Service) taskOp(ctx context.Context, action, date, id string, fn func(date string) error) (*TaskView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	if _, err := s.getTask(ctx, date, id); err != nil {
		return nil, err
	}
	if err := fn(date); err != nil {
		return nil, err
	}
	s.journal.Log(ctx, action, map[string]string{"date": date, "task_id": id}, "success", id, "")
	return s.getTask(ctx, date, id)
}

// StartTask starts the task's timer, stopping any other.
func (s *Service) StartTask(ctx context.Context, date, id string) (*TaskView, error) {
	return s.taskOp(ctx, "task.start", date, id, func(date string) error {
		return s.timer.Start(ctx, date, id)
	})
}

// StopTask stops the task's timer if it is running.
func (s *Service) StopTask(ctx context.Context, date, id string) (*TaskView, error) {
	return s.taskOp(ctx, "task.stop", date, id, func(date string) error {
		return s.timer.Stop(ctx, date, id)
	})
}

// ToggleTask starts or stops the task's timer.
func (s *Service) ToggleTask(ctx context.Context, date, id string) (*TaskView, error) {
	return s.taskOp(ctx, "task.toggle", date, id, func(date string) error {
		return s.timer.Toggle(ctx, date, id)
	})
}

// CompleteTask toggles the completed flag, stopping the timer first.
func (s *Service) CompleteTask(ctx context.Context, date, id string) (*TaskView, error) {
	return s.taskOp(ctx, "task.complete", date, id, func(date string) error {
		_, err := s.timer.Complete(ctx, date, id)
		return err
	})
}

// TaskEdit carries the fields to change; nil fields are left alone. An
// empty CategoryID clears the category.
type TaskEdit struct {
	Text       *string `json:"text,omitempty"`
	CategoryID *string `json:"category_id,omitempty"`
	Memo       *string `json:"memo,omitempty"`
}

// EditTask changes a task's text, category or memo.
func (s *Service) EditTask(ctx context.Context, date, id string, edit TaskEdit) (*TaskView, error) {
	if edit.Text != nil && strings.TrimSpace(*edit.Text) == "" {
		return nil, ErrEmptyText
	}
	return s.taskOp(ctx, "task.edit", date, id, func(date string) error {
		_, err := s.days.Update(ctx, date, id, func(t *models.Task) {
			if edit.Text != nil {
				t.Text = strings.TrimSpace(*edit.Text)
			}
			if edit.CategoryID != nil {
				t.CategoryID = *edit.CategoryID
			}
			if edit.Memo != nil {
				t.Memo = *edit.Memo
			}
		})
		return err
	})
}

// MoveTask moves a task to position to within its day.
func (s *Service) MoveTask(ctx context.Context, date, id string, to int) (*TaskView, error) {
	return s.taskOp(ctx, "task.move", date, id, func(date string) error {
		_, err := s.days.Move(ctx, date, id, to)
		return err
	})
}

// DeleteTask removes a task. A running task's open session is dropped.
func (s *Service) DeleteTask(ctx context.Context, date, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.resolveDate(date)
	if err != nil {
		return err
	}
	ok, err := s.timer.Delete(ctx, date, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrTaskNotFound
	}
	s.journal.Log(ctx, "task.delete", map[string]string{"date": date, "task_id": id}, "success", id, "")
	return nil
}

// Dates returns every date holding tasks.
func (s *Service) Dates(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.days.Dates(ctx)
}

// RunningView describes the running timer.
type RunningView struct {
	timer.Pointer
	Task *TaskView `json:"task"`
}

// Running returns the running timer, or nil.
func (s *Service) Running(ctx context.Context) (*RunningView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.timer.Running()
	if !ok {
		return nil, nil
	}
	t, err := s.getTask(ctx, p.DateKey, p.TaskID)
	if err != nil {
		return nil, err
	}
	return &RunningView{Pointer: p, Task: t}, nil
}

// --- Goal Operations ---

func parsePeriod(typ string) (models.PeriodType, error) {
	pt, ok := goals.ParseType(typ)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, typ)
	}
	return pt, nil
}

// GoalList is a live bucket with its period key.
type GoalList struct {
	Type  models.PeriodType `json:"type"`
	Key   string            `json:"key"`
	Goals []models.Goal     `json:"goals"`
}

// ListGoals returns the live bucket for a period type.
func (s *Service) ListGoals(ctx context.Context, typ string) (*GoalList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := parsePeriod(typ)
	if err != nil {
		return nil, err
	}
	list, err := s.goals.List(ctx, pt)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.Goal{}
	}
	return &GoalList{Type: pt, Key: s.goals.CurrentKeys().Get(pt), Goals: list}, nil
}

// AddGoal appends a goal to the live bucket.
func (s *Service) AddGoal(ctx context.Context, typ, text string) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := parsePeriod(typ)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	g, err := s.goals.Add(ctx, pt, text)
	if err != nil {
		return nil, err
	}
	s.journal.Log(ctx, "goal.add", map[string]string{"type": typ, "text": g.Text}, "success", "", g.ID)
	return g, nil
}

// ToggleGoal flips a goal's completed flag.
func (s *Service) ToggleGoal(ctx context.Context, typ, id string) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := parsePeriod(typ)
	if err != nil {
		return nil, err
	}
	g, err := s.goals.Toggle(ctx, pt, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	s.journal.Log(ctx, "goal.toggle", map[string]string{"type": typ, "goal_id": id}, "success", "", id)
	return g, nil
}

// EditGoal replaces a goal's text.
func (s *Service) EditGoal(ctx context.Context, typ, id, text string) (*models.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := parsePeriod(typ)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	g, err := s.goals.Edit(ctx, pt, id, text)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	s.journal.Log(ctx, "goal.edit", map[string]string{"type": typ, "goal_id": id}, "success", "", id)
	return g, nil
}

// DeleteGoal removes a goal from the live bucket.
func (s *Service) DeleteGoal(ctx context.Context, typ, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pt, err := parsePeriod(typ)
	if err != nil {
		return err
	}
	ok, err := s.goals.Delete(ctx, pt, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.journal.Log(ctx, "goal.delete", map[string]string{"type": typ, "goal_id": id}, "success", "", id)
	return nil
}

// GoalArchive lists archived batches newest first. An empty type lists all.
func (s *Service) GoalArchive(ctx context.Context, typ string) ([]models.ArchivedGoalBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pt models.PeriodType
	if typ != "" {
		var err error
		if pt, err = parsePeriod(typ); err != nil {
			return nil, err
		}
	}
	return s.goals.Archive(ctx, pt)
}

// --- Stats Operations ---

// StatsQuery selects the days to aggregate.
type StatsQuery struct {
	Range string
	Year  int
	Month int
}

// StatsReport is the aggregation over a range.
type StatsReport struct {
	Range  string       `json:"range"`
	From   string       `json:"from"`
	To     string       `json:"to"`
	Totals stats.Totals `json:"totals"`
	Rows   []stats.Row  `json:"rows"`
	Total  int64        `json:"total"`
}

// Stats aggregates tracked time per category.
func (s *Service) Stats(ctx context.Context, q StatsQuery) (*StatsReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	dates, err := stats.Dates(q.Range, now, q.Year, time.Month(q.Month))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	totals, err := s.stats.Aggregate(ctx, dates, now)
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	rows := totals.Breakdown(cats)
	if rows == nil {
		rows = []stats.Row{}
	}
	rangeName := q.Range
	if rangeName == "" {
		rangeName = stats.RangeDaily
	}
	return &StatsReport{
		Range:  rangeName,
		From:   dates[0],
		To:     dates[len(dates)-1],
		Totals: totals,
		Rows:   rows,
		Total:  totals.Sum(),
	}, nil
}

// Timeline returns the day's blocks.
func (s *Service) Timeline(ctx context.Context, date string) ([]timeline.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	blocks, err := s.timeline.Build(ctx, date, cats, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if blocks == nil {
		blocks = []timeline.Block{}
	}
	return blocks, nil
}

// --- Category Operations ---

// ListCategories returns every category.
func (s *Service) ListCategories(ctx context.Context) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.categories.List(ctx)
}

// AddCategory creates a category.
func (s *Service) AddCategory(ctx context.Context, name, color string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyText
	}
	if color != "" && !category.ValidColor(color) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidColor, color)
	}
	c, err := s.categories.Add(ctx, name, color)
	if err != nil {
		return nil, err
	}
	s.journal.Log(ctx, "category.add", map[string]string{"name": c.Name, "color": c.Color}, "success", "", c.ID)
	return c, nil
}

// DeleteCategory removes a category. Tasks referencing it fall back to
// uncategorized in the timeline and are skipped in breakdowns.
func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.journal.Log(ctx, "category.delete", map[string]string{"category_id": id}, "success", "", id)
	return nil
}

// Activity returns the day's activity journal.
func (s *Service) Activity(ctx context.Context, date string) ([]models.ActivityEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	return s.journal.Entries(ctx, date)
}
