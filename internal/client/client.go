// Package client is the HTTP client for the daylog daemon, shared by the
// CLI and the TUI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/daylog/internal/api"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/timeline"
)

// DefaultTimeout is the default timeout for API requests.
const DefaultTimeout = 10 * time.Second

// Error is a non-2xx response from the daemon.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the daemon.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client wraps HTTP calls to the daylog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the daemon at addr. A bare host:port gets an
// http:// scheme.
func New(addr string) *Client {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	return &Client{
		baseURL:    strings.TrimRight(addr, "/"),
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
}

// BaseURL returns the daemon address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// Health returns the health payload. On a non-200 status the parsed
// payload is returned alongside the error.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check failed (status %d): %s", resp.StatusCode, health.DB)
	}
	return &health, nil
}

func dayPath(date string) string {
	return "/days/" + url.PathEscape(date) + "/tasks"
}

func taskPath(date, id string) string {
	return dayPath(date) + "/" + url.PathEscape(id)
}

// Tasks lists the tasks of a day.
func (c *Client) Tasks(ctx context.Context, date string) ([]api.TaskView, error) {
	var tasks []api.TaskView
	err := c.do(ctx, http.MethodGet, dayPath(date), nil, &tasks)
	return tasks, err
}

// Task fetches one task.
func (c *Client) Task(ctx context.Context, date, id string) (*api.TaskView, error) {
	var task api.TaskView
	if err := c.do(ctx, http.MethodGet, taskPath(date, id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AddTask appends a task to a day.
func (c *Client) AddTask(ctx context.Context, date, text string) (*api.TaskView, error) {
	var task api.TaskView
	if err := c.do(ctx, http.MethodPost, dayPath(date), map[string]string{"text": text}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// Task actions accepted by TaskAction.
const (
	ActionStart    = "start"
	ActionStop     = "stop"
	ActionToggle   = "toggle"
	ActionComplete = "complete"
)

// TaskAction runs start, stop, toggle or complete on a task.
func (c *Client) TaskAction(ctx context.Context, date, id, action string) (*api.TaskView, error) {
	var task api.TaskView
	if err := c.do(ctx, http.MethodPost, taskPath(date, id)+"/"+action, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// EditTask applies a partial edit.
func (c *Client) EditTask(ctx context.Context, date, id string, edit api.TaskEdit) (*api.TaskView, error) {
	var task api.TaskView
	if err := c.do(ctx, http.MethodPost, taskPath(date, id)+"/edit", edit, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// MoveTask reorders a task within its day.
func (c *Client) MoveTask(ctx context.Context, date, id string, to int) (*api.TaskView, error) {
	var task api.TaskView
	if err := c.do(ctx, http.MethodPost, taskPath(date, id)+"/move", map[string]int{"to": to}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, date, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(date, id), nil, nil)
}

// Dates lists every day that has tasks.
func (c *Client) Dates(ctx context.Context) ([]string, error) {
	var dates []string
	err := c.do(ctx, http.MethodGet, "/dates", nil, &dates)
	return dates, err
}

// Running returns the running timer, or nil when idle.
func (c *Client) Running(ctx context.Context) (*api.RunningView, error) {
	var running *api.RunningView
	err := c.do(ctx, http.MethodGet, "/running", nil, &running)
	return running, err
}

func goalPath(typ string) string {
	return "/goals/" + url.PathEscape(typ)
}

// Goals lists the live bucket of a period type.
func (c *Client) Goals(ctx context.Context, typ string) (*api.GoalList, error) {
	var list api.GoalList
	if err := c.do(ctx, http.MethodGet, goalPath(typ), nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// AddGoal adds a goal to the current period.
func (c *Client) AddGoal(ctx context.Context, typ, text string) (*models.Goal, error) {
	var goal models.Goal
	if err := c.do(ctx, http.MethodPost, goalPath(typ), map[string]string{"text": text}, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// ToggleGoal flips a goal's completed flag.
func (c *Client) ToggleGoal(ctx context.Context, typ, id string) (*models.Goal, error) {
	var goal models.Goal
	if err := c.do(ctx, http.MethodPost, goalPath(typ)+"/"+url.PathEscape(id)+"/toggle", nil, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// EditGoal replaces a goal's text.
func (c *Client) EditGoal(ctx context.Context, typ, id, text string) (*models.Goal, error) {
	var goal models.Goal
	if err := c.do(ctx, http.MethodPost, goalPath(typ)+"/"+url.PathEscape(id)+"/edit", map[string]string{"text": text}, &goal); err != nil {
		return nil, err
	}
	return &goal, nil
}

// DeleteGoal removes a goal.
func (c *Client) DeleteGoal(ctx context.Context, typ, id string) error {
	return c.do(ctx, http.MethodDelete, goalPath(typ)+"/"+url.PathEscape(id), nil, nil)
}

// GoalArchive lists archived batches, newest first. An empty typ lists all.
func (c *Client) GoalArchive(ctx context.Context, typ string) ([]models.ArchivedGoalBatch, error) {
	path := "/goals/archive"
	if typ != "" {
		path += "?type=" + url.QueryEscape(typ)
	}
	var batches []models.ArchivedGoalBatch
	err := c.do(ctx, http.MethodGet, path, nil, &batches)
	return batches, err
}

// Stats aggregates a range. Zero year or month means the current one.
func (c *Client) Stats(ctx context.Context, rng string, year, month int) (*api.StatsReport, error) {
	q := url.Values{}
	if rng != "" {
		q.Set("range", rng)
	}
	if year != 0 {
		q.Set("year", strconv.Itoa(year))
	}
	if month != 0 {
		q.Set("month", strconv.Itoa(month))
	}
	path := "/stats"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var report api.StatsReport
	if err := c.do(ctx, http.MethodGet, path, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Timeline returns the blocks of a day.
func (c *Client) Timeline(ctx context.Context, date string) ([]timeline.Block, error) {
	var blocks []timeline.Block
	err := c.do(ctx, http.MethodGet, "/timeline?date="+url.QueryEscape(date), nil, &blocks)
	return blocks, err
}

// Categories lists the categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := c.do(ctx, http.MethodGet, "/categories", nil, &cats)
	return cats, err
}

// AddCategory creates a category. An empty color picks from the palette.
func (c *Client) AddCategory(ctx context.Context, name, color string) (*models.Category, error) {
	var cat models.Category
	body := map[string]string{"name": name, "color": color}
	if err := c.do(ctx, http.MethodPost, "/categories", body, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/categories/"+url.PathEscape(id), nil, nil)
}

// Activity returns the journal of a day.
func (c *Client) Activity(ctx context.Context, date string) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	err := c.do(ctx, http.MethodGet, "/activity?date="+url.QueryEscape(date), nil, &entries)
	return entries, err
}
