package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fentz26/daylog/internal/models"
)

// Version is reported by the health endpoint; set at build time.
var Version = "dev"

// Server provides the HTTP API for daylog.
type Server struct {
	service *Service
	addr    string
	server  *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(service *Service, addr string) *Server {
	return &Server{
		service: service,
		addr:    addr,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Day and task endpoints
	mux.HandleFunc("/days/", s.handleDays)
	mux.HandleFunc("/dates", s.handleDates)
	mux.HandleFunc("/running", s.handleRunning)

	// Goal endpoints
	mux.HandleFunc("/goals/", s.handleGoals)

	// Read-side projections
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/timeline", s.handleTimeline)
	mux.HandleFunc("/activity", s.handleActivity)

	// Category endpoints
	mux.HandleFunc("/categories", s.handleCategories)
	mux.HandleFunc("/categories/", s.handleCategoryByID)

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Printf("Starting daylog daemon on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := HealthResponse{
		OK:      true,
		DB:      "ok",
		Version: Version,
		Time:    s.service.Now().Format(time.RFC3339),
	}
	status := http.StatusOK
	if err := s.service.Ping(r.Context()); err != nil {
		resp.OK = false
		resp.DB = err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// handleDays handles /days/{date}/tasks[/{id}[/{action}]]
func (s *Server) handleDays(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/days/"), "/")
	parts := strings.Split(path, "/")

	if len(parts) < 2 || parts[0] == "" || parts[1] != "tasks" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	date := parts[0]
	taskID := ""
	if len(parts) > 2 {
		taskID = parts[2]
	}
	action := ""
	if len(parts) > 3 {
		action = parts[3]
	}

	switch {
	case taskID == "" && r.Method == http.MethodGet:
		s.listTasks(w, r, date)
	case taskID == "" && r.Method == http.MethodPost:
		s.addTask(w, r, date)
	case action == "" && r.Method == http.MethodGet:
		s.getTask(w, r, date, taskID)
	case action == "" && r.Method == http.MethodDelete:
		s.deleteTask(w, r, date, taskID)
	case action == "start" && r.Method == http.MethodPost:
		s.taskAction(w, r, date, taskID, s.service.StartTask)
	case action == "stop" && r.Method == http.MethodPost:
		s.taskAction(w, r, date, taskID, s.service.StopTask)
	case action == "toggle" && r.Method == http.MethodPost:
		s.taskAction(w, r, date, taskID, s.service.ToggleTask)
	case action == "complete" && r.Method == http.MethodPost:
		s.taskAction(w, r, date, taskID, s.service.CompleteTask)
	case action == "edit" && r.Method == http.MethodPost:
		s.editTask(w, r, date, taskID)
	case action == "move" && r.Method == http.MethodPost:
		s.moveTask(w, r, date, taskID)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// --- Task Handlers ---

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, date string) {
	tasks, err := s.service.ListTasks(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

type addTaskRequest struct {
	Text string `json:"text"`
}

func (s *Server) addTask(w http.ResponseWriter, r *http.Request, date string) {
	var req addTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	task, err := s.service.AddTask(r.Context(), date, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, date, taskID string) {
	task, err := s.service.GetTask(r.Context(), date, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, date, taskID string) {
	if err := s.service.DeleteTask(r.Context(), date, taskID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type taskFunc func(ctx context.Context, date, id string) (*TaskView, error)

func (s *Server) taskAction(w http.ResponseWriter, r *http.Request, date, taskID string, fn taskFunc) {
	task, err := fn(r.Context(), date, taskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) editTask(w http.ResponseWriter, r *http.Request, date, taskID string) {
	var req TaskEdit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	task, err := s.service.EditTask(r.Context(), date, taskID, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

type moveRequest struct {
	To int `json:"to"`
}

func (s *Server) moveTask(w http.ResponseWriter, r *http.Request, date, taskID string) {
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	task, err := s.service.MoveTask(r.Context(), date, taskID, req.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dates, err := s.service.Dates(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if dates == nil {
		dates = []string{}
	}
	writeJSON(w, http.StatusOK, dates)
}

func (s *Server) handleRunning(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	running, err := s.service.Running(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, running)
}

// --- Goal Handlers ---

type goalRequest struct {
	Text string `json:"text"`
}

// handleGoals handles /goals/archive and /goals/{type}[/{id}[/{action}]]
func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/goals/"), "/")
	parts := strings.Split(path, "/")

	if parts[0] == "" {
		http.Error(w, "period type required", http.StatusBadRequest)
		return
	}
	if parts[0] == "archive" && len(parts) == 1 {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.goalArchive(w, r)
		return
	}

	typ := parts[0]
	goalID := ""
	if len(parts) > 1 {
		goalID = parts[1]
	}
	action := ""
	if len(parts) > 2 {
		action = parts[2]
	}

	switch {
	case goalID == "" && r.Method == http.MethodGet:
		list, err := s.service.ListGoals(r.Context(), typ)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	case goalID == "" && r.Method == http.MethodPost:
		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		goal, err := s.service.AddGoal(r.Context(), typ, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, goal)
	case action == "" && r.Method == http.MethodDelete:
		if err := s.service.DeleteGoal(r.Context(), typ, goalID); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	case action == "toggle" && r.Method == http.MethodPost:
		goal, err := s.service.ToggleGoal(r.Context(), typ, goalID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	case action == "edit" && r.Method == http.MethodPost:
		var req goalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		goal, err := s.service.EditGoal(r.Context(), typ, goalID, req.Text)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, goal)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

func (s *Server) goalArchive(w http.ResponseWriter, r *http.Request) {
	batches, err := s.service.GoalArchive(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	if batches == nil {
		batches = []models.ArchivedGoalBatch{}
	}
	writeJSON(w, http.StatusOK, batches)
}

// --- Read-side Handlers ---

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	query := StatsQuery{Range: q.Get("range")}
	var err error
	if v := q.Get("year"); v != "" {
		if query.Year, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid year", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("month"); v != "" {
		if query.Month, err = strconv.Atoi(v); err != nil {
			http.Error(w, "invalid month", http.StatusBadRequest)
			return
		}
	}

	report, err := s.service.Stats(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	blocks, err := s.service.Timeline(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blocks)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := s.service.Activity(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// --- Category Handlers ---

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// handleCategories handles POST /categories and GET /categories
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cats, err := s.service.ListCategories(r.Context())
		if err != nil {
			writeError(w, err)
			return
		}
		if cats == nil {
			cats = []models.Category{}
		}
		writeJSON(w, http.StatusOK, cats)
	case http.MethodPost:
		var req categoryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		c, err := s.service.AddCategory(r.Context(), req.Name, req.Color)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCategoryByID handles DELETE /categories/{id}
func (s *Server) handleCategoryByID(w http.ResponseWriter, r *http.Request) {
	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/categories/"), "/")
	if id == "" {
		http.Error(w, "category id required", http.StatusBadRequest)
		return
	}
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := s.service.DeleteCategory(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrInvalidPeriod), errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidRange), errors.Is(err, ErrEmptyText),
		errors.Is(err, ErrInvalidColor):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		log.Printf("api: %v", err)
	}
	http.Error(w, err.Error(), status)
}
