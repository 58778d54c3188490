// Package tui provides the interactive terminal UI for daylog.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/daylog/internal/api"
	"github.com/fentz26/daylog/internal/category"
	"github.com/fentz26/daylog/internal/client"
	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/models"
	"github.com/fentz26/daylog/internal/stats"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")
	cyanColor      = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)

	taskItemStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	runningStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	offlineStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

type mode int

const (
	modeDay mode = iota
	modeDetail
	modeGoals
	modeStats
)

// refreshEvery is how many one-second ticks pass between full reloads.
// The daemon may split a timer at midnight without the TUI asking.
const refreshEvery = 15

var goalTypes = []string{"week", "month", "year"}

var statRanges = []string{stats.RangeDaily, stats.RangeWeekly, stats.RangeMonthly, stats.RangeMonth, stats.RangeYear}

// App is the main TUI application model.
type App struct {
	client      *client.Client
	date        string
	tasks       []api.TaskView
	fetchedAt   time.Time
	selectedIdx int
	categories  []models.Category
	input       textinput.Model
	width       int
	height      int
	mode        mode
	message     string
	loading     bool
	online      bool
	ticks       int
	suggestions *Suggestions

	goalTypeIdx int
	goals       *api.GoalList
	goalIdx     int

	rangeIdx int
	report   *api.StatsReport

	now func() time.Time
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	ti := textinput.New()
	ti.Placeholder = "Type: add <text> | start | stop | done | day <date> | / for commands"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 80

	return &App{
		client:      client.New(apiAddr),
		date:        daylog.DateKey(time.Now()),
		input:       ti,
		mode:        modeDay,
		suggestions: NewSuggestions(),
		now:         time.Now,
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		a.fetchTasks(),
		a.fetchCategories(),
		a.tickCmd(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := a.handleKey(msg); handled {
			return model, cmd
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = msg.Width - 4

	case tasksLoadedMsg:
		a.loading = false
		a.online = true
		a.date = msg.date
		a.tasks = msg.tasks
		a.fetchedAt = a.now()
		if a.selectedIdx >= len(a.tasks) {
			a.selectedIdx = max(0, len(a.tasks)-1)
		}

	case categoriesLoadedMsg:
		a.categories = msg.categories

	case goalsLoadedMsg:
		a.goals = msg.list
		if a.goalIdx >= len(a.goals.Goals) {
			a.goalIdx = max(0, len(a.goals.Goals)-1)
		}

	case statsLoadedMsg:
		a.report = msg.report

	case tickMsg:
		a.ticks++
		cmds = append(cmds, a.tickCmd())
		if a.ticks%refreshEvery == 0 {
			cmds = append(cmds, a.refresh())
		}

	case commandResultMsg:
		a.message = msg.message
		return a, a.refresh()

	case errMsg:
		a.loading = false
		if isConnError(msg.err) {
			a.online = false
		}
		a.message = "Error: " + msg.err.Error()
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	cmds = append(cmds, cmd)

	a.suggestions.Update(a.input.Value())
	if strings.HasPrefix(a.input.Value(), "@") {
		names := make([]string, len(a.categories))
		for i, c := range a.categories {
			names[i] = c.Name
		}
		a.suggestions.SetCategories(names)
	}

	return a, tea.Batch(cmds...)
}

// handleKey processes navigation keys. Single-letter shortcuts only apply
// while the input line is empty so they never eat typed text.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	empty := a.input.Value() == ""

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit, true

	case "esc":
		if a.mode != modeDay {
			a.mode = modeDay
			return a, a.fetchTasks(), true
		}
		a.input.SetValue("")
		a.suggestions.Update("")
		return a, nil, true

	case "up":
		if a.suggestions.IsVisible() {
			a.suggestions.Prev()
		} else {
			a.moveCursor(-1)
		}
		return a, nil, true

	case "down":
		if a.suggestions.IsVisible() {
			a.suggestions.Next()
		} else {
			a.moveCursor(1)
		}
		return a, nil, true

	case "tab":
		if a.suggestions.IsVisible() {
			a.input.SetValue(a.suggestions.Accept())
			a.input.CursorEnd()
			a.suggestions.Update("")
			return a, nil, true
		}
		switch a.mode {
		case modeGoals:
			a.goalTypeIdx = (a.goalTypeIdx + 1) % len(goalTypes)
			return a, a.fetchGoals(), true
		case modeStats:
			a.rangeIdx = (a.rangeIdx + 1) % len(statRanges)
			return a, a.fetchStats(), true
		}
		return a, nil, true

	case "enter":
		if a.suggestions.IsVisible() {
			a.input.SetValue(a.suggestions.Accept())
			a.input.CursorEnd()
			a.suggestions.Update("")
			return a, nil, true
		}
		line := strings.TrimSpace(a.input.Value())
		if line != "" {
			a.input.SetValue("")
			return a, a.executeCommand(line), true
		}
		if a.mode == modeDay && len(a.tasks) > 0 {
			a.mode = modeDetail
			return a, nil, true
		}
		return a, nil, true
	}

	if !empty {
		return a, nil, false
	}

	switch msg.String() {
	case "k":
		a.moveCursor(-1)
	case "j":
		a.moveCursor(1)
	case " ":
		switch a.mode {
		case modeDay, modeDetail:
			return a, a.taskAction(client.ActionToggle), true
		case modeGoals:
			return a, a.toggleGoal(), true
		}
		return a, nil, true
	case "x":
		if a.mode == modeDay || a.mode == modeDetail {
			return a, a.taskAction(client.ActionComplete), true
		}
	case "left", "h":
		if a.mode == modeDay {
			return a, a.shiftDay(-1), true
		}
	case "right", "l":
		if a.mode == modeDay {
			return a, a.shiftDay(1), true
		}
	case "t":
		a.mode = modeDay
		a.date = daylog.DateKey(a.now())
		return a, a.fetchTasks(), true
	case "g":
		a.mode = modeGoals
		return a, a.fetchGoals(), true
	case "s":
		a.mode = modeStats
		return a, a.fetchStats(), true
	case "r":
		return a, a.refresh(), true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a *App) moveCursor(delta int) {
	switch a.mode {
	case modeDay:
		a.selectedIdx = clampIndex(a.selectedIdx+delta, len(a.tasks))
	case modeGoals:
		if a.goals != nil {
			a.goalIdx = clampIndex(a.goalIdx+delta, len(a.goals.Goals))
		}
	}
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// liveElapsed returns the task's elapsed seconds as of now, advancing the
// running task locally between reloads.
func (a *App) liveElapsed(t api.TaskView) int64 {
	if !t.Running || a.fetchedAt.IsZero() {
		return t.Elapsed
	}
	return t.Elapsed + int64(a.now().Sub(a.fetchedAt)/time.Second)
}

func (a *App) selectedTask() (api.TaskView, bool) {
	if len(a.tasks) == 0 || a.selectedIdx >= len(a.tasks) {
		return api.TaskView{}, false
	}
	return a.tasks[a.selectedIdx], true
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemon := runningStyle.Render("● DAEMON")
	if !a.online {
		daemon = offlineStyle.Render("○ DAEMON")
	}
	header := titleStyle.Render("daylog") + "  " + daemon
	header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render(a.date)
	if total := a.dayTotal(); total > 0 {
		header += "  " + lipgloss.NewStyle().Foreground(mutedColor).Render("tracked "+stats.FormatDuration(total))
	}
	b.WriteString(header + "\n")
	b.WriteString(strings.Repeat("─", max(a.width, 20)) + "\n")

	contentHeight := max(a.height-8, 5)

	switch a.mode {
	case modeDay:
		b.WriteString(a.renderTaskList(contentHeight))
	case modeDetail:
		b.WriteString(a.renderTaskDetail())
	case modeGoals:
		b.WriteString(a.renderGoals())
	case modeStats:
		b.WriteString(a.renderStats())
	}

	if a.message != "" {
		msgStyle := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			msgStyle = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString("\n" + msgStyle.Render(a.message))
	} else {
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(inputBoxStyle.Render(a.input.View()))
	if a.suggestions.IsVisible() {
		b.WriteString("\n")
		b.WriteString(a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case modeDay:
		status = fmt.Sprintf(" Tasks: %d | j/k:nav | space:timer | x:done | h/l:day | t:today | g:goals | s:stats | Ctrl+C:quit", len(a.tasks))
	case modeGoals:
		status = " Goals | j/k:nav | space:toggle | Tab:period | Esc:back"
	case modeStats:
		status = " Stats | Tab:range | Esc:back"
	default:
		status = " space:timer | x:done | Esc:back | Ctrl+C:quit"
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))

	return b.String()
}

func (a *App) dayTotal() int64 {
	var total int64
	for _, t := range a.tasks {
		total += a.liveElapsed(t)
	}
	return total
}

func (a *App) renderTaskList(height int) string {
	if a.loading && len(a.tasks) == 0 {
		return "\n  Loading tasks...\n"
	}
	if len(a.tasks) == 0 {
		return "\n  No tasks for this day. Type: add <text> to create one.\n"
	}

	var lines []string
	for i, t := range a.tasks {
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		clock := stats.FormatClock(a.liveElapsed(t))
		marker := " "
		if t.Running {
			marker = "▶"
		}
		cat := ""
		if c, ok := category.Resolve(a.categories, t.CategoryID); ok && t.CategoryID != "" {
			cat = " " + lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render("#"+c.Name)
		}

		if i == a.selectedIdx {
			lines = append(lines, selectedStyle.Render(fmt.Sprintf("%s %s %8s  %s", marker, check, clock, t.Text))+cat)
			continue
		}
		clockStr := fmt.Sprintf("%8s", clock)
		if t.Running {
			clockStr = runningStyle.Render(clockStr)
		}
		line := taskItemStyle.Render(fmt.Sprintf("%s %s %s  %s", marker, check, clockStr, t.Text)) + cat
		if t.Completed {
			line = lipgloss.NewStyle().Foreground(mutedColor).Render(line)
		}
		lines = append(lines, line)
	}

	if len(lines) > height {
		start := max(a.selectedIdx-height/2, 0)
		end := start + height
		if end > len(lines) {
			end = len(lines)
			start = max(0, end-height)
		}
		lines = lines[start:end]
	}

	return strings.Join(lines, "\n")
}

func (a *App) renderTaskDetail() string {
	t, ok := a.selectedTask()
	if !ok {
		return "\n  No task selected.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s\n", lipgloss.NewStyle().Bold(true).Render(t.Text))
	fmt.Fprintf(&b, "  ID: %s\n", shortID(t.ID))
	state := "open"
	if t.Completed {
		state = "done"
	}
	if t.Running {
		state += ", " + runningStyle.Render("running")
	}
	fmt.Fprintf(&b, "  Status: %s\n", state)
	fmt.Fprintf(&b, "  Tracked: %s\n", stats.FormatClock(a.liveElapsed(t)))
	if c, ok := category.Resolve(a.categories, t.CategoryID); ok && t.CategoryID != "" {
		fmt.Fprintf(&b, "  Category: %s\n", lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(c.Name))
	}

	if len(t.Sessions) > 0 {
		b.WriteString("\n  Sessions:\n")
		for _, s := range t.Sessions {
			fmt.Fprintf(&b, "    • %s – %s  (%s)\n",
				s.Start.Local().Format("15:04"), s.End.Local().Format("15:04"),
				stats.FormatShort(int64(s.Duration()/time.Second)))
		}
	}

	if t.Memo != "" {
		b.WriteString("\n  Memo:\n")
		b.WriteString(RenderMemo(t.Memo, max(a.width-4, 40)))
	}
	return b.String()
}

func (a *App) renderGoals() string {
	typ := goalTypes[a.goalTypeIdx]
	var b strings.Builder
	fmt.Fprintf(&b, "\n  %s goals", strings.ToUpper(typ[:1])+typ[1:])
	if a.goals == nil {
		b.WriteString("\n  Loading...\n")
		return b.String()
	}
	b.WriteString("  " + helpStyle.Render(a.goals.Key) + "\n\n")
	if len(a.goals.Goals) == 0 {
		b.WriteString("  No goals yet. Type: goal <text>\n")
		return b.String()
	}
	for i, g := range a.goals.Goals {
		check := "[ ]"
		if g.Completed {
			check = "[x]"
		}
		if i == a.goalIdx {
			b.WriteString(selectedStyle.Render(fmt.Sprintf("▶ %s %s", check, g.Text)) + "\n")
			continue
		}
		b.WriteString(taskItemStyle.Render(fmt.Sprintf("  %s %s", check, g.Text)) + "\n")
	}
	return b.String()
}

func (a *App) renderStats() string {
	var b strings.Builder
	rng := statRanges[a.rangeIdx]
	fmt.Fprintf(&b, "\n  Stats: %s", rng)
	if a.report == nil {
		b.WriteString("\n  Loading...\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  %s\n\n", helpStyle.Render(a.report.From+" .. "+a.report.To))
	if a.report.Total == 0 {
		b.WriteString("  No tracked time in this range.\n")
		return b.String()
	}
	barWidth := max(a.width-40, 10)
	for _, row := range a.report.Rows {
		fmt.Fprintf(&b, "  %-16s %8s  %s\n", truncate(row.Name, 16), stats.FormatShort(row.Seconds),
			renderBar(row.Seconds, a.report.Total, barWidth, row.Color))
	}
	fmt.Fprintf(&b, "\n  Total: %s\n", stats.FormatDuration(a.report.Total))
	return b.String()
}

// renderBar draws a share of total as a colored bar of at most width cells.
func renderBar(part, total int64, width int, color string) string {
	if total <= 0 || part <= 0 {
		return ""
	}
	n := int(part * int64(width) / total)
	if n == 0 {
		n = 1
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", n))
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// --- Commands ---

func (a *App) refresh() tea.Cmd {
	switch a.mode {
	case modeGoals:
		return tea.Batch(a.fetchTasks(), a.fetchGoals())
	case modeStats:
		return tea.Batch(a.fetchTasks(), a.fetchStats())
	}
	return tea.Batch(a.fetchTasks(), a.fetchCategories())
}

func (a *App) fetchTasks() tea.Cmd {
	a.loading = true
	date := a.date
	return func() tea.Msg {
		tasks, err := a.client.Tasks(context.Background(), date)
		if err != nil {
			return errMsg{err}
		}
		return tasksLoadedMsg{date: date, tasks: tasks}
	}
}

func (a *App) fetchCategories() tea.Cmd {
	return func() tea.Msg {
		cats, err := a.client.Categories(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return categoriesLoadedMsg{cats}
	}
}

func (a *App) fetchGoals() tea.Cmd {
	typ := goalTypes[a.goalTypeIdx]
	return func() tea.Msg {
		list, err := a.client.Goals(context.Background(), typ)
		if err != nil {
			return errMsg{err}
		}
		return goalsLoadedMsg{list}
	}
}

func (a *App) fetchStats() tea.Cmd {
	rng := statRanges[a.rangeIdx]
	return func() tea.Msg {
		report, err := a.client.Stats(context.Background(), rng, 0, 0)
		if err != nil {
			return errMsg{err}
		}
		return statsLoadedMsg{report}
	}
}

func (a *App) shiftDay(delta int) tea.Cmd {
	t, err := daylog.ParseDateKey(a.date)
	if err != nil {
		t = a.now()
	}
	a.date = daylog.DateKey(t.AddDate(0, 0, delta))
	a.selectedIdx = 0
	return a.fetchTasks()
}

func (a *App) taskAction(action string) tea.Cmd {
	t, ok := a.selectedTask()
	if !ok {
		return nil
	}
	date := a.date
	return func() tea.Msg {
		v, err := a.client.TaskAction(context.Background(), date, t.ID, action)
		if err != nil {
			return commandResultMsg{"Error: " + err.Error()}
		}
		switch {
		case action == client.ActionComplete && v.Completed:
			return commandResultMsg{"✓ Completed: " + v.Text}
		case action == client.ActionComplete:
			return commandResultMsg{"Reopened: " + v.Text}
		case v.Running:
			return commandResultMsg{"▶ Started: " + v.Text}
		}
		return commandResultMsg{fmt.Sprintf("■ Stopped: %s (%s)", v.Text, stats.FormatClock(v.Elapsed))}
	}
}

func (a *App) toggleGoal() tea.Cmd {
	if a.goals == nil || len(a.goals.Goals) == 0 {
		return nil
	}
	typ := goalTypes[a.goalTypeIdx]
	g := a.goals.Goals[a.goalIdx]
	return func() tea.Msg {
		if _, err := a.client.ToggleGoal(context.Background(), typ, g.ID); err != nil {
			return commandResultMsg{"Error: " + err.Error()}
		}
		return commandResultMsg{"✓ Goal updated"}
	}
}

func (a *App) executeCommand(input string) tea.Cmd {
	input = strings.TrimPrefix(input, "/")
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}
	cmd := parts[0]
	rest := strings.TrimSpace(strings.TrimPrefix(input, cmd))
	date := a.date
	ctx := context.Background()
	selected, hasSelected := a.selectedTask()

	switch cmd {
	case "q", "quit", "exit":
		return tea.Quit
	case "day":
		if rest == "" || rest == "today" {
			a.date = daylog.DateKey(a.now())
		} else if _, err := daylog.ParseDateKey(rest); err != nil {
			a.message = "Error: invalid date " + rest
			return nil
		} else {
			a.date = rest
		}
		a.mode = modeDay
		a.selectedIdx = 0
		return a.fetchTasks()
	case "stats":
		a.mode = modeStats
		for i, r := range statRanges {
			if r == rest {
				a.rangeIdx = i
			}
		}
		return a.fetchStats()
	case "start", "stop":
		if !hasSelected && cmd == "start" {
			return func() tea.Msg { return commandResultMsg{"No task selected"} }
		}
		if cmd == "stop" {
			return func() tea.Msg {
				running, err := a.client.Running(ctx)
				if err != nil {
					return commandResultMsg{"Error: " + err.Error()}
				}
				if running == nil {
					return commandResultMsg{"No timer running"}
				}
				if _, err := a.client.TaskAction(ctx, running.DateKey, running.TaskID, client.ActionStop); err != nil {
					return commandResultMsg{"Error: " + err.Error()}
				}
				return commandResultMsg{"■ Timer stopped"}
			}
		}
		return a.taskAction(client.ActionStart)
	case "done":
		return a.taskAction(client.ActionComplete)
	}

	return func() tea.Msg {
		switch cmd {
		case "add":
			if rest == "" {
				return commandResultMsg{"Usage: add <text>"}
			}
			t, err := a.client.AddTask(ctx, date, rest)
			if err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Added: " + t.Text}

		case "edit", "memo":
			if !hasSelected {
				return commandResultMsg{"No task selected"}
			}
			edit := api.TaskEdit{Text: &rest}
			if cmd == "memo" {
				edit = api.TaskEdit{Memo: &rest}
			} else if rest == "" {
				return commandResultMsg{"Usage: edit <text>"}
			}
			if _, err := a.client.EditTask(ctx, date, selected.ID, edit); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Task updated"}

		case "cat":
			if !hasSelected {
				return commandResultMsg{"No task selected"}
			}
			id := ""
			if rest != "" && rest != "none" {
				c, ok := category.Resolve(a.categories, rest)
				if !ok {
					return commandResultMsg{"Error: unknown category " + rest}
				}
				id = c.ID
			}
			if _, err := a.client.EditTask(ctx, date, selected.ID, api.TaskEdit{CategoryID: &id}); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Category set"}

		case "move":
			if !hasSelected {
				return commandResultMsg{"No task selected"}
			}
			pos, err := strconv.Atoi(rest)
			if err != nil || pos < 1 {
				return commandResultMsg{"Usage: move <position>"}
			}
			if _, err := a.client.MoveTask(ctx, date, selected.ID, pos-1); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Moved to %d", pos)}

		case "rm":
			if a.mode == modeGoals {
				if a.goals == nil || len(a.goals.Goals) == 0 {
					return commandResultMsg{"No goal selected"}
				}
				g := a.goals.Goals[a.goalIdx]
				if err := a.client.DeleteGoal(ctx, goalTypes[a.goalTypeIdx], g.ID); err != nil {
					return commandResultMsg{"Error: " + err.Error()}
				}
				return commandResultMsg{"✓ Goal deleted"}
			}
			if !hasSelected {
				return commandResultMsg{"No task selected"}
			}
			if err := a.client.DeleteTask(ctx, date, selected.ID); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{"✓ Deleted: " + selected.Text}

		case "goal":
			if rest == "" {
				return commandResultMsg{"Usage: goal <text>"}
			}
			typ := goalTypes[a.goalTypeIdx]
			if _, err := a.client.AddGoal(ctx, typ, rest); err != nil {
				return commandResultMsg{"Error: " + err.Error()}
			}
			return commandResultMsg{fmt.Sprintf("✓ Added %s goal", typ)}

		default:
			return commandResultMsg{fmt.Sprintf("Unknown: %s (try: add, start, stop, done, day, goal)", cmd)}
		}
	}
}

func isConnError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "API request failed")
}

type commandResultMsg struct {
	message string
}

type errMsg struct {
	err error
}

type tasksLoadedMsg struct {
	date  string
	tasks []api.TaskView
}

type categoriesLoadedMsg struct {
	categories []models.Category
}

type goalsLoadedMsg struct {
	list *api.GoalList
}

type statsLoadedMsg struct {
	report *api.StatsReport
}

type tickMsg time.Time

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
