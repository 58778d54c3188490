package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fentz26/daylog/internal/api"
	"github.com/fentz26/daylog/internal/client"
	"github.com/fentz26/daylog/internal/stats"
	"github.com/fentz26/daylog/internal/tui"
)

var taskCmd = &cobra.Command{
	Use:     "task",
	Aliases: []string{"t"},
	Short:   "Manage a day's tasks and their timers",
}

var taskAddCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTaskAdd,
}

var taskListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List tasks",
	Args:    cobra.NoArgs,
	RunE:    runTaskList,
}

var taskShowCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

var taskStartCmd = &cobra.Command{
	Use:   "start [task-id]",
	Short: "Start a task's timer, stopping any other",
	Args:  cobra.ExactArgs(1),
	RunE:  taskActionRunner(client.ActionStart),
}

var taskStopCmd = &cobra.Command{
	Use:   "stop [task-id]",
	Short: "Stop a task's timer, or the running one when no id is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTaskStop,
}

var taskToggleCmd = &cobra.Command{
	Use:   "toggle [task-id]",
	Short: "Start or stop a task's timer",
	Args:  cobra.ExactArgs(1),
	RunE:  taskActionRunner(client.ActionToggle),
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Toggle a task completed",
	Args:  cobra.ExactArgs(1),
	RunE:  taskActionRunner(client.ActionComplete),
}

var taskEditCmd = &cobra.Command{
	Use:   "edit [task-id]",
	Short: "Edit a task's text, category or memo",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskEdit,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [task-id] [position]",
	Short: "Move a task to a 1-based position",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskMove,
}

var taskRmCmd = &cobra.Command{
	Use:     "rm [task-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runTaskRm,
}

var (
	taskDate     string
	editText     string
	editCategory string
	editMemo     string
)

func init() {
	taskCmd.AddCommand(taskAddCmd, taskListCmd, taskShowCmd, taskStartCmd, taskStopCmd,
		taskToggleCmd, taskDoneCmd, taskEditCmd, taskMoveCmd, taskRmCmd)

	taskCmd.PersistentFlags().StringVarP(&taskDate, "date", "d", "today", "Day as YYYY-MM-DD or 'today'")

	taskEditCmd.Flags().StringVar(&editText, "text", "", "New task text")
	taskEditCmd.Flags().StringVar(&editCategory, "category", "", "Category name or id ('none' to clear)")
	taskEditCmd.Flags().StringVar(&editMemo, "memo", "", "Markdown memo ('' to clear)")
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	task, err := cl.AddTask(cmd.Context(), taskDate, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Printf("Created task %s on %s\n", idColor.Sprint(truncateID(task.ID)), task.Date)
	return nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cl, err := newClient()
	if err != nil {
		return err
	}
	tasks, err := cl.Tasks(ctx, taskDate)
	if err != nil {
		return err
	}
	cats, err := cl.Categories(ctx)
	if err != nil {
		return err
	}

	title := taskDate
	if len(tasks) > 0 {
		title = tasks[0].Date
	}
	_, _ = titleColor.Println(title)
	if len(tasks) == 0 {
		printNone("tasks")
		return nil
	}

	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	tbl := newTable()
	tbl.AddRow("ID", "", "TIME", "TASK", "CATEGORY")
	var total int64
	for _, t := range tasks {
		total += t.Elapsed
		clock := stats.FormatClock(t.Elapsed)
		if t.Running {
			clock = runningColor.Sprint("▶ " + clock)
		}
		text := t.Text
		if t.Completed {
			text = doneColor.Sprint(text)
		}
		tbl.AddRow(idColor.Sprint(truncateID(t.ID)), checkbox(t.Completed), clock, text, names[t.CategoryID])
	}
	printTable(tbl)
	_, _ = faintColor.Printf("%d tasks, %s tracked\n", len(tasks), stats.FormatDuration(total))
	return nil
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cl, err := newClient()
	if err != nil {
		return err
	}
	t, err := resolveTask(ctx, cl, taskDate, args[0])
	if err != nil {
		return err
	}
	cats, err := cl.Categories(ctx)
	if err != nil {
		return err
	}

	_, _ = titleColor.Println(t.Text)
	tbl := newTable()
	tbl.AddRow("ID:", t.ID)
	tbl.AddRow("Date:", t.Date)
	tbl.AddRow("Completed:", strconv.FormatBool(t.Completed))
	tracked := stats.FormatClock(t.Elapsed)
	if t.Running {
		tracked = runningColor.Sprint(tracked + " (running)")
	}
	tbl.AddRow("Tracked:", tracked)
	for _, c := range cats {
		if c.ID == t.CategoryID {
			tbl.AddRow("Category:", c.Name)
		}
	}
	printTable(tbl)

	if len(t.Sessions) > 0 {
		fmt.Println()
		_, _ = titleColor.Println("Sessions")
		st := newTable()
		for _, s := range t.Sessions {
			st.AddRow(s.Start.Local().Format("15:04:05"), "-", s.End.Local().Format("15:04:05"),
				stats.FormatShort(int64(s.Duration()/time.Second)))
		}
		printTable(st)
	}

	if t.Memo != "" {
		fmt.Println()
		fmt.Print(tui.RenderMemo(t.Memo, 80))
	}
	return nil
}

func taskActionRunner(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cl, err := newClient()
		if err != nil {
			return err
		}
		t, err := resolveTask(ctx, cl, taskDate, args[0])
		if err != nil {
			return err
		}
		v, err := cl.TaskAction(ctx, t.Date, t.ID, action)
		if err != nil {
			return err
		}
		printTaskState(v, action)
		return nil
	}
}

func printTaskState(v *api.TaskView, action string) {
	switch {
	case action == client.ActionComplete && v.Completed:
		fmt.Printf("Completed %q\n", v.Text)
	case action == client.ActionComplete:
		fmt.Printf("Reopened %q\n", v.Text)
	case v.Running:
		fmt.Printf("%s %q\n", runningColor.Sprint("▶ Started"), v.Text)
	default:
		fmt.Printf("Stopped %q at %s\n", v.Text, stats.FormatClock(v.Elapsed))
	}
}

func runTaskStop(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return taskActionRunner(client.ActionStop)(cmd, args)
	}
	ctx := cmd.Context()
	cl, err := newClient()
	if err != nil {
		return err
	}
	running, err := cl.Running(ctx)
	if err != nil {
		return err
	}
	if running == nil {
		fmt.Println("No timer running")
		return nil
	}
	v, err := cl.TaskAction(ctx, running.DateKey, running.TaskID, client.ActionStop)
	if err != nil {
		return err
	}
	printTaskState(v, client.ActionStop)
	return nil
}

func runTaskEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cl, err := newClient()
	if err != nil {
		return err
	}
	t, err := resolveTask(ctx, cl, taskDate, args[0])
	if err != nil {
		return err
	}

	var edit api.TaskEdit
	flags := cmd.Flags()
	if flags.Changed("text") {
		edit.Text = &editText
	}
	if flags.Changed("memo") {
		edit.Memo = &editMemo
	}
	if flags.Changed("category") {
		id, err := categoryID(ctx, cl, editCategory)
		if err != nil {
			return err
		}
		edit.CategoryID = &id
	}
	if edit.Text == nil && edit.Memo == nil && edit.CategoryID == nil {
		return fmt.Errorf("nothing to edit: pass --text, --category or --memo")
	}

	if _, err := cl.EditTask(ctx, t.Date, t.ID, edit); err != nil {
		return err
	}
	fmt.Printf("Updated task %s\n", idColor.Sprint(truncateID(t.ID)))
	return nil
}

// categoryID resolves a category name or id; "none" and "" clear it.
func categoryID(ctx context.Context, cl *client.Client, ref string) (string, error) {
	if ref == "" || ref == "none" {
		return "", nil
	}
	cats, err := cl.Categories(ctx)
	if err != nil {
		return "", err
	}
	for _, c := range cats {
		if c.ID == ref || strings.EqualFold(c.Name, ref) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("no category %q (see 'daylog category list')", ref)
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pos, err := strconv.Atoi(args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("position must be a positive number, got %q", args[1])
	}
	cl, err := newClient()
	if err != nil {
		return err
	}
	t, err := resolveTask(ctx, cl, taskDate, args[0])
	if err != nil {
		return err
	}
	if _, err := cl.MoveTask(ctx, t.Date, t.ID, pos-1); err != nil {
		return err
	}
	fmt.Printf("Moved %q to position %d\n", t.Text, pos)
	return nil
}

func runTaskRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cl, err := newClient()
	if err != nil {
		return err
	}
	t, err := resolveTask(ctx, cl, taskDate, args[0])
	if err != nil {
		return err
	}
	if err := cl.DeleteTask(ctx, t.Date, t.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %q\n", t.Text)
	return nil
}
