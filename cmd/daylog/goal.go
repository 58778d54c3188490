package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fentz26/daylog/internal/api"
	"github.com/fentz26/daylog/internal/client"
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage yearly, monthly and weekly goals",
	Long: `Goals live in a bucket for the current year, month or ISO week. When a
period ends its bucket is archived and a fresh one starts.`,
}

var goalAddCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a goal to the current period",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGoalAdd,
}

var goalListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the current period's goals",
	Args:    cobra.NoArgs,
	RunE:    runGoalList,
}

var goalToggleCmd = &cobra.Command{
	Use:   "toggle [goal-id]",
	Short: "Toggle a goal completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runGoalToggle,
}

var goalEditCmd = &cobra.Command{
	Use:   "edit [goal-id] [text...]",
	Short: "Replace a goal's text",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runGoalEdit,
}

var goalRmCmd = &cobra.Command{
	Use:     "rm [goal-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a goal",
	Args:    cobra.ExactArgs(1),
	RunE:    runGoalRm,
}

var goalArchiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Show archived goal buckets, newest first",
	Args:  cobra.NoArgs,
	RunE:  runGoalArchive,
}

var (
	goalType    string
	archiveType string
)

func init() {
	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalToggleCmd, goalEditCmd, goalRmCmd, goalArchiveCmd)

	for _, c := range []*cobra.Command{goalAddCmd, goalListCmd, goalToggleCmd, goalEditCmd, goalRmCmd} {
		c.Flags().StringVarP(&goalType, "type", "p", "week", "Period: year, month or week")
	}
	goalArchiveCmd.Flags().StringVarP(&archiveType, "type", "p", "", "Only this period type")
}

func runGoalAdd(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	g, err := cl.AddGoal(cmd.Context(), goalType, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Printf("Added %s goal %s\n", goalType, idColor.Sprint(truncateID(g.ID)))
	return nil
}

func runGoalList(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	list, err := cl.Goals(cmd.Context(), goalType)
	if err != nil {
		return err
	}

	_, _ = titleColor.Print(list.Key)
	done := 0
	for _, g := range list.Goals {
		if g.Completed {
			done++
		}
	}
	_, _ = faintColor.Printf(" - %d/%d done\n", done, len(list.Goals))
	if len(list.Goals) == 0 {
		printNone("goals")
		return nil
	}

	tbl := newTable()
	for _, g := range list.Goals {
		text := g.Text
		if g.Completed {
			text = doneColor.Sprint(text)
		}
		tbl.AddRow(idColor.Sprint(truncateID(g.ID)), checkbox(g.Completed), text)
	}
	printTable(tbl)
	return nil
}

// lookupGoal fetches the live bucket and resolves ref within it.
func lookupGoal(cmd *cobra.Command, ref string) (*client.Client, *api.GoalList, string, error) {
	cl, err := newClient()
	if err != nil {
		return nil, nil, "", err
	}
	list, err := cl.Goals(cmd.Context(), goalType)
	if err != nil {
		return nil, nil, "", err
	}
	g, err := resolveGoal(list, ref)
	if err != nil {
		return nil, nil, "", err
	}
	return cl, list, g.ID, nil
}

func runGoalToggle(cmd *cobra.Command, args []string) error {
	cl, _, id, err := lookupGoal(cmd, args[0])
	if err != nil {
		return err
	}
	g, err := cl.ToggleGoal(cmd.Context(), goalType, id)
	if err != nil {
		return err
	}
	fmt.Printf("%s %q\n", checkbox(g.Completed), g.Text)
	return nil
}

func runGoalEdit(cmd *cobra.Command, args []string) error {
	cl, _, id, err := lookupGoal(cmd, args[0])
	if err != nil {
		return err
	}
	g, err := cl.EditGoal(cmd.Context(), goalType, id, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	fmt.Printf("Updated goal %q\n", g.Text)
	return nil
}

func runGoalRm(cmd *cobra.Command, args []string) error {
	cl, list, id, err := lookupGoal(cmd, args[0])
	if err != nil {
		return err
	}
	if err := cl.DeleteGoal(cmd.Context(), goalType, id); err != nil {
		return err
	}
	fmt.Printf("Deleted goal %s from %s\n", truncateID(id), list.Key)
	return nil
}

func runGoalArchive(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	batches, err := cl.GoalArchive(cmd.Context(), archiveType)
	if err != nil {
		return err
	}
	if len(batches) == 0 {
		printNone("archived goals")
		return nil
	}

	for _, b := range batches {
		_, _ = titleColor.Print(b.Key)
		_, _ = faintColor.Printf(" - %d/%d done, archived %s\n", b.Completed(), len(b.Goals), humanize.Time(b.ArchivedAt))
		tbl := newTable()
		for _, g := range b.Goals {
			tbl.AddRow(" ", checkbox(g.Completed), g.Text)
		}
		printTable(tbl)
		fmt.Println()
	}
	return nil
}
