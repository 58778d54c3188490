package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"github.com/fentz26/daylog/internal/api"
	"github.com/fentz26/daylog/internal/client"
	"github.com/fentz26/daylog/internal/models"
)

var (
	titleColor   = color.New(color.Bold, color.Underline)
	faintColor   = color.New(color.Faint)
	runningColor = color.New(color.FgHiGreen, color.Bold)
	idColor      = color.New(color.FgHiYellow, color.Faint)
	doneColor    = color.New(color.Faint, color.CrossedOut)
)

func newTable() *uitable.Table {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.Wrap = true
	return tbl
}

func printTable(tbl *uitable.Table) {
	_, _ = fmt.Fprintln(color.Output, tbl)
}

func printNone(what string) {
	_, _ = color.New(color.Faint, color.Italic).Printf(" no %s\n", what)
}

func truncateID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// resolveTask finds the task on date whose id equals or starts with ref.
// Short prefixes copied from list output are the usual input.
func resolveTask(ctx context.Context, cl *client.Client, date, ref string) (*api.TaskView, error) {
	tasks, err := cl.Tasks(ctx, date)
	if err != nil {
		return nil, err
	}
	var match *api.TaskView
	for i := range tasks {
		t := &tasks[i]
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("task id %q is ambiguous on %s", ref, date)
			}
			match = t
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no task %q on %s", ref, date)
	}
	return match, nil
}

// resolveGoal finds the goal in list whose id equals or starts with ref.
func resolveGoal(list *api.GoalList, ref string) (*models.Goal, error) {
	var match *models.Goal
	for i := range list.Goals {
		g := &list.Goals[i]
		if g.ID == ref {
			return g, nil
		}
		if strings.HasPrefix(g.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("goal id %q is ambiguous", ref)
			}
			match = g
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no %s goal %q", list.Type, ref)
	}
	return match, nil
}
