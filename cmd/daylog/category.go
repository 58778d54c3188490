package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Manage categories used to group tracked time",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add [name...]",
	Short: "Add a category",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCategoryAdd,
}

var categoryListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List categories",
	Args:    cobra.NoArgs,
	RunE:    runCategoryList,
}

var categoryRmCmd = &cobra.Command{
	Use:     "rm [name-or-id]",
	Aliases: []string{"delete"},
	Short:   "Delete a category; tasks keep the dangling reference",
	Args:    cobra.ExactArgs(1),
	RunE:    runCategoryRm,
}

var categoryColor string

func init() {
	categoryCmd.AddCommand(categoryAddCmd, categoryListCmd, categoryRmCmd)
	categoryAddCmd.Flags().StringVar(&categoryColor, "color", "", "Hex color like #3b82f6 (default: next palette color)")
}

func runCategoryAdd(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	c, err := cl.AddCategory(cmd.Context(), strings.Join(args, " "), categoryColor)
	if err != nil {
		return err
	}
	fmt.Printf("Added category %s (%s)\n", c.Name, c.Color)
	return nil
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	cats, err := cl.Categories(cmd.Context())
	if err != nil {
		return err
	}
	if len(cats) == 0 {
		printNone("categories")
		return nil
	}
	tbl := newTable()
	tbl.AddRow("ID", "NAME", "COLOR")
	for _, c := range cats {
		tbl.AddRow(idColor.Sprint(truncateID(c.ID)), c.Name, c.Color)
	}
	printTable(tbl)
	return nil
}

func runCategoryRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cl, err := newClient()
	if err != nil {
		return err
	}
	id, err := categoryID(ctx, cl, args[0])
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("no category %q", args[0])
	}
	if err := cl.DeleteCategory(ctx, id); err != nil {
		return err
	}
	fmt.Printf("Deleted category %s\n", args[0])
	return nil
}
