package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/fentz26/daylog/internal/daylog"
	"github.com/fentz26/daylog/internal/stats"
	"github.com/fentz26/daylog/internal/timeline"
)

var statsCmd = &cobra.Command{
	Use:   "stats [daily|weekly|monthly|month|year]",
	Short: "Show tracked time per category",
	Long: `Aggregates tracked time per category. daily, weekly and monthly are the
last 1, 7 and 30 days; month and year are calendar ranges selected with
--month and --year.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{stats.RangeDaily, stats.RangeWeekly, stats.RangeMonthly, stats.RangeMonth, stats.RangeYear},
	RunE:      runStats,
}

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Show a day's tracked sessions in time order",
	Args:  cobra.NoArgs,
	RunE:  runTimeline,
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List days that have tasks",
	Args:  cobra.NoArgs,
	RunE:  runDates,
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show a day's activity journal",
	Args:  cobra.NoArgs,
	RunE:  runActivity,
}

var (
	statsYear  int
	statsMonth int
	reportDate string
)

const stripColumns = 48

func init() {
	statsCmd.Flags().IntVar(&statsYear, "year", 0, "Calendar year for month/year ranges (default: current)")
	statsCmd.Flags().IntVar(&statsMonth, "month", 0, "Calendar month 1-12 for the month range (default: current)")
	timelineCmd.Flags().StringVarP(&reportDate, "date", "d", "today", "Day as YYYY-MM-DD or 'today'")
	activityCmd.Flags().StringVarP(&reportDate, "date", "d", "today", "Day as YYYY-MM-DD or 'today'")
}

func runStats(cmd *cobra.Command, args []string) error {
	rng := stats.RangeDaily
	if len(args) == 1 {
		rng = args[0]
	}
	cl, err := newClient()
	if err != nil {
		return err
	}
	report, err := cl.Stats(cmd.Context(), rng, statsYear, statsMonth)
	if err != nil {
		return err
	}

	_, _ = titleColor.Printf("%s stats", report.Range)
	_, _ = faintColor.Printf(" %s .. %s\n", report.From, report.To)
	if report.Total == 0 {
		printNone("tracked time")
		return nil
	}

	tbl := newTable()
	for _, row := range report.Rows {
		pct := float64(row.Seconds) / float64(report.Total) * 100
		tbl.AddRow(swatch(row.Color)+" "+row.Name, stats.FormatDuration(row.Seconds), fmt.Sprintf("%5.1f%%", pct))
	}
	printTable(tbl)
	_, _ = faintColor.Printf("Total %s\n", stats.FormatDuration(report.Total))
	return nil
}

func swatch(hex string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(hex)).Render("■")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	blocks, err := cl.Timeline(cmd.Context(), reportDate)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		printNone("sessions")
		return nil
	}

	date := reportDate
	if date == "today" || date == "" {
		date = daylog.DateKey(time.Now())
	}
	dayStart, _, err := daylog.DayBounds(date)
	if err != nil {
		return err
	}

	_, _ = titleColor.Println(date)
	fmt.Println(renderStrip(blocks, dayStart, stripColumns))
	_, _ = faintColor.Println("00:00" + strings.Repeat(" ", stripColumns-10) + "23:59")
	fmt.Println()

	tbl := newTable()
	for _, b := range blocks {
		span := b.Start.Local().Format("15:04") + "-" + b.End.Local().Format("15:04")
		dur := stats.FormatShort(int64(b.Duration() / time.Second))
		if b.Running {
			dur = runningColor.Sprint(dur + " ▶")
		}
		tbl.AddRow(span, dur, swatch(b.Color)+" "+b.Category, b.Text)
	}
	printTable(tbl)
	return nil
}

// renderStrip draws the day as cols cells, each colored by the last block
// covering it.
func renderStrip(blocks []timeline.Block, dayStart time.Time, cols int) string {
	cells := make([]string, cols)
	for i := range cells {
		cells[i] = "·"
	}
	for _, b := range blocks {
		from := int(timeline.Position(b.Start, dayStart) / 100 * float64(cols))
		to := int(timeline.Position(b.End, dayStart) / 100 * float64(cols))
		if to == from {
			to = from + 1
		}
		for i := from; i < to && i < cols; i++ {
			cells[i] = swatch(b.Color)
		}
	}
	return strings.Join(cells, "")
}

func runDates(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	dates, err := cl.Dates(cmd.Context())
	if err != nil {
		return err
	}
	if len(dates) == 0 {
		printNone("days")
		return nil
	}
	tbl := newTable()
	for _, d := range dates {
		t, err := daylog.ParseDateKey(d)
		if err != nil {
			continue
		}
		tbl.AddRow(d, t.Format("Monday"), faintColor.Sprint(humanize.Time(t)))
	}
	printTable(tbl)
	return nil
}

func runActivity(cmd *cobra.Command, args []string) error {
	cl, err := newClient()
	if err != nil {
		return err
	}
	entries, err := cl.Activity(cmd.Context(), reportDate)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printNone("activity")
		return nil
	}
	tbl := newTable()
	tbl.AddRow("TIME", "ACTION", "OUTCOME", "TASK", "DETAILS")
	for _, e := range entries {
		tbl.AddRow(e.Timestamp.Local().Format("15:04:05"), e.Action, e.Outcome, truncateID(e.TaskID), e.Details)
	}
	printTable(tbl)
	return nil
}
