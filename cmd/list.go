package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/report"
	"github.com/Tiliavir/nicolog/internal/timecalc"
)

var (
	listToday bool
	listWeek  bool
	listMonth bool
	listDate  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List logged urges",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listToday, "today", false, "Show the day's entries (default)")
	listCmd.Flags().BoolVar(&listWeek, "week", false, "Show the week's entries")
	listCmd.Flags().BoolVar(&listMonth, "month", false, "Show the month's entries")
	listCmd.Flags().StringVar(&listDate, "date", "", "Reference date (YYYY-MM-DD), defaults to today")
	listCmd.MarkFlagsMutuallyExclusive("today", "week", "month")
}

func runList(cmd *cobra.Command, args []string) error {
	ref, err := timecalc.ParseDate(listDate, time.Now())
	if err != nil {
		exitWith(exitUserError, err)
	}
	_, st := requireEntries(cmd.Context())

	w := timecalc.ComputeWindow(ref, granularityFromFlags(listToday, listWeek, listMonth))
	printList(os.Stdout, report.Filter(st.All(), w))
	return nil
}

// granularityFromFlags maps mutually exclusive --day/--week/--month flags,
// defaulting to a day.
func granularityFromFlags(day, week, month bool) timecalc.Granularity {
	switch {
	case week:
		return timecalc.Week
	case month:
		return timecalc.Month
	default:
		return timecalc.Day
	}
}

// printList groups newest-first entries by date and prints them.
func printList(w io.Writer, entries []model.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No entries found.")
		return
	}

	var currentDay string
	for _, e := range entries {
		day := e.Timestamp.Format("2006-01-02")
		if day != currentDay {
			fmt.Fprintln(w, day)
			currentDay = day
		}
		fmt.Fprintln(w, formatEntry(e))
	}
}

func formatEntry(e model.Entry) string {
	outcome := "resisted"
	if e.Smoked {
		outcome = "smoked"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-8s  mood %2d  urgency %2d", e.Timestamp.Format("15:04"), outcome, e.Mood, e.Urgency)
	writeMarkers(&b, e)
	return b.String()
}

// writeMarkers appends the waited and special flags and the notes of e.
func writeMarkers(b *strings.Builder, e model.Entry) {
	if e.WaitedTenMinutes {
		b.WriteString("  waited")
	}
	if e.IsSpecial {
		b.WriteString("  special")
	}
	if e.Notes != "" {
		b.WriteString("  " + strings.ReplaceAll(e.Notes, "\n", " "))
	}
}
