package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/Tiliavir/nicolog/internal/report"
	"github.com/Tiliavir/nicolog/internal/timecalc"
)

var (
	reportDay    bool
	reportWeek   bool
	reportMonth  bool
	reportDate   string
	reportPrev   int
	reportNext   int
	reportFormat string
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Bold(true).
			MarginTop(1)

	smokedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	resistedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show urges by hour of day for a day, week or month",
	Example: `  nicolog report --week
  nicolog report --month --prev 1 --format csv`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().BoolVar(&reportDay, "day", false, "Report for a day (default)")
	reportCmd.Flags().BoolVar(&reportWeek, "week", false, "Report for a week (Sunday to Saturday)")
	reportCmd.Flags().BoolVar(&reportMonth, "month", false, "Report for a calendar month")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "Reference date (YYYY-MM-DD), defaults to today")
	reportCmd.Flags().IntVar(&reportPrev, "prev", 0, "Go back N periods")
	reportCmd.Flags().IntVar(&reportNext, "next", 0, "Go forward N periods")
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
	reportCmd.MarkFlagsMutuallyExclusive("day", "week", "month")
	reportCmd.MarkFlagsMutuallyExclusive("prev", "next")
}

func runReport(cmd *cobra.Command, args []string) error {
	ref, err := timecalc.ParseDate(reportDate, time.Now())
	if err != nil {
		exitWith(exitUserError, err)
	}
	if reportPrev < 0 || reportNext < 0 {
		exitWith(exitUserError, fmt.Errorf("--prev and --next take a positive number of periods"))
	}
	if reportFormat != "md" && reportFormat != "csv" && reportFormat != "json" {
		exitWith(exitUserError, fmt.Errorf("unknown format %q (want md, csv or json)", reportFormat))
	}
	_, st := requireEntries(cmd.Context())

	g := granularityFromFlags(reportDay, reportWeek, reportMonth)
	ref = step(ref, g, reportPrev, reportNext)
	r := report.Build(st.All(), ref, g)

	switch reportFormat {
	case "csv":
		writeReportCSV(os.Stdout, r)
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			exitWith(exitStorageError, fmt.Errorf("error encoding JSON: %w", err))
		}
		fmt.Println(string(data))
	default: // md
		writeReportText(os.Stdout, r)
	}
	return nil
}

// step moves ref back prev periods and forward next periods.
func step(ref time.Time, g timecalc.Granularity, prev, next int) time.Time {
	for i := 0; i < prev; i++ {
		ref = timecalc.Navigate(ref, g, timecalc.Previous)
	}
	for i := 0; i < next; i++ {
		ref = timecalc.Navigate(ref, g, timecalc.Next)
	}
	return ref
}

func periodTitle(r report.Report) string {
	switch r.Granularity {
	case timecalc.Week:
		return "Week " + r.Label
	case timecalc.Month:
		return r.Label
	default:
		return r.Window.Start.Format("Monday, ") + r.Label
	}
}

func writeReportText(w io.Writer, r report.Report) {
	fmt.Fprintln(w, headingStyle.Render(periodTitle(r)))
	fmt.Fprintf(w, "%s   %s\n",
		smokedStyle.Render(fmt.Sprintf("Smoked: %d", r.SmokedCount)),
		resistedStyle.Render(fmt.Sprintf("Resisted: %d", r.ResistedCount)))

	fmt.Fprintln(w, sectionStyle.Render("Urges by hour"))
	fmt.Fprintln(w, "Hour   Smoked  Resisted  Mood  Urgency")
	fmt.Fprintln(w, "--------------------------------------")
	for _, b := range r.Hours {
		if b.Total == 0 {
			fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%02d:00  %6s  %8s  %4s  %7s", b.Hour, "-", "-", "-", "-")))
			continue
		}
		fmt.Fprintf(w, "%02d:00  %6d  %8d  %4.1f  %7.1f\n",
			b.Hour, b.SmokedCount, b.ResistedCount, b.AverageMood, b.AverageUrgency)
	}

	fmt.Fprintln(w, sectionStyle.Render("Recent cigarettes"))
	if len(r.RecentSmoked) == 0 {
		fmt.Fprintln(w, "None in this period.")
		return
	}
	for _, e := range r.RecentSmoked {
		var b strings.Builder
		fmt.Fprintf(&b, "%s  mood %2d  urgency %2d", e.Timestamp.Format("2006-01-02 15:04"), e.Mood, e.Urgency)
		writeMarkers(&b, e)
		fmt.Fprintln(w, b.String())
	}
}

func writeReportCSV(w io.Writer, r report.Report) {
	fmt.Fprintln(w, "hour,smoked,resisted,total,average_mood,average_urgency")
	for _, b := range r.Hours {
		fmt.Fprintf(w, "%d,%d,%d,%d,%.2f,%.2f\n",
			b.Hour, b.SmokedCount, b.ResistedCount, b.Total, b.AverageMood, b.AverageUrgency)
	}
}
