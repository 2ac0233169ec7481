package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/report"
	"github.com/Tiliavir/nicolog/internal/timecalc"
)

var (
	exportFormat string
	exportWeek   bool
	exportMonth  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export logged urges to stdout",
	Long:  "Export every logged urge, or only this week's or month's, as CSV or JSON.",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv, json")
	exportCmd.Flags().BoolVar(&exportWeek, "week", false, "Only this week's entries")
	exportCmd.Flags().BoolVar(&exportMonth, "month", false, "Only this month's entries")
	exportCmd.MarkFlagsMutuallyExclusive("week", "month")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" {
		exitWith(exitUserError, fmt.Errorf("unknown format %q (want csv or json)", exportFormat))
	}
	_, st := requireEntries(cmd.Context())

	entries := st.All()
	if exportWeek || exportMonth {
		entries = report.Filter(entries, timecalc.ComputeWindow(time.Now(), granularityFromFlags(false, exportWeek, exportMonth)))
	}

	switch exportFormat {
	case "json":
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			exitWith(exitStorageError, fmt.Errorf("error encoding JSON: %w", err))
		}
		fmt.Println(string(data))
	default: // csv
		printCSV(os.Stdout, entries)
	}
	return nil
}

func printCSV(w io.Writer, entries []model.Entry) {
	fmt.Fprintln(w, "id,timestamp,mood,urgency,waited_ten_minutes,smoked,is_special,notes")
	for _, e := range entries {
		fmt.Fprintf(w, "%s,%s,%d,%d,%s,%s,%s,%s\n",
			csvEscape(e.ID),
			csvEscape(e.Timestamp.Format(time.RFC3339)),
			e.Mood,
			e.Urgency,
			strconv.FormatBool(e.WaitedTenMinutes),
			strconv.FormatBool(e.Smoked),
			strconv.FormatBool(e.IsSpecial),
			csvEscape(e.Notes),
		)
	}
}

// csvEscape wraps a field in quotes if it contains a comma, quote, or newline.
func csvEscape(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
