package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/nicolog/internal/auth"
	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/report"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's urges and the time since the last cigarette",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	user, st := requireEntries(cmd.Context())
	printStatus(os.Stdout, *user, st.All(), time.Now())
	return nil
}

func printStatus(w io.Writer, user auth.User, entries []model.Entry, now time.Time) {
	today := report.Today(entries, now)
	fmt.Fprintf(w, "Signed in as %s (%s)\n", user.Name, user.Provider())
	fmt.Fprintf(w, "Today: %d urges, %d smoked, %d resisted.\n", today.Total, today.Smoked, today.Resisted)

	recent := report.RecentSmoked(entries, 1)
	if len(recent) == 0 {
		fmt.Fprintln(w, "No cigarettes logged yet.")
		return
	}
	elapsed := int64(now.Sub(recent[0].Timestamp).Seconds())
	fmt.Fprintf(w, "Last cigarette: %s ago (%s).\n",
		formatElapsed(elapsed), recent[0].Timestamp.Format("2006-01-02 15:04"))
}

func formatElapsed(seconds int64) string {
	d := seconds / 86400
	h := (seconds % 86400) / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if d > 0 {
		return fmt.Sprintf("%dd %dh %dm", d, h, m)
	}
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
