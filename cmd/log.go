package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Tiliavir/nicolog/internal/model"
	"github.com/Tiliavir/nicolog/internal/report"
	"github.com/Tiliavir/nicolog/internal/timecalc"
)

var (
	logMood    int
	logUrgency int
	logWaited  bool
	logSmoked  bool
	logSpecial bool
	logNotes   string
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Log an urge to smoke",
	Long: `Log an urge right now. Rate your mood and how strong the urge is from 1 to 10,
and say whether you waited ten minutes and whether you smoked in the end.`,
	Example: `  nicolog log --mood 4 --urgency 8 --waited
  nicolog log --urgency 9 --smoked --notes "after coffee"`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

func init() {
	logCmd.Flags().IntVar(&logMood, "mood", 5, "Mood from 1 (awful) to 10 (great)")
	logCmd.Flags().IntVar(&logUrgency, "urgency", 5, "Urgency from 1 (barely) to 10 (overwhelming)")
	logCmd.Flags().BoolVar(&logWaited, "waited", false, "You waited ten minutes before deciding")
	logCmd.Flags().BoolVar(&logSmoked, "smoked", false, "You smoked")
	logCmd.Flags().BoolVar(&logSpecial, "special", false, "Mark a special situation (party, stress, ...)")
	logCmd.Flags().StringVar(&logNotes, "notes", "", "Optional notes")
}

func runLog(cmd *cobra.Command, args []string) error {
	user, st := requireEntries(cmd.Context())
	now := time.Now()

	entry := model.Entry{
		ID:               timecalc.GenerateID(now),
		Timestamp:        now,
		Mood:             logMood,
		Urgency:          logUrgency,
		WaitedTenMinutes: logWaited,
		Smoked:           logSmoked,
		IsSpecial:        logSpecial,
		Notes:            logNotes,
	}
	if err := entry.Validate(); err != nil {
		exitWith(exitUserError, err)
	}
	if err := st.Append(entry); err != nil {
		exitWith(exitStorageError, err)
	}
	app.logger.Debug("entry logged", zap.String("user_id", user.ID), zap.String("entry_id", entry.ID))

	printLogged(os.Stdout, entry, report.Today(st.All(), now))
	return nil
}

func printLogged(w io.Writer, e model.Entry, today report.TodaySummary) {
	outcome := "resisted"
	if e.Smoked {
		outcome = "smoked"
	}
	fmt.Fprintf(w, "Logged urge at %s (mood %d, urgency %d) – %s.\n",
		e.Timestamp.Format("15:04"), e.Mood, e.Urgency, outcome)
	fmt.Fprintf(w, "Today: %d urges, %d smoked, %d resisted.\n", today.Total, today.Smoked, today.Resisted)
}
