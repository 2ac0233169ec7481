package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	exitUserError    = 1
	exitStorageError = 2
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "nicolog",
	Short: "NicoLog – log smoking urges and see when they hit",
	Long: `nicolog records every craving: how you felt, how strong it was, whether you
waited ten minutes and whether you smoked. Reports show the hours of the day
when urges come and how many you resisted.

Entries are stored as human-readable JSON files in ~/.nicolog/, one file per
day and per account.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute is the entry point called from main.
func Execute() {
	defer func() {
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	}()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.nicolog/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(serveCmd)
}

// exitWith prints err to stderr and exits with code.
func exitWith(code int, err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(code)
}
