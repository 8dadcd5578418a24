package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Womackv3/osrs-checklist-app-sub000/cmd/journal/cmd"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/config"
	"github.com/Womackv3/osrs-checklist-app-sub000/internal/logger"
)

func main() {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:           "journal",
		Short:         "Track OSRS quest, diary and skill goals",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			cfg := config.Load()
			logger.InitCLI(os.Stderr, verbose || cfg.Verbose(), cfg.SentryDSN)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")
	rootCmd.PersistentFlags().Bool("json", false, "print JSON instead of text")

	rootCmd.AddCommand(cmd.GoalsCmd())
	rootCmd.AddCommand(cmd.QuestCmd())
	rootCmd.AddCommand(cmd.DiaryCmd())
	rootCmd.AddCommand(cmd.ProgressCmd())
	rootCmd.AddCommand(cmd.RequirementsCmd())
	rootCmd.AddCommand(cmd.StepsCmd())
	rootCmd.AddCommand(cmd.LookupCmd())
	rootCmd.AddCommand(cmd.GroupCmd())
	rootCmd.AddCommand(cmd.CollectionLogCmd())
	rootCmd.AddCommand(cmd.NotesCmd())
	rootCmd.AddCommand(cmd.SignInCmd())
	rootCmd.AddCommand(cmd.SignOutCmd())
	rootCmd.AddCommand(cmd.WatchCmd())
	rootCmd.AddCommand(cmd.TokenCmd())
	rootCmd.AddCommand(cmd.DBCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
