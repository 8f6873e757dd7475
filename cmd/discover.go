package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/mining-intel/internal/model"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Search the web for mining projects",
	Long:  "Generates diversified search queries, scrapes the relevant results, extracts up to several projects per document, and saves the deduplicated projects.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, modeDiscover, nil)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Runner.Execute(ctx, model.RunKindDiscover, env.Discover.Run)
		formatResults(os.Stdout, run.Results)
		return err
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
