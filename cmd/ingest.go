package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/mining-intel/internal/model"
)

var ingestSources []string

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Collect and process documents from the configured sources",
	Long:  "Fetches the document list of every configured source (SEC EDGAR, RSS feeds, listing pages, site searches), then scrapes, extracts and saves one project per document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, modeIngest, ingestSources)
		if err != nil {
			return err
		}
		defer env.Close()

		run, err := env.Runner.Execute(ctx, model.RunKindIngest, env.Ingest.Run)
		formatResults(os.Stdout, run.Results)
		return err
	},
}

func init() {
	ingestCmd.Flags().StringSliceVar(&ingestSources, "source", nil, "only ingest the named sources (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}
