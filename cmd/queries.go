package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/mining-intel/internal/model"
)

var queriesJSON bool

var queriesCmd = &cobra.Command{
	Use:   "queries",
	Short: "Print one set of generated search queries",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(modeQueries); err != nil {
			return err
		}
		d, err := newDiversifier()
		if err != nil {
			return err
		}

		qs := d.Generate()
		if queriesJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(qs)
		}
		formatQueries(os.Stdout, qs)
		return nil
	},
}

func init() {
	queriesCmd.Flags().BoolVar(&queriesJSON, "json", false, "print queries as JSON")
	rootCmd.AddCommand(queriesCmd)
}

// formatQueries writes queries as a table.
func formatQueries(out io.Writer, qs []model.SearchQuery) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "CATEGORY\tCOMMODITY\tQUERY")
	for _, q := range qs {
		commodity := q.Commodity
		if commodity == "" {
			commodity = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", q.Category, commodity, q.Text)
	}
	_ = w.Flush()
}
