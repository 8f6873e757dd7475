package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sells-group/mining-intel/internal/model"
)

// formatResults writes per-source outcomes followed by their errors.
func formatResults(out io.Writer, results []model.ScrapingResult) {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(out, "No documents found.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SOURCE\tDOCUMENTS\tCREATED\tUPDATED\tERRORS")
	_, _ = fmt.Fprintln(w, "------\t---------\t-------\t-------\t------")

	var total model.ScrapingResult
	for _, r := range results {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
			r.Source, r.DocumentsFound, r.ProjectsCreated, r.ProjectsUpdated, len(r.Errors))
		total.DocumentsFound += r.DocumentsFound
		total.ProjectsCreated += r.ProjectsCreated
		total.ProjectsUpdated += r.ProjectsUpdated
		total.Errors = append(total.Errors, r.Errors...)
	}
	if len(results) > 1 {
		_, _ = fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\n",
			total.DocumentsFound, total.ProjectsCreated, total.ProjectsUpdated, len(total.Errors))
	}
	_ = w.Flush()

	for _, r := range results {
		for _, e := range r.Errors {
			_, _ = fmt.Fprintf(out, "  %s: %s\n", r.Source, e)
		}
	}
}
