package progress

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sells-group/mining-intel/internal/model"
)

// maxRenderedQueries caps how many queries a search-batch message lists.
const maxRenderedQueries = 3

// Render turns a structured event into the message shown to observers.
func Render(ev model.Event) string {
	switch ev.Kind {
	case model.EventRunStarted:
		return "Starting run"
	case model.EventSourceFetching:
		return fmt.Sprintf("Fetching documents from %s", ev.Source)
	case model.EventSourceFetched:
		return fmt.Sprintf("Found %d documents from %s", ev.Documents, ev.Source)
	case model.EventSourceFailed:
		return fmt.Sprintf("Failed to fetch from %s: %s", ev.Source, ev.Error)
	case model.EventSearchBatch:
		q := ev.Queries
		more := ""
		if len(q) > maxRenderedQueries {
			more = fmt.Sprintf(" (+%d more)", len(q)-maxRenderedQueries)
			q = q[:maxRenderedQueries]
		}
		quoted := make([]string, len(q))
		for i, s := range q {
			quoted[i] = strconv.Quote(s)
		}
		return fmt.Sprintf("Searched %s%s, %d documents found so far", strings.Join(quoted, ", "), more, ev.Documents)
	case model.EventProcessingStarted:
		return fmt.Sprintf("Processing %d documents", ev.Documents)
	case model.EventDocumentStarted:
		if ev.Source != "" {
			return fmt.Sprintf("Analyzing %s document: %s", ev.Source, ev.Title)
		}
		return fmt.Sprintf("Analyzing document: %s", ev.Title)
	case model.EventDocumentProcessed:
		if ev.Error != "" {
			return fmt.Sprintf("Failed %s from %s: %s", ev.Title, ev.Source, ev.Error)
		}
		return fmt.Sprintf("Processed %s from %s (%s)", ev.Title, ev.Source, ev.Action)
	case model.EventCandidateAccepted:
		return fmt.Sprintf("Found %s project %s (%s)", ev.Commodity, ev.Project, ev.Stage)
	case model.EventNoDocuments:
		return "No documents found from any source"
	case model.EventRunCompleted:
		return fmt.Sprintf("Completed: %d documents processed, %d projects saved", ev.Documents, ev.Projects)
	case model.EventRunFailed:
		return "Run failed: " + ev.Error
	default:
		return string(ev.Kind)
	}
}
