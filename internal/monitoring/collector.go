// Package monitoring checks recent pipeline runs for failure patterns and
// alerts through a webhook.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/model"
	"github.com/sells-group/mining-intel/internal/store"
)

// maxLookbackRuns bounds how many recent runs one collection reads.
const maxLookbackRuns = 1000

// Snapshot is a point-in-time view of pipeline health over a lookback
// window.
type Snapshot struct {
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	RunFailRate  float64 `json:"run_fail_rate"`

	// Document outcomes across finished runs.
	Documents         int     `json:"documents"`
	DocumentErrors    int     `json:"document_errors"`
	DocumentErrorRate float64 `json:"document_error_rate"`
	ProjectsSaved     int     `json:"projects_saved"`

	// Sources that reported errors but no documents in every run they
	// appeared in.
	FailingSources []string `json:"failing_sources,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector builds snapshots from run history.
type Collector struct {
	runs store.RunStore
	now  func() time.Time
}

// NewCollector creates a Collector.
func NewCollector(runs store.RunStore) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect summarizes the runs started within the last lookbackHours.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{LookbackHours: lookbackHours, CollectedAt: now}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: maxLookbackRuns})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	type sourceHealth struct {
		seen, failing int
	}
	sources := make(map[string]*sourceHealth)
	var order []string

	for _, r := range runs {
		if r.StartedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusFailed:
			snap.RunsFailed++
		default:
			snap.RunsRunning++
			continue
		}

		for _, res := range r.Results {
			snap.Documents += res.DocumentsFound
			snap.ProjectsSaved += res.ProjectsCreated + res.ProjectsUpdated

			h, ok := sources[res.Source]
			if !ok {
				h = &sourceHealth{}
				sources[res.Source] = h
				order = append(order, res.Source)
			}
			h.seen++
			if res.DocumentsFound == 0 && len(res.Errors) > 0 {
				h.failing++
				continue
			}
			snap.DocumentErrors += len(res.Errors)
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.RunFailRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.Documents > 0 {
		snap.DocumentErrorRate = float64(snap.DocumentErrors) / float64(snap.Documents)
	}
	for _, name := range order {
		if h := sources[name]; h.failing == h.seen {
			snap.FailingSources = append(snap.FailingSources, name)
		}
	}
	return snap, nil
}
