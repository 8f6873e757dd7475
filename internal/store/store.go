// Package store persists extracted mining projects and run history in
// Postgres or SQLite.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/db"
	"github.com/sells-group/mining-intel/internal/model"
)

// Store errors.
var (
	// ErrDuplicate is returned by Create when a project with the same name
	// and company (case-insensitive) already exists.
	ErrDuplicate = eris.New("store: project already exists")
	// ErrNotFound is returned by Update for an unknown project ID.
	ErrNotFound = eris.New("store: project not found")
)

// ProjectStore is the keyed project sink used by the pipeline.
type ProjectStore interface {
	// FindByNameAndCompany returns nil, nil when no project matches.
	FindByNameAndCompany(ctx context.Context, name, company string) (*model.StoredProject, error)
	Create(ctx context.Context, p model.EnrichedProject) (string, error)
	Update(ctx context.Context, id string, p model.EnrichedProject) error
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   model.RunKind   `json:"kind,omitempty"`
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
}

// RunStore records pipeline runs.
type RunStore interface {
	SaveRun(ctx context.Context, run model.Run) error
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)
}

// Store is the full persistence interface.
type Store interface {
	ProjectStore
	RunStore

	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the configured backend. It does not migrate.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

const defaultRunLimit = 50

// projectColumns are written by Create, in argument order. Update writes
// all but id and created_at.
var projectColumns = []string{
	"id", "name", "company", "name_key", "company_key",
	"description", "location", "country", "commodity", "stage",
	"metrics", "defaulted_fields", "source_url", "report_type", "data_source",
	"jurisdiction_risk", "esg_score", "created_at", "updated_at",
}

var projectSelectColumns = []string{
	"id", "name", "company", "description", "location", "country", "commodity", "stage",
	"metrics", "defaulted_fields", "source_url", "report_type", "data_source",
	"jurisdiction_risk", "esg_score",
}

var runColumns = []string{"id", "kind", "status", "results", "error", "started_at", "finished_at"}

func projectKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func insertProjectSQL(d db.Dialect) string {
	return fmt.Sprintf(
		"INSERT INTO projects (%s) VALUES (%s) ON CONFLICT (name_key, company_key) DO NOTHING",
		strings.Join(projectColumns, ", "), d.Placeholders(1, len(projectColumns)),
	)
}

func updateProjectSQL(d db.Dialect) string {
	cols := projectColumns[1 : len(projectColumns)-2]
	sets := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, c+" = "+d.Placeholders(i+1, 1))
	}
	n := len(cols)
	sets = append(sets, "updated_at = "+d.Placeholders(n+1, 1))
	return fmt.Sprintf("UPDATE projects SET %s WHERE id = %s", strings.Join(sets, ", "), d.Placeholders(n+2, 1))
}

func findProjectSQL(d db.Dialect) string {
	return fmt.Sprintf(
		"SELECT %s FROM projects WHERE name_key = %s AND company_key = %s",
		strings.Join(projectSelectColumns, ", "), d.Placeholders(1, 1), d.Placeholders(2, 1),
	)
}

func saveRunSQL(d db.Dialect) (string, error) {
	return db.UpsertSQL(db.UpsertConfig{
		Table:        "runs",
		Columns:      runColumns,
		ConflictKeys: []string{"id"},
	}, d)
}

func listRunsSQL(d db.Dialect, filter RunFilter) (string, []any) {
	query := fmt.Sprintf("SELECT %s FROM runs WHERE 1 = 1", strings.Join(runColumns, ", "))
	var args []any
	if filter.Kind != "" {
		args = append(args, string(filter.Kind))
		query += " AND kind = " + d.Placeholders(len(args), 1)
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += " AND status = " + d.Placeholders(len(args), 1)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultRunLimit
	}
	args = append(args, limit)
	query += " ORDER BY started_at DESC LIMIT " + d.Placeholders(len(args), 1)
	return query, args
}

// projectValues returns the mutable column values shared by Create and
// Update, starting at name and ending at esg_score.
func projectValues(p model.EnrichedProject) ([]any, error) {
	metrics, err := json.Marshal(p.Metrics)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal metrics")
	}
	defaulted := p.DefaultedFields
	if defaulted == nil {
		defaulted = []string{}
	}
	defaultedJSON, err := json.Marshal(defaulted)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal defaulted fields")
	}
	return []any{
		p.Name, p.Company, projectKey(p.Name), projectKey(p.Company),
		p.Description, p.Location, p.Country, string(p.Commodity), string(p.Stage),
		metrics, defaultedJSON, p.SourceURL, p.ReportType, p.DataSource,
		string(p.JurisdictionRisk), p.ESGScore,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

// scanProject reads projectSelectColumns.
func scanProject(row scannable) (*model.StoredProject, error) {
	var p model.StoredProject
	var commodity, stage, risk string
	var metricsJSON, defaulted []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Company, &p.Description, &p.Location, &p.Country, &commodity, &stage,
		&metricsJSON, &defaulted, &p.SourceURL, &p.ReportType, &p.DataSource, &risk, &p.ESGScore,
	)
	if err != nil {
		return nil, err
	}
	p.Commodity = model.Commodity(commodity)
	p.Stage = model.Stage(stage)
	p.JurisdictionRisk = model.RiskTier(risk)
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &p.Metrics); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal metrics")
		}
	}
	if len(defaulted) > 0 {
		if err := json.Unmarshal(defaulted, &p.DefaultedFields); err != nil {
			return nil, eris.Wrap(err, "store: unmarshal defaulted fields")
		}
	}
	return &p, nil
}

func runValues(run model.Run) ([]any, error) {
	results := run.Results
	if results == nil {
		results = []model.ScrapingResult{}
	}
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal run results")
	}
	return []any{
		run.ID, string(run.Kind), string(run.Status), resultsJSON, run.Error,
		run.StartedAt.UTC(), run.FinishedAt,
	}, nil
}

func decodeRunResults(run *model.Run, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(data, &run.Results), "store: unmarshal run results")
}
