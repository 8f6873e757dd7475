package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/mining-intel/internal/db"
	"github.com/sells-group/mining-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: conn, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	company           TEXT NOT NULL,
	name_key          TEXT NOT NULL,
	company_key       TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	country           TEXT NOT NULL DEFAULT '',
	commodity         TEXT NOT NULL,
	stage             TEXT NOT NULL,
	metrics           TEXT NOT NULL,
	defaulted_fields  TEXT NOT NULL DEFAULT '[]',
	source_url        TEXT NOT NULL DEFAULT '',
	report_type       TEXT NOT NULL DEFAULT '',
	data_source       TEXT NOT NULL DEFAULT '',
	jurisdiction_risk TEXT NOT NULL DEFAULT 'Medium',
	esg_score         TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE (name_key, company_key)
);

CREATE INDEX IF NOT EXISTS idx_projects_commodity ON projects(commodity);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL,
	results     TEXT NOT NULL DEFAULT '[]',
	error       TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate implements Store.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// FindByNameAndCompany implements ProjectStore.
func (s *SQLiteStore) FindByNameAndCompany(ctx context.Context, name, company string) (*model.StoredProject, error) {
	row := s.db.QueryRowContext(ctx, findProjectSQL(db.SQLite), projectKey(name), projectKey(company))
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find project %q / %q", name, company)
	}
	return p, nil
}

// Create implements ProjectStore.
func (s *SQLiteStore) Create(ctx context.Context, p model.EnrichedProject) (string, error) {
	vals, err := projectValues(p)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := s.now().UTC()

	args := append([]any{id}, sqliteArgs(vals)...)
	args = append(args, now, now)
	res, err := s.db.ExecContext(ctx, insertProjectSQL(db.SQLite), args...)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert project")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return "", eris.Wrapf(ErrDuplicate, "sqlite: %s / %s", p.Name, p.Company)
	}
	return id, nil
}

// Update implements ProjectStore.
func (s *SQLiteStore) Update(ctx context.Context, id string, p model.EnrichedProject) error {
	vals, err := projectValues(p)
	if err != nil {
		return err
	}
	args := append(sqliteArgs(vals), s.now().UTC(), id)
	res, err := s.db.ExecContext(ctx, updateProjectSQL(db.SQLite), args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update project %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: update project %s", id)
	}
	return nil
}

// SaveRun implements RunStore. Saving an existing run ID overwrites it.
func (s *SQLiteStore) SaveRun(ctx context.Context, run model.Run) error {
	query, err := saveRunSQL(db.SQLite)
	if err != nil {
		return err
	}
	args, err := runValues(run)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, sqliteArgs(args)...); err != nil {
		return eris.Wrapf(err, "sqlite: save run %s", run.ID)
	}
	return nil
}

// ListRuns implements RunStore, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query, args := listRunsSQL(db.SQLite, filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var results string
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Kind, &r.Status, &results, &r.Error, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		if err := decodeRunResults(&r, []byte(results)); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

// sqliteArgs stores JSON payloads as TEXT so they read back as strings.
func sqliteArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		if b, ok := a.([]byte); ok {
			out[i] = string(b)
			continue
		}
		out[i] = a
	}
	return out
}
