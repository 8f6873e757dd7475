package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/mining-intel/internal/db"
	"github.com/sells-group/mining-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newPostgresStore(pool), nil
}

func newPostgresStore(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

const postgresMigration = `
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
	metrics           JSONB NOT NULL,
	defaulted_fields  JSONB NOT NULL DEFAULT '[]',
	source_url        TEXT NOT NULL DEFAULT '',
	report_type       TEXT NOT NULL DEFAULT '',
	data_source       TEXT NOT NULL DEFAULT '',
	jurisdiction_risk TEXT NOT NULL DEFAULT 'Medium',
	esg_score         TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (name_key, company_key)
);

CREATE INDEX IF NOT EXISTS idx_projects_commodity ON projects(commodity);
CREATE INDEX IF NOT EXISTS idx_projects_stage ON projects(stage);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL,
	results     JSONB NOT NULL DEFAULT '[]',
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_kind_status ON runs(kind, status);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// FindByNameAndCompany implements ProjectStore.
func (s *PostgresStore) FindByNameAndCompany(ctx context.Context, name, company string) (*model.StoredProject, error) {
	row := s.pool.QueryRow(ctx, findProjectSQL(db.Postgres), projectKey(name), projectKey(company))
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find project %q / %q", name, company)
	}
	return p, nil
}

// Create implements ProjectStore.
func (s *PostgresStore) Create(ctx context.Context, p model.EnrichedProject) (string, error) {
	vals, err := projectValues(p)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	now := s.now().UTC()

	args := append([]any{id}, vals...)
	args = append(args, now, now)
	tag, err := s.pool.Exec(ctx, insertProjectSQL(db.Postgres), args...)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert project")
	}
	if tag.RowsAffected() == 0 {
		return "", eris.Wrapf(ErrDuplicate, "postgres: %s / %s", p.Name, p.Company)
	}
	return id, nil
}

// Update implements ProjectStore.
func (s *PostgresStore) Update(ctx context.Context, id string, p model.EnrichedProject) error {
	vals, err := projectValues(p)
	if err != nil {
		return err
	}
	args := append(vals, s.now().UTC(), id)
	tag, err := s.pool.Exec(ctx, updateProjectSQL(db.Postgres), args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update project %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update project %s", id)
	}
	return nil
}

// SaveRun implements RunStore. Saving an existing run ID overwrites it.
func (s *PostgresStore) SaveRun(ctx context.Context, run model.Run) error {
	query, err := saveRunSQL(db.Postgres)
	if err != nil {
		return err
	}
	args, err := runValues(run)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return eris.Wrapf(err, "postgres: save run %s", run.ID)
	}
	return nil
}

// ListRuns implements RunStore, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query, args := listRunsSQL(db.Postgres, filter)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var results []byte
		if err := rows.Scan(&r.ID, &r.Kind, &r.Status, &results, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if err := decodeRunResults(&r, results); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
