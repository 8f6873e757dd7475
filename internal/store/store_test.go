package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/mining-intel/internal/config"
	"github.com/sells-group/mining-intel/internal/db"
	"github.com/sells-group/mining-intel/internal/model"
)

func sampleProject() model.EnrichedProject {
	return model.EnrichedProject{
		Name:        "Thacker Pass",
		Company:     "Lithium Americas",
		Description: "Claystone lithium project",
		Location:    "Nevada, USA",
		Country:     "USA",
		Commodity:   model.CommodityLithium,
		Stage:       model.StageConstruction,
		Metrics: model.Metrics{
			NPVUSDM: 5700, IRRPct: 21.4, CapexUSDM: 2930, AISCUSD: 6200,
			AnnualProduction: 40000, MineLifeYears: 40, PaybackYears: 4.1, ResourceTonnageMt: 217,
		},
		DefaultedFields:  []string{"payback_years"},
		SourceURL:        "https://www.sec.gov/Archives/edgar/data/1966983/000119312526101234/ex991.htm",
		ReportType:       "sec-filing",
		DataSource:       "sec-edgar",
		JurisdictionRisk: model.RiskLow,
		ESGScore:         "B",
	}
}

func TestProjectKey(t *testing.T) {
	assert.Equal(t, "thacker pass", projectKey("  Thacker PASS "))
}

func TestInsertProjectSQL(t *testing.T) {
	q := insertProjectSQL(db.SQLite)
	assert.Contains(t, q, "INSERT INTO projects (id, name, company, name_key")
	assert.Contains(t, q, "ON CONFLICT (name_key, company_key) DO NOTHING")

	q = insertProjectSQL(db.Postgres)
	assert.Contains(t, q, "$19)")
}

func TestUpdateProjectSQL(t *testing.T) {
	q := updateProjectSQL(db.Postgres)
	assert.Contains(t, q, "UPDATE projects SET name = $1, company = $2")
	assert.Contains(t, q, "esg_score = $16, updated_at = $17 WHERE id = $18")
	assert.NotContains(t, q, "created_at")
}

func TestListRunsSQL(t *testing.T) {
	q, args := listRunsSQL(db.Postgres, RunFilter{Kind: model.RunKindIngest, Status: model.RunStatusFailed, Limit: 5})
	assert.Contains(t, q, "AND kind = $1 AND status = $2 ORDER BY started_at DESC LIMIT $3")
	assert.Equal(t, []any{"ingest", "failed", 5}, args)

	q, args = listRunsSQL(db.SQLite, RunFilter{})
	assert.Contains(t, q, "WHERE 1 = 1 ORDER BY started_at DESC LIMIT ?")
	assert.Equal(t, []any{defaultRunLimit}, args)
}

func TestProjectValues(t *testing.T) {
	p := sampleProject()
	p.DefaultedFields = nil
	vals, err := projectValues(p)
	require.NoError(t, err)
	require.Len(t, vals, len(projectColumns)-3)
	assert.Equal(t, "thacker pass", vals[2])
	assert.Equal(t, "lithium americas", vals[3])
	assert.JSONEq(t, `[]`, string(vals[10].([]byte)))
}

func TestSQLiteArgs(t *testing.T) {
	out := sqliteArgs([]any{[]byte(`{"a":1}`), 3, "x"})
	assert.Equal(t, []any{`{"a":1}`, 3, "x"}, out)
}

func TestOpen(t *testing.T) {
	st, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite", DatabaseURL: t.TempDir() + "/open.db"})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, st)
	require.NoError(t, st.Close())

	_, err = Open(context.Background(), config.StoreConfig{Driver: "mysql"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "mysql"`)
}
