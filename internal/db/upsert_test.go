package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertSQL_Postgres(t *testing.T) {
	sql, err := UpsertSQL(UpsertConfig{
		Table:        "runs",
		Columns:      []string{"id", "kind", "status"},
		ConflictKeys: []string{"id"},
	}, Postgres)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "runs" ("id", "kind", "status") VALUES ($1, $2, $3) ON CONFLICT ("id") DO UPDATE SET "kind" = EXCLUDED."kind", "status" = EXCLUDED."status"`,
		sql)
}

func TestUpsertSQL_SQLiteExplicitUpdateCols(t *testing.T) {
	sql, err := UpsertSQL(UpsertConfig{
		Table:        "runs",
		Columns:      []string{"id", "kind", "status"},
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"status"},
	}, SQLite)
	require.NoError(t, err)
	assert.Equal(t,
		`INSERT INTO "runs" ("id", "kind", "status") VALUES (?, ?, ?) ON CONFLICT ("id") DO UPDATE SET "status" = EXCLUDED."status"`,
		sql)
}

func TestUpsertSQL_OnlyKeys(t *testing.T) {
	sql, err := UpsertSQL(UpsertConfig{
		Table:        "seen",
		Columns:      []string{"url"},
		ConflictKeys: []string{"url"},
	}, Postgres)
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "seen" ("url") VALUES ($1) ON CONFLICT ("url") DO NOTHING`, sql)
}

func TestUpsertSQL_NoColumns(t *testing.T) {
	_, err := UpsertSQL(UpsertConfig{Table: "runs", ConflictKeys: []string{"id"}}, Postgres)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestUpsertSQL_NoConflictKeys(t *testing.T) {
	_, err := UpsertSQL(UpsertConfig{Table: "runs", Columns: []string{"id"}}, SQLite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", `"simple"`},
		{"mining.projects", `"mining"."projects"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeTable(tt.input))
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	assert.Equal(t, `"id", "name", "value"`, quoteAndJoin([]string{"id", "name", "value"}))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$3, $4", Postgres.Placeholders(3, 2))
	assert.Equal(t, "?, ?, ?", SQLite.Placeholders(1, 3))
	assert.Empty(t, SQLite.Placeholders(1, 0))
}
