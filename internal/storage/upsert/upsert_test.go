package upsert

import (
	"testing"

	"github.com/doug-martin/goqu/v9"
	"github.com/stretchr/testify/require"
)

func sampleRow() goqu.Record {
	return goqu.Record{
		"stadium_tel_code": 4,
		"date":             "2026-08-31",
		"race_number":      7,
		"title":            "example",
	}
}

func TestPostgresUpsertRendersOnConflict(t *testing.T) {
	t.Parallel()

	strategy, err := ForDialect("postgres")
	require.NoError(t, err)

	sql, args, err := strategy.Build("races", []goqu.Record{sampleRow()},
		[]string{"stadium_tel_code", "date", "race_number"}, []string{"title"})
	require.NoError(t, err)
	require.Contains(t, sql, `INSERT INTO "races"`)
	require.Contains(t, sql, "ON CONFLICT")
	require.Contains(t, sql, "excluded")
	require.Contains(t, sql, "$1")
	require.Len(t, args, 4)
}

func TestPostgresUpsertWithoutUpdateColumnsIgnoresDuplicates(t *testing.T) {
	t.Parallel()

	strategy, err := ForDialect("postgres")
	require.NoError(t, err)

	sql, _, err := strategy.Build("motor_renewals", []goqu.Record{sampleRow()},
		[]string{"stadium_tel_code", "date"}, nil)
	require.NoError(t, err)
	require.Contains(t, sql, "DO NOTHING")
}

func TestMySQLUpsertRendersOnDuplicateKey(t *testing.T) {
	t.Parallel()

	strategy, err := ForDialect("mysql")
	require.NoError(t, err)

	sql, args, err := strategy.Build("races", []goqu.Record{sampleRow()},
		[]string{"stadium_tel_code", "date", "race_number"}, []string{"title"})
	require.NoError(t, err)
	require.Contains(t, sql, "ON DUPLICATE KEY UPDATE")
	require.Contains(t, sql, "VALUES(title)")
	require.Contains(t, sql, "?")
	require.NotContains(t, sql, "$1")
	require.Len(t, args, 4)
}

func TestForDialectRejectsUnknown(t *testing.T) {
	t.Parallel()

	_, err := ForDialect("oracle")
	require.Error(t, err)
}

func TestBuildValidatesInput(t *testing.T) {
	t.Parallel()

	strategy, err := ForDialect("")
	require.NoError(t, err)

	_, _, err = strategy.Build("races; DROP TABLE races", []goqu.Record{sampleRow()}, []string{"date"}, nil)
	require.Error(t, err)

	_, _, err = strategy.Build("races", nil, []string{"date"}, nil)
	require.Error(t, err)

	_, _, err = strategy.Build("races", []goqu.Record{sampleRow()}, nil, nil)
	require.Error(t, err)
}
