// Package upsert builds dialect-specific insert-or-update SQL.
//
// Every persisted crawl record is written idempotently: re-crawling a
// page must converge on the same rows. Postgres expresses this as
// INSERT ... ON CONFLICT DO UPDATE, MySQL as INSERT ... ON DUPLICATE
// KEY UPDATE; the strategies here hide that difference from the
// stores.
package upsert

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/mysql"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
)

var validName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Strategy renders one multi-row upsert statement. conflictColumns name
// the unique key; updateColumns name the columns the caller is
// authoritative for on conflict. An empty updateColumns list renders an
// insert that ignores duplicates.
type Strategy interface {
	Build(table string, rows []goqu.Record, conflictColumns, updateColumns []string) (sql string, args []any, err error)
	Dialect() goqu.DialectWrapper
}

// ForDialect returns the strategy for the named SQL dialect. The empty
// string defaults to postgres.
func ForDialect(name string) (Strategy, error) {
	switch name {
	case "", "postgres", "postgresql":
		return &postgresStrategy{dialect: goqu.Dialect("postgres")}, nil
	case "mysql":
		return &mysqlStrategy{dialect: goqu.Dialect("mysql")}, nil
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", name)
	}
}

type postgresStrategy struct {
	dialect goqu.DialectWrapper
}

func (s *postgresStrategy) Dialect() goqu.DialectWrapper {
	return s.dialect
}

func (s *postgresStrategy) Build(table string, rows []goqu.Record, conflictColumns, updateColumns []string) (string, []any, error) {
	if err := validate(table, rows, conflictColumns); err != nil {
		return "", nil, err
	}
	ds := s.dialect.Insert(table).Prepared(true).Rows(asAny(rows)...)
	if len(updateColumns) == 0 {
		ds = ds.OnConflict(goqu.DoNothing())
	} else {
		update := goqu.Record{}
		for _, col := range updateColumns {
			update[col] = goqu.I("excluded." + col)
		}
		ds = ds.OnConflict(goqu.DoUpdate(strings.Join(conflictColumns, ","), update))
	}
	sql, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("render upsert for %s: %w", table, err)
	}
	return sql, args, nil
}

type mysqlStrategy struct {
	dialect goqu.DialectWrapper
}

func (s *mysqlStrategy) Dialect() goqu.DialectWrapper {
	return s.dialect
}

func (s *mysqlStrategy) Build(table string, rows []goqu.Record, conflictColumns, updateColumns []string) (string, []any, error) {
	if err := validate(table, rows, conflictColumns); err != nil {
		return "", nil, err
	}
	ds := s.dialect.Insert(table).Prepared(true).Rows(asAny(rows)...)
	if len(updateColumns) == 0 {
		ds = ds.OnConflict(goqu.DoNothing())
	} else {
		// MySQL has no EXCLUDED pseudo-table; the incoming value is
		// referenced through VALUES(). The conflict target is implied
		// by the table's unique keys.
		update := goqu.Record{}
		for _, col := range updateColumns {
			update[col] = goqu.L("VALUES(" + col + ")")
		}
		ds = ds.OnConflict(goqu.DoUpdate("", update))
	}
	sql, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("render upsert for %s: %w", table, err)
	}
	return sql, args, nil
}

func validate(table string, rows []goqu.Record, conflictColumns []string) error {
	if !validName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no rows for %s", table)
	}
	if len(conflictColumns) == 0 {
		return fmt.Errorf("no conflict columns for %s", table)
	}
	for _, col := range conflictColumns {
		if !validName.MatchString(col) {
			return fmt.Errorf("invalid column name %q", col)
		}
	}
	return nil
}

func asAny(rows []goqu.Record) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r
	}
	return out
}
