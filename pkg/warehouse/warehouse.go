// Package warehouse owns the database layout shared by the game and player pipelines.
package warehouse

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/droptoken/etl/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Bootstrap creates the schemas, tables and reporting views.
func Bootstrap(ctx context.Context, q postgres.Querier) error {
	for _, stmt := range schemaStatements {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to create the warehouse schema")
		}
	}

	return nil
}

// Truncate empties a single table.
func Truncate(ctx context.Context, q postgres.Querier, table string) error {
	_, err := q.Exec(ctx, "TRUNCATE TABLE "+quoteTable(table))
	if err != nil {
		return errors.Wrapf(err, "failed to truncate %s", table)
	}

	return nil
}

// EmptyAllTables truncates every stage, error and prepared table of both pipelines in one statement.
func EmptyAllTables(ctx context.Context, q postgres.Querier) error {
	tables := lo.Map(AllTables, func(t string, _ int) string { return quoteTable(t) })

	_, err := q.Exec(ctx, "TRUNCATE TABLE "+strings.Join(tables, ", "))
	if err != nil {
		return errors.Wrap(err, "failed to empty the warehouse tables")
	}

	return nil
}

type TableCount struct {
	Table string
	Rows  int64
}

// Summary returns the row count of every table.
func Summary(ctx context.Context, q postgres.Querier) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(AllTables))
	for _, table := range AllTables {
		n, err := postgres.SelectCount(ctx, q, "SELECT COUNT(*) FROM "+quoteTable(table))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to count rows in %s", table)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}

	return counts, nil
}

// Report returns the contents of one of the reporting views.
func Report(ctx context.Context, q postgres.Querier, view string) (*postgres.QueryResult, error) {
	if !slices.Contains(ReportingViews, view) {
		return nil, errors.Errorf("unknown report '%s', available reports: %v", view, ReportingViews)
	}

	res, err := postgres.SelectWithSchema(ctx, q, fmt.Sprintf("SELECT * FROM %s ORDER BY 1", quoteTable("reporting."+view)))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read report %s", view)
	}

	return res, nil
}

// quoteTable turns "schema.table" into a quoted identifier.
func quoteTable(table string) string {
	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}
