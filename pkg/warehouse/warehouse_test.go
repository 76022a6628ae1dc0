package warehouse

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/droptoken/etl/pkg/postgres"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxConnIface {
	t.Helper()

	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mock.Close(context.Background()) })
	return mock
}

func TestBootstrap(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	for range schemaStatements {
		mock.ExpectExec("CREATE").WillReturnResult(pgconn.NewCommandTag("CREATE"))
	}

	require.NoError(t, Bootstrap(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBootstrap_StopsOnError(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS stage").WillReturnResult(pgconn.NewCommandTag("CREATE SCHEMA"))
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS prepared").WillReturnError(errors.New("permission denied"))

	err := Bootstrap(context.Background(), mock)
	require.Error(t, err)
	assert.Equal(t, "failed to create the warehouse schema: permission denied", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`TRUNCATE TABLE "prepared"."game_data"`)).WillReturnResult(pgconn.NewCommandTag("TRUNCATE TABLE"))

	require.NoError(t, Truncate(context.Background(), mock, PreparedGameData))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmptyAllTables(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`TRUNCATE TABLE "stage"."game_data", "error"."game_data", "prepared"."game_data", "stage"."player_blobs", "stage"."player_info", "error"."player_info", "prepared"."player_info"`)).
		WillReturnResult(pgconn.NewCommandTag("TRUNCATE TABLE"))

	require.NoError(t, EmptyAllTables(context.Background(), mock))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEmptyAllTables_Error(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	mock.ExpectExec("TRUNCATE TABLE").WillReturnError(errors.New("relation does not exist"))

	err := EmptyAllTables(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to empty the warehouse tables")
}

func TestSummary(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	for i, table := range AllTables {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM " + quoteTable(table))).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(i)))
	}

	counts, err := Summary(context.Background(), mock)
	require.NoError(t, err)
	require.Len(t, counts, len(AllTables))
	assert.Equal(t, TableCount{Table: StageGameData, Rows: 0}, counts[0])
	assert.Equal(t, TableCount{Table: PreparedPlayerInfo, Rows: 6}, counts[6])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReport(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	rows := pgxmock.NewRowsWithColumnDefinition(
		pgconn.FieldDescription{Name: "nationality"},
		pgconn.FieldDescription{Name: "game_count"},
	).AddRow("AU", int64(1)).AddRow("ES", int64(10))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "reporting"."nationality_participation" ORDER BY 1`)).WillReturnRows(rows)

	res, err := Report(context.Background(), mock, "nationality_participation")
	require.NoError(t, err)
	assert.Equal(t, &postgres.QueryResult{
		Columns: []string{"nationality", "game_count"},
		Rows:    [][]interface{}{{"AU", int64(1)}, {"ES", int64(10)}},
	}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReport_UnknownView(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	_, err := Report(context.Background(), mock, "pg_user; DROP TABLE x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaStatements_PlayerIDIsNullable(t *testing.T) {
	t.Parallel()

	// records without an id still qualify on their "data" key
	for _, stmt := range schemaStatements {
		if strings.Contains(stmt, "TABLE IF NOT EXISTS prepared.player_info") || strings.Contains(stmt, "TABLE IF NOT EXISTS error.player_info") {
			assert.Contains(t, stmt, "player_id TEXT,")
			assert.NotContains(t, stmt, "player_id TEXT NOT NULL")
		}
	}
}
