package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

// Querier is the subset of a connection or transaction the pipeline stages need.
// Both *pgx.Conn and pgx.Tx satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Conn is a single database connection.
type Conn interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Client struct {
	connection Conn
	config     Config
}

type QueryResult struct {
	Columns []string
	Rows    [][]interface{}
}

// Connect opens exactly one connection; every stage of a pipeline run shares it.
func Connect(ctx context.Context, c Config) (*Client, error) {
	conn, err := pgx.Connect(ctx, c.ToDBConnectionURI())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to database '%s' on %s:%d", c.Database, c.Host, c.Port)
	}

	return &Client{connection: conn, config: c}, nil
}

func NewClient(conn Conn, c Config) *Client {
	return &Client{connection: conn, config: c}
}

func (c *Client) Begin(ctx context.Context) (pgx.Tx, error) {
	return c.connection.Begin(ctx)
}

func (c *Client) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return c.connection.Exec(ctx, sql, arguments...)
}

func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.connection.Query(ctx, sql, args...)
}

func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.connection.QueryRow(ctx, sql, args...)
}

func (c *Client) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return c.connection.CopyFrom(ctx, tableName, columnNames, rowSrc)
}

// Close releases the connection. Uncommitted work is discarded by the server.
func (c *Client) Close(ctx context.Context) error {
	return c.connection.Close(ctx)
}

func (c *Client) Ping(ctx context.Context) error {
	err := c.connection.Ping(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to ping the Postgres connection")
	}

	return nil
}

// SelectWithSchema returns the column names along with every row's values.
func SelectWithSchema(ctx context.Context, q Querier, sql string, args ...any) (*QueryResult, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	fieldDescriptions := rows.FieldDescriptions()
	if fieldDescriptions == nil {
		return nil, errors.New("field descriptions are not available")
	}

	columns := make([]string, len(fieldDescriptions))
	for i, field := range fieldDescriptions {
		columns[i] = field.Name
	}

	collectedRows, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]interface{}, error) {
		return row.Values()
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to collect row values")
	}

	return &QueryResult{
		Columns: columns,
		Rows:    collectedRows,
	}, nil
}

// SelectCount runs a query that returns a single integer.
func SelectCount(ctx context.Context, q Querier, sql string, args ...any) (int64, error) {
	var count int64
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to read count")
	}

	return count, nil
}

// Connector opens the connection a pipeline run holds for its whole lifetime.
type Connector func(ctx context.Context) (*Client, error)

func NewConnector(c Config) Connector {
	return func(ctx context.Context) (*Client, error) {
		return Connect(ctx, c)
	}
}
