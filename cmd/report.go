package cmd

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/warehouse"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
)

func ReportCmd() *cli.Command {
	return &cli.Command{
		Name:      "report",
		Usage:     "render one of the reporting views",
		ArgsUsage: "[" + strings.Join(warehouse.ReportingViews, "|") + "]",
		Action: func(c *cli.Context) error {
			view := c.Args().Get(0)
			if view == "" {
				errorPrinter.Printf("A view name is required, possible values are: %s\n", strings.Join(warehouse.ReportingViews, ", "))
				return cli.Exit("", 1)
			}

			cfg, l, closer, err := loadConfigAndLogger(c)
			if err != nil {
				printError(err, "", "Failed to run the report")
				return cli.Exit("", 1)
			}
			defer closer() //nolint:errcheck

			r := ReportCommand{
				connect:      postgres.NewConnector(cfg.PostgresConfig()),
				logger:       l,
				out:          os.Stdout,
				errorPrinter: errorPrinter,
			}
			return r.Report(c.Context, view)
		},
	}
}

func SummaryCmd() *cli.Command {
	return &cli.Command{
		Name:  "summary",
		Usage: "show the row count of every warehouse table",
		Action: func(c *cli.Context) error {
			cfg, l, closer, err := loadConfigAndLogger(c)
			if err != nil {
				printError(err, "", "Failed to summarize the warehouse")
				return cli.Exit("", 1)
			}
			defer closer() //nolint:errcheck

			r := ReportCommand{
				connect:      postgres.NewConnector(cfg.PostgresConfig()),
				logger:       l,
				out:          os.Stdout,
				errorPrinter: errorPrinter,
			}
			return r.Summary(c.Context)
		},
	}
}

type ReportCommand struct {
	connect postgres.Connector
	logger  logger.Logger
	out     io.Writer

	errorPrinter printer
}

func (r *ReportCommand) withClient(ctx context.Context, fn func(db *postgres.Client) error) error {
	db, err := r.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(ctx); err != nil {
			r.logger.Errorf("failed to close the database connection: %v", err)
		}
	}()

	return fn(db)
}

func (r *ReportCommand) Report(ctx context.Context, view string) error {
	err := r.withClient(ctx, func(db *postgres.Client) error {
		res, err := warehouse.Report(ctx, db, view)
		if err != nil {
			return err
		}
		printTable(r.out, res.Columns, res.Rows)
		return nil
	})
	if err != nil {
		r.logger.Errorf("There was a database error. %v", err)
		r.errorPrinter.Printf("Failed to render the report '%s': %v\n", view, err)
		return cli.Exit("", 1)
	}

	return nil
}

func (r *ReportCommand) Summary(ctx context.Context) error {
	err := r.withClient(ctx, func(db *postgres.Client) error {
		counts, err := warehouse.Summary(ctx, db)
		if err != nil {
			return errors.Wrap(err, "failed to count the warehouse tables")
		}

		rows := lo.Map(counts, func(tc warehouse.TableCount, _ int) []interface{} {
			return []interface{}{tc.Table, tc.Rows}
		})
		printTable(r.out, []string{"table", "rows"}, rows)
		return nil
	})
	if err != nil {
		r.logger.Errorf("There was a database error. %v", err)
		r.errorPrinter.Printf("Failed to summarize the warehouse: %v\n", err)
		return cli.Exit("", 1)
	}

	return nil
}
