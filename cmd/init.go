package cmd

import (
	"context"

	"github.com/droptoken/etl/pkg/executor"
	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/warehouse"
	"github.com/urfave/cli/v2"
)

func InitCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "create the warehouse schemas, tables and reporting views",
		Action: func(c *cli.Context) error {
			cfg, l, closer, err := loadConfigAndLogger(c)
			if err != nil {
				printError(err, "", "Failed to initialize the warehouse")
				return cli.Exit("", 1)
			}
			defer closer() //nolint:errcheck

			r := InitCommand{
				connect:        postgres.NewConnector(cfg.PostgresConfig()),
				logger:         l,
				errorPrinter:   errorPrinter,
				successPrinter: successPrinter,
			}

			return r.Run(c.Context)
		},
	}
}

type InitCommand struct {
	connect postgres.Connector
	logger  logger.Logger

	errorPrinter   printer
	successPrinter printer
}

func (r *InitCommand) Run(ctx context.Context) error {
	err := inTransaction(ctx, r.connect, r.logger, executor.Step{
		Name:     "bootstrap warehouse",
		Operator: executor.OperatorFunc(warehouse.Bootstrap),
	})
	if err != nil {
		r.logger.Errorf("There was a database error. %v", err)
		r.errorPrinter.Printf("Failed to initialize the warehouse: %v\n", err)
		return cli.Exit("", 1)
	}

	r.successPrinter.Printf("Created %d tables and %d reporting views.\n", len(warehouse.AllTables), len(warehouse.ReportingViews))
	return nil
}
