package cmd

import (
	"context"

	"github.com/droptoken/etl/pkg/executor"
	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/warehouse"
	"github.com/urfave/cli/v2"
)

func ResetCmd() *cli.Command {
	return &cli.Command{
		Name:  "reset",
		Usage: "empty every stage, error and prepared table",
		Action: func(c *cli.Context) error {
			cfg, l, closer, err := loadConfigAndLogger(c)
			if err != nil {
				printError(err, "", "Failed to reset the warehouse")
				return cli.Exit("", 1)
			}
			defer closer() //nolint:errcheck

			r := ResetCommand{
				connect:        postgres.NewConnector(cfg.PostgresConfig()),
				logger:         l,
				errorPrinter:   errorPrinter,
				successPrinter: successPrinter,
			}

			return r.Run(c.Context)
		},
	}
}

type ResetCommand struct {
	connect postgres.Connector
	logger  logger.Logger

	errorPrinter   printer
	successPrinter printer
}

func (r *ResetCommand) Run(ctx context.Context) error {
	err := inTransaction(ctx, r.connect, r.logger, executor.Step{
		Name:     "empty all tables",
		Operator: executor.OperatorFunc(warehouse.EmptyAllTables),
	})
	if err != nil {
		r.logger.Errorf("There was a database error. %v", err)
		r.errorPrinter.Printf("Failed to empty the warehouse tables: %v\n", err)
		return cli.Exit("", 1)
	}

	r.successPrinter.Printf("Emptied %d tables.\n", len(warehouse.AllTables))
	return nil
}
