package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"runtime/debug"

	"github.com/droptoken/etl/pkg/config"
	"github.com/droptoken/etl/pkg/executor"
	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func RecoverFromPanic() {
	if err := recover(); err != nil {
		log.Println("=======================================")
		log.Println("droptoken encountered an unexpected error.")
		log.Println(err)
		log.Println("=======================================")
		b := bufio.NewScanner(bytes.NewBuffer(debug.Stack()))
		for b.Scan() {
			log.Println(b.Text())
		}
		os.Exit(1)
	}
}

func printError(err error, output string, message string) {
	if output == "json" {
		js, marshalErr := json.Marshal(ErrorResponse{Error: err.Error()})
		if marshalErr != nil {
			fmt.Println(marshalErr)
			return
		}
		fmt.Println(string(js))
		return
	}

	errorPrinter.Printf("%s: %v\n", message, err)
}

func NewRunID() string {
	if id := os.Getenv("DROPTOKEN_RUN_ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

func configPath(c *cli.Context) string {
	if p := c.String("config"); p != "" {
		return p
	}
	return config.DefaultConfigFile
}

// loadConfigAndLogger reads the configuration and opens its log file. The returned
// closer flushes and closes the log file.
func loadConfigAndLogger(c *cli.Context) (*config.Config, *logger.ZapLogger, func() error, error) {
	cfg, err := config.LoadFromFile(fs, configPath(c))
	if err != nil {
		return nil, nil, nil, errors.Wrap(err, "failed to load the configuration")
	}

	l, closer, err := logger.NewFileLogger(fs, cfg.LogFile)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, l, closer, nil
}

// inTransaction opens one connection and runs steps in a single transaction.
func inTransaction(ctx context.Context, connect postgres.Connector, l logger.Logger, steps ...executor.Step) error {
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(ctx); err != nil {
			l.Errorf("failed to close the database connection: %v", err)
		}
	}()

	return executor.Sequential{Logger: l}.Run(ctx, db, steps)
}

func printTable(w io.Writer, columnNames []string, rows [][]interface{}) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data available")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)

	headers := make(table.Row, len(columnNames))
	for i, colName := range columnNames {
		headers[i] = colName
	}
	t.AppendHeader(headers)

	for _, row := range rows {
		rowData := make(table.Row, len(row))
		for i, cell := range row {
			rowData[i] = fmt.Sprintf("%v", cell)
		}
		t.AppendRow(rowData)
	}

	t.SetStyle(table.StyleLight)
	t.Render()
}
