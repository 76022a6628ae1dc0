package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/droptoken/etl/pkg/config"
	"github.com/droptoken/etl/pkg/path"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func ConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "inspect and scaffold the configuration file",
		Subcommands: []*cli.Command{
			{
				Name:  "schema",
				Usage: "print the JSON schema of the configuration file",
				Action: func(c *cli.Context) error {
					out, err := json.MarshalIndent(config.Schema(), "", "  ")
					if err != nil {
						return errors.Wrap(err, "failed to marshal the schema")
					}
					fmt.Println(string(out))
					return nil
				},
			},
			{
				Name:  "init",
				Usage: "write a configuration template to the --config path",
				Action: func(c *cli.Context) error {
					target := configPath(c)
					if err := writeConfigTemplate(fs, target); err != nil {
						printError(err, "", "Failed to write the configuration")
						return cli.Exit("", 1)
					}
					successPrinter.Printf("Wrote a configuration template to %s\n", target)
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "check that the configuration file is complete and the database is reachable",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "skip-connection",
						Usage: "only validate the file, do not connect to the database",
					},
				},
				Action: func(c *cli.Context) error {
					target := configPath(c)
					cfg, err := config.LoadFromFile(fs, target)
					if err != nil {
						printError(err, "", "Invalid configuration")
						return cli.Exit("", 1)
					}
					successPrinter.Printf("%s is valid.\n", target)

					if c.Bool("skip-connection") {
						return nil
					}

					if err := checkConnection(c.Context, postgres.NewConnector(cfg.PostgresConfig())); err != nil {
						printError(err, "", "Database is not reachable")
						return cli.Exit("", 1)
					}
					successPrinter.Printf("Connected to %s on %s.\n", cfg.Database, cfg.DatabaseServer)
					return nil
				},
			},
		},
	}
}

// checkConnection opens a connection and pings the server.
func checkConnection(ctx context.Context, connect postgres.Connector) error {
	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx) //nolint:errcheck

	return db.Ping(ctx)
}

func configTemplate() *config.Config {
	maxColumn := config.DefaultMaxColumn
	return &config.Config{
		GameDataCSVLocation: "https://example.com/game_data.csv",
		PlayerDataLocation:  "https://example.com/players",
		DatabaseServer:      "localhost",
		DatabaseServerPort:  5432,
		Database:            "droptoken",
		DatabaseUser:        "postgres",
		DatabasePassword:    "postgres",
		DatabaseSslMode:     config.DefaultSslMode,
		LogFile:             config.DefaultLogFile,
		LocalGamesCSVPath:   config.DefaultLocalGamesCSVPath,
		MaxPlayerPages:      config.DefaultMaxPlayerPages,
		MaxColumn:           &maxColumn,
	}
}

func writeConfigTemplate(fs afero.Fs, filePath string) error {
	if path.FileExists(fs, filePath) {
		return errors.Errorf("configuration file already exists: %s", filePath)
	}
	return configTemplate().Persist(fs, filePath)
}
