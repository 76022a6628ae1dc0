package cmd

import (
	"context"

	"github.com/droptoken/etl/pkg/config"
	"github.com/droptoken/etl/pkg/download"
	"github.com/droptoken/etl/pkg/games"
	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/players"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"
)

func LoadCmd() *cli.Command {
	return &cli.Command{
		Name:  "load",
		Usage: "download the game and player data and load it into the warehouse",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "retain-staging-data",
				Usage: "keep the staging tables populated after promotion",
			},
			&cli.BoolFlag{
				Name:  "retain-csv-file",
				Usage: "keep the downloaded game CSV file",
			},
			&cli.BoolFlag{
				Name:  "append",
				Usage: "append to the prepared tables instead of replacing their contents",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, l, closer, err := loadConfigAndLogger(c)
			if err != nil {
				printError(err, "", "Failed to start the load")
				return cli.Exit("", 1)
			}
			defer closer() //nolint:errcheck

			if c.Bool("append") {
				warningPrinter.Println("Appending to the prepared tables, existing rows are kept.")
			}

			r := newLoadCommand(cfg, l)
			return r.Run(c.Context, cfg, LoadOptions{
				ReplaceExistingData: !c.Bool("append"),
				RetainStagingData:   c.Bool("retain-staging-data"),
				RetainCSVFile:       c.Bool("retain-csv-file"),
			})
		},
	}
}

func newLoadCommand(cfg *config.Config, l logger.Logger) *LoadCommand {
	client := download.NewClient(cfg.HTTPTimeout, cfg.MaxPlayerPages)
	return &LoadCommand{
		fs:             fs,
		files:          client,
		pages:          client,
		connect:        postgres.NewConnector(cfg.PostgresConfig()),
		logger:         l,
		infoPrinter:    infoPrinter,
		errorPrinter:   errorPrinter,
		successPrinter: successPrinter,
	}
}

type fileFetcher interface {
	FetchFile(ctx context.Context, rawURL string, fs afero.Fs, localPath string) (int64, error)
}

type pageFetcher interface {
	FetchPages(ctx context.Context, rawURL string, onPage func(page int, body []byte) error) (int, error)
}

type LoadOptions struct {
	ReplaceExistingData bool
	RetainStagingData   bool
	RetainCSVFile       bool
}

type LoadCommand struct {
	fs      afero.Fs
	files   fileFetcher
	pages   pageFetcher
	connect postgres.Connector
	logger  logger.Logger

	infoPrinter    printer
	errorPrinter   printer
	successPrinter printer
}

// Run executes the games pipeline and then the players pipeline. A failure in one
// does not prevent the other from running.
func (r *LoadCommand) Run(ctx context.Context, cfg *config.Config, opts LoadOptions) error {
	l := r.logger.With("run_id", NewRunID())

	gamePipeline := &games.Pipeline{
		URL:          cfg.GameDataCSVLocation,
		LocalCSVPath: cfg.LocalGamesCSVPath,
		Fs:           r.fs,
		Downloader:   r.files,
		Connect:      r.connect,
		Logger:       l,
		Options: games.Options{
			ReplaceExistingData: opts.ReplaceExistingData,
			RetainStagingData:   opts.RetainStagingData,
			RetainCSVFile:       opts.RetainCSVFile,
			MaxColumn:           cfg.GetMaxColumn(),
		},
	}

	playerPipeline := &players.Pipeline{
		URL:     cfg.PlayerDataLocation,
		Fetcher: r.pages,
		Connect: r.connect,
		Logger:  l,
		Options: players.Options{
			ReplaceExistingData: opts.ReplaceExistingData,
			RetainStagingData:   opts.RetainStagingData,
		},
	}

	pipelines := []struct {
		name string
		run  func(context.Context) error
	}{
		{name: "games", run: gamePipeline.Run},
		{name: "players", run: playerPipeline.Run},
	}

	failed := 0
	for _, p := range pipelines {
		r.infoPrinter.Printf("Running the %s pipeline...\n", p.name)
		if err := p.run(ctx); err != nil {
			failed++
			r.errorPrinter.Printf("The %s pipeline failed: %v\n", p.name, err)
			continue
		}
		r.successPrinter.Printf("The %s pipeline completed successfully.\n", p.name)
	}

	if failed > 0 {
		return cli.Exit("", 1)
	}

	return nil
}
