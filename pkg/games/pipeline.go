// Package games loads Drop Token game moves: CSV download, staging, quality
// classification and promotion into the prepared and error schemas.
package games

import (
	"context"
	"os"
	"time"

	"github.com/droptoken/etl/pkg/executor"
	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/warehouse"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const DownloadMetric = "game_download_seconds"

type downloader interface {
	FetchFile(ctx context.Context, rawURL string, fs afero.Fs, localPath string) (int64, error)
}

type Options struct {
	// ReplaceExistingData truncates prepared.game_data before promotion.
	ReplaceExistingData bool
	RetainStagingData   bool
	RetainCSVFile       bool
	MaxColumn           int
}

type Pipeline struct {
	URL          string
	LocalCSVPath string

	Fs         afero.Fs
	Downloader downloader
	Connect    postgres.Connector
	Logger     logger.Logger
	Options    Options
}

// Run downloads the CSV and ingests it. Download and database failures are logged
// and returned; the remaining stages are skipped.
func (p *Pipeline) Run(ctx context.Context) error {
	p.Logger.Info("Begin games pipeline")
	defer p.Logger.Info("End games pipeline")

	start := time.Now()
	_, err := p.Downloader.FetchFile(ctx, p.URL, p.Fs, p.LocalCSVPath)
	if err != nil {
		p.Logger.Errorf("There was an error downloading the CSV file. %v", err)
		return errors.Wrap(err, "failed to download the game data")
	}
	p.Logger.Metric(DownloadMetric, time.Since(start).Seconds())

	if !p.Options.RetainCSVFile {
		defer p.removeCSV()
	}

	return p.Ingest(ctx, p.LocalCSVPath)
}

// Ingest loads an already downloaded CSV into the warehouse in one transaction.
func (p *Pipeline) Ingest(ctx context.Context, csvPath string) error {
	db, err := p.Connect(ctx)
	if err != nil {
		p.Logger.Errorf("There was a database error. %v", err)
		return err
	}
	defer func() {
		if err := db.Close(ctx); err != nil {
			p.Logger.Errorf("failed to close the database connection: %v", err)
		}
	}()

	ex := executor.Sequential{Logger: p.Logger}
	err = ex.Run(ctx, db, p.steps(csvPath))
	if err != nil {
		p.Logger.Errorf("There was a database error. %v", err)
		return errors.Wrap(err, "failed to ingest the game data")
	}

	return nil
}

func (p *Pipeline) steps(csvPath string) []executor.Step {
	steps := []executor.Step{
		{
			Name: "load staging table",
			Operator: executor.OperatorFunc(func(ctx context.Context, q postgres.Querier) error {
				n, err := LoadStagingTable(ctx, q, p.Fs, csvPath)
				if err != nil {
					return err
				}
				p.Logger.Infof("Staged %d game rows", n)
				return nil
			}),
		},
		{
			Name: "check data quality",
			Operator: executor.OperatorFunc(func(ctx context.Context, q postgres.Querier) error {
				_, err := CheckAndMarkDataQuality(ctx, q, p.Logger, p.Options.MaxColumn)
				return err
			}),
		},
	}

	if p.Options.ReplaceExistingData {
		steps = append(steps, executor.Step{
			Name: "truncate prepared table",
			Operator: executor.OperatorFunc(func(ctx context.Context, q postgres.Querier) error {
				return warehouse.Truncate(ctx, q, warehouse.PreparedGameData)
			}),
		})
	}

	return append(steps, executor.Step{
		Name: "move checked data",
		Operator: executor.OperatorFunc(func(ctx context.Context, q postgres.Querier) error {
			res, err := MoveCheckedData(ctx, q, p.Options.RetainStagingData)
			if err != nil {
				return err
			}
			p.Logger.Infof("Promoted %d game rows, quarantined %d", res.Prepared, res.Rejected)
			return nil
		}),
	})
}

func (p *Pipeline) removeCSV() {
	err := p.Fs.Remove(p.LocalCSVPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		p.Logger.Errorf("failed to remove %s: %v", p.LocalCSVPath, err)
	}
}
