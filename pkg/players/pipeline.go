// Package players loads Drop Token player records from a paginated JSON endpoint.
package players

import (
	"context"
	"time"

	"github.com/droptoken/etl/pkg/executor"
	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/warehouse"
	"github.com/pkg/errors"
)

const DownloadMetric = "player_download_seconds"

type pageFetcher interface {
	FetchPages(ctx context.Context, rawURL string, onPage func(page int, body []byte) error) (int, error)
}

type Options struct {
	// ReplaceExistingData truncates prepared.player_info before promotion.
	ReplaceExistingData bool
	RetainStagingData   bool
}

type Pipeline struct {
	URL string

	Fetcher pageFetcher
	Connect postgres.Connector
	Logger  logger.Logger
	Options Options
}

// Run downloads every page straight into stage.player_blobs and promotes the
// debatched records, all in one transaction.
func (p *Pipeline) Run(ctx context.Context) error {
	p.Logger.Info("Begin players pipeline")
	defer p.Logger.Info("End players pipeline")

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
	err = ex.Run(ctx, db, p.steps())
	if err == nil {
		return nil
	}

	var dlErr *downloadError
	if errors.As(err, &dlErr) {
		p.Logger.Errorf("There was an error downloading the player data. %v", dlErr.err)
		return errors.Wrap(err, "failed to download the player data")
	}

	p.Logger.Errorf("There was a database error. %v", err)
	return errors.Wrap(err, "failed to ingest the player data")
}

func (p *Pipeline) steps() []executor.Step {
	steps := []executor.Step{
		{
			Name:     "download player pages",
			Operator: executor.OperatorFunc(p.downloadAndInsert),
		},
		{
			Name: "debatch blobs",
			Operator: executor.OperatorFunc(func(ctx context.Context, q postgres.Querier) error {
				n, err := DebatchBlobs(ctx, q)
				if err != nil {
					return err
				}
				p.Logger.Infof("Staged %d player records", n)
				return nil
			}),
		},
		{
			Name: "check data quality",
			Operator: executor.OperatorFunc(func(ctx context.Context, q postgres.Querier) error {
				_, err := CheckAndMarkDataQuality(ctx, q, p.Logger)
				return err
			}),
		},
	}

	if p.Options.ReplaceExistingData {
		steps = append(steps, executor.Step{
			Name: "truncate prepared table",
			Operator: executor.OperatorFunc(func(ctx context.Context, q postgres.Querier) error {
				return warehouse.Truncate(ctx, q, warehouse.PreparedPlayerInfo)
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
			p.Logger.Infof("Promoted %d player records, quarantined %d", res.Prepared, res.Rejected)
			return nil
		}),
	})
}

// downloadError marks failures of the HTTP side of the download step, as opposed
// to failures inserting the pages.
type downloadError struct {
	err error
}

func (e *downloadError) Error() string { return e.err.Error() }

func (e *downloadError) Unwrap() error { return e.err }

func (p *Pipeline) downloadAndInsert(ctx context.Context, q postgres.Querier) error {
	start := time.Now()

	var insertErr error
	pages, err := p.Fetcher.FetchPages(ctx, p.URL, func(_ int, body []byte) error {
		insertErr = InsertPlayerBlob(ctx, q, body)
		return insertErr
	})
	if err != nil {
		if insertErr != nil {
			return err
		}
		return &downloadError{err: err}
	}

	p.Logger.Metric(DownloadMetric, time.Since(start).Seconds())
	p.Logger.Infof("Downloaded %d player pages", pages)
	return nil
}
