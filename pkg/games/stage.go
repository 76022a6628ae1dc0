package games

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/droptoken/etl/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

var (
	stageTable   = pgx.Identifier{"stage", "game_data"}
	stageColumns = []string{"game_id", "player_id", "move_number", "column", "result"}
)

// LoadStagingTable copies the rows of the CSV at csvPath, header excluded, into
// stage.game_data. Every value is staged as text.
func LoadStagingTable(ctx context.Context, q postgres.Querier, fs afero.Fs, csvPath string) (int64, error) {
	f, err := fs.Open(csvPath)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to open %s", csvPath)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to parse %s", csvPath)
	}

	n, err := q.CopyFrom(ctx, stageTable, stageColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, errors.Wrap(err, "failed to copy rows into stage.game_data")
	}

	return n, nil
}

func readRows(r io.Reader) ([][]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(stageColumns)

	// header
	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return [][]any{}, nil
		}
		return nil, err
	}

	rows := make([][]any, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
	}

	return rows, nil
}
