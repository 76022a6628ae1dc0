package games

import (
	"context"

	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/warehouse"
	"github.com/pkg/errors"
)

const (
	copyToPreparedSQL = `
INSERT INTO prepared.game_data (game_id, player_id, move_number, "column", result, create_timestamp)
SELECT game_id, player_id, move_number::int, "column"::int, result, create_timestamp
FROM stage.game_data WHERE passed_data_quality_check = true;
`

	copyToErrorSQL = `
INSERT INTO error.game_data (game_id, player_id, move_number, "column", result, create_timestamp)
SELECT game_id, player_id, move_number, "column", result, create_timestamp
FROM stage.game_data WHERE passed_data_quality_check = false;
`
)

type MoveResult struct {
	Prepared int64
	Rejected int64
}

// MoveCheckedData copies passed rows to prepared.game_data and failed rows to
// error.game_data, then empties stage.game_data unless retainStagingData is set.
func MoveCheckedData(ctx context.Context, q postgres.Querier, retainStagingData bool) (*MoveResult, error) {
	prepared, err := q.Exec(ctx, copyToPreparedSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to copy checked rows into prepared.game_data")
	}

	rejected, err := q.Exec(ctx, copyToErrorSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to copy rejected rows into error.game_data")
	}

	if !retainStagingData {
		if err := warehouse.Truncate(ctx, q, warehouse.StageGameData); err != nil {
			return nil, err
		}
	}

	return &MoveResult{Prepared: prepared.RowsAffected(), Rejected: rejected.RowsAffected()}, nil
}
