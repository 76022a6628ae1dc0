package players

import (
	"context"

	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/warehouse"
	"github.com/pkg/errors"
)

const (
	copyToPreparedSQL = `
INSERT INTO prepared.player_info (player_id, details, create_timestamp)
SELECT player_id
, details -> 'data'
, create_timestamp
FROM stage.player_info
WHERE passed_data_quality_check = true;
`

	copyToErrorSQL = `
INSERT INTO error.player_info (player_id, details, create_timestamp)
SELECT player_id
, details
, create_timestamp
FROM stage.player_info
WHERE passed_data_quality_check = false;
`
)

type MoveResult struct {
	Prepared int64
	Rejected int64
}

// MoveCheckedData copies passed records, narrowed to their "data" object, to
// prepared.player_info and failed records to error.player_info. Both staging
// tables are emptied unless retainStagingData is set.
func MoveCheckedData(ctx context.Context, q postgres.Querier, retainStagingData bool) (*MoveResult, error) {
	prepared, err := q.Exec(ctx, copyToPreparedSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to copy checked rows into prepared.player_info")
	}

	rejected, err := q.Exec(ctx, copyToErrorSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to copy rejected rows into error.player_info")
	}

	if !retainStagingData {
		for _, table := range []string{warehouse.StagePlayerBlobs, warehouse.StagePlayerInfo} {
			if err := warehouse.Truncate(ctx, q, table); err != nil {
				return nil, err
			}
		}
	}

	return &MoveResult{Prepared: prepared.RowsAffected(), Rejected: rejected.RowsAffected()}, nil
}
