package players

import (
	"context"

	"github.com/droptoken/etl/pkg/postgres"
	"github.com/pkg/errors"
)

const (
	insertBlobSQL = `INSERT INTO stage.player_blobs (player_blob) VALUES ($1)`

	debatchSQL = `
INSERT INTO stage.player_info (player_id, details, create_timestamp)
SELECT player_detail ->> 'id'
, player_detail
, create_timestamp
FROM
(
SELECT jsonb_array_elements(player_blob) AS player_detail
, create_timestamp
FROM stage.player_blobs
) AS a;
`
)

// InsertPlayerBlob stores one downloaded page, a JSON array, as a single row.
func InsertPlayerBlob(ctx context.Context, q postgres.Querier, body []byte) error {
	_, err := q.Exec(ctx, insertBlobSQL, string(body))
	if err != nil {
		return errors.Wrap(err, "failed to insert player blob")
	}

	return nil
}

// DebatchBlobs splits every staged blob into one stage.player_info row per array element.
func DebatchBlobs(ctx context.Context, q postgres.Querier) (int64, error) {
	tag, err := q.Exec(ctx, debatchSQL)
	if err != nil {
		return 0, errors.Wrap(err, "failed to debatch player blobs")
	}

	return tag.RowsAffected(), nil
}
