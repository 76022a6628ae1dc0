package games

import (
	"context"

	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/quality"
	"github.com/droptoken/etl/pkg/warehouse"
)

// A game passes only as a whole: one malformed move, or a player count other than
// two, rejects every row of that game. Values must be unsigned integers of at most
// nine digits so the casts on promotion cannot overflow; the CASE keeps the column
// cast away from non-numeric values.
const markQualitySQL = `
UPDATE stage.game_data
SET passed_data_quality_check = true
WHERE game_id NOT IN
(
SELECT DISTINCT game_id
FROM stage.game_data
WHERE game_id IS NOT NULL
AND (
    move_number IS NULL OR move_number !~ '^[0-9]{1,9}$'
    OR "column" IS NULL OR "column" !~ '^[0-9]{1,9}$'
    OR CASE WHEN "column" ~ '^[0-9]{1,9}$' THEN "column"::int > $1::int ELSE true END
    OR result IS NULL OR result NOT IN ('', 'win', 'draw')
)
)
AND game_id NOT IN
(
SELECT game_id
FROM stage.game_data
WHERE game_id IS NOT NULL
GROUP BY game_id
HAVING COUNT(DISTINCT player_id) <> 2
);
`

// CheckAndMarkDataQuality flags the staged rows of valid games and returns the
// number of rejected rows.
func CheckAndMarkDataQuality(ctx context.Context, q postgres.Querier, log logger.Logger, maxColumn int) (int64, error) {
	check := &quality.Check{
		Name:    "game_data",
		Table:   warehouse.StageGameData,
		Subject: "game",
		MarkSQL: markQualitySQL,
		Args:    []any{maxColumn},
	}

	return check.Run(ctx, q, log)
}
