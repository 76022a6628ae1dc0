package players

import (
	"context"

	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/droptoken/etl/pkg/quality"
	"github.com/droptoken/etl/pkg/warehouse"
)

// A player record passes when its details are an object carrying a "data" key.
const markQualitySQL = `
UPDATE stage.player_info
SET passed_data_quality_check = true
WHERE jsonb_typeof(details) = 'object'
AND details ? 'data';
`

func CheckAndMarkDataQuality(ctx context.Context, q postgres.Querier, log logger.Logger) (int64, error) {
	check := &quality.Check{
		Name:    "player_info",
		Table:   warehouse.StagePlayerInfo,
		Subject: "player",
		MarkSQL: markQualitySQL,
	}

	return check.Run(ctx, q, log)
}
