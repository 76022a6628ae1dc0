package quality

import (
	"context"
	"fmt"

	"github.com/droptoken/etl/pkg/logger"
	"github.com/droptoken/etl/pkg/postgres"
	"github.com/pkg/errors"
)

// Check marks the rows of a staging table that satisfy a set-based predicate.
// Rows start with passed_data_quality_check = false, so after MarkSQL runs every
// row is either passed (flag set) or failed (flag untouched).
type Check struct {
	Name    string
	Table   string
	Subject string
	MarkSQL string
	Args    []any
}

// Run executes the mark statement and returns the number of rejected rows.
// A warning is logged when at least one row was rejected.
func (c *Check) Run(ctx context.Context, q postgres.Querier, log logger.Logger) (int64, error) {
	if _, err := q.Exec(ctx, c.MarkSQL, c.Args...); err != nil {
		return 0, errors.Wrapf(err, "failed to run the '%s' check", c.Name)
	}

	rejected, err := postgres.SelectCount(ctx, q, CountRejectedQuery(c.Table))
	if err != nil {
		return 0, errors.Wrapf(err, "failed to count rows rejected by the '%s' check", c.Name)
	}

	if rejected > 0 {
		log.Warnf("Rejected %d %s records due to data quality.", rejected, c.Subject)
	}

	return rejected, nil
}

func CountRejectedQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE passed_data_quality_check = false", table)
}
