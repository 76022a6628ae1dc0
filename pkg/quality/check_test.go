package quality

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/droptoken/etl/pkg/logger"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func newCheck() *Check {
	return &Check{
		Name:    "example",
		Table:   "stage.example",
		Subject: "example",
		MarkSQL: "UPDATE stage.example SET passed_data_quality_check = true WHERE ok",
	}
}

func TestCheck_Run(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		rejected    int64
		wantWarning string
	}{
		{name: "no rejects, no warning", rejected: 0},
		{name: "rejects are logged", rejected: 3, wantWarning: "WARNING Rejected 3 example records due to data quality."},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock, err := pgxmock.NewConn()
			require.NoError(t, err)
			defer mock.Close(context.Background())

			mock.ExpectExec(regexp.QuoteMeta("UPDATE stage.example SET passed_data_quality_check = true WHERE ok")).
				WillReturnResult(pgxmock.NewResult("UPDATE", 5))
			mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM stage.example WHERE passed_data_quality_check = false")).
				WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(tt.rejected))

			var buf bytes.Buffer
			rejected, err := newCheck().Run(context.Background(), mock, logger.New(zapcore.AddSync(&buf)))
			require.NoError(t, err)
			assert.Equal(t, tt.rejected, rejected)

			if tt.wantWarning == "" {
				assert.Empty(t, buf.String())
			} else {
				assert.Contains(t, buf.String(), tt.wantWarning)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCheck_Run_Errors(t *testing.T) {
	t.Parallel()

	t.Run("mark statement fails", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewConn()
		require.NoError(t, err)
		defer mock.Close(context.Background())

		mock.ExpectExec("UPDATE stage.example").WillReturnError(errors.New("syntax error"))

		_, err = newCheck().Run(context.Background(), mock, logger.NewNop())
		require.Error(t, err)
		assert.Equal(t, "failed to run the 'example' check: syntax error", err.Error())
	})

	t.Run("count fails", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewConn()
		require.NoError(t, err)
		defer mock.Close(context.Background())

		mock.ExpectExec("UPDATE stage.example").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))

		_, err = newCheck().Run(context.Background(), mock, logger.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to count rows rejected by the 'example' check")
	})
}
