package games

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveCheckedData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		retainStagingData bool
	}{
		{name: "staging table is truncated", retainStagingData: false},
		{name: "staging table is retained", retainStagingData: true},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock, err := pgxmock.NewConn()
			require.NoError(t, err)
			defer mock.Close(context.Background())

			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO prepared.game_data (game_id, player_id, move_number, "column", result, create_timestamp)`)).
				WillReturnResult(pgxmock.NewResult("INSERT", 30))
			mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO error.game_data (game_id, player_id, move_number, "column", result, create_timestamp)`)).
				WillReturnResult(pgxmock.NewResult("INSERT", 12))
			if !tt.retainStagingData {
				mock.ExpectExec(regexp.QuoteMeta(`TRUNCATE TABLE "stage"."game_data"`)).
					WillReturnResult(pgxmock.NewResult("TRUNCATE TABLE", 0))
			}

			res, err := MoveCheckedData(context.Background(), mock, tt.retainStagingData)
			require.NoError(t, err)
			assert.Equal(t, &MoveResult{Prepared: 30, Rejected: 12}, res)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestMoveCheckedData_StopsOnError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectExec("INSERT INTO prepared.game_data").WillReturnError(errors.New("integer out of range"))

	_, err = MoveCheckedData(context.Background(), mock, false)
	require.Error(t, err)
	assert.Equal(t, "failed to copy checked rows into prepared.game_data: integer out of range", err.Error())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPromotionSQL(t *testing.T) {
	t.Parallel()

	assert.Contains(t, copyToPreparedSQL, `move_number::int, "column"::int`)
	assert.Contains(t, copyToPreparedSQL, "WHERE passed_data_quality_check = true")
	assert.Contains(t, copyToErrorSQL, `SELECT game_id, player_id, move_number, "column", result, create_timestamp`)
	assert.Contains(t, copyToErrorSQL, "WHERE passed_data_quality_check = false")
}
