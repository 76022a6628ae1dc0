package games

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `game_id,player_id,move_number,column,result
1,10,1,2,
1,20,2,3,
1,10,3,2,win
`

func TestReadRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    [][]any
		wantErr bool
	}{
		{
			name:  "header is skipped and values stay text",
			input: sampleCSV,
			want: [][]any{
				{"1", "10", "1", "2", ""},
				{"1", "20", "2", "3", ""},
				{"1", "10", "3", "2", "win"},
			},
		},
		{
			name:  "malformed values are staged as they are",
			input: "game_id,player_id,move_number,column,result\n7,1,x,-1,lose\n",
			want:  [][]any{{"7", "1", "x", "-1", "lose"}},
		},
		{
			name:  "header only",
			input: "game_id,player_id,move_number,column,result\n",
			want:  [][]any{},
		},
		{
			name:  "empty file",
			input: "",
			want:  [][]any{},
		},
		{
			name:    "wrong number of fields",
			input:   "game_id,player_id,move_number,column,result\n1,2,3\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := readRows(strings.NewReader(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadStagingTable(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/game_data.csv", []byte(sampleCSV), 0o644))

	mock, err := pgxmock.NewConn()
	require.NoError(t, err)
	defer mock.Close(context.Background())

	mock.ExpectCopyFrom(pgx.Identifier{"stage", "game_data"}, []string{"game_id", "player_id", "move_number", "column", "result"}).
		WillReturnResult(3)

	n, err := LoadStagingTable(context.Background(), mock, fs, "/game_data.csv")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadStagingTable_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		mock, err := pgxmock.NewConn()
		require.NoError(t, err)
		defer mock.Close(context.Background())

		_, err = LoadStagingTable(context.Background(), mock, afero.NewMemMapFs(), "/game_data.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open /game_data.csv")
	})

	t.Run("copy fails", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/game_data.csv", []byte(sampleCSV), 0o644))

		mock, err := pgxmock.NewConn()
		require.NoError(t, err)
		defer mock.Close(context.Background())

		mock.ExpectCopyFrom(pgx.Identifier{"stage", "game_data"}, []string{"game_id", "player_id", "move_number", "column", "result"}).
			WillReturnError(errors.New("relation \"stage.game_data\" does not exist"))

		_, err = LoadStagingTable(context.Background(), mock, fs, "/game_data.csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to copy rows into stage.game_data")
	})
}
