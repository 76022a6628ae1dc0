package cmd

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/droptoken/etl/pkg/postgres"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
)

type bufferPrinter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (p *bufferPrinter) Printf(format string, a ...interface{}) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Fprintf(&p.buf, format, a...)
}

func (p *bufferPrinter) Println(a ...interface{}) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Fprintln(&p.buf, a...)
}

func (p *bufferPrinter) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.String()
}

func connectorFor(mock pgxmock.PgxConnIface) postgres.Connector {
	return func(context.Context) (*postgres.Client, error) {
		return postgres.NewClient(mock, postgres.Config{}), nil
	}
}

func TestPrintTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		columns  []string
		rows     [][]interface{}
		contains []string
	}{
		{
			name:     "empty result",
			columns:  []string{"table", "rows"},
			contains: []string{"No data available"},
		},
		{
			name:    "rows are rendered with headers",
			columns: []string{"table", "rows"},
			rows: [][]interface{}{
				{"stage.game_data", int64(0)},
				{"prepared.game_data", int64(42)},
			},
			contains: []string{"TABLE", "ROWS", "prepared.game_data", "42"},
		},
	}

	for _, tt := range tests {

		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			printTable(&out, tt.columns, tt.rows)
			for _, s := range tt.contains {
				assert.Contains(t, out.String(), s)
			}
		})
	}
}

func TestNewRunID(t *testing.T) {
	first := NewRunID()
	second := NewRunID()
	assert.NotEqual(t, first, second)
	assert.Len(t, first, 36)

	t.Setenv("DROPTOKEN_RUN_ID", "fixed")
	assert.Equal(t, "fixed", NewRunID())
}
