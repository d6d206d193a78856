package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"ehopa/internal/registration/mocks"
	"ehopa/internal/sheets"
)

type fallbackCounter struct {
	kinds []string
}

func (f *fallbackCounter) IncSequenceFallback(kind string) {
	f.kinds = append(f.kinds, kind)
}

func ledgerTable(origins ...string) sheets.Table {
	t := sheets.Table{Header: []string{"ID", "Data de Captura", "Provedor", "Origem (Praia)", "Espécie"}}
	for i, o := range origins {
		t.Rows = append(t.Rows, []string{"x_" + string(rune('a'+i)), "01/03/2024", "Ana Matusse", o, "Lula"})
	}
	return t
}

func TestSequenceGenerator(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		origin    string
		table     sheets.Table
		err       error
		want      string
		fallbacks []string
	}{
		{
			name:   "counts prior rows for the origin ignoring case",
			origin: "Macaneta",
			table: ledgerTable(
				"Macaneta", "macaneta", "Inhaca", "MACANETA", "Macaneta",
				"Costa do Sol", "Macaneta", "Macaneta",
			),
			want: "macaneta_007",
		},
		{
			name:   "seven prior rows give sequence eight",
			origin: "Macaneta",
			table: ledgerTable(
				"Macaneta", "Macaneta", "Macaneta", "Macaneta",
				"Macaneta", "Macaneta", "Macaneta", "Inhaca",
			),
			want: "macaneta_008",
		},
		{
			name:   "no prior rows start at one",
			origin: "Macaneta",
			table:  ledgerTable("Inhaca", "Costa do Sol"),
			want:   "macaneta_001",
		},
		{
			name:   "multi-word origin is slugged",
			origin: "Costa do Sol",
			table:  ledgerTable("Costa do Sol", "costa do sol", "Inhaca"),
			want:   "costa_do_sol_003",
		},
		{
			name:   "ledger without an origin column counts zero",
			origin: "Inhaca",
			table:  sheets.Table{Header: []string{"ID", "Provedor"}, Rows: [][]string{{"a", "b"}}},
			want:   "inhaca_001",
		},
		{
			name:      "error status falls back to one",
			origin:    "Inhaca",
			err:       &sheets.FeedError{Sheet: "GERAL", StatusCode: http.StatusInternalServerError},
			want:      "inhaca_001",
			fallbacks: []string{"http_status"},
		},
		{
			name:      "transport failure uses the error sentinel",
			origin:    "Inhaca",
			err:       errors.New("dial tcp: no route to host"),
			want:      "inhaca_ERROR",
			fallbacks: []string{"error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			ledger := mocks.NewMockLedgerSource(ctrl)
			ledger.EXPECT().Fetch(gomock.Any(), "GERAL").Return(tt.table, tt.err)

			counter := &fallbackCounter{}
			gen := NewSequenceGenerator(ledger, "GERAL", nil, counter)

			assert.Equal(t, tt.want, gen.Next(ctx, tt.origin))
			assert.Equal(t, tt.fallbacks, counter.kinds)
		})
	}
}

func TestFormatID(t *testing.T) {
	assert.Equal(t, "inhaca_001", FormatID("inhaca", 1))
	assert.Equal(t, "inhaca_042", FormatID("inhaca", 42))
	assert.Equal(t, "inhaca_1000", FormatID("inhaca", 1000))
}
