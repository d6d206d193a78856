package insights

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ehopa/internal/registration/models"
	"ehopa/internal/sheets"
)

func rec(provider, origin, species, condition, qty, price, date string) models.Record {
	return models.Record{
		Provider:    provider,
		Origin:      origin,
		Species:     species,
		Condition:   condition,
		Quantity:    qty,
		UnitPrice:   price,
		CaptureDate: date,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestSummarize(t *testing.T) {
	records := []models.Record{
		rec("Pedro Sitoe", "Inhaca", "Pargo", "Fresco", "20,00", "150,00", "10/03/2024"),
		rec("Ana Matusse", "Macaneta", "Lula", "Congelado", "5,50", "200,00", "09/03/2024"),
		rec("Pedro Sitoe", "Costa do Sol", "Pargo", "Fresco", "10,00", "140,00", "02/03/2024"),
		rec("Pedro Sitoe", "Inhaca", "Serra", "Congelado", "4,00", "100,00", "12/03/2024"),
		rec("Pedro Sitoe", "Inhaca", "Pargo", "Fresco", "n/d", "150,00", "11/03/2024"),
	}

	out := Summarize(records)
	require.Len(t, out, 2)
	assert.Equal(t, "Ana Matusse", out[0].Provider, "sorted by name")

	pedro := out[1]
	assert.Equal(t, "Inhaca", pedro.Origin, "origin of the newest record")
	assert.Equal(t, 4, pedro.Submissions)
	assert.True(t, dec("34").Equal(pedro.TotalKg))
	assert.True(t, dec("4800").Equal(pedro.Revenue))
	assert.True(t, dec("30").Equal(pedro.FreshKg))
	assert.True(t, dec("4").Equal(pedro.FrozenKg))

	require.Len(t, pedro.Stock, 2)
	assert.Equal(t, "Pargo", pedro.Stock[0].Species)
	assert.True(t, dec("30").Equal(pedro.Stock[0].Kg))
	assert.Equal(t, "10/03/2024", pedro.Stock[0].LatestDate)
	assert.Equal(t, "Serra", pedro.Stock[1].Species)
}

func TestSearch(t *testing.T) {
	summaries := []ProviderSummary{
		{Provider: "João Macuácua", Origin: "Zalala"},
		{Provider: "Ana Matusse", Origin: "Macaneta"},
	}

	assert.Len(t, Search(summaries, ""), 2)
	assert.Equal(t, "João Macuácua", Search(summaries, "macuacua")[0].Provider)
	assert.Equal(t, "Ana Matusse", Search(summaries, "MACANETA")[0].Provider)
	assert.Empty(t, Search(summaries, "inhaca"))
}

func TestRevenueAndBalance(t *testing.T) {
	est := Revenue([]models.Record{
		rec("a", "", "", "", "2,5", "100", ""),
		rec("b", "", "", "", "1", "40,5", ""),
		rec("c", "", "", "", "", "", ""),
	})
	assert.Equal(t, 3, est.Submissions)
	assert.True(t, dec("3.5").Equal(est.TotalKg))
	assert.True(t, dec("290.5").Equal(est.Revenue))

	assert.True(t, dec("45000").Equal(Balance(dec("125000"), dec("80000"))))
	assert.True(t, Balance(dec("10"), dec("20")).IsNegative())
}

func TestParseLedger(t *testing.T) {
	table := sheets.Table{
		Header: []string{"Timestamp", "ID", "Provedor", "Origem (Praia)", "Espécie", "Estado", "Qtd. (Kg)", "Preço Unit. (Kg)", "Data de Captura"},
		Rows: [][]string{
			{"09/03/2024 08:00:00", "inhaca_001", "Pedro Sitoe", "Inhaca", "Pargo", "Fresco", "20,00", "150,00", "09/03/2024"},
			{"", "", "Sem ID", "", "", "", "", "", ""},
			{"bad", "inhaca_002", "Pedro Sitoe", "Inhaca", "Lula", "Congelado", "1,00", "90,00", "10/03/2024"},
		},
	}

	records := ParseLedger(table)
	require.Len(t, records, 2)
	assert.Equal(t, "inhaca_002", records[0].GeneratedID, "newest first")
	assert.True(t, records[0].Timestamp.IsZero())
	assert.Equal(t, "inhaca_001", records[1].GeneratedID)
	assert.Equal(t, "Pargo", records[1].Species)
	assert.Equal(t, 2024, records[1].Timestamp.Year())
	assert.Empty(t, records[1].Coordinates, "absent column reads empty")
}
