package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ehopa/internal/registration/models"
)

func TestWriteXLSX(t *testing.T) {
	records := []models.Record{
		{
			GeneratedID: "inhaca_002",
			CaptureDate: "10/03/2024",
			Provider:    "Pedro Sitoe",
			Origin:      "Inhaca",
			Species:     "Pargo",
			Condition:   "Fresco",
			Quantity:    "20,00",
			UnitPrice:   "150,00",
			Coordinates: "-25.96, 32.58",
			Timestamp:   time.Date(2024, 3, 10, 14, 5, 9, 0, time.UTC),
		},
		{GeneratedID: "inhaca_001", CaptureDate: "09/03/2024"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, records))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, models.SheetColumns, rows[0])
	assert.Equal(t, []string{
		"inhaca_002", "10/03/2024", "Pedro Sitoe", "Inhaca", "Pargo", "Fresco",
		"20,00", "150,00", "-25.96, 32.58", "10/03/2024 14:05:09",
	}, rows[1])
	assert.Equal(t, "inhaca_001", rows[2][0])
}

func TestWriteXLSX_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
