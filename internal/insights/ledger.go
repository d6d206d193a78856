package insights

import (
	"time"

	"ehopa/internal/registration/models"
	"ehopa/internal/sheets"
)

// ParseLedger reads master ledger rows into records. Columns are found by
// header name, so the sheet's column order does not matter. Rows without an
// ID are skipped; a missing or malformed timestamp leaves it zero. The
// ledger grows at the bottom, so records are returned newest first.
func ParseLedger(t sheets.Table) []models.Record {
	idx := make(map[string]int, len(models.SheetColumns))
	for _, col := range models.SheetColumns {
		idx[col] = t.ColumnNamed(col)
	}
	cell := func(row []string, col string) string {
		return sheets.Cell(row, idx[col])
	}

	out := make([]models.Record, 0, len(t.Rows))
	for i := len(t.Rows) - 1; i >= 0; i-- {
		row := t.Rows[i]
		id := cell(row, models.ColumnID)
		if id == "" {
			continue
		}
		rec := models.Record{
			GeneratedID: id,
			CaptureDate: cell(row, models.ColumnCaptureDate),
			Provider:    cell(row, models.ColumnProvider),
			Origin:      cell(row, models.ColumnOrigin),
			Species:     cell(row, models.ColumnSpecies),
			Condition:   cell(row, models.ColumnCondition),
			Quantity:    cell(row, models.ColumnQuantity),
			UnitPrice:   cell(row, models.ColumnUnitPrice),
			Coordinates: cell(row, models.ColumnCoordinates),
		}
		if ts, err := time.Parse(models.TimestampLayout, cell(row, models.ColumnTimestamp)); err == nil {
			rec.Timestamp = ts
		}
		out = append(out, rec)
	}
	return out
}
