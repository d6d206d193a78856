package models

import (
	"time"

	"github.com/shopspring/decimal"

	"ehopa/pkg/domain"
)

// Master sheet column headers. Row keys must match them verbatim.
const (
	ColumnID          = "ID"
	ColumnCaptureDate = "Data de Captura"
	ColumnProvider    = "Provedor"
	ColumnOrigin      = "Origem (Praia)"
	ColumnSpecies     = "Espécie"
	ColumnCondition   = "Estado"
	ColumnQuantity    = "Qtd. (Kg)"
	ColumnUnitPrice   = "Preço Unit. (Kg)"
	ColumnCoordinates = "Geo-Localização"
	ColumnTimestamp   = "Timestamp"
)

// SheetColumns lists the master sheet headers in sheet order.
var SheetColumns = []string{
	ColumnID,
	ColumnCaptureDate,
	ColumnProvider,
	ColumnOrigin,
	ColumnSpecies,
	ColumnCondition,
	ColumnQuantity,
	ColumnUnitPrice,
	ColumnCoordinates,
	ColumnTimestamp,
}

// TimestampLayout is how the submission time is written to the sheet.
const TimestampLayout = "02/01/2006 15:04:05"

// Record is a submitted registration as written remotely and kept in local
// history. Amounts are in sheet format ("20,00").
type Record struct {
	GeneratedID string    `json:"id"`
	CaptureDate string    `json:"date"`
	Species     string    `json:"species"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"price"`
	Condition   string    `json:"condition"`
	Provider    string    `json:"provider"`
	Origin      string    `json:"origin"`
	Coordinates string    `json:"coordinates"`
	Timestamp   time.Time `json:"timestamp"`
}

// Row renders the record keyed by master sheet header.
func (r Record) Row() map[string]string {
	return map[string]string{
		ColumnID:          r.GeneratedID,
		ColumnCaptureDate: r.CaptureDate,
		ColumnProvider:    r.Provider,
		ColumnOrigin:      r.Origin,
		ColumnSpecies:     r.Species,
		ColumnCondition:   r.Condition,
		ColumnQuantity:    r.Quantity,
		ColumnUnitPrice:   r.UnitPrice,
		ColumnCoordinates: r.Coordinates,
		ColumnTimestamp:   r.Timestamp.Format(TimestampLayout),
	}
}

// Values returns the row in SheetColumns order.
func (r Record) Values() []string {
	row := r.Row()
	out := make([]string, len(SheetColumns))
	for i, col := range SheetColumns {
		out[i] = row[col]
	}
	return out
}

// Amounts parses the stored quantity and unit price.
func (r Record) Amounts() (quantity, unitPrice decimal.Decimal, err error) {
	if quantity, err = domain.ParseAmount(r.Quantity); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	if unitPrice, err = domain.ParseAmount(r.UnitPrice); err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return quantity, unitPrice, nil
}

// Total returns quantity x unit price, or zero when either does not parse.
func (r Record) Total() decimal.Decimal {
	q, p, err := r.Amounts()
	if err != nil {
		return decimal.Zero
	}
	return q.Mul(p)
}

// Summary is what the outbound notification carries.
type Summary struct {
	Record     Record `json:"record"`
	Total      string `json:"total"`
	ImageCount int    `json:"image_count"`
}

// Confirmation is the human-readable summary shown before submitting.
type Confirmation struct {
	CaptureDate string `json:"capture_date"`
	Provider    string `json:"provider"`
	Origin      string `json:"origin"`
	Species     string `json:"species"`
	Condition   string `json:"condition"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
	Coordinates string `json:"coordinates"`
	ImageCount  int    `json:"image_count"`
}
