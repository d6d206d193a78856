package models

import (
	"ehopa/internal/location"
	"ehopa/pkg/domain"
)

// Draft is the in-progress registration. Quantity and UnitPrice keep what
// the agent typed; they are parsed at validation time.
type Draft struct {
	Date      string // ISO, YYYY-MM-DD
	Provider  string
	Origin    string
	Species   string
	Condition domain.Condition
	Quantity  string
	UnitPrice string
	Location  *location.Sample
}

// IsEmpty reports whether nothing has been entered.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// Patch carries the fields an agent changed. Nil means untouched; a pointer
// to "" clears the field.
type Patch struct {
	Date      *string
	Provider  *string
	Origin    *string
	Species   *string
	Condition *string
	Quantity  *string
	UnitPrice *string
}
