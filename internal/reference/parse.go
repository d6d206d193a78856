package reference

import (
	"fmt"

	"ehopa/internal/sheets"
	"ehopa/pkg/domain"
)

// ParseProviders reads the provider sheet. Rows without a first name are
// skipped; a missing Nome column yields no providers. IDs follow source order.
func ParseProviders(t sheets.Table) []Provider {
	nome := t.ColumnNamed("nome")
	if nome < 0 {
		return nil
	}
	apelido := t.ColumnNamed("apelido")
	hint := t.ColumnNamed("praia", "origem")

	var out []Provider
	for i, row := range t.Rows {
		first := sheets.Cell(row, nome)
		if first == "" {
			continue
		}
		name := first
		if last := sheets.Cell(row, apelido); last != "" {
			name = first + " " + last
		}
		out = append(out, Provider{
			ID:         fmt.Sprintf("prov-%d", i),
			FullName:   name,
			OriginHint: sheets.Cell(row, hint),
		})
	}
	sortProviders(out)
	return out
}

// ParseOrigins reads the origin sheet's Praia column.
func ParseOrigins(t sheets.Table) *OriginSet {
	praia := t.ColumnNamed("praia")
	if praia < 0 {
		return NewOriginSet()
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, sheets.Cell(row, praia))
	}
	return NewOriginSet(values...)
}

// ParseSpecies reads the species sheet. The name column is matched ignoring
// accents ("Espécies" or "Especies"); a price column is optional and a cell
// that does not parse as a non-negative amount leaves the price unset.
func ParseSpecies(t sheets.Table) []Species {
	col := t.ColumnNamed("especies")
	if col < 0 {
		return nil
	}
	priceCol := t.ColumnContaining("preco")

	seen := make(map[string]bool)
	var out []Species
	for _, row := range t.Rows {
		name := sheets.Cell(row, col)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sp := Species{Name: name}
		if raw := sheets.Cell(row, priceCol); raw != "" {
			if price, err := domain.ParsePrice(raw); err == nil {
				sp.UnitPrice = &price
			}
		}
		out = append(out, sp)
	}
	sortSpecies(out)
	return out
}
