package models

// Field names one input of the registration form.
type Field string

const (
	FieldDate      Field = "date"
	FieldProvider  Field = "provider"
	FieldOrigin    Field = "origin"
	FieldLocation  Field = "location"
	FieldSpecies   Field = "species"
	FieldCondition Field = "condition"
	FieldQuantity  Field = "quantity"
	FieldUnitPrice Field = "unit_price"
)

// FieldOrder is the declaration order used whenever fields are listed.
var FieldOrder = []Field{
	FieldDate,
	FieldProvider,
	FieldOrigin,
	FieldLocation,
	FieldSpecies,
	FieldCondition,
	FieldQuantity,
	FieldUnitPrice,
}

var fieldLabels = map[Field]string{
	FieldDate:      "Data da Captura",
	FieldProvider:  "Nome do Provedor",
	FieldOrigin:    "Origem",
	FieldLocation:  "Localização",
	FieldSpecies:   "Espécie",
	FieldCondition: "Estado",
	FieldQuantity:  "Quantidade (Kg)",
	FieldUnitPrice: "Preço Unitário (Kg)",
}

// Label is the Portuguese label shown to the agent.
func (f Field) Label() string {
	if l, ok := fieldLabels[f]; ok {
		return l
	}
	return string(f)
}

// ParseField returns the field named s.
func ParseField(s string) (Field, bool) {
	f := Field(s)
	_, ok := fieldLabels[f]
	return f, ok
}

// Labels maps fields to their labels, keeping order.
func Labels(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Label()
	}
	return out
}
