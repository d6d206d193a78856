package service

import (
	"strings"

	"ehopa/internal/reference"
	"ehopa/internal/registration/models"
	"ehopa/pkg/domain"
)

// Messages shown for semantic rejections.
const (
	MsgInvalidDate      = "Por favor, insira uma data de captura válida."
	MsgInvalidQuantity  = "Por favor, insira uma quantidade válida maior que 0."
	MsgInvalidPrice     = "Por favor, insira um preço unitário válido."
	MsgInvalidCondition = "Por favor, selecione o estado: Fresco ou Congelado."
	MsgUnknownProvider  = "Provedor não encontrado. Contacte o administrador para cadastro."
	MsgUnknownOrigin    = "Origem não encontrada na lista permitida."
	MsgUnknownSpecies   = "Espécie não encontrada na lista permitida."
	MsgOriginCase       = "Origem ajustada para a grafia da lista permitida."
)

// Validate checks d against the loaded reference data.
//
// When any required field is empty, only the missing fields are reported,
// in declaration order. Otherwise each semantic check runs and every failure
// is reported. The origin is checked against the set as extended by
// provider selection; an origin that only differs in letter case is a
// warning and is submitted in its canonical spelling.
func Validate(d models.Draft, refs *reference.Set) models.ValidationResult {
	var res models.ValidationResult

	for _, f := range models.FieldOrder {
		if isEmpty(d, f) {
			res.Missing = append(res.Missing, f)
		}
	}
	if len(res.Missing) > 0 {
		return res
	}

	if _, err := domain.FormatCaptureDate(d.Date); err != nil {
		res.Invalid = append(res.Invalid, models.Issue{Field: models.FieldDate, Message: MsgInvalidDate})
	}
	if refs != nil {
		if _, ok := refs.Provider(d.Provider); !ok {
			res.Invalid = append(res.Invalid, models.Issue{Field: models.FieldProvider, Message: MsgUnknownProvider})
		}
		if !refs.Origins.Contains(d.Origin) {
			if _, ok := refs.Origins.Find(d.Origin); ok {
				res.Warnings = append(res.Warnings, models.Issue{Field: models.FieldOrigin, Message: MsgOriginCase})
			} else {
				res.Invalid = append(res.Invalid, models.Issue{Field: models.FieldOrigin, Message: MsgUnknownOrigin})
			}
		}
		if _, ok := refs.SpeciesNamed(d.Species); !ok {
			res.Invalid = append(res.Invalid, models.Issue{Field: models.FieldSpecies, Message: MsgUnknownSpecies})
		}
	}
	if !d.Condition.IsValid() {
		res.Invalid = append(res.Invalid, models.Issue{Field: models.FieldCondition, Message: MsgInvalidCondition})
	}
	if _, err := domain.ParseQuantity(d.Quantity); err != nil {
		res.Invalid = append(res.Invalid, models.Issue{Field: models.FieldQuantity, Message: MsgInvalidQuantity})
	}
	if _, err := domain.ParsePrice(d.UnitPrice); err != nil {
		res.Invalid = append(res.Invalid, models.Issue{Field: models.FieldUnitPrice, Message: MsgInvalidPrice})
	}
	return res
}

func isEmpty(d models.Draft, f models.Field) bool {
	switch f {
	case models.FieldDate:
		return strings.TrimSpace(d.Date) == ""
	case models.FieldProvider:
		return strings.TrimSpace(d.Provider) == ""
	case models.FieldOrigin:
		return strings.TrimSpace(d.Origin) == ""
	case models.FieldLocation:
		return d.Location == nil
	case models.FieldSpecies:
		return strings.TrimSpace(d.Species) == ""
	case models.FieldCondition:
		return strings.TrimSpace(string(d.Condition)) == ""
	case models.FieldQuantity:
		return strings.TrimSpace(d.Quantity) == ""
	case models.FieldUnitPrice:
		return strings.TrimSpace(d.UnitPrice) == ""
	}
	return false
}
