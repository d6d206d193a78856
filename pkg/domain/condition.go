package domain

import (
	"strings"

	dErrors "ehopa/pkg/domain-errors"
)

// Condition is the preservation state of a catch.
type Condition string

const (
	ConditionFresh  Condition = "Fresco"
	ConditionFrozen Condition = "Congelado"
)

// ParseCondition accepts either condition in any letter case.
func ParseCondition(s string) (Condition, error) {
	switch {
	case strings.EqualFold(strings.TrimSpace(s), string(ConditionFresh)):
		return ConditionFresh, nil
	case strings.EqualFold(strings.TrimSpace(s), string(ConditionFrozen)):
		return ConditionFrozen, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "condition must be Fresco or Congelado")
}

func (c Condition) String() string {
	return string(c)
}

// IsValid reports whether c is one of the known conditions.
func (c Condition) IsValid() bool {
	return c == ConditionFresh || c == ConditionFrozen
}
