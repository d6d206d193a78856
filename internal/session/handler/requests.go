package handler

import (
	"strings"

	"ehopa/internal/registration/models"
	dErrors "ehopa/pkg/domain-errors"
)

// DraftRequest is the body of PATCH /forms/{id}/draft. Absent fields are
// left untouched; an empty string clears a field.
type DraftRequest struct {
	Date      *string `json:"date" validate:"omitempty,max=10"`
	Provider  *string `json:"provider" validate:"omitempty,max=200"`
	Origin    *string `json:"origin" validate:"omitempty,max=200"`
	Species   *string `json:"species" validate:"omitempty,max=200"`
	Condition *string `json:"condition" validate:"omitempty,max=20"`
	Quantity  *string `json:"quantity" validate:"omitempty,max=20"`
	UnitPrice *string `json:"unit_price" validate:"omitempty,max=20"`
}

// Patch converts the request to a form patch.
func (r *DraftRequest) Patch() models.Patch {
	return models.Patch{
		Date:      r.Date,
		Provider:  r.Provider,
		Origin:    r.Origin,
		Species:   r.Species,
		Condition: r.Condition,
		Quantity:  r.Quantity,
		UnitPrice: r.UnitPrice,
	}
}

// FixRequest is the body of POST /forms/{id}/location/fix: either a fix or
// a platform error code (1 permission denied, 2 unavailable, 3 timeout).
type FixRequest struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,min=-180,max=180"`
	ErrorCode int      `json:"error_code" validate:"omitempty,min=1,max=3"`
}

// Validate checks that exactly one of fix or error code is present.
func (r *FixRequest) Validate() error {
	hasFix := r.Latitude != nil && r.Longitude != nil
	switch {
	case r.ErrorCode != 0 && (r.Latitude != nil || r.Longitude != nil):
		return dErrors.New(dErrors.CodeBadRequest, "send either a fix or an error code")
	case r.ErrorCode == 0 && !hasFix:
		return dErrors.New(dErrors.CodeBadRequest, "latitude and longitude are required")
	}
	return nil
}

// searchQuery normalizes the q parameter.
func searchQuery(q string) string {
	return strings.TrimSpace(q)
}
