package domain

import (
	"strings"
	"time"

	dErrors "ehopa/pkg/domain-errors"
)

const (
	// InputDateLayout is the ISO calendar date the form collects.
	InputDateLayout = "2006-01-02"
	// SheetDateLayout is the day/month/year layout stored in the master sheet.
	SheetDateLayout = "02/01/2006"
)

// FormatCaptureDate converts an ISO capture date (2024-03-10) to the sheet
// layout (10/03/2024).
func FormatCaptureDate(iso string) (string, error) {
	t, err := time.Parse(InputDateLayout, strings.TrimSpace(iso))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInvalidInput, "capture date must be YYYY-MM-DD")
	}
	return t.Format(SheetDateLayout), nil
}

// ParseSheetDate parses a day/month/year date written by the sheet.
func ParseSheetDate(s string) (time.Time, error) {
	t, err := time.Parse(SheetDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "date must be DD/MM/YYYY")
	}
	return t, nil
}

// Today returns now as an ISO input date.
func Today(now time.Time) string {
	return now.Format(InputDateLayout)
}
