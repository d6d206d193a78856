package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Feed clients and the form
// return these (optionally wrapped) so callers can translate them
// into domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrUnavailable: remote feed or sink answered with a failure status
// - ErrReadOnly: field is derived and cannot be edited directly
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrUnavailable = errors.New("unavailable")
	ErrReadOnly    = errors.New("read only")
)
