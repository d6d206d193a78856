package location

import (
	"errors"
	"strconv"
	"time"
)

// Status is the acquisition state.
type Status string

const (
	StatusIdle              Status = "idle"
	StatusAcquiring         Status = "acquiring"
	StatusAcquired          Status = "acquired"
	StatusPermissionDenied  Status = "permission_denied"
	StatusSignalUnavailable Status = "signal_unavailable"
	StatusTimedOut          Status = "timed_out"
)

// IsFailure reports whether s is one of the three failure outcomes.
func (s Status) IsFailure() bool {
	switch s {
	case StatusPermissionDenied, StatusSignalUnavailable, StatusTimedOut:
		return true
	}
	return false
}

// Guidance returns the message shown to the agent for a failure status.
func (s Status) Guidance() string {
	switch s {
	case StatusPermissionDenied:
		return "Permissão de localização negada."
	case StatusSignalUnavailable:
		return "Sinal de GPS indisponível. Ative a localização do dispositivo."
	case StatusTimedOut:
		return "O tempo para obter a localização esgotou."
	default:
		return ""
	}
}

// Sample is a single GPS fix.
type Sample struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the sample as the sheet's coordinate string, "lat, lng".
func (s Sample) String() string {
	return strconv.FormatFloat(s.Latitude, 'f', -1, 64) + ", " + strconv.FormatFloat(s.Longitude, 'f', -1, 64)
}

// Options configure a single position request.
type Options struct {
	HighAccuracy bool
	Timeout      time.Duration
	// MaximumAge is the oldest cached fix the platform may return. The
	// acquirer always requests zero.
	MaximumAge time.Duration
}

// Snapshot is a point-in-time view of the acquirer. Sample is the last good
// fix and survives later failed or in-flight attempts.
type Snapshot struct {
	Status  Status  `json:"status"`
	Sample  *Sample `json:"sample,omitempty"`
	Message string  `json:"message,omitempty"`
	Attempt uint64  `json:"attempt"`
}

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrPositionUnavailable = errors.New("position unavailable")
	ErrTimeout             = errors.New("location request timed out")
	// ErrNoPendingRequest is returned when a device delivers a fix nobody
	// asked for. Unrequested fixes are dropped rather than cached.
	ErrNoPendingRequest = errors.New("no location request pending")

	errSuperseded = errors.New("location request superseded")
)

// ErrorForCode maps a platform geolocation error code (1 permission denied,
// 2 position unavailable, 3 timeout) to an error. Unknown codes are treated
// as an unavailable signal.
func ErrorForCode(code int) error {
	switch code {
	case 1:
		return ErrPermissionDenied
	case 3:
		return ErrTimeout
	default:
		return ErrPositionUnavailable
	}
}
