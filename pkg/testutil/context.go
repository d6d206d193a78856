package testutil

import (
	"context"
	"net/http"
	"time"

	"ehopa/pkg/requestcontext"
)

// WithRequestID adds a request ID to the request context, as the
// RequestContext middleware would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithFormID adds a form ID to the request context.
func WithFormID(req *http.Request, formID string) *http.Request {
	return req.WithContext(requestcontext.WithFormID(req.Context(), formID))
}

// AtTime pins the request-scoped clock so timestamps in responses are
// deterministic.
func AtTime(req *http.Request, now time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), now))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
