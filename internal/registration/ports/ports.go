// Package ports defines the collaborators of the submission workflow.
package ports

import (
	"context"

	"ehopa/internal/registration/models"
	"ehopa/internal/sheets"
)

//go:generate mockgen -source=ports.go -destination=../mocks/mocks.go -package=mocks

// RemoteSink appends a row to the master sheet. Keys are column headers.
type RemoteSink interface {
	Append(ctx context.Context, row map[string]string) error
}

// LedgerSource reads a named sheet, used to count prior submissions.
type LedgerSource interface {
	Fetch(ctx context.Context, sheet string) (sheets.Table, error)
}

// HistoryRepository is the device-local list of submitted records, newest
// first.
type HistoryRepository interface {
	Get(ctx context.Context) ([]models.Record, error)
	Put(ctx context.Context, records []models.Record) error
	// Append prepends record.
	Append(ctx context.Context, record models.Record) error
}

// Notifier hands a submission off to an outbound channel. It has no error
// return: handoff failures are the notifier's own concern.
type Notifier interface {
	Notify(ctx context.Context, summary models.Summary)
}

// PhotoArchive stores the photos of a submitted registration.
type PhotoArchive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
