package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ehopa/internal/platform/logger"
	"ehopa/internal/registration/ports"
	"ehopa/internal/sheets"
	pstrings "ehopa/pkg/platform/strings"
)

// FallbackRecorder counts IDs that used a fallback suffix.
type FallbackRecorder interface {
	IncSequenceFallback(kind string)
}

// SequenceGenerator derives submission IDs of the form {slug}_{NNN}, where
// NNN is one more than the number of master ledger rows for the same origin.
//
// The count is read, then used, with no lock and no server-side counter.
// Two agents submitting for the same origin at the same time can receive
// the same ID. This is a known consistency gap.
type SequenceGenerator struct {
	ledger  ports.LedgerSource
	sheet   string
	logger  *slog.Logger
	metrics FallbackRecorder
}

// NewSequenceGenerator counts rows of the named ledger sheet.
func NewSequenceGenerator(ledger ports.LedgerSource, sheet string, log *slog.Logger, metrics FallbackRecorder) *SequenceGenerator {
	if log == nil {
		log = logger.Discard()
	}
	return &SequenceGenerator{ledger: ledger, sheet: sheet, logger: log, metrics: metrics}
}

// Next returns the ID for a new submission to origin. It never fails: a
// ledger that answers with an error status yields sequence 001, and any
// other failure yields the sentinel suffix _ERROR so operators can spot and
// renumber the row.
func (g *SequenceGenerator) Next(ctx context.Context, origin string) string {
	slug := pstrings.Slug(origin)

	table, err := g.ledger.Fetch(ctx, g.sheet)
	if err != nil {
		var feedErr *sheets.FeedError
		if errors.As(err, &feedErr) {
			g.fallback(ctx, "http_status", origin, err)
			return FormatID(slug, 1)
		}
		g.fallback(ctx, "error", origin, err)
		return slug + "_ERROR"
	}

	return FormatID(slug, CountOrigin(table, origin)+1)
}

// FormatID joins a slug and a sequence number padded to three digits.
func FormatID(slug string, seq int) string {
	return fmt.Sprintf("%s_%03d", slug, seq)
}

// CountOrigin counts ledger rows whose origin column equals origin,
// ignoring case. The origin column is the first header containing "origem"
// or "praia". A ledger without one counts zero.
func CountOrigin(t sheets.Table, origin string) int {
	col := t.Column(func(h string) bool {
		lower := strings.ToLower(h)
		return strings.Contains(lower, "origem") || strings.Contains(lower, "praia")
	})
	if col < 0 {
		return 0
	}
	target := strings.TrimSpace(origin)
	n := 0
	for _, row := range t.Rows {
		if v := sheets.Cell(row, col); v != "" && strings.EqualFold(v, target) {
			n++
		}
	}
	return n
}

func (g *SequenceGenerator) fallback(ctx context.Context, kind, origin string, err error) {
	if g.metrics != nil {
		g.metrics.IncSequenceFallback(kind)
	}
	g.logger.WarnContext(ctx, "sequence lookup failed, using fallback id",
		"origin", origin,
		"kind", kind,
		"error", err,
	)
}
