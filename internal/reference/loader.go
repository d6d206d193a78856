package reference

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"ehopa/internal/platform/logger"
	"ehopa/internal/sheets"
)

// ErrReferenceUnavailable is returned when any reference sheet could not be
// fetched. Submission stays blocked until the agent reloads.
var ErrReferenceUnavailable = errors.New("reference data unavailable")

var tracer = otel.Tracer("ehopa/reference")

// Fetcher reads a named sheet.
type Fetcher interface {
	Fetch(ctx context.Context, sheet string) (sheets.Table, error)
}

// FailureRecorder counts failed loads.
type FailureRecorder interface {
	IncReferenceLoadFailure()
}

// Sheets names the three reference sheets.
type Sheets struct {
	Providers string
	Origins   string
	Species   string
}

// Loader fetches the provider, origin and species sheets concurrently.
type Loader struct {
	fetcher Fetcher
	sheets  Sheets
	logger  *slog.Logger
	metrics FailureRecorder
}

// Option configures a Loader.
type Option func(*Loader)

func WithLogger(l *slog.Logger) Option {
	return func(ld *Loader) {
		ld.logger = l
	}
}

func WithMetrics(m FailureRecorder) Option {
	return func(ld *Loader) {
		ld.metrics = m
	}
}

// NewLoader builds a loader reading names from fetcher.
func NewLoader(fetcher Fetcher, names Sheets, opts ...Option) *Loader {
	ld := &Loader{
		fetcher: fetcher,
		sheets:  names,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// Load fetches all three sheets. A failure of any fetch fails the whole load
// with ErrReferenceUnavailable; there is no automatic retry.
func (ld *Loader) Load(ctx context.Context) (*Set, error) {
	ctx, span := tracer.Start(ctx, "reference.Load")
	defer span.End()
	start := time.Now()

	var providers, origins, species sheets.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := ld.fetcher.Fetch(gctx, ld.sheets.Providers)
		providers = t
		return err
	})
	g.Go(func() error {
		t, err := ld.fetcher.Fetch(gctx, ld.sheets.Origins)
		origins = t
		return err
	})
	g.Go(func() error {
		t, err := ld.fetcher.Fetch(gctx, ld.sheets.Species)
		species = t
		return err
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "reference load failed")
		if ld.metrics != nil {
			ld.metrics.IncReferenceLoadFailure()
		}
		ld.logger.ErrorContext(ctx, "reference data load failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrReferenceUnavailable, err)
	}

	set := &Set{
		Providers: ParseProviders(providers),
		Origins:   ParseOrigins(origins),
		Species:   ParseSpecies(species),
	}
	span.SetAttributes(
		attribute.Int("reference.providers", len(set.Providers)),
		attribute.Int("reference.origins", set.Origins.Len()),
		attribute.Int("reference.species", len(set.Species)),
	)
	ld.logger.InfoContext(ctx, "reference data loaded",
		"providers", len(set.Providers),
		"origins", set.Origins.Len(),
		"species", len(set.Species),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return set, nil
}
