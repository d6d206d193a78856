package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"ehopa/internal/location"
	"ehopa/internal/photos"
	"ehopa/internal/registration/metrics"
	"ehopa/internal/registration/models"
	"ehopa/internal/registration/ports"
	"ehopa/pkg/domain"
	dErrors "ehopa/pkg/domain-errors"
	"ehopa/pkg/requestcontext"
)

var tracer = otel.Tracer("ehopa/registration")

// Reasons shown in the error state.
const (
	MsgMissingFields        = "Por favor, preencha todos os campos obrigatórios e capture a localização."
	MsgReferenceUnavailable = "Não foi possível carregar as listas de dados. Verifique sua conexão."
	MsgRemoteFailed         = "Falha ao enviar o registo. Verifique sua conexão e tente novamente."
)

// Submission outcomes recorded in metrics.
const (
	outcomeSuccess     = "success"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "reference_unavailable"
	outcomeRemoteError = "remote_error"
)

// Locator is the location source a coordinator reads the fix from and
// resets after a successful submission.
type Locator interface {
	Sample() (location.Sample, bool)
	Reset()
	Start(ctx context.Context) <-chan location.Snapshot
}

// Deps are the collaborators of a coordinator. Archive is optional.
type Deps struct {
	Sequence *SequenceGenerator
	Sink     ports.RemoteSink
	History  ports.HistoryRepository
	Notifier ports.Notifier
	Archive  ports.PhotoArchive
}

// Coordinator drives one form through validation, confirmation and
// submission.
//
// Lock order is coordinator then form; form callbacks run without the form
// lock held.
type Coordinator struct {
	form    *Form
	locator Locator
	deps    Deps

	confirm       bool
	autoReacquire bool
	logger        *slog.Logger
	metrics       *metrics.Metrics

	mu    sync.Mutex
	state models.State
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithConfirmation toggles the confirmation step. It is on by default.
func WithConfirmation(enabled bool) Option {
	return func(c *Coordinator) {
		c.confirm = enabled
	}
}

// WithAutoReacquire starts a new location request after each successful
// submission.
func WithAutoReacquire(enabled bool) Option {
	return func(c *Coordinator) {
		c.autoReacquire = enabled
	}
}

// NewCoordinator wires a coordinator to form. Sequence, Sink, History and
// Notifier are required.
func NewCoordinator(form *Form, locator Locator, deps Deps, opts ...Option) (*Coordinator, error) {
	if form == nil {
		return nil, errors.New("form is required")
	}
	if locator == nil {
		return nil, errors.New("locator is required")
	}
	if deps.Sequence == nil {
		return nil, errors.New("sequence generator is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("remote sink is required")
	}
	if deps.History == nil {
		return nil, errors.New("history repository is required")
	}
	if deps.Notifier == nil {
		return nil, errors.New("notifier is required")
	}

	c := &Coordinator{
		form:    form,
		locator: locator,
		deps:    deps,
		confirm: true,
		state:   models.Idle{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	form.setOnEdit(c.draftChanged)
	return c, nil
}

// Form returns the form the coordinator drives.
func (c *Coordinator) Form() *Form {
	return c.form
}

// State returns the current workflow state.
func (c *Coordinator) State() models.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Submit validates the draft. A valid draft moves to Confirming, or straight
// to submission when confirmation is disabled. Validation failures are
// reported through the Failed state, not the error.
func (c *Coordinator) Submit(ctx context.Context) (models.State, error) {
	c.mu.Lock()
	switch c.state.(type) {
	case models.Validating, models.Submitting:
		st := c.state
		c.mu.Unlock()
		return st, dErrors.New(dErrors.CodeConflict, "a submission is already in progress")
	}
	c.state = models.Validating{}
	c.mu.Unlock()

	var sample *location.Sample
	if s, ok := c.locator.Sample(); ok {
		sample = &s
	}
	draft, res, loaded := c.form.validate(sample)
	if !loaded {
		c.metrics.IncSubmission(outcomeUnavailable)
		st := c.setState(models.Failed{Reason: MsgReferenceUnavailable})
		return st, dErrors.New(dErrors.CodeUnavailable, MsgReferenceUnavailable)
	}
	if !res.OK() {
		c.metrics.IncSubmission(outcomeInvalid)
		return c.setState(models.Failed{Reason: failureReason(res), Validation: &res}), nil
	}

	summary := Summarize(draft, c.form.imageCount())
	if c.confirm {
		return c.setState(models.Confirming{Summary: summary, Draft: draft}), nil
	}
	c.setState(models.Submitting{Summary: summary})
	return c.execute(ctx, draft)
}

// Confirm submits the draft held by the Confirming state.
func (c *Coordinator) Confirm(ctx context.Context) (models.State, error) {
	c.mu.Lock()
	st, ok := c.state.(models.Confirming)
	if !ok {
		cur := c.state
		c.mu.Unlock()
		return cur, dErrors.New(dErrors.CodeConflict, "nothing to confirm")
	}
	c.state = models.Submitting{Summary: st.Summary}
	c.mu.Unlock()

	return c.execute(ctx, st.Draft)
}

// Cancel returns to Idle, keeping the draft. A submission in flight cannot
// be cancelled.
func (c *Coordinator) Cancel() (models.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.(type) {
	case models.Validating, models.Submitting:
		return c.state, dErrors.New(dErrors.CodeConflict, "a submission is in progress")
	}
	c.state = models.Idle{}
	return c.state, nil
}

// LocationSettled reacts to a settled location request. A fix clears the
// location error and leaves the error state.
func (c *Coordinator) LocationSettled(snap location.Snapshot) {
	if snap.Status != location.StatusAcquired {
		return
	}
	c.form.ClearFieldError(models.FieldLocation)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.state.(models.Failed); ok {
		c.state = models.Idle{}
	}
}

// draftChanged leaves any state that describes an older draft.
func (c *Coordinator) draftChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state.(type) {
	case models.Failed, models.Confirming, models.Success:
		c.state = models.Idle{}
	}
}

func (c *Coordinator) setState(st models.State) models.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
	return st
}

// execute runs the submission pipeline. Once started it is not tied to the
// caller's context: an abandoned request must not leave a half-written
// record or a placeholder ID behind.
func (c *Coordinator) execute(ctx context.Context, draft models.Draft) (models.State, error) {
	ctx = context.WithoutCancel(ctx)
	ctx, span := tracer.Start(ctx, "registration.Submit")
	defer span.End()
	defer c.metrics.ObserveSubmit(time.Now())

	images := c.form.Images()

	id := c.deps.Sequence.Next(ctx, draft.Origin)
	span.SetAttributes(attribute.String("registration.id", id))

	record, err := BuildRecord(id, draft, requestcontext.Now(ctx))
	if err != nil {
		// Validation already parsed every field; reaching here is a bug.
		span.RecordError(err)
		span.SetStatus(codes.Error, "build record")
		c.metrics.IncSubmission(outcomeRemoteError)
		c.setState(models.Failed{Reason: MsgRemoteFailed})
		return c.State(), dErrors.Wrap(err, dErrors.CodeInvariantViolation, "failed to build record")
	}

	if err := c.deps.Sink.Append(ctx, record.Row()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "remote append")
		c.logger.ErrorContext(ctx, "remote append failed",
			"form_id", requestcontext.FormID(ctx),
			"id", id,
			"error", err,
		)
		c.metrics.IncSubmission(outcomeRemoteError)
		st := c.setState(models.Failed{Reason: MsgRemoteFailed})
		return st, dErrors.Wrap(err, dErrors.CodeUnavailable, MsgRemoteFailed)
	}

	if err := c.deps.History.Append(ctx, record); err != nil {
		c.logger.WarnContext(ctx, "history write failed",
			"id", id,
			"error", err,
		)
		c.metrics.IncHistoryWriteFailure()
	}

	c.archive(ctx, id, images)

	c.deps.Notifier.Notify(ctx, models.Summary{
		Record:     record,
		Total:      domain.FormatLocale(record.Total()),
		ImageCount: len(images),
	})

	c.form.reset()
	c.locator.Reset()
	if c.autoReacquire {
		c.locator.Start(ctx)
	}

	c.metrics.IncSubmission(outcomeSuccess)
	c.logger.InfoContext(ctx, "registration submitted",
		"form_id", requestcontext.FormID(ctx),
		"id", id,
		"origin", record.Origin,
		"images", len(images),
	)
	return c.setState(models.Success{Record: record}), nil
}

// archive stores the photos of a submitted record. Failures are logged; the
// record is already written.
func (c *Coordinator) archive(ctx context.Context, id string, images []photos.Image) {
	if c.deps.Archive == nil {
		return
	}
	for i, img := range images {
		key := photos.Key(id, i+1, img.ContentType)
		if err := c.deps.Archive.Put(ctx, key, img.Data, img.ContentType); err != nil {
			c.logger.WarnContext(ctx, "photo archive failed",
				"id", id,
				"key", key,
				"error", err,
			)
		}
	}
}

// BuildRecord renders a validated draft as a master sheet record.
func BuildRecord(id string, d models.Draft, now time.Time) (models.Record, error) {
	date, err := domain.FormatCaptureDate(d.Date)
	if err != nil {
		return models.Record{}, err
	}
	qty, err := domain.ParseQuantity(d.Quantity)
	if err != nil {
		return models.Record{}, err
	}
	price, err := domain.ParsePrice(d.UnitPrice)
	if err != nil {
		return models.Record{}, err
	}
	if d.Location == nil {
		return models.Record{}, errors.New("location is required")
	}
	return models.Record{
		GeneratedID: id,
		CaptureDate: date,
		Species:     d.Species,
		Quantity:    domain.FormatSheet(qty),
		UnitPrice:   domain.FormatSheet(price),
		Condition:   d.Condition.String(),
		Provider:    d.Provider,
		Origin:      d.Origin,
		Coordinates: d.Location.String(),
		Timestamp:   now,
	}, nil
}

// Summarize renders the summary shown before submitting.
func Summarize(d models.Draft, imageCount int) models.Confirmation {
	out := models.Confirmation{
		Provider:   d.Provider,
		Origin:     d.Origin,
		Species:    d.Species,
		Condition:  d.Condition.String(),
		Quantity:   d.Quantity,
		UnitPrice:  d.UnitPrice,
		Total:      domain.Total(d.Quantity, d.UnitPrice),
		ImageCount: imageCount,
	}
	if date, err := domain.FormatCaptureDate(d.Date); err == nil {
		out.CaptureDate = date
	}
	if d.Location != nil {
		out.Coordinates = d.Location.String()
	}
	return out
}

func failureReason(res models.ValidationResult) string {
	if len(res.Missing) > 0 {
		return MsgMissingFields
	}
	msgs := make([]string, 0, len(res.Invalid))
	for _, issue := range res.Invalid {
		msgs = append(msgs, issue.Message)
	}
	return strings.Join(msgs, " ")
}

