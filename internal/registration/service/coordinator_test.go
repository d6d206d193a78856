package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"ehopa/internal/location"
	"ehopa/internal/photos"
	"ehopa/internal/platform/logger"
	"ehopa/internal/reference"
	"ehopa/internal/registration/mocks"
	"ehopa/internal/registration/models"
	"ehopa/internal/sheets"
	"ehopa/pkg/domain"
	dErrors "ehopa/pkg/domain-errors"
	"ehopa/pkg/requestcontext"
)

// fakeLocator hands out a fixed sample and records resets and restarts.
type fakeLocator struct {
	mu     sync.Mutex
	sample *location.Sample
	resets int
	starts int
}

func (l *fakeLocator) Sample() (location.Sample, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.sample == nil {
		return location.Sample{}, false
	}
	return *l.sample, true
}

func (l *fakeLocator) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resets++
	l.sample = nil
}

func (l *fakeLocator) Start(context.Context) <-chan location.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.starts++
	ch := make(chan location.Snapshot)
	close(ch)
	return ch
}

// =============================================================================
// Coordinator Test Suite
// =============================================================================
// Justification for unit tests: the coordinator owns the submission state
// machine and the asymmetric failure policy (remote write blocks, history and
// notification do not). Collaborators are mocked so each branch of the
// pipeline can be forced and the absence of side effects asserted.

type CoordinatorSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	ledger   *mocks.MockLedgerSource
	sink     *mocks.MockRemoteSink
	history  *mocks.MockHistoryRepository
	notifier *mocks.MockNotifier
	archive  *mocks.MockPhotoArchive
	locator  *fakeLocator
	form     *Form
	coord    *Coordinator
	ctx      context.Context
	now      time.Time
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.ledger = mocks.NewMockLedgerSource(s.ctrl)
	s.sink = mocks.NewMockRemoteSink(s.ctrl)
	s.history = mocks.NewMockHistoryRepository(s.ctrl)
	s.notifier = mocks.NewMockNotifier(s.ctrl)
	s.archive = mocks.NewMockPhotoArchive(s.ctrl)
	s.locator = &fakeLocator{sample: &location.Sample{Latitude: -25.96, Longitude: 32.58}}
	s.form = NewForm(testRefs(), PriceEnforced, photos.NewPreviews(64))
	s.now = time.Date(2024, 3, 10, 14, 5, 9, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.coord = s.newCoordinator()
}

func (s *CoordinatorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CoordinatorSuite) newCoordinator(opts ...Option) *Coordinator {
	opts = append([]Option{WithLogger(logger.Discard())}, opts...)
	c, err := NewCoordinator(s.form, s.locator, Deps{
		Sequence: NewSequenceGenerator(s.ledger, "GERAL", logger.Discard(), nil),
		Sink:     s.sink,
		History:  s.history,
		Notifier: s.notifier,
		Archive:  s.archive,
	}, opts...)
	s.Require().NoError(err)
	return c
}

func (s *CoordinatorSuite) fillForm() {
	s.Require().NoError(s.form.Apply(models.Patch{
		Date:      ptr("2024-03-10"),
		Provider:  ptr("Pedro Sitoe"),
		Species:   ptr("Pargo"),
		Condition: ptr("Fresco"),
		Quantity:  ptr("20"),
	}))
}

func (s *CoordinatorSuite) expectLedger(origins ...string) {
	s.ledger.EXPECT().Fetch(gomock.Any(), "GERAL").Return(ledgerTable(origins...), nil)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *CoordinatorSuite) TestNewCoordinator() {
	seq := NewSequenceGenerator(s.ledger, "GERAL", nil, nil)
	full := Deps{Sequence: seq, Sink: s.sink, History: s.history, Notifier: s.notifier}

	s.Run("nil form returns error", func() {
		_, err := NewCoordinator(nil, s.locator, full)
		s.ErrorContains(err, "form is required")
	})

	s.Run("nil locator returns error", func() {
		_, err := NewCoordinator(s.form, nil, full)
		s.ErrorContains(err, "locator is required")
	})

	s.Run("missing sink returns error", func() {
		deps := full
		deps.Sink = nil
		_, err := NewCoordinator(s.form, s.locator, deps)
		s.ErrorContains(err, "remote sink is required")
	})

	s.Run("archive is optional", func() {
		c, err := NewCoordinator(s.form, s.locator, full)
		s.NoError(err)
		s.Equal(models.StageIdle, c.State().Stage())
	})
}

// =============================================================================
// Submission Pipeline
// =============================================================================

func (s *CoordinatorSuite) TestSubmitAndConfirm() {
	s.fillForm()

	st, err := s.coord.Submit(s.ctx)
	s.Require().NoError(err)
	confirming, ok := st.(models.Confirming)
	s.Require().True(ok, "expected confirming, got %s", st.Stage())
	s.Equal("10/03/2024", confirming.Summary.CaptureDate)
	s.Equal("Inhaca", confirming.Summary.Origin)
	s.Equal(domain.Total("20", "150"), confirming.Summary.Total)
	s.Equal("-25.96, 32.58", confirming.Summary.Coordinates)

	s.expectLedger("Inhaca", "Macaneta", "inhaca", "Inhaca", "Costa do Sol", "INHACA")

	var sent map[string]string
	gomock.InOrder(
		s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, row map[string]string) error {
				sent = row
				return nil
			}),
		s.history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil),
		s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(
			func(_ context.Context, summary models.Summary) {
				s.Equal("inhaca_005", summary.Record.GeneratedID)
				s.Equal(domain.FormatLocale(summary.Record.Total()), summary.Total)
				s.Zero(summary.ImageCount)
			}),
	)

	st, err = s.coord.Confirm(s.ctx)
	s.Require().NoError(err)
	success, ok := st.(models.Success)
	s.Require().True(ok, "expected success, got %s", st.Stage())

	rec := success.Record
	s.Equal("inhaca_005", rec.GeneratedID)
	s.Equal("10/03/2024", rec.CaptureDate)
	s.Equal("Pedro Sitoe", rec.Provider)
	s.Equal("Inhaca", rec.Origin)
	s.Equal("Pargo", rec.Species)
	s.Equal("Fresco", rec.Condition)
	s.Equal("20,00", rec.Quantity)
	s.Equal("150,00", rec.UnitPrice)
	s.Equal("-25.96, 32.58", rec.Coordinates)
	s.Equal(s.now, rec.Timestamp)

	s.Equal(rec.Row(), sent)
	s.Equal("10/03/2024 14:05:09", sent[models.ColumnTimestamp])

	snap := s.form.Snapshot()
	s.True(snap.Draft.IsEmpty(), "draft is cleared after success")
	s.Equal(1, s.locator.resets)
	s.Zero(s.locator.starts)
}

func (s *CoordinatorSuite) TestRemoteFailureKeepsDraft() {
	s.fillForm()
	_, err := s.coord.Submit(s.ctx)
	s.Require().NoError(err)

	s.expectLedger()
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).
		Return(&sheets.SinkError{StatusCode: http.StatusInternalServerError})
	// No history or notifier expectations: either call fails the test.

	st, err := s.coord.Confirm(s.ctx)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	failed, ok := st.(models.Failed)
	s.Require().True(ok)
	s.Equal(MsgRemoteFailed, failed.Reason)
	s.Nil(failed.Validation)

	snap := s.form.Snapshot()
	s.Equal("Pedro Sitoe", snap.Draft.Provider)
	s.Equal("20", snap.Draft.Quantity)
	s.Zero(s.locator.resets)
}

func (s *CoordinatorSuite) TestHistoryFailureIsSilent() {
	coord := s.newCoordinator(WithConfirmation(false))
	s.fillForm()

	s.expectLedger()
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	s.history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	st, err := coord.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.StageSuccess, st.Stage())
	s.Equal("inhaca_001", st.(models.Success).Record.GeneratedID)
}

func (s *CoordinatorSuite) TestSequenceFallbackStillSubmits() {
	coord := s.newCoordinator(WithConfirmation(false))
	s.fillForm()

	s.ledger.EXPECT().Fetch(gomock.Any(), "GERAL").Return(sheets.Table{}, errors.New("connection reset"))
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	s.history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any())

	st, err := coord.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal("inhaca_ERROR", st.(models.Success).Record.GeneratedID)
}

func (s *CoordinatorSuite) TestPhotosAreArchived() {
	coord := s.newCoordinator(WithConfirmation(false), WithAutoReacquire(true))
	s.fillForm()
	_, err := s.form.AddImages(pngImage(s.T(), "a.png"), pngImage(s.T(), "b.png"))
	s.Require().NoError(err)

	s.expectLedger("Inhaca")
	s.sink.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	s.history.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)
	s.archive.EXPECT().Put(gomock.Any(), "inhaca_002/1.png", gomock.Any(), "image/png").Return(nil)
	s.archive.EXPECT().Put(gomock.Any(), "inhaca_002/2.png", gomock.Any(), "image/png").Return(errors.New("bucket gone"))
	s.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Do(
		func(_ context.Context, summary models.Summary) {
			s.Equal(2, summary.ImageCount)
		})

	st, err := coord.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.StageSuccess, st.Stage())
	s.Empty(s.form.Images())
	s.Zero(s.form.Previews().Open())
	s.Equal(1, s.locator.starts)
}

// =============================================================================
// Validation and State Transitions
// =============================================================================

func (s *CoordinatorSuite) TestValidationFailure() {
	s.Run("missing field marks the form and makes no calls", func() {
		s.Require().NoError(s.form.Apply(models.Patch{
			Date:      ptr("2024-03-10"),
			Provider:  ptr("Pedro Sitoe"),
			Species:   ptr("Pargo"),
			Condition: ptr("Fresco"),
		}))

		st, err := s.coord.Submit(s.ctx)
		s.Require().NoError(err)
		failed, ok := st.(models.Failed)
		s.Require().True(ok)
		s.Equal(MsgMissingFields, failed.Reason)
		s.Require().NotNil(failed.Validation)
		s.Equal([]models.Field{models.FieldQuantity}, failed.Validation.Missing)
		s.Equal([]models.Field{models.FieldQuantity}, s.form.Snapshot().FieldErrors)
	})

	s.Run("editing leaves the error state", func() {
		s.Require().NoError(s.form.Apply(models.Patch{Quantity: ptr("0")}))
		s.Equal(models.StageIdle, s.coord.State().Stage())
		s.Empty(s.form.Snapshot().FieldErrors)
	})

	s.Run("invalid quantity reports its own message", func() {
		st, err := s.coord.Submit(s.ctx)
		s.Require().NoError(err)
		failed := st.(models.Failed)
		s.Equal(MsgInvalidQuantity, failed.Reason)
		s.Empty(failed.Validation.Missing)
	})

	s.Run("missing location is reported", func() {
		s.locator.sample = nil
		s.Require().NoError(s.form.Apply(models.Patch{Quantity: ptr("20")}))
		st, _ := s.coord.Submit(s.ctx)
		s.Equal([]models.Field{models.FieldLocation}, st.(models.Failed).Validation.Missing)

		s.coord.LocationSettled(location.Snapshot{Status: location.StatusAcquired})
		s.Equal(models.StageIdle, s.coord.State().Stage())
		s.Empty(s.form.Snapshot().FieldErrors)
	})
}

func (s *CoordinatorSuite) TestReferenceUnavailable() {
	form := NewForm(nil, PriceEnforced, nil)
	c, err := NewCoordinator(form, s.locator, Deps{
		Sequence: NewSequenceGenerator(s.ledger, "GERAL", nil, nil),
		Sink:     s.sink,
		History:  s.history,
		Notifier: s.notifier,
	})
	s.Require().NoError(err)

	st, err := c.Submit(s.ctx)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Equal(MsgReferenceUnavailable, st.(models.Failed).Reason)
}

func (s *CoordinatorSuite) TestConfirmationFlow() {
	s.Run("confirm without a pending summary conflicts", func() {
		_, err := s.coord.Confirm(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("cancel returns to idle and keeps the draft", func() {
		s.fillForm()
		st, err := s.coord.Submit(s.ctx)
		s.Require().NoError(err)
		s.Equal(models.StageConfirming, st.Stage())

		st, err = s.coord.Cancel()
		s.Require().NoError(err)
		s.Equal(models.StageIdle, st.Stage())
		s.Equal("Pedro Sitoe", s.form.Snapshot().Draft.Provider)

		_, err = s.coord.Confirm(s.ctx)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("editing while confirming discards the summary", func() {
		_, err := s.coord.Submit(s.ctx)
		s.Require().NoError(err)

		s.Require().NoError(s.form.Apply(models.Patch{Quantity: ptr("25")}))
		s.Equal(models.StageIdle, s.coord.State().Stage())
	})

	s.Run("failed location does not leave the error state", func() {
		s.Require().NoError(s.form.Apply(models.Patch{Quantity: ptr("")}))
		_, err := s.coord.Submit(s.ctx)
		s.Require().NoError(err)

		s.coord.LocationSettled(location.Snapshot{Status: location.StatusTimedOut})
		s.Equal(models.StageError, s.coord.State().Stage())
	})
}

func (s *CoordinatorSuite) TestBuildRecord() {
	d := completeDraft()
	d.Quantity = "12,5"
	d.UnitPrice = "99.999"

	rec, err := BuildRecord("inhaca_003", d, s.now)
	s.Require().NoError(err)
	s.Equal("12,50", rec.Quantity)
	s.Equal("100,00", rec.UnitPrice)

	d.Location = nil
	_, err = BuildRecord("inhaca_003", d, s.now)
	s.Error(err)
}

// =============================================================================
// Concurrency Tests
// =============================================================================
// Justification: draft edits and submissions for one form arrive on separate
// requests. Provider selections grow the origin set while Submit validates
// against it; run with -race.

func (s *CoordinatorSuite) TestEditsDuringSubmitShareOriginsSafely() {
	const rounds = 500
	refs := testRefs()
	for i := 0; i < rounds; i++ {
		refs.Providers = append(refs.Providers, reference.Provider{
			ID:         fmt.Sprintf("prov-x%d", i),
			FullName:   fmt.Sprintf("P%d X", i),
			OriginHint: fmt.Sprintf("Praia %d", i),
		})
	}
	s.form = NewForm(refs, PriceEnforced, photos.NewPreviews(64))
	s.coord = s.newCoordinator()
	s.fillForm()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			s.NoError(s.form.Apply(models.Patch{Provider: ptr(fmt.Sprintf("P%d X", i))}))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			st, err := s.coord.Submit(s.ctx)
			s.NoError(err)
			if f, ok := st.(models.Failed); ok {
				s.Failf("unexpected validation failure", "%s", f.Reason)
			}
		}
	}()
	wg.Wait()

	snap := s.form.Snapshot()
	s.Len(snap.Origins, rounds+3)
	s.Equal(fmt.Sprintf("Praia %d", rounds-1), snap.Draft.Origin)
}
