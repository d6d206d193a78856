package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ehopa/internal/location"
	"ehopa/internal/notify"
	"ehopa/internal/notify/whatsapp"
	"ehopa/internal/photos"
	"ehopa/internal/reference"
	"ehopa/internal/registration/metrics"
	"ehopa/internal/registration/ports"
	"ehopa/internal/registration/service"
	dErrors "ehopa/pkg/domain-errors"
	"ehopa/pkg/requestcontext"
)

// ReferenceLoader loads the three reference lists.
type ReferenceLoader interface {
	Load(ctx context.Context) (*reference.Set, error)
}

// Deps are shared by every form the manager creates.
type Deps struct {
	References  ReferenceLoader
	Ledger      ports.LedgerSource
	LedgerSheet string
	Sink        ports.RemoteSink
	History     ports.HistoryRepository
	// Notifier receives every submission. Per-form WhatsApp handoff is
	// added on top when enabled.
	Notifier ports.Notifier
	Archive  ports.PhotoArchive
}

// Settings tune each new form.
type Settings struct {
	PricePolicy     service.PricePolicy
	Confirm         bool
	AutoReacquire   bool
	LocationTimeout time.Duration
	PreviewSize     int
	WhatsApp        bool
	WhatsAppNumber  string
}

// Manager creates, finds and discards forms.
type Manager struct {
	deps     Deps
	settings Settings
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithMetrics sets the metrics collector shared by every form.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// NewManager validates deps. Archive and Notifier are optional.
func NewManager(deps Deps, settings Settings, opts ...Option) (*Manager, error) {
	if deps.References == nil {
		return nil, errors.New("reference loader is required")
	}
	if deps.Ledger == nil {
		return nil, errors.New("ledger source is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("remote sink is required")
	}
	if deps.History == nil {
		return nil, errors.New("history repository is required")
	}
	if settings.PricePolicy == "" {
		settings.PricePolicy = service.PriceEnforced
	}
	m := &Manager{
		deps:     deps,
		settings: settings,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m, nil
}

// Create opens a form, loads its reference data and starts acquiring a
// location. A reference load failure still yields a form; it is blocked
// until Reload succeeds.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	ctx = requestcontext.WithFormID(ctx, id)

	refs, loadErr := m.deps.References.Load(ctx)
	if loadErr != nil {
		m.logger.WarnContext(ctx, "form opened without reference data",
			"form_id", id,
			"error", loadErr,
		)
	}

	sess := &Session{
		ID:        id,
		CreatedAt: requestcontext.Now(ctx),
		bridge:    location.NewBridge(),
		loadErr:   loadErr,
	}

	form := service.NewForm(refs, m.settings.PricePolicy, photos.NewPreviews(m.settings.PreviewSize))

	var coord *service.Coordinator
	sess.acquirer = location.NewAcquirer(sess.bridge,
		location.WithTimeout(m.settings.LocationTimeout),
		location.WithLogger(m.logger),
		location.WithMetrics(m.metrics),
		location.WithOnSettle(func(snap location.Snapshot) {
			coord.LocationSettled(snap)
		}),
	)

	coord, err := service.NewCoordinator(form, sess.acquirer, service.Deps{
		Sequence: service.NewSequenceGenerator(m.deps.Ledger, m.deps.LedgerSheet, m.logger, m.metrics),
		Sink:     m.deps.Sink,
		History:  m.deps.History,
		Notifier: m.notifierFor(sess),
		Archive:  m.deps.Archive,
	},
		service.WithLogger(m.logger),
		service.WithMetrics(m.metrics),
		service.WithConfirmation(m.settings.Confirm),
		service.WithAutoReacquire(m.settings.AutoReacquire),
	)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create form")
	}
	sess.coordinator = coord

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	sess.acquirer.Start(ctx)
	m.logger.InfoContext(ctx, "form opened", "form_id", id, "blocked", refs == nil)
	return sess, nil
}

// Get returns the form with id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "form not found")
	}
	return sess, nil
}

// Delete discards a form and frees its previews.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return dErrors.New(dErrors.CodeNotFound, "form not found")
	}
	sess.acquirer.Reset()
	sess.Form().Previews().ReleaseAll()
	return nil
}

// Reload fetches reference data again for a form, typically one that opened
// blocked.
func (m *Manager) Reload(ctx context.Context, id string) (*Session, error) {
	sess, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	refs, err := m.deps.References.Load(requestcontext.WithFormID(ctx, id))
	sess.setLoadError(err)
	if err != nil {
		return sess, dErrors.Wrap(err, dErrors.CodeUnavailable, "Não foi possível carregar as listas de dados. Verifique sua conexão.")
	}
	sess.Form().SetReferences(refs)
	return sess, nil
}

// Len returns the number of open forms.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) notifierFor(sess *Session) ports.Notifier {
	var out notify.Fanout
	if m.deps.Notifier != nil {
		out = append(out, m.deps.Notifier)
	}
	if m.settings.WhatsApp {
		out = append(out, whatsapp.New(m.settings.WhatsAppNumber, sess, whatsapp.WithLogger(m.logger)))
	}
	return out
}
