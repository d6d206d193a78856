package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"ehopa/internal/history/export"
	"ehopa/internal/insights"
	"ehopa/internal/location"
	"ehopa/internal/photos"
	"ehopa/internal/registration/models"
	"ehopa/internal/registration/ports"
	"ehopa/internal/session"
	"ehopa/pkg/domain"
	dErrors "ehopa/pkg/domain-errors"
	"ehopa/pkg/platform/httputil"
	pstrings "ehopa/pkg/platform/strings"
	"ehopa/pkg/requestcontext"
)

const (
	maxUploadBytes = 32 << 20
	photosField    = "photos"

	sourceHistory = "history"
	sourceLedger  = "ledger"
)

// Sessions defines the form lifecycle operations the handler needs.
type Sessions interface {
	Create(ctx context.Context) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Delete(id string) error
	Reload(ctx context.Context, id string) (*session.Session, error)
}

// HistoryReader reads the local submission history, newest first.
type HistoryReader interface {
	Get(ctx context.Context) ([]models.Record, error)
}

// Handler serves the registration form API.
type Handler struct {
	sessions    Sessions
	history     HistoryReader
	ledger      ports.LedgerSource
	ledgerSheet string
	basePath    string
	logger      *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithLedger enables ?source=ledger on the insight endpoints.
func WithLedger(ledger ports.LedgerSource, sheet string) Option {
	return func(h *Handler) {
		h.ledger = ledger
		h.ledgerSheet = sheet
	}
}

// WithBasePath sets the prefix the router is mounted under. Preview URLs in
// responses are built from it.
func WithBasePath(path string) Option {
	return func(h *Handler) {
		h.basePath = strings.TrimSuffix(path, "/")
	}
}

// New constructs a handler.
func New(sessions Sessions, history HistoryReader, opts ...Option) (*Handler, error) {
	if sessions == nil {
		return nil, errors.New("sessions are required")
	}
	if history == nil {
		return nil, errors.New("history reader is required")
	}
	h := &Handler{sessions: sessions, history: history}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h, nil
}

// Register mounts the form, history and insight routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/forms", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Route("/{formID}", func(r chi.Router) {
			r.Use(h.formContext)
			r.Get("/", h.HandleGet)
			r.Delete("/", h.HandleDelete)
			r.Patch("/draft", h.HandlePatchDraft)
			r.Post("/reload", h.HandleReload)
			r.Post("/location", h.HandleStartLocation)
			r.Get("/location/request", h.HandleLocationRequest)
			r.Post("/location/fix", h.HandleLocationFix)
			r.Post("/photos", h.HandleAddPhotos)
			r.Delete("/photos/{index}", h.HandleRemovePhoto)
			r.Get("/previews/{handle}", h.HandlePreview)
			r.Post("/submit", h.HandleSubmit)
			r.Post("/confirm", h.HandleConfirm)
			r.Post("/cancel", h.HandleCancel)
			r.Post("/handoff/ack", h.HandleHandoffAck)
		})
	})
	r.Get("/history", h.HandleHistory)
	r.Get("/history/export.xlsx", h.HandleHistoryExport)
	r.Get("/insights/providers", h.HandleProviders)
	r.Get("/insights/providers/{provider}/balance", h.HandleBalance)
	r.Get("/insights/revenue", h.HandleRevenue)
}

type sessionKey struct{}

func (h *Handler) formContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "formID")
		sess, err := h.sessions.Get(id)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		ctx := requestcontext.WithFormID(r.Context(), id)
		ctx = context.WithValue(ctx, sessionKey{}, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// HandleCreate handles POST /forms.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.sessions.Create(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to open form",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Location", h.basePath+"/forms/"+sess.ID)
	httputil.WriteJSON(w, http.StatusCreated, toFormView(sess, h.basePath))
}

// HandleGet handles GET /forms/{formID}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, toFormView(sessionFrom(r.Context()), h.basePath))
}

// HandleDelete handles DELETE /forms/{formID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(sessionFrom(r.Context()).ID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandlePatchDraft handles PATCH /forms/{formID}/draft.
func (h *Handler) HandlePatchDraft(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	req, err := httputil.DecodeJSON[DraftRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := sess.Form().Apply(req.Patch()); err != nil {
		h.logger.WarnContext(ctx, "draft edit rejected",
			"request_id", requestcontext.RequestID(ctx),
			"form_id", sess.ID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFormView(sess, h.basePath))
}

// HandleReload handles POST /forms/{formID}/reload.
func (h *Handler) HandleReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, err := h.sessions.Reload(ctx, sessionFrom(ctx).ID)
	if err != nil {
		h.logger.WarnContext(ctx, "reference reload failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		h.writeFormError(w, err, sess)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFormView(sess, h.basePath))
}

// HandleStartLocation handles POST /forms/{formID}/location. It starts a
// fresh attempt, superseding any attempt in flight.
func (h *Handler) HandleStartLocation(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	sess.Acquirer().Start(r.Context())
	httputil.WriteJSON(w, http.StatusAccepted, toFormView(sess, h.basePath))
}

// HandleLocationRequest handles GET /forms/{formID}/location/request. The
// device shell polls it to learn whether a fix is wanted.
func (h *Handler) HandleLocationRequest(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]bool{"pending": sess.Bridge().Pending()})
}

// HandleLocationFix handles POST /forms/{formID}/location/fix.
func (h *Handler) HandleLocationFix(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	req, err := httputil.DecodeJSON[FixRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.ErrorCode != 0 {
		err = sess.Bridge().DeliverError(req.ErrorCode)
	} else {
		err = sess.Bridge().Deliver(location.Sample{Latitude: *req.Latitude, Longitude: *req.Longitude})
	}
	if errors.Is(err, location.ErrNoPendingRequest) {
		h.logger.InfoContext(ctx, "dropping unrequested location fix",
			"request_id", requestcontext.RequestID(ctx),
			"form_id", sess.ID,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeConflict, "no location request pending"))
		return
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleAddPhotos handles POST /forms/{formID}/photos, a multipart upload
// with one or more files in the "photos" field.
func (h *Handler) HandleAddPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid multipart body"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File[photosField]
	if len(files) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "no photos uploaded"))
		return
	}
	batch := make([]photos.Image, 0, len(files))
	for _, fh := range files {
		img, err := readUpload(fh)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "failed to read upload"))
			return
		}
		batch = append(batch, img)
	}

	if _, err := sess.Form().AddImages(batch...); err != nil {
		h.logger.WarnContext(ctx, "photo batch rejected",
			"request_id", requestcontext.RequestID(ctx),
			"form_id", sess.ID,
			"count", len(batch),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFormView(sess, h.basePath))
}

func readUpload(fh *multipart.FileHeader) (photos.Image, error) {
	f, err := fh.Open()
	if err != nil {
		return photos.Image{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return photos.Image{}, err
	}
	return photos.Image{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// HandleRemovePhoto handles DELETE /forms/{formID}/photos/{index}. Index is
// zero-based.
func (h *Handler) HandleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "photo index must be a number"))
		return
	}
	if err := sess.Form().RemoveImage(i); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFormView(sess, h.basePath))
}

// HandlePreview handles GET /forms/{formID}/previews/{handle}.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	data, ok := sess.Form().Previews().Get(chi.URLParam(r, "handle"))
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "preview not found"))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleSubmit handles POST /forms/{formID}/submit.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	st, err := sess.Coordinator().Submit(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "submit failed",
			"request_id", requestcontext.RequestID(ctx),
			"form_id", sess.ID,
			"error", err,
		)
		h.writeFormError(w, err, sess)
		return
	}
	if failed, ok := st.(models.Failed); ok && failed.Validation != nil {
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:       string(dErrors.CodeValidation),
			Description: failed.Reason,
			Validation:  *failed.Validation,
			Form:        toFormView(sess, h.basePath),
		})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFormView(sess, h.basePath))
}

// HandleConfirm handles POST /forms/{formID}/confirm.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	if _, err := sess.Coordinator().Confirm(ctx); err != nil {
		h.logger.WarnContext(ctx, "confirm failed",
			"request_id", requestcontext.RequestID(ctx),
			"form_id", sess.ID,
			"error", err,
		)
		h.writeFormError(w, err, sess)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFormView(sess, h.basePath))
}

// HandleCancel handles POST /forms/{formID}/cancel.
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if _, err := sess.Coordinator().Cancel(); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toFormView(sess, h.basePath))
}

// HandleHandoffAck handles POST /forms/{formID}/handoff/ack, sent once the
// UI has opened the pending WhatsApp link.
func (h *Handler) HandleHandoffAck(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).ClearHandoff()
	w.WriteHeader(http.StatusNoContent)
}

// HandleHistory handles GET /history.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	records, ok := h.readHistory(w, r)
	if !ok {
		return
	}
	if records == nil {
		records = []models.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"records": records})
}

// HandleHistoryExport handles GET /history/export.xlsx.
func (h *Handler) HandleHistoryExport(w http.ResponseWriter, r *http.Request) {
	records, ok := h.readHistory(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="historico.xlsx"`)
	if err := export.WriteXLSX(w, records); err != nil {
		h.logger.ErrorContext(r.Context(), "history export failed",
			"request_id", requestcontext.RequestID(r.Context()),
			"error", err,
		)
	}
}

func (h *Handler) readHistory(w http.ResponseWriter, r *http.Request) ([]models.Record, bool) {
	ctx := r.Context()
	records, err := h.history.Get(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read history",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read history"))
		return nil, false
	}
	return records, true
}

// HandleProviders handles GET /insights/providers?q=&source=.
func (h *Handler) HandleProviders(w http.ResponseWriter, r *http.Request) {
	records, ok := h.insightRecords(w, r)
	if !ok {
		return
	}
	summaries := insights.Summarize(records)
	if q := searchQuery(r.URL.Query().Get("q")); q != "" {
		summaries = insights.Search(summaries, q)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"providers": toProviderViews(summaries)})
}

// HandleRevenue handles GET /insights/revenue?source=.
func (h *Handler) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	records, ok := h.insightRecords(w, r)
	if !ok {
		return
	}
	est := insights.Revenue(records)
	httputil.WriteJSON(w, http.StatusOK, RevenueView{
		RevenueEstimate: est,
		RevenueDisplay:  domain.FormatLocale(est.Revenue),
	})
}

// HandleBalance handles GET /insights/providers/{provider}/balance. The
// optional withdrawn parameter is the sum of approved withdrawals.
func (h *Handler) HandleBalance(w http.ResponseWriter, r *http.Request) {
	provider, err := url.PathUnescape(chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid provider"))
		return
	}
	withdrawn := decimal.Zero
	if raw := r.URL.Query().Get("withdrawn"); raw != "" {
		withdrawn, err = domain.ParseAmount(raw)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "withdrawn must be a number"))
			return
		}
	}

	records, ok := h.insightRecords(w, r)
	if !ok {
		return
	}
	for _, s := range insights.Summarize(records) {
		if pstrings.EqualFold(s.Provider, provider) {
			httputil.WriteJSON(w, http.StatusOK, toBalanceView(s.Revenue, withdrawn))
			return
		}
	}
	httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "provider has no submissions"))
}

func (h *Handler) insightRecords(w http.ResponseWriter, r *http.Request) ([]models.Record, bool) {
	ctx := r.Context()
	switch source := r.URL.Query().Get("source"); source {
	case "", sourceHistory:
		return h.readHistory(w, r)
	case sourceLedger:
		if h.ledger == nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "ledger source is not configured"))
			return nil, false
		}
		table, err := h.ledger.Fetch(ctx, h.ledgerSheet)
		if err != nil {
			h.logger.WarnContext(ctx, "failed to read ledger",
				"request_id", requestcontext.RequestID(ctx),
				"sheet", h.ledgerSheet,
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "ledger unavailable"))
			return nil, false
		}
		return insights.ParseLedger(table), true
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "source must be history or ledger"))
		return nil, false
	}
}

// writeFormError writes err with the current form attached when there is
// one. Internal errors never leak their description.
func (h *Handler) writeFormError(w http.ResponseWriter, err error, sess *session.Session) {
	if sess == nil {
		httputil.WriteError(w, err)
		return
	}
	code, ok := dErrors.CodeOf(err)
	if !ok {
		code = dErrors.CodeInternal
	}
	body := FormErrorResponse{Error: string(code), Form: toFormView(sess, h.basePath)}
	if code != dErrors.CodeInternal {
		body.Description = dErrors.MessageOf(err)
	}
	httputil.WriteJSON(w, httputil.StatusFor(code), body)
}
