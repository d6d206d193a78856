package handler

import (
	"github.com/shopspring/decimal"

	"ehopa/internal/insights"
	"ehopa/internal/location"
	"ehopa/internal/registration/models"
	"ehopa/internal/session"
	"ehopa/pkg/domain"
)

// FormView is the full state of a form as the UI renders it.
type FormView struct {
	ID          string       `json:"id"`
	Draft       DraftView    `json:"draft"`
	FieldErrors []FieldError `json:"field_errors"`
	Workflow    WorkflowView `json:"workflow"`
	Location    LocationView `json:"location"`
	Total       string       `json:"total"`
	Locks       LocksView    `json:"locks"`
	Blocked     bool         `json:"blocked"`
	BlockReason string       `json:"block_reason,omitempty"`
	Options     OptionsView  `json:"options"`
	Photos      []PhotoView  `json:"photos"`
	Handoff     string       `json:"handoff_link,omitempty"`
}

type DraftView struct {
	Date      string `json:"date"`
	Provider  string `json:"provider"`
	Origin    string `json:"origin"`
	Species   string `json:"species"`
	Condition string `json:"condition"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

type FieldError struct {
	Field models.Field `json:"field"`
	Label string       `json:"label"`
}

// WorkflowView flattens the submission state. Only the fields relevant to
// Stage are set.
type WorkflowView struct {
	Stage      models.Stage             `json:"stage"`
	Reason     string                   `json:"reason,omitempty"`
	Summary    *models.Confirmation     `json:"summary,omitempty"`
	Record     *models.Record           `json:"record,omitempty"`
	Validation *models.ValidationResult `json:"validation,omitempty"`
}

type LocationView struct {
	Status      location.Status `json:"status"`
	Coordinates string          `json:"coordinates,omitempty"`
	Message     string          `json:"message,omitempty"`
	Pending     bool            `json:"device_request_pending"`
}

type LocksView struct {
	Origin          bool `json:"origin"`
	UnitPrice       bool `json:"unit_price"`
	PriceOverridden bool `json:"price_overridden"`
}

type OptionsView struct {
	Providers  []string        `json:"providers"`
	Origins    []string        `json:"origins"`
	Species    []SpeciesOption `json:"species"`
	Conditions []string        `json:"conditions"`
}

type SpeciesOption struct {
	Name           string `json:"name"`
	SuggestedPrice string `json:"suggested_price,omitempty"`
}

type PhotoView struct {
	Handle string `json:"handle"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

// ValidationErrorResponse is the 422 body for a draft that failed the gate.
type ValidationErrorResponse struct {
	Error       string                  `json:"error"`
	Description string                  `json:"error_description"`
	Validation  models.ValidationResult `json:"validation"`
	Form        *FormView               `json:"form"`
}

// FormErrorResponse is an error body that still carries the form, so the UI
// can keep the draft on screen after a failed send.
type FormErrorResponse struct {
	Error       string    `json:"error"`
	Description string    `json:"error_description,omitempty"`
	Form        *FormView `json:"form"`
}

// ProviderSummaryView renders amounts for display.
type ProviderSummaryView struct {
	insights.ProviderSummary
	TotalKgDisplay string `json:"total_kg_display"`
	RevenueDisplay string `json:"revenue_display"`
}

type RevenueView struct {
	insights.RevenueEstimate
	RevenueDisplay string `json:"revenue_display"`
}

type BalanceView struct {
	Sold      string `json:"sold"`
	Withdrawn string `json:"withdrawn"`
	Balance   string `json:"balance"`
}

func toFormView(sess *session.Session, basePath string) *FormView {
	form := sess.Form()
	snap := form.Snapshot()
	loc := sess.Acquirer().Snapshot()

	view := &FormView{
		ID: sess.ID,
		Draft: DraftView{
			Date:      snap.Draft.Date,
			Provider:  snap.Draft.Provider,
			Origin:    snap.Draft.Origin,
			Species:   snap.Draft.Species,
			Condition: snap.Draft.Condition.String(),
			Quantity:  snap.Draft.Quantity,
			UnitPrice: snap.Draft.UnitPrice,
		},
		FieldErrors: make([]FieldError, 0, len(snap.FieldErrors)),
		Workflow:    toWorkflowView(sess.Coordinator().State()),
		Location: LocationView{
			Status:  loc.Status,
			Message: loc.Message,
			Pending: sess.Bridge().Pending(),
		},
		Total: snap.Total,
		Locks: LocksView{
			Origin:          snap.OriginLocked,
			UnitPrice:       snap.PriceLocked,
			PriceOverridden: snap.PriceOverridden,
		},
		Blocked: snap.Blocked,
		Photos:  make([]PhotoView, 0, len(snap.Images)),
		Handoff: sess.Handoff(),
		Options: OptionsView{
			Origins:    snap.Origins,
			Conditions: []string{domain.ConditionFresh.String(), domain.ConditionFrozen.String()},
		},
	}
	if loc.Sample != nil {
		view.Location.Coordinates = loc.Sample.String()
	}
	if snap.Blocked {
		view.BlockReason = "Não foi possível carregar as listas de dados. Verifique sua conexão."
	}
	for _, f := range snap.FieldErrors {
		view.FieldErrors = append(view.FieldErrors, FieldError{Field: f, Label: f.Label()})
	}
	for _, p := range snap.Images {
		view.Photos = append(view.Photos, PhotoView{
			Handle: p.Handle,
			Width:  p.Width,
			Height: p.Height,
			URL:    basePath + "/forms/" + sess.ID + "/previews/" + p.Handle,
		})
	}
	if refs := form.References(); refs != nil {
		for _, p := range refs.Providers {
			view.Options.Providers = append(view.Options.Providers, p.FullName)
		}
		for _, sp := range refs.Species {
			opt := SpeciesOption{Name: sp.Name}
			if sp.UnitPrice != nil {
				opt.SuggestedPrice = domain.FormatInput(*sp.UnitPrice)
			}
			view.Options.Species = append(view.Options.Species, opt)
		}
	}
	return view
}

func toWorkflowView(st models.State) WorkflowView {
	view := WorkflowView{Stage: st.Stage()}
	switch s := st.(type) {
	case models.Confirming:
		view.Summary = &s.Summary
	case models.Submitting:
		view.Summary = &s.Summary
	case models.Success:
		view.Record = &s.Record
	case models.Failed:
		view.Reason = s.Reason
		view.Validation = s.Validation
	}
	return view
}

func toProviderViews(summaries []insights.ProviderSummary) []ProviderSummaryView {
	out := make([]ProviderSummaryView, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, ProviderSummaryView{
			ProviderSummary: s,
			TotalKgDisplay:  domain.FormatLocale(s.TotalKg),
			RevenueDisplay:  domain.FormatLocale(s.Revenue),
		})
	}
	return out
}

func toBalanceView(sold, withdrawn decimal.Decimal) BalanceView {
	return BalanceView{
		Sold:      domain.FormatLocale(sold),
		Withdrawn: domain.FormatLocale(withdrawn),
		Balance:   domain.FormatLocale(insights.Balance(sold, withdrawn)),
	}
}
