package service

import (
	"strings"
	"sync"

	"ehopa/internal/location"
	"ehopa/internal/photos"
	"ehopa/internal/reference"
	"ehopa/internal/registration/models"
	"ehopa/pkg/domain"
	dErrors "ehopa/pkg/domain-errors"
	"ehopa/pkg/platform/sentinel"
)

// PricePolicy decides whether derived values may be edited.
type PricePolicy string

const (
	// PriceEnforced makes the unit price read-only once a species supplies
	// a suggestion, and the origin read-only once a provider supplies one.
	PriceEnforced PricePolicy = "enforced"
	// PricePermissive lets the agent override both; an edited price is
	// flagged as overridden until the next species selection.
	PricePermissive PricePolicy = "permissive"
)

// ParsePricePolicy defaults to PriceEnforced for unknown values.
func ParsePricePolicy(s string) PricePolicy {
	if PricePolicy(strings.ToLower(strings.TrimSpace(s))) == PricePermissive {
		return PricePermissive
	}
	return PriceEnforced
}

// FormSnapshot is a consistent copy of a form's state.
type FormSnapshot struct {
	Draft           models.Draft
	Images          []photos.Preview
	FieldErrors     []models.Field
	OriginDerived   bool
	OriginLocked    bool
	PriceSuggested  bool
	PriceLocked     bool
	PriceOverridden bool
	Total           string
	Blocked         bool
	Origins         []string
}

// Form owns one draft registration, its reference data and its photo
// previews. It resolves dependent fields as the agent edits.
type Form struct {
	policy   PricePolicy
	previews *photos.Previews

	mu              sync.Mutex
	refs            *reference.Set
	draft           models.Draft
	images          photos.Attachments
	imagePreviews   []photos.Preview
	fieldErrors     map[models.Field]bool
	originDerived   bool
	priceSuggested  bool
	priceOverridden bool
	onEdit          func()
}

// NewForm returns an empty form. A nil refs leaves the form blocked until
// SetReferences is called with loaded data.
func NewForm(refs *reference.Set, policy PricePolicy, previews *photos.Previews) *Form {
	if previews == nil {
		previews = photos.NewPreviews(0)
	}
	return &Form{
		policy:      policy,
		previews:    previews,
		refs:        refs,
		fieldErrors: make(map[models.Field]bool),
	}
}

// SetReferences installs freshly loaded reference data.
func (f *Form) SetReferences(refs *reference.Set) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refs = refs
}

// References returns the loaded reference data, or nil when loading failed.
func (f *Form) References() *reference.Set {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs
}

// Previews exposes the form's preview store.
func (f *Form) Previews() *photos.Previews {
	return f.previews
}

// Apply changes the fields set in p. Provider and species selections run
// before origin and price so derived values are in place before explicit
// edits are checked against them. Nothing is changed if any edit is refused.
func (f *Form) Apply(p models.Patch) error {
	f.mu.Lock()
	err := f.applyLocked(p)
	onEdit := f.onEdit
	f.mu.Unlock()

	if err == nil && onEdit != nil {
		onEdit()
	}
	return err
}

func (f *Form) applyLocked(p models.Patch) error {
	var condition domain.Condition
	if p.Condition != nil && strings.TrimSpace(*p.Condition) != "" {
		c, err := domain.ParseCondition(*p.Condition)
		if err != nil {
			return err
		}
		condition = c
	}
	if err := f.checkLocks(p); err != nil {
		return err
	}

	if p.Date != nil {
		f.draft.Date = strings.TrimSpace(*p.Date)
		f.clearError(models.FieldDate)
	}
	if p.Provider != nil {
		f.selectProvider(strings.TrimSpace(*p.Provider))
	}
	if p.Origin != nil {
		f.setOrigin(strings.TrimSpace(*p.Origin))
	}
	if p.Species != nil {
		f.selectSpecies(strings.TrimSpace(*p.Species))
	}
	if p.Condition != nil {
		f.draft.Condition = condition
		f.clearError(models.FieldCondition)
	}
	if p.Quantity != nil {
		f.draft.Quantity = strings.TrimSpace(*p.Quantity)
		f.clearError(models.FieldQuantity)
	}
	if p.UnitPrice != nil {
		f.setUnitPrice(strings.TrimSpace(*p.UnitPrice))
	}
	return nil
}

// checkLocks refuses edits to derived values under the enforced policy. The
// check accounts for a provider or species selected in the same patch.
func (f *Form) checkLocks(p models.Patch) error {
	if f.policy != PriceEnforced {
		return nil
	}
	if p.Origin != nil {
		derived := f.originDerived
		if p.Provider != nil {
			derived = f.hintFor(strings.TrimSpace(*p.Provider)) != ""
		}
		if derived {
			return dErrors.Wrap(sentinel.ErrReadOnly, dErrors.CodeForbidden, "a origem é definida pelo provedor selecionado")
		}
	}
	if p.UnitPrice != nil {
		suggested := f.priceSuggested
		if p.Species != nil {
			suggested = f.suggestionFor(strings.TrimSpace(*p.Species)) != ""
		}
		if suggested {
			return dErrors.Wrap(sentinel.ErrReadOnly, dErrors.CodeForbidden, "o preço unitário é definido pela espécie selecionada")
		}
	}
	return nil
}

// selectProvider sets the provider and derives the origin from its hint.
// A hint missing from the origin set is added to it (in memory only).
func (f *Form) selectProvider(name string) {
	f.draft.Provider = name
	f.clearError(models.FieldProvider)

	hint := f.hintFor(name)
	if hint == "" {
		if f.originDerived {
			f.draft.Origin = ""
		}
		f.originDerived = false
		return
	}
	canonical, _ := f.refs.Origins.Add(hint)
	f.draft.Origin = canonical
	f.originDerived = true
	f.clearError(models.FieldOrigin)
}

func (f *Form) setOrigin(value string) {
	if f.refs != nil {
		if canonical, ok := f.refs.Origins.Find(value); ok {
			value = canonical
		}
	}
	f.draft.Origin = value
	f.originDerived = false
	f.clearError(models.FieldOrigin)
}

// selectSpecies sets the species and re-applies its suggested price,
// discarding any override. A species without a suggestion clears the price
// so a previous species' price never carries over.
func (f *Form) selectSpecies(name string) {
	f.draft.Species = name
	f.clearError(models.FieldSpecies)

	f.priceOverridden = false
	if price := f.suggestionFor(name); price != "" {
		f.draft.UnitPrice = price
		f.priceSuggested = true
	} else {
		if f.priceSuggested {
			f.draft.UnitPrice = ""
		}
		f.priceSuggested = false
	}
	f.clearError(models.FieldUnitPrice)
}

func (f *Form) setUnitPrice(value string) {
	if f.priceSuggested && value != f.suggestionFor(f.draft.Species) {
		f.priceOverridden = true
	}
	f.draft.UnitPrice = value
	f.clearError(models.FieldUnitPrice)
}

func (f *Form) hintFor(provider string) string {
	if f.refs == nil || provider == "" {
		return ""
	}
	p, ok := f.refs.Provider(provider)
	if !ok {
		return ""
	}
	return strings.TrimSpace(p.OriginHint)
}

func (f *Form) suggestionFor(species string) string {
	if f.refs == nil || species == "" {
		return ""
	}
	sp, ok := f.refs.SpeciesNamed(species)
	if !ok || sp.UnitPrice == nil {
		return ""
	}
	return domain.FormatInput(*sp.UnitPrice)
}

// AddImages attaches a batch of photos and creates their previews. The batch
// is rejected whole if it would exceed the limit or any photo is unusable.
func (f *Form) AddImages(batch ...photos.Image) ([]photos.Preview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.images.Len()+len(batch) > photos.MaxImages {
		return nil, dErrors.Wrap(photos.ErrTooManyImages, dErrors.CodeValidation, "Máximo de 5 imagens permitido.")
	}
	created := make([]photos.Preview, 0, len(batch))
	for _, img := range batch {
		pv, err := f.previews.Create(img)
		if err != nil {
			for _, c := range created {
				f.previews.Release(c.Handle)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "imagem inválida")
		}
		created = append(created, pv)
	}
	if err := f.images.Add(batch...); err != nil {
		for _, c := range created {
			f.previews.Release(c.Handle)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "apenas imagens PNG ou JPEG são aceites")
	}
	f.imagePreviews = append(f.imagePreviews, created...)
	return created, nil
}

// RemoveImage detaches the photo at index i and releases its preview.
func (f *Form) RemoveImage(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.images.Remove(i); err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "imagem não encontrada")
	}
	f.previews.Release(f.imagePreviews[i].Handle)
	f.imagePreviews = append(f.imagePreviews[:i], f.imagePreviews[i+1:]...)
	return nil
}

// Images returns the attached photos.
func (f *Form) Images() []photos.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images.List()
}

// Snapshot returns a copy of the form state.
func (f *Form) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap := FormSnapshot{
		Draft:           f.draft,
		Images:          append([]photos.Preview(nil), f.imagePreviews...),
		OriginDerived:   f.originDerived,
		OriginLocked:    f.originDerived && f.policy == PriceEnforced,
		PriceSuggested:  f.priceSuggested,
		PriceLocked:     f.priceSuggested && f.policy == PriceEnforced,
		PriceOverridden: f.priceOverridden,
		Total:           domain.Total(f.draft.Quantity, f.draft.UnitPrice),
		Blocked:         f.refs == nil,
	}
	if f.refs != nil {
		snap.Origins = f.refs.Origins.Values()
	}
	for _, field := range models.FieldOrder {
		if f.fieldErrors[field] {
			snap.FieldErrors = append(snap.FieldErrors, field)
		}
	}
	return snap
}

// ClearFieldError clears one field's error flag.
func (f *Form) ClearFieldError(field models.Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearError(field)
}

func (f *Form) setOnEdit(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onEdit = fn
}

// validate checks the draft with the current fix attached against the
// reference data. Failing fields are flagged; a valid draft comes back with
// its origin in canonical spelling. loaded is false when the form is blocked.
// The origin set is only read and written under f.mu.
func (f *Form) validate(sample *location.Sample) (d models.Draft, res models.ValidationResult, loaded bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d = f.draft
	d.Location = sample
	if f.refs == nil {
		return d, res, false
	}
	res = Validate(d, f.refs)
	if !res.OK() {
		for _, field := range res.Fields() {
			f.fieldErrors[field] = true
		}
		return d, res, true
	}
	if canonical, ok := f.refs.Origins.Find(d.Origin); ok {
		d.Origin = canonical
	}
	return d, res, true
}

func (f *Form) imageCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images.Len()
}

func (f *Form) markErrors(fields []models.Field) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, field := range fields {
		f.fieldErrors[field] = true
	}
}

func (f *Form) clearError(field models.Field) {
	delete(f.fieldErrors, field)
}

// reset clears the draft, the photos and every derived flag, and releases
// all previews. Origins synthesized from provider hints stay in the set.
func (f *Form) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = models.Draft{}
	f.images.Clear()
	f.imagePreviews = nil
	f.previews.ReleaseAll()
	f.fieldErrors = make(map[models.Field]bool)
	f.originDerived = false
	f.priceSuggested = false
	f.priceOverridden = false
}
