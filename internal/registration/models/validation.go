package models

// Issue is a field-level problem with a user-facing message.
type Issue struct {
	Field   Field  `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is the outcome of the validation gate. Missing lists
// empty required fields in declaration order; Invalid lists semantic
// rejections; Warnings never block submission.
type ValidationResult struct {
	Missing  []Field `json:"missing,omitempty"`
	Invalid  []Issue `json:"invalid,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// OK reports whether the draft may be submitted.
func (v ValidationResult) OK() bool {
	return len(v.Missing) == 0 && len(v.Invalid) == 0
}

// Fields returns every blocking field, missing first.
func (v ValidationResult) Fields() []Field {
	out := make([]Field, 0, len(v.Missing)+len(v.Invalid))
	out = append(out, v.Missing...)
	for _, issue := range v.Invalid {
		out = append(out, issue.Field)
	}
	return out
}
