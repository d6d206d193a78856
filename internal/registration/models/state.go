package models

// Stage names a workflow state.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageValidating Stage = "validating"
	StageConfirming Stage = "confirming"
	StageSubmitting Stage = "submitting"
	StageSuccess    Stage = "success"
	StageError      Stage = "error"
)

// State is the submission workflow state. Exactly one of the types below
// implements it at any time.
type State interface {
	Stage() Stage
	isState()
}

type Idle struct{}

type Validating struct{}

// Confirming waits for the agent to accept the summary. Draft is the
// validated snapshot that will be submitted.
type Confirming struct {
	Summary Confirmation
	Draft   Draft
}

type Submitting struct {
	Summary Confirmation
}

type Success struct {
	Record Record
}

// Failed carries the reason shown to the agent. Validation is set when the
// failure came from the validation gate.
type Failed struct {
	Reason     string
	Validation *ValidationResult
}

func (Idle) Stage() Stage       { return StageIdle }
func (Validating) Stage() Stage { return StageValidating }
func (Confirming) Stage() Stage { return StageConfirming }
func (Submitting) Stage() Stage { return StageSubmitting }
func (Success) Stage() Stage    { return StageSuccess }
func (Failed) Stage() Stage     { return StageError }

func (Idle) isState()       {}
func (Validating) isState() {}
func (Confirming) isState() {}
func (Submitting) isState() {}
func (Success) isState()    {}
func (Failed) isState()     {}
