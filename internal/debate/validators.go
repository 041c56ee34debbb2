package debate

import (
	"strings"

	"github.com/arbiterlabs/debate-orchestrator/internal/models"
)

// Sentinel values substituted for empty free-text fields.
const (
	NoPositionSentinel  = "No position provided"
	NoReasoningSentinel = "No reasoning provided"
)

// Validator is one check/normalization applied to a structured response.
// Validators are pure: they take and return a value, may rewrite fields, must
// preserve agent identity, and never discard the response.
type Validator interface {
	Validate(resp models.StructuredResponse) models.StructuredResponse
}

// ValidatorChain composes validators in order. The output of validator n is
// the input of validator n+1; an empty chain is the identity transform.
type ValidatorChain struct {
	validators []Validator
}

// NewValidatorChain builds a chain from the given validators.
func NewValidatorChain(validators ...Validator) ValidatorChain {
	return ValidatorChain{validators: validators}
}

// With returns a new chain with v appended. The receiver is unchanged.
func (c ValidatorChain) With(v Validator) ValidatorChain {
	validators := make([]Validator, 0, len(c.validators)+1)
	validators = append(validators, c.validators...)
	validators = append(validators, v)
	return ValidatorChain{validators: validators}
}

// Apply runs the response through every validator in order.
func (c ValidatorChain) Apply(resp models.StructuredResponse) models.StructuredResponse {
	for _, v := range c.validators {
		resp = v.Validate(resp)
	}
	return resp
}

// DefaultValidatorChain is the chain applied to every agent turn: required
// fields first, then confidence clamping. Stance checking is appended per
// agent by the round executor for modes that assign stances.
func DefaultValidatorChain() ValidatorChain {
	return NewValidatorChain(
		RequiredFieldsValidator{},
		ConfidenceRangeValidator{},
	)
}

// RequiredFieldsValidator substitutes fixed sentinel strings for empty or
// whitespace-only position/reasoning fields.
type RequiredFieldsValidator struct{}

func (RequiredFieldsValidator) Validate(resp models.StructuredResponse) models.StructuredResponse {
	if strings.TrimSpace(resp.Position) == "" {
		resp.Position = NoPositionSentinel
	}
	if strings.TrimSpace(resp.Reasoning) == "" {
		resp.Reasoning = NoReasoningSentinel
	}
	return resp
}

// ConfidenceRangeValidator clamps confidence into [0,1].
type ConfidenceRangeValidator struct{}

func (ConfidenceRangeValidator) Validate(resp models.StructuredResponse) models.StructuredResponse {
	if resp.Confidence < 0 {
		resp.Confidence = 0
	} else if resp.Confidence > 1 {
		resp.Confidence = 1
	}
	return resp
}

// StanceValidator flags responses whose stance differs from the one assigned
// to the participant. The original stance is deliberately left untouched:
// overwriting it would detach the stance from the free text written to
// support it. A mismatch only attaches a role-violation marker for callers
// to log or flag.
type StanceValidator struct {
	Expected models.Stance
}

func (v StanceValidator) Validate(resp models.StructuredResponse) models.StructuredResponse {
	if v.Expected == "" || resp.Stance == v.Expected {
		return resp
	}
	resp.RoleViolation = &models.RoleViolation{
		Expected: v.Expected,
		Actual:   resp.Stance,
	}
	return resp
}
