package accounts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Candidate is one submitted account in a provisioning batch. For
// identity-provider-backed flows the provenance id is assigned by the
// provider; for the other provenances the caller supplies it.
type Candidate struct {
	Email        string     `json:"email" validate:"required_unless=Provenance THIRD_PARTY,omitempty,email"`
	Role         Role       `json:"role" validate:"required"`
	Provenance   Provenance `json:"provenance" validate:"required"`
	ProvenanceID string     `json:"provenanceId" validate:"required_unless=Provenance INTERNAL_DIRECTORY"`
	Forenames    string     `json:"forenames" validate:"required_if=Provenance INTERNAL_DIRECTORY"`
	Surname      string     `json:"surname" validate:"required_if=Provenance INTERNAL_DIRECTORY"`
}

// Validator performs structural validation of candidates and renders
// violations as ordered human-readable messages.
type Validator struct {
	validate *validator.Validate
}

// NewValidator constructs a candidate validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New()}
}

// Check returns one message per violated constraint, in the order the
// underlying validator reports them. An empty slice means the candidate
// is structurally sound. Enum membership and role/provenance pairing
// are checked here too so that no external call is ever made for a
// malformed candidate.
func (v *Validator) Check(c Candidate) []string {
	var messages []string
	if err := v.validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return []string{err.Error()}
		}
		for _, fe := range fieldErrs {
			messages = append(messages, messageFor(fe))
		}
	}
	if c.Role != "" && !c.Role.Valid() {
		messages = append(messages, fmt.Sprintf("role: unrecognised value %q", string(c.Role)))
	}
	if c.Provenance != "" && !c.Provenance.Valid() {
		messages = append(messages, fmt.Sprintf("provenance: unrecognised value %q", string(c.Provenance)))
	}
	if c.Role.Valid() && c.Provenance.Valid() {
		if c.Role.IsThirdParty() != (c.Provenance == ProvenanceThirdParty) {
			messages = append(messages, fmt.Sprintf("role: %s may not be combined with provenance %s", c.Role, c.Provenance))
		}
	}
	return messages
}

func messageFor(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required", "required_unless", "required_if":
		return field + ": must not be null"
	case "email":
		return field + ": must be a well-formed email address"
	default:
		return field + ": invalid value"
	}
}
