package stepform

import (
	"github.com/gabrielmiguelok/stepform/pkg/forms"
)

// Validation error kinds.
var (
	ErrMissingValue  = forms.ErrRequired
	ErrInvalidFormat = forms.ErrInvalidFormat
)

// FieldError is a field-scoped validation failure.
type FieldError struct {
	Field   StepName
	Kind    error
	Message string
}

func (e *FieldError) Error() string {
	return string(e.Field) + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Kind
}

// Validator checks a step's value against that step's rules.
type Validator struct {
	fields map[StepName]forms.Field
}

// NewValidator builds a validator for the given steps.
func NewValidator(steps []Step) *Validator {
	fields := make(map[StepName]forms.Field, len(steps))
	for _, s := range steps {
		fields[s.ID()] = s.Field
	}
	return &Validator{fields: fields}
}

// Validate returns nil when value is acceptable for step, or a *FieldError.
// The value is trimmed before the rules run.
func (v *Validator) Validate(step StepName, value string) error {
	field, ok := v.fields[step]
	if !ok {
		return ErrUnknownField
	}

	rule, err := field.Check(value)
	if err == nil {
		return nil
	}
	return &FieldError{
		Field:   step,
		Kind:    err,
		Message: rule.Message(),
	}
}
