// Package stepform implements the multi-step form state machine: three input
// steps (name, email, password) followed by a summary, per-step validation and
// the responsive presentation state.
package stepform

import (
	"errors"

	"github.com/gabrielmiguelok/stepform/pkg/forms"
)

// StepName identifies an input step.
type StepName string

const (
	StepNameField StepName = "name"
	StepEmail     StepName = "email"
	StepPassword  StepName = "password"
)

// StepCount is the number of input steps. A step index equal to StepCount
// denotes the summary.
const StepCount = 3

// ErrUnknownField is returned when an edit targets a field the form does not have.
var ErrUnknownField = errors.New("unknown field")

// Step is one ordered input stage.
type Step struct {
	forms.Field
}

// ID returns the step identifier.
func (s Step) ID() StepName {
	return StepName(s.Name)
}

// DefaultSteps returns the three input steps in order.
func DefaultSteps() []Step {
	return []Step{
		{Field: forms.TextField(string(StepNameField), "Nome",
			forms.WithPlaceholder("Inserisci il tuo nome"),
			forms.WithAutocomplete("given-name"),
			forms.WithRequired(),
		)},
		{Field: forms.EmailField(string(StepEmail), "Email",
			forms.WithPlaceholder("Inserisci la tua email"),
			forms.WithAutocomplete("email"),
			forms.WithRequired(),
		)},
		{Field: forms.PasswordField(string(StepPassword), "Password",
			forms.WithPlaceholder("Inserisci la password"),
			forms.WithAutocomplete("off"),
			forms.WithRequired(),
		)},
	}
}

// FormData holds the collected values.
type FormData struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Get returns the value of a field.
func (d FormData) Get(field StepName) (string, bool) {
	switch field {
	case StepNameField:
		return d.Name, true
	case StepEmail:
		return d.Email, true
	case StepPassword:
		return d.Password, true
	}
	return "", false
}

// Set stores the value of a field.
func (d *FormData) Set(field StepName, value string) error {
	switch field {
	case StepNameField:
		d.Name = value
	case StepEmail:
		d.Email = value
	case StepPassword:
		d.Password = value
	default:
		return ErrUnknownField
	}
	return nil
}
