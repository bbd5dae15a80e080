package forms

import (
	"errors"
	"regexp"
	"strings"
)

// Validation failure kinds. Rules wrap one of these so callers can use errors.Is.
var (
	ErrRequired      = errors.New("required")
	ErrInvalidFormat = errors.New("invalid format")
)

// Rule validates a single string value.
type Rule interface {
	// Validate returns nil when value passes, or an error wrapping one of the
	// package kinds otherwise.
	Validate(value string) error

	// Message returns the human readable message shown next to the field.
	Message() string
}

// RequiredRule rejects empty and whitespace-only values.
type RequiredRule struct {
	Msg string
}

func (r RequiredRule) Validate(value string) error {
	if strings.TrimSpace(value) == "" {
		return ErrRequired
	}
	return nil
}

func (r RequiredRule) Message() string {
	if r.Msg != "" {
		return r.Msg
	}
	return "Questo campo è obbligatorio"
}

// emailRegex accepts a local part of word, dot and hyphen characters and a
// domain whose last label has at least two letters.
var emailRegex = regexp.MustCompile(`^[\w.-]+@[a-zA-Z\d.-]+\.[a-zA-Z]{2,}$`)

// EmailRule validates email format. Empty values pass; pair it with Required.
type EmailRule struct {
	Msg string
}

func (r EmailRule) Validate(value string) error {
	if value == "" {
		return nil
	}
	if !emailRegex.MatchString(value) {
		return ErrInvalidFormat
	}
	return nil
}

func (r EmailRule) Message() string {
	if r.Msg != "" {
		return r.Msg
	}
	return "Inserisci un'email valida"
}

// Email returns an email rule with the default message.
func Email() Rule {
	return EmailRule{}
}

// Check runs rules in order against the trimmed value and returns the first
// failing rule together with its error.
func Check(value string, rules ...Rule) (Rule, error) {
	trimmed := strings.TrimSpace(value)
	for _, rule := range rules {
		if err := rule.Validate(trimmed); err != nil {
			return rule, err
		}
	}
	return nil, nil
}
