// Package forms describes input fields and the rules that validate them.
package forms

// FieldType is the HTML input type of a field.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldEmail    FieldType = "email"
	FieldPassword FieldType = "password"
)

// Field describes a single input.
type Field struct {
	// Name is the field name used in event payloads.
	Name string

	// Type is the input type.
	Type FieldType

	// Label is the display label.
	Label string

	// Placeholder is the placeholder text.
	Placeholder string

	// Autocomplete is the browser autofill hint.
	Autocomplete string

	// Rules run in order; the first failure wins.
	Rules []Rule
}

// FieldOption configures a field.
type FieldOption func(*Field)

// NewField creates a new field.
func NewField(name string, fieldType FieldType, label string, opts ...FieldOption) Field {
	field := Field{
		Name:  name,
		Type:  fieldType,
		Label: label,
		Rules: make([]Rule, 0, 2),
	}

	for _, opt := range opts {
		opt(&field)
	}

	return field
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(placeholder string) FieldOption {
	return func(f *Field) {
		f.Placeholder = placeholder
	}
}

// WithAutocomplete sets the autocomplete attribute.
func WithAutocomplete(value string) FieldOption {
	return func(f *Field) {
		f.Autocomplete = value
	}
}

// WithRequired prepends a required rule.
func WithRequired(msg ...string) FieldOption {
	return func(f *Field) {
		r := RequiredRule{}
		if len(msg) > 0 {
			r.Msg = msg[0]
		}
		f.Rules = append([]Rule{r}, f.Rules...)
	}
}

// WithRule appends a rule.
func WithRule(r Rule) FieldOption {
	return func(f *Field) {
		f.Rules = append(f.Rules, r)
	}
}

// Check validates value against the field's rules.
func (f Field) Check(value string) (Rule, error) {
	return Check(value, f.Rules...)
}

// InputType returns the HTML type attribute. Email fields render as plain
// text so that the server-side rule is the only format check.
func (f Field) InputType() string {
	if f.Type == FieldPassword {
		return string(FieldPassword)
	}
	return string(FieldText)
}

// TextField creates a text field.
func TextField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldText, label, opts...)
}

// EmailField creates an email field with an email rule.
func EmailField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldEmail, label, append(opts, WithRule(Email()))...)
}

// PasswordField creates a password field.
func PasswordField(name, label string, opts ...FieldOption) Field {
	return NewField(name, FieldPassword, label, opts...)
}
