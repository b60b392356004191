// ABOUTME: Field-level validation for client and profile input
// ABOUTME: Reports every violated field with a kind and a display message

package validate

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Field names used in violations.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
	FieldBio   = "bio"
)

// Minimum lengths, counted in runes.
const (
	MinNameLength  = 3
	MinPhoneLength = 9
	MinBioLength   = 10
)

// Kind identifies why a field was rejected.
type Kind string

const (
	EmptyName     Kind = "empty_name"
	EmptyEmail    Kind = "empty_email"
	EmptyPhone    Kind = "empty_phone"
	TooShort      Kind = "too_short"
	InvalidFormat Kind = "invalid_format"
	NonNumeric    Kind = "non_numeric"
)

// emailRegex accepts local@label(.label)+ with the usual character sets
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`)

// Violation is a single rejected field.
type Violation struct {
	Field string `json:"field"`
	Kind  Kind   `json:"kind"`
}

// Message returns the text shown next to the field in a form.
func (v Violation) Message() string {
	switch v.Kind {
	case EmptyName:
		return "Name is required"
	case EmptyEmail:
		return "Email is required"
	case EmptyPhone:
		return "Phone is required"
	case InvalidFormat:
		return "Enter a valid email address"
	case NonNumeric:
		return "Phone must contain only digits"
	case TooShort:
		switch v.Field {
		case FieldName:
			return "Name must be at least 3 characters"
		case FieldPhone:
			return "Phone must be at least 9 digits"
		case FieldBio:
			return "Bio must be at least 10 characters"
		}
		return "Value is too short"
	default:
		return "Invalid value"
	}
}

// Result holds the violations found for one input. The zero value is valid.
type Result struct {
	violations []Violation
}

func (r *Result) add(field string, kind Kind) {
	r.violations = append(r.violations, Violation{Field: field, Kind: kind})
}

// Valid reports whether no field was rejected.
func (r Result) Valid() bool {
	return len(r.violations) == 0
}

// Violations returns a copy of the violations in field order.
func (r Result) Violations() []Violation {
	out := make([]Violation, len(r.violations))
	copy(out, r.violations)
	return out
}

// Has reports whether field was rejected with kind.
func (r Result) Has(field string, kind Kind) bool {
	for _, v := range r.violations {
		if v.Field == field && v.Kind == kind {
			return true
		}
	}
	return false
}

// ForField returns the violations recorded against one field.
func (r Result) ForField(field string) []Violation {
	var out []Violation
	for _, v := range r.violations {
		if v.Field == field {
			out = append(out, v)
		}
	}
	return out
}

// Err returns nil for a valid result, otherwise a *ValidationError.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Violations: r.Violations()}
}

// ErrInvalid is matched by every *ValidationError.
var ErrInvalid = errors.New("invalid input")

// ValidationError carries the violations of a rejected input.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+string(v.Kind))
	}
	return "invalid input: " + strings.Join(parts, ", ")
}

// Unwrap lets errors.Is(err, ErrInvalid) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

// ValidateClient checks the three client fields. Input is trimmed first.
func ValidateClient(name, email, phone string) Result {
	var r Result
	checkName(&r, name)
	checkEmail(&r, email)
	checkPhone(&r, phone)
	return r
}

// ValidateProfile applies the client rules plus the optional bio rule.
func ValidateProfile(name, email, phone, bio string) Result {
	r := ValidateClient(name, email, phone)
	bio = strings.TrimSpace(bio)
	if bio != "" && utf8.RuneCountInString(bio) < MinBioLength {
		r.add(FieldBio, TooShort)
	}
	return r
}

func checkName(r *Result, name string) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		r.add(FieldName, EmptyName)
	case utf8.RuneCountInString(name) < MinNameLength:
		r.add(FieldName, TooShort)
	}
}

func checkEmail(r *Result, email string) {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		r.add(FieldEmail, EmptyEmail)
	case !emailRegex.MatchString(email):
		r.add(FieldEmail, InvalidFormat)
	}
}

// checkPhone reports length and digit problems independently; a short phone
// with letters in it gets both.
func checkPhone(r *Result, phone string) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		r.add(FieldPhone, EmptyPhone)
		return
	}
	if utf8.RuneCountInString(phone) < MinPhoneLength {
		r.add(FieldPhone, TooShort)
	}
	if !IsDigits(phone) {
		r.add(FieldPhone, NonNumeric)
	}
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
