package schema

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const errRequired = "This field is required."

// Validator checks one input field. g is the group the field belongs to,
// which lets a validator look at sibling fields.
type Validator func(f InputField, g *InputGroup) error

// Required rejects an empty field. An unchecked checkbox counts as empty.
func Required() Validator {
	return func(f InputField, _ *InputGroup) error {
		if f.Empty() {
			return errors.New(errRequired)
		}
		return nil
	}
}

// MaxLength rejects text longer than n characters.
func MaxLength(n int) Validator {
	return func(f InputField, _ *InputGroup) error {
		if utf8.RuneCountInString(f.Value().Str()) > n {
			return fmt.Errorf("Field cannot be longer than %d characters.", n)
		}
		return nil
	}
}

// ValidEmail rejects text that is not a bare email address. Empty input is
// left to Required.
func ValidEmail() Validator {
	return func(f InputField, _ *InputGroup) error {
		s := f.Value().Str()
		if s == "" {
			return nil
		}
		addr, err := mail.ParseAddress(s)
		if err != nil || addr.Address != s {
			return errors.New("Invalid email address.")
		}
		at := strings.LastIndexByte(s, '@')
		if !strings.Contains(s[at+1:], ".") {
			return errors.New("Invalid email address.")
		}
		return nil
	}
}

// RequiredIf makes the field required when the sibling field other has
// the given value, or any value when value is empty.
func RequiredIf(other, value string) Validator {
	required := Required()
	return func(f InputField, g *InputGroup) error {
		sibling, ok := g.Field(other)
		if !ok {
			return fmt.Errorf("no field named %q in form", other)
		}
		v := sibling.Value()
		if value == "" && !v.IsZero() || value != "" && v.String() == value {
			return required(f, g)
		}
		return nil
	}
}
