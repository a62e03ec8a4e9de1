package normalize

import (
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrMissingName  = errors.New("passenger name is required")
	ErrInvalidEmail = errors.New("passenger email is invalid")
)

var (
	emailToken  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	emailStrict = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)

	validate = validator.New()
)

// ParsePassenger extracts a name and an email from "Name, email" or from free
// text with an embedded email address.
func ParsePassenger(text string) (name, email string, err error) {
	text = strings.TrimSpace(text)
	name = text

	if before, after, found := strings.Cut(text, ","); found {
		if n := strings.TrimSpace(before); n != "" {
			name = n
		}
		email = strings.TrimSpace(after)
	}
	if email == "" {
		if m := emailToken.FindString(text); m != "" {
			email = m
			name = strings.TrimSpace(strings.ReplaceAll(strings.Replace(text, m, "", 1), ",", " "))
		}
	}
	name = strings.Join(strings.Fields(name), " ")

	if name == "" {
		return "", "", ErrMissingName
	}
	if !ValidEmail(email) {
		return name, "", ErrInvalidEmail
	}
	return name, email, nil
}

// ValidEmail applies the strict address pattern and the validator email rule.
func ValidEmail(email string) bool {
	if !emailStrict.MatchString(email) {
		return false
	}
	return validate.Var(email, "required,email") == nil
}
