// Package validation checks the free-text profile inputs and tracks the
// inline error shown next to each one.
package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Message keys resolved through the string table at render time.
const (
	MessageNameInvalid  = "onboarding.name_error"
	MessageEmailInvalid = "onboarding.email_error"
)

const (
	tagPersonName = "personname"
	tagPlainEmail = "plainemail"
)

// whitespace is the body of a character class matching the Unicode space
// separators and line terminators. RE2's \s covers ASCII only.
const whitespace = `\t\n\v\f\r \x{a0}\x{1680}\x{2000}-\x{200a}\x{2028}\x{2029}\x{202f}\x{205f}\x{3000}\x{feff}`

var (
	personNamePattern = regexp.MustCompile(`^[A-Za-z` + whitespace + `]+$`)
	plainEmailPattern = regexp.MustCompile(`^[^@` + whitespace + `]+@[^@` + whitespace + `]+\.[^@` + whitespace + `]+$`)

	validate = newValidator()
)

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, tagPersonName, personNamePattern)
	mustRegister(v, tagPlainEmail, plainEmailPattern)
	return v
}

func mustRegister(v *validator.Validate, tag string, pattern *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// Result is the outcome of validating one value.
type Result struct {
	Valid   bool
	Message string
}

// Validator checks a single candidate value.
type Validator func(value string) Result

// Name accepts letters and whitespace only. The empty string is invalid.
func Name(value string) Result {
	return check(value, tagPersonName, MessageNameInvalid)
}

// Email accepts one '@', no whitespace, and a '.' somewhere in the domain.
func Email(value string) Result {
	return check(value, tagPlainEmail, MessageEmailInvalid)
}

func check(value, tag, message string) Result {
	if err := validate.Var(value, tag); err != nil {
		return Result{Valid: false, Message: message}
	}
	return Result{Valid: true}
}
