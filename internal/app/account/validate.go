package account

import (
	"errors"
	"regexp"

	"github.com/go-playground/validator/v10"
)

// usernamePattern keeps usernames usable as a path element and URL segment.
var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		name := fl.Field().String()
		return usernamePattern.MatchString(name) && name != "." && name != ".."
	}); err != nil {
		panic(err)
	}
	return v
}

const msgCredentialsRequired = "Username and password are required"

// fieldMessages maps "Field.tag" to the client-facing message of a failed rule.
var fieldMessages = map[string]string{
	"Username.required": msgCredentialsRequired,
	"Password.required": msgCredentialsRequired,
	"Username.min":      "Username must be at least 3 characters",
	"Username.max":      "Username must be at most 50 characters",
	"Username.username": "Username may only contain letters, digits, '_', '.' and '-'",
	"Password.min":      "Password must be at least 6 characters",
	"Password.max":      "Password must be at most 128 characters",
	"Email.email":       "Invalid email format",
	"Email.max":         "Email must be at most 100 characters",
	"City.required":     "City is required",
	"City.max":          "City must be at most 100 characters",
}

// validationMessage returns the message of the most significant failed rule in s,
// or "" when s is valid. A missing required field outranks every other failure.
func validationMessage(s any) string {
	err := validate.Struct(s)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return "Invalid input"
	}

	first := fieldErrs[0]
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			first = fe
			break
		}
	}

	if msg, ok := fieldMessages[first.Field()+"."+first.Tag()]; ok {
		return msg
	}
	return "Invalid " + first.Field()
}
