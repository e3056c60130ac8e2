// Package validation checks request payloads and turns rule failures into
// field-level messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/sbilibin2017/gw-catalog/internal/models"
)

// PasswordMinLength is the minimum accepted password length in characters.
const PasswordMinLength = 8

// PasswordMaxBytes is the longest password bcrypt accepts.
const PasswordMaxBytes = 72

// passwordSpecials are the special characters a password must contain one of.
const passwordSpecials = "@$!%*?&"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return len(PasswordProblems(fl.Field().String())) == 0
	})

	return v
}

// Struct validates s and returns one FieldError per failed rule, or nil.
func Struct(s any) []models.FieldError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []models.FieldError{{Field: "", Message: err.Error()}}
	}

	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Tag() == "password" {
			for _, msg := range PasswordProblems(fmt.Sprint(fe.Value())) {
				out = append(out, models.FieldError{Field: fe.Field(), Message: msg})
			}
			continue
		}
		out = append(out, models.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// PasswordProblems lists the policy rules pw breaks. Length is counted in
// characters; the character classes are ASCII only.
func PasswordProblems(pw string) []string {
	var problems []string
	if utf8.RuneCountInString(pw) < PasswordMinLength {
		problems = append(problems, fmt.Sprintf("Password must be at least %d characters long", PasswordMinLength))
	}
	if len(pw) > PasswordMaxBytes {
		problems = append(problems, fmt.Sprintf("Password must be at most %d bytes long", PasswordMaxBytes))
	}

	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	if !lower || !upper || !digit || !special {
		problems = append(problems, "Password must contain at least one uppercase letter, one lowercase letter, one number and one special character")
	}
	return problems
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label(fe.Field()))
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", label(fe.Field()), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", label(fe.Field()), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label(fe.Field()))
	}
}

// label turns a json field name such as "currentPassword" or "brand_name"
// into "Current password" / "Brand name".
func label(field string) string {
	var b strings.Builder
	for i, r := range field {
		switch {
		case r == '_':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && i > 0:
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
