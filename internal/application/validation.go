package application

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var roomColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("roomcolor", func(fl validator.FieldLevel) bool {
			return roomColorPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// validateStruct runs the struct tag rules and converts failures into field
// errors keyed by snake_case field names.
func validateStruct(value any) *ValidationError {
	vErr := &ValidationError{}
	err := structValidator().Struct(value)
	if err == nil {
		return vErr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("_", msgInvalid)
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(snakeCase(fe.Field()), tagMessage(fe))
	}
	return vErr
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max":
		return msgTooLong
	case "min":
		if fe.Param() == "0" {
			return msgNotNegative
		}
		if fe.Kind() == reflect.String {
			return msgTooShort
		}
		return msgPositive
	}
	return msgInvalid
}

func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalizeList trims entries and drops empty ones. The result is never nil.
func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
