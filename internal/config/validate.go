package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator создаёт валидатор, который называет поля именами переменных окружения.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("env")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError описывает ошибку проверки одного поля конфигурации.
type FieldError struct {
	Field   string
	Message string
}

// ValidationErrors содержит все ошибки проверки конфигурации.
type ValidationErrors struct {
	Errors []FieldError
}

// Error реализует интерфейс error.
func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "invalid configuration"
	}
	messages := make([]string, len(v.Errors))
	for i, e := range v.Errors {
		messages[i] = e.Message
	}
	return "invalid configuration: " + strings.Join(messages, "; ")
}

// Validate проверяет конфигурацию и возвращает *ValidationErrors со списком всех нарушений.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	out := &ValidationErrors{}
	for _, e := range fieldErrs {
		out.Errors = append(out.Errors, FieldError{
			Field:   e.Field(),
			Message: formatValidationMessage(e),
		})
	}
	return out
}

// formatValidationMessage формирует читаемое сообщение об ошибке поля.
func formatValidationMessage(e validator.FieldError) string {
	field := e.Field()
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "gt":
		return fmt.Sprintf("%s must be positive", field)
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range: %v", field, e.Value())
	case "ltefield":
		return fmt.Sprintf("%s must not exceed %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}
