package blog

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrDuplicateSlug = errors.New("slug is already taken")

// ValidationError maps JSON field names to human readable messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, e.Fields[k])
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

var _messages = map[string]string{
	"required": "The field '%s' is required.",
	"email":    "The field '%s' must be a valid email address.",
	"max":      "The field '%s' must be no longer than %s characters.",
}

var _validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the validate tags of s, a pointer to a struct.
func validateStruct(s any) error {
	err := _validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate: %w", err)
	}

	structType := reflect.TypeOf(s).Elem()
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fe.StructField()
		if f, ok := structType.FieldByName(fe.StructField()); ok {
			if tag := strings.Split(f.Tag.Get("json"), ",")[0]; tag != "" {
				name = tag
			}
		}
		fields[name] = message(name, fe)
	}

	return &ValidationError{Fields: fields}
}

func message(field string, fe validator.FieldError) string {
	msg, ok := _messages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("Field '%s' is invalid: %s", field, fe.Tag())
	}

	if strings.Count(msg, "%s") == 2 {
		return fmt.Sprintf(msg, field, fe.Param())
	}

	return fmt.Sprintf(msg, field)
}
