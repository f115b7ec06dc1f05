package entity

import (
	"fmt"
	"strings"
)

type FieldViolation struct {
	Field   string
	Message string
}

/*
 * ConfigurationError is returned when the configuration file cannot be
 * read or parsed (Err), or when some fields are invalid (Violations).
 * It is fatal: nothing is sent to Github.
 */
type ConfigurationError struct {
	Filename   string
	Violations []FieldViolation
	Err        error
}

func (e *ConfigurationError) add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("configuration file %q is invalid: %v", e.Filename, e.Err)
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "configuration file %q is invalid.\n", e.Filename)
	plural := "s"
	if len(e.Violations) == 1 {
		plural = ""
	}
	fmt.Fprintf(&builder, "%d field%s with validation failures:\n", len(e.Violations), plural)
	for _, v := range e.Violations {
		fmt.Fprintf(&builder, "  field %q: %s\n", v.Field, v.Message)
	}
	return builder.String()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
