package generation

import (
	"fmt"

	"github.com/jonathan/podcast-planner/internal/schemas"
)

// GenerationError is returned when the language model call itself fails.
type GenerationError struct {
	Stage   string
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation failed at %s: %s: %v", e.Stage, e.Message, e.Cause)
	}
	return fmt.Sprintf("generation failed at %s: %s", e.Stage, e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// SchemaValidationError is returned when the model response is not JSON, does
// not match the stage schema, or fails semantic validation.
type SchemaValidationError struct {
	Stage   string
	Message string
	Fields  []schemas.FieldError
	// Raw is a truncated copy of the offending response.
	Raw   string
	Cause error
}

func (e *SchemaValidationError) Error() string {
	msg := fmt.Sprintf("invalid output at %s: %s", e.Stage, e.Message)
	if len(e.Fields) > 0 {
		first := e.Fields[0]
		msg = fmt.Sprintf("%s (%s: %s", msg, first.Field, first.Message)
		if len(e.Fields) > 1 {
			msg = fmt.Sprintf("%s; %d more", msg, len(e.Fields)-1)
		}
		msg += ")"
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Cause
}
