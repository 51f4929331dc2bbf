package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/jonathan/podcast-planner/internal/llm"
	"github.com/jonathan/podcast-planner/internal/schemas"
)

// maxRawSnippet bounds the response excerpt kept on SchemaValidationError.
const maxRawSnippet = 500

type validator interface {
	Validate() error
}

// Run performs exactly one model call for stage and decodes the response into
// T. The cleaned response must satisfy the stage JSON Schema and, when T has
// a Validate method, pass it.
func Run[T any](ctx context.Context, client llm.Client, stage Stage, data map[string]string) (*T, error) {
	req, err := stage.BuildRequest(data)
	if err != nil {
		return nil, &GenerationError{Stage: stage.Name, Message: "failed to build prompt", Cause: err}
	}
	req.Schema = llm.ReflectSchema[T]()

	raw, err := client.Generate(ctx, req)
	if err != nil {
		return nil, &GenerationError{Stage: stage.Name, Message: "model call failed", Cause: err}
	}

	return Decode[T](stage, raw)
}

// Decode turns a raw model response into a validated T.
func Decode[T any](stage Stage, raw string) (*T, error) {
	cleaned := llm.CleanJSONBlock(raw)

	if stage.SchemaFile != "" {
		if err := schemas.ValidateArtifact(stage.SchemaFile, cleaned); err != nil {
			return nil, schemaError(stage, raw, err)
		}
	}

	var out T
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, &SchemaValidationError{
			Stage:   stage.Name,
			Message: "response does not decode",
			Raw:     snippet(raw),
			Cause:   err,
		}
	}

	if v, ok := any(&out).(validator); ok {
		if err := v.Validate(); err != nil {
			return nil, &SchemaValidationError{
				Stage:   stage.Name,
				Message: "response failed validation",
				Raw:     snippet(raw),
				Cause:   err,
			}
		}
	}

	return &out, nil
}

// MarshalArtifact renders an artifact as indented JSON for embedding in a prompt.
func MarshalArtifact(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact: %w", err)
	}
	return string(data), nil
}

func schemaError(stage Stage, raw string, err error) error {
	out := &SchemaValidationError{Stage: stage.Name, Raw: snippet(raw), Cause: err}

	var verr *schemas.ValidationError
	var derr *schemas.DocumentError
	switch {
	case errors.As(err, &verr):
		out.Message = "response does not match schema"
		out.Fields = verr.Errors
	case errors.As(err, &derr):
		out.Message = "response is not valid JSON"
	default:
		// Schema loading problems are ours, not the model's.
		return &GenerationError{Stage: stage.Name, Message: "schema unavailable", Cause: err}
	}
	return out
}

func snippet(raw string) string {
	if len(raw) <= maxRawSnippet {
		return raw
	}
	n := maxRawSnippet
	for n > 0 && !utf8.RuneStart(raw[n]) {
		n--
	}
	return raw[:n] + "..."
}
