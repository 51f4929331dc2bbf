package llm

import "github.com/invopop/jsonschema"

// ReflectSchema builds a JSON Schema for T, suitable for providers that
// accept a response schema alongside the prompt.
func ReflectSchema[T any]() any {
	reflector := jsonschema.Reflector{
		DoNotReference: true,
	}
	var v T
	return reflector.Reflect(v)
}
