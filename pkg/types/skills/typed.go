package skills

import (
	"context"

	"github.com/invopop/jsonschema"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Describer is implemented by skills that publish their input contract.
type Describer interface {
	Description() string
	InputSchema() *jsonschema.Schema
}

// Typed adapts a strongly typed skill function to the Skill interface.
// Input payloads are decoded into In with weakly typed mapstructure rules,
// so JSON numbers and string slices arriving as []any are accepted. The
// returned Out is encoded back into a Payload using the same tags.
type Typed[In any, Out any] struct {
	Summary string
	Fn      func(ctx context.Context, in In) (Out, error)
}

var (
	_ Skill     = Typed[struct{}, struct{}]{}
	_ Describer = Typed[struct{}, struct{}]{}
)

// NewTyped creates a typed skill adapter.
func NewTyped[In any, Out any](summary string, fn func(ctx context.Context, in In) (Out, error)) Typed[In, Out] {
	return Typed[In, Out]{Summary: summary, Fn: fn}
}

// Execute decodes input, calls the typed function and encodes its output.
func (t Typed[In, Out]) Execute(ctx context.Context, input Payload) (Payload, error) {
	var in In
	if err := DecodePayload(input, &in); err != nil {
		return nil, errors.Wrap(err, "invalid input")
	}

	out, err := t.Fn(ctx, in)
	if err != nil {
		return nil, err
	}

	return EncodePayload(out)
}

// Description returns the one-line summary of the skill.
func (t Typed[In, Out]) Description() string {
	return t.Summary
}

// InputSchema returns the JSON schema of In.
func (t Typed[In, Out]) InputSchema() *jsonschema.Schema {
	return GenerateSchema[In]()
}

// GenerateSchema reflects a JSON schema for T.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	var v T

	return reflector.Reflect(v)
}

// DecodePayload decodes a payload into the struct pointed to by target.
func DecodePayload(input Payload, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return errors.Wrap(err, "failed to create payload decoder")
	}
	if input == nil {
		input = Payload{}
	}
	return decoder.Decode(map[string]any(input))
}

// EncodePayload encodes a struct (or map) into a Payload.
func EncodePayload(v any) (Payload, error) {
	out := map[string]any{}
	if err := mapstructure.Decode(v, &out); err != nil {
		return nil, errors.Wrap(err, "failed to encode output")
	}
	return Payload(out), nil
}
