// Package model wraps the language-model collaborator.
//
// The engine treats the model as a single capability: feed it a prompt, get
// back untrusted text. No retry happens here; a failed call is a terminal
// failure for the current conversation turn.
package model

import "context"

// Generator is the model collaborator. Output carries no guarantee of format
// or correctness; callers must defensively parse everything it returns.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
