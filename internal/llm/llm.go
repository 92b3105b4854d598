// Package llm abstracts the embedding and generation providers behind a
// single interface so the pipeline can run against Gemini or OpenAI (and
// tests can run against fakes).
package llm

import "context"

// Provider is the contract the answer pipeline consumes. All calls are
// independently fallible network operations.
type Provider interface {
	// Embed converts text to a fixed-dimension vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Generate returns the full completion for a prompt in one call.
	Generate(ctx context.Context, prompt string) (string, error)

	// GenerateStream produces the completion incrementally, invoking
	// onFragment for each text fragment as it arrives. A non-nil error from
	// onFragment aborts the stream.
	GenerateStream(ctx context.Context, prompt string, onFragment func(fragment string) error) error

	// GenerateStructured constrains the completion to JSON and decodes it
	// into out, which must be a pointer to a JSON-taggable value.
	GenerateStructured(ctx context.Context, prompt string, out any) error

	Close() error
}
