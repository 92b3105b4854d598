package core

import (
	"context"
	"fmt"

	"github.com/langchat/langchat/internal/vectordb"
)

// fakeProvider substitutes the embedding/generation provider. Unset hooks
// fall back to canned successes.
type fakeProvider struct {
	embedFn            func(ctx context.Context, text string) ([]float32, error)
	generateFn         func(ctx context.Context, prompt string) (string, error)
	generateStreamFn   func(ctx context.Context, prompt string, onFragment func(string) error) error
	generateStructured func(ctx context.Context, prompt string, out any) error

	lastPrompt string
}

func (f *fakeProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(ctx, text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.generateFn != nil {
		return f.generateFn(ctx, prompt)
	}
	return "canned answer", nil
}

func (f *fakeProvider) GenerateStream(ctx context.Context, prompt string, onFragment func(string) error) error {
	f.lastPrompt = prompt
	if f.generateStreamFn != nil {
		return f.generateStreamFn(ctx, prompt, onFragment)
	}
	for _, fragment := range []string{"canned ", "answer"} {
		if err := onFragment(fragment); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeProvider) GenerateStructured(ctx context.Context, prompt string, out any) error {
	f.lastPrompt = prompt
	if f.generateStructured != nil {
		return f.generateStructured(ctx, prompt, out)
	}
	if payload, ok := out.(*answerPayload); ok {
		payload.Response = "canned answer"
		return nil
	}
	return fmt.Errorf("unexpected structured target %T", out)
}

func (f *fakeProvider) Close() error { return nil }

// fakeIndex returns a fixed match list in rank order.
type fakeIndex struct {
	matches []vectordb.Match
	err     error
}

func (f *fakeIndex) Query(ctx context.Context, vector []float32, namespace string, topK int) ([]vectordb.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.matches) > topK {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}

func (f *fakeIndex) Close() error { return nil }

// fakeDocs serves documents from a map; absent keys fail the fetch.
type fakeDocs struct {
	docs map[string]string
}

func (f *fakeDocs) Read(ctx context.Context, identifier string) (string, error) {
	content, ok := f.docs[identifier]
	if !ok {
		return "", fmt.Errorf("document %q not found", identifier)
	}
	return content, nil
}
