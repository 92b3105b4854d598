package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptPreservesDocumentOrder(t *testing.T) {
	docs := []ContextDocument{
		{Label: "doc_1", Filename: "a.txt", Content: "alpha"},
		{Label: "doc_2", Filename: "b.txt", Content: "beta"},
		{Label: "doc_3", Filename: "c.txt", Content: "gamma"},
	}

	prompt := BuildPrompt(DefaultInstruction, "what is langchain?", docs)

	posA := strings.Index(prompt, "doc_1: a.txt")
	posB := strings.Index(prompt, "doc_2: b.txt")
	posC := strings.Index(prompt, "doc_3: c.txt")
	assert.True(t, posA >= 0 && posB > posA && posC > posB,
		"labels must appear in rank order, got prompt:\n%s", prompt)
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	docs := []ContextDocument{{Label: "doc_1", Filename: "a.txt", Content: "alpha"}}
	first := BuildPrompt(DefaultInstruction, "q", docs)
	second := BuildPrompt(DefaultInstruction, "q", docs)
	assert.Equal(t, first, second)
}

func TestBuildPromptContainsQueryAndInstruction(t *testing.T) {
	prompt := BuildPrompt(DefaultInstruction, "how do agents work?", nil)
	assert.Contains(t, prompt, DefaultInstruction)
	assert.Contains(t, prompt, "user question: how do agents work?")
	assert.Contains(t, prompt, "retrieved context:")
}

func TestBuildPromptEmptyContext(t *testing.T) {
	prompt := BuildPrompt(DefaultInstruction, "q", nil)
	// No document labels at all; the instruction handles the empty case.
	assert.NotContains(t, prompt, "doc_1")
}
