package core

import (
	"fmt"
	"strings"
)

// DefaultInstruction is the fixed system instruction for answering over the
// LangChain documentation corpus.
const DefaultInstruction = "You are responsible for answering questions about the LangChain documentation. " +
	"You are given retrieved context from the documentation; answer only based on it. " +
	"Do not assume the first or highest-ranked document is authoritative. " +
	"Do not make up information. If the retrieved context is empty or insufficient, " +
	"say that you do not have the information."

// ContextDocument is one retrieved document in rank order. Label is the
// stable source marker ("doc_1", "doc_2", ...) the instruction refers to.
type ContextDocument struct {
	Label    string
	Filename string
	Content  string
}

// BuildPrompt assembles the instruction, the user's question, and the
// retrieval context into a single prompt. It is deterministic and preserves
// document order exactly as given; the instruction explicitly tells the
// generator not to over-weight the first document, so the assembler must not
// reorder or deduplicate.
func BuildPrompt(instruction, query string, docs []ContextDocument) string {
	var retrieval strings.Builder
	for _, doc := range docs {
		fmt.Fprintf(&retrieval, "%s: %s\n%s\n", doc.Label, doc.Filename, doc.Content)
	}
	return fmt.Sprintf("%s\nuser question: %s\nretrieved context: %s", instruction, query, retrieval.String())
}
