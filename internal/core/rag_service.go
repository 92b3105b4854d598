package core

import (
	"context"
	"fmt"
	"log"

	"github.com/langchat/langchat/internal/docstore"
	"github.com/langchat/langchat/internal/llm"
	"github.com/langchat/langchat/internal/vectordb"
)

// RAGService performs the retrieval leg of the pipeline: embed the query,
// find the top-K nearest documents in the index, and fetch their text.
type RAGService struct {
	provider  llm.Provider
	index     vectordb.Index
	docs      docstore.Store
	namespace string
	topK      int
}

func NewRAGService(provider llm.Provider, index vectordb.Index, docs docstore.Store, namespace string, topK int) *RAGService {
	return &RAGService{
		provider:  provider,
		index:     index,
		docs:      docs,
		namespace: namespace,
		topK:      topK,
	}
}

// Retrieve returns context documents in descending similarity order, labeled
// doc_1..doc_n. Individual document fetch failures are skipped and the
// remaining documents renumbered contiguously; if every fetch fails the
// result is empty but the error is nil, so the caller proceeds with no
// context rather than failing the request. Embedding or index failures are
// fatal and returned as errors.
func (s *RAGService) Retrieve(ctx context.Context, query string) ([]ContextDocument, error) {
	vector, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	matches, err := s.index.Query(ctx, vector, s.namespace, s.topK)
	if err != nil {
		return nil, fmt.Errorf("failed to query vector index: %w", err)
	}

	var docs []ContextDocument
	for _, match := range matches {
		content, err := s.docs.Read(ctx, match.Filename)
		if err != nil {
			log.Printf("Skipping match %q (score %.4f): %v", match.Filename, match.Score, err)
			continue
		}
		docs = append(docs, ContextDocument{
			Label:    fmt.Sprintf("doc_%d", len(docs)+1),
			Filename: match.Filename,
			Content:  content,
		})
	}

	if len(matches) > 0 && len(docs) == 0 {
		log.Printf("All %d document fetches failed; proceeding with empty context", len(matches))
	}
	return docs, nil
}
