// Package vectordb abstracts the external vector index the retrieval step
// queries for nearest neighbors.
package vectordb

import "context"

// Match is one nearest-neighbor result: the document it points at and its
// similarity score. Matches are transient; they are consumed immediately to
// fetch document text and never persisted.
type Match struct {
	Filename string
	Score    float32
}

// Index is the read-only query surface of the vector database. Namespace
// scopes which document set a query searches.
type Index interface {
	Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error)
	Close() error
}
