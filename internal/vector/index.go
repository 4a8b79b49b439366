package vector

import (
	"context"
)

// Entry is one embedded chunk stored in the index.
type Entry struct {
	ChunkID    string
	DocumentID string
	Namespace  string
	Content    string
}

// Match is a query hit with cosine similarity in [0,1].
type Match struct {
	ChunkID    string
	DocumentID string
	Namespace  string
	Content    string
	Similarity float64
}

// Index stores chunk embeddings and answers nearest-neighbor queries.
// A nil Index is the disabled configuration: callers treat it as an
// unavailable tier, not an error.
type Index interface {
	Upsert(ctx context.Context, entries []Entry) error
	Query(ctx context.Context, query string, namespaces []string, limit int, threshold float64) ([]Match, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	Health(ctx context.Context) error
}
