package vector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/merchantiq/docengine/internal/ai"
	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/pgvector/pgvector-go"
)

const (
	taskDocument = "RETRIEVAL_DOCUMENT"
	taskQuery    = "RETRIEVAL_QUERY"
)

// PGIndex keeps chunk embeddings in a pgvector table and ranks by
// cosine similarity.
type PGIndex struct {
	db  *sql.DB
	ai  *ai.Manager
	cfg config.VectorConfig
}

// New returns nil when the index is disabled; callers treat a nil
// Index as an unavailable tier.
func New(db *sql.DB, manager *ai.Manager, cfg config.VectorConfig) Index {
	if !cfg.Enabled {
		return nil
	}
	return &PGIndex{db: db, ai: manager, cfg: cfg}
}

func (p *PGIndex) Upsert(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().UnixMilli()
	for _, e := range entries {
		emb, err := p.ai.Embed(ctx, e.Content, taskDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %s: %w", e.ChunkID, err)
		}
		_, err = p.db.ExecContext(ctx, `
			INSERT INTO document_vectors (chunk_id, document_id, namespace, content, embedding, mtime)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (chunk_id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				namespace = EXCLUDED.namespace,
				content = EXCLUDED.content,
				embedding = EXCLUDED.embedding,
				mtime = EXCLUDED.mtime`,
			e.ChunkID, e.DocumentID, e.Namespace, e.Content, pgvector.NewVector(emb), now)
		if err != nil {
			return fmt.Errorf("upsert vector %s: %w", e.ChunkID, err)
		}
	}
	return nil
}

func (p *PGIndex) Query(ctx context.Context, query string, namespaces []string, limit int, threshold float64) ([]Match, error) {
	emb, err := p.ai.Embed(ctx, query, taskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(p.cfg.Timeout)*time.Second)
		defer cancel()
	}

	args := []interface{}{pgvector.NewVector(emb)}
	var where string
	if len(namespaces) > 0 {
		placeholders := make([]string, 0, len(namespaces))
		for _, ns := range namespaces {
			args = append(args, ns)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		where = fmt.Sprintf("WHERE namespace IN (%s)", strings.Join(placeholders, ", "))
	}
	args = append(args, limit)
	q := fmt.Sprintf(`
		SELECT chunk_id, document_id, namespace, content, 1 - (embedding <=> $1) AS similarity
		FROM document_vectors
		%s
		ORDER BY embedding <=> $1
		LIMIT $%d`, where, len(args))

	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", errors.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ChunkID, &m.DocumentID, &m.Namespace, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		if m.Similarity < threshold {
			continue
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (p *PGIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM document_vectors WHERE document_id = $1`, documentID)
	return err
}

func (p *PGIndex) Health(ctx context.Context) error {
	var count int64
	if err := p.db.QueryRowContext(ctx, `SELECT count(1) FROM document_vectors`).Scan(&count); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrIndexUnavailable, err)
	}
	return nil
}
