package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/dbutil"
)

type ChunkRepo struct {
	db *sqlx.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: sqlx.NewDb(db, "postgres")}
}

type chunkRow struct {
	ID         string `db:"id"`
	DocumentID string `db:"document_id"`
	Content    string `db:"content"`
	ChunkIndex int    `db:"chunk_index"`
	Metadata   []byte `db:"metadata"`
}

// ReplaceForDocument deletes every existing chunk for the document and inserts
// the new generation in one transaction, so a reader never sees a mix of
// generations.
func (r *ChunkRepo) ReplaceForDocument(ctx context.Context, documentID string, chunks []*model.Chunk) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID); err != nil {
		return fmt.Errorf("delete old chunks: %w", err)
	}
	if len(chunks) > 0 {
		records := make([]map[string]interface{}, 0, len(chunks))
		for _, chunk := range chunks {
			blob, err := json.Marshal(chunk.Metadata)
			if err != nil {
				return err
			}
			records = append(records, map[string]interface{}{
				"id":          chunk.ID,
				"document_id": chunk.DocumentID,
				"content":     chunk.Content,
				"chunk_index": chunk.ChunkIndex,
				"metadata":    blob,
			})
		}
		sqlStr, args, err := builder.BuildInsert("document_chunks", records)
		if err != nil {
			return err
		}
		sqlStr, args = dbutil.Finalize(sqlStr, args)
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("insert chunks: %w", err)
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error) {
	var rows []chunkRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, document_id, content, chunk_index, metadata FROM document_chunks WHERE document_id = $1 ORDER BY chunk_index`,
		documentID)
	if err != nil {
		return nil, err
	}
	chunks := make([]*model.Chunk, 0, len(rows))
	for _, row := range rows {
		chunk := &model.Chunk{
			ID:         row.ID,
			DocumentID: row.DocumentID,
			Content:    row.Content,
			ChunkIndex: row.ChunkIndex,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &chunk.Metadata); err != nil {
				return nil, err
			}
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func (r *ChunkRepo) CountByDocument(ctx context.Context, documentID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM document_chunks WHERE document_id = $1`, documentID)
	return count, err
}

func (r *ChunkRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
