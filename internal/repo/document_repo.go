package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"

	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/dbutil"
	appErr "github.com/merchantiq/docengine/internal/pkg/errors"
)

type DocumentRepo struct {
	db *sql.DB
}

func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id, owner_id, name, path, mime_type, category, tags, description, web_view_link, view_count, ctime, mtime`

func (r *DocumentRepo) Create(ctx context.Context, doc *model.Document) error {
	data := map[string]interface{}{
		"id":            doc.ID,
		"owner_id":      doc.OwnerID,
		"name":          doc.Name,
		"path":          doc.Path,
		"mime_type":     doc.MimeType,
		"category":      doc.Category,
		"tags":          pq.Array(doc.Tags),
		"description":   doc.Description,
		"web_view_link": doc.WebViewLink,
		"view_count":    doc.ViewCount,
		"ctime":         doc.Ctime,
		"mtime":         doc.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("documents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil && dbutil.IsConflict(err) {
		return appErr.ErrConflict
	}
	return err
}

func (r *DocumentRepo) Get(ctx context.Context, id string) (*model.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return doc, err
}

func (r *DocumentRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE owner_id = $1 ORDER BY mtime DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

// ListWithContent joins each document with its concatenated chunk text, in
// chunk order. The lexical search tiers score against this view.
func (r *DocumentRepo) ListWithContent(ctx context.Context) ([]*model.DocumentText, error) {
	const query = `
		SELECT d.id, d.owner_id, d.name, d.path, d.mime_type, d.category, d.tags,
		       d.description, d.web_view_link, d.view_count, d.ctime, d.mtime,
		       COALESCE(string_agg(c.content, E'\n' ORDER BY c.chunk_index), '') AS content
		FROM documents d
		LEFT JOIN document_chunks c ON c.document_id = d.id
		GROUP BY d.id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []*model.DocumentText
	for rows.Next() {
		var item model.DocumentText
		var tags pq.StringArray
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Name, &item.Path, &item.MimeType,
			&item.Category, &tags, &item.Description, &item.WebViewLink,
			&item.ViewCount, &item.Ctime, &item.Mtime, &item.Content); err != nil {
			return nil, err
		}
		item.Tags = tags
		docs = append(docs, &item)
	}
	return docs, rows.Err()
}

// ListUnindexed returns documents that have no chunk generation yet, oldest first.
func (r *DocumentRepo) ListUnindexed(ctx context.Context, limit int) ([]*model.Document, error) {
	const query = `
		SELECT ` + documentColumns + `
		FROM documents d
		WHERE NOT EXISTS (SELECT 1 FROM document_chunks c WHERE c.document_id = d.id)
		ORDER BY d.ctime
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDocuments(rows)
}

func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *DocumentRepo) IncrementViews(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE documents SET view_count = view_count + 1 WHERE id = $1`, id)
	return err
}

func (r *DocumentRepo) Touch(ctx context.Context, id string, mtime int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE documents SET mtime = $2 WHERE id = $1`, id, mtime)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*model.Document, error) {
	var doc model.Document
	var tags pq.StringArray
	if err := row.Scan(&doc.ID, &doc.OwnerID, &doc.Name, &doc.Path, &doc.MimeType,
		&doc.Category, &tags, &doc.Description, &doc.WebViewLink,
		&doc.ViewCount, &doc.Ctime, &doc.Mtime); err != nil {
		return nil, err
	}
	doc.Tags = tags
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*model.Document, error) {
	var docs []*model.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}
