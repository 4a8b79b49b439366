package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchantiq/docengine/internal/filestore"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/merchantiq/docengine/internal/repo"
	"github.com/merchantiq/docengine/internal/vector"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"text/plain":      {},
	"text/markdown":   {},
	"text/csv":        {},
	"image/png":       {},
	"image/jpeg":      {},
	"image/gif":       {},
	"image/tiff":      {},
}

type DocumentCreateInput struct {
	Name        string
	MimeType    string
	Category    string
	Tags        []string
	Description string
	File        io.Reader
}

// DocumentService owns document lifecycle: the stored file, the
// database row, and the derived chunks and vectors that hang off it.
type DocumentService struct {
	docs   *repo.DocumentRepo
	chunks *repo.ChunkRepo
	files  filestore.Store
	index  vector.Index
}

func NewDocumentService(docs *repo.DocumentRepo, chunks *repo.ChunkRepo, files filestore.Store, index vector.Index) *DocumentService {
	return &DocumentService{docs: docs, chunks: chunks, files: files, index: index}
}

func (s *DocumentService) Create(ctx context.Context, ownerID string, input DocumentCreateInput) (*model.Document, error) {
	if input.Name == "" || input.File == nil {
		return nil, errors.ErrInvalid
	}
	mimeType := strings.ToLower(strings.TrimSpace(input.MimeType))
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return nil, fmt.Errorf("%w: unsupported mime type %s", errors.ErrInvalid, mimeType)
	}

	id := uuid.NewString()
	key := fmt.Sprintf("uploads/%s%s", id, strings.ToLower(path.Ext(input.Name)))
	if err := s.files.Save(ctx, key, input.File); err != nil {
		return nil, fmt.Errorf("save file: %w", err)
	}

	now := time.Now().UnixMilli()
	doc := &model.Document{
		ID:          id,
		OwnerID:     ownerID,
		Name:        input.Name,
		Path:        key,
		MimeType:    mimeType,
		Category:    input.Category,
		Tags:        input.Tags,
		Description: input.Description,
		Ctime:       now,
		Mtime:       now,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("document stored",
		zap.String("document_id", id), zap.String("name", input.Name), zap.String("mime_type", mimeType))
	return doc, nil
}

func (s *DocumentService) Get(ctx context.Context, ownerID, id string) (*model.Document, error) {
	doc, err := s.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != ownerID {
		return nil, errors.ErrNotFound
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, ownerID string) ([]*model.Document, error) {
	return s.docs.ListByOwner(ctx, ownerID)
}

// Delete removes the row, its chunks via cascade, and its vectors.
// The stored file stays: uploads are append-only.
func (s *DocumentService) Delete(ctx context.Context, ownerID, id string) error {
	doc, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.DeleteByDocument(ctx, doc.ID); err != nil {
			logutil.GetLogger(ctx).Warn("vector cleanup failed",
				zap.String("document_id", doc.ID), zap.Error(err))
		}
	}
	return nil
}

// Chunks returns a document's indexed chunks in order.
func (s *DocumentService) Chunks(ctx context.Context, ownerID, id string) ([]*model.Chunk, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return s.chunks.ListByDocument(ctx, id)
}
