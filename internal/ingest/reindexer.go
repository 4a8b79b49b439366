package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/extract"
	"github.com/merchantiq/docengine/internal/filestore"
	"github.com/merchantiq/docengine/internal/model"
	"github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/merchantiq/docengine/internal/vector"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// IDocumentStore is the slice of document persistence the reindexer needs.
type IDocumentStore interface {
	Get(ctx context.Context, id string) (*model.Document, error)
	ListUnindexed(ctx context.Context, limit int) ([]*model.Document, error)
	Touch(ctx context.Context, id string, mtime int64) error
}

// IChunkStore persists a document's chunk set atomically.
type IChunkStore interface {
	ReplaceForDocument(ctx context.Context, documentID string, chunks []*model.Chunk) error
}

// IExtractor turns stored file bytes into text.
type IExtractor interface {
	Extract(ctx context.Context, data []byte, mimeType string) (*extract.Result, error)
}

// ReindexOutcome reports what happened to one document.
type ReindexOutcome struct {
	DocumentID string                 `json:"document_id"`
	Name       string                 `json:"name"`
	Chunks     int                    `json:"chunks"`
	Method     model.ExtractionMethod `json:"method"`
	Confidence float64                `json:"confidence"`
	Indexed    bool                   `json:"indexed"`
	Error      string                 `json:"error,omitempty"`
}

// BatchOutcome tallies one reindex sweep.
type BatchOutcome struct {
	Processed int              `json:"processed"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Outcomes  []ReindexOutcome `json:"outcomes"`
}

// Reindexer extracts, chunks, and indexes stored documents. Vector
// upsert failure degrades the document to lexical-only retrieval and
// is reported, not fatal.
type Reindexer struct {
	docs    IDocumentStore
	chunks  IChunkStore
	files   filestore.Store
	extract IExtractor
	index   vector.Index
	chunker *Chunker
	cfg     config.IngestConfig
	// Storage keys recorded under old roots are rewritten before lookup.
	pathRewrites map[string]string
}

func NewReindexer(docs IDocumentStore, chunks IChunkStore, files filestore.Store, ex IExtractor, index vector.Index, cfg config.IngestConfig) *Reindexer {
	return &Reindexer{
		docs:    docs,
		chunks:  chunks,
		files:   files,
		extract: ex,
		index:   index,
		chunker: NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap),
		cfg:     cfg,
		pathRewrites: map[string]string{
			"/uploads/":   "uploads/",
			"./uploads/":  "uploads/",
			"documents/":  "uploads/",
			"/documents/": "uploads/",
		},
	}
}

// Reindex rebuilds a single document's chunks and vectors from its stored file.
func (r *Reindexer) Reindex(ctx context.Context, documentID string, namespace string) (*ReindexOutcome, error) {
	doc, err := r.docs.Get(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return r.reindexDoc(ctx, doc, namespace), nil
}

// ReindexBatch sweeps up to limit unindexed documents sequentially,
// pausing between documents so extraction does not saturate the
// recognition service.
func (r *Reindexer) ReindexBatch(ctx context.Context, limit int, namespace string) (*BatchOutcome, error) {
	docs, err := r.docs.ListUnindexed(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list unindexed: %w", err)
	}
	outcome := &BatchOutcome{}
	for i, doc := range docs {
		if i > 0 && r.cfg.BatchDelayMS > 0 {
			select {
			case <-ctx.Done():
				return outcome, ctx.Err()
			case <-time.After(time.Duration(r.cfg.BatchDelayMS) * time.Millisecond):
			}
		}
		res := r.reindexDoc(ctx, doc, namespace)
		outcome.Processed++
		if res.Error == "" {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
		outcome.Outcomes = append(outcome.Outcomes, *res)
	}
	logutil.GetLogger(ctx).Info("reindex sweep finished",
		zap.Int("processed", outcome.Processed),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed))
	return outcome, nil
}

func (r *Reindexer) reindexDoc(ctx context.Context, doc *model.Document, namespace string) *ReindexOutcome {
	out := &ReindexOutcome{DocumentID: doc.ID, Name: doc.Name}
	logger := logutil.GetLogger(ctx).With(zap.String("document_id", doc.ID), zap.String("name", doc.Name))

	result, err := r.extractDocument(ctx, doc)
	if err != nil {
		out.Error = err.Error()
		logger.Error("extraction failed", zap.Error(err))
		return out
	}
	text := result.Text
	method := result.Method

	// Documents whose file yields nothing usable still get a searchable
	// stub generated from their name and category.
	if len(strings.TrimSpace(text)) < r.cfg.MinTextLength {
		text = GenerateDescription(doc)
		method = model.MethodGenerated
		result.Confidence = 0
		logger.Info("extracted text below threshold, generated description used")
	}

	pieces := r.chunker.Split(text)
	now := time.Now().UTC().Format(time.RFC3339)
	chunks := make([]*model.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, &model.Chunk{
			ID:         fmt.Sprintf("%s-chunk-%d", doc.ID, i),
			DocumentID: doc.ID,
			Content:    piece,
			ChunkIndex: i,
			Metadata: model.ChunkMetadata{
				DocumentName:     doc.Name,
				ChunkOf:          len(pieces),
				ExtractedAt:      now,
				ExtractionMethod: method,
				OCRConfidence:    result.Confidence,
			},
		})
	}
	if err := r.chunks.ReplaceForDocument(ctx, doc.ID, chunks); err != nil {
		out.Error = fmt.Sprintf("store chunks: %v", err)
		logger.Error("chunk replace failed", zap.Error(err))
		return out
	}
	_ = r.docs.Touch(ctx, doc.ID, time.Now().UnixMilli())

	out.Chunks = len(chunks)
	out.Method = method
	out.Confidence = result.Confidence

	if r.index != nil {
		entries := make([]vector.Entry, 0, len(chunks))
		for _, c := range chunks {
			entries = append(entries, vector.Entry{
				ChunkID:    c.ID,
				DocumentID: doc.ID,
				Namespace:  namespace,
				Content:    c.Content,
			})
		}
		// Drop the previous generation first so a document that shrank
		// leaves no stale chunk vectors behind.
		if err := r.index.DeleteByDocument(ctx, doc.ID); err != nil {
			out.Error = fmt.Sprintf("vector delete: %v", err)
			logger.Warn("vector delete failed, document stays lexical-only", zap.Error(err))
		} else if err := r.index.Upsert(ctx, entries); err != nil {
			out.Error = fmt.Sprintf("vector upsert: %v", err)
			logger.Warn("vector upsert failed, document stays lexical-only", zap.Error(err))
		} else {
			out.Indexed = true
		}
	}
	logger.Info("document reindexed",
		zap.Int("chunks", out.Chunks),
		zap.String("method", string(method)),
		zap.Float64("confidence", out.Confidence),
		zap.Bool("indexed", out.Indexed))
	return out
}

func (r *Reindexer) extractDocument(ctx context.Context, doc *model.Document) (*extract.Result, error) {
	rc, key, err := r.openFile(ctx, doc.Path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", key, err)
	}
	return r.extract.Extract(ctx, data, doc.MimeType)
}

// openFile tries the stored path as-is, then every applicable rewrite
// of the legacy storage roots. A document whose file answers to none
// of the variants is gone.
func (r *Reindexer) openFile(ctx context.Context, path string) (io.ReadCloser, string, error) {
	for _, candidate := range r.pathCandidates(path) {
		if rc, err := r.files.Open(ctx, candidate); err == nil {
			return rc, candidate, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s", errors.ErrFileNotFound, path)
}

func (r *Reindexer) pathCandidates(path string) []string {
	candidates := []string{path}
	for prefix, replacement := range r.pathRewrites {
		if strings.HasPrefix(path, prefix) {
			candidates = append(candidates, replacement+strings.TrimPrefix(path, prefix))
		}
	}
	return candidates
}
