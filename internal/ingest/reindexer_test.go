package ingest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/merchantiq/docengine/internal/config"
	"github.com/merchantiq/docengine/internal/extract"
	"github.com/merchantiq/docengine/internal/model"
	appErr "github.com/merchantiq/docengine/internal/pkg/errors"
	"github.com/merchantiq/docengine/internal/vector"
	"github.com/stretchr/testify/require"
)

type fakeDocStore struct {
	docs map[string]*model.Document
}

func (f *fakeDocStore) Get(ctx context.Context, id string) (*model.Document, error) {
	doc, ok := f.docs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

func (f *fakeDocStore) ListUnindexed(ctx context.Context, limit int) ([]*model.Document, error) {
	var out []*model.Document
	for _, d := range f.docs {
		out = append(out, d)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeDocStore) Touch(ctx context.Context, id string, mtime int64) error { return nil }

type fakeChunkStore struct {
	stored map[string][]*model.Chunk
	err    error
}

func (f *fakeChunkStore) ReplaceForDocument(ctx context.Context, documentID string, chunks []*model.Chunk) error {
	if f.err != nil {
		return f.err
	}
	if f.stored == nil {
		f.stored = map[string][]*model.Chunk{}
	}
	f.stored[documentID] = chunks
	return nil
}

type fakeFileStore struct {
	files map[string][]byte
}

func (f *fakeFileStore) Save(ctx context.Context, key string, r io.Reader) error { return nil }

func (f *fakeFileStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.files[key]
	if !ok {
		return nil, errors.New("no such file")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeExtractor struct {
	result *extract.Result
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, mimeType string) (*extract.Result, error) {
	return f.result, f.err
}

type fakeIndex struct {
	upserted  []vector.Entry
	deleted   []string
	ops       []string
	err       error
	deleteErr error
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []vector.Entry) error {
	if f.err != nil {
		return f.err
	}
	f.ops = append(f.ops, "upsert")
	f.upserted = append(f.upserted, entries...)
	return nil
}

func (f *fakeIndex) Query(ctx context.Context, query string, namespaces []string, limit int, threshold float64) ([]vector.Match, error) {
	return nil, nil
}

func (f *fakeIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.ops = append(f.ops, "delete")
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeIndex) Health(ctx context.Context) error { return nil }

func testConfig() config.IngestConfig {
	return config.IngestConfig{MaxChunkSize: 3800, ChunkOverlap: 200, MinTextLength: 50}
}

func testDoc() *model.Document {
	return &model.Document{
		ID:       "doc-1",
		OwnerID:  "default",
		Name:     "tsys-rates.pdf",
		Path:     "uploads/doc-1.pdf",
		MimeType: "application/pdf",
	}
}

func TestReindexStoresChunksAndVectors(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": testDoc()}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("pdf bytes")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("TSYS qualified rate 1.59% for retail swiped transactions. ", 10),
		Confidence: 91,
		Method:     model.MethodPDFText,
	}}
	index := &fakeIndex{}

	r := NewReindexer(docs, chunks, files, extractor, index, testConfig())
	outcome, err := r.Reindex(context.Background(), "doc-1", "processors/tsys")
	require.NoError(t, err)
	require.Empty(t, outcome.Error)
	require.True(t, outcome.Indexed)
	require.Equal(t, model.MethodPDFText, outcome.Method)
	require.Greater(t, outcome.Chunks, 0)

	stored := chunks.stored["doc-1"]
	require.Len(t, stored, outcome.Chunks)
	require.Equal(t, "doc-1-chunk-0", stored[0].ID)
	require.Equal(t, "tsys-rates.pdf", stored[0].Metadata.DocumentName)
	require.Equal(t, len(stored), stored[0].Metadata.ChunkOf)
	require.Len(t, index.upserted, len(stored))
	require.Equal(t, "processors/tsys", index.upserted[0].Namespace)
}

func TestReindexDeletesStaleVectorsFirst(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": testDoc()}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("pdf bytes")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("TSYS interchange pass-through schedule and dues. ", 5),
		Confidence: 90,
		Method:     model.MethodPDFText,
	}}
	index := &fakeIndex{}

	r := NewReindexer(docs, chunks, files, extractor, index, testConfig())
	outcome, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	require.True(t, outcome.Indexed)
	require.Equal(t, []string{"doc-1"}, index.deleted)
	require.Equal(t, []string{"delete", "upsert"}, index.ops)
}

func TestReindexDeleteFailureSkipsUpsert(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": testDoc()}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("pdf bytes")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("First Data merchant application checklist. ", 5),
		Confidence: 90,
		Method:     model.MethodPDFText,
	}}
	index := &fakeIndex{deleteErr: errors.New("index offline")}

	r := NewReindexer(docs, chunks, files, extractor, index, testConfig())
	outcome, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	require.False(t, outcome.Indexed)
	require.Contains(t, outcome.Error, "vector delete")
	require.Empty(t, index.upserted, "stale generation must not be mixed with a failed delete")
	require.NotEmpty(t, chunks.stored["doc-1"])
}

func TestReindexIsIdempotent(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": testDoc()}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("pdf bytes")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("TSYS qualified rate 1.59% for retail swiped transactions. ", 80),
		Confidence: 91,
		Method:     model.MethodPDFText,
	}}
	index := &fakeIndex{}

	r := NewReindexer(docs, chunks, files, extractor, index, testConfig())
	first, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	firstIDs := chunkIDs(chunks.stored["doc-1"])

	second, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	require.Equal(t, first.Chunks, second.Chunks)
	require.Equal(t, firstIDs, chunkIDs(chunks.stored["doc-1"]))
}

func chunkIDs(chunks []*model.Chunk) []string {
	ids := make([]string, 0, len(chunks))
	for _, c := range chunks {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestReindexGeneratesDescriptionForEmptyText(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": testDoc()}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("x")}}
	extractor := &fakeExtractor{result: &extract.Result{Text: "short", Confidence: 20, Method: model.MethodOCR}}

	r := NewReindexer(docs, chunks, files, extractor, nil, testConfig())
	outcome, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	require.Equal(t, model.MethodGenerated, outcome.Method)
	require.Zero(t, outcome.Confidence)

	stored := chunks.stored["doc-1"]
	require.NotEmpty(t, stored)
	require.Contains(t, stored[0].Content, "tsys-rates.pdf")
}

func TestReindexVectorFailureIsNotFatal(t *testing.T) {
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": testDoc()}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("x")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("Clearent monthly fees and equipment pricing overview. ", 5),
		Confidence: 88,
		Method:     model.MethodPDFText,
	}}
	index := &fakeIndex{err: errors.New("embedding api down")}

	r := NewReindexer(docs, chunks, files, extractor, index, testConfig())
	outcome, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	require.False(t, outcome.Indexed)
	require.Contains(t, outcome.Error, "vector upsert")
	require.NotEmpty(t, chunks.stored["doc-1"], "chunks must survive a vector failure")
}

func TestReindexPathRewrite(t *testing.T) {
	doc := testDoc()
	doc.Path = "/uploads/doc-1.pdf"
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": doc}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("x")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("Gateway integration steps for Authorize.Net accounts. ", 5),
		Confidence: 95,
		Method:     model.MethodPDFText,
	}}

	r := NewReindexer(docs, chunks, files, extractor, nil, testConfig())
	outcome, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	require.Empty(t, outcome.Error)
}

func TestReindexPathTriedAsIsFirst(t *testing.T) {
	// A legacy-looking path that actually exists verbatim must open
	// without rewriting.
	doc := testDoc()
	doc.Path = "/uploads/doc-1.pdf"
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": doc}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"/uploads/doc-1.pdf": []byte("x")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("PAX terminal provisioning and key injection notes. ", 5),
		Confidence: 95,
		Method:     model.MethodPDFText,
	}}

	r := NewReindexer(docs, chunks, files, extractor, nil, testConfig())
	outcome, err := r.Reindex(context.Background(), "doc-1", "default")
	require.NoError(t, err)
	require.Empty(t, outcome.Error)
}

func TestOpenFileMissReturnsSentinel(t *testing.T) {
	files := &fakeFileStore{files: map[string][]byte{}}
	r := NewReindexer(nil, nil, files, nil, nil, testConfig())

	_, _, err := r.openFile(context.Background(), "documents/gone.pdf")
	require.Error(t, err)
	require.ErrorIs(t, err, appErr.ErrFileNotFound)
}

func TestReindexBatchTally(t *testing.T) {
	good := testDoc()
	bad := testDoc()
	bad.ID = "doc-2"
	bad.Path = "uploads/missing.pdf"
	docs := &fakeDocStore{docs: map[string]*model.Document{"doc-1": good, "doc-2": bad}}
	chunks := &fakeChunkStore{}
	files := &fakeFileStore{files: map[string][]byte{"uploads/doc-1.pdf": []byte("x")}}
	extractor := &fakeExtractor{result: &extract.Result{
		Text:       strings.Repeat("Shift4 terminal deployment and support material. ", 5),
		Confidence: 90,
		Method:     model.MethodPDFText,
	}}

	r := NewReindexer(docs, chunks, files, extractor, nil, testConfig())
	outcome, err := r.ReindexBatch(context.Background(), 10, "default")
	require.NoError(t, err)
	require.Equal(t, 2, outcome.Processed)
	require.Equal(t, 1, outcome.Succeeded)
	require.Equal(t, 1, outcome.Failed)
}
