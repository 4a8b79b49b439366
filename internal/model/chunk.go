package model

// ExtractionMethod records how a chunk's text was produced.
type ExtractionMethod string

const (
	MethodPDFText   ExtractionMethod = "pdf-text"
	MethodOCR       ExtractionMethod = "ocr"
	MethodTextFile  ExtractionMethod = "text-file"
	MethodGenerated ExtractionMethod = "generated"
	MethodFailed    ExtractionMethod = "failed"
)

type Chunk struct {
	ID         string        `json:"id"`
	DocumentID string        `json:"document_id"`
	Content    string        `json:"content"`
	ChunkIndex int           `json:"chunk_index"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// ChunkMetadata field names are part of the persisted format; downstream
// consumers read them across re-indexing, so they must stay stable.
type ChunkMetadata struct {
	DocumentName     string           `json:"documentName"`
	ChunkOf          int              `json:"chunkOf"`
	ExtractedAt      string           `json:"extractedAt"`
	ExtractionMethod ExtractionMethod `json:"extractionMethod"`
	OCRConfidence    float64          `json:"ocrConfidence"`
}
