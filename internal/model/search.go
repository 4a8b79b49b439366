package model

// ScoreSignals is the per-signal breakdown behind a result's final score.
type ScoreSignals struct {
	Title   float64 `json:"title"`
	Content float64 `json:"content"`
	Keyword float64 `json:"keyword"`
	Boost   float64 `json:"boost"`
}

type SearchResult struct {
	DocumentID   string       `json:"document_id"`
	DocumentName string       `json:"document_name"`
	Content      string       `json:"content"`
	Score        float64      `json:"score"`
	Signals      ScoreSignals `json:"signals"`
	MimeType     string       `json:"mime_type"`
	WebViewLink  string       `json:"web_view_link"`
	ChunkIndex   int          `json:"chunk_index"`
}
