package model

type Document struct {
	ID          string   `json:"id"`
	OwnerID     string   `json:"owner_id"`
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	MimeType    string   `json:"mime_type"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
	WebViewLink string   `json:"web_view_link"`
	ViewCount   int      `json:"view_count"`
	Ctime       int64    `json:"ctime"`
	Mtime       int64    `json:"mtime"`
}

// DocumentText is a document joined with its indexed chunk text, the unit the
// lexical search tiers score against.
type DocumentText struct {
	Document
	Content string `json:"content"`
}
