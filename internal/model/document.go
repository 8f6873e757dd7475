package model

// CandidateDocument is a scraped page produced by the search-and-scrape
// worker. It is consumed by exactly one extraction step and never persisted.
type CandidateDocument struct {
	URL         string      `json:"url"`
	Title       string      `json:"title"`
	Content     string      `json:"content"`
	SourceQuery SearchQuery `json:"source_query"`
}

// SourceDocument is a document listed by a per-source fetcher. Content is
// usually empty and fetched lazily by the document processor.
type SourceDocument struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	Type       string `json:"type"`
	Date       string `json:"date,omitempty"`
	SourceName string `json:"source_name"`
	Content    string `json:"content,omitempty"`
}
