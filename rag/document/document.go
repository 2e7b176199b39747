package document

import (
	"fmt"
	"sync/atomic"
)

// Format identifies the source encoding of an ingested document.
type Format string

const (
	FormatPlain    Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Document represents a knowledge source that can be chunked and indexed.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
	Format  Format `json:"format,omitempty"`
}

// PolicyMetadata describes the insurance product a document covers. It is
// copied onto every chunk produced from the document.
type PolicyMetadata struct {
	PolicyName  string  `json:"policy_name"`
	PolicyType  string  `json:"policy_type,omitempty"`
	Company     string  `json:"company,omitempty"`
	CoverageMin float64 `json:"coverage_min,omitempty"`
	CoverageMax float64 `json:"coverage_max,omitempty"`
	PremiumMin  float64 `json:"premium_min,omitempty"`
	PremiumMax  float64 `json:"premium_max,omitempty"`
	AgeMin      int     `json:"age_min,omitempty"`
	AgeMax      int     `json:"age_max,omitempty"`
	Source      string  `json:"source,omitempty"`
}

// Chunk represents a slice of a document that is indexed into the vector index.
type Chunk struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	Ordinal    int    `json:"ordinal"`
}

var (
	docCounter   atomic.Int64
	chunkCounter atomic.Int64
)

// EnsureDocumentID makes sure every document has a stable identifier.
func EnsureDocumentID(doc *Document) {
	if doc == nil {
		return
	}
	if doc.ID != "" {
		return
	}
	id := docCounter.Add(1)
	doc.ID = fmt.Sprintf("doc_%d", id)
}

// NextChunkID returns a globally unique chunk identifier derived from document ID.
func NextChunkID(docID string) string {
	next := chunkCounter.Add(1)
	if docID == "" {
		return fmt.Sprintf("chunk_%d", next)
	}
	return fmt.Sprintf("%s_chunk_%d", docID, next)
}
