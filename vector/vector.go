package vector

import (
	"context"
	"math"
)

// Status marks whether a record is eligible for retrieval.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// PolicyInfo carries the policy attributes attached to an indexed chunk.
// Ranges use zero values to mean "unspecified".
type PolicyInfo struct {
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

// Record is an indexed chunk: the passage text, its embedding, and the
// policy metadata used for filtering and citation.
type Record struct {
	ID      string
	Vector  []float32
	Text    string
	Ordinal int
	Version int
	Status  Status
	Policy  PolicyInfo
}

// Match is a search hit with its similarity score.
type Match struct {
	Record *Record
	Score  float32
}

// Filter restricts a search to records matching all set fields.
// The zero Filter matches everything.
type Filter struct {
	Status     Status
	PolicyName string
	PolicyType string
}

// Matches reports whether the record satisfies the filter.
func (f Filter) Matches(rec *Record) bool {
	if rec == nil {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.PolicyName != "" && rec.Policy.PolicyName != f.PolicyName {
		return false
	}
	if f.PolicyType != "" && rec.Policy.PolicyType != f.PolicyType {
		return false
	}
	return true
}

// Index defines the interface for vector storage and similarity search over
// policy chunks. Implementations enforce the configured embedding dimension
// at write time and keep at most one active version per policy name.
type Index interface {
	// Add writes records to the index.
	Add(ctx context.Context, recs []*Record) error

	// Search finds records similar to the query vector, restricted by filter.
	Search(ctx context.Context, queryVector []float32, topK int, filter Filter) ([]*Match, error)

	// SwapVersion atomically marks all active records for the policy as
	// deprecated and writes the new version's records as active. Readers
	// never observe both versions active, or neither.
	SwapVersion(ctx context.Context, policyName string, version int, recs []*Record) error

	// DeprecatePolicy marks all active records for the policy as deprecated.
	DeprecatePolicy(ctx context.Context, policyName string) error

	// MaxVersion returns the highest version recorded for the policy,
	// 0 when the policy is unknown.
	MaxVersion(ctx context.Context, policyName string) (int, error)

	// Get retrieves a record by ID regardless of status.
	Get(ctx context.Context, id string) (*Record, error)

	// Count returns the number of records matching the filter.
	Count(ctx context.Context, filter Filter) (int, error)

	// Dimension returns the embedding dimension the index was created with.
	Dimension() int

	// Clear removes all records.
	Clear(ctx context.Context) error
}

// Embedder defines the interface for creating embeddings from text
type Embedder interface {
	// Embed converts text to a vector embedding
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts multiple texts to embeddings
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the number of embedding dimensions
	Dimension() int
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Vector != nil {
		out.Vector = make([]float32, len(r.Vector))
		copy(out.Vector, r.Vector)
	}
	return &out
}

// CosineSimilarity calculates the cosine similarity between two vectors
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return float32(dotProduct / (math.Sqrt(normA)*math.Sqrt(normB) + 1e-8))
}
