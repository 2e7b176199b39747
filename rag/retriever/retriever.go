package retriever

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/coverbridge/salesagent/pkg/logging"
	"github.com/coverbridge/salesagent/pkg/telemetry"
	"github.com/coverbridge/salesagent/rag/embedder"
	"github.com/coverbridge/salesagent/vector"
)

// Config controls retrieval behaviour.
type Config struct {
	// TopK is the number of results returned to the caller.
	TopK int
	// SearchTopK is the number of neighbors fetched from the index before
	// threshold and diversity filtering. Must be >= TopK.
	SearchTopK int
	// Threshold drops matches scoring below it. Raising the threshold can
	// only shrink the result set.
	Threshold float32
}

// Option customizes retriever config.
type Option func(*Config)

// WithTopK sets the number of results returned.
func WithTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.TopK = k
		}
	}
}

// WithSearchTopK sets the number of neighbors fetched from the index.
func WithSearchTopK(k int) Option {
	return func(cfg *Config) {
		if k > 0 {
			cfg.SearchTopK = k
		}
	}
}

// WithThreshold sets the minimum similarity score.
func WithThreshold(t float32) Option {
	return func(cfg *Config) {
		cfg.Threshold = t
	}
}

// QueryHints carries customer profile facts used to sharpen the query.
type QueryHints struct {
	Age        int
	Purpose    string
	Dependents string
}

// Result is one retrieved chunk with its provenance.
type Result struct {
	Text   string
	Score  float32
	Policy vector.PolicyInfo
}

// Retriever embeds queries and searches active policy chunks.
type Retriever struct {
	index    vector.Index
	embedder embedder.Embedder
	cfg      Config
	logger   *slog.Logger
}

// New creates a retriever.
func New(index vector.Index, emb embedder.Embedder, opts ...Option) (*Retriever, error) {
	if index == nil || emb == nil {
		return nil, fmt.Errorf("retriever requires an index and embedder")
	}
	cfg := Config{
		TopK:       4,
		SearchTopK: 12,
		Threshold:  0.3,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.SearchTopK < cfg.TopK {
		cfg.SearchTopK = cfg.TopK
	}
	return &Retriever{
		index:    index,
		embedder: emb,
		cfg:      cfg,
		logger:   logging.WithComponent("rag.retriever"),
	}, nil
}

// Retrieve returns the most relevant active chunks for the query.
// An empty result is a valid outcome, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, hints QueryHints) (results []Result, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "retriever.Retrieve",
		trace.WithAttributes(attribute.Int("retriever.top_k", r.cfg.TopK)))
	defer func() { telemetry.End(span, err) }()

	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}

	enhanced := enhanceQuery(query, hints)
	queryVec, err := r.embedder.EmbedQuery(ctx, enhanced)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := r.index.Search(ctx, queryVec, r.cfg.SearchTopK, vector.Filter{
		Status: vector.StatusActive,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	kept := matches[:0]
	for _, m := range matches {
		if m.Score >= r.cfg.Threshold {
			kept = append(kept, m)
		}
	}

	selected := diversify(kept, r.cfg.TopK)
	results = make([]Result, 0, len(selected))
	for _, m := range selected {
		results = append(results, Result{
			Text:   m.Record.Text,
			Score:  m.Score,
			Policy: m.Record.Policy,
		})
	}

	r.logger.Debug("retrieved chunks",
		"query_len", len(query),
		"candidates", len(matches),
		"returned", len(results))
	return results, nil
}

// enhanceQuery appends known customer facts so the embedding reflects them.
func enhanceQuery(query string, hints QueryHints) string {
	var sb strings.Builder
	sb.WriteString(query)
	if hints.Age > 0 {
		fmt.Fprintf(&sb, " (customer age %d)", hints.Age)
	}
	if hints.Purpose != "" {
		fmt.Fprintf(&sb, " (purpose: %s)", hints.Purpose)
	}
	if hints.Dependents != "" {
		fmt.Fprintf(&sb, " (dependents: %s)", hints.Dependents)
	}
	return sb.String()
}

// diversify prefers matches from distinct policies so the result set is
// not dominated by one document. Matches arrive sorted by score; a second
// chunk from an already-covered policy only fills leftover slots.
func diversify(matches []*vector.Match, topK int) []*vector.Match {
	if len(matches) <= topK {
		return matches
	}

	seen := make(map[string]bool, topK)
	selected := make([]*vector.Match, 0, topK)
	var overflow []*vector.Match

	for _, m := range matches {
		name := m.Record.Policy.PolicyName
		if !seen[name] {
			seen[name] = true
			selected = append(selected, m)
			if len(selected) == topK {
				return selected
			}
		} else {
			overflow = append(overflow, m)
		}
	}
	for _, m := range overflow {
		selected = append(selected, m)
		if len(selected) == topK {
			break
		}
	}
	return selected
}
