package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/pkg/logging"
	"github.com/coverbridge/salesagent/pkg/telemetry"
	"github.com/coverbridge/salesagent/rag/chunking"
	"github.com/coverbridge/salesagent/rag/document"
	"github.com/coverbridge/salesagent/rag/embedder"
	"github.com/coverbridge/salesagent/rag/preprocess"
	"github.com/coverbridge/salesagent/vector"
)

// Config controls ingestion behaviour.
type Config struct {
	// EmbedRetries bounds retry attempts for a failed embedding batch.
	EmbedRetries uint
	// EmbedRetryInterval is the initial backoff delay between attempts.
	EmbedRetryInterval time.Duration
}

// Option customizes pipeline config.
type Option func(*Config)

// WithEmbedRetries sets the retry budget for embedding calls.
func WithEmbedRetries(n uint) Option {
	return func(cfg *Config) {
		cfg.EmbedRetries = n
	}
}

// WithEmbedRetryInterval sets the initial backoff delay.
func WithEmbedRetryInterval(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.EmbedRetryInterval = d
		}
	}
}

// Result reports the outcome of ingesting one document.
type Result struct {
	DocumentID    string
	PolicyName    string
	Version       int
	ChunksCreated int
	Err           error
}

// Pipeline turns policy documents into versioned, searchable chunks.
// Re-ingesting a policy writes a fresh version and atomically deprecates
// the prior one, so readers only ever see a complete version.
type Pipeline struct {
	index    vector.Index
	embedder embedder.Embedder
	chunker  chunking.Chunker
	cfg      Config
	logger   *slog.Logger
}

// New creates an ingestion pipeline.
func New(index vector.Index, emb embedder.Embedder, chunker chunking.Chunker, opts ...Option) (*Pipeline, error) {
	if index == nil || emb == nil || chunker == nil {
		return nil, fmt.Errorf("pipeline requires an index, embedder, and chunker")
	}
	cfg := Config{
		EmbedRetries:       3,
		EmbedRetryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Pipeline{
		index:    index,
		embedder: emb,
		chunker:  chunker,
		cfg:      cfg,
		logger:   logging.WithComponent("rag.ingest"),
	}, nil
}

// Ingest runs one document through extract -> chunk -> embed -> swap.
// The returned result carries the assigned version and chunk count.
func (p *Pipeline) Ingest(ctx context.Context, doc document.Document, policy document.PolicyMetadata) (res Result, err error) {
	ctx, span := telemetry.Tracer().Start(ctx, "ingest.Ingest",
		trace.WithAttributes(attribute.String("policy.name", policy.PolicyName)))
	defer func() { telemetry.End(span, err) }()

	document.EnsureDocumentID(&doc)
	res = Result{DocumentID: doc.ID, PolicyName: policy.PolicyName}

	if policy.PolicyName == "" {
		err = fmt.Errorf("policy name is required: %w", agerrors.ErrInvalidInput)
		res.Err = err
		return res, err
	}

	text, err := p.extract(doc)
	if err != nil {
		res.Err = err
		return res, err
	}
	doc.Content = text

	chunks, err := p.chunker.Chunk(ctx, doc)
	if err != nil {
		err = fmt.Errorf("chunk document %s: %w", doc.ID, err)
		res.Err = err
		return res, err
	}

	vectors, err := p.embedChunks(ctx, chunks)
	if err != nil {
		err = fmt.Errorf("embed document %s: %w", doc.ID, err)
		res.Err = err
		return res, err
	}

	prior, err := p.index.MaxVersion(ctx, policy.PolicyName)
	if err != nil {
		err = fmt.Errorf("resolve version for %s: %w", policy.PolicyName, err)
		res.Err = err
		return res, err
	}
	version := prior + 1

	recs := make([]*vector.Record, 0, len(chunks))
	info := policyInfo(policy)
	for i, chunk := range chunks {
		recs = append(recs, &vector.Record{
			ID:      chunk.ID,
			Vector:  vectors[i],
			Text:    chunk.Content,
			Ordinal: chunk.Ordinal,
			Version: version,
			Status:  vector.StatusActive,
			Policy:  info,
		})
	}

	if err = p.index.SwapVersion(ctx, policy.PolicyName, version, recs); err != nil {
		err = fmt.Errorf("swap version for %s: %w", policy.PolicyName, err)
		res.Err = err
		return res, err
	}

	res.Version = version
	res.ChunksCreated = len(recs)
	p.logger.Info("ingested policy document",
		"policy", policy.PolicyName,
		"document_id", doc.ID,
		"version", version,
		"chunks", len(recs))
	return res, nil
}

// IngestBatch processes documents independently. A failed document reports
// its error in the per-item result and does not stop the batch.
func (p *Pipeline) IngestBatch(ctx context.Context, items []BatchItem) []Result {
	results := make([]Result, 0, len(items))
	for _, item := range items {
		res, err := p.Ingest(ctx, item.Document, item.Policy)
		if err != nil {
			p.logger.Warn("batch item failed",
				"policy", item.Policy.PolicyName,
				"error", err)
		}
		results = append(results, res)
	}
	return results
}

// BatchItem pairs a document with its policy metadata for batch ingestion.
type BatchItem struct {
	Document document.Document
	Policy   document.PolicyMetadata
}

// DeprecatePolicy retires a policy from retrieval without removing its records.
func (p *Pipeline) DeprecatePolicy(ctx context.Context, policyName string) error {
	if policyName == "" {
		return fmt.Errorf("policy name is required: %w", agerrors.ErrInvalidInput)
	}
	if err := p.index.DeprecatePolicy(ctx, policyName); err != nil {
		return err
	}
	p.logger.Info("deprecated policy", "policy", policyName)
	return nil
}

func (p *Pipeline) extract(doc document.Document) (string, error) {
	if !preprocess.ValidUTF8(doc.Content) {
		return "", fmt.Errorf("document %s is not valid UTF-8: %w", doc.ID, agerrors.ErrDocumentFormat)
	}

	var text string
	switch doc.Format {
	case document.FormatHTML:
		var herr error
		text, herr = preprocess.HTMLToText(doc.Content)
		if herr != nil {
			return "", fmt.Errorf("document %s: parse HTML: %w", doc.ID, agerrors.ErrDocumentFormat)
		}
	case document.FormatPlain, document.FormatMarkdown, "":
		text = doc.Content
	default:
		return "", fmt.Errorf("document %s has unsupported format %q: %w",
			doc.ID, doc.Format, agerrors.ErrDocumentFormat)
	}

	text = preprocess.Preprocess(text)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("document %s produced no text: %w", doc.ID, agerrors.ErrExtraction)
	}
	return text, nil
}

// embedChunks embeds the chunk batch, retrying transient failures with
// exponential backoff before giving up.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []document.Chunk) ([][]float32, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.EmbedRetryInterval

	vectors, err := backoff.Retry(ctx, func() ([][]float32, error) {
		vecs, embedErr := p.embedder.EmbedChunks(ctx, chunks)
		if embedErr != nil {
			p.logger.Warn("embedding batch failed, retrying", "error", embedErr)
			return nil, embedErr
		}
		return vecs, nil
	}, backoff.WithBackOff(bo), backoff.WithMaxTries(p.cfg.EmbedRetries+1))
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	return vectors, nil
}

func policyInfo(meta document.PolicyMetadata) vector.PolicyInfo {
	return vector.PolicyInfo{
		PolicyName:  meta.PolicyName,
		PolicyType:  meta.PolicyType,
		Company:     meta.Company,
		CoverageMin: meta.CoverageMin,
		CoverageMax: meta.CoverageMax,
		PremiumMin:  meta.PremiumMin,
		PremiumMax:  meta.PremiumMax,
		AgeMin:      meta.AgeMin,
		AgeMax:      meta.AgeMax,
		Source:      meta.Source,
	}
}
