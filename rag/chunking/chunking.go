package chunking

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/coverbridge/salesagent/rag/document"
	"github.com/coverbridge/salesagent/rag/tokenizer"
)

// Chunker splits documents into chunks that can be embedded and indexed.
type Chunker interface {
	Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error)
}

// Options controls the sentence chunker.
type Options struct {
	ChunkSizeTokens int
	OverlapTokens   int
	Tokenizer       tokenizer.Tokenizer
}

// Option customizes the sentence chunker.
type Option func(*Options)

// WithChunkSize sets the soft token budget per chunk (default 800).
func WithChunkSize(tokens int) Option {
	return func(o *Options) {
		if tokens > 0 {
			o.ChunkSizeTokens = tokens
		}
	}
}

// WithOverlap sets how many tokens are repeated at the start of each chunk
// after the first (default 150).
func WithOverlap(tokens int) Option {
	return func(o *Options) {
		if tokens >= 0 {
			o.OverlapTokens = tokens
		}
	}
}

// WithTokenizer overrides the tokenizer used for budgeting.
func WithTokenizer(tok tokenizer.Tokenizer) Option {
	return func(o *Options) {
		if tok != nil {
			o.Tokenizer = tok
		}
	}
}

var sentenceRe = regexp.MustCompile(`(?m)(?U)[^.!?]+[.!?]+`)

// SentenceChunker produces token-bounded chunks that break on sentence and
// paragraph boundaries where possible. A sentence longer than the budget is
// hard-cut on word boundaries; mid-word cuts never happen.
type SentenceChunker struct {
	size    int
	overlap int
	tok     tokenizer.Tokenizer
}

// NewSentenceChunker constructs a chunker with defaults suited to policy
// documents.
func NewSentenceChunker(opts ...Option) *SentenceChunker {
	cfg := &Options{
		ChunkSizeTokens: 800,
		OverlapTokens:   150,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Tokenizer == nil {
		cfg.Tokenizer = tokenizer.NewSimpleTokenizer()
	}
	if cfg.OverlapTokens >= cfg.ChunkSizeTokens {
		cfg.OverlapTokens = cfg.ChunkSizeTokens / 4
	}
	return &SentenceChunker{
		size:    cfg.ChunkSizeTokens,
		overlap: cfg.OverlapTokens,
		tok:     cfg.Tokenizer,
	}
}

type span struct {
	text   string
	tokens int
}

// Chunk splits the document into bounded pieces. Documents that fit within
// the budget produce exactly one chunk covering the whole document.
func (c *SentenceChunker) Chunk(ctx context.Context, doc document.Document) ([]document.Chunk, error) {
	document.EnsureDocumentID(&doc)

	content := strings.TrimSpace(doc.Content)
	if content == "" {
		return nil, fmt.Errorf("chunk document %s: empty content", doc.ID)
	}

	if c.tok.CountTokens(content) <= c.size {
		return []document.Chunk{c.newChunk(doc, 0, content)}, nil
	}

	spans := c.splitSpans(content)

	var chunks []document.Chunk
	var current []span
	currentTokens := 0
	ordinal := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		texts := make([]string, len(current))
		for i, s := range current {
			texts[i] = s.text
		}
		chunks = append(chunks, c.newChunk(doc, ordinal, strings.Join(texts, " ")))
		ordinal++
	}

	for _, s := range spans {
		if currentTokens+s.tokens > c.size && len(current) > 0 {
			flush()
			current, currentTokens = c.carryOverlap(current)
		}
		current = append(current, s)
		currentTokens += s.tokens
	}
	flush()

	return chunks, nil
}

// splitSpans breaks content into sentence spans, paragraph by paragraph.
// Oversized sentences fall back to word-boundary cuts.
func (c *SentenceChunker) splitSpans(content string) []span {
	var spans []span
	for _, para := range strings.Split(content, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, sent := range splitSentences(para) {
			tokens := c.tok.CountTokens(sent)
			if tokens <= c.size {
				spans = append(spans, span{text: sent, tokens: tokens})
				continue
			}
			spans = append(spans, c.hardCut(sent)...)
		}
	}
	return spans
}

func (c *SentenceChunker) hardCut(sent string) []span {
	words := strings.Fields(sent)
	var spans []span
	var buf []string
	bufTokens := 0
	for _, w := range words {
		wTokens := c.tok.CountTokens(w)
		if bufTokens+wTokens > c.size && len(buf) > 0 {
			spans = append(spans, span{text: strings.Join(buf, " "), tokens: bufTokens})
			buf, bufTokens = nil, 0
		}
		buf = append(buf, w)
		bufTokens += wTokens
	}
	if len(buf) > 0 {
		spans = append(spans, span{text: strings.Join(buf, " "), tokens: bufTokens})
	}
	return spans
}

// carryOverlap returns the trailing spans of the finished chunk whose token
// total first reaches the overlap budget. They seed the next chunk so that
// passages straddling a split stay coherent.
func (c *SentenceChunker) carryOverlap(prev []span) ([]span, int) {
	if c.overlap <= 0 {
		return nil, 0
	}
	total := 0
	i := len(prev)
	for i > 0 && total < c.overlap {
		i--
		total += prev[i].tokens
	}
	// Never carry the whole previous chunk forward.
	if i == 0 && len(prev) > 1 {
		i = 1
		total -= prev[0].tokens
	}
	carried := make([]span, len(prev)-i)
	copy(carried, prev[i:])
	return carried, total
}

func (c *SentenceChunker) newChunk(doc document.Document, ordinal int, content string) document.Chunk {
	return document.Chunk{
		ID:         document.NextChunkID(doc.ID),
		DocumentID: doc.ID,
		Content:    strings.TrimSpace(content),
		Ordinal:    ordinal,
	}
}

// splitSentences splits a paragraph into sentences, keeping terminal
// punctuation. Trailing text without a terminator forms its own sentence.
func splitSentences(para string) []string {
	locs := sentenceRe.FindAllStringIndex(para, -1)
	var out []string
	prev := 0
	for _, loc := range locs {
		if s := strings.TrimSpace(para[prev:loc[0]]); s != "" {
			out = append(out, s)
		}
		if s := strings.TrimSpace(para[loc[0]:loc[1]]); s != "" {
			out = append(out, s)
		}
		prev = loc[1]
	}
	if s := strings.TrimSpace(para[prev:]); s != "" {
		out = append(out, s)
	}
	return out
}
