package provider

import (
	"context"

	"github.com/coverbridge/salesagent/message"
)

// GenerateOptions tunes a single generation call.
type GenerateOptions struct {
	Temperature float64
	MaxTokens   int64
}

// Generator produces an assistant reply for a conversation transcript.
// Implementations live under contrib/provider.
type Generator interface {
	Generate(ctx context.Context, messages []*message.Message, opts GenerateOptions) (*message.Message, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, messages []*message.Message, opts GenerateOptions) (*message.Message, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, messages []*message.Message, opts GenerateOptions) (*message.Message, error) {
	return f(ctx, messages, opts)
}
