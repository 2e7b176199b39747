package middleware

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/coverbridge/salesagent/message"
	"github.com/coverbridge/salesagent/pkg/logging"
	"github.com/coverbridge/salesagent/pkg/telemetry"
	"github.com/coverbridge/salesagent/provider"
)

// Middleware decorates a Generator with cross-cutting behaviour.
// Middlewares compose outermost-first via Wrap.
type Middleware func(provider.Generator) provider.Generator

// Wrap applies middlewares around a generator. The first middleware in
// the list is the outermost layer.
func Wrap(gen provider.Generator, mws ...Middleware) provider.Generator {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			gen = mws[i](gen)
		}
	}
	return gen
}

// Logging logs each generation call with its duration and outcome.
func Logging() Middleware {
	logger := logging.WithComponent("middleware.logging")
	return func(next provider.Generator) provider.Generator {
		return provider.GeneratorFunc(func(ctx context.Context, messages []*message.Message, opts provider.GenerateOptions) (*message.Message, error) {
			start := time.Now()
			out, err := next.Generate(ctx, messages, opts)
			attrs := []any{
				slog.Int("messages", len(messages)),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.Warn("generation failed", append(attrs, slog.Any("error", err))...)
			} else {
				logger.Debug("generation completed", attrs...)
			}
			return out, err
		})
	}
}

// Tracing wraps each generation call in a span.
func Tracing() Middleware {
	return func(next provider.Generator) provider.Generator {
		return provider.GeneratorFunc(func(ctx context.Context, messages []*message.Message, opts provider.GenerateOptions) (out *message.Message, err error) {
			ctx, span := telemetry.Tracer().Start(ctx, "provider.Generate",
				trace.WithAttributes(
					attribute.Int("generate.messages", len(messages)),
					attribute.Int64("generate.max_tokens", opts.MaxTokens),
				))
			defer func() { telemetry.End(span, err) }()
			return next.Generate(ctx, messages, opts)
		})
	}
}
