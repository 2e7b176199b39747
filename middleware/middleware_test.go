package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coverbridge/salesagent/message"
	"github.com/coverbridge/salesagent/provider"
)

func countingGenerator(calls *int) provider.GeneratorFunc {
	return func(ctx context.Context, msgs []*message.Message, opts provider.GenerateOptions) (*message.Message, error) {
		*calls++
		return message.NewMessage(message.RoleAssistant, "ok"), nil
	}
}

func TestWrapOrder(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next provider.Generator) provider.Generator {
			return provider.GeneratorFunc(func(ctx context.Context, msgs []*message.Message, opts provider.GenerateOptions) (*message.Message, error) {
				order = append(order, name)
				return next.Generate(ctx, msgs, opts)
			})
		}
	}

	calls := 0
	gen := Wrap(countingGenerator(&calls), tag("outer"), tag("inner"))
	if _, err := gen.Generate(context.Background(), nil, provider.GenerateOptions{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
		t.Errorf("middleware order = %v, want [outer inner]", order)
	}
	if calls != 1 {
		t.Errorf("base generator called %d times", calls)
	}
}

func TestWrapSkipsNil(t *testing.T) {
	calls := 0
	gen := Wrap(countingGenerator(&calls), nil, Logging())
	if _, err := gen.Generate(context.Background(), nil, provider.GenerateOptions{}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("base generator called %d times", calls)
	}
}

func TestRateLimit(t *testing.T) {
	calls := 0
	gen := Wrap(countingGenerator(&calls), RateLimit(2, time.Hour))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := gen.Generate(ctx, nil, provider.GenerateOptions{}); err != nil {
			t.Fatalf("call %d error = %v", i, err)
		}
	}

	_, err := gen.Generate(ctx, nil, provider.GenerateOptions{})
	if !errors.Is(err, ErrRateLimitExceeded) {
		t.Fatalf("expected ErrRateLimitExceeded, got %v", err)
	}
	if calls != 2 {
		t.Errorf("base generator called %d times, want 2", calls)
	}
}

func TestRateLimitWindowResets(t *testing.T) {
	limiter := &windowLimiter{max: 1, window: time.Minute}
	now := time.Now()

	if !limiter.allow(now) {
		t.Fatal("first request rejected")
	}
	if limiter.allow(now.Add(time.Second)) {
		t.Fatal("over-limit request allowed inside window")
	}
	if !limiter.allow(now.Add(2 * time.Minute)) {
		t.Fatal("request rejected after window reset")
	}
}
