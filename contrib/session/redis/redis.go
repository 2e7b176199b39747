package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	cfg "github.com/coverbridge/salesagent/config"
	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/session"
)

// Store implements session storage using Redis.
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ session.Store = (*Store)(nil)

// Config holds Redis configuration for sessions.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// TTL bounds key lifetime at the Redis level. It should exceed the
	// manager's session TTL so the sweeper, not Redis, decides expiry.
	TTL time.Duration
}

// DefaultConfig returns default Redis session configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:   "localhost:6379",
		Prefix: "salesagent:session:",
		TTL:    24 * time.Hour,
	}
}

// New creates a Redis-based session store.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := cfg.ValidateRedisConfig(config.Addr, config.DB, config.Prefix); err != nil {
		return nil, fmt.Errorf("invalid Redis configuration: %w", err)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})
	return &Store{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}, nil
}

// Save persists a session record to Redis.
func (s *Store) Save(ctx context.Context, record *session.Record) error {
	if record == nil || record.ID == "" {
		return fmt.Errorf("session record cannot be nil or missing ID")
	}

	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	if err := s.client.Set(ctx, s.sessionKey(record.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if err := s.client.SAdd(ctx, s.setKey(), record.ID).Err(); err != nil {
		return fmt.Errorf("failed to add session to index: %w", err)
	}
	return nil
}

// Load loads a session record from Redis.
func (s *Store) Load(ctx context.Context, id string) (*session.Record, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session %s: %w", id, agerrors.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var record session.Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to decode session record: %w", err)
	}
	return &record, nil
}

// Delete removes a session record from Redis.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.sessionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if err := s.client.SRem(ctx, s.setKey(), id).Err(); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	return nil
}

// List returns all session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, s.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return ids, nil
}

// Count returns the number of stored sessions.
func (s *Store) Count(ctx context.Context) (int, error) {
	count, err := s.client.SCard(ctx, s.setKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return int(count), nil
}

// Exists checks if a session exists.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := s.client.Exists(ctx, s.sessionKey(id)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return exists > 0, nil
}

// Close closes the underlying Redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) sessionKey(id string) string {
	return s.prefix + id
}

func (s *Store) setKey() string {
	return s.prefix + "ids"
}
