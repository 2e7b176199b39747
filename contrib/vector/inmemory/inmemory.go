package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	agerrors "github.com/coverbridge/salesagent/errors"
	"github.com/coverbridge/salesagent/vector"
)

// Index implements vector.Index using in-memory storage. The version swap
// happens under the write lock, so concurrent readers never observe both the
// old and the new version of a policy active at once.
type Index struct {
	mu        sync.RWMutex
	dimension int
	records   map[string]*vector.Record
}

// New creates an in-memory index for embeddings of the given dimension.
func New(dimension int) *Index {
	return &Index{
		dimension: dimension,
		records:   make(map[string]*vector.Record),
	}
}

// Add writes records to the index.
func (s *Index) Add(ctx context.Context, recs []*vector.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(recs)
}

func (s *Index) addLocked(recs []*vector.Record) error {
	for _, rec := range recs {
		if rec == nil {
			return fmt.Errorf("record cannot be nil")
		}
		if rec.ID == "" {
			return fmt.Errorf("record ID cannot be empty")
		}
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("record %s: expected dimension %d, got %d: %w",
				rec.ID, s.dimension, len(rec.Vector), agerrors.ErrDimensionMismatch)
		}
		s.records[rec.ID] = rec.Clone()
	}
	return nil
}

// Search finds records similar to the query vector, restricted by filter.
func (s *Index) Search(ctx context.Context, queryVector []float32, topK int, filter vector.Filter) ([]*vector.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if len(queryVector) != s.dimension {
		return nil, fmt.Errorf("query vector: expected dimension %d, got %d: %w",
			s.dimension, len(queryVector), agerrors.ErrDimensionMismatch)
	}
	if topK <= 0 {
		topK = 10
	}

	matches := make([]*vector.Match, 0, len(s.records))
	for _, rec := range s.records {
		if !filter.Matches(rec) {
			continue
		}
		matches = append(matches, &vector.Match{
			Record: rec.Clone(),
			Score:  vector.CosineSimilarity(queryVector, rec.Vector),
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// SwapVersion atomically deprecates the policy's active records and writes
// the new version's records as active.
func (s *Index) SwapVersion(ctx context.Context, policyName string, version int, recs []*vector.Record) error {
	if policyName == "" {
		return fmt.Errorf("policy name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate before mutating anything so a bad record cannot leave the
	// index half-migrated.
	for _, rec := range recs {
		if rec == nil || rec.ID == "" {
			return fmt.Errorf("record cannot be nil or missing ID")
		}
		if len(rec.Vector) != s.dimension {
			return fmt.Errorf("record %s: expected dimension %d, got %d: %w",
				rec.ID, s.dimension, len(rec.Vector), agerrors.ErrDimensionMismatch)
		}
	}

	for _, rec := range s.records {
		if rec.Policy.PolicyName == policyName && rec.Status == vector.StatusActive {
			rec.Status = vector.StatusDeprecated
		}
	}
	for _, rec := range recs {
		cloned := rec.Clone()
		cloned.Status = vector.StatusActive
		cloned.Version = version
		s.records[cloned.ID] = cloned
	}
	return nil
}

// DeprecatePolicy marks all active records for the policy as deprecated.
func (s *Index) DeprecatePolicy(ctx context.Context, policyName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.records {
		if rec.Policy.PolicyName == policyName && rec.Status == vector.StatusActive {
			rec.Status = vector.StatusDeprecated
		}
	}
	return nil
}

// MaxVersion returns the highest version recorded for the policy.
func (s *Index) MaxVersion(ctx context.Context, policyName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	maxVersion := 0
	for _, rec := range s.records {
		if rec.Policy.PolicyName == policyName && rec.Version > maxVersion {
			maxVersion = rec.Version
		}
	}
	return maxVersion, nil
}

// Get retrieves a record by ID regardless of status.
func (s *Index) Get(ctx context.Context, id string) (*vector.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return nil, fmt.Errorf("record %s: %w", id, agerrors.ErrNotFound)
	}
	return rec.Clone(), nil
}

// Count returns the number of records matching the filter.
func (s *Index) Count(ctx context.Context, filter vector.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, rec := range s.records {
		if filter.Matches(rec) {
			count++
		}
	}
	return count, nil
}

// Dimension returns the configured embedding dimension.
func (s *Index) Dimension() int {
	return s.dimension
}

// Clear removes all records.
func (s *Index) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = make(map[string]*vector.Record)
	return nil
}
