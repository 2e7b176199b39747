package vector

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float32
	}{
		{name: "identical vectors", a: []float32{1, 0, 0}, b: []float32{1, 0, 0}, want: 1},
		{name: "orthogonal vectors", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite vectors", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "mismatched lengths", a: []float32{1, 0}, b: []float32{1, 0, 0}, want: 0},
		{name: "zero vector", a: []float32{0, 0}, b: []float32{1, 0}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-5 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterMatches(t *testing.T) {
	rec := &Record{
		ID:     "r1",
		Status: StatusActive,
		Policy: PolicyInfo{PolicyName: "Term Life", PolicyType: "term"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{name: "zero filter matches everything", filter: Filter{}, want: true},
		{name: "status match", filter: Filter{Status: StatusActive}, want: true},
		{name: "status mismatch", filter: Filter{Status: StatusDeprecated}, want: false},
		{name: "policy name match", filter: Filter{PolicyName: "Term Life"}, want: true},
		{name: "policy name mismatch", filter: Filter{PolicyName: "Whole Life"}, want: false},
		{name: "combined match", filter: Filter{Status: StatusActive, PolicyType: "term"}, want: true},
		{name: "combined partial mismatch", filter: Filter{Status: StatusActive, PolicyType: "whole"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(rec); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}

	if (Filter{}).Matches(nil) {
		t.Error("nil record should never match")
	}
}

func TestRecordClone(t *testing.T) {
	rec := &Record{ID: "r1", Vector: []float32{1, 2}, Status: StatusActive}
	cloned := rec.Clone()
	cloned.Vector[0] = 9
	if rec.Vector[0] != 1 {
		t.Error("Clone shares the vector with the original")
	}
	if (*Record)(nil).Clone() != nil {
		t.Error("Clone of nil should be nil")
	}
}
