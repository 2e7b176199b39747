package conversation

import (
	"strings"

	"github.com/coverbridge/salesagent/session"
)

// ScorerWeights are the tunable parameters of interest scoring. The
// qualitative ordering matters more than the exact numbers, so they are
// configuration, not constants.
type ScorerWeights struct {
	PolicySelected    int
	ContactShared     int
	CollectionStage   int
	ClosingStage      int
	ExplicitInterest  int
	SustainedTurns    int
	SustainedTurnsMin int

	HighThreshold   int
	MediumThreshold int
	LowThreshold    int
}

// DefaultScorerWeights returns the stock tuning. Explicit buying-intent
// phrasing and policy selection share the high tier, so either one alone
// clears the medium threshold.
func DefaultScorerWeights() ScorerWeights {
	return ScorerWeights{
		PolicySelected:    5,
		ContactShared:     3,
		CollectionStage:   2,
		ClosingStage:      5,
		ExplicitInterest:  5,
		SustainedTurns:    1,
		SustainedTurnsMin: 6,
		HighThreshold:     8,
		MediumThreshold:   5,
		LowThreshold:      2,
	}
}

// Scorer derives interest level and exit signals from session state.
type Scorer struct {
	weights ScorerWeights
}

// NewScorer creates a scorer with the given weights.
func NewScorer(weights ScorerWeights) *Scorer {
	return &Scorer{weights: weights}
}

// Score recomputes the interest level from scratch. It is a pure
// function of the session state plus the latest message; it never reads
// the previous interest level, so scores cannot drift stale.
// An exit signal in the message forces NONE regardless of accumulated
// positive signals.
func (s *Scorer) Score(rec *session.Record, latestMessage string) session.InterestLevel {
	if IsExitSignal(latestMessage) {
		return session.InterestNone
	}

	w := s.weights
	score := 0

	if rec.Collected.PolicyOfInterest != "" {
		score += w.PolicySelected
	}
	if rec.Collected.FullName != "" || rec.Collected.PhoneNumber != "" {
		score += w.ContactShared
	}

	switch rec.Stage {
	case session.StageInformationCollection:
		score += w.CollectionStage
	case session.StageClosing:
		score += w.ClosingStage
	}

	if containsAny(strings.ToLower(latestMessage), interestKeywords) {
		score += w.ExplicitInterest
	}
	if rec.TurnCount >= w.SustainedTurnsMin {
		score += w.SustainedTurns
	}

	switch {
	case score >= w.HighThreshold:
		return session.InterestHigh
	case score >= w.MediumThreshold:
		return session.InterestMedium
	case score >= w.LowThreshold:
		return session.InterestLow
	default:
		return session.InterestNone
	}
}
