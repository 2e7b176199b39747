package lead

import (
	"context"
	"time"

	"github.com/coverbridge/salesagent/session"
)

// Candidate is a qualified lead ready for handoff to the sales team.
type Candidate struct {
	SessionID            string                `json:"session_id"`
	FullName             string                `json:"full_name"`
	PhoneNumber          string                `json:"phone_number"`
	NationalID           string                `json:"national_id"`
	Address              string                `json:"address"`
	PolicyOfInterest     string                `json:"policy_of_interest"`
	Email                string                `json:"email,omitempty"`
	PreferredContactTime string                `json:"preferred_contact_time,omitempty"`
	Notes                string                `json:"notes,omitempty"`
	Interest             session.InterestLevel `json:"interest"`
	CapturedAt           time.Time             `json:"captured_at"`
}

// FromSession builds a candidate from a session's collected data.
func FromSession(rec *session.Record) Candidate {
	return Candidate{
		SessionID:            rec.ID,
		FullName:             rec.Collected.FullName,
		PhoneNumber:          rec.Collected.PhoneNumber,
		NationalID:           rec.Collected.NationalID,
		Address:              rec.Collected.Address,
		PolicyOfInterest:     rec.Collected.PolicyOfInterest,
		Email:                rec.Collected.Email,
		PreferredContactTime: rec.Collected.PreferredContactTime,
		Notes:                rec.Collected.Notes,
		Interest:             rec.Interest,
		CapturedAt:           time.Now(),
	}
}

// Sink receives completed leads. Implementations live under contrib/lead.
type Sink interface {
	Emit(ctx context.Context, candidate Candidate) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, candidate Candidate) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, candidate Candidate) error {
	return f(ctx, candidate)
}
