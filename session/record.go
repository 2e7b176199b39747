package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/coverbridge/salesagent/message"
)

// Stage identifies where a conversation is in the sales flow.
type Stage string

const (
	StageGreeting              Stage = "GREETING"
	StageQualification         Stage = "QUALIFICATION"
	StageInformation           Stage = "INFORMATION"
	StageObjectionHandling     Stage = "OBJECTION_HANDLING"
	StageInformationCollection Stage = "INFORMATION_COLLECTION"
	StageClosing               Stage = "CLOSING"
	StageEnded                 Stage = "ENDED"
)

// Terminal reports whether no further turns are accepted.
func (s Stage) Terminal() bool {
	return s == StageEnded
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	switch s {
	case StageGreeting, StageQualification, StageInformation,
		StageObjectionHandling, StageInformationCollection,
		StageClosing, StageEnded:
		return true
	}
	return false
}

// InterestLevel grades how engaged the customer currently is.
// It is recomputed every turn from the session state.
type InterestLevel string

const (
	InterestNone   InterestLevel = "NONE"
	InterestLow    InterestLevel = "LOW"
	InterestMedium InterestLevel = "MEDIUM"
	InterestHigh   InterestLevel = "HIGH"
)

// CustomerProfile holds qualification facts learned during the conversation.
type CustomerProfile struct {
	Name             string `json:"name,omitempty"`
	Age              int    `json:"age,omitempty"`
	Purpose          string `json:"purpose,omitempty"`
	Dependents       string `json:"dependents,omitempty"`
	HasInsurance     bool   `json:"has_insurance,omitempty"`
	CoverageInterest string `json:"coverage_interest,omitempty"`
}

// CollectedData holds contact details gathered from an interested customer.
type CollectedData struct {
	FullName             string `json:"full_name,omitempty"`
	PhoneNumber          string `json:"phone_number,omitempty"`
	NationalID           string `json:"national_id,omitempty"`
	Address              string `json:"address,omitempty"`
	PolicyOfInterest     string `json:"policy_of_interest,omitempty"`
	Email                string `json:"email,omitempty"`
	PreferredContactTime string `json:"preferred_contact_time,omitempty"`
	Notes                string `json:"notes,omitempty"`
}

// MandatoryFields lists the fields required before a lead is complete.
var MandatoryFields = []string{
	"full_name",
	"phone_number",
	"national_id",
	"address",
	"policy_of_interest",
}

// IsComplete reports whether all mandatory fields are present.
func (c CollectedData) IsComplete() bool {
	return len(c.MissingFields()) == 0
}

// MissingFields returns the mandatory fields still empty, in a fixed order.
func (c CollectedData) MissingFields() []string {
	var missing []string
	values := map[string]string{
		"full_name":          c.FullName,
		"phone_number":       c.PhoneNumber,
		"national_id":        c.NationalID,
		"address":            c.Address,
		"policy_of_interest": c.PolicyOfInterest,
	}
	for _, field := range MandatoryFields {
		if values[field] == "" {
			missing = append(missing, field)
		}
	}
	return missing
}

// Record is the persisted state of one conversation. It is the unit
// stores save and load, and everything in it survives JSON round-trips.
type Record struct {
	ID       string        `json:"id"`
	Stage    Stage         `json:"stage"`
	Interest InterestLevel `json:"interest"`

	Profile   CustomerProfile `json:"profile"`
	Collected CollectedData   `json:"collected"`

	History []*message.Message `json:"history"`
	// Summary folds messages dropped from the history window.
	Summary string `json:"summary,omitempty"`

	// Objections counts raised objections per tag; ResolvedObjections
	// marks tags the customer moved past.
	Objections         map[string]int  `json:"objections,omitempty"`
	ResolvedObjections map[string]bool `json:"resolved_objections,omitempty"`

	// EvasionCounts tracks consecutive non-answers per qualification field.
	EvasionCounts map[string]int `json:"evasion_counts,omitempty"`

	PoliciesDiscussed []string `json:"policies_discussed,omitempty"`

	// LastToken and LastReply implement idempotent turn retries.
	LastToken string `json:"last_token,omitempty"`
	LastReply string `json:"last_reply,omitempty"`

	TurnCount int `json:"turn_count"`

	// LeadEmitted is set once contact details have been handed off,
	// so a retried turn does not emit the lead twice.
	LeadEmitted bool `json:"lead_emitted,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewRecord creates a fresh session record in the greeting stage.
func NewRecord(ttl time.Duration) *Record {
	now := time.Now()
	return &Record{
		ID:                 uuid.NewString(),
		Stage:              StageGreeting,
		Interest:           InterestNone,
		History:            make([]*message.Message, 0, 8),
		Objections:         make(map[string]int),
		ResolvedObjections: make(map[string]bool),
		EvasionCounts:      make(map[string]int),
		CreatedAt:          now,
		UpdatedAt:          now,
		ExpiresAt:          now.Add(ttl),
	}
}

// Touch refreshes the update time and pushes expiry forward.
func (r *Record) Touch(ttl time.Duration) {
	now := time.Now()
	r.UpdatedAt = now
	if ttl > 0 {
		r.ExpiresAt = now.Add(ttl)
	}
}

// Expired reports whether the record is past its expiry time.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && now.After(r.ExpiresAt)
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	clone.History = message.CloneMessages(r.History)
	clone.Objections = cloneIntMap(r.Objections)
	clone.EvasionCounts = cloneIntMap(r.EvasionCounts)
	if r.ResolvedObjections != nil {
		clone.ResolvedObjections = make(map[string]bool, len(r.ResolvedObjections))
		for k, v := range r.ResolvedObjections {
			clone.ResolvedObjections[k] = v
		}
	}
	if r.PoliciesDiscussed != nil {
		clone.PoliciesDiscussed = append([]string(nil), r.PoliciesDiscussed...)
	}
	return &clone
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
