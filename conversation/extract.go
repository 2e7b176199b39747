package conversation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/coverbridge/salesagent/session"
)

const maxInputLength = 2000

var (
	agePattern   = regexp.MustCompile(`\b(\d{2})\s*(?:years?\s*old|age|aged)|\b(?:age|aged)\s*(\d{2})\b|\bi'?m\s+(\d{2})\b|\bi\s+am\s+(\d{2})\b`)
	phonePattern = regexp.MustCompile(`\+?\d{1,3}[-.\s]?\(?\d{1,4}\)?[-.\s]?\d{1,4}[-.\s]?\d{1,9}`)
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
	// The capture group stays case-sensitive so ordinary lowercase words
	// after "I'm" are not mistaken for names.
	namePattern = regexp.MustCompile(`(?i:i'?m|my name is|call me|i am)\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)?)`)

	dependentsPattern = regexp.MustCompile(`(?i)\b((?:\d+|one|two|three|four|five|no)\s+(?:kids?|children|dependents?))\b|\b(wife|husband|spouse|family)\b`)
	purposePattern    = regexp.MustCompile(`(?i)\b((?:family|income|mortgage|retirement|business|education|child)\s+(?:protection|security|planning|coverage))\b|\b(protect(?:ing)?\s+my\s+\w+)\b`)

	// National IDs only count when the customer introduces them; a bare
	// digit run is too easy to confuse with a phone number.
	nidPattern     = regexp.MustCompile(`(?i)\b(?:national\s+id|nid|ssn|social\s+security(?:\s+number)?|id\s+number)\s*(?:is|:|#)?\s*([A-Za-z0-9][A-Za-z0-9\-]{6,23})`)
	addressPattern = regexp.MustCompile(`(?i)\b(?:i\s+live\s+at|my\s+address\s+is|address\s*(?:is|:))\s+([0-9A-Za-z][^.!?]*)`)
)

// Extracted holds the structured facts a message yields.
type Extracted struct {
	Age        int
	Name       string
	Phone      string
	Email      string
	Dependents string
	Purpose    string
	NationalID string
	Address    string
}

// Sanitize trims, collapses whitespace, and caps the length of customer
// input before anything else touches it.
func Sanitize(msg string) string {
	sanitized := strings.Join(strings.Fields(strings.TrimSpace(msg)), " ")
	if len(sanitized) > maxInputLength {
		sanitized = sanitized[:maxInputLength]
	}
	return sanitized
}

// Extract pulls structured facts from a customer message with regex
// patterns. It is deliberately conservative: a miss is fine, a wrong
// extraction is not.
func Extract(msg string) Extracted {
	var out Extracted

	if m := agePattern.FindStringSubmatch(strings.ToLower(msg)); m != nil {
		var raw string
		for _, group := range m[1:] {
			if group != "" {
				raw = group
				break
			}
		}
		if age, err := strconv.Atoi(raw); err == nil && age >= 18 && age <= 100 {
			out.Age = age
		}
	}
	if m := phonePattern.FindString(msg); m != "" && len(digits(m)) >= 10 {
		out.Phone = m
	}
	if m := emailPattern.FindString(msg); m != "" {
		out.Email = m
	}
	if m := namePattern.FindStringSubmatch(msg); m != nil {
		out.Name = m[1]
	}
	if m := dependentsPattern.FindStringSubmatch(msg); m != nil {
		if m[1] != "" {
			out.Dependents = m[1]
		} else {
			out.Dependents = m[2]
		}
	}
	if m := purposePattern.FindStringSubmatch(msg); m != nil {
		if m[1] != "" {
			out.Purpose = m[1]
		} else {
			out.Purpose = m[2]
		}
	}
	if m := nidPattern.FindStringSubmatch(msg); m != nil {
		out.NationalID = m[1]
	}
	if m := addressPattern.FindStringSubmatch(msg); m != nil {
		if addr := strings.TrimSpace(m[1]); len(addr) >= 5 {
			out.Address = addr
		}
	}
	return out
}

// ApplyToProfile merges extracted facts into the session. Profile fields
// are only ever filled in, never cleared, so a later vague message cannot
// erase an earlier concrete answer.
func (e Extracted) ApplyToProfile(rec *session.Record) {
	if e.Age > 0 && rec.Profile.Age == 0 {
		rec.Profile.Age = e.Age
	}
	if e.Name != "" && rec.Profile.Name == "" {
		rec.Profile.Name = e.Name
	}
	if e.Dependents != "" && rec.Profile.Dependents == "" {
		rec.Profile.Dependents = e.Dependents
	}
	if e.Purpose != "" && rec.Profile.Purpose == "" {
		rec.Profile.Purpose = e.Purpose
	}
}

// ApplyToCollected merges extracted facts into the lead worksheet.
// The engine calls it only while the session is in the collection stage;
// the same fill-only rule as the profile applies.
func (e Extracted) ApplyToCollected(rec *session.Record) {
	if e.Name != "" && rec.Collected.FullName == "" {
		rec.Collected.FullName = e.Name
	}
	if e.Phone != "" && rec.Collected.PhoneNumber == "" {
		rec.Collected.PhoneNumber = e.Phone
	}
	if e.Email != "" && rec.Collected.Email == "" {
		rec.Collected.Email = e.Email
	}
	if e.NationalID != "" && rec.Collected.NationalID == "" {
		rec.Collected.NationalID = e.NationalID
	}
	if e.Address != "" && rec.Collected.Address == "" {
		rec.Collected.Address = e.Address
	}
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
