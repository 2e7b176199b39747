package lead

import (
	"strings"
	"testing"
)

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name       string
		phone      string
		wantValid  bool
		normalized string
	}{
		{name: "e164", phone: "+15551234567", wantValid: true, normalized: "+15551234567"},
		{name: "formatted", phone: "+1 (555) 123-4567", wantValid: true, normalized: "+15551234567"},
		{name: "bare digits get plus", phone: "8801712345678", wantValid: true, normalized: "+8801712345678"},
		{name: "too short", phone: "12345", wantValid: false},
		{name: "plus with too many digits", phone: "+1234567890123456", wantValid: false},
		{name: "letters", phone: "call-me-maybe", wantValid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidatePhone(tt.phone)
			if got.Valid != tt.wantValid {
				t.Errorf("ValidatePhone(%q).Valid = %v, want %v (errors %v)", tt.phone, got.Valid, tt.wantValid, got.Errors)
			}
			if tt.wantValid && got.Normalized != tt.normalized {
				t.Errorf("Normalized = %q, want %q", got.Normalized, tt.normalized)
			}
		})
	}
}

func TestValidateNID(t *testing.T) {
	tests := []struct {
		name      string
		nid       string
		country   string
		wantValid bool
	}{
		{name: "US SSN", nid: "123-45-6789", country: "US", wantValid: true},
		{name: "US wrong length", nid: "12345678", country: "US", wantValid: false},
		{name: "BD 10 digits", nid: "1234567890", country: "BD", wantValid: true},
		{name: "BD 13 digits", nid: "1234567890123", country: "BD", wantValid: true},
		{name: "BD 11 digits", nid: "12345678901", country: "BD", wantValid: false},
		{name: "default alphanumeric", nid: "AB12345678", country: "", wantValid: true},
		{name: "default too short", nid: "AB123", country: "", wantValid: false},
		{name: "default symbols", nid: "AB12@45678", country: "", wantValid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ValidateNID(tt.nid, tt.country)
			if got.Valid != tt.wantValid {
				t.Errorf("ValidateNID(%q, %q).Valid = %v, want %v", tt.nid, tt.country, got.Valid, tt.wantValid)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	got := ValidateEmail("Jane.Doe@Example.COM")
	if !got.Valid {
		t.Fatalf("ValidateEmail() errors = %v", got.Errors)
	}
	if got.Normalized != "jane.doe@example.com" {
		t.Errorf("Normalized = %q", got.Normalized)
	}

	if ValidateEmail("not-an-email").Valid {
		t.Error("accepted invalid email")
	}
}

func TestValidateCandidate(t *testing.T) {
	valid := Candidate{
		FullName:         "Jane Doe",
		PhoneNumber:      "+15551234567",
		NationalID:       "123456789",
		Address:          "12 Main Street, Springfield",
		PolicyOfInterest: "Term Life 20-Year",
	}
	if res := Validate(valid); !res.Valid {
		t.Errorf("Validate() errors = %v", res.Errors)
	}

	tests := []struct {
		name    string
		mutate  func(c *Candidate)
		wantErr string
	}{
		{name: "short name", mutate: func(c *Candidate) { c.FullName = "J" }, wantErr: "Name"},
		{name: "bad phone", mutate: func(c *Candidate) { c.PhoneNumber = "555" }, wantErr: "Phone"},
		{name: "bad nid", mutate: func(c *Candidate) { c.NationalID = "!!" }, wantErr: "NID"},
		{name: "bad email", mutate: func(c *Candidate) { c.Email = "nope" }, wantErr: "email"},
		{name: "short address", mutate: func(c *Candidate) { c.Address = "x" }, wantErr: "Address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			res := Validate(c)
			if res.Valid {
				t.Fatal("expected validation failure")
			}
			joined := strings.Join(res.Errors, " ")
			if !strings.Contains(joined, tt.wantErr) {
				t.Errorf("errors %v missing %q", res.Errors, tt.wantErr)
			}
		})
	}

	// Optional fields empty is still valid.
	minimal := Candidate{FullName: "Jane Doe", PhoneNumber: "+15551234567"}
	if res := Validate(minimal); !res.Valid {
		t.Errorf("minimal candidate errors = %v", res.Errors)
	}
}
