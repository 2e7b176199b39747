package lead

import (
	"regexp"
	"strings"
)

// ValidationResult carries the outcome of validating one value or a
// whole candidate.
type ValidationResult struct {
	Valid      bool
	Errors     []string
	Normalized string
}

var (
	phoneStrip  = regexp.MustCompile(`[\s\-\(\)]`)
	e164Pattern = regexp.MustCompile(`^\+\d{1,15}$`)
	barePhone   = regexp.MustCompile(`^\d{10,15}$`)
	digitsOnly  = regexp.MustCompile(`^\d+$`)
	alnumOnly   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	emailRe     = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// ValidatePhone validates a phone number and normalizes it to E.164.
// Bare 10-15 digit numbers get a + prefix.
func ValidatePhone(phone string) ValidationResult {
	cleaned := phoneStrip.ReplaceAllString(strings.TrimSpace(phone), "")

	if strings.HasPrefix(cleaned, "+") {
		if e164Pattern.MatchString(cleaned) {
			return ValidationResult{Valid: true, Normalized: cleaned}
		}
		return ValidationResult{Errors: []string{"Phone number must be in international format: +1234567890"}}
	}
	if barePhone.MatchString(cleaned) {
		return ValidationResult{Valid: true, Normalized: "+" + cleaned}
	}
	return ValidationResult{Errors: []string{"Phone number must be 10-15 digits. Include country code: +1234567890"}}
}

// ValidateNID validates a national ID. Rules are country-specific:
// US uses 9 digits, BD uses 10 or 13 digits, everywhere else accepts
// 8-20 alphanumeric characters.
func ValidateNID(nid, country string) ValidationResult {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(nid))

	switch country {
	case "US":
		if len(cleaned) == 9 && digitsOnly.MatchString(cleaned) {
			return ValidationResult{Valid: true, Normalized: cleaned}
		}
		return ValidationResult{Errors: []string{"Invalid SSN format. Must be 9 digits."}}
	case "BD":
		if (len(cleaned) == 10 || len(cleaned) == 13) && digitsOnly.MatchString(cleaned) {
			return ValidationResult{Valid: true, Normalized: cleaned}
		}
		return ValidationResult{Errors: []string{"Invalid Bangladesh NID format. Must be 10 or 13 digits."}}
	default:
		if len(cleaned) >= 8 && len(cleaned) <= 20 && alnumOnly.MatchString(cleaned) {
			return ValidationResult{Valid: true, Normalized: cleaned}
		}
		return ValidationResult{Errors: []string{"Invalid NID format. Must be 8-20 alphanumeric characters."}}
	}
}

// ValidateEmail validates an email address and normalizes it to lowercase.
func ValidateEmail(email string) ValidationResult {
	trimmed := strings.TrimSpace(email)
	if emailRe.MatchString(trimmed) {
		return ValidationResult{Valid: true, Normalized: strings.ToLower(trimmed)}
	}
	return ValidationResult{Errors: []string{"Invalid email format."}}
}

// Validate checks a whole candidate. Optional fields are validated only
// when present.
func Validate(c Candidate) ValidationResult {
	var errs []string

	if len(strings.TrimSpace(c.FullName)) < 2 {
		errs = append(errs, "Name must be at least 2 characters.")
	}
	if phone := ValidatePhone(c.PhoneNumber); !phone.Valid {
		errs = append(errs, phone.Errors...)
	}
	if c.NationalID != "" {
		if nid := ValidateNID(c.NationalID, "default"); !nid.Valid {
			errs = append(errs, nid.Errors...)
		}
	}
	if c.Email != "" {
		if email := ValidateEmail(c.Email); !email.Valid {
			errs = append(errs, email.Errors...)
		}
	}
	if c.Address != "" && len(strings.TrimSpace(c.Address)) < 5 {
		errs = append(errs, "Address must be at least 5 characters.")
	}

	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}
	return ValidationResult{Valid: true}
}
