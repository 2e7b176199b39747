package prompt

import "strings"

// Phrases that must never reach a customer, either as false promises,
// aggressive sales language, or medical and financial claims.
var blockedPhrases = []string{
	"guaranteed approval",
	"guaranteed coverage",
	"no questions asked",
	"instant approval",
	"must buy now",
	"limited time only",
	"act immediately",
	"don't miss out",
	"must buy",
	"act now or lose",
	"will cure",
	"medical advice",
	"diagnose",
	"guaranteed returns",
	"risk-free",
	"no risk",
}

var prohibitedContent = []string{
	"discrimination",
	"illegal advice",
	"false claims",
	"misleading information",
}

const safeRefusal = "I apologize, but I can't provide that type of information. Let me help you with something else."

// FilterResponse scrubs a generated reply before it reaches the customer.
// Blocked phrases are removed, prohibited content replaces the whole reply,
// and claims of being human are corrected.
func FilterResponse(response string) string {
	filtered := response

	for _, phrase := range blockedPhrases {
		for {
			idx := indexFold(filtered, phrase)
			if idx < 0 {
				break
			}
			filtered = filtered[:idx] + filtered[idx+len(phrase):]
		}
	}

	lower := strings.ToLower(filtered)
	for _, content := range prohibitedContent {
		if strings.Contains(lower, content) {
			return safeRefusal
		}
	}

	filtered = strings.ReplaceAll(filtered, "I am human", "I am an AI assistant")
	filtered = strings.ReplaceAll(filtered, "i am human", "I am an AI assistant")

	// Strip a speaker prefix the model sometimes emits.
	trimmed := strings.TrimSpace(filtered)
	for _, prefix := range []string{"Agent:", "Assistant:", "AI:"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		}
	}

	return collapseSpaces(trimmed)
}

// ValidateResponse reports whether a reply meets quality standards.
func ValidateResponse(response string) bool {
	if len(strings.TrimSpace(response)) < 5 {
		return false
	}
	lower := strings.ToLower(response)
	for _, phrase := range blockedPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	for _, content := range prohibitedContent {
		if strings.Contains(lower, content) {
			return false
		}
	}
	return true
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

// collapseSpaces squeezes runs of spaces and tabs without destroying
// paragraph breaks.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
