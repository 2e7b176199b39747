package conversation

import (
	"strings"
)

// IntentKind is the closed set of classifier outcomes the state machine
// dispatches on.
type IntentKind string

const (
	IntentGreeting  IntentKind = "greeting"
	IntentQuestion  IntentKind = "question"
	IntentObjection IntentKind = "objection"
	IntentInterest  IntentKind = "interest"
	IntentExit      IntentKind = "exit"
	IntentAmbiguous IntentKind = "ambiguous"
)

// Intent is a classified customer message. ObjectionTag is set only when
// Kind is IntentObjection.
type Intent struct {
	Kind         IntentKind
	ObjectionTag string
}

// Objection tags, matching the rebuttal templates in the prompt package.
const (
	ObjectionCost       = "cost"
	ObjectionNecessity  = "necessity"
	ObjectionComplexity = "complexity"
	ObjectionTrust      = "trust"
	ObjectionTiming     = "timing"
	ObjectionComparison = "comparison"
)

var exitKeywords = []string{
	"not interested", "no thanks", "i'll pass",
	"i don't want", "maybe later", "i have to go",
	"thanks but no", "not for me",
}

var greetingKeywords = []string{"hello", "hi", "hey", "greetings"}

var interestKeywords = []string{"interested", "want", "apply", "sign up", "next step"}

// Objection keyword sets, checked in a fixed order so a message touching
// several categories classifies deterministically.
var objectionKeywords = []struct {
	tag      string
	keywords []string
}{
	{ObjectionCost, []string{"expensive", "cost", "price", "afford", "too much"}},
	{ObjectionNecessity, []string{"don't need", "not necessary"}},
	{ObjectionComplexity, []string{"complicated", "confusing", "don't understand", "too hard"}},
	{ObjectionTrust, []string{"trust", "scam", "legit", "skeptical"}},
	{ObjectionTiming, []string{"think about it", "not now", "wait", "later"}},
	{ObjectionComparison, []string{"other company", "competitor", "better deal", "cheaper elsewhere"}},
}

var vaguePhrases = []string{
	"tell me more",
	"what about that",
	"what about this",
	"what about it",
	"more information",
	"more details",
	"elaborate",
	"expand",
}

// Classifier turns a raw customer message into an Intent. It is a
// deterministic keyword classifier; an LLM-backed classifier can replace
// it behind the same method.
type Classifier struct{}

// NewClassifier creates a keyword intent classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify determines the customer's intent for one message.
// Exit always wins: a message containing an explicit exit phrase is an
// exit no matter what else it says.
func (c *Classifier) Classify(msg string) Intent {
	lower := strings.ToLower(msg)

	if IsExitSignal(msg) {
		return Intent{Kind: IntentExit}
	}
	if tag := DetectObjectionTag(msg); tag != "" {
		return Intent{Kind: IntentObjection, ObjectionTag: tag}
	}
	if containsAny(lower, interestKeywords) {
		return Intent{Kind: IntentInterest}
	}
	if containsAny(lower, greetingKeywords) {
		return Intent{Kind: IntentGreeting}
	}
	if strings.Contains(msg, "?") {
		return Intent{Kind: IntentQuestion}
	}
	if containsAny(lower, vaguePhrases) {
		return Intent{Kind: IntentQuestion}
	}
	return Intent{Kind: IntentAmbiguous}
}

// IsExitSignal reports whether the message contains an explicit exit
// phrase. It is checked before anything else each turn.
func IsExitSignal(msg string) bool {
	lower := strings.ToLower(msg)
	return containsAny(lower, exitKeywords)
}

// DetectObjectionTag returns the objection category for a message, or ""
// when no objection keywords appear.
func DetectObjectionTag(msg string) string {
	lower := strings.ToLower(msg)
	for _, group := range objectionKeywords {
		if containsAny(lower, group.keywords) {
			return group.tag
		}
	}
	return ""
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
