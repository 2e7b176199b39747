package conversation

import "github.com/coverbridge/salesagent/session"

// Stage-specific fallback replies used when generation fails. The
// customer sees a polite continuation of the conversation, never a
// technical error.
var stageFallbacks = map[session.Stage]string{
	session.StageGreeting:              "Hello! I'm here to help you learn about life insurance. How can I assist you today?",
	session.StageQualification:         "I'd like to understand your needs better. Could you tell me a bit about your situation? For example, are you looking to protect your family, plan for retirement, or something else?",
	session.StageInformation:           "I can help you learn more about our life insurance options. Would you like information about term life, whole life, or universal life insurance?",
	session.StageObjectionHandling:     "I understand your concerns. Life insurance can seem complex, but I'm here to help answer any questions you have. What would you like to know more about?",
	session.StageInformationCollection: "To help you get the best coverage, I'll need some basic information. This includes your name, contact information, and some details about your insurance needs. Shall we continue?",
	session.StageClosing:               "Based on what you've told me, I believe we can find a policy that meets your needs. Would you like to proceed with getting a quote?",
	session.StageEnded:                 "Thank you for your time. If you have any questions in the future, please feel free to reach out. Have a great day!",
}

const genericFallback = "I'm having a technical issue right now, but I'd still like to help. Could you rephrase your question or let me know what you'd like to know about life insurance?"

// FallbackReply returns the reply to use when the generation adapter
// fails for a turn in the given stage.
func FallbackReply(stage session.Stage) string {
	if msg, ok := stageFallbacks[stage]; ok {
		return msg
	}
	return genericFallback
}

// NoMatchReply is the explicit degradation used when retrieval returns
// nothing relevant; the agent admits the gap instead of fabricating.
const NoMatchReply = "I don't have specific information about that in our current policy materials. Let me connect you with what I do know, or I can have a specialist follow up with the details."

// ClarifyReply is used for vague messages that would make a poor
// retrieval query; the agent asks the customer to narrow it down.
const ClarifyReply = "I want to make sure I point you to the right information. Could you tell me a bit more about what you'd like to know? For example, coverage amounts, monthly premiums, or how a particular policy works."
