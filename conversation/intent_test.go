package conversation

import "testing"

func TestClassify(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		msg     string
		want    IntentKind
		wantTag string
	}{
		{name: "greeting", msg: "Hello there", want: IntentGreeting},
		{name: "question", msg: "What does term life cover?", want: IntentQuestion},
		{name: "vague phrase is a question", msg: "tell me more", want: IntentQuestion},
		{name: "cost objection", msg: "That sounds really expensive", want: IntentObjection, wantTag: ObjectionCost},
		{name: "trust objection", msg: "How do I know this isn't a scam", want: IntentObjection, wantTag: ObjectionTrust},
		{name: "timing objection", msg: "I need to think about it", want: IntentObjection, wantTag: ObjectionTiming},
		{name: "comparison objection", msg: "I found a better deal somewhere", want: IntentObjection, wantTag: ObjectionComparison},
		{name: "interest", msg: "I want to sign up", want: IntentInterest},
		{name: "plain exit", msg: "No thanks, I'm done", want: IntentExit},
		{name: "ambiguous", msg: "okay", want: IntentAmbiguous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.msg)
			if got.Kind != tt.want {
				t.Errorf("Classify(%q).Kind = %v, want %v", tt.msg, got.Kind, tt.want)
			}
			if got.ObjectionTag != tt.wantTag {
				t.Errorf("Classify(%q).ObjectionTag = %q, want %q", tt.msg, got.ObjectionTag, tt.wantTag)
			}
		})
	}
}

func TestExitOutranksInterest(t *testing.T) {
	msg := "I'm interested but honestly not interested, no thanks"
	if !IsExitSignal(msg) {
		t.Fatal("expected exit signal")
	}
	got := NewClassifier().Classify(msg)
	if got.Kind != IntentExit {
		t.Errorf("Classify() = %v, want %v", got.Kind, IntentExit)
	}
}

func TestDetectObjectionTagFixedOrder(t *testing.T) {
	// A message hitting both cost and timing keywords always lands on
	// cost, the first category checked.
	tag := DetectObjectionTag("too expensive, maybe not now")
	if tag != ObjectionCost {
		t.Errorf("DetectObjectionTag() = %q, want %q", tag, ObjectionCost)
	}
}

func TestIsExitSignal(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"not interested", true},
		{"I'll pass on this one", true},
		{"maybe later", true},
		{"NOT FOR ME", true},
		{"I'm very interested", false},
		{"what is the premium?", false},
	}
	for _, tt := range tests {
		if got := IsExitSignal(tt.msg); got != tt.want {
			t.Errorf("IsExitSignal(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
