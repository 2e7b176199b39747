package prompt

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSystemPrompt(t *testing.T) {
	lib, err := NewLibrary("CoverBridge", "Ava")
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	out, err := lib.SystemPrompt("INFORMATION", "Age: 35, Purpose: family protection", "[Term Life] covers twenty years")
	if err != nil {
		t.Fatalf("SystemPrompt() error = %v", err)
	}
	for _, want := range []string{
		"Ava", "CoverBridge",
		"Current Stage: Policy Information",
		"Customer Profile",
		"Age: 35",
		"Relevant Policy Information",
		"[Term Life]",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SystemPrompt() missing %q", want)
		}
	}
}

func TestSystemPromptUnknownStageFallsBack(t *testing.T) {
	lib, err := NewLibrary("CoverBridge", "Ava")
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	out, err := lib.SystemPrompt("ENDED", "", "")
	if err != nil {
		t.Fatalf("SystemPrompt() error = %v", err)
	}
	if !strings.Contains(out, "Ava") {
		t.Error("fallback prompt not rendered")
	}
	if strings.Contains(out, "Current Stage:") {
		t.Error("fallback prompt should carry no stage task")
	}
}

func TestSystemPromptOmitsEmptySections(t *testing.T) {
	lib, err := NewLibrary("", "")
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	out, err := lib.SystemPrompt("GREETING", "", "")
	if err != nil {
		t.Fatalf("SystemPrompt() error = %v", err)
	}
	if strings.Contains(out, "Customer Profile") {
		t.Error("empty profile section included")
	}
	if strings.Contains(out, "Relevant Policy Information") {
		t.Error("empty policy section included")
	}
}

func TestWelcomeMessageByTimeOfDay(t *testing.T) {
	lib, err := NewLibrary("CoverBridge", "Ava")
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	tests := []struct {
		name   string
		hour   int
		bucket string
	}{
		{name: "morning", hour: 9, bucket: "morning"},
		{name: "afternoon", hour: 14, bucket: "afternoon"},
		{name: "evening", hour: 19, bucket: "evening"},
		{name: "late night", hour: 2, bucket: "generic"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := time.Date(2025, 3, 10, tt.hour, 0, 0, 0, time.UTC)
			got := lib.WelcomeMessage(now)
			if !strings.Contains(got, "Ava") {
				t.Errorf("WelcomeMessage() missing agent name: %q", got)
			}
			found := false
			for _, tmpl := range welcomeTemplates[tt.bucket] {
				if got == fmt.Sprintf(tmpl, "Ava") {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("WelcomeMessage(%02d:00) = %q, not from the %s bucket", tt.hour, got, tt.bucket)
			}
		})
	}
}

func TestObjectionResponse(t *testing.T) {
	lib, err := NewLibrary("CoverBridge", "Ava")
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	if got := lib.ObjectionResponse("cost"); !strings.Contains(got, "cost") {
		t.Errorf("ObjectionResponse(cost) = %q", got)
	}
	if got := lib.ObjectionResponse("TIMING"); !strings.Contains(got, "think it over") {
		t.Errorf("ObjectionResponse(TIMING) = %q", got)
	}
	if got := lib.ObjectionResponse("unknown"); got == "" {
		t.Error("unknown tag should fall back to a generic acknowledgement")
	}
}

func TestExitMessage(t *testing.T) {
	lib, err := NewLibrary("CoverBridge", "Ava")
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}

	if got := lib.ExitMessage("later"); !strings.Contains(got, "summary") {
		t.Errorf("ExitMessage(later) = %q", got)
	}
	if got := lib.ExitMessage("anything else"); !strings.Contains(got, "I completely understand") {
		t.Errorf("ExitMessage fallback = %q", got)
	}
}
