package prompt

import (
	"strings"
	"testing"
)

func TestFilterResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clean reply untouched",
			in:   "Term life insurance covers a fixed period at level premiums.",
			want: "Term life insurance covers a fixed period at level premiums.",
		},
		{
			name: "blocked phrase removed",
			in:   "This plan offers guaranteed approval for everyone.",
			want: "This plan offers for everyone.",
		},
		{
			name: "blocked phrase removed case-insensitively",
			in:   "Act Immediately to secure this rate.",
			want: "to secure this rate.",
		},
		{
			name: "speaker prefix stripped",
			in:   "Agent: Happy to walk you through the options.",
			want: "Happy to walk you through the options.",
		},
		{
			name: "human claim corrected",
			in:   "Yes, I am human and here to help.",
			want: "Yes, I am an AI assistant and here to help.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterResponse(tt.in); got != tt.want {
				t.Errorf("FilterResponse(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestFilterResponseProhibitedContent(t *testing.T) {
	got := FilterResponse("Here is some misleading information about rates.")
	if got != safeRefusal {
		t.Errorf("FilterResponse() = %q, want the safe refusal", got)
	}
}

func TestFilterResponsePreservesParagraphs(t *testing.T) {
	in := "First   paragraph.\n\nSecond    paragraph."
	got := FilterResponse(in)
	if !strings.Contains(got, "\n\n") {
		t.Errorf("paragraph break lost: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Errorf("spaces not collapsed: %q", got)
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "normal reply", in: "Happy to explain the coverage details.", want: true},
		{name: "too short", in: "ok", want: false},
		{name: "blocked phrase", in: "This is a risk-free investment.", want: false},
		{name: "prohibited content", in: "some false claims here", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateResponse(tt.in); got != tt.want {
				t.Errorf("ValidateResponse(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
