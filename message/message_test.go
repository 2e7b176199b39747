package message

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleCustomer, "Hello, world!")

	if msg.Role != RoleCustomer {
		t.Errorf("Expected role %s, got %s", RoleCustomer, msg.Role)
	}

	if msg.Content != "Hello, world!" {
		t.Errorf("Expected content 'Hello, world!', got '%s'", msg.Content)
	}

	if msg.ID == "" {
		t.Error("Expected non-empty ID")
	}

	if msg.CreatedAt.IsZero() {
		t.Error("Expected non-zero created time")
	}
}

func TestClone(t *testing.T) {
	msg := NewMessage(RoleAssistant, "reply")
	msg.Metadata["stage"] = "INFORMATION"

	cloned := Clone(msg)
	cloned.Metadata["stage"] = "CLOSING"

	if msg.Metadata["stage"] != "INFORMATION" {
		t.Error("Clone shares metadata with the original")
	}

	if Clone(nil) != nil {
		t.Error("Clone(nil) should be nil")
	}
}

func TestCloneMessages(t *testing.T) {
	msgs := []*Message{
		NewMessage(RoleCustomer, "hi"),
		NewMessage(RoleAssistant, "hello"),
	}

	clones := CloneMessages(msgs)
	if len(clones) != 2 {
		t.Fatalf("Expected 2 clones, got %d", len(clones))
	}

	clones[0].Content = "changed"
	if msgs[0].Content != "hi" {
		t.Error("CloneMessages shares message structs with the original")
	}

	if CloneMessages(nil) != nil {
		t.Error("CloneMessages(nil) should be nil")
	}
}
