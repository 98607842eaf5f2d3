package internal

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChatTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"short", "short"},
		{strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{strings.Repeat("a", 31), strings.Repeat("a", 30) + "..."},
		{strings.Repeat("é", 40), strings.Repeat("é", 30) + "..."},
	}
	for _, tt := range tests {
		if got := ChatTitle(tt.in); got != tt.want {
			t.Errorf("ChatTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrimExtension(t *testing.T) {
	tests := map[string]string{
		"brief.pdf":        "brief",
		"archive.v2.pdf":   "archive.v2",
		"noext":            "noext",
		".pdf":             ".pdf",
		"trailing.":        "trailing.",
		"Client Brief.PDF": "Client Brief",
	}
	for in, want := range tests {
		if got := trimExtension(in); got != want {
			t.Errorf("trimExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSessionJSON(t *testing.T) {
	session := CreateTestSession("s1")
	session.Type = SessionTypeFolder
	session.FileName = "brief.pdf"

	data, err := json.Marshal(session)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, key := range []string{`"fileName":"brief.pdf"`, `"developerProfile":`, `"type":"folder"`, `"sender":"assistant"`, `"timestamp":"2025-03-14T09:30:00Z"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("JSON missing %s: %s", key, data)
		}
	}

	var back Session
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.Messages[1].Content != session.Messages[1].Content {
		t.Error("message content changed in round trip")
	}
}

func TestFindMessage(t *testing.T) {
	session := CreateTestSession("s1")
	first := session.Messages[0]

	if msg, ok := session.FindMessage(first.ID); !ok || msg.ID != first.ID {
		t.Error("FindMessage(id) failed")
	}
	if msg, ok := session.FindMessage("2"); !ok || msg.Sender != SenderAssistant {
		t.Error("FindMessage(2) should return the second message")
	}
	for _, ref := range []string{"0", "3", "x1", ""} {
		if _, ok := session.FindMessage(ref); ok {
			t.Errorf("FindMessage(%q) should fail", ref)
		}
	}

	last, ok := session.Last()
	if !ok || last.Sender != SenderAssistant {
		t.Errorf("Last() = %+v", last)
	}
	if _, ok := (Session{}).Last(); ok {
		t.Error("Last() on an empty session should fail")
	}
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b || len(a) != 36 {
		t.Errorf("NewID() = %q, %q", a, b)
	}
}
