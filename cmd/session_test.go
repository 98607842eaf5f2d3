package cmd

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/testutil"
)

func loadSessions(t *testing.T, env *testEnv) internal.Collection {
	t.Helper()
	sessions, err := internal.NewFilePersistence(env.storage).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return sessions
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, featureReply)

	out, err := env.run(t, "new", "--profile", "Senior Go developer")
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	id := strings.TrimSpace(out)
	if len(id) != 36 {
		t.Fatalf("new printed %q, want a session id", out)
	}

	out, err = env.run(t, "send", id[:8], "Build an invoice portal")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	for _, want := range []string{"Login", "Payments", "Which one first?", "feature_list"} {
		if !strings.Contains(out, want) {
			t.Errorf("send output missing %q:\n%s", want, out)
		}
	}

	requests := env.assistant.Requests()
	if len(requests) != 1 {
		t.Fatalf("backend got %d request(s), want 1", len(requests))
	}
	fields := requests[0].Fields
	if fields["session_id"] != id || fields["user_input"] != "Build an invoice portal" {
		t.Errorf("unexpected fields: %v", fields)
	}
	if fields["developer_profile"] != "Senior Go developer" {
		t.Errorf("developer_profile = %q", fields["developer_profile"])
	}
	if fields["history"] != "[]" {
		t.Errorf("history = %q, want []", fields["history"])
	}

	sessions := loadSessions(t, env)
	if len(sessions) != 1 || len(sessions[0].Messages) != 2 {
		t.Fatalf("stored sessions = %+v", sessions)
	}
	if sessions[0].Name != "Build an invoice portal" {
		t.Errorf("chat name = %q", sessions[0].Name)
	}

	// The second turn carries the first exchange as history
	if _, err := env.run(t, "send", id, "Login first"); err != nil {
		t.Fatalf("second send failed: %v", err)
	}
	requests = env.assistant.Requests()
	var history []internal.HistoryTurn
	if err := json.Unmarshal([]byte(requests[1].Fields["history"]), &history); err != nil {
		t.Fatalf("history is not JSON: %v", err)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "model" {
		t.Errorf("history = %+v", history)
	}

	out, err = env.run(t, "profile", id)
	if err != nil || strings.TrimSpace(out) != "Senior Go developer" {
		t.Errorf("profile = %q, %v", out, err)
	}
	if _, err := env.runWithInput(t, "Junior frontend developer\n", "profile", id, "-"); err != nil {
		t.Fatalf("profile set failed: %v", err)
	}
	if got := loadSessions(t, env)[0].DeveloperProfile; got != "Junior frontend developer" {
		t.Errorf("profile after update = %q", got)
	}

	out, err = env.run(t, "copy", id, "1", "--print")
	if err != nil || strings.TrimSpace(out) != "Build an invoice portal" {
		t.Errorf("copy = %q, %v", out, err)
	}

	if _, err := env.run(t, "delete", id[:8]); err == nil {
		t.Error("delete by prefix without --force should fail")
	}
	if _, err := env.run(t, "delete", id); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if got := loadSessions(t, env); len(got) != 0 {
		t.Errorf("sessions after delete = %d", len(got))
	}
}

func TestSendFailureKeepsMessage(t *testing.T) {
	env := newTestEnv(t, featureReply)
	out, err := env.run(t, "new")
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	id := strings.TrimSpace(out)

	env.assistant.SetReply(http.StatusInternalServerError, `{"detail": "model overloaded"}`)
	_, err = env.run(t, "send", id, "Hello")
	if err == nil {
		t.Fatal("send should fail when the backend errors")
	}
	if !strings.Contains(err.Error(), "model overloaded") || !strings.Contains(err.Error(), "message was saved") {
		t.Errorf("error = %v", err)
	}

	session := loadSessions(t, env)[0]
	if len(session.Messages) != 1 || session.Messages[0].Content != "Hello" {
		t.Errorf("messages after failure = %+v", session.Messages)
	}
}

func TestSendEmptyInput(t *testing.T) {
	env := newTestEnv(t, featureReply)
	out, _ := env.run(t, "new")
	id := strings.TrimSpace(out)

	_, err := env.run(t, "send", id, "   ")
	if err == nil || strings.Contains(err.Error(), "message was saved") {
		t.Errorf("send of blank input error = %v", err)
	}
	if n := len(env.assistant.Requests()); n != 0 {
		t.Errorf("backend got %d request(s), want 0", n)
	}
}

func TestUploadCommand(t *testing.T) {
	env := newTestEnv(t, `{"content": {"overview": "Build a CRM.", "feature_breakdown": "- Contacts"}, "current_stage": "work_scope"}`)
	pdf := testutil.CreatePDFFixture(t, env.dir, "requirements.pdf")

	out, err := env.run(t, "upload", pdf)
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if !strings.Contains(out, "Build a CRM.") {
		t.Errorf("upload output missing overview:\n%s", out)
	}

	requests := env.assistant.Requests()
	if len(requests) != 1 || requests[0].FileName != "requirements.pdf" {
		t.Fatalf("requests = %+v", requests)
	}

	sessions := loadSessions(t, env)
	if len(sessions) != 1 {
		t.Fatalf("stored %d sessions", len(sessions))
	}
	if sessions[0].Type != internal.SessionTypeFolder || sessions[0].Name != "requirements" {
		t.Errorf("session = %+v", sessions[0])
	}
	if sessions[0].ID != requests[0].Fields["session_id"] {
		t.Errorf("session id %q does not match the uploaded id %q", sessions[0].ID, requests[0].Fields["session_id"])
	}
}

func TestUploadRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t, featureReply)
	_, err := env.run(t, "upload", "notes.txt")
	if err == nil || !strings.Contains(err.Error(), "PDF") {
		t.Errorf("upload error = %v", err)
	}
	if n := len(env.assistant.Requests()); n != 0 {
		t.Errorf("backend got %d request(s), want 0", n)
	}
}

func TestSendLegacy(t *testing.T) {
	env := newTestEnv(t, featureReply)
	out, err := env.run(t, "new", "--profile", "junior")
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	id := strings.TrimSpace(out)

	if _, err := env.run(t, "send", id, "Build a CRM", "--legacy"); err != nil {
		t.Fatalf("first legacy send failed: %v", err)
	}
	if _, err := env.run(t, "send", id, "Add billing", "--legacy"); err != nil {
		t.Fatalf("second legacy send failed: %v", err)
	}

	requests := env.assistant.Requests()
	if len(requests) != 2 {
		t.Fatalf("backend got %d request(s), want 2", len(requests))
	}
	if requests[0].Path != "/sessions/"+id+"/initial-input" {
		t.Errorf("first request path = %s", requests[0].Path)
	}
	var first map[string]string
	if err := json.Unmarshal(requests[0].Body, &first); err != nil || first["developer_profile"] != "junior" {
		t.Errorf("first request body = %s", requests[0].Body)
	}
	if requests[1].Path != "/sessions/"+id+"/input" {
		t.Errorf("second request path = %s", requests[1].Path)
	}

	if session := loadSessions(t, env)[0]; len(session.Messages) != 4 {
		t.Errorf("stored %d messages, want 4", len(session.Messages))
	}
}
