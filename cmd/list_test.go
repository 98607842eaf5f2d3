package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/work-scope/internal"
)

func TestListCommand(t *testing.T) {
	env := newFixtureEnv(t)

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			name: "all sessions",
			args: []string{"list"},
			want: []string{"Found 2 session(s)", "Invoice portal", "requirements", "feature_list", "scope_of_work"},
		},
		{
			name:    "folders only",
			args:    []string{"list", "--type", "folder"},
			want:    []string{"Found 1 session(s)", "requirements"},
			notWant: []string{"Invoice portal"},
		},
		{
			name:    "chats only",
			args:    []string{"ls", "-t", "chat"},
			want:    []string{"Invoice portal"},
			notWant: []string{"requirements"},
		},
		{
			name:    "unknown type",
			args:    []string{"list", "--type", "archive"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("list error = %v, wantErr %v", err, tt.wantErr)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(out, notWant) {
					t.Errorf("output should not contain %q:\n%s", notWant, out)
				}
			}
		})
	}
}

func TestDisplaySessions(t *testing.T) {
	now := time.Date(2025, 3, 20, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		sessions internal.Collection
		want     []string
	}{
		{
			name:     "empty",
			sessions: internal.Collection{},
			want:     []string{"No sessions found"},
		},
		{
			name: "awaiting reply",
			sessions: internal.Collection{{
				ID:   "0123456789abcdef",
				Name: "Pending",
				Type: internal.SessionTypeChat,
				Messages: []internal.Message{
					internal.NewUserMessage("hello", now.Add(-time.Hour)),
				},
			}},
			want: []string{"01234567", "Pending", "chat", "awaiting reply"},
		},
		{
			name: "untitled and truncated",
			sessions: internal.Collection{
				{ID: "a1", Type: internal.SessionTypeChat},
				{ID: "b2", Name: strings.Repeat("x", 50), Type: internal.SessionTypeFolder},
			},
			want: []string{"Untitled", strings.Repeat("x", 37) + "..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displaySessions(&buf, tt.sessions, now)
			out := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestFormatRelative(t *testing.T) {
	now := time.Now()

	if got := formatRelative(time.Time{}, now); got != "—" {
		t.Errorf("zero time = %q", got)
	}
	if got := formatRelative(now.Add(-time.Hour), now); !strings.HasPrefix(got, "Today") {
		t.Errorf("an hour ago = %q", got)
	}
	old := now.AddDate(-2, 0, 0)
	if got := formatRelative(old, now); got != old.Local().Format("2006-01-02") {
		t.Errorf("two years ago = %q", got)
	}
}
