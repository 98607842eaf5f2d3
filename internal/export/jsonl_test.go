package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/work-scope/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	at := internal.CreateTestTime()
	tests := []struct {
		name    string
		session internal.Session
		want    []string
		lines   int
		wantErr bool
	}{
		{
			name:    "empty session",
			session: internal.CreateTestSessionWithMessages("test1", []internal.Message{}),
			want:    []string{}, // No messages means no output lines
			lines:   0,
			wantErr: false,
		},
		{
			name:    "session with messages",
			session: internal.CreateTestSession("test2"),
			want: []string{
				`"sender":"user"`,
				`"content":"List the features"`,
				`"sender":"assistant"`,
				`"content":{"features":["Login","Payments"]}`,
				`"current_stage":"features"`,
			},
			lines:   2,
			wantErr: false,
		},
		{
			name: "session with timestamp",
			session: internal.CreateTestSessionWithMessages("test3", []internal.Message{
				internal.NewUserMessage("Hello", at),
			}),
			want: []string{
				`"timestamp":"2025-03-14T09:30:00Z"`,
			},
			lines:   1,
			wantErr: false,
		},
		{
			name: "plain text reply",
			session: internal.CreateTestSessionWithMessages("test4", []internal.Message{
				internal.NewAssistantMessage(internal.NormalizeText("Plain **bold** <b>", ""), at),
			}),
			want: []string{
				`"content":"Plain **bold** <b>"`,
				`"shape":"text"`,
				`"current_stage":"general_chat"`,
			},
			lines:   1,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}

			err := exporter.Export(&tt.session, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}

			output := buf.String()
			lines := strings.Split(strings.TrimSpace(output), "\n")
			if output == "" {
				lines = nil
			}
			if len(lines) != tt.lines {
				t.Errorf("got %d lines, want %d\n%s", len(lines), tt.lines, output)
			}
			for _, line := range lines {
				var obj map[string]interface{}
				if err := json.Unmarshal([]byte(line), &obj); err != nil {
					t.Errorf("line is not valid JSON: %v\n%s", err, line)
				}
			}
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Output should contain %q\nOutput:\n%s", want, output)
				}
			}
		})
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	exporter := &JSONLExporter{}
	if got := exporter.Extension(); got != "jsonl" {
		t.Errorf("JSONLExporter.Extension() = %v, want jsonl", got)
	}
}
