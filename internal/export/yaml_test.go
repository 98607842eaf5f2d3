package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/work-scope/internal"
	"gopkg.in/yaml.v3"
)

func TestYAMLExporter_Export(t *testing.T) {
	tests := []struct {
		name    string
		session internal.Session
		want    []string
		wantErr bool
	}{
		{
			name:    "basic session",
			session: internal.CreateTestSession("test1"),
			want:    []string{"features:", "- Login", "shape: feature_list", "follow_up_question: Which one first?"},
			wantErr: false,
		},
		{
			name:    "empty session",
			session: internal.CreateTestSessionWithMessages("test2", []internal.Message{}),
			want:    []string{"messages: []"},
			wantErr: false,
		},
		{
			name: "numbers keep their type",
			session: internal.CreateTestSessionWithMessages("test3", []internal.Message{
				internal.NewAssistantMessage(internal.NormalizeText(`{"hours": 12, "rate": 1.5, "ok": true}`, ""), internal.CreateTestTime()),
			}),
			want:    []string{"hours: 12", "rate: 1.5", "ok: true"},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &YAMLExporter{}

			err := exporter.Export(&tt.session, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("YAMLExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				// Verify it's valid YAML
				var doc map[string]interface{}
				if err := yaml.Unmarshal([]byte(output), &doc); err != nil {
					t.Errorf("Output is not valid YAML: %v\nOutput: %s", err, output)
					return
				}
				if doc["id"] != tt.session.ID {
					t.Errorf("id = %v, want %q", doc["id"], tt.session.ID)
				}
				for _, want := range tt.want {
					if !strings.Contains(output, want) {
						t.Errorf("Output should contain %q\nOutput:\n%s", want, output)
					}
				}
			}
		})
	}
}

func TestYAMLExporter_Extension(t *testing.T) {
	exporter := &YAMLExporter{}
	if got := exporter.Extension(); got != "yaml" {
		t.Errorf("YAMLExporter.Extension() = %v, want yaml", got)
	}
}
