package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/work-scope/internal"
)

func testSession(id string) *internal.Session {
	s := internal.CreateTestSession(id)
	return &s
}

func TestJSONExporter_Export(t *testing.T) {
	folder := internal.NewFolderSession("test3", "brief.pdf", "Senior developer",
		internal.NewAssistantMessage(internal.NormalizedPayload{
			Content:      internal.MustParseValue(`{"overview":"A <CRM>","effort_estimation_table":{"headers":["Task","Hours"],"rows":[["Design","10"]]}}`),
			CurrentStage: "work_scope",
		}, internal.CreateTestTime()))

	tests := []struct {
		name    string
		session *internal.Session
		want    []string
		wantErr bool
	}{
		{
			name:    "basic session",
			session: testSession("test1"),
			want:    []string{`"features": [`, `"shape": "feature_list"`, `"follow_up_question": "Which one first?"`},
			wantErr: false,
		},
		{
			name: "empty session",
			session: func() *internal.Session {
				s := internal.CreateTestSessionWithMessages("test2", []internal.Message{})
				return &s
			}(),
			want:    []string{`"messages": []`},
			wantErr: false,
		},
		{
			name:    "folder session",
			session: &folder,
			want:    []string{`"fileName": "brief.pdf"`, `"developerProfile": "Senior developer"`, `"overview": "A <CRM>"`, `"shape": "scope_of_work"`},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONExporter{}

			err := exporter.Export(tt.session, &buf)
			if (err != nil) != tt.wantErr {
				t.Errorf("JSONExporter.Export() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				output := buf.String()
				// Verify it's valid JSON
				doc, ok := internal.ParseValue(output)
				if !ok {
					t.Errorf("Output is not valid JSON:\n%s", output)
					return
				}
				if id, _ := doc.Get("id"); id.Str() != tt.session.ID {
					t.Errorf("id = %q, want %q", id.Str(), tt.session.ID)
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

func TestJSONExporter_KeyOrder(t *testing.T) {
	var buf bytes.Buffer
	session := internal.CreateTestSessionWithMessages("order", []internal.Message{
		internal.NewAssistantMessage(internal.NormalizedPayload{
			Content:      internal.MustParseValue(`{"zeta":1,"alpha":2}`),
			CurrentStage: "general_chat",
		}, internal.CreateTestTime()),
	})
	if err := (&JSONExporter{}).Export(&session, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()
	if strings.Index(out, `"zeta"`) > strings.Index(out, `"alpha"`) {
		t.Errorf("object keys should keep their order:\n%s", out)
	}
}

func TestJSONExporter_Extension(t *testing.T) {
	exporter := &JSONExporter{}
	if got := exporter.Extension(); got != "json" {
		t.Errorf("JSONExporter.Extension() = %v, want json", got)
	}
}
