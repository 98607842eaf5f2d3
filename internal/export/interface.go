package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/work-scope/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(session *internal.Session, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}

// document is the exported form of a session. Assistant replies are
// decoded so structured content is emitted as data, not as an escaped string.
type document struct {
	ID               string            `json:"id" yaml:"id"`
	Name             string            `json:"name" yaml:"name"`
	Type             string            `json:"type" yaml:"type"`
	FileName         string            `json:"fileName,omitempty" yaml:"file_name,omitempty"`
	DeveloperProfile string            `json:"developerProfile,omitempty" yaml:"developer_profile,omitempty"`
	Messages         []exportedMessage `json:"messages" yaml:"messages"`
}

type exportedMessage struct {
	ID               string         `json:"id" yaml:"id"`
	Sender           string         `json:"sender" yaml:"sender"`
	Timestamp        time.Time      `json:"timestamp" yaml:"timestamp"`
	Shape            string         `json:"shape,omitempty" yaml:"shape,omitempty"`
	Content          internal.Value `json:"content" yaml:"content"`
	CurrentStage     string         `json:"current_stage,omitempty" yaml:"current_stage,omitempty"`
	FollowUpQuestion string         `json:"follow_up_question,omitempty" yaml:"follow_up_question,omitempty"`
}

func newDocument(session *internal.Session) document {
	doc := document{
		ID:               session.ID,
		Name:             session.Name,
		Type:             string(session.Type),
		FileName:         session.FileName,
		DeveloperProfile: session.DeveloperProfile,
		Messages:         make([]exportedMessage, 0, len(session.Messages)),
	}
	for _, msg := range session.Messages {
		doc.Messages = append(doc.Messages, newExportedMessage(msg))
	}
	return doc
}

func newExportedMessage(msg internal.Message) exportedMessage {
	out := exportedMessage{
		ID:        msg.ID,
		Sender:    string(msg.Sender),
		Timestamp: msg.Timestamp,
	}
	if msg.Sender != internal.SenderAssistant {
		out.Content = internal.StringValue(msg.Content)
		return out
	}
	payload := internal.NormalizeStored(msg.Content)
	out.Shape = string(internal.MessageShape(msg))
	out.Content = payload.Content
	out.CurrentStage = payload.CurrentStage
	out.FollowUpQuestion = payload.FollowUpQuestion
	return out
}
