package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/render"
)

// MarkdownExporter exports sessions in Markdown format. Assistant replies
// are rendered through the same views as the terminal.
type MarkdownExporter struct {
	// Prose expands unrecognized structures into headings instead of JSON
	Prose bool
}

// Export exports a session to Markdown format
func (e *MarkdownExporter) Export(session *internal.Session, w io.Writer) error {
	// Header
	_, _ = fmt.Fprintf(w, "# %s\n\n", session.Name)

	_, _ = fmt.Fprintf(w, "**Session:** %s  \n", session.ID)
	_, _ = fmt.Fprintf(w, "**Type:** %s  \n", session.Type)
	if session.FileName != "" {
		_, _ = fmt.Fprintf(w, "**File:** %s  \n", session.FileName)
	}
	if session.DeveloperProfile != "" {
		_, _ = fmt.Fprintf(w, "**Developer Profile:** %s  \n", session.DeveloperProfile)
	}
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(session.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")

	opts := internal.ViewOptions{Prose: e.Prose}
	for i, msg := range session.Messages {
		timestamp := ""
		if !msg.Timestamp.IsZero() {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp.Format("2006-01-02 15:04"))
		}
		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n", senderLabel(msg.Sender), timestamp)

		var body string
		if msg.Sender == internal.SenderAssistant {
			body = render.Markdown(internal.MessageBlocks(msg, opts))
		} else {
			body = escapeMarkdown(msg.Content)
		}
		_, _ = fmt.Fprintf(w, "%s\n\n", strings.TrimRight(body, "\n"))

		// Add horizontal rule after each message (except the last one)
		if i < len(session.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func senderLabel(s internal.Sender) string {
	if s == internal.SenderAssistant {
		return "Assistant"
	}
	return "User"
}

// escapeMarkdown escapes emphasis markers in user text outside code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
