package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/render"
	"github.com/spf13/cobra"
)

var (
	limit       int
	since       string
	showProse   bool
	showRawMD   bool
	showGlamour bool
	showWidth   int
)

var (
	// Styles for show command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 1)

	assistantMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	messageContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	shapeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <session-id> [message]",
	Short: "Show messages for a specific session",
	Long: `Display a session with every assistant reply rendered as a structured view.

The session id may be shortened to a unique prefix of at least 4 characters.
Pass a message id or 1-based position to show a single message.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.store.Resolve(args[0])
		if err != nil {
			return err
		}

		v, err := newMessageView(a.cfg.Glamour || showGlamour)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if len(args) == 2 {
			msg, ok := session.FindMessage(args[1])
			if !ok {
				return fmt.Errorf("message not found: %s", args[1])
			}
			v.display(out, 0, 0, msg)
			return nil
		}

		displaySessionHeader(out, session)

		// Filter messages if needed
		messagesToShow := session.Messages
		if since != "" {
			sinceTime, err := time.Parse(time.RFC3339, since)
			if err != nil {
				return fmt.Errorf("invalid --since timestamp format (expected RFC3339): %w", err)
			}
			filtered := make([]internal.Message, 0, len(messagesToShow))
			for _, msg := range messagesToShow {
				if !msg.Timestamp.Before(sinceTime) {
					filtered = append(filtered, msg)
				}
			}
			messagesToShow = filtered
		}

		// Apply limit if specified
		totalFiltered := len(messagesToShow)
		if limit > 0 && limit < len(messagesToShow) {
			messagesToShow = messagesToShow[:limit]
		}

		for i, msg := range messagesToShow {
			v.display(out, i+1, totalFiltered, msg)
		}

		// Show remaining count if limit was applied
		if limit > 0 && limit < totalFiltered {
			remaining := totalFiltered - limit
			_, _ = fmt.Fprintln(out, lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true).
				Render(fmt.Sprintf("... (%d more message(s))", remaining)))
		}

		return nil
	},
}

// messageView renders stored messages
type messageView struct {
	terminal *render.Terminal
	opts     internal.ViewOptions
	markdown bool
}

func newMessageView(useGlamour bool) (*messageView, error) {
	terminal, err := render.NewTerminal(showWidth, useGlamour)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return &messageView{
		terminal: terminal,
		opts:     internal.ViewOptions{Prose: showProse},
		markdown: showRawMD,
	}, nil
}

func (v *messageView) body(msg internal.Message) string {
	blocks := internal.MessageBlocks(msg, v.opts)
	if v.markdown {
		return render.Markdown(blocks)
	}
	if msg.Sender != internal.SenderAssistant {
		return messageContentStyle.Render(wrapText(strings.TrimSpace(msg.Content), showWidth))
	}
	return v.terminal.Render(blocks)
}

// display prints one message. index 0 omits the position marker.
func (v *messageView) display(w io.Writer, index, total int, msg internal.Message) {
	var header string
	if msg.Sender == internal.SenderAssistant {
		header = assistantMessageStyle.Render("🤖 Assistant")
	} else {
		header = userMessageStyle.Render("👤 User")
	}
	if index > 0 {
		header += " " + timestampStyle.Render(fmt.Sprintf("[%d/%d]", index, total))
	}
	if !msg.Timestamp.IsZero() {
		header += " " + timestampStyle.Render(msg.Timestamp.Local().Format("2006-01-02 15:04"))
	}
	if msg.Sender == internal.SenderAssistant {
		header += " " + shapeStyle.Render(string(internal.MessageShape(msg)))
	}
	_, _ = fmt.Fprintln(w, header)

	body := v.body(msg)
	if strings.TrimSpace(body) == "" {
		body = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("(empty message)")
	}
	_, _ = fmt.Fprintln(w, body)
	_, _ = fmt.Fprintln(w)
}

func displaySessionHeader(w io.Writer, session internal.Session) {
	header := sessionHeaderStyle.Render(fmt.Sprintf("💬 %s", session.Name))
	_, _ = fmt.Fprintln(w, header)

	metaParts := []string{
		fmt.Sprintf("ID: %s", session.ID),
		fmt.Sprintf("Type: %s", session.Type),
		fmt.Sprintf("Messages: %d", len(session.Messages)),
	}
	if session.FileName != "" {
		metaParts = append(metaParts, fmt.Sprintf("File: %s", session.FileName))
	}
	if session.DeveloperProfile != "" {
		metaParts = append(metaParts, fmt.Sprintf("Profile: %s", session.DeveloperProfile))
	}
	_, _ = fmt.Fprintln(w, sessionMetaStyle.Render(strings.Join(metaParts, " • ")))
}

func wrapText(text string, width int) string {
	if width <= 0 {
		width = 80
	}
	lines := strings.Split(text, "\n")
	var wrapped []string

	for _, line := range lines {
		if len(line) <= width {
			wrapped = append(wrapped, line)
			continue
		}

		// Wrap long lines
		words := strings.Fields(line)
		currentLine := ""
		for _, word := range words {
			if len(currentLine)+len(word)+1 > width {
				if currentLine != "" {
					wrapped = append(wrapped, currentLine)
					currentLine = word
				} else {
					wrapped = append(wrapped, word)
					currentLine = ""
				}
			} else {
				if currentLine == "" {
					currentLine = word
				} else {
					currentLine += " " + word
				}
			}
		}
		if currentLine != "" {
			wrapped = append(wrapped, currentLine)
		}
	}

	return strings.Join(wrapped, "\n")
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Limit number of messages to show")
	showCmd.Flags().StringVar(&since, "since", "", "Show messages since timestamp (RFC3339)")
	showCmd.Flags().BoolVar(&showProse, "prose", false, "Expand unrecognized structures into headings instead of JSON")
	showCmd.Flags().BoolVar(&showRawMD, "markdown", false, "Print replies as Markdown text")
	showCmd.Flags().BoolVar(&showGlamour, "glamour", false, "Render replies as Markdown through glamour")
	showCmd.Flags().IntVarP(&showWidth, "width", "w", 100, "Wrap width")
}
