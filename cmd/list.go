package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/work-scope/internal"
	"github.com/spf13/cobra"
)

var (
	listType string
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions",
	Long:    `List folder sessions (started from an upload) and chat sessions.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var sessions internal.Collection
		switch listType {
		case "", "all":
			sessions, err = a.store.List()
		case string(internal.SessionTypeFolder), "folders":
			sessions, err = a.store.Folders()
		case string(internal.SessionTypeChat), "chats":
			sessions, err = a.store.Chats()
		default:
			return fmt.Errorf("unknown session type: %s (expected folder, chat or all)", listType)
		}
		if err != nil {
			return err
		}

		displaySessions(cmd.OutOrStdout(), sessions, time.Now())
		return nil
	},
}

func displaySessions(out io.Writer, sessions internal.Collection, now time.Time) {
	if len(sessions) == 0 {
		_, _ = fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		return
	}

	header := headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions)))
	_, _ = fmt.Fprintln(out, header)
	_, _ = fmt.Fprintln(out)

	// Use tabwriter for aligned columns with better spacing
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)

	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Type")+"\t"+titleStyle.Render("Messages")+"\t"+titleStyle.Render("Latest")+"\t"+titleStyle.Render("Updated")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 100))

	for _, session := range sessions {
		name := session.Name
		if name == "" {
			name = "Untitled"
		}
		if r := []rune(name); len(r) > 40 {
			name = string(r[:37]) + "..."
		}

		latest := dateStyle.Render("—")
		updated := dateStyle.Render("—")
		if msg, ok := session.Last(); ok {
			if msg.Sender == internal.SenderAssistant {
				latest = string(internal.MessageShape(msg))
			} else {
				latest = "awaiting reply"
			}
			updated = dateStyle.Render(formatRelative(msg.Timestamp, now))
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID(session.ID)),
			name,
			typeStyle.Render(string(session.Type)),
			countStyle.Render(strconv.Itoa(len(session.Messages))),
			latest,
			updated)
	}

	_ = w.Flush()
	_, _ = fmt.Fprintln(out)
	_, _ = fmt.Fprintln(out, idStyle.Render("💡 Tip: Use the ID (e.g., ")+
		lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Render(shortID(sessions[0].ID))+
		idStyle.Render(") with `work-scope show <id>`"))
}

func formatRelative(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	t = t.Local()
	diff := now.Sub(t)
	switch {
	case diff < 24*time.Hour:
		return t.Format("Today 15:04")
	case diff < 7*24*time.Hour:
		return t.Format("Mon 15:04")
	case diff < 365*24*time.Hour:
		return t.Format("Jan 02 15:04")
	default:
		return t.Format("2006-01-02")
	}
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVarP(&listType, "type", "t", "all", "Session type to list (folder, chat, all)")
}
