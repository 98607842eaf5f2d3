package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/iksnae/work-scope/internal"
)

var (
	h1Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("212"))

	h2Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("62")).
		Underline(true)

	h3Style = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("135"))

	boldStyle = lipgloss.NewStyle().Bold(true)

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	dumpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	followUpLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("214"))

	followUpStyle = lipgloss.NewStyle().
			Italic(true).
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("214")).
			PaddingLeft(1)

	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
	tableTotalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")).Padding(0, 1)
)

// Terminal renders blocks for an interactive terminal
type Terminal struct {
	width    int
	markdown *glamour.TermRenderer
}

// NewTerminal creates a terminal renderer wrapping at width. With
// useMarkdown the blocks are rendered as markdown through glamour.
func NewTerminal(width int, useMarkdown bool) (*Terminal, error) {
	if width <= 0 {
		width = 80
	}
	t := &Terminal{width: width}
	if useMarkdown {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return nil, err
		}
		t.markdown = r
	}
	return t, nil
}

// Render returns the styled form of blocks
func (t *Terminal) Render(blocks []internal.Block) string {
	if t.markdown != nil {
		out, err := t.markdown.Render(Markdown(blocks))
		if err == nil {
			return strings.Trim(out, "\n")
		}
		internal.LogDebug("Markdown rendering failed, using plain styles: %v", err)
	}

	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := t.block(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (t *Terminal) block(b internal.Block) string {
	wrap := lipgloss.NewStyle().Width(t.width)
	switch b.Kind {
	case internal.BlockHeading:
		switch b.Level {
		case 1:
			return h1Style.Render(b.Text)
		case 2:
			return h2Style.Render(b.Text)
		default:
			return h3Style.Render(b.Text)
		}
	case internal.BlockParagraph:
		return wrap.Render(styledSpans(b.Spans))
	case internal.BlockList:
		lines := make([]string, 0, len(b.Items))
		item := lipgloss.NewStyle().Width(t.width - 2)
		for _, spans := range b.Items {
			lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, bulletStyle.Render("• "), item.Render(styledSpans(spans))))
		}
		return strings.Join(lines, "\n")
	case internal.BlockTable:
		return t.table(b.Table)
	case internal.BlockDump:
		return dumpStyle.Render(b.Text)
	case internal.BlockFollowUp:
		return followUpLabelStyle.Render("Follow-up Question") + "\n" + followUpStyle.Width(t.width-2).Render(b.Text)
	}
	return ""
}

func styledSpans(spans []internal.Span) string {
	var sb strings.Builder
	for _, span := range spans {
		if span.Bold {
			sb.WriteString(boldStyle.Render(span.Text))
		} else {
			sb.WriteString(span.Text)
		}
	}
	return sb.String()
}

func (t *Terminal) table(tb *internal.Table) string {
	if tb == nil || tableWidth(tb) == 0 {
		return ""
	}
	width := tableWidth(tb)
	pad := func(cells []string) []string {
		out := make([]string, width)
		for i := range out {
			if i < len(cells) {
				out[i] = strings.ReplaceAll(cells[i], "**", "")
			}
		}
		return out
	}

	rows := make([][]string, 0, len(tb.Rows)+1)
	for _, row := range tb.Rows {
		rows = append(rows, pad(row))
	}
	totalRow := -1
	if tb.Totals != nil {
		totalRow = len(rows)
		rows = append(rows, pad(tb.Totals))
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case row == totalRow:
				return tableTotalStyle
			default:
				return tableCellStyle
			}
		}).
		Headers(pad(tb.Headers)...).
		Rows(rows...)

	out := tbl.String()
	if len(tb.Summary) > 0 {
		figures := make([]string, 0, len(tb.Summary))
		for _, f := range tb.Summary {
			figures = append(figures, boldStyle.Render(f.Label+":")+" "+internal.FormatNumber(f.Value))
		}
		out += "\n" + strings.Join(figures, "  ")
	}
	return out
}
