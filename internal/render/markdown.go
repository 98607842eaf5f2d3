// Package render turns message blocks into markdown, plain text or
// styled terminal output.
package render

import (
	"strings"

	"github.com/iksnae/work-scope/internal"
)

// Markdown renders blocks as GitHub flavoured markdown
func Markdown(blocks []internal.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := markdownBlock(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func markdownBlock(b internal.Block) string {
	switch b.Kind {
	case internal.BlockHeading:
		return strings.Repeat("#", b.Level) + " " + b.Text
	case internal.BlockParagraph:
		return markdownSpans(b.Spans)
	case internal.BlockList:
		lines := make([]string, 0, len(b.Items))
		for _, item := range b.Items {
			lines = append(lines, "- "+markdownSpans(item))
		}
		return strings.Join(lines, "\n")
	case internal.BlockTable:
		return markdownTable(b.Table)
	case internal.BlockDump:
		return "```json\n" + b.Text + "\n```"
	case internal.BlockFollowUp:
		return "**Follow-up Question**\n\n> " + strings.ReplaceAll(b.Text, "\n", "\n> ")
	}
	return ""
}

func markdownSpans(spans []internal.Span) string {
	var sb strings.Builder
	for _, span := range spans {
		if span.Bold && strings.TrimSpace(span.Text) != "" {
			sb.WriteString("**" + span.Text + "**")
		} else {
			sb.WriteString(span.Text)
		}
	}
	return sb.String()
}

func markdownTable(t *internal.Table) string {
	if t == nil {
		return ""
	}
	width := tableWidth(t)
	if width == 0 {
		return ""
	}

	var sb strings.Builder
	writeRow := func(cells []string, bold bool) {
		sb.WriteString("|")
		for i := 0; i < width; i++ {
			cell := ""
			if i < len(cells) {
				cell = markdownCell(cells[i])
			}
			if bold && cell != "" {
				cell = "**" + cell + "**"
			}
			sb.WriteString(" " + cell + " |")
		}
		sb.WriteString("\n")
	}

	writeRow(t.Headers, false)
	sb.WriteString("|" + strings.Repeat(" --- |", width) + "\n")
	for _, row := range t.Rows {
		writeRow(row, false)
	}
	if t.Totals != nil {
		writeRow(t.Totals, true)
	}

	out := strings.TrimRight(sb.String(), "\n")
	if len(t.Summary) > 0 {
		lines := make([]string, 0, len(t.Summary))
		for _, f := range t.Summary {
			lines = append(lines, "- **"+f.Label+":** "+internal.FormatNumber(f.Value))
		}
		out += "\n\n" + strings.Join(lines, "\n")
	}
	return out
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func tableWidth(t *internal.Table) int {
	width := len(t.Headers)
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}
	if len(t.Totals) > width {
		width = len(t.Totals)
	}
	return width
}
