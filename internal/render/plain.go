package render

import (
	"strings"
	"text/tabwriter"

	"github.com/iksnae/work-scope/internal"
)

// Plain renders the visible text of blocks without markup, as copied to
// the clipboard
func Plain(blocks []internal.Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if s := plainBlock(b); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n")
}

func plainBlock(b internal.Block) string {
	switch b.Kind {
	case internal.BlockHeading, internal.BlockDump:
		return b.Text
	case internal.BlockParagraph:
		return internal.SpansText(b.Spans)
	case internal.BlockList:
		lines := make([]string, 0, len(b.Items))
		for _, item := range b.Items {
			lines = append(lines, "- "+internal.SpansText(item))
		}
		return strings.Join(lines, "\n")
	case internal.BlockTable:
		return plainTable(b.Table)
	case internal.BlockFollowUp:
		return "Follow-up Question: " + b.Text
	}
	return ""
}

func plainTable(t *internal.Table) string {
	if t == nil || tableWidth(t) == 0 {
		return ""
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	writeRow := func(cells []string) {
		clean := make([]string, len(cells))
		for i, c := range cells {
			clean[i] = strings.Join(strings.Fields(strings.ReplaceAll(c, "**", "")), " ")
		}
		_, _ = w.Write([]byte(strings.Join(clean, "\t") + "\n"))
	}
	writeRow(t.Headers)
	for _, row := range t.Rows {
		writeRow(row)
	}
	if t.Totals != nil {
		writeRow(t.Totals)
	}
	_ = w.Flush()

	out := strings.TrimRight(sb.String(), "\n")
	for _, f := range t.Summary {
		out += "\n" + f.Label + ": " + internal.FormatNumber(f.Value)
	}
	return out
}
