package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/render"
	"github.com/spf13/cobra"
)

var (
	inspectFormat string
	inspectStage  string
	inspectProse  bool
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [response-file|-]",
	Short: "Normalize and classify a raw assistant response",
	Long: `Run a raw assistant response through the normalizer and the shape
classifier, then show the result. The input may be a backend reply envelope
({"content": ..., "current_stage": ...}), bare JSON, JSON inside a fenced
code block or prose, or plain text.

Examples:
  work-scope inspect reply.json                 # Rendered view
  pbpaste | work-scope inspect -                # Read from stdin
  work-scope inspect reply.txt --format json    # Normalized payload
  work-scope inspect reply.txt --format blocks  # Stage, shape and blocks`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data []byte
		var err error
		if len(args) == 0 || args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		payload := normalizeInput(string(data), inspectStage)
		return printInspection(cmd.OutOrStdout(), payload)
	},
}

// normalizeInput treats a backend envelope as a reply and anything else as
// raw model text.
func normalizeInput(text, stage string) internal.NormalizedPayload {
	if v, ok := internal.ParseValue(strings.TrimSpace(text)); ok && v.IsObject() && v.Has("content") {
		raw, err := internal.ParseRawResponse([]byte(text))
		if err == nil {
			if raw.CurrentStage.IsBlankString() && stage != "" {
				raw.CurrentStage = internal.StringValue(stage)
			}
			return internal.Normalize(raw)
		}
	}
	return internal.NormalizeText(text, stage)
}

func printInspection(w io.Writer, payload internal.NormalizedPayload) error {
	opts := internal.ViewOptions{Prose: inspectProse}
	vm := internal.Classify(payload.Content)

	switch inspectFormat {
	case "json":
		_, _ = fmt.Fprintln(w, internal.MustParseValue(payload.Serialize()).Pretty())
	case "md", "markdown":
		_, _ = fmt.Fprintln(w, render.Markdown(internal.PayloadBlocks(payload, opts)))
	case "blocks":
		_, _ = fmt.Fprintf(w, "stage: %s\n", payload.CurrentStage)
		_, _ = fmt.Fprintf(w, "shape: %s\n", vm.Shape())
		if payload.FollowUpQuestion != "" {
			_, _ = fmt.Fprintf(w, "follow-up: %s\n", payload.FollowUpQuestion)
		}
		for i, b := range internal.PayloadBlocks(payload, opts) {
			_, _ = fmt.Fprintf(w, "%3d  %-9s %s\n", i+1, blockKindName(b.Kind), blockSummary(b))
		}
	case "", "view":
		terminal, err := render.NewTerminal(showWidth, false)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, sessionMetaStyle.Render(fmt.Sprintf("Stage: %s • Shape: %s", payload.CurrentStage, vm.Shape())))
		_, _ = fmt.Fprintln(w, terminal.Render(internal.PayloadBlocks(payload, opts)))
	default:
		return fmt.Errorf("unsupported format: %s (supported: view, blocks, json, md)", inspectFormat)
	}
	return nil
}

func blockKindName(k internal.BlockKind) string {
	switch k {
	case internal.BlockHeading:
		return "heading"
	case internal.BlockParagraph:
		return "paragraph"
	case internal.BlockList:
		return "list"
	case internal.BlockTable:
		return "table"
	case internal.BlockDump:
		return "dump"
	case internal.BlockFollowUp:
		return "follow-up"
	}
	return "unknown"
}

func blockSummary(b internal.Block) string {
	var s string
	switch b.Kind {
	case internal.BlockHeading:
		s = fmt.Sprintf("h%d %s", b.Level, b.Text)
	case internal.BlockParagraph:
		s = internal.SpansText(b.Spans)
	case internal.BlockList:
		s = fmt.Sprintf("%d item(s)", len(b.Items))
	case internal.BlockTable:
		if b.Table != nil {
			s = fmt.Sprintf("%d column(s), %d row(s)", len(b.Table.Headers), len(b.Table.Rows))
		}
	default:
		s = b.Text
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if r := []rune(s); len(r) > 60 {
		s = string(r[:57]) + "..."
	}
	return s
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVarP(&inspectFormat, "format", "f", "view", "Output format (view, blocks, json, md)")
	inspectCmd.Flags().StringVar(&inspectStage, "stage", "", "Fallback stage when the response carries none")
	inspectCmd.Flags().BoolVar(&inspectProse, "prose", false, "Expand unrecognized structures into headings instead of JSON")
}
