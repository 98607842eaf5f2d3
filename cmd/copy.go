package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/render"
	"github.com/spf13/cobra"
)

var (
	copyPrint bool
	copyProse bool
)

var copyCmd = &cobra.Command{
	Use:   "copy <session-id> [message]",
	Short: "Copy a message to the clipboard as plain text",
	Long: `Copy the plain-text rendering of a message to the clipboard.

Without a message argument the last message of the session is copied.
Use --print to write the text to stdout instead.`,
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

		var msg internal.Message
		var ok bool
		if len(args) == 2 {
			msg, ok = session.FindMessage(args[1])
		} else {
			msg, ok = session.Last()
		}
		if !ok {
			return fmt.Errorf("no message to copy in session %s", shortID(session.ID))
		}

		text := render.Plain(internal.MessageBlocks(msg, internal.ViewOptions{Prose: copyProse}))
		out := cmd.OutOrStdout()

		if copyPrint || clipboard.Unsupported {
			if !copyPrint {
				internal.PrintWarning("Clipboard is not available, printing instead")
			}
			_, _ = fmt.Fprintln(out, text)
			return nil
		}
		if err := clipboard.WriteAll(text); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		_, _ = fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Copied %d characters", len([]rune(text)))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().BoolVar(&copyPrint, "print", false, "Print instead of copying")
	copyCmd.Flags().BoolVar(&copyProse, "prose", false, "Expand unrecognized structures into headings instead of JSON")
}
