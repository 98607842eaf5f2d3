package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/work-scope/internal"
	"github.com/spf13/cobra"
)

var (
	newProfile    string
	uploadProfile string
	uploadLegacy  bool
	sendLegacy    bool
	deleteForce   bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Start a new chat session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.useProfile(newProfile, false)
		session, err := a.chat.NewChat(commandContext(cmd))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.ID)
		internal.LogInfo("Created chat session %s", session.ID)
		return nil
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Start a session from a PDF document",
	Long: `Upload a PDF to the assistant backend and start a folder session
named after the file. The first reply is shown when it arrives.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !internal.IsPDF(path) {
			return fmt.Errorf("%w: %s", internal.ErrUnsupportedFile, filepath.Base(path))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.useProfile(uploadProfile, uploadLegacy)

		var session internal.Session
		ctx := commandContext(cmd)
		name := filepath.Base(path)
		err = internal.ShowProgressWithSteps(ctx, []internal.ProgressStep{
			{
				Message: fmt.Sprintf("Checking %s", name),
				Fn: func() error {
					if !bytes.HasPrefix(data, []byte("%PDF")) {
						internal.LogWarn("%s does not start with a PDF header", name)
					}
					return nil
				},
			},
			{
				Message: fmt.Sprintf("Analyzing %s", name),
				Fn: func() error {
					var uploadErr error
					session, uploadErr = a.chat.Upload(ctx, path, data)
					return uploadErr
				},
			},
		})
		if err != nil {
			return err
		}

		return printLastReply(cmd, a, session)
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <session-id> <message|->",
	Short: "Send a message to a session",
	Long: `Send a message and show the assistant's reply. Use "-" to read the
message from stdin. When the request fails the message stays in the session.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readText(args[1], cmd.InOrStdin())
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		session, err := a.store.Resolve(args[0])
		if err != nil {
			return err
		}
		a.useProfile("", sendLegacy)

		ctx := commandContext(cmd)
		err = internal.ShowProgress(ctx, "Waiting for the assistant", func() error {
			var sendErr error
			session, sendErr = a.chat.Send(ctx, session.ID, text)
			return sendErr
		})
		if err != nil {
			if errors.Is(err, internal.ErrEmptyInput) {
				return err
			}
			return fmt.Errorf("%w (your message was saved; send again to retry)", err)
		}

		return printLastReply(cmd, a, session)
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <session-id> [profile|-]",
	Short: "Show or set a session's developer profile",
	Long: `The developer profile (for example "Senior Go developer, 6 years")
is sent with every turn and tailors technology choices and estimates.`,
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
		if len(args) == 1 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), session.DeveloperProfile)
			return nil
		}

		profile, err := readText(args[1], cmd.InOrStdin())
		if err != nil {
			return err
		}
		if _, err := a.chat.UpdateProfile(commandContext(cmd), session.ID, profile); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Developer profile updated for %s", session.Name))
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <session-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session",
	Args:    cobra.ExactArgs(1),
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
		if !deleteForce && session.ID != args[0] {
			return fmt.Errorf("refusing to delete %s (%s) by prefix; pass the full id or --force", session.ID, session.Name)
		}
		if err := a.chat.Delete(commandContext(cmd), session.ID); err != nil {
			return err
		}
		internal.PrintSuccess(fmt.Sprintf("Deleted session %s (%s)", shortID(session.ID), session.Name))
		return nil
	},
}

// printLastReply renders the newest message of session
func printLastReply(cmd *cobra.Command, a *app, session internal.Session) error {
	msg, ok := session.Last()
	if !ok {
		return nil
	}
	v, err := newMessageView(a.cfg.Glamour || showGlamour)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintln(out, sessionMetaStyle.Render(fmt.Sprintf("Session %s • %s", session.ID, session.Name)))
	v.display(out, 0, 0, msg)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.AddCommand(newCmd, uploadCmd, sendCmd, profileCmd, deleteCmd)
	newCmd.Flags().StringVar(&newProfile, "profile", "", "Developer profile for the session")
	uploadCmd.Flags().StringVar(&uploadProfile, "profile", "", "Developer profile for the session")
	uploadCmd.Flags().BoolVar(&uploadLegacy, "legacy", false, "Use the per-session endpoints (backend keeps the conversation)")
	sendCmd.Flags().BoolVar(&sendLegacy, "legacy", false, "Use the per-session endpoints (backend keeps the conversation)")
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Allow deleting by id prefix")
}
