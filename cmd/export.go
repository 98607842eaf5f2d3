package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/export"
	"github.com/spf13/cobra"
)

var (
	format      string
	outputDir   string
	sessionID   string
	exportType  string
	exportProse bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sessions to file",
	Long: `Export sessions to various formats (md, json, jsonl, yaml).

You can export all sessions, only folders or chats, or a specific session by ID.
Use 'work-scope list' to see available session IDs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Create exporter
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}
		if md, ok := exporter.(*export.MarkdownExporter); ok {
			md.Prose = exportProse
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var sessions internal.Collection
		switch {
		case sessionID != "":
			session, err := a.store.Resolve(sessionID)
			if err != nil {
				return fmt.Errorf("%w (use 'work-scope list' to see available sessions)", err)
			}
			sessions = internal.Collection{session}
		case exportType == string(internal.SessionTypeFolder):
			sessions, err = a.store.Folders()
		case exportType == string(internal.SessionTypeChat):
			sessions, err = a.store.Chats()
		default:
			sessions, err = a.store.List()
		}
		if err != nil {
			return err
		}

		// Ensure output directory exists
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		err = internal.ShowProgress(commandContext(cmd), fmt.Sprintf("Exporting %d session(s) to %s", len(sessions), outputDir), func() error {
			for i := range sessions {
				if err := exportSession(exporter, &sessions[i], outputDir); err != nil {
					internal.LogError("%v", err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}

		internal.PrintSuccess(fmt.Sprintf("Export complete: %d session(s) exported to %s", exported, outputDir))
		if exported < len(sessions) {
			return fmt.Errorf("%d session(s) failed to export", len(sessions)-exported)
		}
		return nil
	},
}

func exportSession(exporter export.Exporter, session *internal.Session, dir string) error {
	filename := fmt.Sprintf("session_%s.%s", session.ID, exporter.Extension())
	path := filepath.Join(dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}

	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "md", "Export format (md, json, jsonl, yaml)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a specific session by ID")
	exportCmd.Flags().StringVar(&exportType, "type", "all", "Session type to export (folder, chat, all)")
	exportCmd.Flags().BoolVar(&exportProse, "prose", false, "Markdown: expand unrecognized structures into headings")
}
