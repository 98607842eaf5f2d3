package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/work-scope/internal"
	"github.com/spf13/cobra"
)

var (
	verbose     bool
	storagePath string
	apiURL      string
	configPath  string
	version     string = "dev"
	commit      string = "unknown"
	date        string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "work-scope",
	Short: "Turn project documents and conversations into scope-of-work documents",
	Long: `A CLI for building project work scopes with an LLM-backed assistant.

Upload a PDF brief or chat directly with the assistant. Replies are normalized
and rendered as structured views: feature lists, tech stacks, estimation tables
and full scope-of-work documents.

Features:
  • Folder sessions started from an uploaded PDF
  • Direct chat sessions with a per-session developer profile
  • Structured rendering of assistant replies in the terminal
  • Export in multiple formats (Markdown, JSON, JSONL, YAML)
  • A reference Gemini backend (work-scope serve)

Quick Start:
  work-scope upload brief.pdf            # Start a session from a document
  work-scope new                         # Start a direct chat
  work-scope send <session-id> "..."     # Continue a session
  work-scope show <session-id>           # View a session`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage", "", "Session storage (a .db SQLite file or a .json file)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Assistant backend URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.work-scope/config.yaml)")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
