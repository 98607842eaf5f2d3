package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/backend"
	"github.com/spf13/cobra"
)

var (
	serveHost  string
	servePort  string
	serveModel string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reference assistant backend",
	Long: `Run an assistant backend that answers the chat protocol with Gemini.

Requires GEMINI_API_KEY (from the environment or a .env file). Serves:
  POST /chat                          stateless chat with client-held history
  POST /sessions/{id}/upload          start a session from a PDF
  POST /sessions/{id}/initial-input   start a session from text
  POST /sessions/{id}/input           continue a session
  GET  /health                        liveness`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveHost != "" {
			cfg.Host = serveHost
		}
		if servePort != "" {
			cfg.Port = servePort
		}
		if serveModel != "" {
			cfg.Model = serveModel
		}
		if cfg.GeminiAPIKey == "" {
			return errors.New("GEMINI_API_KEY is not set")
		}

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		generator, err := backend.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			return err
		}
		server, err := backend.NewServer(generator)
		if err != nil {
			return err
		}

		internal.LogInfo("Using model %s", generator.Model())
		if err := server.ListenAndServe(ctx, cfg.Addr()); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default 0.0.0.0)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Listen port (default 8000)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "Gemini model name")
}
