package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/api"
	"github.com/spf13/cobra"
)

var (
	healthcheckVerbose bool
	healthcheckTimeout time.Duration
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that sessions and the assistant backend are reachable",
	Long: `Check the health of work-scope by verifying:
  • Configuration loading
  • Session storage accessibility and session count
  • Preserved copies of unreadable session data
  • Assistant backend liveness (GET /health)

This command is useful for debugging setup issues, especially in CI/CD environments.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		println := func(a ...any) { _, _ = fmt.Fprintln(out, a...) }

		println(sectionStyle.Render("🔍 Work Scope Health Check"))
		println()

		// Step 1: Configuration
		println(infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := loadConfig()
		if err != nil {
			println(errorStyle.Render("❌ Failed to load configuration:"), err)
			return err
		}
		println(successStyle.Render("✅ Configuration loaded"))
		if healthcheckVerbose {
			_, _ = fmt.Fprintf(out, "   Storage: %s\n", cfg.Storage)
			_, _ = fmt.Fprintf(out, "   Backend: %s\n", cfg.APIURL)
			_, _ = fmt.Fprintf(out, "   Profile: %s\n", valueOrDash(cfg.DeveloperProfile))
		}
		println()

		// Step 2: Storage
		println(infoStyle.Render("Step 2: Checking session storage..."))
		if healthcheckVerbose {
			if paths, err := internal.DetectDataPaths(); err == nil {
				stores, _ := paths.FindSessionStores()
				_, _ = fmt.Fprintf(out, "   Data directory: %s (%d store(s))\n", paths.Dir, len(stores))
				for _, store := range stores {
					_, _ = fmt.Fprintf(out, "     %s\n", store)
				}
			}
		}
		sessionCount, storageErr := checkStorage(out, cfg.Storage)
		if storageErr != nil {
			println(errorStyle.Render("❌ Session storage is not accessible:"), storageErr)
		} else {
			println(successStyle.Render(fmt.Sprintf("✅ Found %d session(s)", sessionCount)))
		}
		println()

		// Step 3: Backend
		println(infoStyle.Render("Step 3: Checking assistant backend..."))
		ctx, cancel := context.WithTimeout(commandContext(cmd), healthcheckTimeout)
		defer cancel()
		backendOK := api.NewClient(cfg.APIURL).Health(ctx)
		if backendOK {
			println(successStyle.Render("✅ Backend is up at " + cfg.APIURL))
		} else {
			println(errorStyle.Render("❌ Backend did not answer at " + cfg.APIURL))
			if healthcheckVerbose {
				println("   Start one with `work-scope serve` or pass --api-url")
			}
		}
		println()

		// Summary
		println(sectionStyle.Render("📊 Summary"))
		println()

		switch {
		case storageErr == nil && backendOK:
			println(successStyle.Render("✅ Health check passed!"))
			return nil
		case storageErr == nil:
			println(warningStyle.Render("⚠️  Sessions are available but the backend is unreachable"))
			return errors.New("health check failed: backend unreachable")
		default:
			println(errorStyle.Render("❌ Health check failed"))
			return fmt.Errorf("health check failed: %w", storageErr)
		}
	},
}

// checkStorage counts the stored sessions and reports preserved corrupt
// copies. It never writes to the store.
func checkStorage(out io.Writer, path string) (int, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  Storage does not exist yet; it is created on first use"))
		return 0, nil
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		if _, err := os.Stat(path + ".corrupt"); err == nil {
			_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  A corrupt copy was preserved at "+path+".corrupt"))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, &internal.StorageError{Path: path, Op: "load", Err: err}
		}
		return countSessions(path, data)
	}

	db, err := internal.OpenDatabaseReadOnly(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = db.Close() }()

	pairs, err := internal.QueryKV(db, internal.StorageKey+"%")
	if err != nil {
		return 0, err
	}
	var raw string
	for _, pair := range pairs {
		if pair.Key == internal.StorageKey {
			raw = pair.Value
			continue
		}
		_, _ = fmt.Fprintln(out, warningStyle.Render("⚠️  A corrupt copy was preserved under key "+pair.Key))
	}
	return countSessions(path, []byte(raw))
}

func countSessions(path string, data []byte) (int, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return 0, nil
	}
	sessions, err := internal.DecodeCollection(data)
	if err != nil {
		return 0, &internal.StorageError{Path: path, Op: "load", Err: fmt.Errorf("stored sessions are malformed: %w", err)}
	}
	return len(sessions), nil
}

func valueOrDash(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVarP(&healthcheckVerbose, "verbose", "v", false, "Show detailed diagnostic information")
	healthcheckCmd.Flags().DurationVar(&healthcheckTimeout, "timeout", 5*time.Second, "Backend check timeout")
}
