package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/iksnae/work-scope/internal"
	"github.com/spf13/cobra"
)

const (
	modulePath = "github.com/iksnae/work-scope"
	binaryName = "work-scope"
)

var (
	upgradeRef        string
	upgradeFromSource bool
)

var upgradeCmd = &cobra.Command{
	Use:   "upgrade",
	Short: "Upgrade work-scope to the latest version",
	Long: `Upgrade work-scope with 'go install', or rebuild it from a local
checkout with --from-source.

From source, this command will:
1. Find the repository (current directory or next to the binary)
2. Pull latest changes from git
3. Rebuild the binary
4. Replace the running binary`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := exec.LookPath("go"); err != nil {
			return errors.New("go is not installed or not in PATH")
		}

		currentBinary, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get current binary path: %w", err)
		}
		if realPath, err := filepath.EvalSymlinks(currentBinary); err == nil {
			currentBinary = realPath
		}
		internal.LogInfo("Current binary location: %s", currentBinary)

		if !upgradeFromSource {
			target := modulePath + "@" + upgradeRef
			internal.LogInfo("Installing %s...", target)
			if err := run(cmd, "", "go", "install", target); err != nil {
				return fmt.Errorf("go install failed: %w", err)
			}
			internal.PrintSuccess("Upgrade installed to your Go bin directory")
			return nil
		}

		repoPath, err := findRepository(currentBinary)
		if err != nil {
			return fmt.Errorf("%w\n\nRun from your checkout, or upgrade with:\n  go install %s@latest", err, modulePath)
		}
		internal.LogInfo("Found repository at: %s", repoPath)

		if _, err := exec.LookPath("git"); err != nil {
			return errors.New("git is not installed or not in PATH")
		}
		if out, err := exec.Command("git", "-C", repoPath, "remote").Output(); err != nil || len(out) == 0 {
			internal.LogWarn("No git remote configured. Skipping pull.")
		} else if err := run(cmd, repoPath, "git", "pull"); err != nil {
			return fmt.Errorf("failed to pull latest changes: %w", err)
		}

		internal.LogInfo("Building new binary...")
		built := filepath.Join(repoPath, binaryName)
		if err := run(cmd, repoPath, "go", "build", "-buildvcs=false", "-o", built, "."); err != nil {
			return fmt.Errorf("failed to build binary: %w", err)
		}

		internal.LogInfo("Installing to %s...", currentBinary)
		if err := copyFile(built, currentBinary); err != nil {
			return fmt.Errorf("failed to install binary: %w", err)
		}
		if err := os.Chmod(currentBinary, 0755); err != nil {
			return fmt.Errorf("failed to make binary executable: %w", err)
		}

		output, err := exec.Command(currentBinary, "--version").Output()
		if err != nil {
			internal.LogWarn("Installation completed but verification failed: %v", err)
			return nil
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "New version: %s", output)
		return nil
	},
}

// run executes name in dir, streaming its output to the command's writers
func run(cmd *cobra.Command, dir, name string, args ...string) error {
	c := exec.CommandContext(commandContext(cmd), name, args...)
	c.Dir = dir
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()
	return c.Run()
}

// findRepository looks for a work-scope checkout in the working directory,
// then in the directories above the binary.
func findRepository(binary string) (string, error) {
	if cwd, err := os.Getwd(); err == nil && isModuleRepo(cwd) {
		return cwd, nil
	}

	dir := filepath.Dir(binary)
	for i := 0; i < 10; i++ {
		if isModuleRepo(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.New("could not find a work-scope repository")
}

// isModuleRepo reports whether path is a git checkout of this module
func isModuleRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	if err != nil || !info.IsDir() {
		return false
	}
	data, err := os.ReadFile(filepath.Join(path, "go.mod"))
	if err != nil {
		return false
	}
	first, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(first) == "module "+modulePath
}

// copyFile replaces dst with the contents of src
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".new"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func init() {
	rootCmd.AddCommand(upgradeCmd)
	upgradeCmd.Flags().StringVar(&upgradeRef, "ref", "latest", "Version or branch to install")
	upgradeCmd.Flags().BoolVar(&upgradeFromSource, "from-source", false, "Rebuild from a local git checkout")
}
