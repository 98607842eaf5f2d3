package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRepository(t *testing.T) {
	repo := t.TempDir()
	if err := os.Mkdir(filepath.Join(repo, ".git"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo, "go.mod"), []byte("module "+modulePath+"\n\ngo 1.24.0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	binDir := filepath.Join(repo, "bin")
	if err := os.Mkdir(binDir, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := findRepository(filepath.Join(binDir, binaryName))
	if err != nil {
		t.Fatalf("findRepository() error = %v", err)
	}
	if got != repo {
		t.Errorf("findRepository() = %q, want %q", got, repo)
	}
}

func TestIsModuleRepo(t *testing.T) {
	tests := []struct {
		name   string
		gitDir bool
		goMod  string
		want   bool
	}{
		{name: "checkout", gitDir: true, goMod: "module " + modulePath + "\n", want: true},
		{name: "other module", gitDir: true, goMod: "module example.com/other\n", want: false},
		{name: "no git", gitDir: false, goMod: "module " + modulePath + "\n", want: false},
		{name: "empty dir", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.gitDir {
				if err := os.Mkdir(filepath.Join(dir, ".git"), 0755); err != nil {
					t.Fatal(err)
				}
			}
			if tt.goMod != "" {
				if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte(tt.goMod), 0644); err != nil {
					t.Fatal(err)
				}
			}
			if got := isModuleRepo(dir); got != tt.want {
				t.Errorf("isModuleRepo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	dst := filepath.Join(dir, "dst")
	if err := os.WriteFile(src, []byte("new binary"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{name: "valid copy", src: src, wantErr: false},
		{name: "non-existent source", src: filepath.Join(dir, "missing"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := copyFile(tt.src, dst)
			if (err != nil) != tt.wantErr {
				t.Errorf("copyFile() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new binary" {
		t.Errorf("dst = %q, want %q", data, "new binary")
	}
	if _, err := os.Stat(dst + ".new"); !os.IsNotExist(err) {
		t.Error("temporary file should be removed")
	}
}
