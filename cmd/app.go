package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/internal/api"
	"github.com/iksnae/work-scope/internal/config"
)

// app holds the wired components shared by the session commands
type app struct {
	cfg    *config.Config
	store  *internal.Store
	client *api.Client
	chat   *internal.ChatService
	close  func() error
}

// loadConfig resolves settings, letting command line flags win
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if storagePath != "" {
		cfg.Storage = storagePath
	}
	if apiURL != "" {
		cfg.APIURL = strings.TrimRight(apiURL, "/")
	}
	return cfg, nil
}

func openApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	persistence, closeFn, err := openPersistence(cfg.Storage)
	if err != nil {
		return nil, err
	}

	store := internal.NewStore(persistence)
	client := api.NewClient(cfg.APIURL)
	internal.LogDebug("Using storage %s and backend %s", cfg.Storage, cfg.APIURL)

	return &app{
		cfg:    cfg,
		store:  store,
		client: client,
		chat:   internal.NewChatService(store, client, cfg.DeveloperProfile),
		close:  closeFn,
	}, nil
}

// useProfile rebuilds the chat service for profile. With legacy set the
// turns go through the per-session endpoints, where the backend keeps the
// conversation.
func (a *app) useProfile(profile string, legacy bool) {
	if profile == "" {
		profile = a.cfg.DeveloperProfile
	}
	var assistant internal.Assistant = a.client
	if legacy {
		assistant = api.NewLegacy(a.client)
	}
	a.chat = internal.NewChatService(a.store, assistant, profile)
}

func (a *app) Close() {
	if a.close == nil {
		return
	}
	if err := a.close(); err != nil {
		internal.LogWarn("Failed to close storage: %v", err)
	}
}

// openPersistence picks the backend from the file extension: .json files
// use FilePersistence, anything else is a SQLite database.
func openPersistence(path string) (internal.Persistence, func() error, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, &internal.StorageError{Path: path, Op: "open", Err: err}
		}
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return internal.NewFilePersistence(path), nil, nil
	}
	p, err := internal.OpenSQLitePersistence(path)
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}

// readText returns arg, or all of stdin when arg is "-"
func readText(arg string, stdin io.Reader) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
