package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/iksnae/work-scope/internal"
)

const (
	// DefaultSessionCapacity bounds the legacy per-session histories kept in memory
	DefaultSessionCapacity = 1024
	maxUploadSize          = 32 << 20
)

var fallbackErrorResponse = []byte(`{"detail":"Internal server error"}`)

// legacySession is the server-held conversation of the per-session endpoints
type legacySession struct {
	mu      sync.Mutex
	active  bool
	profile string
	history []internal.HistoryTurn
}

// Server serves the assistant contract over HTTP
type Server struct {
	generator  Generator
	normalizer *internal.Normalizer
	sessions   *lru.Cache[string, *legacySession]
	sessionsMu sync.Mutex
	mux        *http.ServeMux
}

// NewServer creates a server backed by generator
func NewServer(generator Generator) (*Server, error) {
	sessions, err := lru.New[string, *legacySession](DefaultSessionCapacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}
	s := &Server{
		generator:  generator,
		normalizer: internal.NewNormalizer(),
		sessions:   sessions,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /chat", s.handleChat)
	s.mux.HandleFunc("POST /sessions/{id}/upload", s.handleUpload)
	s.mux.HandleFunc("POST /sessions/{id}/initial-input", s.handleInitialInput)
	s.mux.HandleFunc("POST /sessions/{id}/input", s.handleInput)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /{$}", s.handleHealth)
}

// ServeHTTP applies permissive CORS and dispatches to the routes
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "*")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		internal.LogInfo("Backend listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		internal.LogInfo("Shutting down backend")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleChat is the stateless endpoint: the caller sends the history
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form: %v", err))
		return
	}

	sessionID := r.FormValue("session_id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	file, status, err := readPDF(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	message := strings.TrimSpace(r.FormValue("user_input"))
	if message == "" && file == nil {
		writeError(w, http.StatusBadRequest, "No input provided (text or file).")
		return
	}

	req := GenerateRequest{
		SessionID: sessionID,
		History:   parseHistory(r.FormValue("history")),
		UserInput: message,
		Profile:   r.FormValue("developer_profile"),
		File:      file,
	}
	payload, err := s.generate(r.Context(), req)
	if err != nil {
		internal.LogError("Chat error for session %s: %v", sessionID, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, payload)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid form: %v", err))
		return
	}
	file, status, err := readPDF(r)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}
	if file == nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	s.start(w, r, r.FormValue("developer_profile"), "", file)
}

func (s *Server) handleInitialInput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		InitialInput     string `json:"initial_input"`
		DeveloperProfile string `json:"developer_profile"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	text := strings.TrimSpace(body.InitialInput)
	if text == "" {
		writeError(w, http.StatusBadRequest, "Input cannot be empty.")
		return
	}
	s.start(w, r, body.DeveloperProfile, text, nil)
}

// start runs the first turn of a legacy session
func (s *Server) start(w http.ResponseWriter, r *http.Request, profile, text string, file *internal.Upload) {
	id := r.PathValue("id")
	session := s.session(id)
	session.mu.Lock()
	defer session.mu.Unlock()

	if session.active {
		writeError(w, http.StatusConflict, fmt.Sprintf("Session with ID '%s' already has an active workflow.", id))
		return
	}

	req := GenerateRequest{SessionID: id, UserInput: text, Profile: profile, File: file}
	payload, err := s.generate(r.Context(), req)
	if err != nil {
		internal.LogError("Initial turn failed for session %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	userTurn := text
	if file != nil {
		userTurn = strings.TrimSpace(FileNote)
	}
	session.active = true
	session.profile = profile
	session.history = append(session.history,
		internal.HistoryTurn{Role: "user", Content: userTurn},
		internal.HistoryTurn{Role: "model", Content: payload.Content.Text()},
	)
	writeJSONResponse(w, http.StatusOK, payload)
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserInput string `json:"user_input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	id := r.PathValue("id")
	session, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusBadRequest, "No active workflow for this session")
		return
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	if !session.active {
		writeError(w, http.StatusBadRequest, "No active workflow for this session")
		return
	}

	text := strings.TrimSpace(body.UserInput)
	if strings.EqualFold(text, "reset") {
		writeError(w, http.StatusNotImplemented, "Reset functionality not implemented.")
		return
	}
	if text == "" {
		writeError(w, http.StatusBadRequest, "Input cannot be empty.")
		return
	}

	req := GenerateRequest{
		SessionID: id,
		History:   append([]internal.HistoryTurn(nil), session.history...),
		UserInput: text,
		Profile:   session.profile,
	}
	payload, err := s.generate(r.Context(), req)
	if err != nil {
		internal.LogError("Input failed for session %s: %v", id, err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error: %v", err))
		return
	}
	session.history = append(session.history,
		internal.HistoryTurn{Role: "user", Content: text},
		internal.HistoryTurn{Role: "model", Content: payload.Content.Text()},
	)
	writeJSONResponse(w, http.StatusOK, payload)
}

// session returns the legacy session for id, creating it on first use
func (s *Server) session(id string) *legacySession {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	if session, ok := s.sessions.Get(id); ok {
		return session
	}
	session := &legacySession{}
	s.sessions.Add(id, session)
	return session
}

func (s *Server) generate(ctx context.Context, req GenerateRequest) (internal.NormalizedPayload, error) {
	text, err := s.generator.Generate(ctx, req)
	if err != nil {
		return internal.NormalizedPayload{}, err
	}
	payload := s.normalizer.NormalizeModelOutput(text)
	internal.LogDebug("Session %s: reply stage %s", req.SessionID, payload.CurrentStage)
	return payload, nil
}

// readPDF returns the uploaded "file" part, or nil when none was sent
func readPDF(r *http.Request) (*internal.Upload, int, error) {
	if r.MultipartForm == nil {
		return nil, 0, nil
	}
	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	defer f.Close()

	if !internal.IsPDF(header.Filename) {
		return nil, http.StatusBadRequest, errors.New("Only PDF files are supported.")
	}
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read upload: %w", err)
	}
	return &internal.Upload{Name: header.Filename, Data: data}, 0, nil
}

// parseHistory decodes the history field. Anything but a JSON array of
// turns yields an empty history.
func parseHistory(raw string) []internal.HistoryTurn {
	var turns []internal.HistoryTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		if strings.TrimSpace(raw) != "" {
			internal.LogWarn("Ignoring malformed history: %v", err)
		}
		return nil
	}
	return turns
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSONResponse(w, status, map[string]string{"detail": detail})
}

// writeJSONResponse marshals response before any header is written
func writeJSONResponse(w http.ResponseWriter, status int, response any) {
	data, err := json.Marshal(response)
	if err != nil {
		internal.LogError("Failed to marshal response: %v", err)
		data = fallbackErrorResponse
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		internal.LogWarn("Failed to write response: %v", err)
	}
}
