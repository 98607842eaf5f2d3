// Package api is the HTTP client for the assistant backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/iksnae/work-scope/internal"
)

// Client talks to the assistant backend. It enforces no timeout of its own.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
}

// WithHTTPClient replaces the underlying http.Client
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// BaseURL returns the backend address
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Chat sends one turn to the unified endpoint as a multipart form
func (c *Client) Chat(ctx context.Context, req internal.ChatRequest) (internal.RawResponse, error) {
	history := req.History
	if history == nil {
		history = []internal.HistoryTurn{}
	}
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return internal.RawResponse{}, fmt.Errorf("failed to encode history: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := []struct{ name, value string }{
		{"session_id", req.SessionID},
		{"user_input", req.UserInput},
		{"developer_profile", req.DeveloperProfile},
		{"history", string(historyJSON)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return internal.RawResponse{}, err
		}
	}
	if req.File != nil {
		if err := writePDF(w, req.File); err != nil {
			return internal.RawResponse{}, err
		}
	}
	if err := w.Close(); err != nil {
		return internal.RawResponse{}, err
	}

	return c.do(ctx, http.MethodPost, "/chat", w.FormDataContentType(), &body)
}

// Upload sends a document to the legacy per-session upload endpoint
func (c *Client) Upload(ctx context.Context, sessionID string, file internal.Upload, profile string) (internal.RawResponse, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if profile != "" {
		if err := w.WriteField("developer_profile", profile); err != nil {
			return internal.RawResponse{}, err
		}
	}
	if err := writePDF(w, &file); err != nil {
		return internal.RawResponse{}, err
	}
	if err := w.Close(); err != nil {
		return internal.RawResponse{}, err
	}
	return c.do(ctx, http.MethodPost, sessionPath(sessionID, "upload"), w.FormDataContentType(), &body)
}

// InitialInput starts a legacy session from free text
func (c *Client) InitialInput(ctx context.Context, sessionID, text, profile string) (internal.RawResponse, error) {
	payload := struct {
		InitialInput     string `json:"initial_input"`
		DeveloperProfile string `json:"developer_profile,omitempty"`
	}{text, profile}
	return c.postJSON(ctx, sessionPath(sessionID, "initial-input"), payload)
}

// Input continues a legacy session
func (c *Client) Input(ctx context.Context, sessionID, text string) (internal.RawResponse, error) {
	return c.postJSON(ctx, sessionPath(sessionID, "input"), map[string]string{"user_input": text})
}

// Health reports whether the backend answers its liveness check
func (c *Client) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		internal.LogDebug("Health check failed: %v", err)
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (internal.RawResponse, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return internal.RawResponse{}, err
	}
	return c.do(ctx, http.MethodPost, path, "application/json", bytes.NewReader(data))
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (internal.RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return internal.RawResponse{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	internal.LogDebug("%s %s", method, req.URL.String())
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return internal.RawResponse{}, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return internal.RawResponse{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return internal.RawResponse{}, &internal.APIError{Status: resp.StatusCode, Detail: errorDetail(data)}
	}
	return internal.ParseRawResponse(data)
}

// errorDetail reads the "detail" field of an error body
func errorDetail(data []byte) string {
	v, ok := internal.ParseValue(string(data))
	if !ok {
		return ""
	}
	detail, ok := v.Get("detail")
	if !ok || detail.IsNull() {
		return ""
	}
	return detail.Text()
}

func writePDF(w *multipart.Writer, file *internal.Upload) error {
	part, err := w.CreatePart(fileHeader(file.Name))
	if err != nil {
		return err
	}
	_, err = part.Write(file.Data)
	return err
}

func fileHeader(name string) textproto.MIMEHeader {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(name)
	return textproto.MIMEHeader{
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, escaped)},
		"Content-Type":        {"application/pdf"},
	}
}

func sessionPath(sessionID, action string) string {
	return "/sessions/" + url.PathEscape(sessionID) + "/" + action
}
