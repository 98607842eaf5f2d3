package testutil

import (
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// RecordedRequest is a request captured by FakeAssistant
type RecordedRequest struct {
	Method   string
	Path     string
	Fields   map[string]string
	FileName string
	FileData []byte
	Body     []byte
}

// FakeAssistant is an httptest server speaking the assistant backend protocol
type FakeAssistant struct {
	*httptest.Server

	mu       sync.Mutex
	requests []RecordedRequest
	// Status and Body are returned for every non-health request
	Status int
	Body   string
}

// NewFakeAssistant starts a fake backend replying with body to every call
func NewFakeAssistant(t *testing.T, body string) *FakeAssistant {
	t.Helper()
	f := &FakeAssistant{Status: http.StatusOK, Body: body}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.Close)
	return f
}

// Requests returns the requests received so far
func (f *FakeAssistant) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// SetReply changes the status and body of later replies
func (f *FakeAssistant) SetReply(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Status = status
	f.Body = body
}

func (f *FakeAssistant) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/health" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		return
	}

	rec := RecordedRequest{Method: r.Method, Path: r.URL.Path, Fields: map[string]string{}}
	mediaType, params, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		reader := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			if part.FileName() != "" {
				rec.FileName = part.FileName()
				rec.FileData = data
			} else {
				rec.Fields[part.FormName()] = string(data)
			}
		}
	} else {
		rec.Body, _ = io.ReadAll(r.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	status, body := f.Status, f.Body
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
