package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/iksnae/work-scope/internal"
	"github.com/iksnae/work-scope/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Chat(t *testing.T) {
	server := testutil.NewFakeAssistant(t, `{"content": "{\"features\": [\"Login\"]}", "current_stage": "features", "follow_up_question": null}`)
	client := NewClient(server.URL + "/")

	raw, err := client.Chat(context.Background(), internal.ChatRequest{
		SessionID:        "s1",
		UserInput:        "List features",
		DeveloperProfile: "Go dev",
		History:          []internal.HistoryTurn{{Role: "user", Content: "hi"}, {Role: "model", Content: "hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "features", raw.CurrentStage.Str())
	assert.True(t, raw.FollowUpQuestion.IsNull())

	payload := internal.Normalize(raw)
	assert.Equal(t, internal.ShapeFeatureList, internal.Classify(payload.Content).Shape())

	reqs := server.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "/chat", reqs[0].Path)
	assert.Equal(t, "s1", reqs[0].Fields["session_id"])
	assert.Equal(t, "List features", reqs[0].Fields["user_input"])
	assert.Equal(t, "Go dev", reqs[0].Fields["developer_profile"])

	var history []internal.HistoryTurn
	require.NoError(t, json.Unmarshal([]byte(reqs[0].Fields["history"]), &history))
	assert.Equal(t, "model", history[1].Role)
	assert.Empty(t, reqs[0].FileName)
}

func TestClient_ChatWithFile(t *testing.T) {
	server := testutil.NewFakeAssistant(t, `{"content": {"overview": "x", "feature_breakdown": []}, "current_stage": "work_scope"}`)
	client := NewClient(server.URL)

	raw, err := client.Chat(context.Background(), internal.ChatRequest{
		SessionID: "s2",
		File:      &internal.Upload{Name: "brief.pdf", Data: []byte("%PDF-1.4")},
	})
	require.NoError(t, err)
	assert.True(t, raw.Content.IsObject())

	req := server.Requests()[0]
	assert.Equal(t, "brief.pdf", req.FileName)
	assert.Equal(t, []byte("%PDF-1.4"), req.FileData)
	assert.Equal(t, "[]", req.Fields["history"])
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"detail", http.StatusBadRequest, `{"detail": "Only PDF files are supported."}`, "Only PDF files are supported."},
		{"no detail", http.StatusBadGateway, `<html>bad gateway</html>`, "request failed with status: 502"},
		{"null detail", http.StatusInternalServerError, `{"detail": null}`, "request failed with status: 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := testutil.NewFakeAssistant(t, tt.body)
			server.SetReply(tt.status, tt.body)

			_, err := NewClient(server.URL).Chat(context.Background(), internal.ChatRequest{SessionID: "s", UserInput: "x"})
			var apiErr *internal.APIError
			require.True(t, errors.As(err, &apiErr), "error = %v", err)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Error())
		})
	}
}

func TestClient_InvalidBody(t *testing.T) {
	server := testutil.NewFakeAssistant(t, `not json`)
	_, err := NewClient(server.URL).Chat(context.Background(), internal.ChatRequest{UserInput: "x"})
	var parseErr *internal.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestClient_Legacy(t *testing.T) {
	server := testutil.NewFakeAssistant(t, `{"content": "ok", "current_stage": "general_chat"}`)
	client := NewClient(server.URL)
	ctx := context.Background()

	_, err := client.Upload(ctx, "abc", internal.Upload{Name: "a.pdf", Data: []byte("%PDF")}, "junior")
	require.NoError(t, err)
	_, err = client.InitialInput(ctx, "abc", "Build a CRM", "")
	require.NoError(t, err)
	_, err = client.Input(ctx, "abc", "add billing")
	require.NoError(t, err)

	reqs := server.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "/sessions/abc/upload", reqs[0].Path)
	assert.Equal(t, "a.pdf", reqs[0].FileName)
	assert.Equal(t, "junior", reqs[0].Fields["developer_profile"])
	assert.Equal(t, "/sessions/abc/initial-input", reqs[1].Path)
	assert.JSONEq(t, `{"initial_input": "Build a CRM"}`, string(reqs[1].Body))
	assert.Equal(t, "/sessions/abc/input", reqs[2].Path)
	assert.JSONEq(t, `{"user_input": "add billing"}`, string(reqs[2].Body))
}

func TestLegacy_Chat(t *testing.T) {
	server := testutil.NewFakeAssistant(t, `{"content": "ok", "current_stage": "general_chat"}`)
	legacy := NewLegacy(NewClient(server.URL))
	ctx := context.Background()

	_, err := legacy.Chat(ctx, internal.ChatRequest{SessionID: "s1", UserInput: "Build a CRM", DeveloperProfile: "senior"})
	require.NoError(t, err)
	_, err = legacy.Chat(ctx, internal.ChatRequest{
		SessionID: "s1",
		UserInput: "add billing",
		History:   []internal.HistoryTurn{{Role: "user", Content: "Build a CRM"}, {Role: "model", Content: "ok"}},
	})
	require.NoError(t, err)
	_, err = legacy.Chat(ctx, internal.ChatRequest{SessionID: "s2", File: &internal.Upload{Name: "brief.pdf", Data: []byte("%PDF")}})
	require.NoError(t, err)

	reqs := server.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "/sessions/s1/initial-input", reqs[0].Path)
	assert.JSONEq(t, `{"initial_input": "Build a CRM", "developer_profile": "senior"}`, string(reqs[0].Body))
	assert.Equal(t, "/sessions/s1/input", reqs[1].Path)
	assert.Equal(t, "/sessions/s2/upload", reqs[2].Path)
	assert.Equal(t, "brief.pdf", reqs[2].FileName)
}

func TestClient_Health(t *testing.T) {
	server := testutil.NewFakeAssistant(t, `{}`)
	assert.True(t, NewClient(server.URL).Health(context.Background()))

	server.Close()
	assert.False(t, NewClient(server.URL).Health(context.Background()))
}

func TestClient_ImplementsAssistant(t *testing.T) {
	var _ internal.Assistant = NewClient("http://localhost")
}
