package internal

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultStage is used when a response carries no usable stage
	DefaultStage = "general_chat"
	// StageWorkScope is forced when content arrives as a bare list
	StageWorkScope = "work_scope"
)

// RawResponse is a reply as received from the assistant backend. Each field
// keeps its raw JSON value, so content may be a string or any structure.
type RawResponse struct {
	Content          Value `json:"content"`
	CurrentStage     Value `json:"current_stage"`
	FollowUpQuestion Value `json:"follow_up_question"`
}

// RawText wraps a plain string reply
func RawText(s string) RawResponse {
	return RawResponse{Content: StringValue(s)}
}

// ParseRawResponse decodes a backend reply body
func ParseRawResponse(data []byte) (RawResponse, error) {
	var raw RawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawResponse{}, &ParseError{Source: "api", Key: "response", Err: err}
	}
	return raw, nil
}

// UnmarshalJSON accepts an object reply, or any other JSON document which
// is then treated as the content itself.
func (r *RawResponse) UnmarshalJSON(data []byte) error {
	v, ok := ParseValue(string(data))
	if !ok {
		return fmt.Errorf("invalid JSON response")
	}
	*r = RawResponse{}
	if !v.IsObject() || !v.Has("content") {
		r.Content = v
		return nil
	}
	r.Content, _ = v.Get("content")
	r.CurrentStage, _ = v.Get("current_stage")
	r.FollowUpQuestion, _ = v.Get("follow_up_question")
	return nil
}

// NormalizedPayload is the canonical form of an assistant reply
type NormalizedPayload struct {
	Content          Value  `json:"content" yaml:"content"`
	CurrentStage     string `json:"current_stage" yaml:"current_stage"`
	FollowUpQuestion string `json:"follow_up_question,omitempty" yaml:"follow_up_question,omitempty"`
}

// Serialize returns the stored JSON form of the payload
func (p NormalizedPayload) Serialize() string {
	data, err := json.Marshal(p)
	if err != nil {
		LogWarn("Failed to serialize payload: %v", err)
		return ""
	}
	return string(data)
}

// HistoryTurn is one prior message sent back to the backend
type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Upload is a document attached to a request
type Upload struct {
	Name string
	Data []byte
}

// ChatRequest is a single turn sent to the unified chat endpoint
type ChatRequest struct {
	SessionID        string
	UserInput        string
	DeveloperProfile string
	History          []HistoryTurn
	File             *Upload
}
