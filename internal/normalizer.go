package internal

import (
	"regexp"
	"strings"
)

var fencedJSON = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")

// Normalizer converts loosely structured assistant replies into NormalizedPayload
type Normalizer struct{}

// NewNormalizer creates a new Normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts a backend reply. It never fails: anything that cannot
// be parsed is kept as text content.
func (n *Normalizer) Normalize(raw RawResponse) NormalizedPayload {
	stage := DefaultStage
	if !raw.CurrentStage.IsBlankString() {
		stage = raw.CurrentStage.Str()
	}

	var payload NormalizedPayload
	if !raw.Content.IsString() {
		payload = n.fromParsed(raw.Content, stage)
	} else {
		payload = n.fromText(raw.Content.Str(), stage)
	}

	if payload.FollowUpQuestion == "" {
		payload.FollowUpQuestion = followUpText(raw.FollowUpQuestion)
	}
	payload.FollowUpQuestion = n.collapseFollowUp(payload.FollowUpQuestion)
	return payload
}

// NormalizeText normalizes raw model output with the given fallback stage
func (n *Normalizer) NormalizeText(text, fallbackStage string) NormalizedPayload {
	if strings.TrimSpace(fallbackStage) == "" {
		fallbackStage = DefaultStage
	}
	payload := n.fromText(text, fallbackStage)
	payload.FollowUpQuestion = n.collapseFollowUp(payload.FollowUpQuestion)
	return payload
}

// NormalizeStored re-parses the content of a persisted message
func (n *Normalizer) NormalizeStored(content string) NormalizedPayload {
	if v, ok := parseJSON(content); ok {
		payload := n.fromParsed(v, DefaultStage)
		payload.FollowUpQuestion = n.collapseFollowUp(payload.FollowUpQuestion)
		return payload
	}
	return NormalizedPayload{Content: StringValue(content), CurrentStage: DefaultStage}
}

// DisplayText returns the text form of a stored message, as sent back to
// the backend in conversation history.
func (n *Normalizer) DisplayText(content string) string {
	return n.NormalizeStored(content).Content.Text()
}

// NormalizeModelOutput normalizes text produced by the model on the backend.
// Structured output defaults to the work_scope stage, prose to general_chat.
func (n *Normalizer) NormalizeModelOutput(text string) NormalizedPayload {
	v, ok := parseJSON(strings.TrimSpace(text))
	if !ok {
		v, ok = extractJSON(text)
	}
	if !ok {
		return NormalizedPayload{Content: StringValue(text), CurrentStage: DefaultStage}
	}
	stage := DefaultStage
	if v.IsObject() || v.IsArray() {
		stage = StageWorkScope
	}
	payload := n.fromParsed(v, stage)
	payload.FollowUpQuestion = n.collapseFollowUp(payload.FollowUpQuestion)
	return payload
}

func (n *Normalizer) fromText(text, stage string) NormalizedPayload {
	text, stage = validUTF8(text), validUTF8(stage)
	if v, ok := parseJSON(strings.TrimSpace(text)); ok {
		return n.fromParsed(v, stage)
	}
	if v, ok := extractJSON(text); ok {
		return n.fromParsed(v, stage)
	}
	LogDebug("Reply is not JSON, keeping it as text (%d bytes)", len(text))
	return NormalizedPayload{Content: StringValue(text), CurrentStage: stage}
}

// fromParsed applies the stage and content rules to a parsed value
func (n *Normalizer) fromParsed(v Value, stage string) NormalizedPayload {
	switch v.Kind() {
	case KindObject:
		payload := NormalizedPayload{Content: v, CurrentStage: stage}
		if s, ok := v.Get("current_stage"); ok && !s.IsBlankString() {
			payload.CurrentStage = s.Str()
		}
		if f, ok := v.Get("follow_up_question"); ok {
			payload.FollowUpQuestion = followUpText(f)
		}
		if content, ok := v.Get("content"); ok {
			payload.Content = content
		}
		return payload
	case KindArray:
		return NormalizedPayload{Content: v, CurrentStage: StageWorkScope}
	default:
		return NormalizedPayload{Content: v, CurrentStage: stage}
	}
}

// collapseFollowUp joins a follow-up of the form ["a","b"] into "a b"
func (n *Normalizer) collapseFollowUp(followUp string) string {
	trimmed := strings.TrimSpace(followUp)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return followUp
	}
	v, ok := ParseValue(trimmed)
	if !ok || !v.IsArray() {
		LogWarn("Failed to parse follow-up question list: %q", followUp)
		return followUp
	}
	joined, ok := joinStrings(v)
	if !ok {
		LogWarn("Follow-up question list holds non-string items: %q", followUp)
		return followUp
	}
	return joined
}

// followUpText reads a follow-up that is a non-blank string or a list of strings
func followUpText(v Value) string {
	if v.IsString() {
		if strings.TrimSpace(v.Str()) == "" {
			return ""
		}
		return v.Str()
	}
	if v.IsArray() {
		if joined, ok := joinStrings(v); ok && strings.TrimSpace(joined) != "" {
			return joined
		}
	}
	return ""
}

func joinStrings(v Value) (string, bool) {
	parts := make([]string, 0, v.Len())
	for _, item := range v.Items() {
		if !item.IsString() {
			return "", false
		}
		parts = append(parts, item.Str())
	}
	return strings.Join(parts, " "), true
}

// parseJSON parses s, treating a JSON null as a failed parse
func parseJSON(s string) (Value, bool) {
	v, ok := ParseValue(s)
	if !ok || v.IsNull() {
		return Value{}, false
	}
	return v, true
}

// extractJSON finds JSON embedded in prose: a fenced block first, then the
// span between the first '{' and the last '}'.
func extractJSON(text string) (Value, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil && m[1] != "" {
		if v, ok := parseJSON(strings.TrimSpace(m[1])); ok {
			return v, true
		}
	}
	first := strings.Index(text, "{")
	last := strings.LastIndex(text, "}")
	if first != -1 && last > first {
		return parseJSON(text[first : last+1])
	}
	return Value{}, false
}

var defaultNormalizer = NewNormalizer()

// Normalize converts a backend reply using the default Normalizer
func Normalize(raw RawResponse) NormalizedPayload {
	return defaultNormalizer.Normalize(raw)
}

// NormalizeText normalizes raw model output using the default Normalizer
func NormalizeText(text, fallbackStage string) NormalizedPayload {
	return defaultNormalizer.NormalizeText(text, fallbackStage)
}

// NormalizeStored re-parses a persisted message using the default Normalizer
func NormalizeStored(content string) NormalizedPayload {
	return defaultNormalizer.NormalizeStored(content)
}

// DisplayText returns the history text of a stored message
func DisplayText(content string) string {
	return defaultNormalizer.DisplayText(content)
}
