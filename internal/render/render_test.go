package render

import (
	"strings"
	"testing"

	"github.com/iksnae/work-scope/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scopeBlocks() []internal.Block {
	payload := internal.NormalizedPayload{
		Content: internal.MustParseValue(`{
			"overview": "Build a **CRM**.",
			"effort_estimation_table": {"headers": ["Task", "Hours"], "rows": [["Design", "10"], ["Build | test", "5"]]}
		}`),
		CurrentStage:     "work_scope",
		FollowUpQuestion: "Is the timeline fixed?",
	}
	return internal.PayloadBlocks(payload, internal.ViewOptions{})
}

func TestMarkdown(t *testing.T) {
	want := strings.Join([]string{
		"## Overview",
		"",
		"Build a **CRM**.",
		"",
		"## Effort Estimation Table",
		"",
		"| Task | Hours |",
		"| --- | --- |",
		"| Design | 10 |",
		`| Build \| test | 5 |`,
		"| **Total** | **15** |",
		"",
		"**Follow-up Question**",
		"",
		"> Is the timeline fixed?",
	}, "\n")
	assert.Equal(t, want, Markdown(scopeBlocks()))
}

func TestMarkdown_DevelopmentSummary(t *testing.T) {
	content := internal.MustParseValue(`{"overview": "o", "development_estimation": {"headers": ["Module", "Frontend", "Backend"], "rows": [["Auth", "4", "6"]]}}`)
	out := Markdown(internal.Classify(content).Blocks())
	assert.Contains(t, out, "- **Frontend:** 4\n- **Backend:** 6\n- **Total:** 10")
}

func TestMarkdown_FeatureListAndDump(t *testing.T) {
	list := internal.Classify(internal.MustParseValue(`{"features": ["Login", "**Payments**"]}`)).Blocks()
	assert.Equal(t, "- Login\n- **Payments**", Markdown(list))

	dump := internal.Classify(internal.MustParseValue(`["a"]`)).Blocks()
	assert.Equal(t, "```json\n[\"a\"]\n```", Markdown(dump))
}

func TestPlain(t *testing.T) {
	out := Plain(scopeBlocks())
	assert.NotContains(t, out, "**")
	assert.Contains(t, out, "Build a CRM.")
	assert.Contains(t, out, "Follow-up Question: Is the timeline fixed?")

	lines := strings.Split(out, "\n")
	var tableLines []string
	for _, l := range lines {
		if strings.HasPrefix(l, "Task") || strings.HasPrefix(l, "Design") || strings.HasPrefix(l, "Total") {
			tableLines = append(tableLines, l)
		}
	}
	require.Len(t, tableLines, 3)
	assert.Equal(t, []string{"Task", "Hours"}, strings.Fields(tableLines[0]))
	assert.Equal(t, []string{"Total", "15"}, strings.Fields(tableLines[2]))
	assert.Equal(t, strings.Index(tableLines[0], "Hours"), strings.Index(tableLines[2], "15"), "columns should align")
}

func TestPlain_UserMessage(t *testing.T) {
	msg := internal.NewUserMessage("keep **these** stars", internal.CreateTestTime())
	assert.Equal(t, "keep **these** stars", Plain(internal.MessageBlocks(msg, internal.ViewOptions{})))
}

func TestTerminal(t *testing.T) {
	term, err := NewTerminal(60, false)
	require.NoError(t, err)

	out := term.Render(scopeBlocks())
	for _, want := range []string{"Overview", "CRM", "Design", "Total", "15", "Follow-up Question", "Is the timeline fixed?"} {
		assert.Contains(t, out, want)
	}
}

func TestTerminal_Markdown(t *testing.T) {
	term, err := NewTerminal(80, true)
	require.NoError(t, err)

	out := term.Render(internal.Classify(internal.MustParseValue(`{"features": ["Login", "Payments"]}`)).Blocks())
	assert.Contains(t, out, "Login")
	assert.Contains(t, out, "Payments")
}
