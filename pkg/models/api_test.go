package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastUserPrompt(t *testing.T) {
	req := AssistantRequest{
		Messages: []APIMessage{
			{Role: "user", Content: []ContentPart{{Type: "text", Text: "first question"}}},
			{Role: "assistant", Content: []ContentPart{{Type: "text", Text: "an answer"}}},
			{Role: "user", Content: []ContentPart{
				{Type: "text", Text: "follow"},
				{Type: "text", Text: "-up"},
			}},
		},
	}
	assert.Equal(t, "follow-up", req.LastUserPrompt())
}

func TestLastUserPrompt_SkipsEmptyAndNonText(t *testing.T) {
	req := AssistantRequest{
		Messages: []APIMessage{
			{Role: "user", Content: []ContentPart{{Type: "text", Text: "real question"}}},
			{Role: "user", Content: []ContentPart{{Type: "image", Text: ""}}},
		},
	}
	assert.Equal(t, "real question", req.LastUserPrompt())
}

func TestLastUserPrompt_NoUserMessage(t *testing.T) {
	req := AssistantRequest{
		Messages: []APIMessage{
			{Role: "system", Content: []ContentPart{{Type: "text", Text: "be helpful"}}},
		},
	}
	assert.Empty(t, req.LastUserPrompt())
}
