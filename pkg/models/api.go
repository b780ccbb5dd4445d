package models

import "strings"

// ContentPart is one fragment of an AI SDK message body.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// APIMessage is one entry of a conversation history in AI SDK format.
type APIMessage struct {
	Role    string        `json:"role" binding:"required"`
	Content []ContentPart `json:"content"`
}

// Text concatenates the message's text parts.
func (m APIMessage) Text() string {
	var b strings.Builder
	for _, part := range m.Content {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// AssistantRequest is the body of POST /v2/assistant.
type AssistantRequest struct {
	Messages     []APIMessage `json:"messages" binding:"required"`
	Mode         string       `json:"mode,omitempty"`
	EnabledTools []string     `json:"enabled_tools,omitempty"`
}

// LastUserPrompt returns the text of the most recent user message, or an
// empty string when the history has none.
func (r AssistantRequest) LastUserPrompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			if text := r.Messages[i].Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// ChatMessage is one OpenAI-format history entry.
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required"`
}

// FileRequest addresses a file beneath one of the sandbox roots.
type FileRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content,omitempty"`
	Append  bool   `json:"append,omitempty"`
}

// ErrorResponse is the uniform error body for API failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
