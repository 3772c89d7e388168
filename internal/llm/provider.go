// Package llm talks to the language models that write quizzes. Each vendor
// SDK sits behind Provider; decorators add retries, timeouts and a record of
// every call in the store.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a completion for a Request.
type Provider interface {
	// Generate sends req to the model. When req.Schema is set the provider
	// asks for structured output and Response.Content is JSON that has
	// already been validated against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the configured model, before any gateway aliasing.
	ModelID() string
}

// Request is a single-turn or short multi-turn prompt.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, constrains the reply to a JSON document.
	Schema *Schema

	MaxTokens int

	// Temperature in [0, 1]. Zero leaves the provider default.
	Temperature float64
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserRequest builds the common system-plus-one-user-message request.
func UserRequest(system, user string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: user}},
	}
}

// Schema is a JSON Schema for structured output. Name is kebab-case and is
// sent to providers that want one, e.g. "lesson-quiz-3q-4o".
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is a model reply.
type Response struct {
	Content json.RawMessage
	Usage   Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is "end" or "max_tokens".
	StopReason string
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
