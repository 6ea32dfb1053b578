package models

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage represents a single message in a conversation. Messages are
// created once and never mutated.
type ChatMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"` // epoch millis
}

// NewChatMessage stamps a message with the current time.
func NewChatMessage(role Role, content string) ChatMessage {
	return ChatMessage{Role: role, Content: content, Timestamp: time.Now().UnixMilli()}
}

// ChatRequest is the payload sent to the relay. History is accepted for
// compatibility but the relay answers each prompt on its own.
type ChatRequest struct {
	Prompt  string        `json:"prompt"`
	Lang    Language      `json:"lang"`
	History []ChatMessage `json:"history,omitempty"`
}

// ChatResponse is the relay's reply.
type ChatResponse struct {
	Response string `json:"response"`
}
