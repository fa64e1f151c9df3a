package types

import "time"

type MessageRole string

const (
	MessageRoleUser  MessageRole = "user"
	MessageRoleAgent MessageRole = "agent"
)

type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	// ToolsUsed is populated from the push channel, never from the reply
	// body.
	ToolsUsed []string `json:"tools_used,omitempty"`
}
