// internal/models/conversation.go
package models

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of a follow-up thread.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationThread is the follow-up history of one comparison, together with a
// snapshot of the comparison it is grounded on.
type ConversationThread struct {
	ComparisonID string         `json:"comparison_id"`
	Category     Category       `json:"category"`
	Items        []string       `json:"items"`
	Result       ResultDocument `json:"result"`
	Messages     []Message      `json:"messages"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (t ConversationThread) Clone() ConversationThread {
	out := t
	out.Items = append([]string(nil), t.Items...)
	out.Messages = append([]Message(nil), t.Messages...)
	out.Result = t.Result.Outcome().Document()
	return out
}
