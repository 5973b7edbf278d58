// internal/pipeline/conversation-memory/models.go
package conversationmemory

import (
	"context"

	"compair/internal/models"
	promptcomposer "compair/internal/pipeline/prompt-composer"
)

// Composer renders the follow-up prompt for a thread.
type Composer interface {
	ComposeForFollowup(thread models.ConversationThread, question string) promptcomposer.Prompt
}

// Answerer produces the plain-text answer for a follow-up prompt.
type Answerer interface {
	Answer(ctx context.Context, prompt promptcomposer.Prompt) (string, error)
}

// Reply is the answer plus the thread history including the new turn pair.
type Reply struct {
	ComparisonID string
	Answer       string
	History      []models.Message
}
