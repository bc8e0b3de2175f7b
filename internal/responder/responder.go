package responder

import (
	"context"
	"fmt"

	"github.com/chatforge/backend/internal/db"
)

// Responder produces a chatbot reply to a user prompt. Retrieval-augmented
// generation lives in an external service; this interface is its seam.
type Responder interface {
	Reply(ctx context.Context, bot *db.Chatbot, prompt string) (string, error)
}

// Static is a deterministic placeholder implementation used until the
// generation service is wired in, and by tests.
type Static struct{}

func NewStatic() *Static {
	return &Static{}
}

func (s *Static) Reply(ctx context.Context, bot *db.Chatbot, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s received your message: %q", bot.Name, prompt), nil
}
