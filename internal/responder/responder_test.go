package responder

import (
	"context"
	"strings"
	"testing"

	"github.com/chatforge/backend/internal/db"
)

func TestStatic_Reply(t *testing.T) {
	bot := &db.Chatbot{Name: "Support Bot"}
	s := NewStatic()

	reply, err := s.Reply(context.Background(), bot, "hello")
	if err != nil {
		t.Fatalf("Reply failed: %v", err)
	}
	if !strings.Contains(reply, "Support Bot") || !strings.Contains(reply, "hello") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestStatic_Reply_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewStatic().Reply(ctx, &db.Chatbot{Name: "Bot"}, "hi"); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}
