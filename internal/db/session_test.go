package db

import (
	"context"
	"testing"
)

func TestSession_Release_NilSafe(t *testing.T) {
	var s *Session
	// Must not panic
	s.Release()

	empty := &Session{}
	empty.Release()
	empty.Release()
}

func TestSessionContext_RoundTrip(t *testing.T) {
	sess := &Session{}
	ctx := WithSession(context.Background(), sess)

	if got := SessionFromContext(ctx); got != sess {
		t.Error("expected the attached session back from the context")
	}
}

func TestSessionContext_Empty(t *testing.T) {
	if got := SessionFromContext(context.Background()); got != nil {
		t.Errorf("expected nil session from a bare context, got %v", got)
	}
}
