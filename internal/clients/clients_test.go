package clients

import (
	"context"
	"testing"
	"time"
)

func TestInitContextWithoutTimeout(t *testing.T) {
	for _, timeout := range []time.Duration{0, -time.Second} {
		ctx, cancel := initContext(context.Background(), timeout)
		if _, ok := ctx.Deadline(); ok {
			t.Fatalf("timeout %s: expected no deadline", timeout)
		}
		if ctx.Err() != nil {
			t.Fatalf("timeout %s: expected live context, got %v", timeout, ctx.Err())
		}
		cancel()
		if ctx.Err() == nil {
			t.Fatalf("timeout %s: expected cancel to end the context", timeout)
		}
	}
}

func TestInitContextWithTimeout(t *testing.T) {
	ctx, cancel := initContext(context.Background(), time.Minute)
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatalf("expected a deadline")
	}
	if left := time.Until(deadline); left <= 0 || left > time.Minute {
		t.Fatalf("unexpected deadline distance %s", left)
	}
}
