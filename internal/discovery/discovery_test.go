package discovery

import (
	"context"
	"testing"
	"time"
)

func TestNoopName(t *testing.T) {
	if got := (Noop{}).Name(); got != "noop" {
		t.Fatalf("expected name %q, got %q", "noop", got)
	}
}

func TestNoopStartBlocksUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- (Noop{}).Start(ctx) }()

	select {
	case err := <-done:
		t.Fatalf("Start returned before cancellation: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Start did not return after cancellation")
	}
}
