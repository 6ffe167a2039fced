package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"
	"time"
)

// fakeTimeoutErr simulates a net.Error with Timeout semantics.
type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string { return "fake timeout" }
func (fakeTimeoutErr) Timeout() bool { return true }

func TestIsSessionFatalClassification(t *testing.T) {
	root := stdErrors.New("root")
	wrapped := fmt.Errorf("adding context: %w", root)

	fr := NewFramingError("decode.header", wrapped)
	if !IsSessionFatal(fr) {
		t.Fatalf("expected IsSessionFatal=true for framing error")
	}
	if !stdErrors.Is(fr, root) {
		t.Fatalf("expected errors.Is to find root cause")
	}
	var fe *FramingError
	if !stdErrors.As(fr, &fe) {
		t.Fatalf("expected errors.As to *FramingError")
	}
	if fe.Op != "decode.header" {
		t.Fatalf("unexpected op: %s", fe.Op)
	}

	sc := NewSchemaError("decode.play", nil)
	if !IsSessionFatal(sc) {
		t.Fatalf("expected schema error classified as session-fatal")
	}
	pr := NewProtocolError("session.illegal_opcode", nil)
	if !IsSessionFatal(pr) {
		t.Fatalf("expected protocol error classified as session-fatal")
	}
	pipe := NewPipelineError("pipeline.decode_failed", stdErrors.New("bad codec"))
	if IsSessionFatal(pipe) {
		t.Fatalf("pipeline error should not be session-fatal")
	}
}

func TestIsTimeout(t *testing.T) {
	root := fakeTimeoutErr{}
	to := NewTimeoutError("heartbeat.wait", 6*time.Second, root)
	if !IsTimeout(to) {
		t.Fatalf("expected TimeoutError recognized")
	}
	if IsSessionFatal(to) {
		t.Fatalf("timeout should not be session-fatal")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatalf("expected context deadline recognized")
	}
}

func TestUnwrapChains(t *testing.T) {
	base := stdErrors.New("connection reset")
	l1 := fmt.Errorf("read: %w", base)
	l2 := NewFramingError("read.frame", l1)
	if !stdErrors.Is(l2, base) {
		t.Fatalf("errors.Is should reach base cause")
	}
	var cm coreMarker
	if !stdErrors.As(l2, &cm) {
		t.Fatalf("expected to match coreMarker via As")
	}
}

func TestIsTaxonomyPredicate(t *testing.T) {
	if Is(nil) {
		t.Fatalf("nil should not match the taxonomy")
	}
	if Is(stdErrors.New("plain")) {
		t.Fatalf("plain error should not match the taxonomy")
	}
	if !Is(NewResourceError("worker.died", nil)) {
		t.Fatalf("ResourceError should match the taxonomy")
	}
	if !Is(NewConfigBoundsError("read.frame", nil)) {
		t.Fatalf("ConfigBoundsError should match the taxonomy")
	}
}

func TestNilSafety(t *testing.T) {
	if IsSessionFatal(nil) {
		t.Fatalf("nil should not be session-fatal")
	}
	if IsTimeout(nil) {
		t.Fatalf("nil should not be timeout")
	}
}

func TestConstructorsProduceNonEmptyErrorStrings(t *testing.T) {
	cases := []error{
		NewFramingError("op", nil),
		NewSchemaError("op", nil),
		NewProtocolError("op", nil),
		NewTimeoutError("op", 100*time.Millisecond, nil),
		NewPipelineError("op", nil),
		NewResourceError("op", nil),
		NewConfigBoundsError("op", nil),
	}
	for _, err := range cases {
		if err.Error() == "" {
			t.Fatalf("%T: expected non-empty error string", err)
		}
	}
}

func TestNegativePredicates(t *testing.T) {
	if IsSessionFatal(stdErrors.New("plain")) {
		t.Fatalf("plain error shouldn't be session-fatal")
	}
	if IsTimeout(stdErrors.New("plain")) {
		t.Fatalf("plain error shouldn't be timeout")
	}
}
