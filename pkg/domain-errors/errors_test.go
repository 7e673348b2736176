package domainerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	err := New(CodeNotFound, "requirement not found")
	if !HasCode(err, CodeNotFound) {
		t.Fatal("expected CodeNotFound")
	}
	if HasCode(err, CodeConflict) {
		t.Fatal("did not expect CodeConflict")
	}
	if HasCode(nil, CodeNotFound) {
		t.Fatal("nil error has no code")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "failed to load rule")

	if !errors.Is(err, cause) {
		t.Fatal("wrapped cause must survive errors.Is")
	}
	if !HasCode(err, CodeInternal) {
		t.Fatal("expected CodeInternal")
	}
	if Wrap(nil, CodeInternal, "noop") != nil {
		t.Fatal("wrapping nil must return nil")
	}
}

func TestCodeOf(t *testing.T) {
	if CodeOf(New(CodeForbidden, "no")) != CodeForbidden {
		t.Fatal("expected CodeForbidden")
	}
	if CodeOf(errors.New("plain")) != CodeInternal {
		t.Fatal("uncoded errors default to CodeInternal")
	}
	// Outermost code wins when services re-code a store failure.
	inner := New(CodeNotFound, "row missing")
	outer := Wrap(inner, CodeInternal, "load failed")
	if CodeOf(outer) != CodeInternal {
		t.Fatal("expected outermost code")
	}
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(fmt.Errorf("pq: duplicate key"), CodeConflict, "mapping exists")
	want := "mapping exists: pq: duplicate key"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}
