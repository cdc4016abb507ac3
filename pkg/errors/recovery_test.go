package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "fold-0")
		panic("callback exploded")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "fold-0" {
		t.Errorf("Expected operation 'fold-0', got '%s'", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if panicErr.Error() != "panic in fold-0: callback exploded" {
		t.Errorf("unexpected message %q", panicErr.Error())
	}
	if !strings.Contains(panicErr.String(), "Stack trace:") {
		t.Error("String() should include the stack trace")
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "fold-0")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	original := errors.New("original")
	testFunc := func() (err error) {
		defer Recover(&err, "fold-1")
		err = original
		panic("late panic")
	}

	err := testFunc()
	if !errors.Is(err, original) {
		t.Fatalf("original error should be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "late panic") {
		t.Errorf("panic value missing from %q", err.Error())
	}
}

func TestSafeExecute(t *testing.T) {
	err := SafeExecute("update", func() error {
		var m map[string]int
		m["x"] = 1
		return nil
	})
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("expected PanicError, got %v", err)
	}

	want := errors.New("plain")
	if got := SafeExecute("update", func() error { return want }); got != want {
		t.Errorf("SafeExecute should pass errors through, got %v", got)
	}
}
