package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidMarker, "test message: %s", "value")

	if err.Code != ErrCodeInvalidMarker {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidMarker)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_MARKER: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeStore, cause, "failed to upsert")

	if err.Code != ErrCodeStore {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeStore)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	// Test Unwrap
	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	// Test errors.Is with wrapped error
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}

	expected := "STORE_ERROR: failed to upsert: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestIs(t *testing.T) {
	err := New(ErrCodeMissingRoot, "no entry point")

	if !Is(err, ErrCodeMissingRoot) {
		t.Error("Is(err, ErrCodeMissingRoot) = false, want true")
	}
	if Is(err, ErrCodeDuplicateRoot) {
		t.Error("Is(err, ErrCodeDuplicateRoot) = true, want false")
	}

	// Non-structured errors have no code
	plain := errors.New("plain")
	if Is(plain, ErrCodeMissingRoot) {
		t.Error("Is(plain, ErrCodeMissingRoot) = true, want false")
	}

	// Is should see through wrapping
	wrapped := Wrap(ErrCodeDanglingFlow, err, "edge dropped")
	if !Is(wrapped, ErrCodeDanglingFlow) {
		t.Error("Is(wrapped, ErrCodeDanglingFlow) = false, want true")
	}
}

func TestGetCode(t *testing.T) {
	err := New(ErrCodeTruncatedGeneration, "stream cut mid-screen")
	if got := GetCode(err); got != ErrCodeTruncatedGeneration {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeTruncatedGeneration)
	}

	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	err := New(ErrCodeScreenNotFound, "screen %q does not exist", "screen-home")
	if got := UserMessage(err); got != `screen "screen-home" does not exist` {
		t.Errorf("UserMessage() = %v", got)
	}

	plain := errors.New("plain message")
	if got := UserMessage(plain); got != "plain message" {
		t.Errorf("UserMessage(plain) = %v, want %q", got, "plain message")
	}
}
