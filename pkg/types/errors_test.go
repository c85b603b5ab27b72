package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("nodes[2].data.label", "node label is required")

	if !IsValidation(err) {
		t.Error("expected IsValidation true")
	}
	if IsNotFound(err) {
		t.Error("expected IsNotFound false")
	}

	// 래핑된 에러도 분류된다
	wrapped := fmt.Errorf("create flow: %w", err)
	if !IsValidation(wrapped) {
		t.Error("expected IsValidation true for wrapped error")
	}

	var ve *ValidationError
	if !errors.As(wrapped, &ve) {
		t.Fatal("expected errors.As to unwrap ValidationError")
	}
	if ve.Field != "nodes[2].data.label" {
		t.Errorf("unexpected field: %q", ve.Field)
	}
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("flow", "abc-123")

	if !IsNotFound(err) {
		t.Error("expected IsNotFound true")
	}
	if IsValidation(err) {
		t.Error("expected IsValidation false")
	}
	if err.Error() != "flow not found: abc-123" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestSimulatorNotRunningSentinel(t *testing.T) {
	wrapped := fmt.Errorf("open stream: %w", ErrSimulatorNotRunning)
	if !errors.Is(wrapped, ErrSimulatorNotRunning) {
		t.Error("expected errors.Is to match sentinel through wrapping")
	}
}
