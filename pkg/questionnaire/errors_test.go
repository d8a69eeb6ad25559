package questionnaire

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorKindPredicates(t *testing.T) {
	cases := []struct {
		err  error
		pred func(error) bool
	}{
		{NewInvalidStateError("publish", StatusArchived), IsInvalidState},
		{NewConflictError("a draft already exists"), IsConflict},
		{NewNotFoundError("question", "q1"), IsNotFound},
		{NewValidationError("bad payload", nil), IsValidation},
	}
	for _, c := range cases {
		if !c.pred(c.err) {
			t.Errorf("predicate rejected %v", c.err)
		}
	}

	if IsConflict(NewNotFoundError("version", "v1")) {
		t.Error("predicates must not cross kinds")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain errors carry no kind")
	}
	if IsValidation(nil) {
		t.Error("nil is not a validation error")
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := NewConflictError("slot taken")
	wrapped := fmt.Errorf("failed to create draft: %w", inner)

	if !IsConflict(wrapped) {
		t.Error("wrapped conflict not detected")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NewNotFoundError("question", "q1").WithOperation("deleteQuestion")
	msg := err.Error()
	if msg == "" {
		t.Fatal("empty message")
	}
	for _, want := range []string{"not_found", "question not found: q1", "deleteQuestion"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := NewInternalError("failed to commit", cause)

	if !errors.Is(err, cause) {
		t.Error("internal error must unwrap to its cause")
	}
}
