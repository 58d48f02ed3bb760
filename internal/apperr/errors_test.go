package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKind(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want error
	}{
		{name: "op error", err: Validation("auth.Register", "username is required"), want: ErrValidation},
		{name: "conflict", err: ConflictError{Op: "store.CreateAccount", Field: "email"}, want: ErrConflict},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NotFound("store.FindByID", "account")), want: ErrNotFound},
		{name: "bare sentinel", err: ErrForbidden, want: ErrForbidden},
		{name: "internal", err: errors.New("connection refused"), want: nil},
	}

	for _, tc := range cases {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("%s: Kind()=%v want=%v", tc.name, got, tc.want)
		}
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	if got := Message(ConflictError{Op: "x", Field: "username"}); got != "username already exists" {
		t.Fatalf("conflict message: %q", got)
	}
	if got := Message(Validation("x", "content is required")); got != "content is required" {
		t.Fatalf("validation message: %q", got)
	}
	if got := Message(NotFound("x", "account")); got != "not found" {
		t.Fatalf("not found message: %q", got)
	}
	if got := Message(errors.New("dial tcp: refused")); got != "internal server error" {
		t.Fatalf("internal message leaked cause: %q", got)
	}
}
