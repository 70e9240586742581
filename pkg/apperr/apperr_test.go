package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestNotFound(t *testing.T) {
	err := NotFound("event", "42")
	if got, want := err.Error(), "event with id 42 not found"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !IsNotFound(err) {
		t.Fatal("IsNotFound = false")
	}
	if IsConflict(err) || IsValidation(err) {
		t.Fatal("NotFound matched a different kind")
	}
}

func TestConflict(t *testing.T) {
	err := Conflict("email", "a@b.c")
	if got, want := err.Error(), `email "a@b.c" is already taken`; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !IsConflict(err) {
		t.Fatal("IsConflict = false")
	}
}

func TestValidation(t *testing.T) {
	err := Validation("field %s is required", "title")
	if got, want := err.Error(), "field title is required"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	if !IsValidation(err) {
		t.Fatal("IsValidation = false")
	}
}

func TestWrappedErrorsMatch(t *testing.T) {
	wrapped := fmt.Errorf("loading event: %w", NotFound("event", "7"))
	if !IsNotFound(wrapped) {
		t.Fatal("IsNotFound did not match wrapped error")
	}
	var nf *NotFoundError
	if !errors.As(wrapped, &nf) {
		t.Fatal("errors.As did not unwrap NotFoundError")
	}
	if nf.Entity != "event" || nf.ID != "7" {
		t.Fatalf("unexpected fields: %+v", nf)
	}
}

func TestPlainErrorsDoNotMatch(t *testing.T) {
	err := errors.New("boom")
	if IsNotFound(err) || IsConflict(err) || IsValidation(err) {
		t.Fatal("plain error matched an app error kind")
	}
}
