package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsMatchesByCode(t *testing.T) {
	err := NotFound("competition not found").WithDetail("id=%s", "c1")
	wrapped := fmt.Errorf("join competition: %w", err)

	if !stderrors.Is(wrapped, NotFound("")) {
		t.Fatalf("expected wrapped not-found to match by code")
	}
	if stderrors.Is(wrapped, Conflict("")) {
		t.Fatalf("not-found should not match conflict")
	}
}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("bad amount"), http.StatusBadRequest},
		{Unauthorized("missing token"), http.StatusUnauthorized},
		{RateLimited("slow down"), http.StatusTooManyRequests},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusOf(tc.err); got != tc.want {
			t.Fatalf("StatusOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := stderrors.New("row not found")
	err := NotFound("agent not found").WithCause(cause)

	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if CodeOf(err) != CodeNotFound {
		t.Fatalf("unexpected code: %s", CodeOf(err))
	}
}
