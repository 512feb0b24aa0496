package chain

import (
	"errors"
	"fmt"
	"strings"
)

// Typed contract errors, mapped from revert messages in FAULT exceptions.
var (
	ErrBucketNotFound      = errors.New("bucket not found")
	ErrObjectNotFound      = errors.New("object not found")
	ErrBucketExists        = errors.New("bucket already exists")
	ErrNotBucketOwner      = errors.New("not bucket owner")
	ErrBucketQuotaExceeded = errors.New("bucket quota exceeded")
	ErrInsufficientCredit  = errors.New("insufficient credit")
	ErrCreditOverflow      = errors.New("credit overflow")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// FaultError is a contract FAULT whose revert message matched no typed
// error.
type FaultError struct {
	Method    string
	Exception string
}

func (e *FaultError) Error() string {
	if e.Exception == "" {
		return fmt.Sprintf("%s faulted", e.Method)
	}
	return fmt.Sprintf("%s faulted: %s", e.Method, e.Exception)
}

// faultMatchers map revert-message fragments to typed errors. Order matters:
// more specific fragments come first.
var faultMatchers = []struct {
	needle string
	err    error
}{
	{"bucket already exists", ErrBucketExists},
	{"bucket exists", ErrBucketExists},
	{"object not found", ErrObjectNotFound},
	{"key not found", ErrObjectNotFound},
	{"bucket not found", ErrBucketNotFound},
	{"not bucket owner", ErrNotBucketOwner},
	{"not the owner", ErrNotBucketOwner},
	{"quota exceeded", ErrBucketQuotaExceeded},
	{"insufficient credit", ErrInsufficientCredit},
	{"insufficient balance", ErrInsufficientCredit},
	{"overflow", ErrCreditOverflow},
	{"invalid amount", ErrInvalidAmount},
	{"amount must be positive", ErrInvalidAmount},
}

// faultError maps a FAULT exception to a typed error where the revert
// message is recognized, otherwise wraps it in a FaultError.
func faultError(method, exception string) error {
	low := strings.ToLower(exception)
	for _, m := range faultMatchers {
		if strings.Contains(low, m.needle) {
			return fmt.Errorf("%s: %w", method, m.err)
		}
	}
	return &FaultError{Method: method, Exception: exception}
}
