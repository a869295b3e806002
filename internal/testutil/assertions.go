package testutil

import (
	"errors"
	"testing"

	apperrors "pennywise/internal/errors"
)

// AssertAppError fails unless err unwraps to an *AppError carrying code.
// Sentinels from internal/errors are matched by code, so wrapped copies
// produced by WithMessage or Wrap pass too.
func AssertAppError(t testing.TB, err error, code string) *apperrors.AppError {
	t.Helper()

	var appErr *apperrors.AppError
	switch {
	case err == nil:
		t.Fatalf("expected error %s, got nil", code)
	case !errors.As(err, &appErr):
		t.Fatalf("expected *AppError %s, got %T: %v", code, err, err)
	case appErr.Code != code:
		t.Errorf("expected error %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
	return appErr
}

// AssertNoError stops the test on any error.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
