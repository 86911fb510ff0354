package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFetchErrorIs(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		target   error
		expected bool
	}{
		{
			name:     "transient timeout is fetch failure",
			err:      NewFetchError("https://example.com/p", 0, true, ErrTimeout),
			target:   ErrFetchFailed,
			expected: true,
		},
		{
			name:     "429 is rate limited",
			err:      NewFetchError("https://example.com/p", 429, true, nil),
			target:   ErrRateLimited,
			expected: true,
		},
		{
			name:     "403 is blocked",
			err:      NewFetchError("https://example.com/p", 403, false, nil),
			target:   ErrBlocked,
			expected: true,
		},
		{
			name:     "transient 503 is not blocked",
			err:      NewFetchError("https://example.com/p", 503, true, nil),
			target:   ErrBlocked,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.expected {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.expected)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(NewFetchError("u", 500, true, nil)) {
		t.Error("expected 500 to be transient")
	}
	if IsTransient(NewFetchError("u", 403, false, nil)) {
		t.Error("expected 403 to be permanent")
	}
	if !IsTransient(fmt.Errorf("wrapped: %w", ErrTimeout)) {
		t.Error("expected wrapped timeout to be transient")
	}
}

func TestConfigErrorIsFatal(t *testing.T) {
	err := NewConfigError("catalog", "master catalog missing", nil)
	if !IsConfiguration(err) {
		t.Error("expected config error to match ErrConfiguration")
	}

	wrapped := Wrap(err, "loading run inputs")
	if !IsConfiguration(wrapped) {
		t.Error("expected wrapped config error to stay fatal")
	}
}

func TestOrphanError(t *testing.T) {
	err := NewOrphanError("smokeinn", "arturo_fuente|arturo_fuente|hemingway|classic|classic|7x48|cameroon|box_25")
	if !IsOrphan(err) {
		t.Error("expected orphan error to match ErrOrphan")
	}
	if IsConfiguration(err) {
		t.Error("orphans are per-listing, never fatal")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("price", 12500.0, "above profile maximum")
	if !IsValidationError(err) {
		t.Error("expected validation error to match ErrInvalidInput")
	}
	want := "validation failed for field price: above profile maximum"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "anything") != nil {
		t.Error("wrapping nil should return nil")
	}
	if WrapIO("write", "/tmp/x", nil) != nil {
		t.Error("WrapIO(nil) should return nil")
	}
}
