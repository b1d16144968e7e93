package apperr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAllocationExceededMessage(t *testing.T) {
	err := &AllocationExceededError{
		Bucket:     "MUTUAL_FUND",
		Allocation: 10000,
		Used:       7000,
		Available:  3000,
		Requested:  3500,
	}

	msg := err.Error()
	for _, want := range []string{"10000.00", "7000.00", "3000.00", "3500.00"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %s", msg, want)
		}
	}
}

func TestIsUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation", Invalid("amount", "must be positive"), true},
		{"closed period wrapped", fmt.Errorf("failed to add income: %w", &ClosedPeriodError{Action: "add income", Year: 2025, Month: 3}), true},
		{"not found", NotFound("loan", "abc"), true},
		{"lookup", &LookupError{Source: "quote", Key: "AAPL", Err: errors.New("timeout")}, false},
		{"plain", errors.New("disk full"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserError(tt.err); got != tt.want {
				t.Errorf("IsUserError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestClosedPeriodMessage(t *testing.T) {
	err := &ClosedPeriodError{Action: "add income", Year: 2025, Month: 3}
	if got := err.Error(); got != "cannot add income: 2025-03 is closed" {
		t.Errorf("Error() = %q", got)
	}
}
