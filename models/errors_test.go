package models

import (
	"fmt"
	"testing"
)

func TestUnavailableMatchesWrappedSentinels(t *testing.T) {
	if !Unavailable(fmt.Errorf("upstream: %w", ErrSourceUnavailable)) {
		t.Fatalf("wrapped ErrSourceUnavailable should be unavailable")
	}
	if !Unavailable(fmt.Errorf("upstream: %w", ErrRateLimited)) {
		t.Fatalf("wrapped ErrRateLimited should be unavailable")
	}
	if Unavailable(fmt.Errorf("decode failed")) {
		t.Fatalf("plain error should not be unavailable")
	}
	if Unavailable(nil) {
		t.Fatalf("nil error should not be unavailable")
	}
}
