package clock

import (
	"testing"
	"time"
)

func TestFixed_ReturnsUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, loc)

	got := NewFixed(at).Now()
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
	if !got.Equal(at) {
		t.Fatalf("expected %v, got %v", at, got)
	}
}

func TestFunc_DefaultsToSystem(t *testing.T) {
	t.Parallel()

	before := time.Now().Add(-time.Second)
	got := Func(nil)()
	if got.Before(before) {
		t.Fatalf("expected a current time, got %v", got)
	}
}
