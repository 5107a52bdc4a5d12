package domain

import (
	"math"
	"testing"
)

func TestCanRegister(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		max       int
		current   int
		requested int
		want      bool
	}{
		{name: "fits with room to spare", max: 10, current: 8, requested: 2, want: true},
		{name: "one over", max: 10, current: 8, requested: 3, want: false},
		{name: "empty event exact fill", max: 10, current: 0, requested: 10, want: true},
		{name: "full event", max: 10, current: 10, requested: 1, want: false},
		{name: "single seat", max: 1, current: 0, requested: 1, want: true},
		{name: "single seat taken", max: 1, current: 1, requested: 1, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CanRegister(tt.max, tt.current, tt.requested); got != tt.want {
				t.Fatalf("CanRegister(%d, %d, %d) = %v, want %v", tt.max, tt.current, tt.requested, got, tt.want)
			}
		})
	}
}

func TestCanRegister_Exhaustive(t *testing.T) {
	t.Parallel()

	for max := 1; max <= 25; max++ {
		for current := 0; current <= max; current++ {
			for requested := 1; requested <= max+2; requested++ {
				want := current+requested <= max
				if got := CanRegister(max, current, requested); got != want {
					t.Fatalf("CanRegister(%d, %d, %d) = %v, want %v", max, current, requested, got, want)
				}
			}
			if current == max && CanRegister(max, current, 1) {
				t.Fatalf("full event %d/%d accepted a registration", current, max)
			}
			if current < max && !CanRegister(max, current, max-current) {
				t.Fatalf("exact fill %d/%d rejected", current, max)
			}
		}
	}
}

func TestCanRegister_LargeRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		max       int
		current   int
		requested int
		want      bool
	}{
		{name: "max int request on small event", max: 10, current: 5, requested: math.MaxInt, want: false},
		{name: "max int request on empty event", max: 10, current: 0, requested: math.MaxInt, want: false},
		{name: "one seat left, near max int request", max: 10, current: 9, requested: math.MaxInt - 8, want: false},
		{name: "one seat left, request wraps sum to min int", max: 10, current: 9, requested: math.MaxInt, want: false},
		{name: "max int capacity filled exactly", max: math.MaxInt, current: 1, requested: math.MaxInt - 1, want: true},
		{name: "max int capacity one over", max: math.MaxInt, current: 1, requested: math.MaxInt, want: false},
		{name: "storable count at storable capacity", max: MaxCount, current: 0, requested: MaxCount, want: true},
		{name: "storable count one seat short", max: MaxCount, current: 1, requested: MaxCount, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := CanRegister(tt.max, tt.current, tt.requested); got != tt.want {
				t.Fatalf("CanRegister(%d, %d, %d) = %v, want %v", tt.max, tt.current, tt.requested, got, tt.want)
			}
		})
	}
}

func TestCanRegister_UnboundedRequests(t *testing.T) {
	t.Parallel()

	for max := 1; max <= 25; max++ {
		for current := 0; current <= max; current++ {
			for offset := 0; offset < 4; offset++ {
				requested := math.MaxInt - offset
				if CanRegister(max, current, requested) {
					t.Fatalf("CanRegister(%d, %d, %d) admitted an oversized request", max, current, requested)
				}
			}
		}
	}
}

func TestRemaining(t *testing.T) {
	t.Parallel()

	if got := Remaining(10, 8); got != 2 {
		t.Fatalf("expected 2 remaining, got %d", got)
	}
	if got := Remaining(10, 10); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
	if got := Remaining(5, 7); got != 0 {
		t.Fatalf("expected remaining floored at 0, got %d", got)
	}
}
