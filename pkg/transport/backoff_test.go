package transport

import (
	"testing"
	"time"
)

func TestBackoffGrowsToMax(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: 100 * time.Millisecond, Max: 350 * time.Millisecond, Multiplier: 2})

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Errorf("attempt %d: got %v, want %v", i, got, w)
		}
	}
	if b.Attempts() != len(want) {
		t.Errorf("expected %d attempts, got %d", len(want), b.Attempts())
	}

	b.Reset()
	if b.Current() != 100*time.Millisecond || b.Attempts() != 0 {
		t.Errorf("reset did not restore initial state: current=%v attempts=%d", b.Current(), b.Attempts())
	}
}

func TestBackoffJitterBounds(t *testing.T) {
	b := NewBackoff(BackoffConfig{Initial: time.Second, Max: time.Second, Jitter: 0.25})
	for i := 0; i < 50; i++ {
		d := b.Next()
		if d < time.Second || d > 1250*time.Millisecond {
			t.Fatalf("delay %v outside [1s, 1.25s]", d)
		}
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(BackoffConfig{})
	if b.Current() != DefaultInitialBackoff {
		t.Errorf("expected initial %v, got %v", DefaultInitialBackoff, b.Current())
	}
}
