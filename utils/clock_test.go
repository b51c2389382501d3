package utils

import (
	"context"
	"testing"
	"time"
)

func TestRealClockSleep(t *testing.T) {
	t.Run("elapses", func(t *testing.T) {
		if err := (RealClock{}).Sleep(context.Background(), time.Millisecond); err != nil {
			t.Fatalf("Sleep() error: %v", err)
		}
	})

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		start := time.Now()
		if err := (RealClock{}).Sleep(ctx, time.Hour); err == nil {
			t.Fatal("Sleep() should return error on canceled context")
		}
		if time.Since(start) > time.Second {
			t.Error("Sleep() should return immediately on canceled context")
		}
	})
}

func TestMockClock(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	m := &MockClock{T: start}

	_ = m.Sleep(context.Background(), 5*time.Second)
	_ = m.Sleep(context.Background(), 5*time.Second)

	if len(m.Sleeps) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(m.Sleeps))
	}
	if got := m.Now().Sub(start); got != 10*time.Second {
		t.Errorf("expected clock to advance 10s, got %s", got)
	}
}
