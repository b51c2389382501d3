package utils

import (
	"context"
	"time"
)

// MockClock returns a fixed time and records sleeps instead of waiting.
// Sleeping advances the clock by the slept duration.
type MockClock struct {
	T      time.Time
	Sleeps []time.Duration
}

func (m *MockClock) Now() time.Time {
	return m.T
}

func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.Sleeps = append(m.Sleeps, d)
	m.T = m.T.Add(d)
	return nil
}
