// Package poll - poll.go
//
// Bounded polling helpers for long waits (battle end, base load) and the
// stuck-state safeguard used by the enemy-base search.
//
// Waits never block forever: WaitUntil gives up after a fixed duration and
// reports false so the caller can proceed on its "continue anyway" branch.
package poll

import (
	"context"
	"errors"
	"time"
)

// ErrStuck is returned by Safeguard.Observe once the retry ceiling is exceeded
var ErrStuck = errors.New("stuck: identical readings exceeded retry ceiling")

// Standard waits
const (
	BattleEndTimeout  = 170 * time.Second
	BattleEndInterval = 5 * time.Second
	BaseLoadTimeout   = 30 * time.Second
	BaseLoadInterval  = 1 * time.Second
)

// Clock abstracts time so waits are testable
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RealClock is the wall clock
var RealClock Clock = realClock{}

// WaitUntil polls cond every interval until it returns true or timeout
// elapses. cond is checked once before the first sleep. Returns true when
// cond was met; false on timeout or context cancellation.
func WaitUntil(ctx context.Context, clock Clock, timeout, interval time.Duration, cond func() bool) bool {
	if clock == nil {
		clock = RealClock
	}
	deadline := clock.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if !clock.Now().Before(deadline) {
			return false
		}
		if err := clock.Sleep(ctx, interval); err != nil {
			return false
		}
	}
}

// Safeguard counts consecutive identical readings.
//
// After Limit identical readings in a row the enclosing procedure should be
// restarted; Observe reports that with restart=true and resets the streak.
// Each restart consumes one retry; once MaxRestarts is exceeded Observe
// returns ErrStuck and the cycle is reported as failed.
type Safeguard struct {
	Limit       int // identical readings before a restart (default 20)
	MaxRestarts int // restarts before giving up (default 3)

	last     string
	streak   int
	restarts int
}

// NewSafeguard creates a safeguard with the given limits
func NewSafeguard(limit, maxRestarts int) *Safeguard {
	if limit <= 0 {
		limit = 20
	}
	if maxRestarts <= 0 {
		maxRestarts = 3
	}
	return &Safeguard{Limit: limit, MaxRestarts: maxRestarts}
}

// Observe records one reading
func (s *Safeguard) Observe(reading string) (restart bool, err error) {
	if s.streak > 0 && reading == s.last {
		s.streak++
	} else {
		s.last = reading
		s.streak = 1
	}
	if s.streak < s.Limit {
		return false, nil
	}

	s.streak = 0
	s.last = ""
	s.restarts++
	if s.restarts > s.MaxRestarts {
		return false, ErrStuck
	}
	return true, nil
}

// Streak returns the current run of identical readings
func (s *Safeguard) Streak() int {
	return s.streak
}

// Restarts returns how many restarts were requested so far
func (s *Safeguard) Restarts() int {
	return s.restarts
}

// Reset clears all state after a successful search
func (s *Safeguard) Reset() {
	s.last = ""
	s.streak = 0
	s.restarts = 0
}
