// Package input - recorder.go
//
// Recorder is an in-memory Sink. It serves captured frames from a fixed
// image and records every action, which makes attack plans replayable
// without a desktop session (dry runs and tests).
package input

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"clash-bot/pixel"
)

// ActionKind identifies a recorded action
type ActionKind int

const (
	ActionClick ActionKind = iota
	ActionDrag
	ActionScroll
)

// Action is one recorded input primitive
type Action struct {
	Kind  ActionKind
	Point pixel.Point // click point or drag start
	To    pixel.Point // drag end
	Dir   Direction
	Ticks int
}

// Recorder records actions instead of delivering them
type Recorder struct {
	Frame   image.Image
	actions []Action
	mu      sync.Mutex
}

// NewRecorder creates a recorder that serves frame on Capture
func NewRecorder(frame image.Image) *Recorder {
	return &Recorder{Frame: frame}
}

// Capture returns the configured frame
func (r *Recorder) Capture(ctx context.Context) (image.Image, error) {
	if r.Frame == nil {
		return nil, errors.New("recorder has no frame")
	}
	return r.Frame, ctx.Err()
}

// Click records a click
func (r *Recorder) Click(ctx context.Context, p pixel.Point) error {
	r.record(Action{Kind: ActionClick, Point: p})
	return ctx.Err()
}

// ClickSequence records clicks in order; delays are not slept
func (r *Recorder) ClickSequence(ctx context.Context, points []pixel.Point, interDelay time.Duration) error {
	for _, p := range points {
		if err := r.Click(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Drag records a drag
func (r *Recorder) Drag(ctx context.Context, from, to pixel.Point) error {
	r.record(Action{Kind: ActionDrag, Point: from, To: to})
	return ctx.Err()
}

// Scroll records a scroll
func (r *Recorder) Scroll(ctx context.Context, dir Direction, ticks int) error {
	r.record(Action{Kind: ActionScroll, Dir: dir, Ticks: ticks})
	return ctx.Err()
}

// Actions returns a copy of the recorded actions
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// Clicks returns the recorded click points
func (r *Recorder) Clicks() []pixel.Point {
	var out []pixel.Point
	for _, a := range r.Actions() {
		if a.Kind == ActionClick {
			out = append(out, a.Point)
		}
	}
	return out
}

func (r *Recorder) record(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a)
}
