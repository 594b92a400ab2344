// Package input - sink.go
//
// This file defines the InputSink contract: the capability that captures
// frames of the game window and accepts click/drag/scroll primitives.
//
// The core never knows how input is physically delivered. RobotSink (robot.go)
// is the desktop implementation; tests use in-memory recorders.
package input

import (
	"context"
	"image"
	"time"

	"clash-bot/pixel"
)

// Direction is a scroll direction
type Direction int

const (
	ScrollUp Direction = iota
	ScrollDown
)

func (d Direction) String() string {
	if d == ScrollDown {
		return "down"
	}
	return "up"
}

// Sink captures frames and replays input actions
type Sink interface {
	// Capture returns the current frame of the game window
	Capture(ctx context.Context) (image.Image, error)
	// Click performs a single left click
	Click(ctx context.Context, p pixel.Point) error
	// ClickSequence clicks points in order, waiting interDelay after each
	ClickSequence(ctx context.Context, points []pixel.Point, interDelay time.Duration) error
	// Drag presses at from, moves to to and releases
	Drag(ctx context.Context, from, to pixel.Point) error
	// Scroll turns the wheel ticks times
	Scroll(ctx context.Context, dir Direction, ticks int) error
}

// Window is a located game window
type Window struct {
	PID    int
	Title  string
	Bounds image.Rectangle // screen coordinates of the client area
}

// Size returns the client width and height
func (w Window) Size() (int, int) {
	return w.Bounds.Dx(), w.Bounds.Dy()
}

// ToScreen converts a window-relative point to screen coordinates
func (w Window) ToScreen(p pixel.Point) (int, int) {
	return w.Bounds.Min.X + p.X, w.Bounds.Min.Y + p.Y
}

// WindowFinder locates the game window. A missing window is a normal
// outcome reported through ok, never an error.
type WindowFinder interface {
	FindWindow(title string) (w Window, ok bool)
}

// sleep waits d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
