// Package input - robot.go
//
// This file implements the InputSink with native system calls.
//
// Key Responsibilities:
//   - Locating the game window by title (robotgo process lookup)
//   - Mouse clicks, drags and wheel scrolling (robotgo)
//   - Capturing the window rectangle (kbinani/screenshot)
//
// Coordinates handed to the sink are window-relative; the sink converts them
// to screen space using the bounds measured by Attach.
package input

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
	"github.com/rs/zerolog"

	"clash-bot/config"
	"clash-bot/pixel"
)

// DefaultWindowTitle is the title fragment of the game window
const DefaultWindowTitle = "Clash of Clans"

// dragSteps is the number of intermediate moves of a drag
const dragSteps = 200

// ErrNotAttached is returned when input is sent before a window was found
var ErrNotAttached = errors.New("input sink not attached to a window")

// RobotSink delivers input with robotgo and captures with kbinani/screenshot.
//
// Lifecycle:
//   1. Create with NewRobotSink(title, log)
//   2. Call Attach; a false result means the game is not running
//   3. Use Capture/Click/Drag/Scroll
type RobotSink struct {
	Title      string
	ClickDelay time.Duration // pause between press and the next action
	window     Window
	attached   bool
	log        zerolog.Logger
}

// NewRobotSink creates a sink for the window whose title contains title
func NewRobotSink(title string, log zerolog.Logger) *RobotSink {
	if title == "" {
		title = DefaultWindowTitle
	}
	return &RobotSink{
		Title:      title,
		ClickDelay: 50 * time.Millisecond,
		log:        log.With().Str("component", "input").Logger(),
	}
}

// FindWindow looks up a window whose process or title matches title
func (s *RobotSink) FindWindow(title string) (Window, bool) {
	pids, err := robotgo.FindIds(title)
	if err != nil || len(pids) == 0 {
		s.log.Debug().Str("title", title).Msg("no process matches window title")
		return Window{}, false
	}
	for _, pid := range pids {
		x, y, w, h := robotgo.GetBounds(pid)
		if w <= 0 || h <= 0 {
			continue
		}
		name := robotgo.GetTitle(pid)
		if name != "" && !strings.Contains(name, title) {
			continue
		}
		return Window{PID: pid, Title: name, Bounds: image.Rect(x, y, x+w, y+h)}, true
	}
	return Window{}, false
}

// Attach finds and activates the game window. It reports false when the
// window does not exist; the caller decides whether to launch the game.
func (s *RobotSink) Attach() bool {
	w, ok := s.FindWindow(s.Title)
	if !ok {
		s.attached = false
		return false
	}
	if err := robotgo.ActivePid(w.PID); err != nil {
		s.log.Warn().Err(err).Int("pid", w.PID).Msg("failed to activate window")
	}
	s.window = w
	s.attached = true
	s.log.Info().Int("pid", w.PID).Str("bounds", w.Bounds.String()).Msg("attached to game window")
	return true
}

// Window returns the attached window
func (s *RobotSink) Window() (Window, bool) {
	return s.window, s.attached
}

// WindowSize implements config.ResolutionSource
func (s *RobotSink) WindowSize() (config.Resolution, bool) {
	if !s.attached && !s.Attach() {
		return config.Resolution{}, false
	}
	w, h := s.window.Size()
	return config.Resolution{Width: w, Height: h}, true
}

// Capture grabs the window rectangle. When no window is attached the primary
// display is captured instead.
func (s *RobotSink) Capture(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rect := s.window.Bounds
	if !s.attached {
		if screenshot.NumActiveDisplays() == 0 {
			return nil, fmt.Errorf("failed to capture: no active display")
		}
		rect = screenshot.GetDisplayBounds(0)
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture window: %w", err)
	}
	return img, nil
}

// Click moves to p and clicks the left button
func (s *RobotSink) Click(ctx context.Context, p pixel.Point) error {
	if !s.attached {
		return ErrNotAttached
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	x, y := s.window.ToScreen(p)
	robotgo.Move(x, y)
	robotgo.Click("left")
	s.log.Debug().Int("x", p.X).Int("y", p.Y).Msg("click")
	return sleep(ctx, s.ClickDelay)
}

// ClickSequence clicks every point in order
func (s *RobotSink) ClickSequence(ctx context.Context, points []pixel.Point, interDelay time.Duration) error {
	for _, p := range points {
		if err := s.Click(ctx, p); err != nil {
			return err
		}
		if err := sleep(ctx, interDelay); err != nil {
			return err
		}
	}
	return nil
}

// Drag holds the left button from from to to in dragSteps moves
func (s *RobotSink) Drag(ctx context.Context, from, to pixel.Point) error {
	if !s.attached {
		return ErrNotAttached
	}
	fx, fy := s.window.ToScreen(from)
	tx, ty := s.window.ToScreen(to)

	robotgo.Move(fx, fy)
	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("failed to press mouse: %w", err)
	}
	defer robotgo.Toggle("left", "up")

	for i := 1; i <= dragSteps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		x := fx + (tx-fx)*i/dragSteps
		y := fy + (ty-fy)*i/dragSteps
		robotgo.Move(x, y)
		robotgo.MilliSleep(1)
	}
	s.log.Debug().Str("from", from.String()).Str("to", to.String()).Msg("drag")
	return nil
}

// Scroll turns the wheel over the window center
func (s *RobotSink) Scroll(ctx context.Context, dir Direction, ticks int) error {
	if !s.attached {
		return ErrNotAttached
	}
	w, h := s.window.Size()
	x, y := s.window.ToScreen(pixel.NewPoint(w/2, h/2))
	robotgo.Move(x, y)
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		robotgo.ScrollDir(1, dir.String())
		robotgo.MilliSleep(50)
	}
	return nil
}
