// Package config - resolution.go
//
// Target-resolution discovery. Measuring the window belongs to the input
// layer; this file only applies the fallback policy.
package config

import "github.com/rs/zerolog"

// ResolutionSource measures the game window
type ResolutionSource interface {
	// WindowSize returns the client size of the game window, ok is false
	// when the window was not found.
	WindowSize() (Resolution, bool)
}

// DetectResolution asks src for the window size and falls back to
// DefaultResolution when the window is missing or implausibly small.
func DetectResolution(src ResolutionSource, log zerolog.Logger) Resolution {
	if src == nil {
		return DefaultResolution
	}
	res, ok := src.WindowSize()
	if !ok {
		log.Warn().Msg("game window not found, using default resolution")
		return DefaultResolution
	}
	if !res.Valid() {
		log.Warn().Int("width", res.Width).Int("height", res.Height).
			Msg("window size failed sanity check, using default resolution")
		return DefaultResolution
	}
	log.Debug().Int("width", res.Width).Int("height", res.Height).Msg("detected game resolution")
	return res
}
