// Package main is the clashbot entry point.
//
// Startup Sequence:
//   1. Logger (console + data/logs/run_<timestamp>.log)
//   2. Attach to the game window and measure the resolution
//   3. Resolve the static layer and merge the selected profile over it
//   4. Apply General.LogLevel, build detectors, builder and executor
//   5. Run one attack (-once), calibrate the special unit (-calibrate),
//      or hand control to the system tray
//
// Exit Codes:
//   - 0: normal exit
//   - 1: startup failed
//   - 3: gold pass detected, the process stops on purpose
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"clash-bot/config"
	"clash-bot/logging"
)

// exit is replaced in tests
var exit = os.Exit

type options struct {
	static    string
	profiles  string
	profile   string
	army      string
	window    string
	framePath string
	once      bool
	calibrate bool
	logLevel  string
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.static, "static", "configs/static_config.toml", "static config layer")
	flag.StringVar(&o.profiles, "profiles", "configs", "directory holding baseconfig_* profiles")
	flag.StringVar(&o.profile, "profile", "", "profile file; default is the first discovered profile")
	flag.StringVar(&o.army, "army", "", "army key; default is General.army of the profile")
	flag.StringVar(&o.window, "window", "", "game window title")
	flag.StringVar(&o.framePath, "frame", "", "dry run against a saved frame instead of the game window")
	flag.BoolVar(&o.once, "once", false, "run a single attack without the tray")
	flag.BoolVar(&o.calibrate, "calibrate", false, "print special unit color and count for the first tile")
	flag.StringVar(&o.logLevel, "log-level", "info", "startup log level before the config is loaded")
	flag.Parse()
	return o
}

func main() {
	opts := parseFlags()

	log, err := logging.New(logging.Options{Level: opts.logLevel})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		log.Info().Msg("=== clashbot shutdown ===")
		log.Close()
	}()
	log.Info().Msg("=== clashbot started ===")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profilePath := opts.profile
	if profilePath == "" {
		paths, err := config.DiscoverProfiles(opts.profiles)
		if err != nil || len(paths) == 0 {
			log.Warn().Err(err).Str("dir", opts.profiles).Msg("no profile discovered, using static layer only")
			profilePath = filepath.Join(opts.profiles, config.ProfilePrefix+"default.toml")
		} else {
			profilePath = paths[0]
		}
	}

	bot, err := NewBot(log, opts, profilePath)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		log.Close()
		exit(1)
	}
	defer bot.Close()

	switch {
	case opts.calibrate:
		err = bot.CalibrateSpecial(ctx, os.Stdout)
	case opts.once || opts.framePath != "":
		err = bot.RunAttack(ctx)
	default:
		NewTrayApp(ctx, bot).Run()
	}
	if errors.Is(err, errGoldPass) {
		log.Warn().Msg("gold pass detected, stopping")
		log.Close()
		exit(exitGoldPass)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("run failed")
	}
}
