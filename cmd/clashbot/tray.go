// Package main - tray.go
//
// System tray UI built on getlantern/systray.
//
// Menu Structure:
//   Clash Bot
//   ├─ Status: stage | army | attacks (read-only, refreshed every second)
//   ├─ Auto Attack (checkbox, starts unchecked)
//   ├─ Attack Now (one cycle, ignored while a cycle runs)
//   ├─ Screenshot (saves the current frame under data/screenshots/manual)
//   └─ Quit
//
// Lifecycle:
//   1. NewTrayApp: create with the bot and the process context
//   2. Run: start systray (blocking)
//   3. onReady: build menus, start the attack loop and event handlers
//   4. onExit: cancel the loop
package main

import (
	"context"
	"time"

	"github.com/getlantern/systray"
)

// TrayApp manages the system tray
type TrayApp struct {
	bot    *Bot
	ctx    context.Context
	cancel context.CancelFunc

	statusItem *systray.MenuItem
	autoItem   *systray.MenuItem
	attackItem *systray.MenuItem
	shotItem   *systray.MenuItem
	quitItem   *systray.MenuItem
}

// NewTrayApp creates a tray bound to bot
func NewTrayApp(ctx context.Context, bot *Bot) *TrayApp {
	ctx, cancel := context.WithCancel(ctx)
	return &TrayApp{bot: bot, ctx: ctx, cancel: cancel}
}

// Run starts the tray application and blocks until Quit
func (t *TrayApp) Run() {
	t.bot.log.Info().Msg("starting system tray")
	systray.Run(t.onReady, func() {
		t.bot.log.Info().Msg("system tray exit")
		t.cancel()
	})
}

func (t *TrayApp) onReady() {
	systray.SetTitle("Clash Bot")
	systray.SetTooltip("Clash of Clans attack bot")

	t.statusItem = systray.AddMenuItem("Status: "+t.bot.Status(), "Current bot status")
	t.statusItem.Disable()
	systray.AddSeparator()

	t.autoItem = systray.AddMenuItemCheckbox("Auto Attack", "Attack repeatedly", false)
	t.attackItem = systray.AddMenuItem("Attack Now", "Run one attack")
	t.shotItem = systray.AddMenuItem("Screenshot", "Save the current frame")
	systray.AddSeparator()
	t.quitItem = systray.AddMenuItem("Quit", "Quit the application")

	go t.bot.Loop(t.ctx)
	go t.refreshStatus()
	go t.handleEvents()
	t.bot.log.Info().Msg("system tray initialized")
}

func (t *TrayApp) refreshStatus() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.statusItem.SetTitle("Status: " + t.bot.Status())
			if t.bot.paused.Load() && t.autoItem.Checked() {
				// the loop paused itself (stuck game)
				t.autoItem.Uncheck()
			}
		}
	}
}

func (t *TrayApp) handleEvents() {
	for {
		select {
		case <-t.ctx.Done():
			systray.Quit()
			return
		case <-t.autoItem.ClickedCh:
			if t.autoItem.Checked() {
				t.bot.paused.Store(true)
				t.autoItem.Uncheck()
			} else {
				t.bot.paused.Store(false)
				t.autoItem.Check()
			}
			t.bot.log.Info().Bool("auto", !t.bot.paused.Load()).Msg("auto attack toggled")
		case <-t.attackItem.ClickedCh:
			go func() {
				t.bot.handleAttackError(t.ctx, t.bot.RunAttack(t.ctx))
			}()
		case <-t.shotItem.ClickedCh:
			path, err := t.bot.SaveScreenshot(t.ctx)
			if err != nil {
				t.bot.log.Warn().Err(err).Msg("screenshot failed")
				continue
			}
			t.bot.log.Info().Str("path", path).Msg("screenshot saved")
		case <-t.quitItem.ClickedCh:
			t.bot.log.Info().Msg("quit requested by user")
			t.cancel()
			systray.Quit()
			return
		}
	}
}
