// Package app wires the display, buttons, statistics and control surface
// around the menu server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"oledmenu/hal"
	"oledmenu/internal/config"
	"oledmenu/menu/control"
	"oledmenu/menu/server"
	"oledmenu/menu/stats"
)

// frontend is an emulator display that must run on the main goroutine.
type frontend interface {
	Run(ctx context.Context) error
}

type App struct {
	cfg config.Config
	log *slog.Logger

	display  hal.Display
	buttons  hal.Buttons
	presser  hal.Presser
	frontend frontend
	closers  []func() error

	server  *server.Server
	control *control.Server
}

// New opens the hardware or emulator backends named by cfg. Any failure
// here is fatal for the process.
func New(cfg config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	a := &App{cfg: cfg, log: log}
	if err := a.openInput(); err != nil {
		return nil, err
	}
	if err := a.openDisplay(); err != nil {
		_ = a.Close()
		return nil, err
	}

	src := stats.NewSystem(stats.Config{
		DiskPath:         cfg.Stats.DiskPath,
		GPULoadPath:      cfg.Stats.GPULoadPath,
		PowerPath:        cfg.Stats.PowerPath,
		PowerModeCommand: cfg.Stats.PowerModeCommand,
	})
	start := server.ModeIdle
	if cfg.Loop.StartMode == "menu" {
		start = server.ModeMenu
	}
	a.server = server.New(server.Config{
		SocketPath:    cfg.Socket,
		Tick:          cfg.Loop.Tick,
		StatsInterval: cfg.Stats.Interval,
		PollSlice:     cfg.Loop.PollSlice,
		Interfaces:    cfg.Stats.Interfaces,
		StartMode:     start,
	}, a.display, a.buttons, src, log.With("component", "server"))

	if cfg.Control.Addr != "" {
		a.control = control.New(cfg.Control.Addr, a.server, a.presser, log.With("component", "control"))
		a.server.SetFrameSink(a.control.Publish)
	}
	return a, nil
}

func (a *App) Server() *server.Server { return a.server }

func (a *App) openInput() error {
	switch a.cfg.Input.Backend {
	case config.InputVirtual:
		l := hal.NewLatch(a.cfg.Input.Bounce)
		a.buttons, a.presser = l, l
	case config.InputGPIO:
		b, err := hal.OpenGPIOButtons(hal.GPIOConfig{
			Pins:      a.cfg.Input.Pins.PinList(),
			ActiveLow: a.cfg.Input.ActiveLow,
			Bounce:    a.cfg.Input.Bounce,
			Wait:      a.cfg.Input.Poll,
		})
		if err != nil {
			return fmt.Errorf("app: open buttons: %w", err)
		}
		a.buttons = b
		a.closers = append(a.closers, b.Close)
	}
	return nil
}

func (a *App) openDisplay() error {
	d := a.cfg.Display
	switch d.Backend {
	case config.DisplaySSD1306:
		oled, err := hal.OpenSSD1306(hal.SSD1306Config{
			Bus:     d.I2CBus,
			Address: uint16(d.Address),
			Width:   d.Width,
			Height:  d.Height,
		})
		if err != nil {
			return fmt.Errorf("app: open display: %w", err)
		}
		a.display = oled
	case config.DisplayWindow:
		latch, ok := a.presser.(*hal.Latch)
		if !ok {
			return errors.New("app: window display needs virtual input")
		}
		w, err := hal.NewWindow(d.Width, d.Height, d.Scale, latch)
		if err != nil {
			return fmt.Errorf("app: open window: %w", err)
		}
		a.display, a.frontend = w, w
	case config.DisplayTerm:
		t := hal.NewTerm(d.Width, d.Height, a.presser)
		a.display, a.frontend = t, t
	case config.DisplayHeadless:
		a.display = hal.NewHeadless(d.Width, d.Height)
	}
	a.closers = append(a.closers, a.display.Close)
	return nil
}

// Run serves until ctx is done or an emulator front end is closed. It must
// be called from the main goroutine when an emulator display is in use.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(gctx) })
	if a.control != nil {
		g.Go(func() error { return a.control.ListenAndServe(gctx) })
	}

	if a.frontend != nil {
		err := a.frontend.Run(gctx)
		cancel()
		if werr := g.Wait(); werr != nil {
			return werr
		}
		return err
	}
	return g.Wait()
}

// Close releases the backends in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
