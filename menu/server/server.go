// Package server runs the menu display loop.
//
// A single goroutine owns the tree, the display bitmap and every client
// connection. Each tick it applies control requests, accepts at most one
// client, dispatches everything clients sent, then draws the current mode.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"oledmenu/hal"
	"oledmenu/menu/gfx"
	"oledmenu/menu/input"
	"oledmenu/menu/proto"
	"oledmenu/menu/stats"
	"oledmenu/menu/transport"
	"oledmenu/menu/tree"
)

// Mode is what the display shows.
type Mode int32

const (
	ModeIdle Mode = iota
	ModeMenu
	ModeOff
	ModeText
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeMenu:
		return "menu"
	case ModeOff:
		return "off"
	case ModeText:
		return "text"
	default:
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
}

type Config struct {
	SocketPath    string
	Tick          time.Duration
	StatsInterval time.Duration
	PollSlice     time.Duration
	// Interfaces are tried in order for the idle screen address line.
	Interfaces []string
	StartMode  Mode
}

func DefaultConfig() Config {
	return Config{
		SocketPath:    transport.DefaultSocketPath,
		Tick:          50 * time.Millisecond,
		StatsInterval: time.Second,
		PollSlice:     100 * time.Millisecond,
		Interfaces:    []string{"eth0", "wlan0"},
		StartMode:     ModeIdle,
	}
}

type Server struct {
	cfg  Config
	log  *slog.Logger
	disp hal.Display
	btn  hal.Buttons
	src  stats.Source

	canvas *gfx.Canvas
	term   *gfx.Terminal
	tree   *tree.Tree
	rep    *input.Repeater

	ln    *transport.Listener
	conns []*transport.Conn

	mode   atomic.Int32
	resume Mode
	text   []string
	ctl    chan request

	sinkMu sync.Mutex
	sink   func(*hal.Bitmap)

	sleep func(context.Context, time.Duration) error
}

// New builds a server drawing on disp. Zero durations in cfg take their
// defaults.
func New(cfg Config, disp hal.Display, btn hal.Buttons, src stats.Source, log *slog.Logger) *Server {
	def := DefaultConfig()
	if cfg.SocketPath == "" {
		cfg.SocketPath = def.SocketPath
	}
	if cfg.Tick <= 0 {
		cfg.Tick = def.Tick
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = def.StatsInterval
	}
	if cfg.PollSlice <= 0 {
		cfg.PollSlice = def.PollSlice
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	w, h := disp.Size()
	s := &Server{
		cfg:    cfg,
		log:    log,
		disp:   disp,
		btn:    btn,
		src:    src,
		canvas: gfx.NewDefault(hal.NewBitmap(w, h)),
		tree:   tree.New(),
		rep:    input.NewRepeater(btn),
		resume: ModeIdle,
		ctl:    make(chan request, controlBacklog),
		sleep:  sleepContext,
	}
	s.setMode(cfg.StartMode)
	s.term = gfx.NewTerminal(s.canvas, idleX, textTop, textPitch)
	return s
}

// Mode returns the current display mode. It is safe to call from any
// goroutine.
func (s *Server) Mode() Mode { return Mode(s.mode.Load()) }

func (s *Server) setMode(m Mode) { s.mode.Store(int32(m)) }

// Tree exposes the menu tree to tests and the loop goroutine.
func (s *Server) Tree() *tree.Tree { return s.tree }

// Clients returns the number of connected clients.
func (s *Server) Clients() int { return len(s.conns) }

// SetFrameSink registers fn to receive every flushed frame. fn must not
// keep the bitmap.
func (s *Server) SetFrameSink(fn func(*hal.Bitmap)) {
	s.sinkMu.Lock()
	s.sink = fn
	s.sinkMu.Unlock()
}

// Listen binds the client socket.
func (s *Server) Listen() error {
	if s.ln != nil {
		return nil
	}
	ln, err := transport.Listen(s.cfg.SocketPath, s.log)
	if err != nil {
		return err
	}
	s.ln = ln
	s.log.Info("listening", "socket", s.cfg.SocketPath)
	return nil
}

// Run loops until ctx is done, then closes every client and the socket.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	defer s.teardown()
	for {
		if err := s.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// Step runs one iteration of the loop, including its sleep.
func (s *Server) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.applyControl()
	s.acceptOne()
	s.pump()

	switch s.Mode() {
	case ModeMenu:
		s.stepMenu()
		return s.sleep(ctx, s.cfg.Tick)
	case ModeIdle:
		s.canvas.Clear()
		s.drawIdle()
		s.flush()
		pressed, err := s.waitCenter(ctx)
		if err != nil {
			return err
		}
		if pressed {
			s.rep.Reset()
			s.setMode(ModeMenu)
			s.log.Debug("enter menu")
		}
		return nil
	default:
		return s.sleep(ctx, s.cfg.Tick)
	}
}

func (s *Server) stepMenu() {
	s.canvas.Clear()
	a := s.rep.Sample()
	out, exited := s.tree.Step(s.canvas, a)
	s.flush()
	if exited {
		s.setMode(ModeIdle)
		s.log.Debug("leave menu")
	}
	s.broadcast(out)
}

func (s *Server) flush() {
	bmp := s.canvas.Bitmap()
	if err := s.disp.Flush(bmp); err != nil {
		s.log.Warn("display flush failed", "err", err)
	}
	s.sinkMu.Lock()
	fn := s.sink
	s.sinkMu.Unlock()
	if fn != nil {
		fn(bmp)
	}
}

func (s *Server) acceptOne() {
	if s.ln == nil {
		return
	}
	c, ok := s.ln.TryAccept()
	if !ok {
		return
	}
	s.conns = append(s.conns, c)
	s.log.Info("client connected", "conn", c.ID(), "clients", len(s.conns))
}

// pump dispatches every complete message from every client and drops
// clients that have gone away.
func (s *Server) pump() {
	live := s.conns[:0]
	for _, c := range s.conns {
		msgs, err := c.Receive()
		for _, m := range msgs {
			s.dispatch(m)
		}
		if err != nil {
			s.log.Info("client disconnected", "conn", c.ID(), "err", err)
			_ = c.Close()
			continue
		}
		live = append(live, c)
	}
	clear(s.conns[len(live):])
	s.conns = live
}

// broadcast sends out to every client, dropping those that fail. A message
// that cannot be encoded is logged and skipped.
func (s *Server) broadcast(out []proto.Message) {
	var b []byte
	for _, m := range out {
		frame, err := proto.Encode(m)
		if err != nil {
			s.log.Error("drop outbound message", "action", m.Action, "err", err)
			continue
		}
		b = append(b, frame...)
	}
	if len(b) == 0 {
		return
	}
	live := s.conns[:0]
	for _, c := range s.conns {
		if err := c.SendRaw(b); err != nil {
			s.log.Warn("drop client", "conn", c.ID(), "err", err)
			_ = c.Close()
			continue
		}
		live = append(live, c)
	}
	clear(s.conns[len(live):])
	s.conns = live
}

func (s *Server) teardown() {
	for _, c := range s.conns {
		_ = c.Close()
	}
	s.conns = nil
	if s.ln != nil {
		if err := s.ln.Close(); err != nil {
			s.log.Warn("close listener", "err", err)
		}
		s.ln = nil
	}
	s.canvas.Clear()
	s.flush()
	s.log.Info("server stopped")
}
