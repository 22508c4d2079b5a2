package server

import (
	"errors"
	"strings"

	"oledmenu/menu/input"
)

// ErrBusy is returned when the control queue is full.
var ErrBusy = errors.New("server: control queue full")

const controlBacklog = 16

type requestKind int

const (
	reqStatsOn requestKind = iota
	reqStatsOff
	reqText
)

type request struct {
	kind requestKind
	text string
}

// EnableStats leaves off or text mode. It is safe to call from any
// goroutine.
func (s *Server) EnableStats() error { return s.post(request{kind: reqStatsOn}) }

// DisableStats blanks the display and ignores buttons until stats are
// enabled again.
func (s *Server) DisableStats() error { return s.post(request{kind: reqStatsOff}) }

// SetText shows text, one line per '\n', until stats are enabled again.
func (s *Server) SetText(text string) error {
	return s.post(request{kind: reqText, text: text})
}

func (s *Server) post(r request) error {
	select {
	case s.ctl <- r:
		return nil
	default:
		return ErrBusy
	}
}

func (s *Server) controlPending() bool { return len(s.ctl) > 0 }

// applyControl runs queued requests on the loop goroutine.
func (s *Server) applyControl() {
	for {
		select {
		case r := <-s.ctl:
			s.apply(r)
		default:
			return
		}
	}
}

func (s *Server) apply(r request) {
	switch r.kind {
	case reqStatsOn:
		switch s.Mode() {
		case ModeOff, ModeText:
			input.DrainEdges(s.btn)
			s.rep.Reset()
			s.setMode(s.resume)
		}
	case reqStatsOff:
		s.enterStatic(ModeOff, nil)
	case reqText:
		s.enterStatic(ModeText, strings.Split(r.text, "\n"))
	}
	s.log.Info("control", "mode", s.Mode())
}

// enterStatic switches to a mode that draws once and then only services
// clients.
func (s *Server) enterStatic(m Mode, text []string) {
	switch cur := s.Mode(); cur {
	case ModeMenu, ModeIdle:
		s.resume = cur
	}
	s.text = text
	s.setMode(m)
	s.canvas.Clear()
	if m == ModeText {
		s.drawText()
	}
	s.flush()
}
