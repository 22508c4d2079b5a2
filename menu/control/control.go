// Package control serves the HTTP surface for switching the display between
// statistics, blank and text, injecting button presses and watching frames.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"oledmenu/hal"
	"oledmenu/internal/buildinfo"
	"oledmenu/menu/server"
)

// Target is the display loop being controlled.
type Target interface {
	EnableStats() error
	DisableStats() error
	SetText(text string) error
	Mode() server.Mode
}

const (
	defaultScale = 4
	maxScale     = 16
)

type Server struct {
	addr    string
	target  Target
	presser hal.Presser
	log     *slog.Logger
	hub     *frameHub
}

// New builds the control surface. presser may be nil when buttons are real
// hardware.
func New(addr string, target Target, presser hal.Presser, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		addr:    addr,
		target:  target,
		presser: presser,
		log:     log,
		hub:     newFrameHub(),
	}
}

// Publish records a flushed frame. It is safe to use as a server frame sink.
func (s *Server) Publish(b *hal.Bitmap) { s.hub.publish(b) }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /stats/on", s.handleStatsOn)
	mux.HandleFunc("GET /stats/off", s.handleStatsOff)
	mux.HandleFunc("GET /text/{text...}", s.handleText)
	mux.HandleFunc("POST /press/{button}", s.handlePress)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /frame", s.handleFrame)
	mux.HandleFunc("GET /ws/frame", s.handleFrameStream)
	return mux
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("control: listen %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	s.log.Info("control listening", "addr", ln.Addr().String())

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control: %w", err)
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			_ = srv.Close()
		}
		return nil
	}
}

func (s *Server) handleStatsOn(w http.ResponseWriter, r *http.Request) {
	if !s.post(w, s.target.EnableStats()) {
		return
	}
	fmt.Fprint(w, "stats enabled")
}

func (s *Server) handleStatsOff(w http.ResponseWriter, r *http.Request) {
	if !s.post(w, s.target.DisableStats()) {
		return
	}
	fmt.Fprint(w, "stats disabled")
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	text := strings.ReplaceAll(r.PathValue("text"), `\n`, "\n")
	if !s.post(w, s.target.SetText(text)) {
		return
	}
	fmt.Fprintf(w, "set text: \n\n%s", text)
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	if s.presser == nil {
		http.Error(w, "buttons are not virtual", http.StatusNotImplemented)
		return
	}
	b, err := hal.ParseButton(r.PathValue("button"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.presser.Press(b)
	fmt.Fprintf(w, "pressed %s", b)
}

type status struct {
	Mode        string `json:"mode"`
	Version     string `json:"version"`
	Subscribers int    `json:"subscribers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status{
		Mode:        s.target.Mode().String(),
		Version:     buildinfo.Short(),
		Subscribers: s.hub.count(),
	})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	b := s.hub.snapshot()
	if b == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	scale := defaultScale
	if q := r.URL.Query().Get("scale"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 || n > maxScale {
			http.Error(w, "bad scale", http.StatusBadRequest)
			return
		}
		scale = n
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, b.Image(scale)); err != nil {
		s.log.Warn("encode frame", "err", err)
	}
}

// post maps a queue error to 503. It reports whether the request succeeded.
func (s *Server) post(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, server.ErrBusy) {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return false
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
	return false
}
