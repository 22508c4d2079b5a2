package control

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"oledmenu/hal"
)

const (
	writeWait  = 2 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  512,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// frameHub keeps the latest frame and fans packed copies out to websocket
// subscribers. A slow subscriber only ever sees the newest frame.
type frameHub struct {
	mu   sync.Mutex
	last *hal.Bitmap
	subs map[chan []byte]struct{}
}

func newFrameHub() *frameHub {
	return &frameHub{subs: make(map[chan []byte]struct{})}
}

func (h *frameHub) publish(b *hal.Bitmap) {
	packed, err := b.MarshalBinary()
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil || h.last.Width() != b.Width() || h.last.Height() != b.Height() {
		h.last = b.Clone()
	} else {
		h.last.CopyFrom(b)
	}
	for ch := range h.subs {
		select {
		case <-ch:
		default:
		}
		ch <- packed
	}
}

// snapshot returns a copy of the latest frame, or nil before the first.
func (h *frameHub) snapshot() *hal.Bitmap {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.last == nil {
		return nil
	}
	return h.last.Clone()
}

func (h *frameHub) subscribe() chan []byte {
	ch := make(chan []byte, 1)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.last != nil {
		if packed, err := h.last.MarshalBinary(); err == nil {
			ch <- packed
		}
	}
	h.mu.Unlock()
	return ch
}

func (h *frameHub) unsubscribe(ch chan []byte) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

func (h *frameHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *Server) handleFrameStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", "err", err)
		return
	}
	ch := s.hub.subscribe()
	s.log.Debug("frame subscriber joined", "remote", r.RemoteAddr)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		s.hub.unsubscribe(ch)
		_ = conn.Close()
		s.log.Debug("frame subscriber left", "remote", r.RemoteAddr)
	}()
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case frame := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
