// Package transport carries framed messages over a unix stream socket
// without blocking the caller.
//
// Each connection has a reader goroutine that pushes raw chunks into a
// channel; Receive drains that channel with select/default and decodes
// whatever frames are complete.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"oledmenu/menu/proto"
)

var ErrClosed = errors.New("transport: connection closed")

const (
	readChunk    = 1024
	chunkBacklog = 64

	// DefaultWriteTimeout bounds a Send to a client that stopped reading.
	DefaultWriteTimeout = 200 * time.Millisecond
)

var connSeq atomic.Uint64

// Conn is one framed connection. Receive and Send must be called from a
// single goroutine.
type Conn struct {
	c   net.Conn
	id  uint64
	log *slog.Logger

	chunks chan []byte
	done   chan struct{}
	stop   chan struct{}
	err    error

	dec          proto.Decoder
	writeTimeout time.Duration
	closeOnce    sync.Once
}

// NewConn wraps c and starts its reader.
func NewConn(c net.Conn, log *slog.Logger) *Conn {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	id := connSeq.Add(1)
	conn := &Conn{
		c:            c,
		id:           id,
		log:          log.With("conn", id),
		chunks:       make(chan []byte, chunkBacklog),
		done:         make(chan struct{}),
		stop:         make(chan struct{}),
		writeTimeout: DefaultWriteTimeout,
	}
	go conn.readLoop()
	return conn
}

func (c *Conn) ID() uint64 { return c.id }

func (c *Conn) String() string { return fmt.Sprintf("conn#%d", c.id) }

// SetWriteTimeout changes the Send deadline; zero disables it.
func (c *Conn) SetWriteTimeout(d time.Duration) { c.writeTimeout = d }

func (c *Conn) readLoop() {
	defer close(c.done)
	for {
		buf := make([]byte, readChunk)
		n, err := c.c.Read(buf)
		if n > 0 {
			select {
			case c.chunks <- buf[:n]:
			case <-c.stop:
				c.err = ErrClosed
				return
			}
		}
		if err != nil {
			c.err = err
			return
		}
	}
}

// Receive returns every message completed by bytes read so far. It never
// blocks. Once the peer has gone and all its bytes are decoded, it returns
// ErrClosed alongside any final messages.
func (c *Conn) Receive() ([]proto.Message, error) {
	closed := false
	select {
	case <-c.done:
		closed = true
	default:
	}

drain:
	for {
		select {
		case b := <-c.chunks:
			c.dec.Feed(b)
		default:
			break drain
		}
	}

	var msgs []proto.Message
	for {
		payload, ok := c.dec.Next()
		if !ok {
			break
		}
		m, err := proto.Unmarshal(payload)
		if err != nil {
			c.log.Warn("drop malformed message", "err", err, "bytes", len(payload))
			continue
		}
		msgs = append(msgs, m)
	}

	if closed {
		if c.dec.Buffered() > 0 {
			c.log.Debug("discard partial frame", "bytes", c.dec.Buffered())
		}
		return msgs, fmt.Errorf("%w: %v", ErrClosed, c.err)
	}
	return msgs, nil
}

// Send writes all msgs in one write.
func (c *Conn) Send(msgs ...proto.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	b, err := proto.Encode(msgs...)
	if err != nil {
		return err
	}
	return c.SendRaw(b)
}

// SendRaw writes already framed bytes, so one encoding can be shared by
// every client.
func (c *Conn) SendRaw(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if c.writeTimeout > 0 {
		_ = c.c.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if _, err := c.c.Write(b); err != nil {
		return fmt.Errorf("%s: write: %w", c, err)
	}
	return nil
}

func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		err = c.c.Close()
	})
	return err
}
