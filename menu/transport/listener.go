package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"
)

// DefaultSocketPath is where the menu server listens unless configured.
const DefaultSocketPath = "/tmp/menu_socket"

// Listener accepts unix socket connections in the background and hands
// them out through TryAccept.
type Listener struct {
	ln   net.Listener
	path string
	log  *slog.Logger

	conns chan net.Conn
	done  chan struct{}
	once  sync.Once
}

// Listen binds path, replacing a stale socket file, and makes it
// world-accessible so unprivileged clients can connect.
func Listen(path string, log *slog.Logger) (*Listener, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("transport: remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", path, err)
	}
	if err := os.Chmod(path, 0o777); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("transport: chmod %s: %w", path, err)
	}
	l := &Listener{
		ln:    ln,
		path:  path,
		log:   log,
		conns: make(chan net.Conn, 1),
		done:  make(chan struct{}),
	}
	go l.acceptLoop()
	return l, nil
}

func (l *Listener) Path() string { return l.path }

func (l *Listener) acceptLoop() {
	for {
		c, err := l.ln.Accept()
		if err != nil {
			select {
			case <-l.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			l.log.Warn("accept failed", "err", err)
			time.Sleep(50 * time.Millisecond)
			continue
		}
		select {
		case l.conns <- c:
		case <-l.done:
			_ = c.Close()
			return
		}
	}
}

// TryAccept returns a pending connection, if any. It never blocks.
func (l *Listener) TryAccept() (*Conn, bool) {
	select {
	case c := <-l.conns:
		return NewConn(c, l.log), true
	default:
		return nil, false
	}
}

// Close stops accepting and removes the socket file.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		err = l.ln.Close()
		for drained := false; !drained; {
			select {
			case c := <-l.conns:
				_ = c.Close()
			default:
				drained = true
			}
		}
		if rerr := os.Remove(l.path); rerr != nil && !errors.Is(rerr, os.ErrNotExist) && err == nil {
			err = rerr
		}
	})
	return err
}

// Dial connects to a menu server socket.
func Dial(path string, timeout time.Duration) (net.Conn, error) {
	c, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", path, err)
	}
	return c, nil
}
