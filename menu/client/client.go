// Package client builds and drives a menu on a remote menu server.
//
// Objects created here mirror nodes on the server. Values the user commits
// on the device arrive on a background goroutine and update the mirrors;
// Function callbacks run on their own goroutines, one at a time per
// Function.
package client

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"oledmenu/menu/proto"
	"oledmenu/menu/transport"
	"oledmenu/menu/tree"
)

var ErrClosed = errors.New("client: connection closed")

const DialTimeout = 2 * time.Second

// receiver takes an inbound update_value for one registered object.
type receiver interface {
	receive(v any)
}

type Client struct {
	conn net.Conn
	log  *slog.Logger

	wmu sync.Mutex

	mu    sync.Mutex
	objs  map[string]receiver
	err   error
	done  chan struct{}
	close sync.Once

	root *Menu
}

// Dial connects to the server socket at path.
func Dial(path string, log *slog.Logger) (*Client, error) {
	c, err := transport.Dial(path, DialTimeout)
	if err != nil {
		return nil, err
	}
	return New(c, log), nil
}

// New starts a client over an established connection.
func New(conn net.Conn, log *slog.Logger) *Client {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		conn: conn,
		log:  log,
		objs: make(map[string]receiver),
		done: make(chan struct{}),
	}
	c.root = &Menu{c: c, id: tree.RootID}
	go c.recvLoop()
	return c
}

// Root is the server's top-level menu.
func (c *Client) Root() *Menu { return c.root }

// Done is closed once the connection is gone.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

// Reset clears the whole menu on the server.
func (c *Client) Reset() error {
	c.mu.Lock()
	clear(c.objs)
	c.mu.Unlock()
	return c.send(proto.ResetMenu(""))
}

func (c *Client) recvLoop() {
	r := proto.NewReader(c.conn)
	for {
		m, err := r.ReadMessage()
		if errors.Is(err, proto.ErrBadMessage) {
			c.log.Warn("drop malformed message", "err", err)
			continue
		}
		if err != nil {
			c.finish(err)
			return
		}
		c.handle(m)
	}
}

func (c *Client) finish(err error) {
	c.close.Do(func() {
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			err = ErrClosed
		} else {
			err = fmt.Errorf("%w: %v", ErrClosed, err)
		}
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}

func (c *Client) handle(m proto.Message) {
	if m.Action != proto.ActionUpdateValue {
		c.log.Debug("ignore action", "action", m.Action)
		return
	}
	id, _ := m.StringArg(proto.KeyUUID)
	v, _ := m.Arg(proto.KeyValue)
	c.mu.Lock()
	o, ok := c.objs[id]
	c.mu.Unlock()
	if !ok {
		c.log.Debug("update for unknown object", "uuid", id)
		return
	}
	o.receive(v)
}

func (c *Client) send(msgs ...proto.Message) error {
	select {
	case <-c.done:
		return c.Err()
	default:
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if err := proto.Write(c.conn, msgs...); err != nil {
		return fmt.Errorf("client: send: %w", err)
	}
	return nil
}

func (c *Client) register(id string, r receiver) {
	c.mu.Lock()
	c.objs[id] = r
	c.mu.Unlock()
}

func (c *Client) create(createType string, parent, name string, value, step any) (string, error) {
	id := uuid.NewString()
	if err := c.send(proto.CreateItemMessage(createType, parent, name, id, value, step)); err != nil {
		return "", err
	}
	return id, nil
}
