package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Wire format:
// ┌─────────┬─────────────────┐
// │ Length  │     Payload     │
// │ 2 bytes │   UTF-8 JSON    │
// │ (LE u16)│                 │
// └─────────┴─────────────────┘

const (
	headerLen = 2

	// MaxPayload is the largest payload a frame can carry.
	MaxPayload = 0xFFFF
)

var ErrTooLarge = errors.New("proto: payload too large")

// AppendFrame appends one frame carrying payload to dst.
func AppendFrame(dst, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return dst, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(payload))
	}
	dst = binary.LittleEndian.AppendUint16(dst, uint16(len(payload)))
	return append(dst, payload...), nil
}

// Encode marshals msgs into consecutive frames.
func Encode(msgs ...Message) ([]byte, error) {
	var out []byte
	for _, m := range msgs {
		b, err := Marshal(m)
		if err != nil {
			return nil, err
		}
		if out, err = AppendFrame(out, b); err != nil {
			return nil, fmt.Errorf("proto: %s: %w", m.Action, err)
		}
	}
	return out, nil
}

// Write encodes msgs and writes them with a single Write call.
func Write(w io.Writer, msgs ...Message) error {
	b, err := Encode(msgs...)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write frames: %w", err)
	}
	return nil
}

// Decoder splits a byte stream into frame payloads. Bytes of an incomplete
// frame are kept until the rest arrives.
type Decoder struct {
	buf []byte
}

// Feed appends received bytes.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
}

// Next returns the next complete payload, if any.
func (d *Decoder) Next() ([]byte, bool) {
	if len(d.buf) < headerLen {
		return nil, false
	}
	n := int(binary.LittleEndian.Uint16(d.buf))
	if len(d.buf) < headerLen+n {
		return nil, false
	}
	payload := make([]byte, n)
	copy(payload, d.buf[headerLen:headerLen+n])
	rest := copy(d.buf, d.buf[headerLen+n:])
	d.buf = d.buf[:rest]
	return payload, true
}

// Buffered reports how many bytes are waiting for a complete frame.
func (d *Decoder) Buffered() int { return len(d.buf) }

// Reader reads messages from a blocking stream.
type Reader struct {
	r   io.Reader
	dec Decoder
	buf []byte
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r, buf: make([]byte, 1024)}
}

// ReadMessage blocks until a full frame is available. A payload that fails
// to decode is consumed and reported as ErrBadMessage; the stream stays
// usable.
func (r *Reader) ReadMessage() (Message, error) {
	for {
		if payload, ok := r.dec.Next(); ok {
			return Unmarshal(payload)
		}
		n, err := r.r.Read(r.buf)
		if n > 0 {
			r.dec.Feed(r.buf[:n])
			continue
		}
		if err != nil {
			return Message{}, err
		}
	}
}
