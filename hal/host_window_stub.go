//go:build !cgo

package hal

import (
	"context"
	"fmt"
)

var errWindowNoCgo = fmt.Errorf("%w: window mode requires cgo (build/run with CGO_ENABLED=1)", ErrNotImplemented)

type Window struct{}

func NewWindow(width, height, scale int, latch *Latch) (*Window, error) {
	return nil, errWindowNoCgo
}

func (w *Window) Size() (int, int)          { return 0, 0 }
func (w *Window) Flush(*Bitmap) error       { return errWindowNoCgo }
func (w *Window) Close() error              { return nil }
func (w *Window) Run(context.Context) error { return errWindowNoCgo }
