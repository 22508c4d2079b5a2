//go:build cgo

package hal

import (
	"context"
	"errors"
	"image"

	"oledmenu/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// Window shows frames in a desktop window and feeds the arrow keys into a
// Latch. Run must be called from the main goroutine.
type Window struct {
	fs    *frameStore
	latch *Latch
	scale int

	ctx     context.Context
	snap    *Bitmap
	img     *image.RGBA
	frameIm *ebiten.Image
}

func NewWindow(width, height, scale int, latch *Latch) (*Window, error) {
	if latch == nil {
		return nil, errors.New("hal: window: nil latch")
	}
	if scale < 1 {
		scale = 1
	}
	return &Window{
		fs:    newFrameStore(width, height),
		latch: latch,
		scale: scale,
		snap:  NewBitmap(width, height),
	}, nil
}

func (w *Window) Size() (int, int) { return w.fs.size() }

func (w *Window) Flush(b *Bitmap) error {
	w.fs.store(b)
	return nil
}

func (w *Window) Close() error { return nil }

// Run blocks until the window is closed or ctx is done.
func (w *Window) Run(ctx context.Context) error {
	w.ctx = ctx
	width, height := w.fs.size()
	ebiten.SetWindowTitle("oledmenu (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(width*w.scale, height*w.scale)
	ebiten.SetTPS(60)
	err := ebiten.RunGame(w)
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

func (w *Window) Update() error {
	if w.ctx != nil && w.ctx.Err() != nil {
		return ebiten.Termination
	}
	w.pollKeys()
	return nil
}

func (w *Window) Draw(screen *ebiten.Image) {
	width, height := w.fs.size()
	if w.img == nil {
		w.img = image.NewRGBA(image.Rect(0, 0, width, height))
		w.frameIm = ebiten.NewImage(width, height)
	}
	w.fs.snapshot(w.snap)
	w.snap.drawRGBA(w.img, 1)
	w.frameIm.WritePixels(w.img.Pix)
	screen.DrawImage(w.frameIm, nil)
}

func (w *Window) Layout(outsideWidth, outsideHeight int) (int, int) {
	return w.fs.size()
}
