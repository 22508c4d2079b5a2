package hal

import (
	"encoding/binary"
	"errors"
	"image"
	"image/color"
)

// Bitmap is a 1bpp frame, row-major, most significant bit first.
type Bitmap struct {
	width  int
	height int
	stride int
	pix    []byte
}

func NewBitmap(width, height int) *Bitmap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	stride := (width + 7) / 8
	return &Bitmap{
		width:  width,
		height: height,
		stride: stride,
		pix:    make([]byte, stride*height),
	}
}

func (b *Bitmap) Width() int  { return b.width }
func (b *Bitmap) Height() int { return b.height }

func (b *Bitmap) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return
	}
	i := y*b.stride + x/8
	m := byte(0x80) >> (x % 8)
	if on {
		b.pix[i] |= m
	} else {
		b.pix[i] &^= m
	}
}

func (b *Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return false
	}
	return b.pix[y*b.stride+x/8]&(byte(0x80)>>(x%8)) != 0
}

// Fill sets every pixel of the rectangle, clipped to the frame.
func (b *Bitmap) Fill(x, y, w, h int, on bool) {
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, b.width), min(y+h, b.height)
	for yy := y0; yy < y1; yy++ {
		for xx := x0; xx < x1; xx++ {
			b.Set(xx, yy, on)
		}
	}
}

func (b *Bitmap) Clear() {
	clear(b.pix)
}

// CopyFrom copies src into b. Frames of different size are ignored.
func (b *Bitmap) CopyFrom(src *Bitmap) {
	if src == nil || src.width != b.width || src.height != b.height {
		return
	}
	copy(b.pix, src.pix)
}

func (b *Bitmap) Clone() *Bitmap {
	c := NewBitmap(b.width, b.height)
	copy(c.pix, b.pix)
	return c
}

// Pages encodes the frame in SSD1306 page order: one byte per column per
// 8-row page, bit 0 at the top.
func (b *Bitmap) Pages(dst []byte) []byte {
	pages := (b.height + 7) / 8
	n := pages * b.width
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	clear(dst)
	for p := 0; p < pages; p++ {
		for x := 0; x < b.width; x++ {
			var v byte
			for r := 0; r < 8; r++ {
				if b.At(x, p*8+r) {
					v |= 1 << r
				}
			}
			dst[p*b.width+x] = v
		}
	}
	return dst
}

const bitmapHeaderLen = 4

// MarshalBinary encodes width and height as little-endian uint16 followed by
// the packed rows.
func (b *Bitmap) MarshalBinary() ([]byte, error) {
	out := make([]byte, bitmapHeaderLen+len(b.pix))
	binary.LittleEndian.PutUint16(out[0:2], uint16(b.width))
	binary.LittleEndian.PutUint16(out[2:4], uint16(b.height))
	copy(out[bitmapHeaderLen:], b.pix)
	return out, nil
}

func (b *Bitmap) UnmarshalBinary(data []byte) error {
	if len(data) < bitmapHeaderLen {
		return errors.New("hal: bitmap: short header")
	}
	w := int(binary.LittleEndian.Uint16(data[0:2]))
	h := int(binary.LittleEndian.Uint16(data[2:4]))
	nb := NewBitmap(w, h)
	if len(data)-bitmapHeaderLen != len(nb.pix) {
		return errors.New("hal: bitmap: size mismatch")
	}
	copy(nb.pix, data[bitmapHeaderLen:])
	*b = *nb
	return nil
}

var (
	pixelOn  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	pixelOff = color.RGBA{A: 0xFF}
)

// Image renders the frame as RGBA, each pixel scaled to a scale x scale block.
func (b *Bitmap) Image(scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, b.width*scale, b.height*scale))
	b.drawRGBA(img, scale)
	return img
}

func (b *Bitmap) drawRGBA(img *image.RGBA, scale int) {
	for y := 0; y < b.height; y++ {
		for x := 0; x < b.width; x++ {
			c := pixelOff
			if b.At(x, y) {
				c = pixelOn
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					img.SetRGBA(x*scale+dx, y*scale+dy, c)
				}
			}
		}
	}
}
