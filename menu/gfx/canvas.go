// Package gfx draws menu text onto a monochrome bitmap through tinyfont.
package gfx

import (
	"image/color"

	"oledmenu/hal"
	"oledmenu/menu/fonts/font5x7"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

var (
	on  = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	off = color.RGBA{A: 0xFF}
)

// Canvas adapts a hal.Bitmap to drivers.Displayer and adds the few drawing
// primitives the menu needs. Text positions are row tops, not baselines.
type Canvas struct {
	bmp    *hal.Bitmap
	font   tinyfont.Fonter
	ascent int16
}

var _ drivers.Displayer = (*Canvas)(nil)

// New uses font with the given ascent (rows above the baseline).
func New(bmp *hal.Bitmap, font tinyfont.Fonter, ascent int16) *Canvas {
	return &Canvas{bmp: bmp, font: font, ascent: ascent}
}

// NewDefault uses the built-in 5x7 font.
func NewDefault(bmp *hal.Bitmap) *Canvas {
	return New(bmp, font5x7.Font, font5x7.Ascent)
}

func (c *Canvas) Bitmap() *hal.Bitmap { return c.bmp }

func (c *Canvas) Size() (x, y int16) {
	return int16(c.bmp.Width()), int16(c.bmp.Height())
}

func (c *Canvas) SetPixel(x, y int16, col color.RGBA) {
	c.bmp.Set(int(x), int(y), col.R|col.G|col.B != 0)
}

func (c *Canvas) Display() error { return nil }

func (c *Canvas) Clear() { c.bmp.Clear() }

func (c *Canvas) FillRect(x, y, w, h int16, lit bool) {
	c.bmp.Fill(int(x), int(y), int(w), int(h), lit)
}

// Text draws s with its top row at y. lit=false draws dark pixels, for text
// over a filled background.
func (c *Canvas) Text(x, y int16, s string, lit bool) {
	col := on
	if !lit {
		col = off
	}
	tinyfont.WriteLine(c, c.font, x, y+c.ascent, s, col)
}

func (c *Canvas) TextWidth(s string) int16 {
	_, outbox := tinyfont.LineWidth(c.font, s)
	return int16(outbox)
}

func (c *Canvas) LineHeight() int16 {
	return int16(c.font.GetYAdvance())
}
