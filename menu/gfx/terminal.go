package gfx

import (
	"image/color"
	"strings"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyterm"
)

// Terminal prints lines of text through tinyterm into a window of a Canvas.
// Lines past the last row are dropped and long lines are clipped, never
// wrapped.
type Terminal struct {
	term *tinyterm.Terminal
	cfg  tinyterm.Config
	rows int
	cols int
}

// NewTerminal places the first row's top at (x, y) with pitch pixels
// between rows.
func NewTerminal(c *Canvas, x, y, pitch int16) *Terminal {
	w, h := c.Size()
	s := &termSurface{c: c, dx: x, dy: y, w: w - x, h: h - y}
	cell := c.TextWidth("0")
	t := &Terminal{
		term: tinyterm.NewTerminal(s),
		cfg: tinyterm.Config{
			Font:              c.font,
			FontHeight:        pitch,
			FontOffset:        c.ascent,
			UseSoftwareScroll: true,
		},
	}
	if pitch > 0 {
		t.rows = int(s.h / pitch)
	}
	if cell > 0 {
		t.cols = int(s.w / cell)
	}
	return t
}

func (t *Terminal) Rows() int { return t.rows }
func (t *Terminal) Cols() int { return t.cols }

// Print writes lines from the top row. It does not clear the canvas.
func (t *Terminal) Print(lines []string) {
	t.term.Configure(&t.cfg)
	if len(lines) > t.rows {
		lines = lines[:t.rows]
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		r := []rune(line)
		if len(r) > t.cols {
			r = r[:t.cols]
		}
		b.WriteString(string(r))
	}
	_, _ = t.term.Write([]byte(b.String()))
}

// termSurface offsets tinyterm's pixels into the canvas. Background fills
// are dropped: Print callers clear the canvas first, and tinyterm's cell
// clears reach into the neighbouring glyph.
type termSurface struct {
	c      *Canvas
	dx, dy int16
	w, h   int16
}

var _ tinyterm.Displayer = (*termSurface)(nil)

func (s *termSurface) Size() (x, y int16) { return s.w, s.h }

func (s *termSurface) SetPixel(x, y int16, col color.RGBA) {
	if x < 0 || y < 0 || x >= s.w || y >= s.h {
		return
	}
	s.c.SetPixel(x+s.dx, y+s.dy, col)
}

func (s *termSurface) Display() error { return nil }

func (s *termSurface) FillRectangle(x, y, width, height int16, col color.RGBA) error {
	if col.R|col.G|col.B == 0 {
		return nil
	}
	s.c.FillRect(x+s.dx, y+s.dy, width, height, true)
	return nil
}

func (s *termSurface) SetScroll(int16) {}

func (s *termSurface) SetRotation(drivers.Rotation) error { return nil }
