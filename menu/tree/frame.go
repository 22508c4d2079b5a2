package tree

import "oledmenu/menu/proto"

// Canvas is the drawing surface a step renders onto. y positions are row
// tops.
type Canvas interface {
	Size() (w, h int16)
	LineHeight() int16
	FillRect(x, y, w, h int16, lit bool)
	Text(x, y int16, s string, lit bool)
	TextWidth(s string) int16
}

// Frame carries the state of one navigation step.
type Frame struct {
	tree   *Tree
	canvas Canvas
	out    []proto.Message
}

func (f *Frame) emit(m proto.Message) {
	f.out = append(f.out, m)
}

// pageSize is the number of list rows that fit on the canvas.
func (f *Frame) pageSize() int {
	_, h := f.canvas.Size()
	lh := f.canvas.LineHeight()
	if lh <= 0 || h < lh {
		return 1
	}
	return int(h / lh)
}

// centered draws s horizontally centered with its top row at y.
func (f *Frame) centered(y int16, s string) {
	w, _ := f.canvas.Size()
	x := (w - f.canvas.TextWidth(s)) / 2
	if x < 0 {
		x = 0
	}
	f.canvas.Text(x, y, s, true)
}
