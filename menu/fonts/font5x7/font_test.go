package font5x7

import (
	"image/color"
	"testing"

	"tinygo.org/x/tinyfont"
)

type pixelSink struct {
	on map[[2]int16]bool
}

func (p *pixelSink) Size() (int16, int16) { return 128, 32 }
func (p *pixelSink) Display() error       { return nil }
func (p *pixelSink) SetPixel(x, y int16, c color.RGBA) {
	if p.on == nil {
		p.on = map[[2]int16]bool{}
	}
	p.on[[2]int16{x, y}] = true
}

func TestGlyphDrawsFromTopRow(t *testing.T) {
	var p pixelSink
	Font.GetGlyph('I').Draw(&p, 10, 20, color.RGBA{R: 255, A: 255})

	// 'I' has a full vertical bar in column 2 spanning rows 0..6.
	for row := int16(0); row < 7; row++ {
		if !p.on[[2]int16{12, 20 - Ascent + row}] {
			t.Fatalf("missing pixel at row %d", row)
		}
	}
	if p.on[[2]int16{12, 20 - Ascent + 7}] {
		t.Fatal("unexpected descender pixel for 'I'")
	}
}

func TestUnknownRuneFallsBack(t *testing.T) {
	if glyphIndex('é') != glyphIndex('?') {
		t.Fatal("expected non-ASCII rune to map to '?'")
	}
	if glyphIndex('\n') != glyphIndex('?') {
		t.Fatal("expected control rune to map to '?'")
	}
}

func TestMetrics(t *testing.T) {
	if got := Font.GetYAdvance(); got != 8 {
		t.Fatalf("GetYAdvance() = %d, want 8", got)
	}
	_, outbox := tinyfont.LineWidth(Font, "abc")
	if outbox != 18 {
		t.Fatalf("LineWidth(abc) outbox = %d, want 18", outbox)
	}
}
