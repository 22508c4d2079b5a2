package hal

import "testing"

func TestBitmapSetAt(t *testing.T) {
	b := NewBitmap(10, 3)
	b.Set(9, 2, true)
	b.Set(0, 0, true)
	b.Set(-1, 0, true)
	b.Set(10, 0, true)

	if !b.At(9, 2) || !b.At(0, 0) {
		t.Fatal("expected set pixels to read back")
	}
	if b.At(1, 0) {
		t.Fatal("unexpected pixel at (1,0)")
	}

	b.Set(9, 2, false)
	if b.At(9, 2) {
		t.Fatal("expected pixel cleared")
	}
}

func TestBitmapFillClips(t *testing.T) {
	b := NewBitmap(4, 4)
	b.Fill(2, 2, 10, 10, true)
	n := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if b.At(x, y) {
				n++
			}
		}
	}
	if n != 4 {
		t.Fatalf("filled pixels = %d, want 4", n)
	}
}

func TestBitmapPages(t *testing.T) {
	b := NewBitmap(2, 16)
	b.Set(0, 0, true)
	b.Set(0, 7, true)
	b.Set(1, 8, true)

	p := b.Pages(nil)
	if len(p) != 4 {
		t.Fatalf("len = %d, want 4", len(p))
	}
	if p[0] != 0x81 {
		t.Fatalf("page0 col0 = %#x, want 0x81", p[0])
	}
	if p[1] != 0 {
		t.Fatalf("page0 col1 = %#x, want 0", p[1])
	}
	if p[3] != 0x01 {
		t.Fatalf("page1 col1 = %#x, want 0x01", p[3])
	}
}

func TestBitmapBinary(t *testing.T) {
	b := NewBitmap(12, 2)
	b.Set(11, 1, true)

	data, err := b.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if data[0] != 12 || data[1] != 0 || data[2] != 2 || data[3] != 0 {
		t.Fatalf("header = % x", data[:4])
	}

	var got Bitmap
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if !got.At(11, 1) || got.Width() != 12 || got.Height() != 2 {
		t.Fatal("decoded bitmap differs")
	}
	if err := got.UnmarshalBinary(data[:5]); err == nil {
		t.Fatal("expected size mismatch error")
	}
}

func TestHeadlessSnapshot(t *testing.T) {
	d := NewHeadless(8, 8)
	b := NewBitmap(8, 8)
	b.Set(3, 3, true)
	if err := d.Flush(b); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	b.Clear()

	snap := d.Snapshot()
	if !snap.At(3, 3) {
		t.Fatal("snapshot must hold a copy of the flushed frame")
	}
	if d.Frames() != 1 {
		t.Fatalf("Frames() = %d, want 1", d.Frames())
	}
}
