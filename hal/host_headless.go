package hal

// Headless is a Display that keeps frames in memory only.
type Headless struct {
	fs *frameStore
}

func NewHeadless(width, height int) *Headless {
	return &Headless{fs: newFrameStore(width, height)}
}

func (d *Headless) Size() (int, int) { return d.fs.size() }

func (d *Headless) Flush(b *Bitmap) error {
	d.fs.store(b)
	return nil
}

func (d *Headless) Close() error { return nil }

// Snapshot returns a copy of the last flushed frame.
func (d *Headless) Snapshot() *Bitmap {
	w, h := d.fs.size()
	b := NewBitmap(w, h)
	d.fs.snapshot(b)
	return b
}

// Frames reports how many frames have been flushed.
func (d *Headless) Frames() uint64 {
	d.fs.mu.Lock()
	defer d.fs.mu.Unlock()
	return d.fs.frames
}
