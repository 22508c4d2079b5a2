package hal

import "sync"

// frameStore holds the most recently flushed frame for readers on other
// goroutines.
type frameStore struct {
	mu     sync.Mutex
	bmp    *Bitmap
	frames uint64
}

func newFrameStore(width, height int) *frameStore {
	return &frameStore{bmp: NewBitmap(width, height)}
}

func (f *frameStore) size() (int, int) { return f.bmp.width, f.bmp.height }

func (f *frameStore) store(b *Bitmap) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bmp.CopyFrom(b)
	f.frames++
}

func (f *frameStore) snapshot(dst *Bitmap) uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	dst.CopyFrom(f.bmp)
	return f.frames
}
