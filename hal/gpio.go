package hal

import (
	"sync"
	"time"
)

// Latch turns raw switch levels into latched press edges.
//
// A rising edge is latched unless it arrives within the bounce window of the
// previously accepted edge on the same button. Latch implements Buttons and
// Presser and is safe for concurrent use.
type Latch struct {
	mu     sync.Mutex
	bounce time.Duration
	now    func() time.Time

	level [ButtonCount]bool
	edge  [ButtonCount]bool
	last  [ButtonCount]time.Time
}

func NewLatch(bounce time.Duration) *Latch {
	return newLatchWithClock(bounce, time.Now)
}

func newLatchWithClock(bounce time.Duration, now func() time.Time) *Latch {
	if now == nil {
		now = time.Now
	}
	if bounce < 0 {
		bounce = 0
	}
	return &Latch{bounce: bounce, now: now}
}

// Set records the current level of b.
func (l *Latch) Set(b Button, level bool) {
	if b >= ButtonCount {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	rising := level && !l.level[b]
	l.level[b] = level
	if !rising {
		return
	}
	t := l.now()
	if !l.last[b].IsZero() && t.Sub(l.last[b]) < l.bounce {
		return
	}
	l.last[b] = t
	l.edge[b] = true
}

// Press latches an edge without touching the level.
func (l *Latch) Press(b Button) {
	if b >= ButtonCount {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.edge[b] = true
}

func (l *Latch) EdgeDetected(b Button) bool {
	if b >= ButtonCount {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	e := l.edge[b]
	l.edge[b] = false
	return e
}

func (l *Latch) Level(b Button) bool {
	if b >= ButtonCount {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level[b]
}
