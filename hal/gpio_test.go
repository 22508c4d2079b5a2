package hal

import (
	"testing"
	"time"
)

func TestLatchRisingEdge(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	l := newLatchWithClock(20*time.Millisecond, clock)
	if l.EdgeDetected(ButtonUp) {
		t.Fatal("expected no edge before any input")
	}

	l.Set(ButtonUp, true)
	if !l.Level(ButtonUp) {
		t.Fatal("expected level high after Set(true)")
	}
	if !l.EdgeDetected(ButtonUp) {
		t.Fatal("expected edge after rising level")
	}
	if l.EdgeDetected(ButtonUp) {
		t.Fatal("expected edge cleared after read")
	}

	// Holding does not produce another edge.
	now = now.Add(time.Second)
	l.Set(ButtonUp, true)
	if l.EdgeDetected(ButtonUp) {
		t.Fatal("expected no edge while held")
	}
}

func TestLatchBounce(t *testing.T) {
	now := time.Unix(0, 0)
	clock := func() time.Time { return now }

	l := newLatchWithClock(20*time.Millisecond, clock)
	l.Set(ButtonCenter, true)
	if !l.EdgeDetected(ButtonCenter) {
		t.Fatal("expected first edge")
	}

	now = now.Add(5 * time.Millisecond)
	l.Set(ButtonCenter, false)
	now = now.Add(5 * time.Millisecond)
	l.Set(ButtonCenter, true)
	if l.EdgeDetected(ButtonCenter) {
		t.Fatal("expected bounce within window to be ignored")
	}

	now = now.Add(30 * time.Millisecond)
	l.Set(ButtonCenter, false)
	l.Set(ButtonCenter, true)
	if !l.EdgeDetected(ButtonCenter) {
		t.Fatal("expected edge after bounce window")
	}
}

func TestLatchPress(t *testing.T) {
	l := NewLatch(0)
	l.Press(ButtonLeft)
	if l.Level(ButtonLeft) {
		t.Fatal("Press must not change level")
	}
	if !l.EdgeDetected(ButtonLeft) {
		t.Fatal("expected edge after Press")
	}
	if l.EdgeDetected(ButtonRight) {
		t.Fatal("edges must be per button")
	}
}

func TestParseButton(t *testing.T) {
	for b := ButtonUp; b < ButtonCount; b++ {
		got, err := ParseButton(b.String())
		if err != nil {
			t.Fatalf("ParseButton(%q): %v", b.String(), err)
		}
		if got != b {
			t.Fatalf("ParseButton(%q) = %v, want %v", b.String(), got, b)
		}
	}
	if _, err := ParseButton("sideways"); err == nil {
		t.Fatal("expected error for unknown button")
	}
}
