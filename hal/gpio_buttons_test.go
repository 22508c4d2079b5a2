package hal

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

func testPins(l gpio.Level) ([ButtonCount]gpio.PinIn, [ButtonCount]*gpiotest.Pin) {
	var pins [ButtonCount]gpio.PinIn
	var raw [ButtonCount]*gpiotest.Pin
	for b := range pins {
		p := &gpiotest.Pin{N: Button(b).String(), Num: b, L: l, EdgesChan: make(chan gpio.Level, 4)}
		pins[b], raw[b] = p, p
	}
	return pins, raw
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestGPIOButtonsFollowEdges(t *testing.T) {
	pins, raw := testPins(gpio.Low)
	g, err := newGPIOButtons(pins, GPIOConfig{Wait: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("newGPIOButtons: %v", err)
	}
	defer g.Close()

	raw[ButtonDown].EdgesChan <- gpio.High
	waitFor(t, func() bool { return g.Level(ButtonDown) })
	if !g.EdgeDetected(ButtonDown) {
		t.Fatal("expected edge on down")
	}
	if g.Level(ButtonUp) {
		t.Fatal("up must stay released")
	}

	raw[ButtonDown].EdgesChan <- gpio.Low
	waitFor(t, func() bool { return !g.Level(ButtonDown) })
	if g.EdgeDetected(ButtonDown) {
		t.Fatal("release latched an edge")
	}
}

func TestGPIOButtonsLatchShortTap(t *testing.T) {
	pins, raw := testPins(gpio.Low)
	g, err := newGPIOButtons(pins, GPIOConfig{Wait: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("newGPIOButtons: %v", err)
	}
	defer g.Close()

	// Pressed and released before the level was read.
	raw[ButtonCenter].EdgesChan <- gpio.Low
	waitFor(t, func() bool { return len(raw[ButtonCenter].EdgesChan) == 0 })
	waitFor(t, func() bool { return g.EdgeDetected(ButtonCenter) })
	if g.Level(ButtonCenter) {
		t.Fatal("center must read released after a tap")
	}
}

func TestGPIOButtonsActiveLow(t *testing.T) {
	pins, raw := testPins(gpio.High)
	g, err := newGPIOButtons(pins, GPIOConfig{ActiveLow: true, Wait: 5 * time.Millisecond})
	if err != nil {
		t.Fatalf("newGPIOButtons: %v", err)
	}
	defer g.Close()

	if g.Level(ButtonLeft) {
		t.Fatal("high line must read released when active low")
	}
	raw[ButtonLeft].EdgesChan <- gpio.Low
	waitFor(t, func() bool { return g.Level(ButtonLeft) })
	if !g.EdgeDetected(ButtonLeft) {
		t.Fatal("expected edge on left")
	}
}
