package hal

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOConfig selects the GPIO numbers of the five switches in Button order.
type GPIOConfig struct {
	Pins      [ButtonCount]int
	ActiveLow bool
	Bounce    time.Duration
	// Wait bounds each WaitForEdge call so Close is noticed.
	Wait time.Duration
}

// GPIOButtons feeds edge interrupts from five input pins into a Latch.
type GPIOButtons struct {
	*Latch

	pins      [ButtonCount]gpio.PinIn
	activeLow bool
	wait      time.Duration

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// OpenGPIOButtons initializes the host drivers and claims cfg.Pins.
func OpenGPIOButtons(cfg GPIOConfig) (*GPIOButtons, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init: %w", err)
	}
	var pins [ButtonCount]gpio.PinIn
	for b, num := range cfg.Pins {
		p := gpioreg.ByName(strconv.Itoa(num))
		if p == nil {
			return nil, fmt.Errorf("gpio: %s: no pin %d", Button(b), num)
		}
		pins[b] = p
	}
	return newGPIOButtons(pins, cfg)
}

func newGPIOButtons(pins [ButtonCount]gpio.PinIn, cfg GPIOConfig) (*GPIOButtons, error) {
	if cfg.Wait <= 0 {
		cfg.Wait = 100 * time.Millisecond
	}
	g := &GPIOButtons{
		Latch:     NewLatch(cfg.Bounce),
		pins:      pins,
		activeLow: cfg.ActiveLow,
		wait:      cfg.Wait,
		stop:      make(chan struct{}),
	}
	for b, p := range pins {
		if err := p.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
			return nil, fmt.Errorf("gpio: %s (%s): %w", Button(b), p, err)
		}
		g.Set(Button(b), g.pressed(p.Read()))
	}
	for b, p := range pins {
		g.wg.Add(1)
		go g.watch(Button(b), p)
	}
	return g, nil
}

func (g *GPIOButtons) pressed(l gpio.Level) bool {
	return bool(l) != g.activeLow
}

// watch follows one pin. An edge that leaves the level where it was is a
// tap shorter than the interrupt latency, so it is latched as a full press.
func (g *GPIOButtons) watch(b Button, p gpio.PinIn) {
	defer g.wg.Done()
	for {
		select {
		case <-g.stop:
			return
		default:
		}
		if !p.WaitForEdge(g.wait) {
			continue
		}
		level := g.pressed(p.Read())
		if level == g.Level(b) {
			g.Set(b, !level)
		}
		g.Set(b, level)
	}
}

func (g *GPIOButtons) Close() error {
	g.once.Do(func() {
		close(g.stop)
		for _, p := range g.pins {
			_ = p.Halt()
		}
		g.wg.Wait()
	})
	return nil
}
