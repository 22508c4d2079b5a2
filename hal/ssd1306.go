package hal

import (
	"fmt"
	"strconv"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/host/v3"
)

// SSD1306Config addresses a panel on an I2C bus.
type SSD1306Config struct {
	Bus     int
	Address uint16
	Width   int
	Height  int
}

// SSD1306 drives a monochrome OLED panel.
type SSD1306 struct {
	mu     sync.Mutex
	bus    i2c.BusCloser
	dev    *ssd1306.Dev
	width  int
	height int
	pages  []byte
}

// OpenSSD1306 opens I2C bus cfg.Bus through the host drivers and
// initializes the panel.
func OpenSSD1306(cfg SSD1306Config) (*SSD1306, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("ssd1306: host init: %w", err)
	}
	bus, err := i2creg.Open(strconv.Itoa(cfg.Bus))
	if err != nil {
		return nil, fmt.Errorf("ssd1306: open i2c bus %d: %w", cfg.Bus, err)
	}
	d, err := newSSD1306(bus, cfg)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	return d, nil
}

func newSSD1306(bus i2c.BusCloser, cfg SSD1306Config) (*SSD1306, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Height%8 != 0 {
		return nil, fmt.Errorf("ssd1306: unsupported size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Address == 0 {
		cfg.Address = 0x3C
	}
	opts := ssd1306.DefaultOpts
	opts.W, opts.H = cfg.Width, cfg.Height
	// 32 row panels wire their COM pins sequentially.
	opts.Sequential = cfg.Height == 32
	dev, err := ssd1306.NewI2C(addressedBus{Bus: bus, addr: cfg.Address}, &opts)
	if err != nil {
		return nil, fmt.Errorf("ssd1306: init: %w", err)
	}
	return &SSD1306{bus: bus, dev: dev, width: cfg.Width, height: cfg.Height}, nil
}

// addressedBus sends every transaction to addr. The driver always
// targets 0x3C.
type addressedBus struct {
	i2c.Bus
	addr uint16
}

func (b addressedBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

func (d *SSD1306) Size() (int, int) { return d.width, d.height }

func (d *SSD1306) Flush(b *Bitmap) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pages = b.Pages(d.pages)
	if _, err := d.dev.Write(d.pages); err != nil {
		return fmt.Errorf("ssd1306: write frame: %w", err)
	}
	return nil
}

func (d *SSD1306) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	_ = d.dev.Halt()
	return d.bus.Close()
}
