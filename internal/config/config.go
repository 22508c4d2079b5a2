// Package config loads the server configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"oledmenu/menu/transport"
)

type Config struct {
	Socket  string  `yaml:"socket"`
	Display Display `yaml:"display"`
	Input   Input   `yaml:"input"`
	Stats   Stats   `yaml:"stats"`
	Loop    Loop    `yaml:"loop"`
	Control Control `yaml:"control"`
	Log     Log     `yaml:"log"`
}

// Display backends.
const (
	DisplaySSD1306  = "ssd1306"
	DisplayWindow   = "window"
	DisplayTerm     = "term"
	DisplayHeadless = "headless"
)

// Input backends.
const (
	InputGPIO    = "gpio"
	InputVirtual = "virtual"
)

type Display struct {
	Backend string `yaml:"backend"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	// Scale is the emulator pixel size.
	Scale   int `yaml:"scale"`
	I2CBus  int `yaml:"i2c_bus"`
	Address int `yaml:"address"`
}

// Pins are GPIO numbers as the host driver numbers them.
type Pins struct {
	Up     int `yaml:"up"`
	Right  int `yaml:"right"`
	Left   int `yaml:"left"`
	Down   int `yaml:"down"`
	Center int `yaml:"center"`
}

type Input struct {
	Backend   string        `yaml:"backend"`
	Pins      Pins          `yaml:"pins"`
	ActiveLow bool          `yaml:"active_low"`
	Bounce    time.Duration `yaml:"bounce"`
	// Poll bounds each wait for an edge.
	Poll time.Duration `yaml:"poll"`
}

type Stats struct {
	Interval         time.Duration `yaml:"interval"`
	Interfaces       []string      `yaml:"interfaces"`
	DiskPath         string        `yaml:"disk_path"`
	GPULoadPath      string        `yaml:"gpu_load_path"`
	PowerPath        string        `yaml:"power_path"`
	PowerModeCommand []string      `yaml:"power_mode_command"`
}

type Loop struct {
	Tick      time.Duration `yaml:"tick"`
	PollSlice time.Duration `yaml:"poll_slice"`
	// StartMode is "idle" or "menu".
	StartMode string `yaml:"start_mode"`
}

type Control struct {
	// Addr is the HTTP listen address; empty disables the control surface.
	Addr string `yaml:"addr"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

const (
	envSocket      = "OLEDMENU_SOCKET"
	envDisplay     = "OLEDMENU_DISPLAY"
	envInput       = "OLEDMENU_INPUT"
	envLogLevel    = "OLEDMENU_LOG_LEVEL"
	envLogFile     = "OLEDMENU_LOG_FILE"
	envControlAddr = "OLEDMENU_CONTROL_ADDR"
)

// Default matches a Jetson Nano with a 128x32 SSD1306 on I2C bus 1 and the
// switches on header pins 13, 15, 16, 18 and 19.
func Default() Config {
	return Config{
		Socket: transport.DefaultSocketPath,
		Display: Display{
			Backend: DisplaySSD1306,
			Width:   128,
			Height:  32,
			Scale:   4,
			I2CBus:  1,
			Address: 0x3C,
		},
		Input: Input{
			Backend: InputGPIO,
			Pins:    Pins{Up: 14, Right: 194, Left: 232, Down: 15, Center: 16},
			Bounce:  200 * time.Millisecond,
			Poll:    100 * time.Millisecond,
		},
		Stats: Stats{
			Interval:         time.Second,
			Interfaces:       []string{"eth0", "wlan0"},
			DiskPath:         "/",
			GPULoadPath:      "/sys/devices/gpu.0/load",
			PowerPath:        "/sys/bus/i2c/drivers/ina3221x/6-0040/iio:device0/in_power0_input",
			PowerModeCommand: []string{"nvpmodel", "-q"},
		},
		Loop: Loop{
			Tick:      50 * time.Millisecond,
			PollSlice: 100 * time.Millisecond,
			StartMode: "idle",
		},
		Control: Control{Addr: "127.0.0.1:8080"},
		Log:     Log{Level: "info", Format: "text"},
	}
}

// Load reads path over Default, then applies environment overrides. An
// empty path skips the file.
func Load(path string, environ []string) (Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	cfg.applyEnv(parseEnv(environ))
	return cfg, nil
}

func (c *Config) applyEnv(env map[string]string) {
	set := func(dst *string, key string) {
		if v, ok := env[key]; ok && strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&c.Socket, envSocket)
	set(&c.Display.Backend, envDisplay)
	set(&c.Input.Backend, envInput)
	set(&c.Log.Level, envLogLevel)
	set(&c.Log.File, envLogFile)
	if v, ok := env[envControlAddr]; ok {
		// Set but empty disables the control surface.
		c.Control.Addr = strings.TrimSpace(v)
	}
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || k == "" {
			continue
		}
		values[k] = v
	}
	return values
}

// PinList returns the pins in button order.
func (p Pins) PinList() [5]int {
	return [5]int{p.Up, p.Right, p.Left, p.Down, p.Center}
}

func (c Config) Validate() error {
	var errs []error
	if c.Socket == "" {
		errs = append(errs, errors.New("socket path is empty"))
	}
	switch c.Display.Backend {
	case DisplaySSD1306, DisplayWindow, DisplayTerm, DisplayHeadless:
	default:
		errs = append(errs, fmt.Errorf("unknown display backend %q", c.Display.Backend))
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		errs = append(errs, fmt.Errorf("display size must be positive (got %dx%d)", c.Display.Width, c.Display.Height))
	}
	if c.Display.Scale <= 0 {
		errs = append(errs, fmt.Errorf("display scale must be positive (got %d)", c.Display.Scale))
	}
	if c.Display.Address < 0 || c.Display.Address > 0x7F {
		errs = append(errs, fmt.Errorf("i2c address out of range (got %#x)", c.Display.Address))
	}
	switch c.Input.Backend {
	case InputGPIO, InputVirtual:
	default:
		errs = append(errs, fmt.Errorf("unknown input backend %q", c.Input.Backend))
	}
	if c.Input.Bounce < 0 {
		errs = append(errs, fmt.Errorf("input bounce must be >= 0 (got %s)", c.Input.Bounce))
	}
	for name, d := range map[string]time.Duration{
		"input poll":     c.Input.Poll,
		"stats interval": c.Stats.Interval,
		"loop tick":      c.Loop.Tick,
		"loop poll":      c.Loop.PollSlice,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive (got %s)", name, d))
		}
	}
	switch c.Loop.StartMode {
	case "idle", "menu":
	default:
		errs = append(errs, fmt.Errorf("unknown start mode %q", c.Loop.StartMode))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
