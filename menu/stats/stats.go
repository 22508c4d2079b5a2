// Package stats reads the system figures shown on the idle screen.
package stats

import (
	"bytes"
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	psnet "github.com/shirou/gopsutil/v3/net"
)

// Source provides idle screen figures. Usages are fractions in [0, 1].
// Unavailable readings are reported as zero or "unavailable".
type Source interface {
	CPU() float64
	GPU() float64
	Memory() float64
	Disk() float64
	Power() float64
	PowerMode() string
	IPAddress(iface string) (string, bool)
}

const Unavailable = "unavailable"

// Config locates the board-specific readings.
type Config struct {
	DiskPath string
	// GPULoadPath holds GPU load in tenths of a percent (0..1000).
	GPULoadPath string
	// PowerPath holds total board power in milliwatts.
	PowerPath        string
	PowerModeCommand []string
	CommandTimeout   time.Duration
}

// DefaultConfig matches a Jetson Nano.
func DefaultConfig() Config {
	return Config{
		DiskPath:         "/",
		GPULoadPath:      "/sys/devices/gpu.0/load",
		PowerPath:        "/sys/bus/i2c/drivers/ina3221x/6-0040/iio:device0/in_power0_input",
		PowerModeCommand: []string{"nvpmodel", "-q"},
		CommandTimeout:   time.Second,
	}
}

// System reads from the running host.
type System struct {
	cfg Config

	readFile func(string) ([]byte, error)
	run      func(ctx context.Context, name string, args ...string) ([]byte, error)
	addrs    func(iface string) ([]string, error)
}

func NewSystem(cfg Config) *System {
	if cfg.DiskPath == "" {
		cfg.DiskPath = "/"
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = time.Second
	}
	return &System{
		cfg:      cfg,
		readFile: os.ReadFile,
		run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		},
		addrs: interfaceAddrs,
	}
}

func (s *System) CPU() float64 {
	p, err := cpu.Percent(0, false)
	if err != nil || len(p) == 0 {
		return 0
	}
	return p[0] / 100
}

func (s *System) Memory() float64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.UsedPercent / 100
}

func (s *System) Disk() float64 {
	u, err := disk.Usage(s.cfg.DiskPath)
	if err != nil {
		return 0
	}
	return u.UsedPercent / 100
}

func (s *System) GPU() float64 {
	v, err := s.readNumber(s.cfg.GPULoadPath)
	if err != nil {
		return 0
	}
	return v / 1000
}

func (s *System) Power() float64 {
	v, err := s.readNumber(s.cfg.PowerPath)
	if err != nil {
		return 0
	}
	return v / 1000
}

func (s *System) readNumber(path string) (float64, error) {
	if path == "" {
		return 0, os.ErrNotExist
	}
	b, err := s.readFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
}

func (s *System) PowerMode() string {
	if len(s.cfg.PowerModeCommand) == 0 {
		return Unavailable
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CommandTimeout)
	defer cancel()
	out, err := s.run(ctx, s.cfg.PowerModeCommand[0], s.cfg.PowerModeCommand[1:]...)
	if err != nil {
		return Unavailable
	}
	return parsePowerMode(out)
}

// parsePowerMode extracts the mode name from "NV Power Mode: MAXN".
func parsePowerMode(out []byte) string {
	line, _, _ := bytes.Cut(out, []byte("\n"))
	s := strings.TrimSpace(string(line))
	if _, mode, ok := strings.Cut(s, ":"); ok {
		s = strings.TrimSpace(mode)
	}
	if s == "" {
		return Unavailable
	}
	return s
}

// IPAddress returns the first IPv4 address of iface.
func (s *System) IPAddress(iface string) (string, bool) {
	addrs, err := s.addrs(iface)
	if err != nil {
		return "", false
	}
	return firstIPv4(addrs)
}

func interfaceAddrs(iface string) ([]string, error) {
	ifs, err := psnet.Interfaces()
	if err != nil {
		return nil, err
	}
	for _, i := range ifs {
		if i.Name != iface {
			continue
		}
		out := make([]string, 0, len(i.Addrs))
		for _, a := range i.Addrs {
			out = append(out, a.Addr)
		}
		return out, nil
	}
	return nil, fmt.Errorf("stats: no interface %s", iface)
}

// firstIPv4 picks the first IPv4 entry from CIDR or bare addresses.
func firstIPv4(addrs []string) (string, bool) {
	for _, a := range addrs {
		host, _, _ := strings.Cut(a, "/")
		ip, err := netip.ParseAddr(host)
		if err != nil || !ip.Is4() {
			continue
		}
		return ip.String(), true
	}
	return "", false
}
