package server

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"oledmenu/hal"
	"oledmenu/menu/input"
	"oledmenu/menu/stats"
)

const (
	idleX       = 4
	idleColumn  = 24
	textTop     = 2
	textPitch   = 10
	noAddress   = "IP: not available"
	idleHeaders = "PWR CPU GPU RAM DSK"
)

// drawIdle renders the statistics screen.
func (s *Server) drawIdle() {
	lh := s.canvas.LineHeight()
	s.canvas.Text(idleX, 0, s.addressLine(), true)
	s.canvas.Text(idleX, lh, "MODE: "+s.src.PowerMode(), true)
	for i, h := range strings.Fields(idleHeaders) {
		s.canvas.Text(int16(i*idleColumn+idleX), 2*lh, h, true)
	}
	for i, v := range statValues(s.src) {
		s.canvas.Text(int16(i*idleColumn+idleX), 3*lh, v, true)
	}
}

func (s *Server) addressLine() string {
	for _, iface := range s.cfg.Interfaces {
		if ip, ok := s.src.IPAddress(iface); ok {
			return "IP: " + ip
		}
	}
	return noAddress
}

// statValues formats power in watts and the four usages as whole percents,
// in header order.
func statValues(src stats.Source) []string {
	return []string{
		fmt.Sprintf("%.1f", src.Power()),
		percent(src.CPU()),
		percent(src.GPU()),
		percent(src.Memory()),
		percent(src.Disk()),
	}
}

// percent rounds to a tenth of a percent, then truncates.
func percent(frac float64) string {
	p := math.Round(frac*1000) / 10
	return fmt.Sprintf("%02d%%", int(p))
}

// waitCenter sleeps one stats interval in PollSlice steps and reports
// whether Center was pressed. A press drains every latched edge.
func (s *Server) waitCenter(ctx context.Context) (bool, error) {
	slices := int(s.cfg.StatsInterval / s.cfg.PollSlice)
	if slices < 1 {
		slices = 1
	}
	for i := 0; i < slices; i++ {
		if s.btn.EdgeDetected(hal.ButtonCenter) {
			input.DrainEdges(s.btn)
			return true, nil
		}
		if s.controlPending() {
			return false, nil
		}
		if err := s.sleep(ctx, s.cfg.PollSlice); err != nil {
			return false, err
		}
	}
	return false, nil
}

// drawText renders static lines from the top left.
func (s *Server) drawText() { s.term.Print(s.text) }

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
