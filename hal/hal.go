package hal

import (
	"errors"
	"fmt"
	"strings"
)

var ErrNotImplemented = errors.New("not implemented")

// Display consumes rendered frames.
//
// Flush must copy what it needs from b before returning; the caller reuses
// the bitmap for the next frame.
type Display interface {
	Size() (width, height int)
	Flush(b *Bitmap) error
	Close() error
}

// Button identifies one of the five navigation switches.
type Button uint8

const (
	ButtonUp Button = iota
	ButtonRight
	ButtonLeft
	ButtonDown
	ButtonCenter
)

// ButtonCount is the number of physical switches.
const ButtonCount = 5

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonRight:
		return "right"
	case ButtonLeft:
		return "left"
	case ButtonDown:
		return "down"
	case ButtonCenter:
		return "center"
	default:
		return fmt.Sprintf("Button(%d)", uint8(b))
	}
}

// ParseButton resolves a button name as printed by Button.String.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return ButtonUp, nil
	case "right":
		return ButtonRight, nil
	case "left":
		return ButtonLeft, nil
	case "down":
		return ButtonDown, nil
	case "center", "enter", "ok":
		return ButtonCenter, nil
	}
	return 0, fmt.Errorf("hal: unknown button %q", s)
}

// Buttons reports switch state.
//
// EdgeDetected reports whether a press edge was latched since the previous
// call for the same button, and clears it. Level reports whether the switch is
// held right now.
type Buttons interface {
	EdgeDetected(b Button) bool
	Level(b Button) bool
}

// Presser injects synthetic presses (keyboard, terminal, HTTP).
type Presser interface {
	Press(b Button)
}
