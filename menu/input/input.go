// Package input turns five button channels into one navigation action per
// tick, with delayed auto-repeat for held buttons.
package input

import (
	"fmt"

	"oledmenu/hal"
)

// Action is a logical navigation input.
type Action uint8

const (
	Nothing Action = iota
	Center
	Up
	Down
	Left
	Right
)

func (a Action) String() string {
	switch a {
	case Nothing:
		return "nothing"
	case Center:
		return "center"
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// RepeatDelay is the number of consecutive matching held samples after
// which a held button starts repeating.
const RepeatDelay = 5

// edgeOrder is the order edge flags are consulted; the first set flag wins.
var edgeOrder = [hal.ButtonCount]struct {
	b hal.Button
	a Action
}{
	{hal.ButtonUp, Up},
	{hal.ButtonRight, Right},
	{hal.ButtonLeft, Left},
	{hal.ButtonDown, Down},
	{hal.ButtonCenter, Center},
}

// levelOrder is the priority for held buttons. Center never repeats.
var levelOrder = [...]struct {
	b hal.Button
	a Action
}{
	{hal.ButtonUp, Up},
	{hal.ButtonDown, Down},
	{hal.ButtonLeft, Left},
	{hal.ButtonRight, Right},
}

// Repeater samples Buttons once per tick. It is not safe for concurrent use.
type Repeater struct {
	btn   hal.Buttons
	held  Action
	count int
}

func NewRepeater(b hal.Buttons) *Repeater {
	return &Repeater{btn: b}
}

// Sample returns the action for this tick.
func (r *Repeater) Sample() Action {
	action := Nothing
	// Every flag is read so simultaneous presses do not leak into the next tick.
	for _, e := range edgeOrder {
		if r.btn.EdgeDetected(e.b) && action == Nothing {
			action = e.a
		}
	}
	if action != Nothing {
		return action
	}

	held := Nothing
	for _, l := range levelOrder {
		if r.btn.Level(l.b) {
			held = l.a
			break
		}
	}
	switch {
	case held != r.held:
		r.count = 0
		r.held = held
	case held != Nothing:
		r.count++
	}
	if r.count > RepeatDelay {
		r.count = RepeatDelay + 1
		return r.held
	}
	return Nothing
}

// Reset forgets any held state.
func (r *Repeater) Reset() {
	r.held = Nothing
	r.count = 0
}

// maxDrain bounds DrainEdges against a source that never clears.
const maxDrain = 64

// DrainEdges discards latched edges on every channel.
func DrainEdges(b hal.Buttons) {
	for ch := hal.Button(0); ch < hal.ButtonCount; ch++ {
		for i := 0; i < maxDrain && b.EdgeDetected(ch); i++ {
		}
	}
}
