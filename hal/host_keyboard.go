//go:build cgo

package hal

import "github.com/hajimehoshi/ebiten/v2"

var windowKeys = [ButtonCount][]ebiten.Key{
	ButtonUp:     {ebiten.KeyArrowUp, ebiten.KeyW},
	ButtonRight:  {ebiten.KeyArrowRight, ebiten.KeyD},
	ButtonLeft:   {ebiten.KeyArrowLeft, ebiten.KeyA},
	ButtonDown:   {ebiten.KeyArrowDown, ebiten.KeyS},
	ButtonCenter: {ebiten.KeyEnter, ebiten.KeySpace},
}

// pollKeys mirrors key state into the latch so held keys repeat like held
// switches.
func (w *Window) pollKeys() {
	for b, keys := range windowKeys {
		held := false
		for _, k := range keys {
			if ebiten.IsKeyPressed(k) {
				held = true
				break
			}
		}
		w.latch.Set(Button(b), held)
	}
}
