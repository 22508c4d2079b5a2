package tree

import "oledmenu/menu/input"

// Menu is a navigable list of children with a scroll window.
type Menu struct {
	Item
	children []string
	selected int
	first    int
}

func (m *Menu) Kind() Kind { return KindMenu }

func (m *Menu) Labels() (string, string) { return ">> " + m.name, "" }

// Children returns the child ids in display order.
func (m *Menu) Children() []string {
	return append([]string(nil), m.children...)
}

// Selected returns the cursor index.
func (m *Menu) Selected() int { return m.selected }

// FirstVisible returns the index of the top row of the scroll window.
func (m *Menu) FirstVisible() int { return m.first }

func (m *Menu) menu() *Menu { return m }

func (m *Menu) React(f *Frame, a input.Action) Node {
	return m.react(f, a, m)
}

// react is shared with Function; self is the node returned to stay.
func (m *Menu) react(f *Frame, a input.Action, self Node) Node {
	if a == input.Center {
		if c := m.selectedNode(f.tree); c != nil {
			return c.React(f, input.Nothing)
		}
	}
	m.move(a, f.pageSize())
	m.render(f)
	return self
}

func (m *Menu) selectedNode(t *Tree) Node {
	if m.selected < 0 || m.selected >= len(m.children) {
		return nil
	}
	n, _ := t.Lookup(m.children[m.selected])
	return n
}

// move applies Up/Down with wraparound and keeps the cursor inside a
// page-sized window.
func (m *Menu) move(a input.Action, page int) {
	switch a {
	case input.Up:
		m.selected--
	case input.Down:
		m.selected++
	}
	n := len(m.children)
	switch {
	case n == 0:
		m.selected, m.first = 0, 0
	case m.selected < 0:
		m.selected = n - 1
		m.first = max(n-page, 0)
	case m.selected >= n:
		m.selected, m.first = 0, 0
	case m.selected < m.first:
		m.first = m.selected
	case m.selected >= m.first+page:
		m.first = m.selected - page + 1
	}
}

func (m *Menu) render(f *Frame) {
	c := f.canvas
	w, _ := c.Size()
	lh := c.LineHeight()
	page := f.pageSize()
	for row := 0; row < page; row++ {
		idx := m.first + row
		if idx >= len(m.children) {
			break
		}
		n, ok := f.tree.Lookup(m.children[idx])
		if !ok {
			continue
		}
		left, right := n.Labels()
		y := int16(row) * lh
		lit := true
		if idx == m.selected {
			c.FillRect(0, y, w, lh, true)
			lit = false
		}
		c.Text(0, y, left, lit)
		if right != "" {
			right = clipRight(c, right, w)
			c.Text(w-c.TextWidth(right), y, right, lit)
		}
	}
}

// clipRight drops trailing runes until s fits in width.
func clipRight(c Canvas, s string, width int16) string {
	r := []rune(s)
	for len(r) > 0 && c.TextWidth(string(r)) > width {
		r = r[:len(r)-1]
	}
	return string(r)
}

// Function is a menu whose entry triggers a remote action. While active it
// lists progress lines sent by the client.
type Function struct {
	Menu
	active bool
	done   string
}

func (fn *Function) Kind() Kind { return KindFunction }

func (fn *Function) Labels() (string, string) { return "[  " + fn.name + "  ]", "" }

// Active reports whether an invocation is in progress.
func (fn *Function) Active() bool { return fn.active }

func (fn *Function) React(f *Frame, a input.Action) Node {
	if !fn.active {
		fn.active = true
		f.emit(callMessage(fn.id))
	}
	return fn.react(f, a, fn)
}
