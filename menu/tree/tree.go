// Package tree holds the server-side menu tree and its navigation state
// machine.
//
// Nodes live in an arena keyed by id. Children are id lists and parents are
// ids, so going back is a lookup. A Tree is not safe for concurrent use; the
// server loop owns it.
package tree

import (
	"errors"
	"fmt"
	"strconv"

	"oledmenu/menu/input"
	"oledmenu/menu/proto"
)

// RootID is the id of the root menu.
const RootID = "base"

const (
	returnLabel    = "<< Return"
	completedLabel = "<< Completed"
	// synthetic ids cannot collide with client ids, which never start with '~'.
	syntheticPrefix = "~"
)

var (
	ErrNotFound     = errors.New("tree: node not found")
	ErrNotMenu      = errors.New("tree: node is not a menu")
	ErrDuplicateID  = errors.New("tree: duplicate id")
	ErrInvalidID    = errors.New("tree: invalid id")
	ErrInvalidValue = errors.New("tree: invalid value")
	ErrNotUpdatable = errors.New("tree: node does not take values")
)

type container interface {
	Node
	menu() *Menu
}

type Tree struct {
	nodes map[string]Node
	root  *Menu
	view  Node
	seq   uint64
}

func New() *Tree {
	t := &Tree{}
	t.Reset()
	return t
}

// Reset replaces the whole tree with an empty root and shows it.
func (t *Tree) Reset() {
	t.nodes = make(map[string]Node)
	t.root = &Menu{Item: Item{id: RootID}}
	t.nodes[RootID] = t.root
	t.addReturn(t.root, returnLabel, nil)
	t.view = t.root
}

func (t *Tree) Root() *Menu { return t.root }

// View returns the node currently shown.
func (t *Tree) View() Node { return t.view }

// Len returns the number of nodes, synthetic returns included.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) Lookup(id string) (Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

func (t *Tree) parentOf(n Node) Node {
	if n == nil || n.ParentID() == "" {
		return nil
	}
	p, ok := t.nodes[n.ParentID()]
	if !ok {
		return nil
	}
	return p
}

// within reports whether n is anc or one of its descendants.
func (t *Tree) within(n Node, anc Node) bool {
	for n != nil {
		if n.ID() == anc.ID() {
			return true
		}
		n = t.parentOf(n)
	}
	return false
}

func (t *Tree) nextSyntheticID() string {
	t.seq++
	return syntheticPrefix + "return/" + strconv.FormatUint(t.seq, 10)
}

func (t *Tree) addReturn(parent container, label string, onActivate func()) *Return {
	r := &Return{
		Item:       Item{id: t.nextSyntheticID(), name: label, parent: parent.ID()},
		onActivate: onActivate,
	}
	t.nodes[r.id] = r
	m := parent.menu()
	m.children = append(m.children, r.id)
	return r
}

// dropChildren removes every descendant of m from the arena.
func (t *Tree) dropChildren(m *Menu) {
	for _, id := range m.children {
		n, ok := t.nodes[id]
		if !ok {
			continue
		}
		if c, ok := n.(container); ok {
			t.dropChildren(c.menu())
		}
		delete(t.nodes, id)
	}
	m.children = nil
	m.selected, m.first = 0, 0
}

// NodeDef describes a node to create.
type NodeDef struct {
	Kind   Kind
	Parent string
	ID     string
	Name   string
	Value  Value
	Step   *float64
}

// Create adds a node as the last child of def.Parent. A new child of a
// Function becomes its selection.
func (t *Tree) Create(def NodeDef) (Node, error) {
	if def.ID == "" || def.ID[0] == syntheticPrefix[0] {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, def.ID)
	}
	if _, ok := t.nodes[def.ID]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, def.ID)
	}
	pn, ok := t.nodes[def.Parent]
	if !ok {
		return nil, fmt.Errorf("%w: parent %s", ErrNotFound, def.Parent)
	}
	parent, ok := pn.(container)
	if !ok {
		return nil, fmt.Errorf("%w: %s is a %s", ErrNotMenu, def.Parent, pn.Kind())
	}

	base := Item{id: def.ID, name: def.Name, parent: def.Parent}
	var n Node
	switch def.Kind {
	case KindItem:
		n = &base
	case KindMenu:
		m := &Menu{Item: base}
		t.addReturn(m, returnLabel, nil)
		n = m
	case KindFunction:
		n = &Function{Menu: Menu{Item: base}}
	case KindVariable:
		v, err := newVariable(base, def.Value, def.Step)
		if err != nil {
			return nil, err
		}
		n = v
	default:
		return nil, fmt.Errorf("tree: cannot create %s", def.Kind)
	}
	t.nodes[def.ID] = n

	pm := parent.menu()
	pm.children = append(pm.children, def.ID)
	if _, ok := parent.(*Function); ok {
		pm.selected = len(pm.children) - 1
	}
	return n, nil
}

// ResetMenu clears the children of the menu or function id.
//
// A menu keeps its return entry; a view inside the cleared subtree moves to
// the menu. A function goes back to its idle state; a view on or inside it
// moves to its parent.
func (t *Tree) ResetMenu(id string) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch m := n.(type) {
	case *Function:
		inside := t.within(t.view, m)
		t.resetFunction(m)
		if inside {
			t.view = t.showable(t.parentOf(m))
		}
	case *Menu:
		inside := t.view != Node(m) && t.within(t.view, m)
		t.dropChildren(m)
		t.addReturn(m, returnLabel, nil)
		if inside {
			t.view = m
		}
	default:
		return fmt.Errorf("%w: %s is a %s", ErrNotMenu, id, n.Kind())
	}
	return nil
}

func (t *Tree) resetFunction(fn *Function) {
	t.dropChildren(&fn.Menu)
	fn.active = false
	fn.done = ""
}

// showable falls back to the root when n is gone.
func (t *Tree) showable(n Node) Node {
	if n == nil {
		return t.root
	}
	return n
}

// Update applies a value sent by a client.
//
// For a Function the value reports completion: truthy ends the run at once,
// falsy appends a completion entry the user must select.
func (t *Tree) Update(id string, raw any) error {
	n, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	switch x := n.(type) {
	case *Function:
		t.complete(x, proto.Truthy(raw))
		return nil
	case *Variable:
		v, err := ValueOf(raw)
		if err != nil {
			return err
		}
		if err := x.set(v); err != nil {
			return fmt.Errorf("%s: %w", id, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: %s is a %s", ErrNotUpdatable, id, n.Kind())
	}
}

func (t *Tree) complete(fn *Function, ok bool) {
	if ok {
		if t.within(t.view, fn) {
			t.view = t.showable(t.parentOf(fn))
		}
		t.resetFunction(fn)
		return
	}
	if !fn.active || fn.done != "" {
		return
	}
	r := t.addReturn(fn, completedLabel, func() { t.resetFunction(fn) })
	fn.done = r.id
	fn.selected = len(fn.children) - 1
}

// Step renders one frame for action a and advances the view. exited reports
// that the user left the root menu; the view is back at the root.
func (t *Tree) Step(c Canvas, a input.Action) (out []proto.Message, exited bool) {
	if t.view == nil {
		t.view = t.root
	}
	f := &Frame{tree: t, canvas: c}
	next := t.view.React(f, a)
	if next == nil {
		t.view = t.root
		return f.out, true
	}
	t.view = next
	return f.out, false
}

func callMessage(id string) proto.Message {
	return proto.UpdateValue(id, proto.CallValue)
}
