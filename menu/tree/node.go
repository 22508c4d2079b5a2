package tree

import (
	"fmt"

	"oledmenu/menu/input"
)

// Kind identifies a node variant.
type Kind uint8

const (
	KindItem Kind = iota + 1
	KindMenu
	KindFunction
	KindVariable
	KindReturn
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindMenu:
		return "menu"
	case KindFunction:
		return "func"
	case KindVariable:
		return "var"
	case KindReturn:
		return "return"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind resolves a create_type name. Return nodes cannot be created
// remotely.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "item":
		return KindItem, true
	case "menu":
		return KindMenu, true
	case "func":
		return KindFunction, true
	case "var":
		return KindVariable, true
	}
	return 0, false
}

// Node is one entry of the tree.
//
// React applies a in the context of f and returns the next view: the node
// itself to stay, another node to move, or nil to leave the menu entirely.
type Node interface {
	ID() string
	Name() string
	ParentID() string
	Kind() Kind
	// Labels are the left and right row texts used by a parent listing.
	Labels() (left, right string)
	React(f *Frame, a input.Action) Node
}

// Item is the common node base and a plain text leaf.
type Item struct {
	id     string
	name   string
	parent string
}

func (it *Item) ID() string       { return it.id }
func (it *Item) Name() string     { return it.name }
func (it *Item) ParentID() string { return it.parent }

func (it *Item) Kind() Kind { return KindItem }

func (it *Item) Labels() (string, string) { return it.name, "" }

// React on a plain item shows its parent listing again.
func (it *Item) React(f *Frame, _ input.Action) Node {
	p := f.tree.parentOf(it)
	if p == nil {
		return nil
	}
	return p.React(f, input.Nothing)
}

// Return leaves its owning menu. Its callback, if any, runs first.
type Return struct {
	Item
	onActivate func()
}

func (r *Return) Kind() Kind { return KindReturn }

func (r *Return) React(f *Frame, _ input.Action) Node {
	owner := f.tree.parentOf(r)
	if r.onActivate != nil {
		r.onActivate()
	}
	if owner == nil {
		return nil
	}
	target := f.tree.parentOf(owner)
	if target == nil {
		return nil
	}
	return target.React(f, input.Nothing)
}
