package tree

import (
	"testing"

	"oledmenu/menu/input"
	"oledmenu/menu/proto"
)

func enterFunction(t *testing.T, tr *Tree) *Function {
	t.Helper()
	mustCreate(t, tr, NodeDef{Kind: KindFunction, Parent: RootID, ID: "f", Name: "run"})
	step(t, tr, input.Down)
	_, out, _ := step(t, tr, input.Center)
	if len(out) != 1 || out[0].Action != proto.ActionUpdateValue {
		t.Fatalf("out = %v, want one call update", out)
	}
	if v, _ := out[0].Arg(proto.KeyValue); v != proto.CallValue {
		t.Fatalf("value = %v, want %q", v, proto.CallValue)
	}
	n, _ := tr.Lookup("f")
	fn := n.(*Function)
	if !fn.Active() {
		t.Fatal("expected active after first display")
	}
	return fn
}

func TestFunctionCallsOnce(t *testing.T) {
	tr := New()
	enterFunction(t, tr)
	for i := 0; i < 3; i++ {
		if _, out, _ := step(t, tr, input.Nothing); len(out) != 0 {
			t.Fatalf("tick %d: unexpected out %v", i, out)
		}
	}
}

func TestFunctionProgressSelectsNewest(t *testing.T) {
	tr := New()
	fn := enterFunction(t, tr)
	for _, id := range []string{"p1", "p2", "p3", "p4", "p5"} {
		mustCreate(t, tr, NodeDef{Kind: KindItem, Parent: "f", ID: id, Name: id})
	}
	c, _, _ := step(t, tr, input.Nothing)
	if fn.Selected() != 4 || fn.FirstVisible() != 1 {
		t.Fatalf("selected=%d first=%d, want 4 1", fn.Selected(), fn.FirstVisible())
	}
	if tc, ok := c.find("p5"); !ok || tc.lit {
		t.Fatalf("newest line = %+v, want inverted", tc)
	}

	// Selecting a progress line keeps the function on screen.
	step(t, tr, input.Center)
	if tr.View() != Node(fn) {
		t.Fatalf("view = %s, want f", tr.View().ID())
	}
}

func TestFunctionTruthyCompletion(t *testing.T) {
	tr := New()
	fn := enterFunction(t, tr)
	mustCreate(t, tr, NodeDef{Kind: KindMenu, Parent: "f", ID: "deep", Name: "deep"})
	step(t, tr, input.Center)
	if tr.View().ID() != "deep" {
		t.Fatalf("view = %s, want deep", tr.View().ID())
	}

	if err := tr.Update("f", true); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tr.View() != Node(tr.Root()) {
		t.Fatalf("view = %s, want root", tr.View().ID())
	}
	if fn.Active() || len(fn.Children()) != 0 {
		t.Fatal("expected function reset")
	}
	if _, ok := tr.Lookup("deep"); ok {
		t.Fatal("expected progress nodes dropped")
	}
}

func TestFunctionTruthyOutsideLeavesView(t *testing.T) {
	tr := New()
	enterFunction(t, tr)
	mustCreate(t, tr, NodeDef{Kind: KindMenu, Parent: RootID, ID: "other", Name: "other"})
	tr.view = tr.root
	step(t, tr, input.Down)
	step(t, tr, input.Center)
	if tr.View().ID() != "other" {
		t.Fatalf("view = %s, want other", tr.View().ID())
	}
	if err := tr.Update("f", 1.0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if tr.View().ID() != "other" {
		t.Fatalf("view = %s, want other", tr.View().ID())
	}
}

func TestFunctionFalsyCompletion(t *testing.T) {
	tr := New()
	fn := enterFunction(t, tr)
	mustCreate(t, tr, NodeDef{Kind: KindItem, Parent: "f", ID: "p1", Name: "working"})

	if err := tr.Update("f", false); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := tr.Update("f", 0.0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	kids := fn.Children()
	if len(kids) != 2 {
		t.Fatalf("children = %v, want progress plus one completion entry", kids)
	}
	done, _ := tr.Lookup(kids[1])
	if done.Kind() != KindReturn || done.Name() != completedLabel {
		t.Fatalf("last child = %s %q", done.Kind(), done.Name())
	}
	if fn.Selected() != 1 {
		t.Fatalf("selected = %d, want completion entry", fn.Selected())
	}

	step(t, tr, input.Center)
	if tr.View() != Node(tr.Root()) {
		t.Fatalf("view = %s, want root", tr.View().ID())
	}
	if fn.Active() || len(fn.Children()) != 0 {
		t.Fatal("expected completion entry to reset the function")
	}

	// The next entry starts a new run.
	_, out, _ := step(t, tr, input.Center)
	if len(out) != 1 {
		t.Fatalf("out = %v, want a new call", out)
	}
}

func TestResetFunctionMovesView(t *testing.T) {
	tr := New()
	fn := enterFunction(t, tr)
	if err := tr.ResetMenu("f"); err != nil {
		t.Fatalf("ResetMenu: %v", err)
	}
	if fn.Active() {
		t.Fatal("expected inactive after reset")
	}
	if tr.View() != Node(tr.Root()) {
		t.Fatalf("view = %s, want root", tr.View().ID())
	}
}
