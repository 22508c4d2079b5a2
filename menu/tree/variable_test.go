package tree

import (
	"errors"
	"math"
	"math/rand"
	"strings"
	"testing"

	"oledmenu/menu/input"
	"oledmenu/menu/proto"
)

func enterFirstChild(t *testing.T, tr *Tree) {
	t.Helper()
	step(t, tr, input.Down)
	step(t, tr, input.Center)
}

func TestVariablePrecisionHolds(t *testing.T) {
	tr := New()
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "v", Name: "v", Value: Number(0.3), Step: float(0.001)})
	enterFirstChild(t, tr)

	v, _ := tr.Lookup("v")
	vr := v.(*Variable)
	actions := []input.Action{input.Left, input.Right, input.Up, input.Down}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		step(t, tr, actions[rng.Intn(len(actions))])
		txt := vr.Text()
		dot := strings.IndexByte(txt, '.')
		if dot < 0 || len(txt)-dot-1 != 3 {
			t.Fatalf("step %d: Text() = %q, want 3 decimals", i, txt)
		}
		if got := roundTo(vr.Value().Float(), 3); got != vr.Value().Float() {
			t.Fatalf("step %d: value %v drifted", i, vr.Value().Float())
		}
	}
}

func TestVariableSteps(t *testing.T) {
	tr := New()
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "v", Name: "v", Value: Number(1), Step: float(0.1)})
	enterFirstChild(t, tr)
	v, _ := tr.Lookup("v")
	vr := v.(*Variable)

	step(t, tr, input.Right)
	step(t, tr, input.Right)
	step(t, tr, input.Right)
	if got := vr.Value().Float(); got != 1.3 {
		t.Fatalf("value = %v, want 1.3", got)
	}
	step(t, tr, input.Up)
	if got := vr.Value().Float(); got != 0.3 {
		t.Fatalf("value = %v, want 0.3", got)
	}
	step(t, tr, input.Down)
	step(t, tr, input.Left)
	if got := vr.Value().Float(); got != 1.2 {
		t.Fatalf("value = %v, want 1.2", got)
	}
}

func TestVariableRenderAndCommit(t *testing.T) {
	tr := New()
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "v1", Name: "a", Value: Number(1), Step: float(0.1)})
	if err := tr.Update("v1", 2.0); err != nil {
		t.Fatalf("Update: %v", err)
	}

	step(t, tr, input.Down)
	c, _, _ := step(t, tr, input.Center)
	line, ok := c.find("<<  2.0  >>")
	if !ok {
		t.Fatalf("missing value line, got %+v", c.texts)
	}
	if line.y != 16 || line.x != (128-6*11)/2 {
		t.Fatalf("value line at %d,%d", line.x, line.y)
	}
	name, ok := c.find("a")
	if !ok || name.y != 2 {
		t.Fatalf("name line = %+v", name)
	}

	_, out, _ := step(t, tr, input.Center)
	if len(out) != 1 {
		t.Fatalf("out = %v, want one update", out)
	}
	if out[0].Action != proto.ActionUpdateValue {
		t.Fatalf("action = %s", out[0].Action)
	}
	if id, _ := out[0].StringArg(proto.KeyUUID); id != "v1" {
		t.Fatalf("uuid = %q", id)
	}
	if v, _ := out[0].Arg(proto.KeyValue); v != 2.0 {
		t.Fatalf("value = %v", v)
	}
	if tr.View() != Node(tr.Root()) {
		t.Fatal("expected commit to return to parent")
	}
}

func TestBoolVariableToggles(t *testing.T) {
	tr := New()
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "b", Name: "b", Value: Bool(false)})
	enterFirstChild(t, tr)
	v, _ := tr.Lookup("b")
	vr := v.(*Variable)
	if vr.Value().Bool() {
		t.Fatal("entering must not toggle")
	}

	step(t, tr, input.Left)
	if !vr.Value().Bool() {
		t.Fatal("expected toggle on left")
	}
	step(t, tr, input.Up)
	if vr.Value().Bool() {
		t.Fatal("expected toggle on up")
	}
	c, _, _ := step(t, tr, input.Nothing)
	if _, ok := c.find("<<  false  >>"); !ok {
		t.Fatalf("missing value line, got %+v", c.texts)
	}
}

func TestVariableUpdateValidation(t *testing.T) {
	tr := New()
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "n", Name: "n", Value: Number(1), Step: float(0.5)})
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "b", Name: "b", Value: Bool(true)})
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "u", Name: "u"})
	mustCreate(t, tr, NodeDef{Kind: KindItem, Parent: RootID, ID: "i", Name: "i"})

	for _, c := range []struct {
		id  string
		raw any
	}{
		{"n", "fast"},
		{"n", true},
		{"n", nil},
		{"b", 1.0},
	} {
		if err := tr.Update(c.id, c.raw); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("Update(%s, %v) err = %v, want ErrInvalidValue", c.id, c.raw, err)
		}
	}
	if err := tr.Update("i", 1.0); !errors.Is(err, ErrNotUpdatable) {
		t.Fatalf("err = %v, want ErrNotUpdatable", err)
	}
	if err := tr.Update("missing", 1.0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	n, _ := tr.Lookup("n")
	if err := tr.Update("n", 2.26); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := n.(*Variable).Text(); got != "2.3" {
		t.Fatalf("Text() = %q, want 2.3", got)
	}

	// An untyped variable takes the kind of its first value.
	u, _ := tr.Lookup("u")
	if err := tr.Update("u", 4.0); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.(*Variable).Value().Kind() != ValueNumber {
		t.Fatal("expected number kind")
	}
	if err := tr.Update("u", false); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("err = %v, want ErrInvalidValue", err)
	}
}

func TestDecimals(t *testing.T) {
	for _, c := range []struct {
		step float64
		want int
	}{
		{1, 0},
		{0.1, 1},
		{0.25, 2},
		{0.001, 3},
		{10, 0},
	} {
		if got := decimals(c.step); got != c.want {
			t.Fatalf("decimals(%v) = %d, want %d", c.step, got, c.want)
		}
	}
}

func TestVariableRejectsUnrepresentableStep(t *testing.T) {
	tr := New()
	for _, s := range []float64{1e-320, 1e-16} {
		_, err := tr.Create(NodeDef{Kind: KindVariable, Parent: RootID, ID: "v", Name: "v", Value: Number(1), Step: float(s)})
		if !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("step %v: err = %v, want ErrInvalidValue", s, err)
		}
	}
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "v", Name: "v", Value: Number(1), Step: float(1e-15)})
}

func TestVariableStaysFinite(t *testing.T) {
	tr := New()
	mustCreate(t, tr, NodeDef{Kind: KindVariable, Parent: RootID, ID: "v", Name: "v", Value: Number(math.MaxFloat64), Step: float(1e307)})
	enterFirstChild(t, tr)

	step(t, tr, input.Down)
	v, _ := tr.Lookup("v")
	if got := v.(*Variable).Value().Float(); got != math.MaxFloat64 {
		t.Fatalf("value = %v, want unchanged after overflow", got)
	}

	_, out, _ := step(t, tr, input.Center)
	if len(out) != 1 {
		t.Fatalf("out = %v, want one update", out)
	}
	if _, err := proto.Marshal(out[0]); err != nil {
		t.Fatalf("Marshal commit: %v", err)
	}
}

func TestRoundToLargeMagnitude(t *testing.T) {
	if got := roundTo(1e300, 15); got != 1e300 {
		t.Fatalf("roundTo(1e300, 15) = %v", got)
	}
}
