package tree

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"oledmenu/menu/input"
	"oledmenu/menu/proto"
)

// ValueKind is the type a Variable holds.
type ValueKind uint8

const (
	ValueNone ValueKind = iota
	ValueNumber
	ValueBool
)

func (k ValueKind) String() string {
	switch k {
	case ValueNone:
		return "none"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "bool"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a number, a boolean, or nothing.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
}

func Number(f float64) Value { return Value{kind: ValueNumber, num: f} }
func Bool(b bool) Value      { return Value{kind: ValueBool, b: b} }

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) Float() float64  { return v.num }
func (v Value) Bool() bool      { return v.b }

// Interface returns v in its JSON form.
func (v Value) Interface() any {
	switch v.kind {
	case ValueNumber:
		return v.num
	case ValueBool:
		return v.b
	default:
		return nil
	}
}

// ValueOf converts a decoded JSON value.
func ValueOf(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case bool:
		return Bool(t), nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return Value{}, fmt.Errorf("%w: %v", ErrInvalidValue, t)
		}
		return Number(t), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	default:
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, x)
	}
}

// Variable holds a number or boolean that the user edits in place.
type Variable struct {
	Item
	value Value
	// step is zero when unset; precision is the decimal count of step.
	step      float64
	precision int
}

func newVariable(base Item, v Value, step *float64) (*Variable, error) {
	vr := &Variable{Item: base, value: v}
	if step == nil {
		return vr, nil
	}
	s := *step
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return nil, fmt.Errorf("%w: step %v", ErrInvalidValue, s)
	}
	switch v.kind {
	case ValueBool:
		return nil, fmt.Errorf("%w: step on a boolean", ErrInvalidValue)
	case ValueNone:
		vr.value = Number(0)
	}
	p := decimals(s)
	if p > maxPrecision {
		return nil, fmt.Errorf("%w: step %v has more than %d decimals", ErrInvalidValue, s, maxPrecision)
	}
	vr.step = s
	vr.precision = p
	vr.value.num = roundTo(vr.value.num, vr.precision)
	return vr, nil
}

func (v *Variable) Kind() Kind { return KindVariable }

func (v *Variable) Value() Value { return v.value }

// Step returns the increment and whether one is configured.
func (v *Variable) Step() (float64, bool) { return v.step, v.step != 0 }

func (v *Variable) Labels() (string, string) { return v.name, v.Text() }

// Text is the displayed value.
func (v *Variable) Text() string {
	switch v.value.kind {
	case ValueNumber:
		if v.step != 0 {
			return strconv.FormatFloat(v.value.num, 'f', v.precision, 64)
		}
		return strconv.FormatFloat(v.value.num, 'f', -1, 64)
	case ValueBool:
		return strconv.FormatBool(v.value.b)
	default:
		return ""
	}
}

// set replaces the value. The value kind is fixed once known.
func (v *Variable) set(nv Value) error {
	switch {
	case nv.kind == ValueNone:
		return fmt.Errorf("%w: null value", ErrInvalidValue)
	case v.value.kind != ValueNone && nv.kind != v.value.kind:
		return fmt.Errorf("%w: want %s, got %s", ErrInvalidValue, v.value.kind, nv.kind)
	}
	if v.step != 0 {
		nv.num = roundTo(nv.num, v.precision)
	}
	if nv.kind == ValueNumber && !finite(nv.num) {
		return fmt.Errorf("%w: %v", ErrInvalidValue, nv.num)
	}
	v.value = nv
	return nil
}

func (v *Variable) React(f *Frame, a input.Action) Node {
	if a == input.Center {
		f.emit(proto.UpdateValue(v.id, v.value.Interface()))
		p := f.tree.parentOf(v)
		if p == nil {
			return nil
		}
		return p.React(f, input.Nothing)
	}

	switch {
	case v.step != 0:
		var d float64
		switch a {
		case input.Left:
			d = -v.step
		case input.Right:
			d = v.step
		case input.Up:
			d = -10 * v.step
		case input.Down:
			d = 10 * v.step
		}
		if n := roundTo(v.value.num+d, v.precision); d != 0 && finite(n) {
			v.value.num = n
		}
	case a != input.Nothing && v.value.kind == ValueBool:
		v.value.b = !v.value.b
	}

	v.render(f)
	return v
}

func (v *Variable) render(f *Frame) {
	f.centered(2, v.name)
	f.centered(16, "<<  "+v.Text()+"  >>")
}

// maxPrecision is the most decimals a float64 step carries exactly.
const maxPrecision = 15

// decimals counts the fractional digits of the shortest decimal form of s.
func decimals(s float64) int {
	str := strconv.FormatFloat(s, 'f', -1, 64)
	if i := strings.IndexByte(str, '.'); i >= 0 {
		return len(str) - i - 1
	}
	return 0
}

// roundTo rounds x to p decimals. Magnitudes too large to scale have no
// fractional digits left and come back unchanged.
func roundTo(x float64, p int) float64 {
	pow := math.Pow10(p)
	scaled := x * pow
	if !finite(scaled) {
		return x
	}
	r := math.Round(scaled) / pow
	if r == 0 {
		// Drop negative zero.
		return 0
	}
	return r
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
