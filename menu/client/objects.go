package client

import (
	"math"
	"sync"

	"oledmenu/menu/proto"
)

// Menu is a submenu on the server, or the root.
type Menu struct {
	c    *Client
	id   string
	name string
}

func (m *Menu) ID() string   { return m.id }
func (m *Menu) Name() string { return m.name }

// Reset removes every entry below m on the server.
func (m *Menu) Reset() error {
	return m.c.send(proto.ResetMenu(m.id))
}

// NewMenu adds a submenu.
func (m *Menu) NewMenu(name string) (*Menu, error) {
	id, err := m.c.create(proto.CreateMenu, m.id, name, nil, nil)
	if err != nil {
		return nil, err
	}
	return &Menu{c: m.c, id: id, name: name}, nil
}

// NewItem adds a plain label.
func (m *Menu) NewItem(name string) (string, error) {
	return m.c.create(proto.CreateItem, m.id, name, nil, nil)
}

// NewFloat adds a number adjusted by step.
func (m *Menu) NewFloat(name string, value, step float64) (*Variable[float64], error) {
	return newVariable(m, name, value, step)
}

// NewInt adds an integer adjusted by step.
func (m *Menu) NewInt(name string, value, step int64) (*Variable[int64], error) {
	return newVariable(m, name, value, float64(step))
}

// NewBool adds a toggle.
func (m *Menu) NewBool(name string, value bool) (*Variable[bool], error) {
	return newVariable(m, name, value, 0)
}

// NewFunction adds an action. fn runs each time the user opens it; while
// it runs, Print adds progress lines. Returning true sends the device back
// to the parent menu at once; false leaves a completion entry to select.
// A nil fn counts as returning true.
func (m *Menu) NewFunction(name string, fn func(*Function) bool) (*Function, error) {
	id, err := m.c.create(proto.CreateFunction, m.id, name, nil, nil)
	if err != nil {
		return nil, err
	}
	f := &Function{Menu: Menu{c: m.c, id: id, name: name}, fn: fn}
	m.c.register(id, f)
	return f, nil
}

// Scalar is a value type a Variable can hold.
type Scalar interface {
	float64 | int64 | bool
}

// Variable is a value the user can edit on the device.
type Variable[T Scalar] struct {
	c    *Client
	id   string
	name string

	mu       sync.Mutex
	value    T
	onChange func(T)
}

func newVariable[T Scalar](m *Menu, name string, value T, step float64) (*Variable[T], error) {
	var s any
	if step > 0 {
		s = step
	}
	id, err := m.c.create(proto.CreateVariable, m.id, name, wire(value), s)
	if err != nil {
		return nil, err
	}
	v := &Variable[T]{c: m.c, id: id, name: name, value: value}
	m.c.register(id, v)
	return v, nil
}

func (v *Variable[T]) ID() string { return v.id }

func (v *Variable[T]) Value() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.value
}

// Set stores x and pushes it to the server.
func (v *Variable[T]) Set(x T) error {
	v.mu.Lock()
	v.value = x
	v.mu.Unlock()
	return v.c.send(proto.UpdateValue(v.id, wire(x)))
}

// OnChange registers fn for values committed on the device. fn runs on the
// receive goroutine.
func (v *Variable[T]) OnChange(fn func(T)) {
	v.mu.Lock()
	v.onChange = fn
	v.mu.Unlock()
}

func (v *Variable[T]) receive(raw any) {
	x, ok := coerce[T](raw)
	if !ok {
		v.c.log.Debug("ignore mismatched value", "uuid", v.id, "value", raw)
		return
	}
	v.mu.Lock()
	v.value = x
	fn := v.onChange
	v.mu.Unlock()
	if fn != nil {
		fn(x)
	}
}

func wire[T Scalar](x T) any {
	switch t := any(x).(type) {
	case int64:
		return float64(t)
	default:
		return t
	}
}

func coerce[T Scalar](raw any) (T, bool) {
	var zero T
	switch any(zero).(type) {
	case float64:
		f, ok := raw.(float64)
		if !ok {
			return zero, false
		}
		return any(f).(T), true
	case int64:
		f, ok := raw.(float64)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return zero, false
		}
		return any(int64(math.Round(f))).(T), true
	case bool:
		b, ok := raw.(bool)
		if !ok {
			return zero, false
		}
		return any(b).(T), true
	}
	return zero, false
}

// Function is an action the user opens on the device.
type Function struct {
	Menu
	fn func(*Function) bool

	mu      sync.Mutex
	running chan struct{}
}

func (f *Function) receive(any) { f.invoke() }

// invoke starts fn after any previous run of it has finished.
func (f *Function) invoke() {
	done := make(chan struct{})
	f.mu.Lock()
	prev := f.running
	f.running = done
	f.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		ok := true
		if f.fn != nil {
			ok = f.fn(f)
		}
		if err := f.c.send(proto.UpdateValue(f.id, ok)); err != nil {
			f.c.log.Warn("report completion", "uuid", f.id, "err", err)
		}
	}()
}

// Print adds a progress line to the open function.
func (f *Function) Print(line string) error {
	_, err := f.NewItem(line)
	return err
}

// Wait blocks until the latest run has finished.
func (f *Function) Wait() {
	f.mu.Lock()
	done := f.running
	f.mu.Unlock()
	if done != nil {
		<-done
	}
}
