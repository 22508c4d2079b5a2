package proto

import (
	"errors"
	"strings"
	"testing"
)

func TestUnmarshalRequiresAction(t *testing.T) {
	for _, in := range []string{`{}`, `{"action":""}`, `[1,2]`, ``} {
		if _, err := Unmarshal([]byte(in)); !errors.Is(err, ErrBadMessage) {
			t.Fatalf("Unmarshal(%q) err = %v, want ErrBadMessage", in, err)
		}
	}
}

func TestUnmarshalDefaultsKwargs(t *testing.T) {
	m, err := Unmarshal([]byte(`{"action":"reset_menu"}`))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if m.Kwargs == nil {
		t.Fatal("expected empty kwargs map")
	}
	if _, ok := m.StringArg(KeyUUID); ok {
		t.Fatal("expected no uuid")
	}
}

func TestMarshalShape(t *testing.T) {
	b, err := Marshal(ResetMenu(""))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(b), `{"action":"reset_menu","args":[],"kwargs":{}}`; got != want {
		t.Fatalf("Marshal = %s, want %s", got, want)
	}

	b, err = Marshal(CreateItemMessage(CreateVariable, "base", "speed", "u1", 2.0, 0.1))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{`"create_type":"var"`, `"root":"base"`, `"step":0.1`, `"value":2`} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("Marshal = %s, missing %s", b, want)
		}
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{0.0, false},
		{2.5, true},
		{"", false},
		{"done", true},
		{[]any{}, false},
		{map[string]any{"a": 1}, true},
	}
	for _, c := range cases {
		if got := Truthy(c.v); got != c.want {
			t.Fatalf("Truthy(%#v) = %v, want %v", c.v, got, c.want)
		}
	}
}
