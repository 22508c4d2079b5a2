// Package proto defines the menu socket protocol: JSON messages carried in
// length-prefixed frames.
package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Action names the operation a message requests.
type Action string

const (
	ActionResetMenu   Action = "reset_menu"
	ActionCreateItem  Action = "create_item"
	ActionUpdateValue Action = "update_value"
)

// Create types accepted by create_item.
const (
	CreateItem     = "item"
	CreateMenu     = "menu"
	CreateFunction = "func"
	CreateVariable = "var"
)

// CallValue is the update_value payload the server sends when a function
// node is entered.
const CallValue = "call"

// Keyword argument names.
const (
	KeyUUID       = "uuid"
	KeyRoot       = "root"
	KeyName       = "name"
	KeyValue      = "value"
	KeyStep       = "step"
	KeyCreateType = "create_type"
)

var ErrBadMessage = errors.New("proto: bad message")

// Message is one decoded frame payload.
type Message struct {
	Action Action         `json:"action"`
	Args   []any          `json:"args"`
	Kwargs map[string]any `json:"kwargs"`
}

func ResetMenu(uuid string) Message {
	m := Message{Action: ActionResetMenu, Kwargs: map[string]any{}}
	if uuid != "" {
		m.Kwargs[KeyUUID] = uuid
	}
	return m
}

// CreateItemMessage builds a create_item request. value and step are
// omitted when nil.
func CreateItemMessage(createType, root, name, uuid string, value, step any) Message {
	kw := map[string]any{
		KeyCreateType: createType,
		KeyRoot:       root,
		KeyName:       name,
		KeyUUID:       uuid,
	}
	if value != nil {
		kw[KeyValue] = value
	}
	if step != nil {
		kw[KeyStep] = step
	}
	return Message{Action: ActionCreateItem, Kwargs: kw}
}

func UpdateValue(uuid string, value any) Message {
	return Message{Action: ActionUpdateValue, Kwargs: map[string]any{
		KeyUUID:  uuid,
		KeyValue: value,
	}}
}

// StringArg returns a string keyword argument.
func (m Message) StringArg(key string) (string, bool) {
	v, ok := m.Kwargs[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Arg returns a keyword argument as decoded from JSON.
func (m Message) Arg(key string) (any, bool) {
	v, ok := m.Kwargs[key]
	return v, ok
}

// Marshal encodes m as a frame payload.
func Marshal(m Message) ([]byte, error) {
	if m.Args == nil {
		m.Args = []any{}
	}
	if m.Kwargs == nil {
		m.Kwargs = map[string]any{}
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("proto: marshal %s: %w", m.Action, err)
	}
	return b, nil
}

// Unmarshal decodes a frame payload.
func Unmarshal(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if m.Action == "" {
		return Message{}, fmt.Errorf("%w: missing action", ErrBadMessage)
	}
	if m.Kwargs == nil {
		m.Kwargs = map[string]any{}
	}
	return m, nil
}

// Truthy reports whether v counts as true in a completion report: non-zero
// numbers, true, and non-empty strings or collections.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}
