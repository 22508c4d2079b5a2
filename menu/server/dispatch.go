package server

import (
	"errors"
	"fmt"

	"oledmenu/menu/proto"
	"oledmenu/menu/tree"
)

var errMissingArg = errors.New("server: missing argument")

// dispatch applies one inbound message to the tree. Failures are logged and
// dropped; nothing here stops the loop.
func (s *Server) dispatch(m proto.Message) {
	var err error
	switch m.Action {
	case proto.ActionResetMenu:
		err = s.resetMenu(m)
	case proto.ActionCreateItem:
		err = s.createItem(m)
	case proto.ActionUpdateValue:
		err = s.updateValue(m)
	default:
		s.log.Debug("ignore unknown action", "action", m.Action)
		return
	}
	if err != nil {
		s.log.Debug("message rejected", "action", m.Action, "err", err)
	}
}

func (s *Server) resetMenu(m proto.Message) error {
	id, ok := m.StringArg(proto.KeyUUID)
	if !ok || id == "" {
		s.tree.Reset()
		return nil
	}
	return s.tree.ResetMenu(id)
}

func (s *Server) createItem(m proto.Message) error {
	ct, _ := m.StringArg(proto.KeyCreateType)
	kind, ok := tree.ParseKind(ct)
	if !ok {
		return fmt.Errorf("server: unknown create_type %q", ct)
	}
	id, ok := m.StringArg(proto.KeyUUID)
	if !ok {
		return fmt.Errorf("%w: %s", errMissingArg, proto.KeyUUID)
	}
	root, ok := m.StringArg(proto.KeyRoot)
	if !ok {
		return fmt.Errorf("%w: %s", errMissingArg, proto.KeyRoot)
	}
	name, _ := m.StringArg(proto.KeyName)

	def := tree.NodeDef{Kind: kind, Parent: root, ID: id, Name: name}
	if kind == tree.KindVariable {
		raw, _ := m.Arg(proto.KeyValue)
		v, err := tree.ValueOf(raw)
		if err != nil {
			return err
		}
		def.Value = v
		if raw, ok := m.Arg(proto.KeyStep); ok && raw != nil {
			step, ok := raw.(float64)
			if !ok {
				return fmt.Errorf("%w: step %v", tree.ErrInvalidValue, raw)
			}
			def.Step = &step
		}
	}
	n, err := s.tree.Create(def)
	if err != nil {
		return err
	}
	s.log.Debug("created", "uuid", n.ID(), "kind", n.Kind(), "root", root)
	return nil
}

func (s *Server) updateValue(m proto.Message) error {
	id, ok := m.StringArg(proto.KeyUUID)
	if !ok {
		return fmt.Errorf("%w: %s", errMissingArg, proto.KeyUUID)
	}
	v, ok := m.Arg(proto.KeyValue)
	if !ok {
		return fmt.Errorf("%w: %s", errMissingArg, proto.KeyValue)
	}
	return s.tree.Update(id, v)
}
