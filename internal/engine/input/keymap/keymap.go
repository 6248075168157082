// Package keymap maps key names to viewer actions.
package keymap

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Action is something a key can trigger.
type Action int

const (
	ActionNone Action = iota
	ActionQuit
	ActionToggleAutorotate
	ActionResetRotation
	ActionReloadConfig
)

var actionNames = map[Action]string{
	ActionQuit:             "quit",
	ActionToggleAutorotate: "toggle_autorotate",
	ActionResetRotation:    "reset_rotation",
	ActionReloadConfig:     "reload_config",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "none"
}

// ParseAction looks up an action by name.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown action %q", name)
}

// Bindings maps lower-case SDL key names ("escape", "space", "r") to actions.
type Bindings map[string]Action

// DefaultBindings returns the built-in key map.
func DefaultBindings() Bindings {
	return Bindings{
		"escape": ActionQuit,
		"q":      ActionQuit,
		"space":  ActionToggleAutorotate,
		"r":      ActionResetRotation,
		"f5":     ActionReloadConfig,
	}
}

// ParseBindings builds a key map from key name to action name, layered over
// the defaults. An empty action name unbinds the key.
func ParseBindings(m map[string]string) (Bindings, error) {
	b := DefaultBindings()
	for key, name := range m {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, fmt.Errorf("empty key name")
		}
		if strings.TrimSpace(name) == "" {
			delete(b, key)
			continue
		}
		a, err := ParseAction(name)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		b[key] = a
	}
	return b, nil
}

// Mailbox hands reloaded key maps to the thread that polls input. Only the
// latest submitted map is kept.
type Mailbox struct {
	pending atomic.Pointer[Bindings]
}

// Submit replaces any pending key map with b. Safe for concurrent use.
func (m *Mailbox) Submit(b Bindings) {
	m.pending.Store(&b)
}

// Take returns the pending key map and clears it. ok is false when nothing
// arrived since the last call.
func (m *Mailbox) Take() (b Bindings, ok bool) {
	p := m.pending.Swap(nil)
	if p == nil {
		return nil, false
	}
	return *p, true
}
