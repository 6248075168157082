package keymap

import "testing"

func TestDefaultBindings(t *testing.T) {
	b := DefaultBindings()
	tests := []struct {
		key  string
		want Action
	}{
		{"escape", ActionQuit},
		{"space", ActionToggleAutorotate},
		{"r", ActionResetRotation},
	}
	for _, tt := range tests {
		if got := b[tt.key]; got != tt.want {
			t.Errorf("DefaultBindings()[%q] = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestParseAction(t *testing.T) {
	for a, name := range actionNames {
		got, err := ParseAction(" " + name + " ")
		if err != nil {
			t.Fatalf("ParseAction(%q) error: %v", name, err)
		}
		if got != a {
			t.Errorf("ParseAction(%q) = %v, want %v", name, got, a)
		}
	}
	if _, err := ParseAction("jump"); err == nil {
		t.Error("ParseAction(jump) expected error")
	}
	if ActionNone.String() != "none" {
		t.Errorf("ActionNone.String() = %q", ActionNone.String())
	}
}

func TestParseBindings(t *testing.T) {
	b, err := ParseBindings(map[string]string{
		"A":      "Reset_Rotation",
		"escape": "",
	})
	if err != nil {
		t.Fatalf("ParseBindings error: %v", err)
	}
	if b["a"] != ActionResetRotation {
		t.Errorf("b[a] = %v, want reset_rotation", b["a"])
	}
	if _, ok := b["escape"]; ok {
		t.Error("escape should be unbound")
	}
	if b["space"] != ActionToggleAutorotate {
		t.Errorf("defaults not kept: b[space] = %v", b["space"])
	}

	if _, err := ParseBindings(map[string]string{"x": "fly"}); err == nil {
		t.Error("expected error for unknown action")
	}
	if _, err := ParseBindings(map[string]string{" ": "quit"}); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestMailbox(t *testing.T) {
	var m Mailbox
	if _, ok := m.Take(); ok {
		t.Fatal("Take() on empty mailbox reported a key map")
	}

	first, err := ParseBindings(map[string]string{"x": "quit"})
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseBindings(map[string]string{"x": "reset_rotation"})
	if err != nil {
		t.Fatal(err)
	}
	m.Submit(first)
	m.Submit(second)

	got, ok := m.Take()
	if !ok {
		t.Fatal("Take() found nothing after Submit")
	}
	if got["x"] != ActionResetRotation {
		t.Errorf("Take()[%q] = %v, want %v", "x", got["x"], ActionResetRotation)
	}
	if _, ok := m.Take(); ok {
		t.Error("second Take() returned the same key map again")
	}
}
