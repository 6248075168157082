// Package input turns SDL2 events into viewer actions.
package input

import (
	"strings"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/Faultbox/pbrview/internal/engine/input/keymap"
)

// EventType identifies a processed event.
type EventType int

const (
	EventNone EventType = iota
	EventQuit
	EventResize
	EventAction
)

// Event is a processed input event. Width and Height are drawable pixels
// for EventResize.
type Event struct {
	Type   EventType
	Action keymap.Action
	Width  int
	Height int
}

// Input polls SDL and maps key presses through a Bindings table.
type Input struct {
	bindings keymap.Bindings
	events   []Event
	drawable func() (int, int)
}

// New creates an input handler. drawable reports the current drawable size
// in pixels and is queried when the window changes size.
func New(bindings keymap.Bindings, drawable func() (int, int)) *Input {
	return &Input{
		bindings: bindings,
		events:   make([]Event, 0, 16),
		drawable: drawable,
	}
}

// Update polls pending SDL events. It returns true when the viewer should quit.
func (i *Input) Update() bool {
	i.events = i.events[:0]
	quit := false

	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			i.events = append(i.events, Event{Type: EventQuit})
			quit = true

		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
				w, h := i.drawable()
				i.events = append(i.events, Event{Type: EventResize, Width: w, Height: h})
			}

		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			name := strings.ToLower(sdl.GetScancodeName(e.Keysym.Scancode))
			action, ok := i.bindings[name]
			if !ok {
				continue
			}
			if action == keymap.ActionQuit {
				quit = true
			}
			i.events = append(i.events, Event{Type: EventAction, Action: action})
		}
	}

	return quit
}

// SetBindings replaces the key map used by later Updates.
func (i *Input) SetBindings(bindings keymap.Bindings) {
	i.bindings = bindings
}

// Events returns the events from the last Update.
func (i *Input) Events() []Event {
	return i.events
}
