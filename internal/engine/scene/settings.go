package scene

import (
	"sync/atomic"

	"github.com/Faultbox/pbrview/pkg/math"
)

// CameraSettings are the user-editable camera parameters.
type CameraSettings struct {
	Position math.Vec3
	Rotation math.Vec3
	FOV      float32
	Near     float32
	Far      float32
}

// ObjectSettings are the user-editable object parameters. Rotation is only
// applied when set, so a reload does not snap a spinning object back.
type ObjectSettings struct {
	Position   math.Vec3
	Rotation   *math.Vec3
	Scale      math.Vec3
	Autorotate bool
	Speed      float32
}

// Settings is an immutable snapshot of everything the settings source may change.
type Settings struct {
	Camera      CameraSettings
	Object      ObjectSettings
	Environment Environment
}

// Apply copies the object settings onto o.
func (s ObjectSettings) Apply(o *Object) {
	o.Position = s.Position
	o.Scale = s.Scale
	o.Autorotate = s.Autorotate
	o.Speed = s.Speed
	if s.Rotation != nil {
		o.Rotation = *s.Rotation
	}
}

// Mailbox hands settings snapshots from any number of writers to the render
// thread. Only the latest submitted snapshot is kept.
type Mailbox struct {
	pending atomic.Pointer[Settings]
}

// Submit replaces any pending snapshot with s. Safe for concurrent use.
// The caller must not modify s afterwards.
func (m *Mailbox) Submit(s *Settings) {
	m.pending.Store(s)
}

// Take returns the pending snapshot and clears it, or nil when nothing new
// arrived since the last call.
func (m *Mailbox) Take() *Settings {
	return m.pending.Swap(nil)
}
