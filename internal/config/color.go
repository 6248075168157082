package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/pbrview/internal/engine/scene"
	"github.com/Faultbox/pbrview/pkg/math"
)

// Color is an RGBA color. In YAML it is either a hex string ("#1a1a1a",
// "#1a1a1aff") or a list of three or four floats in [0,1].
type Color scene.RGBA

func colorFromVec3(v math.Vec3) Color {
	return Color{v[0], v[1], v[2], 1}
}

// Vec3 drops the alpha channel.
func (c Color) Vec3() math.Vec3 {
	return math.Vec3{c[0], c[1], c[2]}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Color) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		rgba, err := scene.ParseColor(n.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		*c = Color(rgba)
		return nil

	case yaml.SequenceNode:
		var v []float32
		if err := n.Decode(&v); err != nil {
			return err
		}
		if len(v) != 3 && len(v) != 4 {
			return fmt.Errorf("line %d: color needs 3 or 4 components, got %d", n.Line, len(v))
		}
		*c = Color{v[0], v[1], v[2], 1}
		if len(v) == 4 {
			c[3] = v[3]
		}
		return nil

	default:
		return fmt.Errorf("line %d: color must be a hex string or a list", n.Line)
	}
}

// MarshalYAML implements yaml.Marshaler. Colors are written as float lists
// so values survive a save/load round trip exactly.
func (c Color) MarshalYAML() (any, error) {
	return c[:], nil
}
