package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/Faultbox/pbrview/pkg/math"
)

// RGBA is a linear color with alpha, each channel in [0,1].
type RGBA [4]float32

// Environment is the lighting context the object is rendered in.
type Environment struct {
	BackgroundColor RGBA
	AmbientStrength float32
	AmbientColor    math.Vec3
	LightColor      math.Vec3
}

// DefaultEnvironment returns a dark grey background, a faint white ambient
// term and a blue key light.
func DefaultEnvironment() Environment {
	return Environment{
		BackgroundColor: RGBA{0.1, 0.1, 0.1, 1},
		AmbientStrength: 0.1,
		AmbientColor:    math.Vec3{1, 1, 1},
		LightColor:      math.Vec3{0.2, 0.2, 0.8},
	}
}

// ClearColor returns the color the frame is cleared to.
func (e Environment) ClearColor() RGBA {
	return e.BackgroundColor
}

// ParseColor parses "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (RGBA, error) {
	s = strings.TrimSpace(s)

	alpha := float32(1)
	if len(s) == 9 {
		a, err := strconv.ParseUint(s[7:], 16, 8)
		if err != nil {
			return RGBA{}, fmt.Errorf("parse alpha of %q: %w", s, err)
		}
		alpha = float32(a) / 255
		s = s[:7]
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return RGBA{float32(c.R), float32(c.G), float32(c.B), alpha}, nil
}

// Hex formats the color as "#rrggbbaa".
func (c RGBA) Hex() string {
	col := colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}
	return fmt.Sprintf("%s%02x", col.Clamped().Hex(), uint8(clamp01(c[3])*255+0.5))
}

func clamp01(v float32) float32 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
