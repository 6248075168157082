// Package config handles viewer configuration loading, saving and live reload.
package config

import (
	"errors"
	"fmt"
	"path"

	"github.com/Faultbox/pbrview/internal/engine/input/keymap"
	"github.com/Faultbox/pbrview/internal/engine/scene"
	"github.com/Faultbox/pbrview/pkg/math"
)

// Config holds all viewer settings.
type Config struct {
	Window      WindowConfig      `yaml:"window"`
	Camera      CameraConfig      `yaml:"camera"`
	Object      ObjectConfig      `yaml:"object"`
	Environment EnvironmentConfig `yaml:"environment"`
	Assets      AssetsConfig      `yaml:"assets"`
	Keys        map[string]string `yaml:"keys,omitempty"` // key name -> action name
	Logging     LoggingConfig     `yaml:"logging"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Fullscreen bool   `yaml:"fullscreen"`
	VSync      bool   `yaml:"vsync"`
}

// CameraConfig holds the camera pose and lens. Angles are in degrees.
type CameraConfig struct {
	Position [3]float32 `yaml:"position,flow"`
	Rotation [3]float32 `yaml:"rotation,flow"`
	FOV      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
}

// ObjectConfig holds the displayed object's transform and spin.
// Rotation is optional; when unset a reload keeps the current spin angle.
type ObjectConfig struct {
	Position   [3]float32  `yaml:"position,flow"`
	Rotation   *[3]float32 `yaml:"rotation,omitempty,flow"`
	Scale      [3]float32  `yaml:"scale,flow"`
	Autorotate bool        `yaml:"autorotate"`
	Speed      float32     `yaml:"speed"`
}

// EnvironmentConfig holds the background and lighting colors.
type EnvironmentConfig struct {
	Background      Color   `yaml:"background"`
	AmbientStrength float32 `yaml:"ambient_strength"`
	AmbientColor    Color   `yaml:"ambient_color"`
	LightColor      Color   `yaml:"light_color"`
}

// AssetsConfig holds asset lookup settings.
type AssetsConfig struct {
	Dir  string `yaml:"dir"`  // searched before the embedded assets
	Mesh string `yaml:"mesh"` // OBJ file to display
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	env := scene.DefaultEnvironment()
	return &Config{
		Window: WindowConfig{
			Title:  "pbrview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},
		Camera: CameraConfig{
			Position: [3]float32{0, 0, -5},
			Rotation: [3]float32{0, 1, 0},
			FOV:      45,
			Near:     0.1,
			Far:      100,
		},
		Object: ObjectConfig{
			Scale:      [3]float32{1, 1, 1},
			Autorotate: true,
			Speed:      5,
		},
		Environment: EnvironmentConfig{
			Background:      Color(env.BackgroundColor),
			AmbientStrength: env.AmbientStrength,
			AmbientColor:    colorFromVec3(env.AmbientColor),
			LightColor:      colorFromVec3(env.LightColor),
		},
		Assets: AssetsConfig{
			Mesh: "cube.obj",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validation errors.
var (
	ErrInvalidWindow = errors.New("invalid window size")
	ErrInvalidCamera = errors.New("invalid camera")
	ErrInvalidObject = errors.New("invalid object")
)

// Validate checks the constraints the renderer relies on.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidWindow, c.Window.Width, c.Window.Height)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("%w: need 0 < near < far, got near=%g far=%g", ErrInvalidCamera, c.Camera.Near, c.Camera.Far)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		return fmt.Errorf("%w: fov %g outside (0,180)", ErrInvalidCamera, c.Camera.FOV)
	}
	if c.Object.Speed < 0 {
		return fmt.Errorf("%w: negative speed %g", ErrInvalidObject, c.Object.Speed)
	}
	if c.Assets.Mesh == "" {
		return errors.New("assets.mesh is empty")
	}
	if _, err := keymap.ParseBindings(c.Keys); err != nil {
		return fmt.Errorf("keys: %w", err)
	}
	return nil
}

// FrameTitle is the window title while running: the configured title, the
// mesh file name and the last measured frame rate.
func (w WindowConfig) FrameTitle(mesh string, fps int) string {
	if mesh == "" {
		return fmt.Sprintf("%s - %d fps", w.Title, fps)
	}
	return fmt.Sprintf("%s - %s - %d fps", w.Title, path.Base(mesh), fps)
}

// Bindings returns the key map with Keys layered over the defaults.
func (c *Config) Bindings() (keymap.Bindings, error) {
	return keymap.ParseBindings(c.Keys)
}

// Settings converts the live-editable parts into a snapshot for the renderer.
func (c *Config) Settings() *scene.Settings {
	s := &scene.Settings{
		Camera: scene.CameraSettings{
			Position: math.Vec3(c.Camera.Position),
			Rotation: math.Vec3(c.Camera.Rotation),
			FOV:      c.Camera.FOV,
			Near:     c.Camera.Near,
			Far:      c.Camera.Far,
		},
		Object: scene.ObjectSettings{
			Position:   math.Vec3(c.Object.Position),
			Scale:      math.Vec3(c.Object.Scale),
			Autorotate: c.Object.Autorotate,
			Speed:      c.Object.Speed,
		},
		Environment: scene.Environment{
			BackgroundColor: scene.RGBA(c.Environment.Background),
			AmbientStrength: c.Environment.AmbientStrength,
			AmbientColor:    c.Environment.AmbientColor.Vec3(),
			LightColor:      c.Environment.LightColor.Vec3(),
		},
	}
	if c.Object.Rotation != nil {
		rot := math.Vec3(*c.Object.Rotation)
		s.Object.Rotation = &rot
	}
	return s
}
