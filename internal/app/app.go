// Package app wires the window, device, renderer and settings watcher
// together and runs the viewer loop.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/pbrview/internal/assets"
	"github.com/Faultbox/pbrview/internal/config"
	"github.com/Faultbox/pbrview/internal/engine/camera"
	"github.com/Faultbox/pbrview/internal/engine/gpu"
	"github.com/Faultbox/pbrview/internal/engine/gpu/gldevice"
	"github.com/Faultbox/pbrview/internal/engine/input"
	"github.com/Faultbox/pbrview/internal/engine/input/keymap"
	"github.com/Faultbox/pbrview/internal/engine/renderer"
	"github.com/Faultbox/pbrview/internal/engine/scene"
	"github.com/Faultbox/pbrview/internal/engine/window"
	"github.com/Faultbox/pbrview/internal/logger"
	"github.com/Faultbox/pbrview/pkg/math"
)

// idleDelay throttles the loop while there is no surface to draw on.
const idleDelay = 50 * time.Millisecond

// App is the running viewer.
type App struct {
	cfg     *config.Config
	cfgPath string

	window   *window.Window
	store    *assets.Manager
	device   *gldevice.Device
	camera   *camera.PerspectiveCamera
	object   *scene.Object
	renderer *renderer.Renderer
	input    *input.Input
	mailbox  scene.Mailbox
	keys     keymap.Mailbox
}

// New opens the window and prepares everything needed for the first frame.
// cfgPath is watched for changes when not empty.
func New(cfg *config.Config, cfgPath string) (*App, error) {
	logger.Info("initializing viewer",
		zap.String("title", cfg.Window.Title),
		zap.Int("width", cfg.Window.Width),
		zap.Int("height", cfg.Window.Height),
		zap.String("mesh", cfg.Assets.Mesh),
	)

	a := &App{cfg: cfg, cfgPath: cfgPath}

	bindings, err := cfg.Bindings()
	if err != nil {
		return nil, fmt.Errorf("key bindings: %w", err)
	}

	a.store = assets.NewManager()
	if cfg.Assets.Dir != "" {
		if err := a.store.AddDir(cfg.Assets.Dir); err != nil {
			return nil, fmt.Errorf("asset directory: %w", err)
		}
	}

	// Create window (this also creates the OpenGL context)
	a.window, err = window.New(window.Config{
		Title:      cfg.Window.Title,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Fullscreen: cfg.Window.Fullscreen,
		VSync:      cfg.Window.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	a.device, err = gldevice.New(a.window)
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create device: %w", err)
	}

	settings := cfg.Settings()
	w, h := a.window.DrawableSize()
	aspect := camera.DefaultAspect
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	a.camera = camera.New(
		camera.WithPosition(settings.Camera.Position),
		camera.WithRotation(settings.Camera.Rotation),
		camera.WithFOV(settings.Camera.FOV),
		camera.WithClip(settings.Camera.Near, settings.Camera.Far),
		camera.WithAspect(aspect),
	)

	a.object = scene.NewObject()
	settings.Object.Apply(a.object)

	a.renderer, err = renderer.New(a.device, a.store, a.camera, a.object, renderer.Options{
		Mesh:        cfg.Assets.Mesh,
		Environment: &settings.Environment,
		Mailbox:     &a.mailbox,
	})
	if err != nil {
		a.device.Release()
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	a.input = input.New(bindings, a.window.DrawableSize)

	logger.Info("viewer initialized successfully",
		zap.Strings("asset_sources", a.store.Sources()),
	)
	return a, nil
}

// Run drives the render loop until the window closes, a quit key is
// pressed, or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a.cfgPath != "" {
		w, err := config.NewWatcher(a.cfgPath)
		if err != nil {
			logger.Warn("settings hot reload disabled", zap.String("path", a.cfgPath), zap.Error(err))
		} else {
			logger.Info("watching settings", zap.String("path", w.Path()))
			go func() {
				if err := w.Run(ctx, a.submit); err != nil {
					logger.Warn("settings watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	frameCount := 0
	fpsTimer := time.Now()

	logger.Info("starting render loop")

	for {
		if err := ctx.Err(); err != nil {
			logger.Info("render loop cancelled", zap.Error(err))
			return nil
		}

		if b, ok := a.keys.Take(); ok {
			a.input.SetBindings(b)
			logger.Info("key bindings reloaded", zap.Int("keys", len(b)))
		}
		if a.input.Update() {
			return nil
		}
		a.handleEvents()

		if err := a.renderer.Draw(); err != nil {
			if !renderer.Skippable(err) {
				return fmt.Errorf("render error: %w", err)
			}
			logger.Debug("frame skipped", zap.Error(err))
			if errors.Is(err, gpu.ErrSurfaceUnavailable) {
				time.Sleep(idleDelay)
			}
			continue
		}

		// FPS counter
		frameCount++
		if elapsed := time.Since(fpsTimer); elapsed >= time.Second {
			fps := int(float64(frameCount) / elapsed.Seconds())
			a.window.SetTitle(a.cfg.Window.FrameTitle(a.cfg.Assets.Mesh, fps))
			hits, misses := a.store.Stats()
			logger.Debug("fps",
				zap.Int("count", frameCount),
				zap.Duration("elapsed", elapsed),
				zap.Int("asset_cache_hits", hits),
				zap.Int("asset_cache_misses", misses),
			)
			frameCount = 0
			fpsTimer = time.Now()
		}
	}
}

func (a *App) handleEvents() {
	for _, e := range a.input.Events() {
		switch e.Type {
		case input.EventResize:
			logger.Debug("drawable resized", zap.Int("width", e.Width), zap.Int("height", e.Height))
			a.renderer.Resize(e.Width, e.Height)

		case input.EventAction:
			switch e.Action {
			case keymap.ActionToggleAutorotate:
				a.object.Autorotate = !a.object.Autorotate
				logger.Info("autorotate toggled", zap.Bool("enabled", a.object.Autorotate))
			case keymap.ActionResetRotation:
				a.object.ResetRotation()
				logger.Info("rotation reset")
			case keymap.ActionReloadConfig:
				a.reload()
			}
		}
	}
}

// reload re-reads the settings file on demand.
func (a *App) reload() {
	if a.cfgPath == "" {
		logger.Info("no settings file to reload")
		return
	}
	cfg, err := config.LoadFile(a.cfgPath)
	if err != nil {
		logger.Error("settings reload failed", zap.String("path", a.cfgPath), zap.Error(err))
		return
	}
	a.submit(cfg)
}

// submit hands a new config to the render thread. Safe from any goroutine.
func (a *App) submit(cfg *config.Config) {
	logger.SetLevel(cfg.Logging.Level)
	if b, err := cfg.Bindings(); err != nil {
		logger.Warn("key bindings unchanged", zap.Error(err))
	} else {
		a.keys.Submit(b)
	}
	s := cfg.Settings()
	a.mailbox.Submit(s)
	logger.Debug("settings submitted",
		zap.Float32("fov", s.Camera.FOV),
		zap.Stringer("camera", vec(s.Camera.Position)),
		zap.String("log_level", logger.Level()),
	)
}

// Close releases the renderer, device, window and asset store.
func (a *App) Close() {
	logger.Info("closing viewer")

	if a.renderer != nil {
		a.renderer.Release()
	}
	if a.store != nil {
		a.store.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}

type vec math.Vec3

func (v vec) String() string {
	return fmt.Sprintf("(%g, %g, %g)", v[0], v[1], v[2])
}
