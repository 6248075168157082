// Package renderer draws a single textured mesh through a gpu.Device.
package renderer

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/pbrview/internal/engine/camera"
	"github.com/Faultbox/pbrview/internal/engine/gpu"
	"github.com/Faultbox/pbrview/internal/engine/mesh"
	"github.com/Faultbox/pbrview/internal/engine/scene"
	"github.com/Faultbox/pbrview/internal/engine/shaders"
	"github.com/Faultbox/pbrview/internal/engine/texture"
	"github.com/Faultbox/pbrview/internal/logger"
)

// DefaultMesh is loaded when Options.Mesh is empty.
const DefaultMesh = "cube.obj"

// Stage names the setup step an InitError came from.
type Stage string

const (
	StageDevice     Stage = "device"
	StageAsset      Stage = "asset"
	StagePipeline   Stage = "pipeline"
	StageDepthState Stage = "depth-state"
)

// InitError reports a failed renderer setup.
type InitError struct {
	Stage Stage
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("renderer init (%s): %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// AssetSource supplies mesh, material and texture bytes by name.
type AssetSource interface {
	Load(name string) ([]byte, error)
}

// Options configures a Renderer. The zero value is usable.
type Options struct {
	// Mesh is the OBJ asset to load.
	Mesh string
	// Environment is the initial lighting; nil means scene.DefaultEnvironment.
	Environment *scene.Environment
	// Mailbox delivers settings snapshots; nil disables live settings.
	Mailbox *scene.Mailbox
	// Now is the frame clock; nil means time.Now.
	Now func() time.Time
}

// Renderer owns the pipeline and mesh resources and draws one frame per Draw.
// It must be used from the thread that owns the device.
type Renderer struct {
	ID uuid.UUID

	dev     gpu.Device
	cam     *camera.PerspectiveCamera
	obj     *scene.Object
	env     scene.Environment
	mailbox *scene.Mailbox
	now     func() time.Time
	last    time.Time
	log     *zap.Logger

	pipeline   gpu.PipelineID
	depthState gpu.DepthStencilID
	mesh       *mesh.Resource
	fallback   struct {
		baseColor gpu.TextureID
		normalMap gpu.TextureID
	}
}

// VertexLayout is the layout the mesh shaders consume: interleaved
// position/normal/uv in buffer 0, tangents in 1 and bitangents in 2.
func VertexLayout() gpu.VertexLayout {
	return gpu.VertexLayout{
		Attributes: []gpu.VertexAttribute{
			{Location: 0, Format: gpu.Float3, Offset: 0, BufferIndex: SlotVertices},
			{Location: 1, Format: gpu.Float3, Offset: 12, BufferIndex: SlotVertices},
			{Location: 2, Format: gpu.Float2, Offset: 24, BufferIndex: SlotVertices},
			{Location: 3, Format: gpu.Float3, Offset: 0, BufferIndex: SlotTangents},
			{Location: 4, Format: gpu.Float3, Offset: 0, BufferIndex: SlotBitangents},
		},
		Strides: []int{32, 12, 12},
	}
}

// New sets up everything needed to draw obj as seen by cam.
func New(dev gpu.Device, store AssetSource, cam *camera.PerspectiveCamera, obj *scene.Object, opts Options) (*Renderer, error) {
	if dev == nil {
		return nil, &InitError{Stage: StageDevice, Err: gpu.ErrNoDevice}
	}

	r := &Renderer{
		ID:      uuid.New(),
		dev:     dev,
		cam:     cam,
		obj:     obj,
		env:     scene.DefaultEnvironment(),
		mailbox: opts.Mailbox,
		now:     opts.Now,
		log:     logger.Named("renderer"),
	}
	if opts.Environment != nil {
		r.env = *opts.Environment
	}
	if r.now == nil {
		r.now = time.Now
	}
	name := opts.Mesh
	if name == "" {
		name = DefaultMesh
	}

	data, err := mesh.Load(store, name)
	if err != nil {
		return nil, &InitError{Stage: StageAsset, Err: err}
	}
	for _, w := range data.Warnings {
		r.log.Warn("mesh asset", zap.String("mesh", name), zap.Error(w))
	}

	r.pipeline, err = dev.NewPipeline(gpu.PipelineDesc{
		Name:           "mesh",
		VertexSource:   shaders.MeshVertexShader,
		FragmentSource: shaders.MeshFragmentShader,
		Layout:         VertexLayout(),
		ColorFormat:    gpu.BGRA8Unorm,
		DepthFormat:    gpu.Depth32Float,
		UniformBlocks:  map[string]int{"Uniforms": SlotUniforms, "Params": SlotParams},
		Samplers:       map[string]int{"baseColorMap": TextureBaseColor, "normalMap": TextureNormalMap},
	})
	if err != nil {
		return nil, &InitError{Stage: StagePipeline, Err: err}
	}

	r.depthState, err = dev.NewDepthStencilState(gpu.DepthStencilDesc{
		Compare:      gpu.CompareLess,
		WriteEnabled: true,
	})
	if err != nil {
		return nil, &InitError{Stage: StageDepthState, Err: err}
	}

	r.mesh, err = mesh.Upload(dev, data)
	if err != nil {
		return nil, &InitError{Stage: StageAsset, Err: err}
	}

	if r.fallback.baseColor, err = dev.NewTexture(texture.Solid(color.RGBA{255, 255, 255, 255})); err != nil {
		return nil, &InitError{Stage: StageAsset, Err: fmt.Errorf("fallback base color: %w", err)}
	}
	if r.fallback.normalMap, err = dev.NewTexture(texture.Solid(color.RGBA{128, 128, 255, 255})); err != nil {
		return nil, &InitError{Stage: StageAsset, Err: fmt.Errorf("fallback normal map: %w", err)}
	}

	for _, terr := range r.mesh.LoadTextures(dev, store) {
		r.log.Warn("texture unavailable, using fallback", zap.String("mesh", name), zap.Error(terr))
	}

	r.last = r.now()

	r.log.Info("renderer ready",
		zap.String("id", r.ID.String()),
		zap.String("mesh", name),
		zap.String("asset", r.mesh.ID.String()),
		zap.Int("vertices", r.mesh.VertexCount),
		zap.Int("submeshes", len(r.mesh.Submeshes)),
		zap.Bool("generated_normals", data.GeneratedNormals),
	)
	return r, nil
}

// Mesh returns the uploaded mesh.
func (r *Renderer) Mesh() *mesh.Resource { return r.mesh }

// Environment returns the lighting currently in effect.
func (r *Renderer) Environment() scene.Environment { return r.env }

// applySettings applies a pending settings snapshot, if any.
func (r *Renderer) applySettings() {
	if r.mailbox == nil {
		return
	}
	s := r.mailbox.Take()
	if s == nil {
		return
	}

	r.cam.SetPosition(s.Camera.Position)
	r.cam.SetRotation(s.Camera.Rotation)
	r.cam.SetFOV(s.Camera.FOV)
	r.cam.SetNear(s.Camera.Near)
	r.cam.SetFar(s.Camera.Far)
	s.Object.Apply(r.obj)
	r.env = s.Environment

	r.log.Debug("settings applied",
		zap.Float32("fov", s.Camera.FOV),
		zap.Bool("autorotate", s.Object.Autorotate),
		zap.String("background", s.Environment.BackgroundColor.Hex()),
	)
}

// Draw renders and presents one frame. ErrCommandBufferUnavailable and
// ErrSurfaceUnavailable mean the frame was skipped and the next Draw may
// succeed.
func (r *Renderer) Draw() error {
	r.applySettings()

	now := r.now()
	dt := float32(now.Sub(r.last).Seconds())
	r.last = now

	r.obj.Update(dt)

	uniforms := newUniforms(r.obj.ModelMatrix(), r.cam.ViewMatrix(), r.cam.ProjectionMatrix(), r.cam.Position())
	params := newParams(r.env)

	frame, err := r.dev.NewFrame(r.env.ClearColor())
	if err != nil {
		return fmt.Errorf("new frame: %w", err)
	}

	frame.SetDepthStencilState(r.depthState)
	frame.SetPipeline(r.pipeline)
	frame.SetVertexBytes(SlotUniforms, gpu.Bytes(&uniforms))
	frame.SetFragmentBytes(SlotParams, gpu.Bytes(&params))

	frame.SetVertexBuffer(SlotVertices, r.mesh.Vertices, 0)
	frame.SetVertexBuffer(SlotTangents, r.mesh.Tangents, 0)
	frame.SetVertexBuffer(SlotBitangents, r.mesh.Bitangents, 0)

	for _, sm := range r.mesh.Submeshes {
		base, normal := r.fallback.baseColor, r.fallback.normalMap
		if sm.HasBaseColor {
			base = sm.BaseColor
		}
		if sm.HasNormalMap {
			normal = sm.NormalMap
		}
		frame.SetFragmentTexture(TextureBaseColor, base)
		frame.SetFragmentTexture(TextureNormalMap, normal)
		frame.DrawIndexed(sm.IndexCount, sm.IndexType, sm.IndexBuffer, 0)
	}

	frame.EndEncoding()

	drawable, err := r.dev.NextDrawable()
	if err != nil {
		return fmt.Errorf("next drawable: %w", err)
	}
	if err := frame.Present(drawable); err != nil {
		return fmt.Errorf("present: %w", err)
	}
	return nil
}

// Resize updates the camera aspect ratio and the device's drawable size.
// A zero height leaves the camera unchanged.
func (r *Renderer) Resize(width, height int) {
	if height != 0 {
		r.cam.SetAspect(float32(width) / float32(height))
	}
	r.dev.Resize(width, height)
}

// Skippable reports whether err only means the current frame was dropped.
func Skippable(err error) bool {
	return errors.Is(err, gpu.ErrCommandBufferUnavailable) || errors.Is(err, gpu.ErrSurfaceUnavailable)
}

// Release frees every device object.
func (r *Renderer) Release() {
	r.log.Info("releasing renderer", zap.String("id", r.ID.String()))
	r.dev.Release()
}
