package mesh

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Faultbox/pbrview/internal/engine/gpu"
	"github.com/Faultbox/pbrview/internal/engine/texture"
)

// MaxUint16Vertices is the largest vertex count addressed with 16-bit indices.
const MaxUint16Vertices = 65535

// GPUSubmesh is one uploaded draw range.
type GPUSubmesh struct {
	Material    string
	IndexBuffer gpu.BufferID
	IndexCount  int
	IndexType   gpu.IndexType

	BaseColor    gpu.TextureID
	HasBaseColor bool
	NormalMap    gpu.TextureID
	HasNormalMap bool

	baseColorPath string
	normalMapPath string
}

// Resource is a mesh resident on a device. It is immutable once textures
// are loaded.
type Resource struct {
	ID          uuid.UUID // content ID of the mesh data

	Name        string
	VertexCount int

	Vertices   gpu.BufferID // interleaved position, normal, uv
	Tangents   gpu.BufferID
	Bitangents gpu.BufferID
	Submeshes  []GPUSubmesh
}

// Upload copies d into device buffers. Textures are not loaded; see LoadTextures.
func Upload(dev gpu.Device, d *Data) (*Resource, error) {
	if len(d.Vertices) == 0 {
		return nil, ErrEmptyMesh
	}

	id := d.ID
	if id == uuid.Nil {
		id = ContentID(gpu.SliceBytes(d.Vertices))
	}

	r := &Resource{
		ID:          id,
		Name:        d.Name,
		VertexCount: len(d.Vertices),
	}

	var err error
	if r.Vertices, err = dev.NewBuffer(gpu.VertexBuffer, gpu.SliceBytes(d.Vertices)); err != nil {
		return nil, fmt.Errorf("vertex buffer: %w", err)
	}
	if r.Tangents, err = dev.NewBuffer(gpu.VertexBuffer, gpu.SliceBytes(d.Tangents)); err != nil {
		return nil, fmt.Errorf("tangent buffer: %w", err)
	}
	if r.Bitangents, err = dev.NewBuffer(gpu.VertexBuffer, gpu.SliceBytes(d.Bitangents)); err != nil {
		return nil, fmt.Errorf("bitangent buffer: %w", err)
	}

	indexType := gpu.IndexUint32
	if len(d.Vertices) <= MaxUint16Vertices {
		indexType = gpu.IndexUint16
	}

	for i, sm := range d.Submeshes {
		var data []byte
		if indexType == gpu.IndexUint16 {
			narrow := make([]uint16, len(sm.Indices))
			for j, idx := range sm.Indices {
				narrow[j] = uint16(idx)
			}
			data = gpu.SliceBytes(narrow)
		} else {
			data = gpu.SliceBytes(sm.Indices)
		}

		buf, err := dev.NewBuffer(gpu.IndexBuffer, data)
		if err != nil {
			return nil, fmt.Errorf("index buffer for submesh %d: %w", i, err)
		}
		r.Submeshes = append(r.Submeshes, GPUSubmesh{
			Material:      sm.Material,
			IndexBuffer:   buf,
			IndexCount:    len(sm.Indices),
			IndexType:     indexType,
			baseColorPath: sm.BaseColorPath,
			normalMapPath: sm.NormalMapPath,
		})
	}
	return r, nil
}

// LoadTextures loads every submesh's base-color and normal map from src.
// Failures are returned, not fatal: the affected map stays unset. Files with
// identical contents share one device texture.
func (r *Resource) LoadTextures(dev gpu.Device, src Source) []error {
	var errs []error
	uploaded := make(map[uuid.UUID]gpu.TextureID)
	for i := range r.Submeshes {
		sm := &r.Submeshes[i]

		if sm.baseColorPath != "" {
			tex, err := loadTexture(dev, src, sm.baseColorPath, uploaded)
			if err != nil {
				errs = append(errs, fmt.Errorf("submesh %s base color: %w", sm.Material, err))
			} else {
				sm.BaseColor, sm.HasBaseColor = tex, true
			}
		}
		if sm.normalMapPath != "" {
			tex, err := loadTexture(dev, src, sm.normalMapPath, uploaded)
			if err != nil {
				errs = append(errs, fmt.Errorf("submesh %s normal map: %w", sm.Material, err))
			} else {
				sm.NormalMap, sm.HasNormalMap = tex, true
			}
		}
	}
	return errs
}

func loadTexture(dev gpu.Device, src Source, name string, uploaded map[uuid.UUID]gpu.TextureID) (gpu.TextureID, error) {
	data, err := src.Load(name)
	if err != nil {
		return 0, err
	}
	id := ContentID(data)
	if tex, ok := uploaded[id]; ok {
		return tex, nil
	}
	img, err := texture.Decode(data, name)
	if err != nil {
		return 0, err
	}
	tex, err := dev.NewTexture(img)
	if err != nil {
		return 0, err
	}
	uploaded[id] = tex
	return tex, nil
}
