// Package mesh builds renderable meshes from Wavefront assets and uploads
// them to a gpu.Device.
package mesh

import (
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/Faultbox/pbrview/pkg/formats"
	"github.com/Faultbox/pbrview/pkg/math"
)

// Mesh errors.
var (
	ErrEmptyMesh = errors.New("mesh has no triangles")
)

// Vertex is the interleaved layout of vertex buffer 0 (32 bytes).
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// Submesh is an indexed draw range with one material.
type Submesh struct {
	Material      string
	Indices       []uint32
	BaseColorPath string // empty when the material has no map
	NormalMapPath string
}

// contentNamespace scopes name-based asset IDs.
var contentNamespace = uuid.MustParse("6f1c2a8e-3b4d-5e6f-8a9b-0c1d2e3f4a5b")

// ContentID returns a stable ID for an asset's bytes. Equal bytes always map
// to the same ID.
func ContentID(data []byte) uuid.UUID {
	return uuid.NewSHA1(contentNamespace, data)
}

// Data is a mesh on the CPU side, ready for upload.
type Data struct {
	// ID is the ContentID of the source OBJ. It is zero for meshes built
	// in memory.
	ID         uuid.UUID
	Name       string
	Vertices   []Vertex
	Tangents   [][3]float32
	Bitangents [][3]float32
	Submeshes  []Submesh

	// GeneratedNormals is true when the asset carried no normals for some corners.
	GeneratedNormals bool
	// Warnings lists material problems that did not prevent the build.
	Warnings []error
}

// Source reads asset files by slash-separated path.
type Source interface {
	Load(name string) ([]byte, error)
}

// Load reads an OBJ asset and its material libraries from src and builds the
// mesh. A missing or broken material library is not fatal: it is recorded in
// Data.Warnings and its textures are simply absent.
func Load(src Source, name string) (*Data, error) {
	raw, err := src.Load(name)
	if err != nil {
		return nil, fmt.Errorf("loading mesh %s: %w", name, err)
	}
	obj, err := formats.ParseOBJ(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing mesh %s: %w", name, err)
	}

	var warnings []error
	dir := path.Dir(name)
	lib := &formats.MTL{}
	for _, libName := range obj.MaterialLibs {
		libPath := path.Join(dir, libName)
		data, err := src.Load(libPath)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("loading material library %s: %w", libPath, err))
			continue
		}
		m, err := formats.ParseMTL(data)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("parsing material library %s: %w", libPath, err))
			continue
		}
		lib.Materials = append(lib.Materials, m.Materials...)
	}

	d, err := Build(obj, lib, dir)
	if err != nil {
		return nil, fmt.Errorf("building mesh %s: %w", name, err)
	}
	d.ID = ContentID(raw)
	d.Name = name
	d.Warnings = warnings
	return d, nil
}

// Build converts a parsed OBJ into indexed vertex data. Corners sharing
// position, UV and normal become one vertex. Missing normals are generated
// from face geometry, then tangents and bitangents are derived from UVs.
// Texture paths in lib are resolved against dir.
func Build(obj *formats.OBJ, lib *formats.MTL, dir string) (*Data, error) {
	if obj.TriangleCount() == 0 {
		return nil, ErrEmptyMesh
	}

	d := &Data{}
	lookup := make(map[formats.OBJCorner]uint32)

	// Area-weighted face normals per position, for corners without a normal.
	var faceNormals [][3]float32

	for _, g := range obj.Groups {
		sm := Submesh{Material: g.Material}
		if lib != nil {
			if mat := lib.Material(g.Material); mat != nil {
				sm.BaseColorPath = resolve(dir, mat.DiffuseMap)
				sm.NormalMapPath = resolve(dir, mat.NormalMap)
			}
		}

		for _, tri := range g.Triangles {
			for _, c := range tri {
				if c.Normal == formats.NoIndex && faceNormals == nil {
					faceNormals = accumulateFaceNormals(obj)
					d.GeneratedNormals = true
				}

				idx, ok := lookup[c]
				if !ok {
					idx = uint32(len(d.Vertices))
					lookup[c] = idx
					d.Vertices = append(d.Vertices, makeVertex(obj, c, faceNormals))
				}
				sm.Indices = append(sm.Indices, idx)
			}
		}
		d.Submeshes = append(d.Submeshes, sm)
	}

	d.Tangents, d.Bitangents = GenerateTangents(d.Vertices, d.allIndices())
	return d, nil
}

// IndexCount returns the total number of indices across submeshes.
func (d *Data) IndexCount() int {
	n := 0
	for _, sm := range d.Submeshes {
		n += len(sm.Indices)
	}
	return n
}

func (d *Data) allIndices() []uint32 {
	out := make([]uint32, 0, d.IndexCount())
	for _, sm := range d.Submeshes {
		out = append(out, sm.Indices...)
	}
	return out
}

func makeVertex(obj *formats.OBJ, c formats.OBJCorner, faceNormals [][3]float32) Vertex {
	v := Vertex{Position: obj.Positions[c.Position]}
	if c.UV != formats.NoIndex {
		uv := obj.UVs[c.UV]
		// OBJ puts v=0 at the bottom of the image; textures are uploaded top row first.
		v.UV = [2]float32{uv[0], 1 - uv[1]}
	}
	if c.Normal != formats.NoIndex {
		v.Normal = normalize(obj.Normals[c.Normal], [3]float32{0, 0, 1})
	} else {
		v.Normal = normalize(faceNormals[c.Position], [3]float32{0, 0, 1})
	}
	return v
}

func accumulateFaceNormals(obj *formats.OBJ) [][3]float32 {
	acc := make([][3]float32, len(obj.Positions))
	for _, g := range obj.Groups {
		for _, tri := range g.Triangles {
			p0 := math.Vec3(obj.Positions[tri[0].Position])
			p1 := math.Vec3(obj.Positions[tri[1].Position])
			p2 := math.Vec3(obj.Positions[tri[2].Position])
			// Unnormalized cross product weights by triangle area.
			n := p1.Sub(p0).Cross(p2.Sub(p0))
			for _, c := range tri {
				acc[c.Position] = math.Vec3(acc[c.Position]).Add(n)
			}
		}
	}
	return acc
}

func resolve(dir, p string) string {
	if p == "" {
		return ""
	}
	if path.IsAbs(p) {
		return path.Clean(p[1:])
	}
	return path.Join(dir, p)
}
