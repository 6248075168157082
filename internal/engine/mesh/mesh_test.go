package mesh

import (
	"encoding/binary"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/pbrview/internal/assets"
	"github.com/Faultbox/pbrview/internal/engine/gpu"
	"github.com/Faultbox/pbrview/internal/engine/gpu/gputest"
	"github.com/Faultbox/pbrview/pkg/formats"
	"github.com/Faultbox/pbrview/pkg/math"
)

const eps = 1e-4

// mapSource serves files from an in-memory FS.
type mapSource fstest.MapFS

func (m mapSource) Load(name string) ([]byte, error) {
	f, ok := m[name]
	if !ok {
		return nil, errors.New("not found: " + name)
	}
	return f.Data, nil
}

func assertVec(t *testing.T, want, got [3]float32) {
	t.Helper()
	for i := range want {
		assert.InDeltaf(t, want[i], got[i], eps, "component %d of %v", i, got)
	}
}

func TestVertexSize(t *testing.T) {
	assert.Len(t, gpu.Bytes(&Vertex{}), 32)
}

func TestGenerateTangents_PlanarQuad(t *testing.T) {
	// Quad in the XY plane facing +Z. Texture-space v runs down the image,
	// so the top row (v=0) sits at +Y.
	n := [3]float32{0, 0, 1}
	vertices := []Vertex{
		{Position: [3]float32{0, 0, 0}, Normal: n, UV: [2]float32{0, 1}},
		{Position: [3]float32{2, 0, 0}, Normal: n, UV: [2]float32{1, 1}},
		{Position: [3]float32{2, 2, 0}, Normal: n, UV: [2]float32{1, 0}},
		{Position: [3]float32{0, 2, 0}, Normal: n, UV: [2]float32{0, 0}},
	}
	indices := []uint32{0, 1, 2, 0, 2, 3}

	tangents, bitangents := GenerateTangents(vertices, indices)

	require.Len(t, tangents, 4)
	for i := range vertices {
		assertVec(t, [3]float32{1, 0, 0}, tangents[i])
		assertVec(t, [3]float32{0, 1, 0}, bitangents[i])
	}
}

func TestGenerateTangents_MirroredUV(t *testing.T) {
	// Image flipped vertically: the top row sits at -Y.
	n := [3]float32{0, 0, 1}
	vertices := []Vertex{
		{Position: [3]float32{0, 0, 0}, Normal: n, UV: [2]float32{0, 0}},
		{Position: [3]float32{1, 0, 0}, Normal: n, UV: [2]float32{1, 0}},
		{Position: [3]float32{0, 1, 0}, Normal: n, UV: [2]float32{0, 1}},
	}

	tangents, bitangents := GenerateTangents(vertices, []uint32{0, 1, 2})

	assertVec(t, [3]float32{1, 0, 0}, tangents[0])
	assertVec(t, [3]float32{0, -1, 0}, bitangents[0])
}

func TestGenerateTangents_DegenerateUV(t *testing.T) {
	n := [3]float32{0, 1, 0}
	vertices := []Vertex{
		{Position: [3]float32{0, 0, 0}, Normal: n},
		{Position: [3]float32{1, 0, 0}, Normal: n},
		{Position: [3]float32{0, 0, 1}, Normal: n},
	}

	tangents, bitangents := GenerateTangents(vertices, []uint32{0, 1, 2})

	for i := range vertices {
		tv, bv, nv := math.Vec3(tangents[i]), math.Vec3(bitangents[i]), math.Vec3(n)
		assert.InDelta(t, 1, tv.Len(), eps, "tangent is unit length")
		assert.InDelta(t, 0, tv.Dot(nv), eps, "tangent is perpendicular to normal")
		assert.InDelta(t, 0, bv.Dot(nv), eps, "bitangent is perpendicular to normal")
	}
}

func TestBuild_DedupesCorners(t *testing.T) {
	obj, err := formats.ParseOBJ([]byte(`
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`))
	require.NoError(t, err)

	d, err := Build(obj, nil, ".")
	require.NoError(t, err)

	assert.Len(t, d.Vertices, 4, "shared corners collapse to one vertex")
	require.Len(t, d.Submeshes, 1)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, d.Submeshes[0].Indices)
	assert.False(t, d.GeneratedNormals)

	// v is flipped so the top image row sits at v=1 in the file.
	assert.Equal(t, [2]float32{0, 1}, d.Vertices[0].UV)
	assert.Equal(t, [2]float32{1, 0}, d.Vertices[2].UV)

	assert.Len(t, d.Tangents, 4)
	assert.Len(t, d.Bitangents, 4)
	assertVec(t, [3]float32{1, 0, 0}, d.Tangents[0])
}

func TestBuild_GeneratesNormals(t *testing.T) {
	obj, err := formats.ParseOBJ([]byte(`
v 0 0 0
v 0 0 1
v 1 0 0
f 1 2 3
`))
	require.NoError(t, err)

	d, err := Build(obj, nil, ".")
	require.NoError(t, err)

	assert.True(t, d.GeneratedNormals)
	for _, v := range d.Vertices {
		assertVec(t, [3]float32{0, 1, 0}, v.Normal)
	}
}

func TestBuild_ResolvesMaterialPaths(t *testing.T) {
	obj, err := formats.ParseOBJ([]byte("v 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl m\nf 1 2 3\nusemtl none\nf 1 3 2\n"))
	require.NoError(t, err)
	lib, err := formats.ParseMTL([]byte("newmtl m\nmap_Kd tex/a.png\nnorm /abs/n.png\n"))
	require.NoError(t, err)

	d, err := Build(obj, lib, "models")
	require.NoError(t, err)

	require.Len(t, d.Submeshes, 2)
	assert.Equal(t, "models/tex/a.png", d.Submeshes[0].BaseColorPath)
	assert.Equal(t, "abs/n.png", d.Submeshes[0].NormalMapPath)
	assert.Empty(t, d.Submeshes[1].BaseColorPath, "unknown material has no maps")
}

func TestLoad_DefaultCube(t *testing.T) {
	d, err := Load(assets.NewManager(), assets.DefaultMesh)
	require.NoError(t, err)

	assert.Empty(t, d.Warnings)
	assert.Len(t, d.Vertices, 24)
	assert.Equal(t, 36, d.IndexCount())
	require.Len(t, d.Submeshes, 1)
	assert.Equal(t, "brick", d.Submeshes[0].Material)
	assert.Equal(t, "textures/brick_basecolor.png", d.Submeshes[0].BaseColorPath)
	assert.Equal(t, "textures/brick_normal.png", d.Submeshes[0].NormalMapPath)
}

func TestLoad_DefaultCubeTangentFrame(t *testing.T) {
	d, err := Load(assets.NewManager(), assets.DefaultMesh)
	require.NoError(t, err)

	// The +Z face shows the image upright: u along +X, top row at +Y.
	var front int
	for i, v := range d.Vertices {
		if v.Normal != [3]float32{0, 0, 1} {
			continue
		}
		front++
		assertVec(t, [3]float32{1, 0, 0}, d.Tangents[i])
		assertVec(t, [3]float32{0, 1, 0}, d.Bitangents[i])
	}
	assert.Equal(t, 4, front)
}

func TestContentID(t *testing.T) {
	a := ContentID([]byte("v 0 0 0\n"))
	assert.Equal(t, a, ContentID([]byte("v 0 0 0\n")))
	assert.NotEqual(t, a, ContentID([]byte("v 0 0 1\n")))
	assert.NotEqual(t, uuid.Nil, a)
}

func TestLoad_IDFollowsContent(t *testing.T) {
	store := assets.NewManager()
	raw, err := store.Load(assets.DefaultMesh)
	require.NoError(t, err)

	d, err := Load(store, assets.DefaultMesh)
	require.NoError(t, err)
	assert.Equal(t, ContentID(raw), d.ID)

	src := mapSource{
		"a.obj": {Data: raw},
		"b.obj": {Data: raw},
	}
	a, err := Load(src, "a.obj")
	require.NoError(t, err)
	b, err := Load(src, "b.obj")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID, "same bytes under another name")
}

func TestLoad_MissingMaterialLibrary(t *testing.T) {
	src := mapSource{
		"m/tri.obj": {Data: []byte("mtllib tri.mtl\nv 0 0 0\nv 1 0 0\nv 0 1 0\nusemtl x\nf 1 2 3\n")},
	}

	d, err := Load(src, "m/tri.obj")
	require.NoError(t, err)
	require.Len(t, d.Warnings, 1)
	assert.Contains(t, d.Warnings[0].Error(), "m/tri.mtl")
	assert.Empty(t, d.Submeshes[0].BaseColorPath)
}

func TestLoad_Errors(t *testing.T) {
	src := mapSource{"bad.obj": {Data: []byte("v 0 0 0\n")}}

	_, err := Load(src, "missing.obj")
	assert.Error(t, err)

	_, err = Load(src, "bad.obj")
	assert.ErrorIs(t, err, formats.ErrOBJNoFaces)
}

func TestUpload(t *testing.T) {
	dev := gputest.NewDevice()
	d, err := Load(assets.NewManager(), assets.DefaultMesh)
	require.NoError(t, err)

	r, err := Upload(dev, d)
	require.NoError(t, err)

	assert.Equal(t, d.ID, r.ID)
	assert.Equal(t, 24, r.VertexCount)
	assert.Len(t, dev.Buffers[r.Vertices].Data, 24*32)
	assert.Len(t, dev.Buffers[r.Tangents].Data, 24*12)
	assert.Len(t, dev.Buffers[r.Bitangents].Data, 24*12)

	require.Len(t, r.Submeshes, 1)
	sm := r.Submeshes[0]
	assert.Equal(t, gpu.IndexUint16, sm.IndexType)
	assert.Equal(t, 36, sm.IndexCount)
	idx := dev.Buffers[sm.IndexBuffer]
	assert.Equal(t, gpu.IndexBuffer, idx.Usage)
	assert.Len(t, idx.Data, 36*2)
	assert.Equal(t, uint16(d.Submeshes[0].Indices[5]), binary.NativeEndian.Uint16(idx.Data[10:12]))
	assert.False(t, sm.HasBaseColor, "textures load separately")
}

func TestUpload_WideIndices(t *testing.T) {
	dev := gputest.NewDevice()
	d := &Data{
		Vertices:   make([]Vertex, MaxUint16Vertices+1),
		Tangents:   make([][3]float32, MaxUint16Vertices+1),
		Bitangents: make([][3]float32, MaxUint16Vertices+1),
		Submeshes:  []Submesh{{Indices: []uint32{0, 1, MaxUint16Vertices}}},
	}

	r, err := Upload(dev, d)
	require.NoError(t, err)
	assert.Equal(t, ContentID(gpu.SliceBytes(d.Vertices)), r.ID, "in-memory meshes hash their vertices")
	assert.Equal(t, gpu.IndexUint32, r.Submeshes[0].IndexType)
	assert.Len(t, dev.Buffers[r.Submeshes[0].IndexBuffer].Data, 12)
}

func TestUpload_Empty(t *testing.T) {
	_, err := Upload(gputest.NewDevice(), &Data{})
	assert.ErrorIs(t, err, ErrEmptyMesh)
}

func TestLoadTextures(t *testing.T) {
	dev := gputest.NewDevice()
	store := assets.NewManager()
	d, err := Load(store, assets.DefaultMesh)
	require.NoError(t, err)
	r, err := Upload(dev, d)
	require.NoError(t, err)

	errs := r.LoadTextures(dev, store)
	assert.Empty(t, errs)
	assert.True(t, r.Submeshes[0].HasBaseColor)
	assert.True(t, r.Submeshes[0].HasNormalMap)
	assert.Len(t, dev.Textures, 2)
	assert.Equal(t, 64, dev.Textures[r.Submeshes[0].BaseColor].Bounds().Dx())
}

func TestLoadTextures_SharedContentUploadsOnce(t *testing.T) {
	store := assets.NewManager()
	png, err := store.Load("textures/brick_basecolor.png")
	require.NoError(t, err)

	dev := gputest.NewDevice()
	d := &Data{
		Vertices:   make([]Vertex, 3),
		Tangents:   make([][3]float32, 3),
		Bitangents: make([][3]float32, 3),
		Submeshes: []Submesh{
			{Material: "a", Indices: []uint32{0, 1, 2}, BaseColorPath: "a.png"},
			{Material: "b", Indices: []uint32{0, 1, 2}, BaseColorPath: "copy/a.png"},
		},
	}
	r, err := Upload(dev, d)
	require.NoError(t, err)

	errs := r.LoadTextures(dev, mapSource{
		"a.png":      {Data: png},
		"copy/a.png": {Data: png},
	})
	assert.Empty(t, errs)
	assert.Len(t, dev.Textures, 1)
	assert.Equal(t, r.Submeshes[0].BaseColor, r.Submeshes[1].BaseColor)
}

func TestLoadTextures_MissingIsTolerated(t *testing.T) {
	dev := gputest.NewDevice()
	d := &Data{
		Vertices:   make([]Vertex, 3),
		Tangents:   make([][3]float32, 3),
		Bitangents: make([][3]float32, 3),
		Submeshes: []Submesh{{
			Material:      "m",
			Indices:       []uint32{0, 1, 2},
			BaseColorPath: "gone.png",
			NormalMapPath: "also_gone.png",
		}},
	}
	r, err := Upload(dev, d)
	require.NoError(t, err)

	errs := r.LoadTextures(dev, mapSource{})
	assert.Len(t, errs, 2)
	assert.False(t, r.Submeshes[0].HasBaseColor)
	assert.False(t, r.Submeshes[0].HasNormalMap)
}
