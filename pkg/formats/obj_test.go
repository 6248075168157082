package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const quadOBJ = `# unit quad split across two materials
mtllib quad.mtl
o Quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl first
f 1/1/1 2/2/1 3/3/1
usemtl second
f -4/-4/-1 -2/-2/-1 -1/-1/-1
`

func TestParseOBJ_Quad(t *testing.T) {
	obj, err := ParseOBJ([]byte(quadOBJ))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	if len(obj.Positions) != 4 || len(obj.UVs) != 4 || len(obj.Normals) != 1 {
		t.Fatalf("got %d positions, %d uvs, %d normals; want 4, 4, 1",
			len(obj.Positions), len(obj.UVs), len(obj.Normals))
	}
	if len(obj.MaterialLibs) != 1 || obj.MaterialLibs[0] != "quad.mtl" {
		t.Errorf("expected mtllib quad.mtl, got %v", obj.MaterialLibs)
	}
	if len(obj.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(obj.Groups))
	}
	if obj.Groups[0].Material != "first" || obj.Groups[1].Material != "second" {
		t.Errorf("unexpected materials %q, %q", obj.Groups[0].Material, obj.Groups[1].Material)
	}

	// Negative indices resolve relative to the end of each list.
	want := OBJTriangle{
		{Position: 0, UV: 0, Normal: 0},
		{Position: 2, UV: 2, Normal: 0},
		{Position: 3, UV: 3, Normal: 0},
	}
	if got := obj.Groups[1].Triangles[0]; got != want {
		t.Errorf("second triangle = %+v, want %+v", got, want)
	}
	if obj.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", obj.TriangleCount())
	}
}

func TestParseOBJ_FanTriangulation(t *testing.T) {
	data := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
v -1 1 0
f 1 2 3 4 5
`
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	tris := obj.Groups[0].Triangles
	if len(tris) != 3 {
		t.Fatalf("expected 3 triangles from a pentagon, got %d", len(tris))
	}
	for i, tri := range tris {
		if tri[0].Position != 0 || tri[1].Position != i+1 || tri[2].Position != i+2 {
			t.Errorf("triangle %d = %v, want fan around corner 0", i, tri)
		}
		if tri[0].UV != NoIndex || tri[0].Normal != NoIndex {
			t.Errorf("triangle %d should have no uv or normal", i)
		}
	}
	if obj.Groups[0].Material != "" {
		t.Errorf("faces before usemtl should have no material, got %q", obj.Groups[0].Material)
	}
}

func TestParseOBJ_CornerForms(t *testing.T) {
	data := `
v 0 0 0
v 1 0 0
v 0 1 0
vt 0.5 0.5
vn 0 0 1
f 1//1 2//1 3//1
f 1/1 2/1 3/1
`
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}

	tris := obj.Groups[0].Triangles
	if c := tris[0][1]; c.UV != NoIndex || c.Normal != 0 {
		t.Errorf("v//vn corner = %+v", c)
	}
	if c := tris[1][2]; c.UV != 0 || c.Normal != NoIndex {
		t.Errorf("v/vt corner = %+v", c)
	}
}

func TestParseOBJ_EmptyMaterialGroupsDropped(t *testing.T) {
	data := `
v 0 0 0
v 1 0 0
v 0 1 0
usemtl unused
usemtl used
f 1 2 3
usemtl trailing
`
	obj, err := ParseOBJ([]byte(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	if len(obj.Groups) != 1 || obj.Groups[0].Material != "used" {
		t.Errorf("expected one group 'used', got %+v", obj.Groups)
	}
}

func TestParseOBJ_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"no faces", "v 0 0 0\n", ErrOBJNoFaces},
		{"index out of range", "v 0 0 0\nv 1 0 0\nf 1 2 3\n", ErrOBJBadIndex},
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n", ErrOBJBadIndex},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n", ErrOBJMalformedRow},
		{"bad float", "v 0 x 0\n", ErrOBJMalformedRow},
		{"short vertex", "v 0 0\n", ErrOBJMalformedRow},
		{"bad index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf a b c\n", ErrOBJMalformedRow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOBJ([]byte(tt.data))
			if !errors.Is(err, tt.want) {
				t.Errorf("got error %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParseOBJFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(path, []byte(quadOBJ), 0o644); err != nil {
		t.Fatal(err)
	}

	obj, err := ParseOBJFile(path)
	if err != nil {
		t.Fatalf("ParseOBJFile failed: %v", err)
	}
	if obj.TriangleCount() != 2 {
		t.Errorf("TriangleCount = %d, want 2", obj.TriangleCount())
	}

	if _, err := ParseOBJFile(filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Error("expected error for missing file")
	}
}
