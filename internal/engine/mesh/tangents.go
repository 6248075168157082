package mesh

import (
	"github.com/chewxy/math32"

	"github.com/Faultbox/pbrview/pkg/math"
)

const epsilon = 1e-8

// GenerateTangents derives per-vertex tangents and bitangents from the UV
// gradient of every triangle. Contributions are summed per vertex, the tangent
// is orthogonalized against the normal, and the bitangent keeps the
// handedness of the UV mapping. Vertices whose triangles have degenerate UVs
// get an arbitrary basis perpendicular to the normal.
//
// UVs are in texture space (v grows toward the bottom row), so the tangent
// follows +u and the bitangent follows -v: toward the top of the image, which
// is what +Y (OpenGL convention) normal maps expect in their green channel.
func GenerateTangents(vertices []Vertex, indices []uint32) (tangents, bitangents [][3]float32) {
	tan := make([]math.Vec3, len(vertices))
	bit := make([]math.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := vertices[i0], vertices[i1], vertices[i2]

		e1 := math.Vec3(v1.Position).Sub(v0.Position)
		e2 := math.Vec3(v2.Position).Sub(v0.Position)
		du1, dv1 := v1.UV[0]-v0.UV[0], v1.UV[1]-v0.UV[1]
		du2, dv2 := v2.UV[0]-v0.UV[0], v2.UV[1]-v0.UV[1]

		r := du1*dv2 - du2*dv1
		if math32.Abs(r) < epsilon {
			continue
		}
		f := 1 / r

		t := e1.Mul(dv2).Sub(e2.Mul(dv1)).Mul(f)
		b := e1.Mul(du2).Sub(e2.Mul(du1)).Mul(f)
		for _, idx := range [3]uint32{i0, i1, i2} {
			tan[idx] = tan[idx].Add(t)
			bit[idx] = bit[idx].Add(b)
		}
	}

	tangents = make([][3]float32, len(vertices))
	bitangents = make([][3]float32, len(vertices))
	for i, v := range vertices {
		n := math.Vec3(v.Normal)

		// Gram-Schmidt against the normal.
		t := tan[i].Sub(n.Mul(n.Dot(tan[i])))
		if t.Len() < epsilon {
			t = perpendicular(n)
		}
		t = t.Normalize()

		b := n.Cross(t)
		if bit[i].Dot(b) < 0 {
			b = b.Mul(-1)
		}

		tangents[i] = t
		bitangents[i] = b
	}
	return tangents, bitangents
}

// perpendicular returns some unit vector orthogonal to n.
func perpendicular(n math.Vec3) math.Vec3 {
	axis := math.Vec3{1, 0, 0}
	if math32.Abs(n[0]) > 0.9 {
		axis = math.Vec3{0, 1, 0}
	}
	return axis.Sub(n.Mul(n.Dot(axis))).Normalize()
}

// normalize returns v scaled to unit length, or fallback when v is zero.
func normalize(v, fallback [3]float32) [3]float32 {
	vec := math.Vec3(v)
	if vec.Len() < epsilon {
		return fallback
	}
	return vec.Normalize()
}
