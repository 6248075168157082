// Package formats provides parsers for Wavefront OBJ meshes and their MTL
// material libraries.
package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrOBJNoFaces      = errors.New("obj has no faces")
	ErrOBJBadIndex     = errors.New("obj index out of range")
	ErrOBJMalformedRow = errors.New("malformed obj statement")
)

// NoIndex marks a face corner without a texture coordinate or normal.
const NoIndex = -1

// OBJCorner references the attributes of one face corner. Indices are
// zero-based; UV and Normal may be NoIndex.
type OBJCorner struct {
	Position int
	UV       int
	Normal   int
}

// OBJTriangle is one triangle after fan triangulation.
type OBJTriangle [3]OBJCorner

// OBJGroup is a run of triangles sharing one material, in file order.
type OBJGroup struct {
	Material  string
	Triangles []OBJTriangle
}

// OBJ is a parsed Wavefront object file.
type OBJ struct {
	Positions    [][3]float32
	UVs          [][2]float32
	Normals      [][3]float32
	Groups       []OBJGroup
	MaterialLibs []string
}

// ParseOBJ parses OBJ text. Polygons are triangulated as fans around their
// first corner; negative (relative) indices are resolved.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	current := -1

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var err error
		switch fields[0] {
		case "v":
			var v [3]float32
			v, err = parseFloat3(fields[1:])
			obj.Positions = append(obj.Positions, v)
		case "vt":
			var uv [2]float32
			uv, err = parseUV(fields[1:])
			obj.UVs = append(obj.UVs, uv)
		case "vn":
			var n [3]float32
			n, err = parseFloat3(fields[1:])
			obj.Normals = append(obj.Normals, n)
		case "f":
			if current < 0 {
				obj.Groups = append(obj.Groups, OBJGroup{})
				current = len(obj.Groups) - 1
			}
			err = obj.parseFace(&obj.Groups[current], fields[1:])
		case "usemtl":
			name := strings.Join(fields[1:], " ")
			// Reuse the current group while it is still empty.
			if current >= 0 && len(obj.Groups[current].Triangles) == 0 {
				obj.Groups[current].Material = name
			} else {
				obj.Groups = append(obj.Groups, OBJGroup{Material: name})
				current = len(obj.Groups) - 1
			}
		case "mtllib":
			obj.MaterialLibs = append(obj.MaterialLibs, fields[1:]...)
		default:
			// o, g, s, l, p and vendor extensions carry nothing we render.
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading obj: %w", err)
	}

	// Drop materials that never received faces.
	groups := obj.Groups[:0]
	for _, g := range obj.Groups {
		if len(g.Triangles) > 0 {
			groups = append(groups, g)
		}
	}
	obj.Groups = groups

	if len(obj.Groups) == 0 {
		return nil, ErrOBJNoFaces
	}
	return obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

// TriangleCount returns the number of triangles across all groups.
func (o *OBJ) TriangleCount() int {
	n := 0
	for _, g := range o.Groups {
		n += len(g.Triangles)
	}
	return n
}

func (o *OBJ) parseFace(g *OBJGroup, fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("%w: face needs 3 corners, got %d", ErrOBJMalformedRow, len(fields))
	}

	corners := make([]OBJCorner, len(fields))
	for i, f := range fields {
		c, err := o.parseCorner(f)
		if err != nil {
			return err
		}
		corners[i] = c
	}

	for i := 2; i < len(corners); i++ {
		g.Triangles = append(g.Triangles, OBJTriangle{corners[0], corners[i-1], corners[i]})
	}
	return nil
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn".
func (o *OBJ) parseCorner(s string) (OBJCorner, error) {
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return OBJCorner{}, fmt.Errorf("%w: corner %q", ErrOBJMalformedRow, s)
	}

	c := OBJCorner{Position: NoIndex, UV: NoIndex, Normal: NoIndex}

	var err error
	if c.Position, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
		return c, err
	}
	if c.Position == NoIndex {
		return c, fmt.Errorf("%w: corner %q has no position", ErrOBJMalformedRow, s)
	}
	if len(parts) > 1 {
		if c.UV, err = resolveIndex(parts[1], len(o.UVs)); err != nil {
			return c, err
		}
	}
	if len(parts) > 2 {
		if c.Normal, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
			return c, err
		}
	}
	return c, nil
}

// resolveIndex converts a one-based or negative OBJ index to a zero-based one.
// An empty string yields NoIndex.
func resolveIndex(s string, count int) (int, error) {
	if s == "" {
		return NoIndex, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return NoIndex, fmt.Errorf("%w: index %q", ErrOBJMalformedRow, s)
	}

	idx := n - 1
	if n < 0 {
		idx = count + n
	}
	if n == 0 || idx < 0 || idx >= count {
		return NoIndex, fmt.Errorf("%w: %d of %d", ErrOBJBadIndex, n, count)
	}
	return idx, nil
}

func parseFloat3(fields []string) ([3]float32, error) {
	var v [3]float32
	if len(fields) < 3 {
		return v, fmt.Errorf("%w: want 3 components, got %d", ErrOBJMalformedRow, len(fields))
	}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return v, fmt.Errorf("%w: %v", ErrOBJMalformedRow, err)
		}
		v[i] = float32(f)
	}
	return v, nil
}

// parseUV reads u and v; a missing v defaults to 0 and any w is ignored.
func parseUV(fields []string) ([2]float32, error) {
	var uv [2]float32
	if len(fields) < 1 {
		return uv, fmt.Errorf("%w: texture coordinate without components", ErrOBJMalformedRow)
	}
	for i := 0; i < len(fields) && i < 2; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return uv, fmt.Errorf("%w: %v", ErrOBJMalformedRow, err)
		}
		uv[i] = float32(f)
	}
	return uv, nil
}
