// meshtool is a CLI utility for inspecting OBJ mesh assets without a GPU.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/h2non/filetype"

	"github.com/Faultbox/pbrview/internal/assets"
	"github.com/Faultbox/pbrview/internal/engine/mesh"
	"github.com/Faultbox/pbrview/internal/engine/texture"
	"github.com/Faultbox/pbrview/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "textures", "tex":
		cmdTextures(args)
	case "tangents":
		cmdTangents(args)
	case "materials", "mtl":
		cmdMaterials(args)
	case "extract", "x":
		cmdExtract(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - OBJ mesh asset utility

Usage:
  meshtool <command> [options] [mesh.obj]

Commands:
  info [mesh.obj]              Show vertex, index and submesh counts
  textures [mesh.obj]          Check every referenced texture
  tangents [-n N] [mesh.obj]   Print generated tangent frames
  materials [mesh.obj]         List materials and the triangles using them
  extract [pattern] [output]   Write the built-in assets to a directory

Without a mesh argument the built-in cube is used.

Examples:
  meshtool info models/teapot.obj
  meshtool tangents -n 4
  meshtool extract "*.png" ./out`)
}

// openMesh loads name from disk, or the built-in mesh when name is empty.
func openMesh(name string) (*mesh.Data, *assets.Manager) {
	store := assets.NewManager()
	if name == "" {
		name = assets.DefaultMesh
	} else {
		if err := store.AddDir(filepath.Dir(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		name = filepath.Base(name)
	}

	d, err := mesh.Load(store, name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	for _, w := range d.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", w)
	}
	return d, store
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	fs.Parse(args)

	d, _ := openMesh(fs.Arg(0))

	minB, maxB := bounds(d.Vertices)
	indexType := "uint32"
	if len(d.Vertices) <= mesh.MaxUint16Vertices {
		indexType = "uint16"
	}

	fmt.Printf("Mesh:      %s\n", d.Name)
	fmt.Printf("ID:        %s\n", d.ID)
	fmt.Printf("Vertices:  %d\n", len(d.Vertices))
	fmt.Printf("Indices:   %d (%s)\n", d.IndexCount(), indexType)
	fmt.Printf("Triangles: %d\n", d.IndexCount()/3)
	fmt.Printf("Normals:   %s\n", map[bool]string{true: "generated", false: "from file"}[d.GeneratedNormals])
	fmt.Printf("Bounds:    (%.3f, %.3f, %.3f) - (%.3f, %.3f, %.3f)\n",
		minB[0], minB[1], minB[2], maxB[0], maxB[1], maxB[2])
	fmt.Println()
	fmt.Println("Submeshes:")
	for i, sm := range d.Submeshes {
		material := sm.Material
		if material == "" {
			material = "(none)"
		}
		fmt.Printf("  %-3d %-20s %d triangles\n", i, material, len(sm.Indices)/3)
	}
}

func cmdTextures(args []string) {
	fs := flag.NewFlagSet("textures", flag.ExitOnError)
	fs.Parse(args)

	d, store := openMesh(fs.Arg(0))

	failed := 0
	for _, sm := range d.Submeshes {
		for _, ref := range []struct{ kind, path string }{
			{"base color", sm.BaseColorPath},
			{"normal map", sm.NormalMapPath},
		} {
			if ref.path == "" {
				fmt.Printf("  %-20s %-11s (none, fallback)\n", sm.Material, ref.kind)
				continue
			}
			if err := checkTexture(store, ref.path, sm.Material, ref.kind); err != nil {
				fmt.Printf("  %-20s %-11s %s: %v\n", sm.Material, ref.kind, ref.path, err)
				failed++
			}
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n%d texture(s) unusable\n", failed)
		os.Exit(1)
	}
}

func checkTexture(store *assets.Manager, name, material, kind string) error {
	data, err := store.Load(name)
	if err != nil {
		return err
	}
	img, err := texture.Decode(data, name)
	if err != nil {
		return err
	}

	format := "tga"
	if k, _ := filetype.Match(data); k != filetype.Unknown {
		format = k.Extension
	}
	b := img.Bounds()
	fmt.Printf("  %-20s %-11s %s (%s %dx%d)\n", material, kind, name, format, b.Dx(), b.Dy())
	return nil
}

func cmdTangents(args []string) {
	fs := flag.NewFlagSet("tangents", flag.ExitOnError)
	limit := fs.Int("n", 8, "Limit output to N vertices (0 = all)")
	fs.Parse(args)

	d, _ := openMesh(fs.Arg(0))

	fmt.Printf("%-5s %-26s %-26s %-26s %s\n", "idx", "normal", "tangent", "bitangent", "w")
	for i, v := range d.Vertices {
		if *limit > 0 && i >= *limit {
			fmt.Fprintf(os.Stderr, "\n(showing first %d of %d vertices, use -n 0 for all)\n", *limit, len(d.Vertices))
			break
		}
		fmt.Printf("%-5d %-26s %-26s %-26s %+.0f\n", i,
			fmtVec(v.Normal), fmtVec(d.Tangents[i]), fmtVec(d.Bitangents[i]),
			handedness(v.Normal, d.Tangents[i], d.Bitangents[i]))
	}
}

func cmdMaterials(args []string) {
	fset := flag.NewFlagSet("materials", flag.ExitOnError)
	fset.Parse(args)

	obj, lib, err := readMaterials(fset.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	rows, undefined := materialUsage(obj, lib)
	fmt.Printf("%-20s %-9s %-28s %s\n", "material", "triangles", "base color", "normal map")
	for _, r := range rows {
		fmt.Printf("%-20s %-9d %-28s %s\n", r.Name, r.Triangles, orNone(r.DiffuseMap), orNone(r.NormalMap))
	}
	for _, name := range undefined {
		fmt.Fprintf(os.Stderr, "Warning: material %q is used but not defined\n", name)
	}
}

// readMaterials parses an OBJ file and every material library it names. An
// empty name reads the built-in mesh.
func readMaterials(name string) (*formats.OBJ, *formats.MTL, error) {
	lib := &formats.MTL{}

	if name == "" {
		store := assets.NewManager()
		raw, err := store.Load(assets.DefaultMesh)
		if err != nil {
			return nil, nil, err
		}
		obj, err := formats.ParseOBJ(raw)
		if err != nil {
			return nil, nil, err
		}
		for _, l := range obj.MaterialLibs {
			data, err := store.Load(l)
			if err != nil {
				return nil, nil, err
			}
			m, err := formats.ParseMTL(data)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", l, err)
			}
			lib.Materials = append(lib.Materials, m.Materials...)
		}
		return obj, lib, nil
	}

	obj, err := formats.ParseOBJFile(name)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", name, err)
	}
	for _, l := range obj.MaterialLibs {
		libPath := filepath.Join(filepath.Dir(name), filepath.FromSlash(l))
		m, err := formats.ParseMTLFile(libPath)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", libPath, err)
		}
		lib.Materials = append(lib.Materials, m.Materials...)
	}
	return obj, lib, nil
}

type materialRow struct {
	Name       string
	Triangles  int
	DiffuseMap string
	NormalMap  string
}

// materialUsage lists every material lib defines with the number of
// triangles using it, plus the names obj uses that lib does not define.
func materialUsage(obj *formats.OBJ, lib *formats.MTL) (rows []materialRow, undefined []string) {
	used := make(map[string]int)
	for _, g := range obj.Groups {
		if g.Material != "" {
			used[g.Material] += len(g.Triangles)
		}
	}

	for _, m := range lib.Materials {
		rows = append(rows, materialRow{
			Name:       m.Name,
			Triangles:  used[m.Name],
			DiffuseMap: m.DiffuseMap,
			NormalMap:  m.NormalMap,
		})
	}
	for _, g := range obj.Groups {
		if g.Material == "" || lib.Material(g.Material) != nil || slices.Contains(undefined, g.Material) {
			continue
		}
		undefined = append(undefined, g.Material)
	}
	return rows, undefined
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func cmdExtract(args []string) {
	fset := flag.NewFlagSet("extract", flag.ExitOnError)
	fset.Parse(args)

	pattern := "*"
	if fset.NArg() > 0 {
		pattern = strings.ToLower(fset.Arg(0))
	}
	outputDir := "."
	if fset.NArg() > 1 {
		outputDir = fset.Arg(1)
	}

	extracted := 0
	err := fs.WalkDir(assets.Default(), ".", func(p string, entry fs.DirEntry, err error) error {
		if err != nil || entry.IsDir() {
			return err
		}
		matched, _ := path.Match(pattern, strings.ToLower(path.Base(p)))
		if !matched {
			return nil
		}

		data, err := fs.ReadFile(assets.Default(), p)
		if err != nil {
			return err
		}

		// Preserve directory structure
		outputPath := filepath.Join(outputDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return err
		}

		fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
		extracted++
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
}

func bounds(vertices []mesh.Vertex) (minB, maxB [3]float32) {
	if len(vertices) == 0 {
		return
	}
	minB, maxB = vertices[0].Position, vertices[0].Position
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			minB[i] = min(minB[i], v.Position[i])
			maxB[i] = max(maxB[i], v.Position[i])
		}
	}
	return minB, maxB
}

// handedness is the sign of dot(cross(n, t), b).
func handedness(n, t, b [3]float32) float32 {
	c := [3]float32{
		n[1]*t[2] - n[2]*t[1],
		n[2]*t[0] - n[0]*t[2],
		n[0]*t[1] - n[1]*t[0],
	}
	if c[0]*b[0]+c[1]*b[1]+c[2]*b[2] < 0 {
		return -1
	}
	return 1
}

func fmtVec(v [3]float32) string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v[0], v[1], v[2])
}
