package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// MTLMaterial is one newmtl block.
type MTLMaterial struct {
	Name       string
	Ambient    [3]float32 // Ka
	Diffuse    [3]float32 // Kd
	DiffuseMap string     // map_Kd
	NormalMap  string     // map_Bump, bump or norm
}

// MTL is a parsed material library.
type MTL struct {
	Materials []MTLMaterial
}

// ParseMTL parses MTL text. Unknown statements are ignored.
func ParseMTL(data []byte) (*MTL, error) {
	lib := &MTL{}
	var cur *MTLMaterial

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		key := fields[0]
		if key == "newmtl" {
			lib.Materials = append(lib.Materials, MTLMaterial{
				Name:    strings.Join(fields[1:], " "),
				Diffuse: [3]float32{1, 1, 1},
			})
			cur = &lib.Materials[len(lib.Materials)-1]
			continue
		}
		if cur == nil {
			continue
		}

		var err error
		switch strings.ToLower(key) {
		case "kd":
			cur.Diffuse, err = parseFloat3(fields[1:])
		case "ka":
			cur.Ambient, err = parseFloat3(fields[1:])
		case "map_kd":
			cur.DiffuseMap = mapPath(fields[1:])
		case "map_bump", "bump", "norm":
			cur.NormalMap = mapPath(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mtl: %w", err)
	}
	return lib, nil
}

// ParseMTLFile parses an MTL file from disk.
func ParseMTLFile(path string) (*MTL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MTL file: %w", err)
	}
	return ParseMTL(data)
}

// Material returns the named material, or nil.
func (m *MTL) Material(name string) *MTLMaterial {
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return &m.Materials[i]
		}
	}
	return nil
}

// Number of arguments taken by texture map options.
var mapOptionArgs = map[string]int{
	"-bm": 1, "-blendu": 1, "-blendv": 1, "-boost": 1, "-cc": 1, "-clamp": 1,
	"-imfchan": 1, "-texres": 1, "-mm": 2, "-o": 3, "-s": 3, "-t": 3,
}

// mapPath skips texture map options and returns the file name, which may
// contain spaces.
func mapPath(fields []string) string {
	i := 0
	for i < len(fields) {
		n, ok := mapOptionArgs[strings.ToLower(fields[i])]
		if !ok {
			break
		}
		i += 1 + n
	}
	if i >= len(fields) {
		return ""
	}
	return strings.ReplaceAll(strings.Join(fields[i:], " "), `\`, "/")
}
