package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"fortio.org/log"
	"github.com/taigrr/tinyraster/pkg/math3d"
)

// OBJLoader loads Wavefront OBJ files.
type OBJLoader struct {
	// Options
	CalculateNormals bool // If true, calculate normals if not provided
	SmoothNormals    bool // If true, use smooth shading (averaged normals)
}

// NewOBJLoader creates a new OBJ loader with default settings.
func NewOBJLoader() *OBJLoader {
	return &OBJLoader{
		CalculateNormals: true,
		SmoothNormals:    false,
	}
}

// LoadFile loads an OBJ file from disk.
func (l *OBJLoader) LoadFile(path string) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	return l.Load(f, path)
}

// Load parses an OBJ from a reader. Face corners keep their own position,
// uv and normal indices; nothing is deduplicated or re-indexed.
func (l *OBJLoader) Load(r io.Reader, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseVec3(fields, "vertex")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			mesh.Positions = append(mesh.Positions, v)

		case "vt":
			// A third (w) component is allowed and ignored.
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: invalid texture coord (need u v)", lineNum)
			}
			u, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid u coordinate: %w", lineNum, err)
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid v coordinate: %w", lineNum, err)
			}
			mesh.UVs = append(mesh.UVs, math3d.V2(u, v))

		case "vn":
			n, err := parseVec3(fields, "normal")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			mesh.Normals = append(mesh.Normals, n)

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}

			corners := make([]FaceVertex, 0, len(fields)-1)
			for _, field := range fields[1:] {
				posIdx, uvIdx, normalIdx, err := parseFaceVertex(field)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}

				fv := FaceVertex{
					Position: resolveIndex(posIdx, len(mesh.Positions)),
					UV:       resolveIndex(uvIdx, len(mesh.UVs)),
					Normal:   resolveIndex(normalIdx, len(mesh.Normals)),
				}
				if err := checkFaceVertex(fv, mesh); err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				corners = append(corners, fv)
			}

			// Fan triangulation for convex polygons, winding preserved.
			for i := 1; i < len(corners)-1; i++ {
				mesh.Faces = append(mesh.Faces, Face{corners[0], corners[i], corners[i+1]})
			}

		case "o", "g": // Object/group name (use as mesh name)
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}

		case "mtllib", "usemtl", "s": // Materials and smoothing groups are not used

		default:
			// Ignore unknown directives
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	log.LogVf("obj %s: v# %d f# %d vt# %d vn# %d",
		name, len(mesh.Positions), len(mesh.Faces), len(mesh.UVs), len(mesh.Normals))

	mesh.CalculateBounds()

	// Calculate normals if needed
	if l.CalculateNormals && len(mesh.Normals) == 0 {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	return mesh, nil
}

func parseVec3(fields []string, what string) (math3d.Vec3, error) {
	if len(fields) < 4 {
		return math3d.Vec3{}, fmt.Errorf("invalid %s (need x y z)", what)
	}
	var xyz [3]float64
	for i := range xyz {
		f, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("invalid %s %c: %w", what, "xyz"[i], err)
		}
		xyz[i] = f
	}
	return math3d.V3(xyz[0], xyz[1], xyz[2]), nil
}

// checkFaceVertex rejects references to attributes not declared yet.
func checkFaceVertex(fv FaceVertex, mesh *Mesh) error {
	if fv.Position < 0 || fv.Position >= len(mesh.Positions) {
		return fmt.Errorf("position index %d: %w", fv.Position+1, ErrIndexOutOfRange)
	}
	if fv.UV < -1 || fv.UV >= len(mesh.UVs) {
		return fmt.Errorf("texture index %d: %w", fv.UV+1, ErrIndexOutOfRange)
	}
	if fv.Normal < -1 || fv.Normal >= len(mesh.Normals) {
		return fmt.Errorf("normal index %d: %w", fv.Normal+1, ErrIndexOutOfRange)
	}
	return nil
}

// parseFaceVertex parses a face vertex in format: v, v/vt, v/vt/vn, or v//vn
// Returns 1-indexed values (0 means not specified)
func parseFaceVertex(s string) (pos, uv, normal int, err error) {
	parts := strings.Split(s, "/")

	// Position (required)
	pos, err = strconv.Atoi(parts[0])
	if err != nil || pos == 0 {
		return 0, 0, 0, fmt.Errorf("invalid vertex index: %s", parts[0])
	}

	// UV (optional)
	if len(parts) > 1 && parts[1] != "" {
		uv, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid texture index: %s", parts[1])
		}
	}

	// Normal (optional)
	if len(parts) > 2 && parts[2] != "" {
		normal, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid normal index: %s", parts[2])
		}
	}

	return pos, uv, normal, nil
}

// resolveIndex converts OBJ 1-indexed (or negative) index to 0-indexed.
// Returns -1 if index was 0 (not specified) and -2 for a negative index
// reaching before the start of the list.
func resolveIndex(idx, count int) int {
	if idx == 0 {
		return -1
	}
	if idx < 0 {
		if count+idx < 0 {
			return -2
		}
		return count + idx // Negative indices count from end
	}
	return idx - 1 // Convert 1-indexed to 0-indexed
}

// LoadOBJ is a convenience function to load an OBJ file with default settings.
func LoadOBJ(path string) (*Mesh, error) {
	return NewOBJLoader().LoadFile(path)
}

// LoadOBJSmooth loads an OBJ file with smooth normals.
func LoadOBJSmooth(path string) (*Mesh, error) {
	loader := NewOBJLoader()
	loader.SmoothNormals = true
	return loader.LoadFile(path)
}
