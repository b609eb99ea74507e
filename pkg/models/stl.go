package models

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"fortio.org/log"
	"github.com/taigrr/tinyraster/pkg/math3d"
)

// STLLoader loads STL files in both ASCII and binary formats. Positions are
// deduplicated; each facet contributes one normal shared by its corners.
type STLLoader struct {
	// Options
	SmoothNormals bool // If true, replace facet normals with averaged per-position normals
}

// NewSTLLoader creates a new STL loader with default settings.
func NewSTLLoader() *STLLoader {
	return &STLLoader{}
}

// LoadFile loads an STL file from disk.
func (l *STLLoader) LoadFile(path string) (*Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}

	return l.LoadBytes(data, path)
}

// Load parses STL from a reader.
func (l *STLLoader) Load(r io.Reader, name string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read stl: %w", err)
	}
	return l.LoadBytes(data, name)
}

// LoadBytes parses STL from a byte slice.
func (l *STLLoader) LoadBytes(data []byte, name string) (*Mesh, error) {
	var (
		mesh *Mesh
		err  error
	)
	if isBinarySTL(data) {
		mesh, err = loadBinarySTL(data, name)
	} else {
		mesh, err = loadASCIISTL(data, name)
	}
	if err != nil {
		return nil, err
	}

	log.LogVf("stl %s: v# %d f# %d vn# %d", name, len(mesh.Positions), len(mesh.Faces), len(mesh.Normals))

	mesh.CalculateBounds()
	if l.SmoothNormals {
		mesh.CalculateSmoothNormals()
	} else {
		mesh.FlatNormals = true
	}
	return mesh, nil
}

// isBinarySTL detects binary STL: an 80-byte header and a triangle count
// that matches the file size. ASCII files start with "solid".
func isBinarySTL(data []byte) bool {
	if len(data) < 84 {
		return false
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if !bytes.HasPrefix(trimmed, []byte("solid")) {
		return true
	}
	// "solid" may also appear in a binary header.
	triCount := binary.LittleEndian.Uint32(data[80:84])
	return uint64(len(data)) == 84+uint64(triCount)*50
}

// positionIndex deduplicates positions by exact value.
type positionIndex struct {
	mesh  *Mesh
	index map[math3d.Vec3]int
}

func (p *positionIndex) add(v math3d.Vec3) int {
	if idx, ok := p.index[v]; ok {
		return idx
	}
	idx := len(p.mesh.Positions)
	p.mesh.Positions = append(p.mesh.Positions, v)
	p.index[v] = idx
	return idx
}

// addFacet appends a face. A zero facet normal, common in exported binary
// files, is recomputed from the corners.
func (p *positionIndex) addFacet(corners [3]int, normal math3d.Vec3) {
	if normal.LenSq() == 0 {
		v0 := p.mesh.Positions[corners[0]]
		v1 := p.mesh.Positions[corners[1]]
		v2 := p.mesh.Positions[corners[2]]
		normal = v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	}
	n := len(p.mesh.Normals)
	p.mesh.Normals = append(p.mesh.Normals, normal)
	var f Face
	for i, c := range corners {
		f[i] = FaceVertex{Position: c, UV: -1, Normal: n}
	}
	p.mesh.Faces = append(p.mesh.Faces, f)
}

func loadBinarySTL(data []byte, name string) (*Mesh, error) {
	if len(data) < 84 {
		return nil, fmt.Errorf("binary stl too short: %d bytes", len(data))
	}

	// Skip 80-byte header
	triCount := binary.LittleEndian.Uint32(data[80:84])

	expectedSize := 84 + uint64(triCount)*50
	if uint64(len(data)) < expectedSize {
		return nil, fmt.Errorf("binary stl truncated: expected %d bytes, got %d", expectedSize, len(data))
	}

	mesh := NewMesh(name)
	idx := &positionIndex{mesh: mesh, index: make(map[math3d.Vec3]int)}

	offset := 84
	for range triCount {
		normal := readVec3LE(data[offset:])
		offset += 12

		var corners [3]int
		for v := range 3 {
			corners[v] = idx.add(readVec3LE(data[offset:]))
			offset += 12
		}

		// Skip 2-byte attribute byte count
		offset += 2

		idx.addFacet(corners, normal.Normalize())
	}

	return mesh, nil
}

func readVec3LE(data []byte) math3d.Vec3 {
	return math3d.V3(
		float64(math.Float32frombits(binary.LittleEndian.Uint32(data))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(data[4:]))),
		float64(math.Float32frombits(binary.LittleEndian.Uint32(data[8:]))),
	)
}

func loadASCIISTL(data []byte, name string) (*Mesh, error) {
	mesh := NewMesh(name)
	idx := &positionIndex{mesh: mesh, index: make(map[math3d.Vec3]int)}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0

	var normal math3d.Vec3
	var corners []int
	inFacet := false
	inLoop := false

	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch strings.ToLower(fields[0]) {
		case "solid":
			if len(fields) > 1 {
				mesh.Name = fields[1]
			}

		case "facet":
			normal = math3d.Zero3()
			if len(fields) >= 5 && strings.ToLower(fields[1]) == "normal" {
				n, err := parseVec3(fields[1:], "normal")
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				normal = n.Normalize()
			}
			inFacet = true
			corners = corners[:0]

		case "outer":
			if len(fields) >= 2 && strings.ToLower(fields[1]) == "loop" {
				inLoop = true
			}

		case "vertex":
			if !inFacet || !inLoop {
				return nil, fmt.Errorf("line %d: vertex outside facet/loop", lineNum)
			}
			v, err := parseVec3(fields, "vertex")
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			corners = append(corners, idx.add(v))

		case "endloop":
			inLoop = false

		case "endfacet":
			if len(corners) >= 3 {
				idx.addFacet([3]int{corners[0], corners[1], corners[2]}, normal)
			}
			inFacet = false

		default:
			// endsolid and unknown keywords
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read ascii stl: %w", err)
	}

	return mesh, nil
}

// LoadSTL is a convenience function to load an STL file with default settings.
func LoadSTL(path string) (*Mesh, error) {
	return NewSTLLoader().LoadFile(path)
}
