package models

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"fortio.org/log"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/tinyraster/pkg/imageio"
	"github.com/taigrr/tinyraster/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLTF loads a .gltf or .glb file with default options.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}
	return l.fromDocument(doc, filepath.Base(path))
}

func (l *GLTFLoader) fromDocument(doc *gltf.Document, name string) (*Mesh, error) {
	mesh := NewMesh(name)

	for _, m := range doc.Meshes {
		if err := processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	log.LogVf("gltf %s: v# %d f# %d vt# %d vn# %d",
		name, len(mesh.Positions), len(mesh.Faces), len(mesh.UVs), len(mesh.Normals))

	mesh.CalculateBounds()

	if l.CalculateNormals && len(mesh.Normals) == 0 {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}

	return mesh, nil
}

// processMesh appends the triangle primitives of m. Attributes in glTF share
// one index per vertex, so the three index fields of a corner are equal up
// to each list's base offset.
func processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, strips)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = modeler.ReadNormal(doc, doc.Accessors[normIdx], nil)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[uvIdx], nil)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		posBase, uvBase, normBase := len(mesh.Positions), len(mesh.UVs), len(mesh.Normals)

		for _, p := range positions {
			mesh.Positions = append(mesh.Positions, math3d.V3(float64(p[0]), float64(p[1]), float64(p[2])))
		}
		for _, n := range normals {
			mesh.Normals = append(mesh.Normals, math3d.V3(float64(n[0]), float64(n[1]), float64(n[2])))
		}
		for _, uv := range uvs {
			// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
			mesh.UVs = append(mesh.UVs, math3d.V2(float64(uv[0]), 1-float64(uv[1])))
		}

		var indices []uint32
		if prim.Indices != nil {
			indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		corner := func(i uint32) (FaceVertex, error) {
			idx := int(i)
			if idx >= len(positions) {
				return FaceVertex{}, fmt.Errorf("vertex %d of %d: %w", idx, len(positions), ErrIndexOutOfRange)
			}
			fv := FaceVertex{Position: posBase + idx, UV: -1, Normal: -1}
			if idx < len(uvs) {
				fv.UV = uvBase + idx
			}
			if idx < len(normals) {
				fv.Normal = normBase + idx
			}
			return fv, nil
		}

		for i := 0; i+2 < len(indices); i += 3 {
			var f Face
			for j := range 3 {
				fv, err := corner(indices[i+j])
				if err != nil {
					return err
				}
				f[j] = fv
			}
			mesh.Faces = append(mesh.Faces, f)
		}
	}

	return nil
}

// baseColorImage returns the image index used as base color by the first
// textured material, or the first image in the document.
func baseColorImage(doc *gltf.Document) (int, bool) {
	for _, mat := range doc.Materials {
		if mat.PBRMetallicRoughness == nil || mat.PBRMetallicRoughness.BaseColorTexture == nil {
			continue
		}
		texIdx := mat.PBRMetallicRoughness.BaseColorTexture.Index
		if texIdx < len(doc.Textures) && doc.Textures[texIdx].Source != nil {
			return *doc.Textures[texIdx].Source, true
		}
	}
	if len(doc.Images) > 0 {
		return 0, true
	}
	return 0, false
}

// imageBytes returns the encoded bytes of image i, either from a buffer view
// or from an external file next to the document.
func imageBytes(doc *gltf.Document, i int, dir string) ([]byte, error) {
	img := doc.Images[i]
	if img.BufferView != nil {
		bv := doc.BufferViews[*img.BufferView]
		buf := doc.Buffers[bv.Buffer]
		start := bv.ByteOffset
		end := start + bv.ByteLength
		if end > len(buf.Data) {
			return nil, fmt.Errorf("image %d: buffer view out of range", i)
		}
		return buf.Data[start:end], nil
	}
	if img.URI == "" || img.IsEmbeddedResource() {
		data, err := img.MarshalData()
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		return data, nil
	}
	data, err := os.ReadFile(filepath.Join(dir, img.URI))
	if err != nil {
		return nil, fmt.Errorf("image %d: %w", i, err)
	}
	return data, nil
}

// LoadGLBWithTexture loads a GLTF/GLB file and returns the mesh plus its
// base color texture. The texture is nil when none is present or it cannot
// be decoded.
func LoadGLBWithTexture(path string) (*Mesh, image.Image, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open gltf: %w", err)
	}

	mesh, err := NewGLTFLoader().fromDocument(doc, filepath.Base(path))
	if err != nil {
		return nil, nil, err
	}

	imgIdx, ok := baseColorImage(doc)
	if !ok {
		return mesh, nil, nil
	}
	data, err := imageBytes(doc, imgIdx, filepath.Dir(path))
	if err != nil {
		log.Warnf("gltf %s: texture skipped: %v", path, err)
		return mesh, nil, nil
	}
	tex, err := imageio.Decode(bytes.NewReader(data))
	if err != nil {
		log.Warnf("gltf %s: texture skipped: %v", path, err)
		return mesh, nil, nil
	}
	return mesh, tex, nil
}
