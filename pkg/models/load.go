package models

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for mesh files with an unknown extension.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Load picks a loader from the file extension. The returned texture is the
// embedded base color of glTF files and nil otherwise. The mesh is
// validated before it is returned.
func Load(path string) (*Mesh, image.Image, error) {
	var (
		mesh *Mesh
		tex  image.Image
		err  error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".obj":
		mesh, err = LoadOBJ(path)
	case ".stl":
		mesh, err = LoadSTL(path)
	case ".gltf", ".glb":
		mesh, tex, err = LoadGLBWithTexture(path)
	default:
		return nil, nil, fmt.Errorf("%s: %w", ext, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, nil, err
	}

	if err := mesh.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validate %s: %w", filepath.Base(path), err)
	}
	return mesh, tex, nil
}
