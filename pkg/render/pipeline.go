package render

import (
	"fmt"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// MeshSource is the read-only mesh surface the pipeline consumes. Each
// face corner carries independent position, uv and normal indices; -1
// marks an absent uv or normal.
type MeshSource interface {
	PositionCount() int
	FaceCount() int
	Position(i int) math3d.Vec3
	UV(i int) math3d.Vec2
	Normal(i int) math3d.Vec3
	FaceIndices(i int) (pos, uv, norm [3]int)
}

// Lighting selects the normal fed to the shader.
type Lighting int

const (
	LightingNone   Lighting = iota // Unlit: sampled color as is
	LightingFace                   // One normal per face from its positions
	LightingVertex                 // Interpolated mesh normals
)

var lightingNames = map[Lighting]string{
	LightingNone:   "none",
	LightingFace:   "face",
	LightingVertex: "vertex",
}

func (l Lighting) String() string {
	if s, ok := lightingNames[l]; ok {
		return s
	}
	return fmt.Sprintf("Lighting(%d)", int(l))
}

// ParseLighting maps "none", "face" or "vertex" to a Lighting.
func ParseLighting(s string) (Lighting, error) {
	for l, name := range lightingNames {
		if name == s {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown lighting %q", s)
}

// Options configures one DrawMesh call.
type Options struct {
	Texture  Sampler     // nil samples Color everywhere
	Color    Color       // Flat color used without a texture
	Light    math3d.Vec3 // Towards the light, in model space
	Lighting Lighting
}

func (o Options) shader() FragmentShader {
	sampler := o.Texture
	if sampler == nil {
		sampler = SolidColor(o.Color)
	}
	if o.Lighting == LightingNone {
		return UnlitShader{Sampler: sampler}
	}
	return LambertShader{Light: o.Light, Sampler: sampler}
}

// Frame pairs a framebuffer with its depth buffer.
type Frame struct {
	Color *Framebuffer
	Depth *DepthBuffer
}

// NewFrame allocates both buffers.
func NewFrame(width, height int) (*Frame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrInvalidSize)
	}
	return &Frame{
		Color: NewFramebuffer(width, height),
		Depth: NewDepthBuffer(width, height),
	}, nil
}

// Clear fills the color buffer with bg and resets depth.
func (f *Frame) Clear(bg Color) {
	f.Color.Clear(bg)
	f.Depth.Clear()
}

// Renderer draws meshes into a frame through one transform.
type Renderer struct {
	Frame     *Frame
	Transform Transform
	raster    *Rasterizer
}

// NewRenderer creates a renderer for frame.
func NewRenderer(frame *Frame, t Transform) *Renderer {
	return &Renderer{
		Frame:     frame,
		Transform: t,
		raster:    NewRasterizer(frame.Color, frame.Depth),
	}
}

// Stats returns the counters accumulated over all draws.
func (r *Renderer) Stats() Stats {
	return r.raster.Stats
}

// DrawMesh transforms every position once, then rasterizes each face with
// the shader selected by opts. It returns the work done by this call.
func (r *Renderer) DrawMesh(mesh MeshSource, opts Options) Stats {
	before := r.raster.Stats
	shader := opts.shader()

	screen := make([]math3d.Vec3, mesh.PositionCount())
	for i := range screen {
		screen[i] = r.Transform.WorldToScreen(mesh.Position(i))
	}

	for i := range mesh.FaceCount() {
		pos, uv, norm := mesh.FaceIndices(i)

		var tri ScreenTriangle
		for j := range 3 {
			tri.Screen[j] = screen[pos[j]]
			if uv[j] >= 0 {
				tri.UV[j] = mesh.UV(uv[j])
			}
		}

		if opts.Lighting != LightingNone {
			var face math3d.Vec3
			haveFace := false
			for j := range 3 {
				if opts.Lighting == LightingVertex && norm[j] >= 0 {
					tri.Normal[j] = mesh.Normal(norm[j])
					continue
				}
				if !haveFace {
					face = faceNormal(mesh, pos)
					haveFace = true
				}
				tri.Normal[j] = face
			}
		}

		r.raster.DrawTriangle(tri, shader)
	}

	return r.raster.Stats.Sub(before)
}

// faceNormal returns the unit normal (v1-v0)×(v2-v0) in model space.
func faceNormal(mesh MeshSource, pos [3]int) math3d.Vec3 {
	v0, v1, v2 := mesh.Position(pos[0]), mesh.Position(pos[1]), mesh.Position(pos[2])
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}
