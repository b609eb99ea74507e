package render

import (
	"fmt"
	"math"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// degenerateEpsilon bounds |u.z|, twice the signed screen area, below which
// a triangle is treated as degenerate.
const degenerateEpsilon = 1e-2

// ScreenTriangle is a triangle after the transform stage: X and Y in
// pixels, Z the depth key. UV and Normal are the per-vertex attributes to
// interpolate.
type ScreenTriangle struct {
	Screen [3]math3d.Vec3
	UV     [3]math3d.Vec2
	Normal [3]math3d.Vec3
}

// Stats counts rasterizer work.
type Stats struct {
	Triangles     int // Triangles submitted
	Candidates    int // Pixels inside bounding boxes
	Degenerate    int // Candidates rejected because the triangle has no area
	DepthRejected int // Inside pixels hidden by a closer one
	Written       int // Pixels shaded and stored
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Triangles += o.Triangles
	s.Candidates += o.Candidates
	s.Degenerate += o.Degenerate
	s.DepthRejected += o.DepthRejected
	s.Written += o.Written
}

// Sub returns s - o.
func (s Stats) Sub(o Stats) Stats {
	return Stats{
		Triangles:     s.Triangles - o.Triangles,
		Candidates:    s.Candidates - o.Candidates,
		Degenerate:    s.Degenerate - o.Degenerate,
		DepthRejected: s.DepthRejected - o.DepthRejected,
		Written:       s.Written - o.Written,
	}
}

// Rasterizer fills triangles into a framebuffer guarded by a depth buffer.
type Rasterizer struct {
	fb    *Framebuffer
	depth *DepthBuffer
	Stats Stats
}

// NewRasterizer creates a rasterizer over buffers of equal size.
func NewRasterizer(fb *Framebuffer, depth *DepthBuffer) *Rasterizer {
	if fb.Width != depth.Width || fb.Height != depth.Height {
		panic(fmt.Sprintf("render: framebuffer %dx%d and depth buffer %dx%d differ",
			fb.Width, fb.Height, depth.Width, depth.Height))
	}
	return &Rasterizer{fb: fb, depth: depth}
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	return r.fb.Height
}

// ResetStats zeroes the counters.
func (r *Rasterizer) ResetStats() {
	r.Stats = Stats{}
}

// Barycentric returns the weights of p with respect to triangle abc, using
// only X and Y. The weights sum to 1 and are all non-negative inside the
// triangle. A triangle with (near) zero area yields (-1, 1, 1), which no
// inside test accepts.
func Barycentric(a, b, c math3d.Vec3, p math3d.Vec2) math3d.Vec3 {
	u := math3d.V3(c.X-a.X, b.X-a.X, a.X-p.X).Cross(math3d.V3(c.Y-a.Y, b.Y-a.Y, a.Y-p.Y))
	if math.Abs(u.Z) <= degenerateEpsilon {
		return math3d.V3(-1, 1, 1)
	}
	return math3d.V3(1-(u.X+u.Y)/u.Z, u.Y/u.Z, u.X/u.Z)
}

// DrawTriangle scan-converts tri. Every integer pixel in the clamped
// bounding box whose weights are all non-negative is depth tested with
// z = Σ wi*zi; survivors are shaded from the linearly interpolated UV and
// normal and written. Ties in depth keep the earlier triangle.
func (r *Rasterizer) DrawTriangle(tri ScreenTriangle, shader FragmentShader) {
	a, b, c := tri.Screen[0], tri.Screen[1], tri.Screen[2]
	r.Stats.Triangles++
	// Same quantity as u.Z in Barycentric; only used for counting.
	flat := math.Abs((c.X-a.X)*(b.Y-a.Y)-(b.X-a.X)*(c.Y-a.Y)) <= degenerateEpsilon

	minX := max(0, int(math.Ceil(min(a.X, b.X, c.X))))
	minY := max(0, int(math.Ceil(min(a.Y, b.Y, c.Y))))
	maxX := min(r.fb.Width-1, int(math.Floor(max(a.X, b.X, c.X))))
	maxY := min(r.fb.Height-1, int(math.Floor(max(a.Y, b.Y, c.Y))))

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			r.Stats.Candidates++

			bc := Barycentric(a, b, c, math3d.V2(float64(x), float64(y)))
			if bc.X < 0 || bc.Y < 0 || bc.Z < 0 {
				if flat {
					r.Stats.Degenerate++
				}
				continue
			}

			z := a.Z*bc.X + b.Z*bc.Y + c.Z*bc.Z
			if !r.depth.TestAndSet(x, y, z) {
				r.Stats.DepthRejected++
				continue
			}

			uv := math3d.Weighted2(tri.UV[0], tri.UV[1], tri.UV[2], bc)
			n := math3d.Weighted(tri.Normal[0], tri.Normal[1], tri.Normal[2], bc)
			r.fb.Pixels[r.fb.offset(x, y)] = shader.Fragment(uv, n)
			r.Stats.Written++
		}
	}
}
