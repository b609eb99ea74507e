package render

import (
	"math"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// Wireframe renders mesh edges with the line drawer. There is no depth
// test; segments are clipped to the frame before they are walked.
type Wireframe struct {
	transform Transform
	fb        *Framebuffer
}

// NewWireframe creates a new wireframe renderer.
func NewWireframe(t Transform, fb *Framebuffer) *Wireframe {
	return &Wireframe{
		transform: t,
		fb:        fb,
	}
}

// DrawLine3D projects both endpoints and draws the segment between them.
func (w *Wireframe) DrawLine3D(p1, p2 math3d.Vec3, color Color) {
	w.drawSegment(w.transform.WorldToScreen(p1), w.transform.WorldToScreen(p2), color)
}

// DrawMesh draws the three edges of every face and returns the number of
// segments drawn. Shared edges are drawn once per face.
func (w *Wireframe) DrawMesh(mesh MeshSource, color Color) int {
	screen := make([]math3d.Vec3, mesh.PositionCount())
	for i := range screen {
		screen[i] = w.transform.WorldToScreen(mesh.Position(i))
	}

	segments := 0
	for i := range mesh.FaceCount() {
		pos, _, _ := mesh.FaceIndices(i)
		for j := range 3 {
			w.drawSegment(screen[pos[j]], screen[pos[(j+1)%3]], color)
			segments++
		}
	}
	return segments
}

// drawSegment clips a projected segment to the frame before it is walked.
func (w *Wireframe) drawSegment(a, b math3d.Vec3, color Color) {
	ca, cb, ok := ClipSegment(a.XY(), b.XY(), w.fb.Width, w.fb.Height)
	if !ok {
		return
	}
	w.fb.DrawLine(roundPixel(ca.X), roundPixel(ca.Y), roundPixel(cb.X), roundPixel(cb.Y), color)
}

func roundPixel(v float64) int {
	return int(math.Floor(v + 0.5))
}
