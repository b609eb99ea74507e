package render

import (
	"math"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// Transform maps model space to screen space:
// Viewport × Projection × ModelView, then the homogeneous divide.
type Transform struct {
	Viewport   math3d.Mat4
	Projection math3d.Mat4
	ModelView  math3d.Mat4

	combined math3d.Mat4
}

// DefaultViewport leaves a one-eighth margin on every side of a
// width×height frame and maps depth to [0, depth].
func DefaultViewport(width, height int, depth float64) math3d.Mat4 {
	w, h := float64(width), float64(height)
	return math3d.Viewport(w/8, h/8, w*3/4, h*3/4, depth)
}

// NewTransform builds the transform for cam on a width×height frame.
func NewTransform(cam *Camera, width, height int, depth float64) Transform {
	return NewTransformMatrices(DefaultViewport(width, height, depth), cam.Projection(), cam.ModelView())
}

// NewTransformMatrices composes explicit matrices. An identity projection
// gives an orthographic view.
func NewTransformMatrices(viewport, projection, modelView math3d.Mat4) Transform {
	return Transform{
		Viewport:   viewport,
		Projection: projection,
		ModelView:  modelView,
		combined:   viewport.Mul(projection).Mul(modelView),
	}
}

// Matrix returns the composed matrix.
func (t Transform) Matrix() math3d.Mat4 {
	return t.combined
}

// WorldToScreen transforms v and rounds X and Y to the nearest pixel with
// floor(x+0.5). Z is left as the depth key.
func (t Transform) WorldToScreen(v math3d.Vec3) math3d.Vec3 {
	p := t.combined.MulVec3(v)
	return math3d.V3(math.Floor(p.X+0.5), math.Floor(p.Y+0.5), p.Z)
}
