package render

import "github.com/taigrr/tinyraster/pkg/math3d"

// Camera looks from Eye at Center. Yaw spins the model about the vertical
// axis through Center before viewing.
type Camera struct {
	Eye    math3d.Vec3
	Center math3d.Vec3
	Up     math3d.Vec3
	Yaw    float64 // Radians
}

// NewCamera creates a camera at eye looking at the origin with +Y up.
func NewCamera(eye math3d.Vec3) *Camera {
	return &Camera{
		Eye:    eye,
		Center: math3d.Zero3(),
		Up:     math3d.Up(),
	}
}

// Distance returns |Eye - Center|.
func (c *Camera) Distance() float64 {
	return c.Eye.Sub(c.Center).Len()
}

// ModelView places Center at the origin with the eye on the +Z axis at
// Distance, so larger z is closer to the viewer.
func (c *Camera) ModelView() math3d.Mat4 {
	spin := math3d.Translate(c.Center).
		Mul(math3d.RotateY(c.Yaw)).
		Mul(math3d.Translate(c.Center.Negate()))

	return math3d.Translate(math3d.V3(0, 0, c.Distance())).
		Mul(math3d.LookAt(c.Eye, c.Center, c.Up)).
		Mul(spin)
}

// Projection returns the central projection for an eye at Distance.
func (c *Camera) Projection() math3d.Mat4 {
	return math3d.CentralProjection(c.Distance())
}

// Rotate adds delta radians to Yaw.
func (c *Camera) Rotate(delta float64) {
	c.Yaw += delta
}
