package render

import "github.com/taigrr/tinyraster/pkg/math3d"

// FragmentShader computes the color of one covered pixel from the
// interpolated texture coordinate and normal.
type FragmentShader interface {
	Fragment(uv math3d.Vec2, normal math3d.Vec3) Color
}

// Shade scales tex by the Lambert term normal·lightDir. Neither vector is
// normalized here. Each RGB channel is clamped to [0,255] and truncated, so
// surfaces facing away from the light come out black. Alpha is kept.
func Shade(normal, lightDir math3d.Vec3, tex Color) Color {
	intensity := normal.Dot(lightDir)
	return Color{
		R: scaleChannel(tex.R, intensity),
		G: scaleChannel(tex.G, intensity),
		B: scaleChannel(tex.B, intensity),
		A: tex.A,
	}
}

func scaleChannel(c uint8, intensity float64) uint8 {
	v := float64(c) * intensity
	switch {
	case !(v > 0): // negative, zero or NaN
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

// LambertShader lights the sampled texture with a single directional light.
// Light points from the surface towards the light source.
type LambertShader struct {
	Light   math3d.Vec3
	Sampler Sampler
}

// Fragment implements FragmentShader.
func (s LambertShader) Fragment(uv math3d.Vec2, normal math3d.Vec3) Color {
	return Shade(normal, s.Light, s.Sampler.Sample(uv.X, uv.Y))
}

// UnlitShader returns the sampled texture unchanged.
type UnlitShader struct {
	Sampler Sampler
}

// Fragment implements FragmentShader.
func (s UnlitShader) Fragment(uv math3d.Vec2, _ math3d.Vec3) Color {
	return s.Sampler.Sample(uv.X, uv.Y)
}
