package render

import (
	"math"
	"testing"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// mockMesh implements MeshSource with independent attribute lists.
type mockMesh struct {
	positions []math3d.Vec3
	uvs       []math3d.Vec2
	normals   []math3d.Vec3
	faces     [][3][3]int // per corner: pos, uv, norm
}

func (m *mockMesh) PositionCount() int             { return len(m.positions) }
func (m *mockMesh) FaceCount() int                 { return len(m.faces) }
func (m *mockMesh) Position(i int) math3d.Vec3     { return m.positions[i] }
func (m *mockMesh) UV(i int) math3d.Vec2           { return m.uvs[i] }
func (m *mockMesh) Normal(i int) math3d.Vec3       { return m.normals[i] }
func (m *mockMesh) FaceIndices(i int) (pos, uv, norm [3]int) {
	for j, c := range m.faces[i] {
		pos[j], uv[j], norm[j] = c[0], c[1], c[2]
	}
	return pos, uv, norm
}

// createTestRasterizer creates a rasterizer for testing.
func createTestRasterizer(width, height int) (*Rasterizer, *Frame) {
	frame, err := NewFrame(width, height)
	if err != nil {
		panic(err)
	}
	return NewRasterizer(frame.Color, frame.Depth), frame
}

func flatTri(a, b, c math3d.Vec3) ScreenTriangle {
	return ScreenTriangle{Screen: [3]math3d.Vec3{a, b, c}}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestBarycentric(t *testing.T) {
	a, b, c := math3d.V3(0, 0, 0), math3d.V3(10, 0, 0), math3d.V3(0, 10, 0)

	tests := []struct {
		name     string
		p        math3d.Vec2
		expected math3d.Vec3
	}{
		{"vertex 0", math3d.V2(0, 0), math3d.V3(1, 0, 0)},
		{"vertex 1", math3d.V2(10, 0), math3d.V3(0, 1, 0)},
		{"vertex 2", math3d.V2(0, 10), math3d.V3(0, 0, 1)},
		{"edge midpoint", math3d.V2(5, 0), math3d.V3(0.5, 0.5, 0)},
		{"interior", math3d.V2(2, 3), math3d.V3(0.5, 0.2, 0.3)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bc := Barycentric(a, b, c, tc.p)
			if !near(bc.X, tc.expected.X) || !near(bc.Y, tc.expected.Y) || !near(bc.Z, tc.expected.Z) {
				t.Errorf("Barycentric(%v) = %v, want %v", tc.p, bc, tc.expected)
			}
		})
	}

	t.Run("outside triangle", func(t *testing.T) {
		bc := Barycentric(a, b, c, math3d.V2(-1, -1))
		if bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0 {
			t.Error("point outside triangle should have negative barycentric coordinate")
		}
	})

	t.Run("degenerate", func(t *testing.T) {
		bc := Barycentric(a, math3d.V3(5, 5, 0), math3d.V3(10, 10, 0), math3d.V2(5, 5))
		if bc != math3d.V3(-1, 1, 1) {
			t.Errorf("collinear triangle = %v, want sentinel (-1,1,1)", bc)
		}
	})
}

func TestBarycentricSumsToOne(t *testing.T) {
	a, b, c := math3d.V3(10, 10, 0), math3d.V3(100, 30, 0), math3d.V3(190, 160, 0)
	for y := 0; y < 200; y += 7 {
		for x := 0; x < 200; x += 7 {
			bc := Barycentric(a, b, c, math3d.V2(float64(x), float64(y)))
			if math.Abs(bc.Sum()-1) > 1e-9 {
				t.Fatalf("weights at (%d,%d) sum to %v", x, y, bc.Sum())
			}
		}
	}
}

func TestBarycentricVertexPermutations(t *testing.T) {
	pts := [3]math3d.Vec3{math3d.V3(3, 4, 0), math3d.V3(40, 9, 0), math3d.V3(17, 33, 0)}
	orders := [][3]int{{0, 1, 2}, {1, 2, 0}, {2, 0, 1}, {0, 2, 1}, {2, 1, 0}, {1, 0, 2}}

	for _, o := range orders {
		a, b, c := pts[o[0]], pts[o[1]], pts[o[2]]
		for k, v := range []math3d.Vec3{a, b, c} {
			bc := Barycentric(a, b, c, v.XY())
			w := [3]float64{bc.X, bc.Y, bc.Z}
			for j := range w {
				want := 0.0
				if j == k {
					want = 1
				}
				if !near(w[j], want) {
					t.Errorf("order %v vertex %d: weights %v", o, k, bc)
				}
			}
		}
	}
}

func TestInterpolatedDepthMonotonic(t *testing.T) {
	a, b, c := math3d.V3(0, 0, 10), math3d.V3(40, 0, 50), math3d.V3(0, 40, 10)
	prev := math.Inf(-1)
	// Moving along the edge a→b the depth must grow with b's weight.
	for x := 0; x <= 40; x++ {
		bc := Barycentric(a, b, c, math3d.V2(float64(x), 0))
		z := a.Z*bc.X + b.Z*bc.Y + c.Z*bc.Z
		if z < prev {
			t.Fatalf("depth decreased at x=%d: %v < %v", x, z, prev)
		}
		prev = z
	}
	if !near(prev, 50) {
		t.Errorf("depth at b = %v, want 50", prev)
	}
}

// recordShader captures the attributes passed to Fragment.
type recordShader struct {
	uv     math3d.Vec2
	normal math3d.Vec3
	color  Color
}

func (s *recordShader) Fragment(uv math3d.Vec2, n math3d.Vec3) Color {
	s.uv, s.normal = uv, n
	return s.color
}

func TestCentroidInterpolation(t *testing.T) {
	r, _ := createTestRasterizer(40, 40)
	tri := ScreenTriangle{
		Screen: [3]math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(30, 0, 0), math3d.V3(0, 30, 0)},
		UV:     [3]math3d.Vec2{math3d.V2(0, 0), math3d.V2(0.9, 0), math3d.V2(0, 0.6)},
		Normal: [3]math3d.Vec3{math3d.V3(3, 0, 0), math3d.V3(0, 6, 0), math3d.V3(0, 0, 9)},
	}

	bc := Barycentric(tri.Screen[0], tri.Screen[1], tri.Screen[2], math3d.V2(10, 10))
	uv := math3d.Weighted2(tri.UV[0], tri.UV[1], tri.UV[2], bc)
	n := math3d.Weighted(tri.Normal[0], tri.Normal[1], tri.Normal[2], bc)

	if !near(uv.X, 0.3) || !near(uv.Y, 0.2) {
		t.Errorf("centroid uv = %v, want mean (0.3, 0.2)", uv)
	}
	if !near(n.X, 1) || !near(n.Y, 2) || !near(n.Z, 3) {
		t.Errorf("centroid normal = %v, want mean (1,2,3)", n)
	}

	// The last pixel shaded by DrawTriangle is the top vertex, whose
	// attributes must come through untouched.
	rec := &recordShader{color: ColorWhite}
	r.DrawTriangle(tri, rec)
	if rec.uv != tri.UV[2] || rec.normal != tri.Normal[2] {
		t.Errorf("last fragment uv=%v n=%v, want vertex 2 attributes", rec.uv, rec.normal)
	}
}

func TestFullScreenQuad(t *testing.T) {
	const w, h = 8, 6
	r, frame := createTestRasterizer(w, h)
	shader := UnlitShader{Sampler: SolidColor(ColorRed)}

	c0, c1 := math3d.V3(0, 0, 1), math3d.V3(w-1, 0, 1)
	c2, c3 := math3d.V3(w-1, h-1, 1), math3d.V3(0, h-1, 1)
	r.DrawTriangle(flatTri(c0, c1, c2), shader)
	r.DrawTriangle(flatTri(c0, c2, c3), shader)

	for i, p := range frame.Color.Pixels {
		if p != ColorRed {
			t.Fatalf("pixel %d = %v, want red", i, p)
		}
	}
	if r.Stats.Written != w*h {
		t.Errorf("Written = %d, want %d (shared edge written once)", r.Stats.Written, w*h)
	}
	if r.Stats.Triangles != 2 || r.Stats.Candidates != 2*w*h {
		t.Errorf("stats = %+v", r.Stats)
	}
}

func inside(bc math3d.Vec3) bool {
	return bc.X >= 0 && bc.Y >= 0 && bc.Z >= 0
}

func TestReferenceTriangle(t *testing.T) {
	r, frame := createTestRasterizer(200, 200)
	frame.Clear(ColorBlack)
	a, b, c := math3d.V3(10, 10, 0), math3d.V3(100, 30, 0), math3d.V3(190, 160, 0)
	r.DrawTriangle(flatTri(a, b, c), UnlitShader{Sampler: SolidColor(ColorWhite)})

	// Lattice points inside or on the boundary, by Pick's theorem:
	// area 4950, 50 boundary points.
	if r.Stats.Written != 4976 {
		t.Errorf("Written = %d, want 4976", r.Stats.Written)
	}
	if r.Stats.Candidates != 181*151 {
		t.Errorf("Candidates = %d, want %d", r.Stats.Candidates, 181*151)
	}

	mismatches := 0
	for y := range 200 {
		for x := range 200 {
			want := ColorBlack
			if inside(Barycentric(a, b, c, math3d.V2(float64(x), float64(y)))) {
				want = ColorWhite
			}
			if got := frame.Color.GetPixel(x, y); got != want {
				if mismatches < 10 {
					t.Errorf("pixel (%d,%d) = %v, want %v", x, y, got, want)
				}
				mismatches++
			}
		}
	}
	if mismatches > 0 {
		t.Errorf("%d pixels disagree with the barycentric inside test", mismatches)
	}

	for _, p := range [][2]int{{10, 10}, {100, 30}, {190, 160}, {55, 20}} {
		if frame.Color.GetPixel(p[0], p[1]) != ColorWhite {
			t.Errorf("vertex or edge pixel %v not filled", p)
		}
	}
}

func TestOverlappingDepth(t *testing.T) {
	// The far triangle covers the whole frame; the near one a corner of it.
	farTri := flatTri(math3d.V3(0, 0, 0.1), math3d.V3(40, 0, 0.1), math3d.V3(0, 40, 0.1))
	na, nb, nc := math3d.V3(5, 5, 0.9), math3d.V3(12, 5, 0.9), math3d.V3(5, 12, 0.9)
	nearTri := flatTri(na, nb, nc)
	red := UnlitShader{Sampler: SolidColor(ColorRed)}
	blue := UnlitShader{Sampler: SolidColor(ColorBlue)}

	tests := []struct {
		name    string
		farLast bool
	}{
		{"far then near", false},
		{"near then far", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, frame := createTestRasterizer(20, 20)
			if tc.farLast {
				r.DrawTriangle(nearTri, blue)
				r.DrawTriangle(farTri, red)
			} else {
				r.DrawTriangle(farTri, red)
				r.DrawTriangle(nearTri, blue)
			}

			overlap := 0
			for y := range 20 {
				for x := range 20 {
					wantColor, wantDepth := ColorRed, 0.1
					if inside(Barycentric(na, nb, nc, math3d.V2(float64(x), float64(y)))) {
						wantColor, wantDepth = ColorBlue, 0.9
						overlap++
					}
					if got := frame.Color.GetPixel(x, y); got != wantColor {
						t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, wantColor)
					}
					if got := frame.Depth.At(x, y); math.Abs(got-wantDepth) > 1e-9 {
						t.Fatalf("depth (%d,%d) = %v, want %v", x, y, got, wantDepth)
					}
				}
			}
			if overlap != 36 {
				t.Errorf("near triangle covers %d pixels, want 36", overlap)
			}
		})
	}
}

func TestDepthTieKeepsFirst(t *testing.T) {
	r, frame := createTestRasterizer(10, 10)
	tri := flatTri(math3d.V3(0, 0, 5), math3d.V3(9, 0, 5), math3d.V3(0, 9, 5))
	r.DrawTriangle(tri, UnlitShader{Sampler: SolidColor(ColorRed)})
	written := r.Stats.Written
	r.DrawTriangle(tri, UnlitShader{Sampler: SolidColor(ColorGreen)})

	if frame.Color.GetPixel(1, 1) != ColorRed {
		t.Error("equal depth overwrote the first triangle")
	}
	if r.Stats.DepthRejected != written {
		t.Errorf("DepthRejected = %d, want %d", r.Stats.DepthRejected, written)
	}
}

func TestTriangleClampedToFrame(t *testing.T) {
	r, frame := createTestRasterizer(10, 10)
	tri := flatTri(math3d.V3(-50, -50, 0), math3d.V3(100, -50, 0), math3d.V3(-50, 100, 0))
	r.DrawTriangle(tri, UnlitShader{Sampler: SolidColor(ColorGreen)})

	if r.Stats.Candidates != 100 {
		t.Errorf("Candidates = %d, want the clamped 10x10 box", r.Stats.Candidates)
	}
	if frame.Color.GetPixel(9, 9) != ColorGreen || frame.Color.GetPixel(0, 0) != ColorGreen {
		t.Error("corners not covered")
	}

	// Entirely off screen: empty box, nothing visited.
	r.ResetStats()
	r.DrawTriangle(flatTri(math3d.V3(20, 20, 0), math3d.V3(30, 20, 0), math3d.V3(20, 30, 0)), UnlitShader{Sampler: SolidColor(ColorRed)})
	if r.Stats.Candidates != 0 {
		t.Errorf("off-screen Candidates = %d", r.Stats.Candidates)
	}
}

func TestDegenerateTriangleSkipped(t *testing.T) {
	r, frame := createTestRasterizer(10, 10)
	tri := flatTri(math3d.V3(1, 1, 0), math3d.V3(5, 5, 0), math3d.V3(8, 8, 0))
	r.DrawTriangle(tri, UnlitShader{Sampler: SolidColor(ColorRed)})

	if r.Stats.Written != 0 {
		t.Errorf("Written = %d, want 0", r.Stats.Written)
	}
	if r.Stats.Degenerate != r.Stats.Candidates || r.Stats.Candidates != 64 {
		t.Errorf("stats = %+v", r.Stats)
	}
	for _, p := range frame.Color.Pixels {
		if p != (Color{}) {
			t.Fatal("degenerate triangle wrote a pixel")
		}
	}
}

func TestNewRasterizerSizeMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched buffers")
		}
	}()
	NewRasterizer(NewFramebuffer(4, 4), NewDepthBuffer(4, 5))
}

func TestStatsArithmetic(t *testing.T) {
	a := Stats{Triangles: 3, Candidates: 10, Degenerate: 1, DepthRejected: 2, Written: 5}
	var sum Stats
	sum.Add(a)
	sum.Add(a)
	if got := sum.Sub(a); got != a {
		t.Errorf("(a+a)-a = %+v, want %+v", got, a)
	}
}

func BenchmarkDrawTriangle(b *testing.B) {
	r, frame := createTestRasterizer(200, 200)
	tri := flatTri(math3d.V3(10, 10, 0), math3d.V3(100, 30, 0), math3d.V3(190, 160, 0))
	shader := LambertShader{Light: math3d.V3(0, 0, 1), Sampler: SolidColor(ColorWhite)}

	for b.Loop() {
		frame.Depth.Clear()
		r.DrawTriangle(tri, shader)
	}
}
