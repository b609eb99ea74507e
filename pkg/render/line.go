package render

import (
	"math"

	"github.com/taigrr/tinyraster/pkg/math3d"
)

// Line visits every pixel of the segment (x0,y0)-(x1,y1), stepping one
// pixel at a time along the major axis. The minor coordinate is the exact
// value y0 + (y1-y0)*(x-x0)/(x1-x0) truncated toward zero, so no gaps
// appear on steep lines. A zero-length segment is plotted once.
func Line(x0, y0, x1, y1 int, plot func(x, y int)) {
	walkLine(x0, y0, x1, y1, 0, 0, false, plot)
}

// ClippedLine visits the pixels of Line that can land in a width×height
// frame. Only the stretch of the major axis inside the frame is walked, so
// the cost is bounded by the frame size. The minor coordinate is not
// checked; plot must still clip.
func ClippedLine(x0, y0, x1, y1, width, height int, plot func(x, y int)) {
	walkLine(x0, y0, x1, y1, width, height, true, plot)
}

func walkLine(x0, y0, x1, y1, width, height int, clip bool, plot func(x, y int)) {
	steep := false
	if abs(x0-x1) < abs(y0-y1) {
		x0, y0 = y0, x0
		x1, y1 = y1, x1
		width, height = height, width
		steep = true
	}
	if x0 > x1 {
		x0, x1 = x1, x0
		y0, y1 = y1, y0
	}

	lo, hi := x0, x1
	if clip {
		lo = max(lo, 0)
		hi = min(hi, width-1)
	}

	dx := x1 - x0
	for x := lo; x <= hi; x++ {
		y := y0
		if dx != 0 {
			y = (y0*dx + (y1-y0)*(x-x0)) / dx
		}
		if steep {
			plot(y, x)
		} else {
			plot(x, y)
		}
	}
}

// ClipSegment clips the segment a-b to the rectangle [-1,width]×[-1,height]
// and reports whether any of it is left. Endpoints inside the rectangle are
// returned unchanged. Segments with a non-finite endpoint are rejected.
func ClipSegment(a, b math3d.Vec2, width, height int) (math3d.Vec2, math3d.Vec2, bool) {
	for _, v := range [...]float64{a.X, a.Y, b.X, b.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return a, b, false
		}
	}

	d := b.Sub(a)
	xmin, ymin := -1.0, -1.0
	xmax, ymax := float64(width), float64(height)

	// Liang-Barsky: p is the edge-normal component of d, q the distance
	// of a from that edge.
	p := [4]float64{-d.X, d.X, -d.Y, d.Y}
	q := [4]float64{a.X - xmin, xmax - a.X, a.Y - ymin, ymax - a.Y}

	t0, t1 := 0.0, 1.0
	for i := range p {
		if p[i] == 0 {
			if q[i] < 0 {
				return a, b, false
			}
			continue
		}
		r := q[i] / p[i]
		if p[i] < 0 {
			if r > t1 {
				return a, b, false
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return a, b, false
			}
			t1 = min(t1, r)
		}
	}

	ca, cb := a, b
	if t0 > 0 {
		ca = a.Add(d.Scale(t0))
	}
	if t1 < 1 {
		cb = a.Add(d.Scale(t1))
	}
	return ca, cb, true
}

// LinePoints returns the pixels Line would visit, in order.
func LinePoints(x0, y0, x1, y1 int) []math3d.Vec2i {
	points := make([]math3d.Vec2i, 0, max(abs(x1-x0), abs(y1-y0))+1)
	Line(x0, y0, x1, y1, func(x, y int) {
		points = append(points, math3d.V2i(x, y))
	})
	return points
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
