package processor

import "math"

type Point struct {
	X, Y float64
}

type Op int

const (
	OpMoveTo Op = iota
	OpLineTo
	OpQuadTo
	OpCubeTo
	OpClose
)

// Segment is one absolute path command. Pts holds 1 point for MoveTo and
// LineTo, 2 for QuadTo (control, end), 3 for CubeTo and none for Close.
type Segment struct {
	Op  Op
	Pts []Point
}

// MaskShape is an immutable vector outline. It is safe to share between
// goroutines; Transform returns a new shape.
type MaskShape struct {
	segments []Segment
}

func NewMaskShape(segments []Segment) *MaskShape {
	cp := make([]Segment, len(segments))
	for i, s := range segments {
		cp[i] = Segment{Op: s.Op, Pts: append([]Point(nil), s.Pts...)}
	}
	return &MaskShape{segments: cp}
}

func (m *MaskShape) Segments() []Segment {
	return m.segments
}

func (m *MaskShape) IsEmpty() bool {
	return len(m.segments) == 0
}

// Transform applies a to every point of the shape.
func (m *MaskShape) Transform(a Affine) *MaskShape {
	out := make([]Segment, len(m.segments))
	for i, s := range m.segments {
		pts := make([]Point, len(s.Pts))
		for j, p := range s.Pts {
			pts[j] = a.Apply(p)
		}
		out[i] = Segment{Op: s.Op, Pts: pts}
	}
	return &MaskShape{segments: out}
}

// Rect is an axis-aligned box in float coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

func (r *Rect) add(p Point) {
	r.MinX = math.Min(r.MinX, p.X)
	r.MinY = math.Min(r.MinY, p.Y)
	r.MaxX = math.Max(r.MaxX, p.X)
	r.MaxY = math.Max(r.MaxY, p.Y)
}

// Bounds returns the exact bounding box of the outline, including the
// extrema of curve segments rather than their control points.
func (m *MaskShape) Bounds() (Rect, bool) {
	r := Rect{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	var pen, start Point
	drawn := false

	for _, s := range m.segments {
		switch s.Op {
		case OpMoveTo:
			pen, start = s.Pts[0], s.Pts[0]
			r.add(pen)
			drawn = true
		case OpLineTo:
			r.add(s.Pts[0])
			pen = s.Pts[0]
		case OpQuadTo:
			c, end := s.Pts[0], s.Pts[1]
			r.add(end)
			for _, t := range quadExtrema(pen, c, end) {
				r.add(quadAt(pen, c, end, t))
			}
			pen = end
		case OpCubeTo:
			c1, c2, end := s.Pts[0], s.Pts[1], s.Pts[2]
			r.add(end)
			for _, t := range cubeExtrema(pen, c1, c2, end) {
				r.add(cubeAt(pen, c1, c2, end, t))
			}
			pen = end
		case OpClose:
			pen = start
		}
	}
	return r, drawn
}

func quadAt(p0, p1, p2 Point, t float64) Point {
	mt := 1 - t
	return Point{
		X: mt*mt*p0.X + 2*mt*t*p1.X + t*t*p2.X,
		Y: mt*mt*p0.Y + 2*mt*t*p1.Y + t*t*p2.Y,
	}
}

func cubeAt(p0, p1, p2, p3 Point, t float64) Point {
	mt := 1 - t
	a, b, c, d := mt*mt*mt, 3*mt*mt*t, 3*mt*t*t, t*t*t
	return Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func quadExtrema(p0, p1, p2 Point) []float64 {
	var ts []float64
	for _, v := range [][3]float64{{p0.X, p1.X, p2.X}, {p0.Y, p1.Y, p2.Y}} {
		den := v[0] - 2*v[1] + v[2]
		if den == 0 {
			continue
		}
		if t := (v[0] - v[1]) / den; t > 0 && t < 1 {
			ts = append(ts, t)
		}
	}
	return ts
}

func cubeExtrema(p0, p1, p2, p3 Point) []float64 {
	var ts []float64
	for _, v := range [][4]float64{{p0.X, p1.X, p2.X, p3.X}, {p0.Y, p1.Y, p2.Y, p3.Y}} {
		// derivative: a*t^2 + b*t + c
		a := 3 * (-v[0] + 3*v[1] - 3*v[2] + v[3])
		b := 6 * (v[0] - 2*v[1] + v[2])
		c := 3 * (v[1] - v[0])
		for _, t := range solveQuadratic(a, b, c) {
			if t > 0 && t < 1 {
				ts = append(ts, t)
			}
		}
	}
	return ts
}

func solveQuadratic(a, b, c float64) []float64 {
	const eps = 1e-12
	if math.Abs(a) < eps {
		if math.Abs(b) < eps {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}
