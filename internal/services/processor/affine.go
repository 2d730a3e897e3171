package processor

// Affine is a 2D affine matrix
//
//	| A C E |
//	| B D F |
//	| 0 0 1 |
//
// mapping (x, y) to (A*x + C*y + E, B*x + D*y + F).
type Affine struct {
	A, B, C, D, E, F float64
}

func Identity() Affine {
	return Affine{A: 1, D: 1}
}

func Scale(sx, sy float64) Affine {
	return Affine{A: sx, D: sy}
}

func Translate(tx, ty float64) Affine {
	return Affine{A: 1, D: 1, E: tx, F: ty}
}

// Then returns the transform that applies a first and b second.
func (a Affine) Then(b Affine) Affine {
	return Affine{
		A: b.A*a.A + b.C*a.B,
		B: b.B*a.A + b.D*a.B,
		C: b.A*a.C + b.C*a.D,
		D: b.B*a.C + b.D*a.D,
		E: b.A*a.E + b.C*a.F + b.E,
		F: b.B*a.E + b.D*a.F + b.F,
	}
}

func (a Affine) Apply(p Point) Point {
	return Point{
		X: a.A*p.X + a.C*p.Y + a.E,
		Y: a.B*p.X + a.D*p.Y + a.F,
	}
}
