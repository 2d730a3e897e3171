package processor

import (
	"fmt"
	"math"
	"strconv"
)

// ParsePathData parses a path description in the SVG / Android vector
// "pathData" syntax (M, L, H, V, C, S, Q, T, A, Z and their relative
// forms) into a MaskShape made only of absolute MoveTo, LineTo, QuadTo,
// CubeTo and Close segments. Arcs are approximated with cubic Béziers.
func ParsePathData(data string) (*MaskShape, error) {
	p := &pathParser{s: data}
	segments, err := p.parse()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPathData, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%w: no drawing commands", ErrInvalidPathData)
	}
	return &MaskShape{segments: segments}, nil
}

type pathParser struct {
	s   string
	pos int

	segments []Segment
	cur      Point
	start    Point
	ctrl     Point // last control point, for S and T reflection
	prev     byte  // last absolute command letter
}

func (p *pathParser) parse() ([]Segment, error) {
	var cmd byte
	for {
		p.skipSeparators()
		if p.pos >= len(p.s) {
			break
		}

		c := p.s[p.pos]
		if isCommand(c) {
			cmd = c
			p.pos++
		} else if cmd == 0 {
			return nil, fmt.Errorf("expected command at offset %d, got %q", p.pos, c)
		} else if cmd == 'Z' || cmd == 'z' {
			return nil, fmt.Errorf("unexpected argument after close at offset %d", p.pos)
		}

		if err := p.command(cmd); err != nil {
			return nil, err
		}

		// Extra coordinate pairs after a moveto are implicit linetos.
		switch cmd {
		case 'M':
			cmd = 'L'
		case 'm':
			cmd = 'l'
		}
	}
	return p.segments, nil
}

func (p *pathParser) command(cmd byte) error {
	rel := cmd >= 'a' && cmd <= 'z'
	abs := cmd
	if rel {
		abs = cmd - 'a' + 'A'
	}

	offset := func(pt Point) Point {
		if rel {
			return Point{pt.X + p.cur.X, pt.Y + p.cur.Y}
		}
		return pt
	}

	switch abs {
	case 'M':
		pt, err := p.point()
		if err != nil {
			return err
		}
		pt = offset(pt)
		p.emit(OpMoveTo, pt)
		p.cur, p.start, p.ctrl = pt, pt, pt

	case 'L':
		pt, err := p.point()
		if err != nil {
			return err
		}
		pt = offset(pt)
		p.emit(OpLineTo, pt)
		p.cur, p.ctrl = pt, pt

	case 'H':
		x, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			x += p.cur.X
		}
		pt := Point{x, p.cur.Y}
		p.emit(OpLineTo, pt)
		p.cur, p.ctrl = pt, pt

	case 'V':
		y, err := p.number()
		if err != nil {
			return err
		}
		if rel {
			y += p.cur.Y
		}
		pt := Point{p.cur.X, y}
		p.emit(OpLineTo, pt)
		p.cur, p.ctrl = pt, pt

	case 'C':
		pts, err := p.points(3)
		if err != nil {
			return err
		}
		c1, c2, end := offset(pts[0]), offset(pts[1]), offset(pts[2])
		p.emit(OpCubeTo, c1, c2, end)
		p.cur, p.ctrl = end, c2

	case 'S':
		pts, err := p.points(2)
		if err != nil {
			return err
		}
		c1 := p.cur
		if p.prev == 'C' || p.prev == 'S' {
			c1 = reflect(p.ctrl, p.cur)
		}
		c2, end := offset(pts[0]), offset(pts[1])
		p.emit(OpCubeTo, c1, c2, end)
		p.cur, p.ctrl = end, c2

	case 'Q':
		pts, err := p.points(2)
		if err != nil {
			return err
		}
		c, end := offset(pts[0]), offset(pts[1])
		p.emit(OpQuadTo, c, end)
		p.cur, p.ctrl = end, c

	case 'T':
		pt, err := p.point()
		if err != nil {
			return err
		}
		c := p.cur
		if p.prev == 'Q' || p.prev == 'T' {
			c = reflect(p.ctrl, p.cur)
		}
		end := offset(pt)
		p.emit(OpQuadTo, c, end)
		p.cur, p.ctrl = end, c

	case 'A':
		if err := p.arc(offset); err != nil {
			return err
		}

	case 'Z':
		p.segments = append(p.segments, Segment{Op: OpClose})
		p.cur, p.ctrl = p.start, p.start
	}

	p.prev = abs
	return nil
}

func (p *pathParser) arc(offset func(Point) Point) error {
	rx, err := p.number()
	if err != nil {
		return err
	}
	ry, err := p.number()
	if err != nil {
		return err
	}
	rotation, err := p.number()
	if err != nil {
		return err
	}
	large, err := p.flag()
	if err != nil {
		return err
	}
	sweep, err := p.flag()
	if err != nil {
		return err
	}
	pt, err := p.point()
	if err != nil {
		return err
	}
	end := offset(pt)

	for _, s := range arcToCubics(p.cur, rx, ry, rotation, large, sweep, end) {
		p.emit(s.Op, s.Pts...)
	}
	p.cur, p.ctrl = end, end
	return nil
}

func (p *pathParser) emit(op Op, pts ...Point) {
	if op != OpMoveTo && len(p.segments) == 0 {
		// A path must start with a moveto; drawing from the origin
		// matches how renderers treat a missing one.
		p.segments = append(p.segments, Segment{Op: OpMoveTo, Pts: []Point{p.cur}})
	}
	p.segments = append(p.segments, Segment{Op: op, Pts: pts})
}

func (p *pathParser) points(n int) ([]Point, error) {
	pts := make([]Point, n)
	for i := range pts {
		pt, err := p.point()
		if err != nil {
			return nil, err
		}
		pts[i] = pt
	}
	return pts, nil
}

func (p *pathParser) point() (Point, error) {
	x, err := p.number()
	if err != nil {
		return Point{}, err
	}
	y, err := p.number()
	if err != nil {
		return Point{}, err
	}
	return Point{x, y}, nil
}

func (p *pathParser) number() (float64, error) {
	p.skipSeparators()
	start := p.pos
	i := p.pos

	if i < len(p.s) && (p.s[i] == '+' || p.s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(p.s) && isDigit(p.s[i]) {
		i++
		digits++
	}
	if i < len(p.s) && p.s[i] == '.' {
		i++
		for i < len(p.s) && isDigit(p.s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("expected number at offset %d", start)
	}
	if i < len(p.s) && (p.s[i] == 'e' || p.s[i] == 'E') {
		j := i + 1
		if j < len(p.s) && (p.s[j] == '+' || p.s[j] == '-') {
			j++
		}
		if j < len(p.s) && isDigit(p.s[j]) {
			for j < len(p.s) && isDigit(p.s[j]) {
				j++
			}
			i = j
		}
	}

	v, err := strconv.ParseFloat(p.s[start:i], 64)
	if err != nil {
		return 0, fmt.Errorf("bad number %q at offset %d", p.s[start:i], start)
	}
	p.pos = i
	return v, nil
}

// flag reads an arc flag, which may be written without a separator.
func (p *pathParser) flag() (bool, error) {
	p.skipSeparators()
	if p.pos >= len(p.s) {
		return false, fmt.Errorf("expected arc flag at end of input")
	}
	switch p.s[p.pos] {
	case '0':
		p.pos++
		return false, nil
	case '1':
		p.pos++
		return true, nil
	}
	return false, fmt.Errorf("expected arc flag at offset %d, got %q", p.pos, p.s[p.pos])
}

func (p *pathParser) skipSeparators() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			p.pos++
		default:
			return
		}
	}
}

func isCommand(c byte) bool {
	switch c {
	case 'M', 'm', 'L', 'l', 'H', 'h', 'V', 'v', 'C', 'c', 'S', 's', 'Q', 'q', 'T', 't', 'A', 'a', 'Z', 'z':
		return true
	}
	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func reflect(ctrl, about Point) Point {
	return Point{2*about.X - ctrl.X, 2*about.Y - ctrl.Y}
}

// arcToCubics converts an SVG endpoint-parameterised elliptical arc into
// cubic segments of at most a quarter turn each.
func arcToCubics(from Point, rx, ry, rotationDeg float64, large, sweep bool, to Point) []Segment {
	if from == to {
		return nil
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		return []Segment{{Op: OpLineTo, Pts: []Point{to}}}
	}

	phi := rotationDeg * math.Pi / 180
	cosPhi, sinPhi := math.Cos(phi), math.Sin(phi)

	dx2 := (from.X - to.X) / 2
	dy2 := (from.Y - to.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	if lambda := x1p*x1p/(rx*rx) + y1p*y1p/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	num := rx*rx*ry*ry - rx*rx*y1p*y1p - ry*ry*x1p*x1p
	den := rx*rx*y1p*y1p + ry*ry*x1p*x1p
	coef := math.Sqrt(math.Max(0, num/den))
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (from.X+to.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (from.Y+to.Y)/2

	ux, uy := (x1p-cxp)/rx, (y1p-cyp)/ry
	vx, vy := (-x1p-cxp)/rx, (-y1p-cyp)/ry
	theta := math.Atan2(uy, ux)
	delta := math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta) / (math.Pi / 2)))
	if n == 0 {
		return []Segment{{Op: OpLineTo, Pts: []Point{to}}}
	}
	step := delta / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)

	mapPoint := func(ux, uy float64) Point {
		x, y := rx*ux, ry*uy
		return Point{cx + x*cosPhi - y*sinPhi, cy + x*sinPhi + y*cosPhi}
	}

	segments := make([]Segment, 0, n)
	t1 := theta
	for i := 0; i < n; i++ {
		t2 := t1 + step
		cos1, sin1 := math.Cos(t1), math.Sin(t1)
		cos2, sin2 := math.Cos(t2), math.Sin(t2)

		c1 := mapPoint(cos1-k*sin1, sin1+k*cos1)
		c2 := mapPoint(cos2+k*sin2, sin2-k*cos2)
		end := mapPoint(cos2, sin2)
		if i == n-1 {
			end = to
		}
		segments = append(segments, Segment{Op: OpCubeTo, Pts: []Point{c1, c2, end}})
		t1 = t2
	}
	return segments
}
