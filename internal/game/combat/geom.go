package combat

import "math"

// Vec2 is a point or displacement in world units.
type Vec2 struct{ X, Y float64 }

func (a Vec2) Add(b Vec2) Vec2         { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2         { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float64) Vec2    { return Vec2{a.X * s, a.Y * s} }
func (a Vec2) Len() float64            { return math.Hypot(a.X, a.Y) }
func (a Vec2) Distance(b Vec2) float64 { return a.Sub(b).Len() }

// Norm returns the unit vector of a, or the zero vector when a has no length.
func (a Vec2) Norm() Vec2 {
	l := a.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Toward returns the point reached by moving from a toward b by at most step units.
// It never overshoots b.
func (a Vec2) Toward(b Vec2, step float64) Vec2 {
	d := b.Sub(a)
	l := d.Len()
	if l <= step || l == 0 {
		return b
	}
	return a.Add(d.Scale(step / l))
}
