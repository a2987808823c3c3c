package geom

import "math"

// Rect is an axis-aligned rectangle stored as center plus half-extents.
// Half-extents are always >= 0 for rectangles built via the constructors.
type Rect struct {
	Center Vec2    `json:"center" msgpack:"c"`
	HalfW  float64 `json:"halfW" msgpack:"hw"`
	HalfH  float64 `json:"halfH" msgpack:"hh"`
}

// NewRect builds a rectangle from a center point and full width/height.
func NewRect(center Vec2, width, height float64) Rect {
	return Rect{Center: center, HalfW: math.Abs(width) / 2, HalfH: math.Abs(height) / 2}
}

// RectFromBounds builds a rectangle from min/max corner coordinates.
func RectFromBounds(minX, minY, maxX, maxY float64) Rect {
	return Rect{
		Center: Vec2{X: (minX + maxX) / 2, Y: (minY + maxY) / 2},
		HalfW:  (maxX - minX) / 2,
		HalfH:  (maxY - minY) / 2,
	}
}

// MinX returns the left edge coordinate.
func (r Rect) MinX() float64 { return r.Center.X - r.HalfW }

// MaxX returns the right edge coordinate.
func (r Rect) MaxX() float64 { return r.Center.X + r.HalfW }

// MinY returns the top edge coordinate.
func (r Rect) MinY() float64 { return r.Center.Y - r.HalfH }

// MaxY returns the bottom edge coordinate.
func (r Rect) MaxY() float64 { return r.Center.Y + r.HalfH }

// Contains reports whether the point lies inside or on the rectangle.
func (r Rect) Contains(p Vec2) bool {
	return math.Abs(p.X-r.Center.X) <= r.HalfW &&
		math.Abs(p.Y-r.Center.Y) <= r.HalfH
}

// ContainsRect reports whether the other rectangle lies entirely
// inside or on this one.
func (r Rect) ContainsRect(other Rect) bool {
	return other.MinX() >= r.MinX() && other.MaxX() <= r.MaxX() &&
		other.MinY() >= r.MinY() && other.MaxY() <= r.MaxY()
}

// Intersects reports whether two rectangles overlap or touch.
// Edge contact counts as intersection; broad-phase consumers rely on
// this being inclusive so exactly-adjacent candidates are not dropped.
func (r Rect) Intersects(other Rect) bool {
	return math.Abs(other.Center.X-r.Center.X) <= r.HalfW+other.HalfW &&
		math.Abs(other.Center.Y-r.Center.Y) <= r.HalfH+other.HalfH
}

// Union returns the smallest rectangle enclosing both rectangles.
func (r Rect) Union(other Rect) Rect {
	return RectFromBounds(
		math.Min(r.MinX(), other.MinX()),
		math.Min(r.MinY(), other.MinY()),
		math.Max(r.MaxX(), other.MaxX()),
		math.Max(r.MaxY(), other.MaxY()),
	)
}

// Translated returns the rectangle shifted by the given offset.
func (r Rect) Translated(offset Vec2) Rect {
	return Rect{Center: r.Center.Add(offset), HalfW: r.HalfW, HalfH: r.HalfH}
}

// IsZero reports whether the rectangle has zero area.
func (r Rect) IsZero() bool {
	return r.HalfW == 0 && r.HalfH == 0
}
