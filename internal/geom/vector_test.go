package geom

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

// TestVecArithmetic verifies the basic vector operations.
func TestVecArithmetic(t *testing.T) {
	a := Vec2{X: 3, Y: 4}
	b := Vec2{X: -1, Y: 2}

	if got := a.Add(b); got != (Vec2{X: 2, Y: 6}) {
		t.Errorf("Add = %v", got)
	}
	if got := a.Sub(b); got != (Vec2{X: 4, Y: 2}) {
		t.Errorf("Sub = %v", got)
	}
	if got := a.Scale(2); got != (Vec2{X: 6, Y: 8}) {
		t.Errorf("Scale = %v", got)
	}
	if got := a.Dot(b); got != 5 {
		t.Errorf("Dot = %v, want 5", got)
	}
	if got := a.Length(); !almostEqual(got, 5) {
		t.Errorf("Length = %v, want 5", got)
	}
}

// TestVecNormalize verifies normalization, including the zero vector.
func TestVecNormalize(t *testing.T) {
	v := Vec2{X: 3, Y: 4}.Normalize()
	if !almostEqual(v.Length(), 1) {
		t.Errorf("normalized length = %v, want 1", v.Length())
	}
	if !almostEqual(v.X, 0.6) || !almostEqual(v.Y, 0.8) {
		t.Errorf("normalized = %v", v)
	}

	zero := Vec2{}.Normalize()
	if !zero.IsZero() {
		t.Errorf("zero vector normalized to %v, want zero", zero)
	}
}

// TestVecClamp verifies magnitude clamping preserves direction.
func TestVecClamp(t *testing.T) {
	tests := []struct {
		name string
		v    Vec2
		max  float64
		want float64 // expected resulting length
	}{
		{"above limit", Vec2{X: 6, Y: 8}, 5, 5},
		{"below limit", Vec2{X: 1, Y: 0}, 5, 1},
		{"unlimited", Vec2{X: 6, Y: 8}, -1, 10},
		{"zero max", Vec2{X: 6, Y: 8}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.v.Clamp(tt.max)
			if !almostEqual(got.Length(), tt.want) {
				t.Errorf("Clamp(%v) length = %v, want %v", tt.max, got.Length(), tt.want)
			}
			// Direction must be preserved when nonzero
			if tt.want > 0 && tt.v.Length() > 0 {
				dir := tt.v.Normalize()
				gotDir := got.Normalize()
				if !almostEqual(dir.X, gotDir.X) || !almostEqual(dir.Y, gotDir.Y) {
					t.Errorf("Clamp changed direction: %v -> %v", dir, gotDir)
				}
			}
		})
	}
}

// TestRectIntersectsInclusive verifies inclusive AABB intersection.
func TestRectIntersectsInclusive(t *testing.T) {
	base := NewRect(Vec2{X: 0, Y: 0}, 4, 4)

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{"overlapping", NewRect(Vec2{X: 1, Y: 1}, 4, 4), true},
		{"touching edge", NewRect(Vec2{X: 4, Y: 0}, 4, 4), true},
		{"separate", NewRect(Vec2{X: 10, Y: 0}, 4, 4), false},
		{"contained", NewRect(Vec2{X: 0, Y: 0}, 1, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Intersects(tt.other); got != tt.want {
				t.Errorf("Intersects = %v, want %v", got, tt.want)
			}
			// Intersection is symmetric
			if got := tt.other.Intersects(base); got != tt.want {
				t.Errorf("reverse Intersects = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestRectUnion verifies the union covers both inputs.
func TestRectUnion(t *testing.T) {
	a := RectFromBounds(0, 0, 2, 2)
	b := RectFromBounds(5, -1, 7, 1)
	u := a.Union(b)

	if u.MinX() != 0 || u.MinY() != -1 || u.MaxX() != 7 || u.MaxY() != 2 {
		t.Errorf("Union bounds = [%v,%v,%v,%v]", u.MinX(), u.MinY(), u.MaxX(), u.MaxY())
	}
}

// TestRectContains verifies inclusive point containment.
func TestRectContains(t *testing.T) {
	r := NewRect(Vec2{X: 0, Y: 0}, 4, 4)

	if !r.Contains(Vec2{X: 0, Y: 0}) {
		t.Error("center should be contained")
	}
	if !r.Contains(Vec2{X: 2, Y: 2}) {
		t.Error("corner should be contained (inclusive)")
	}
	if r.Contains(Vec2{X: 2.1, Y: 0}) {
		t.Error("outside point should not be contained")
	}
}
