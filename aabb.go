package tilegrid

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box in world space. Y increases upward.
// The zero value is not a valid box; use EmptyAABB for a box that acts as
// identity under Union.
type AABB struct {
	Min mgl32.Vec2
	Max mgl32.Vec2
}

// EmptyAABB returns an inverted box that unions as identity and intersects
// nothing.
func EmptyAABB() AABB {
	const inf = float32(3.4e38)
	return AABB{
		Min: mgl32.Vec2{inf, inf},
		Max: mgl32.Vec2{-inf, -inf},
	}
}

// NewAABB creates a box from min and max corners.
func NewAABB(minX, minY, maxX, maxY float32) AABB {
	return AABB{Min: mgl32.Vec2{minX, minY}, Max: mgl32.Vec2{maxX, maxY}}
}

// IsEmpty reports whether the box contains no points.
func (b AABB) IsEmpty() bool {
	return b.Min.X() > b.Max.X() || b.Min.Y() > b.Max.Y()
}

// Width returns the horizontal extent of the box.
func (b AABB) Width() float32 { return b.Max.X() - b.Min.X() }

// Height returns the vertical extent of the box.
func (b AABB) Height() float32 { return b.Max.Y() - b.Min.Y() }

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec2 {
	return mgl32.Vec2{(b.Min.X() + b.Max.X()) / 2, (b.Min.Y() + b.Max.Y()) / 2}
}

// Union returns the smallest box containing both b and o.
func (b AABB) Union(o AABB) AABB {
	if b.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return b
	}
	return AABB{
		Min: mgl32.Vec2{min(b.Min.X(), o.Min.X()), min(b.Min.Y(), o.Min.Y())},
		Max: mgl32.Vec2{max(b.Max.X(), o.Max.X()), max(b.Max.Y(), o.Max.Y())},
	}
}

// UnionPoint returns the smallest box containing b and the point.
func (b AABB) UnionPoint(p mgl32.Vec2) AABB {
	return b.Union(AABB{Min: p, Max: p})
}

// Intersects reports whether the two boxes overlap. Touching edges count
// as an intersection so tiles exactly on the view border are not dropped.
func (b AABB) Intersects(o AABB) bool {
	if b.IsEmpty() || o.IsEmpty() {
		return false
	}
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y()
}

// Expand grows the box by margin on every side. Negative margins shrink it.
func (b AABB) Expand(margin float32) AABB {
	return AABB{
		Min: mgl32.Vec2{b.Min.X() - margin, b.Min.Y() - margin},
		Max: mgl32.Vec2{b.Max.X() + margin, b.Max.Y() + margin},
	}
}

// Translate returns the box moved by the given offset.
func (b AABB) Translate(offset mgl32.Vec2) AABB {
	return AABB{Min: b.Min.Add(offset), Max: b.Max.Add(offset)}
}
