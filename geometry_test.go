package tilegrid

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func vecNear(a, b mgl32.Vec2) bool {
	const eps = 1e-4
	dx, dy := a.X()-b.X(), a.Y()-b.Y()
	return dx < eps && dx > -eps && dy < eps && dy > -eps
}

func TestCellToWorldSquare(t *testing.T) {
	rs := mgl32.Vec2{32, 32}
	tests := []struct {
		cell IVec2
		want mgl32.Vec2
	}{
		{IVec2{0, 0}, mgl32.Vec2{16, 16}},
		{IVec2{1, 0}, mgl32.Vec2{48, 16}},
		{IVec2{-1, -1}, mgl32.Vec2{-16, -16}},
	}
	for _, tt := range tests {
		got := CellToWorld(TileTypeSquare, tt.cell, rs)
		if !vecNear(got, tt.want) {
			t.Errorf("CellToWorld(square, %v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestCellToWorldIsometric(t *testing.T) {
	rs := mgl32.Vec2{32, 16}
	tests := []struct {
		cell IVec2
		want mgl32.Vec2
	}{
		{IVec2{0, 0}, mgl32.Vec2{0, 8}},
		{IVec2{1, 0}, mgl32.Vec2{16, 16}},
		{IVec2{0, 1}, mgl32.Vec2{-16, 16}},
		{IVec2{1, 1}, mgl32.Vec2{0, 24}},
	}
	for _, tt := range tests {
		got := CellToWorld(TileTypeIsometric, tt.cell, rs)
		if !vecNear(got, tt.want) {
			t.Errorf("CellToWorld(isometric, %v) = %v, want %v", tt.cell, got, tt.want)
		}
	}
}

func TestCellToWorldHexagonal(t *testing.T) {
	rs := mgl32.Vec2{32, 32}

	// Row 0 behaves like a square row.
	got := CellToWorld(TileTypeHexagonal, IVec2{0, 0}, rs)
	if !vecNear(got, mgl32.Vec2{16, 16}) {
		t.Errorf("hex (0,0) = %v, want (16, 16)", got)
	}

	// Row 1 shifts right half a tile and steps down 3/4 of a tile.
	got = CellToWorld(TileTypeHexagonal, IVec2{0, 1}, rs)
	if !vecNear(got, mgl32.Vec2{32, 40}) {
		t.Errorf("hex (0,1) = %v, want (32, 40)", got)
	}
}

func TestRotationRotate(t *testing.T) {
	p := mgl32.Vec2{3, 1}
	tests := []struct {
		r    Rotation
		want mgl32.Vec2
	}{
		{RotationNone, mgl32.Vec2{3, 1}},
		{RotationCw90, mgl32.Vec2{-1, 3}},
		{RotationCw180, mgl32.Vec2{-3, -1}},
		{RotationCw270, mgl32.Vec2{1, -3}},
	}
	for _, tt := range tests {
		got := tt.r.rotate(p)
		if !vecNear(got, tt.want) {
			t.Errorf("rotate %v by %d = %v, want %v", p, tt.r, got, tt.want)
		}
	}
}

func TestTransformApply(t *testing.T) {
	tf := Transform{Translation: mgl32.Vec2{100, 200}, Rotation: RotationCw180}
	got := tf.Apply(mgl32.Vec2{10, 5})
	if !vecNear(got, mgl32.Vec2{90, 195}) {
		t.Errorf("Apply = %v, want (90, 195)", got)
	}
}

func TestChunkAABBSquare(t *testing.T) {
	rs := mgl32.Vec2{32, 32}
	box := ChunkAABB(TileTypeSquare, ChunkCoord{0, 0}, 16, rs, Transform{})

	// Cells 0..15 span centers 16..496, plus half a tile on each side.
	if !vecNear(box.Min, mgl32.Vec2{0, 0}) {
		t.Errorf("box min = %v, want (0, 0)", box.Min)
	}
	if !vecNear(box.Max, mgl32.Vec2{512, 512}) {
		t.Errorf("box max = %v, want (512, 512)", box.Max)
	}
}

func TestChunkAABBTranslated(t *testing.T) {
	rs := mgl32.Vec2{32, 32}
	tf := Transform{Translation: mgl32.Vec2{1000, -500}}
	box := ChunkAABB(TileTypeSquare, ChunkCoord{0, 0}, 16, rs, tf)
	if !vecNear(box.Min, mgl32.Vec2{1000, -500}) {
		t.Errorf("translated box min = %v, want (1000, -500)", box.Min)
	}
}

func TestAABBIntersects(t *testing.T) {
	a := NewAABB(0, 0, 10, 10)
	tests := []struct {
		b    AABB
		want bool
	}{
		{NewAABB(5, 5, 15, 15), true},
		{NewAABB(10, 0, 20, 10), true}, // touching edges count
		{NewAABB(11, 0, 20, 10), false},
		{NewAABB(-5, -5, -1, -1), false},
	}
	for _, tt := range tests {
		if got := a.Intersects(tt.b); got != tt.want {
			t.Errorf("Intersects(%v) = %v, want %v", tt.b, got, tt.want)
		}
	}
}

func TestAABBExpand(t *testing.T) {
	b := NewAABB(0, 0, 10, 10).Expand(5)
	if !vecNear(b.Min, mgl32.Vec2{-5, -5}) || !vecNear(b.Max, mgl32.Vec2{15, 15}) {
		t.Errorf("expanded box = %v..%v, want (-5,-5)..(15,15)", b.Min, b.Max)
	}
}

func TestEmptyAABBUnion(t *testing.T) {
	b := EmptyAABB()
	if !b.IsEmpty() {
		t.Fatal("EmptyAABB should be empty")
	}
	b = b.UnionPoint(mgl32.Vec2{3, 4})
	if !vecNear(b.Min, mgl32.Vec2{3, 4}) || !vecNear(b.Max, mgl32.Vec2{3, 4}) {
		t.Errorf("union with point = %v..%v, want point (3, 4)", b.Min, b.Max)
	}
}
