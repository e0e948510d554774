package tilegrid

import "fmt"

// IVec2 is a signed 2-D integer cell coordinate, the addressable unit of a
// tilemap grid. The domain is unbounded in principle; individual tilemaps
// restrict it through their bounds.
type IVec2 struct {
	X, Y int32
}

// Add returns the component-wise sum of two coordinates.
func (v IVec2) Add(o IVec2) IVec2 { return IVec2{v.X + o.X, v.Y + o.Y} }

// Sub returns the component-wise difference of two coordinates.
func (v IVec2) Sub(o IVec2) IVec2 { return IVec2{v.X - o.X, v.Y - o.Y} }

// String returns the coordinate as "(x, y)".
func (v IVec2) String() string { return fmt.Sprintf("(%d, %d)", v.X, v.Y) }

// ChunkCoord addresses one chunk inside a tilemap's chunk storage.
type ChunkCoord struct {
	X, Y int32
}

// String returns the coordinate as "(x, y)".
func (c ChunkCoord) String() string { return fmt.Sprintf("(%d, %d)", c.X, c.Y) }

// floorDiv divides a by b rounding toward negative infinity.
// Go's integer division truncates toward zero, which would place cell -1
// in chunk 0 instead of chunk -1.
func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorMod returns a modulo b with the sign of b (always non-negative for
// positive b). Used to locate a cell inside its chunk.
func floorMod(a, b int32) int32 {
	m := a % b
	if m != 0 && ((a < 0) != (b < 0)) {
		m += b
	}
	return m
}

// CellToChunk returns the chunk owning the given cell. Every live tile
// belongs to exactly the chunk floor(cell / chunkSize); a tile never spans
// chunks.
func CellToChunk(cell IVec2, chunkSize int32) ChunkCoord {
	return ChunkCoord{
		X: floorDiv(cell.X, chunkSize),
		Y: floorDiv(cell.Y, chunkSize),
	}
}

// CellInChunk returns the cell's local coordinate inside its owning chunk,
// in [0, chunkSize) on both axes.
func CellInChunk(cell IVec2, chunkSize int32) IVec2 {
	return IVec2{
		X: floorMod(cell.X, chunkSize),
		Y: floorMod(cell.Y, chunkSize),
	}
}

// ChunkOrigin returns the cell coordinate of a chunk's bottom-left cell.
func ChunkOrigin(chunk ChunkCoord, chunkSize int32) IVec2 {
	return IVec2{X: chunk.X * chunkSize, Y: chunk.Y * chunkSize}
}

// Area is an inclusive axis-aligned rectangle of cells, described by its
// bottom-left origin and its dimensions in cells. Iteration over an area
// is row-major from the origin: y outer, x inner, both ascending.
type Area struct {
	Origin IVec2
	Width  int32
	Height int32
}

// NewArea creates an area of width x height cells anchored at origin.
// Non-positive dimensions yield an empty area.
func NewArea(origin IVec2, width, height int32) Area {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return Area{Origin: origin, Width: width, Height: height}
}

// AreaFromMinMax creates the inclusive area spanning min to max.
func AreaFromMinMax(min, max IVec2) Area {
	return NewArea(min, max.X-min.X+1, max.Y-min.Y+1)
}

// Max returns the top-right (inclusive) corner of the area.
// Undefined for empty areas.
func (a Area) Max() IVec2 {
	return IVec2{X: a.Origin.X + a.Width - 1, Y: a.Origin.Y + a.Height - 1}
}

// Size returns the number of cells covered by the area.
func (a Area) Size() int { return int(a.Width) * int(a.Height) }

// IsEmpty reports whether the area covers no cells.
func (a Area) IsEmpty() bool { return a.Width == 0 || a.Height == 0 }

// Contains reports whether the cell lies inside the area.
func (a Area) Contains(cell IVec2) bool {
	return cell.X >= a.Origin.X && cell.X < a.Origin.X+a.Width &&
		cell.Y >= a.Origin.Y && cell.Y < a.Origin.Y+a.Height
}

// Each calls fn for every cell in the area in row-major order.
func (a Area) Each(fn func(IVec2)) {
	for y := a.Origin.Y; y < a.Origin.Y+a.Height; y++ {
		for x := a.Origin.X; x < a.Origin.X+a.Width; x++ {
			fn(IVec2{X: x, Y: y})
		}
	}
}

// Union returns the smallest area containing both a and o.
// Empty areas are treated as identity.
func (a Area) Union(o Area) Area {
	if a.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return a
	}
	lo := IVec2{X: min(a.Origin.X, o.Origin.X), Y: min(a.Origin.Y, o.Origin.Y)}
	amax, omax := a.Max(), o.Max()
	hi := IVec2{X: max(amax.X, omax.X), Y: max(amax.Y, omax.Y)}
	return AreaFromMinMax(lo, hi)
}

// UnionCell returns the smallest area containing a and the cell.
func (a Area) UnionCell(cell IVec2) Area {
	return a.Union(NewArea(cell, 1, 1))
}
