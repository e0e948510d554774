package tilegrid

import "github.com/go-gl/mathgl/mgl32"

// TileType selects the cell-coordinate-to-world-space mapping of a tilemap.
type TileType uint32

const (
	// TileTypeSquare lays cells out on a plain rectangular grid.
	TileTypeSquare TileType = iota

	// TileTypeIsometric lays cells out as a diamond (2:1 isometric) grid.
	TileTypeIsometric

	// TileTypeHexagonal lays cells out as pointy-top hexagons in axial
	// rows, odd rows shifted right by half a tile.
	TileTypeHexagonal
)

// String returns the tile type name.
func (t TileType) String() string {
	switch t {
	case TileTypeSquare:
		return "Square"
	case TileTypeIsometric:
		return "Isometric"
	case TileTypeHexagonal:
		return "Hexagonal"
	default:
		return "Unknown"
	}
}

// Flip mirrors a tile layer's texture sampling.
type Flip uint32

const (
	// FlipNone samples the texture as stored.
	FlipNone Flip = 0

	// FlipHorizontal mirrors the texture left-right.
	FlipHorizontal Flip = 1 << 0

	// FlipVertical mirrors the texture top-bottom.
	FlipVertical Flip = 1 << 1

	// FlipBoth mirrors the texture on both axes.
	FlipBoth = FlipHorizontal | FlipVertical
)

// Rotation is a tilemap world rotation in right-angle steps around the
// tilemap's translation point.
type Rotation uint32

const (
	RotationNone Rotation = iota
	RotationCw90
	RotationCw180
	RotationCw270
)

// rotate applies the rotation to a point relative to the origin.
func (r Rotation) rotate(p mgl32.Vec2) mgl32.Vec2 {
	switch r {
	case RotationCw90:
		return mgl32.Vec2{-p.Y(), p.X()}
	case RotationCw180:
		return mgl32.Vec2{-p.X(), -p.Y()}
	case RotationCw270:
		return mgl32.Vec2{p.Y(), -p.X()}
	default:
		return p
	}
}

// CellToWorld returns the world-space center of a cell before the tilemap
// transform is applied. World Y increases upward and cell (0,0) sits at the
// bottom-left of the map.
//
// The isometric mapping is
//
//	world.x = (x - y)/2 * renderSize.x
//	world.y = (x + y + 1)/2 * renderSize.y
//
// The +1 aligns diamond tiles visually and is intentional: cell (0,0) with
// render size (32,16) maps to (0, 8), cell (1,0) to (16, 16).
//
// The hexagonal mapping treats renderSize as the bounding box of one
// pointy-top hexagon; rows interlock, so the vertical step is 3/4 of the
// tile height and odd rows shift right by half a tile.
func CellToWorld(ty TileType, cell IVec2, renderSize mgl32.Vec2) mgl32.Vec2 {
	x, y := float32(cell.X), float32(cell.Y)
	switch ty {
	case TileTypeIsometric:
		return mgl32.Vec2{
			(x - y) / 2 * renderSize.X(),
			(x + y + 1) / 2 * renderSize.Y(),
		}
	case TileTypeHexagonal:
		return mgl32.Vec2{
			(x + y/2 + 0.5) * renderSize.X(),
			(y*0.75 + 0.5) * renderSize.Y(),
		}
	default:
		return mgl32.Vec2{
			(x + 0.5) * renderSize.X(),
			(y + 0.5) * renderSize.Y(),
		}
	}
}

// Transform positions a tilemap in world space.
type Transform struct {
	// Translation offsets every tile's world position.
	Translation mgl32.Vec2

	// ZOrder stacks tilemaps; higher values draw later, on top.
	ZOrder int32

	// Rotation turns the map in right-angle steps around Translation.
	Rotation Rotation
}

// Apply maps a pre-transform world position into final world space.
func (t Transform) Apply(p mgl32.Vec2) mgl32.Vec2 {
	return t.Rotation.rotate(p).Add(t.Translation)
}

// ChunkAABB computes the world-space bounds of one chunk of a tilemap.
//
// Every mapping above is affine in the cell coordinate, so the extreme
// world positions of a chunk are reached at its corner cells: the bound is
// the union of the four corner cell centers expanded by half a render size,
// then rotated and translated by the tilemap transform.
func ChunkAABB(ty TileType, chunk ChunkCoord, chunkSize int32, renderSize mgl32.Vec2, tf Transform) AABB {
	origin := ChunkOrigin(chunk, chunkSize)
	corners := [4]IVec2{
		origin,
		{X: origin.X + chunkSize - 1, Y: origin.Y},
		{X: origin.X, Y: origin.Y + chunkSize - 1},
		{X: origin.X + chunkSize - 1, Y: origin.Y + chunkSize - 1},
	}

	box := EmptyAABB()
	for _, c := range corners {
		box = box.UnionPoint(tf.Rotation.rotate(CellToWorld(ty, c, renderSize)))
	}
	half := mgl32.Vec2{renderSize.X() / 2, renderSize.Y() / 2}
	box = AABB{Min: box.Min.Sub(half), Max: box.Max.Add(half)}
	return box.Translate(tf.Translation)
}
