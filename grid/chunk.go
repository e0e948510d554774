package grid

import (
	"slices"

	"github.com/gogpu/tilegrid"
)

// Chunk is the unit of batching and dirty-tracking: a fixed-size square
// group of cells stored as a flat row-major arena. A chunk with zero live
// tiles keeps its arena so the slot can be reused without reallocating.
type Chunk struct {
	coord tilegrid.ChunkCoord
	size  int32
	tiles []Tile
	live  []bool
	count int
}

func newChunk(coord tilegrid.ChunkCoord, size int32) *Chunk {
	n := int(size) * int(size)
	return &Chunk{
		coord: coord,
		size:  size,
		tiles: make([]Tile, n),
		live:  make([]bool, n),
	}
}

// reset rehomes a retained empty chunk at a new coordinate.
func (c *Chunk) reset(coord tilegrid.ChunkCoord) {
	c.coord = coord
	clear(c.live)
	c.count = 0
}

// Coord returns the chunk's coordinate in chunk space.
func (c *Chunk) Coord() tilegrid.ChunkCoord { return c.coord }

// Len returns the number of live tiles in the chunk.
func (c *Chunk) Len() int { return c.count }

// slot converts a chunk-local cell to its arena index.
func (c *Chunk) slot(local tilegrid.IVec2) int {
	return int(local.Y)*int(c.size) + int(local.X)
}

// get returns a copy of the tile at the chunk-local cell.
func (c *Chunk) get(local tilegrid.IVec2) (Tile, bool) {
	i := c.slot(local)
	if !c.live[i] {
		return Tile{}, false
	}
	return c.tiles[i], true
}

// at returns a pointer into the arena for in-place mutation, or nil if
// the slot is empty.
func (c *Chunk) at(local tilegrid.IVec2) *Tile {
	i := c.slot(local)
	if !c.live[i] {
		return nil
	}
	return &c.tiles[i]
}

// set inserts or replaces the tile at the chunk-local cell. Replacement
// overwrites the whole record, so no stale per-tile state survives.
func (c *Chunk) set(local tilegrid.IVec2, t Tile) {
	i := c.slot(local)
	if !c.live[i] {
		c.live[i] = true
		c.count++
	}
	c.tiles[i] = t
}

// remove frees the tile at the chunk-local cell. Reports whether a tile
// was actually removed.
func (c *Chunk) remove(local tilegrid.IVec2) bool {
	i := c.slot(local)
	if !c.live[i] {
		return false
	}
	c.live[i] = false
	c.tiles[i] = Tile{}
	c.count--
	return true
}

// each calls fn for every live tile in row-major order. The ordering is
// load-bearing: packed buffers built from it diff incrementally and test
// fixtures reproduce byte-for-byte.
func (c *Chunk) each(fn func(*Tile)) {
	for i := range c.tiles {
		if c.live[i] {
			fn(&c.tiles[i])
		}
	}
}

// chunkStorage maps chunk coordinates to chunks for one tilemap and
// tracks which chunks changed since the last extraction and which are to
// be released render-side. The owning Tilemap serializes access.
type chunkStorage struct {
	chunkSize int32
	chunks    map[tilegrid.ChunkCoord]*Chunk
	dirty     map[tilegrid.ChunkCoord]struct{}
	release   map[tilegrid.ChunkCoord]struct{}
	retained  []*Chunk
}

func newChunkStorage(chunkSize int32) *chunkStorage {
	return &chunkStorage{
		chunkSize: chunkSize,
		chunks:    make(map[tilegrid.ChunkCoord]*Chunk),
		dirty:     make(map[tilegrid.ChunkCoord]struct{}),
		release:   make(map[tilegrid.ChunkCoord]struct{}),
	}
}

// get returns the chunk at the coordinate, or nil.
func (s *chunkStorage) get(coord tilegrid.ChunkCoord) *Chunk {
	return s.chunks[coord]
}

// ensure returns the chunk at the coordinate, reusing a retained slot or
// allocating one if needed.
func (s *chunkStorage) ensure(coord tilegrid.ChunkCoord) *Chunk {
	if c, ok := s.chunks[coord]; ok {
		return c
	}
	var c *Chunk
	if n := len(s.retained); n > 0 {
		c = s.retained[n-1]
		s.retained = s.retained[:n-1]
		c.reset(coord)
	} else {
		c = newChunk(coord, s.chunkSize)
	}
	s.chunks[coord] = c
	return c
}

// markDirty records that a chunk's content changed since last extraction.
func (s *chunkStorage) markDirty(coord tilegrid.ChunkCoord) {
	s.dirty[coord] = struct{}{}
	// A chunk touched again before the release was extracted is live.
	delete(s.release, coord)
}

// queueRelease schedules a chunk's render-side buffers to be freed on the
// next extraction cycle. The chunk arena itself is retained for reuse.
func (s *chunkStorage) queueRelease(coord tilegrid.ChunkCoord) {
	c, ok := s.chunks[coord]
	if !ok {
		return
	}
	delete(s.chunks, coord)
	delete(s.dirty, coord)
	s.release[coord] = struct{}{}
	s.retained = append(s.retained, c)
}

// releaseAll schedules every chunk for release. Used by Despawn.
func (s *chunkStorage) releaseAll() {
	for coord := range s.chunks {
		s.queueRelease(coord)
	}
}

// drainDirty returns and clears the dirty set, sorted row-major for
// deterministic extraction order.
func (s *chunkStorage) drainDirty() []tilegrid.ChunkCoord {
	if len(s.dirty) == 0 {
		return nil
	}
	coords := make([]tilegrid.ChunkCoord, 0, len(s.dirty))
	for coord := range s.dirty {
		coords = append(coords, coord)
	}
	clear(s.dirty)
	sortChunkCoords(coords)
	return coords
}

// drainReleases returns and clears the release queue, sorted like
// drainDirty.
func (s *chunkStorage) drainReleases() []tilegrid.ChunkCoord {
	if len(s.release) == 0 {
		return nil
	}
	coords := make([]tilegrid.ChunkCoord, 0, len(s.release))
	for coord := range s.release {
		coords = append(coords, coord)
	}
	clear(s.release)
	sortChunkCoords(coords)
	return coords
}

func sortChunkCoords(coords []tilegrid.ChunkCoord) {
	slices.SortFunc(coords, func(a, b tilegrid.ChunkCoord) int {
		if a.Y != b.Y {
			return int(a.Y) - int(b.Y)
		}
		return int(a.X) - int(b.X)
	})
}
