// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/grid"
)

// ChunkState tracks a render-side chunk through its lifecycle:
// Empty → Populated(Dirty) → {Dirty ⇄ Clean} → Released.
type ChunkState int

const (
	// ChunkStateEmpty means the chunk holds no live tiles. Empty chunks
	// are excluded from the draw set, never degenerate-drawn.
	ChunkStateEmpty ChunkState = iota

	// ChunkStateDirty means the chunk's extracted content is newer than
	// its packed buffer. A dirty chunk re-enters Clean only after a
	// successful Prepare rebuild in a frame where it was visible;
	// dirty-but-invisible chunks stay dirty (rebuild deferred, not
	// dropped).
	ChunkStateDirty

	// ChunkStateClean means the packed buffer matches the content.
	ChunkStateClean

	// ChunkStateReleased means the chunk's buffers are queued for
	// deferred destruction and the chunk is no longer drawable.
	ChunkStateReleased
)

// String returns the state name.
func (s ChunkState) String() string {
	switch s {
	case ChunkStateEmpty:
		return "Empty"
	case ChunkStateDirty:
		return "Dirty"
	case ChunkStateClean:
		return "Clean"
	case ChunkStateReleased:
		return "Released"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// RenderChunk is the render-side mirror of one chunk: the extracted tile
// snapshot, its packed instances, the GPU buffer holding them and the
// chunk's world bounds. It is derived state, owned by the pipeline and
// mutated only by the Extract and Prepare stages.
type RenderChunk struct {
	key   ChunkKey
	state ChunkState

	// tiles is the extracted snapshot, row-major. Owned by the chunk.
	tiles []grid.Tile

	// instances is the packed form of tiles, rebuilt by Prepare.
	instances []TileInstance
	scratch   []byte // encode buffer, reused across rebuilds

	// animSlots indexes animated instances for the per-frame patch.
	// A chunk with none skips the patch entirely.
	animSlots []int

	// aabb is the chunk's world bounds under the current map transform.
	aabb tilegrid.AABB

	// buffer is the GPU instance buffer; 0 until first prepared.
	// bufferCap is its byte capacity, which may exceed the live size.
	buffer    BufferHandle
	bufferCap uint64
}

// Key returns the chunk's identity.
func (c *RenderChunk) Key() ChunkKey { return c.key }

// State returns the chunk's lifecycle state.
func (c *RenderChunk) State() ChunkState { return c.state }

// InstanceCount returns the number of packed instances. Valid after the
// chunk has been prepared.
func (c *RenderChunk) InstanceCount() int { return len(c.instances) }

// Buffer returns the chunk's GPU instance buffer handle.
func (c *RenderChunk) Buffer() BufferHandle { return c.buffer }

// AABB returns the chunk's world bounds.
func (c *RenderChunk) AABB() tilegrid.AABB { return c.aabb }

// HasAnimation reports whether the chunk carries animated tiles.
// Valid after the chunk has been prepared.
func (c *RenderChunk) HasAnimation() bool { return len(c.animSlots) > 0 }

// extractedMap is the render-side mirror of one tilemap.
type extractedMap struct {
	desc     grid.Descriptor
	material Material

	uniform       TilemapUniform
	uniformDirty  bool
	uniformBuffer BufferHandle
	uniformBytes  []byte

	chunks map[tilegrid.ChunkCoord]*RenderChunk
}

// newExtractedMap mirrors a freshly seen tilemap.
func newExtractedMap(d grid.Descriptor) *extractedMap {
	em := &extractedMap{
		chunks: make(map[tilegrid.ChunkCoord]*RenderChunk),
	}
	em.applyDescriptor(d)
	return em
}

// applyDescriptor refreshes the mirrored configuration and invalidates
// the uniform block and every chunk's world bounds.
func (em *extractedMap) applyDescriptor(d grid.Descriptor) {
	em.desc = d
	em.material = MaterialTextured
	if d.Texture == nil {
		em.material = MaterialPureColor
	}
	em.uniform = uniformFromDescriptor(&d)
	em.uniformDirty = true
	for coord, rc := range em.chunks {
		rc.aabb = em.chunkAABB(coord)
	}
}

// chunkAABB derives a chunk's world bounds from the mirrored descriptor.
func (em *extractedMap) chunkAABB(coord tilegrid.ChunkCoord) tilegrid.AABB {
	return tilegrid.ChunkAABB(em.desc.TileType, coord, em.desc.ChunkSize,
		em.desc.RenderSize, em.desc.Transform)
}

// ensureChunk returns the mirror chunk at the coordinate, creating it if
// missing.
func (em *extractedMap) ensureChunk(coord tilegrid.ChunkCoord) *RenderChunk {
	if rc, ok := em.chunks[coord]; ok {
		return rc
	}
	rc := &RenderChunk{
		key:  ChunkKey{Map: em.desc.ID, Coord: coord},
		aabb: em.chunkAABB(coord),
	}
	em.chunks[coord] = rc
	return rc
}

// applyDelta installs one extracted chunk snapshot.
func (em *extractedMap) applyDelta(delta grid.ChunkDelta) *RenderChunk {
	rc := em.ensureChunk(delta.Coord)
	rc.tiles = delta.Tiles
	if len(delta.Tiles) == 0 {
		rc.state = ChunkStateEmpty
		rc.instances = rc.instances[:0]
		rc.animSlots = rc.animSlots[:0]
	} else {
		rc.state = ChunkStateDirty
	}
	return rc
}

// texturePending reports whether the map's atlas is still loading.
func (em *extractedMap) texturePending(textures *TextureStore) bool {
	return em.desc.Texture != nil && !textures.Ready(em.desc.Texture.Handle)
}
