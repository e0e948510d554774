package grid

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/tilegrid"
)

// Descriptor is a plain copy of a tilemap's render-relevant configuration.
// The extraction stage snapshots it once per frame so the render side
// never reads live tilemap state.
type Descriptor struct {
	ID         MapID
	Name       string
	TileType   tilegrid.TileType
	SlotSize   mgl32.Vec2
	RenderSize mgl32.Vec2
	ChunkSize  int32
	Transform  tilegrid.Transform
	Texture    *TextureBinding
	Opacities  [MaxLayerCount]float32
	Animations []Animation

	// Version identifies this revision of the descriptor. It changes
	// whenever any field above changes, never on tile edits.
	Version uint64
}

// Descriptor returns a snapshot of the tilemap's configuration.
func (m *Tilemap) Descriptor() Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()

	var tex *TextureBinding
	if m.texture != nil {
		t := *m.texture
		tex = &t
	}
	return Descriptor{
		ID:         m.id,
		Name:       m.name,
		TileType:   m.tileType,
		SlotSize:   m.slotSize,
		RenderSize: m.renderSize,
		ChunkSize:  m.chunkSize,
		Transform:  m.transform,
		Texture:    tex,
		Opacities:  m.opacities,
		Animations: append([]Animation(nil), m.animations...),
		Version:    m.version,
	}
}

// ChunkDelta is the extracted content of one dirty chunk: its live tiles
// in row-major order. Tiles are copies owned by the receiver.
type ChunkDelta struct {
	Coord tilegrid.ChunkCoord
	Tiles []Tile
}

// Changes is one frame's worth of pending deltas for a tilemap.
type Changes struct {
	// Despawned reports that the map was destroyed; all its render-side
	// state must be queued for release.
	Despawned bool

	// Dirty lists chunks whose content changed since the last drain,
	// with full tile snapshots, sorted row-major by chunk coordinate.
	Dirty []ChunkDelta

	// Released lists chunks whose render-side buffers must be freed
	// (chunk emptied and released, or tilemap locally rehomed them).
	Released []tilegrid.ChunkCoord
}

// DrainChanges returns and clears the pending dirty and release sets,
// copying the affected chunks' tiles. This is the single synchronization
// point between simulation-side edits and the render pipeline: the
// returned snapshot cannot be torn by edits that run after it.
func (m *Tilemap) DrainChanges() Changes {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := Changes{
		Despawned: m.despawned,
		Released:  m.storage.drainReleases(),
	}
	for _, coord := range m.storage.drainDirty() {
		chunk := m.storage.get(coord)
		if chunk == nil {
			continue
		}
		delta := ChunkDelta{Coord: coord}
		if n := chunk.Len(); n > 0 {
			delta.Tiles = make([]Tile, 0, n)
			chunk.each(func(t *Tile) {
				delta.Tiles = append(delta.Tiles, *t)
			})
		}
		ch.Dirty = append(ch.Dirty, delta)
	}
	return ch
}
