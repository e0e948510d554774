package grid

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilegrid"
)

// Default descriptor values.
const (
	// DefaultChunkSize is the default chunk edge length in cells.
	DefaultChunkSize int32 = 32

	// DefaultZOrder is the default stacking order of a tilemap.
	DefaultZOrder int32 = 10

	// MaxSafeChunkCount is the chunk-count ceiling of the builder's
	// safety check. Maps with declared bounds exceeding it fail to build
	// unless the check is disabled.
	MaxSafeChunkCount = 100
)

// MapID uniquely identifies a tilemap for the lifetime of the process.
type MapID uint32

var nextMapID atomic.Uint32

// TextureHandle identifies a texture resource in the host's asset system.
// The core never dereferences it; readiness is reported through
// render.TextureStore.
type TextureHandle uint64

// AtlasDescriptor describes the layout of a tilemap's texture atlas.
type AtlasDescriptor struct {
	// Size is the atlas size in pixels.
	Size tilegrid.IVec2

	// TileSize is the size of one atlas tile in pixels.
	TileSize tilegrid.IVec2

	// FilterMode selects the sampling filter for the atlas.
	FilterMode gputypes.FilterMode
}

// TileCount returns the number of tiles the atlas holds.
func (d AtlasDescriptor) TileCount() int32 {
	if d.TileSize.X <= 0 || d.TileSize.Y <= 0 {
		return 0
	}
	return (d.Size.X / d.TileSize.X) * (d.Size.Y / d.TileSize.Y)
}

// TextureBinding attaches a host texture atlas to a tilemap.
type TextureBinding struct {
	Handle TextureHandle
	Desc   AtlasDescriptor
}

// TilemapBuilder assembles a tilemap descriptor. Unset options fall back
// to defaults: chunk size 32, z-order 10, safety check enabled.
type TilemapBuilder struct {
	name        string
	tileType    tilegrid.TileType
	slotSize    mgl32.Vec2
	renderSize  mgl32.Vec2
	chunkSize   int32
	transform   tilegrid.Transform
	texture     *TextureBinding
	opacities   [MaxLayerCount]float32
	bounds      *tilegrid.Area
	safetyCheck bool
}

// NewTilemapBuilder starts a descriptor for a named tilemap. slotSize is
// the logical grid cell size; renderSize is the visual tile size and may
// differ for overlap effects.
func NewTilemapBuilder(name string, ty tilegrid.TileType, slotSize, renderSize mgl32.Vec2) *TilemapBuilder {
	b := &TilemapBuilder{
		name:        name,
		tileType:    ty,
		slotSize:    slotSize,
		renderSize:  renderSize,
		chunkSize:   DefaultChunkSize,
		transform:   tilegrid.Transform{ZOrder: DefaultZOrder},
		safetyCheck: true,
	}
	for i := range b.opacities {
		b.opacities[i] = 1
	}
	return b
}

// WithChunkSize overrides the chunk edge length in cells.
// Powers of two are recommended.
func (b *TilemapBuilder) WithChunkSize(size int32) *TilemapBuilder {
	b.chunkSize = size
	return b
}

// WithTransform overrides the world transform.
func (b *TilemapBuilder) WithTransform(tf tilegrid.Transform) *TilemapBuilder {
	b.transform = tf
	return b
}

// WithTexture binds a texture atlas. Tilemaps without a binding render as
// pure color and never wait on texture readiness.
func (b *TilemapBuilder) WithTexture(handle TextureHandle, desc AtlasDescriptor) *TilemapBuilder {
	b.texture = &TextureBinding{Handle: handle, Desc: desc}
	return b
}

// WithOpacity overrides the opacity of one stack layer.
func (b *TilemapBuilder) WithOpacity(layer int, opacity float32) *TilemapBuilder {
	if layer >= 0 && layer < MaxLayerCount {
		b.opacities[layer] = opacity
	}
	return b
}

// WithBounds declares fixed bounds. Edits outside them become silent
// no-ops instead of growing the map.
func (b *TilemapBuilder) WithBounds(area tilegrid.Area) *TilemapBuilder {
	b.bounds = &area
	return b
}

// WithoutSafetyCheck disables the chunk-count ceiling. Only use this if
// you know the resulting chunk count is manageable.
func (b *TilemapBuilder) WithoutSafetyCheck() *TilemapBuilder {
	b.safetyCheck = false
	return b
}

// Build validates the descriptor and creates an empty tilemap.
func (b *TilemapBuilder) Build() (*Tilemap, error) {
	if b.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", tilegrid.ErrInvalidDescriptor, b.chunkSize)
	}
	if b.renderSize.X() <= 0 || b.renderSize.Y() <= 0 {
		return nil, fmt.Errorf("%w: render size %v", tilegrid.ErrInvalidDescriptor, b.renderSize)
	}
	if b.safetyCheck && b.bounds != nil {
		cw := (b.bounds.Width + b.chunkSize - 1) / b.chunkSize
		ch := (b.bounds.Height + b.chunkSize - 1) / b.chunkSize
		if cw*ch > MaxSafeChunkCount {
			return nil, fmt.Errorf(
				"%w: %dx%d=%d chunks (max %d); decrease the map size, increase the chunk size, or call WithoutSafetyCheck",
				tilegrid.ErrTooManyChunks, cw, ch, cw*ch, MaxSafeChunkCount)
		}
	}

	m := &Tilemap{
		id:         MapID(nextMapID.Add(1)),
		name:       b.name,
		tileType:   b.tileType,
		slotSize:   b.slotSize,
		renderSize: b.renderSize,
		chunkSize:  b.chunkSize,
		transform:  b.transform,
		texture:    b.texture,
		opacities:  b.opacities,
		bounds:     b.bounds,
		storage:    newChunkStorage(b.chunkSize),
		version:    1,
	}
	tilegrid.Logger().Info("tilemap created",
		"map", b.name, "id", uint32(m.id), "type", b.tileType.String(),
		"chunkSize", b.chunkSize)
	return m, nil
}

// Tilemap is the authoritative, simulation-side grid instance. All
// mutation goes through its methods; the render pipeline observes it only
// through Descriptor and DrainChanges, once per frame at extraction.
//
// A Tilemap is safe for concurrent use. Edits may run concurrently with
// the previous frame's render stages because the two representations only
// synchronize inside DrainChanges.
type Tilemap struct {
	mu sync.Mutex

	id         MapID
	name       string
	tileType   tilegrid.TileType
	slotSize   mgl32.Vec2
	renderSize mgl32.Vec2
	chunkSize  int32
	transform  tilegrid.Transform
	texture    *TextureBinding
	opacities  [MaxLayerCount]float32
	animations []Animation

	// bounds, when set, rejects out-of-range edits; otherwise extent
	// grows to cover every written cell.
	bounds *tilegrid.Area
	extent tilegrid.Area

	storage *chunkStorage

	// version counts descriptor changes (transform, opacities, texture,
	// animation table) for render-side uniform invalidation.
	version   uint64
	despawned bool
}

// ID returns the tilemap's unique id.
func (m *Tilemap) ID() MapID { return m.id }

// Name returns the tilemap's name.
func (m *Tilemap) Name() string { return m.name }

// ChunkSize returns the chunk edge length in cells.
func (m *Tilemap) ChunkSize() int32 { return m.chunkSize }

// RegisterAnimation adds a frame sequence to the animation table and
// returns its id. Frames are validated against the texture atlas.
func (m *Tilemap) RegisterAnimation(frames []int32, fps float32) (AnimationID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.texture != nil {
		count := m.texture.Desc.TileCount()
		for _, f := range frames {
			if f < 0 || f >= count {
				return NoAnimation, fmt.Errorf(
					"tilemap %q: animation frame %d: %w (atlas holds %d tiles)",
					m.name, f, tilegrid.ErrTextureOutOfAtlas, count)
			}
		}
	}

	id := AnimationID(len(m.animations))
	m.animations = append(m.animations, Animation{
		Frames: append([]int32(nil), frames...),
		FPS:    fps,
	})
	m.version++
	return id, nil
}

// Set inserts or replaces the tile at the cell. The previous record is
// fully overwritten so no stale per-tile state leaks. Out-of-bounds cells
// are a silent no-op on bounded maps and grow the extent otherwise.
// Repeated application with the same arguments yields the same state.
func (m *Tilemap) Set(cell tilegrid.IVec2, b *TileBuilder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateBuilder(b, cell); err != nil {
		return err
	}
	if m.despawned || !m.admit(cell) {
		return nil
	}
	m.setLocked(cell, b)
	return nil
}

// FillRect applies the builder to every cell in the inclusive area. It is
// observationally equivalent to calling Set per cell but dirties each
// touched chunk once per call.
func (m *Tilemap) FillRect(area tilegrid.Area, b *TileBuilder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.validateBuilder(b, area.Origin); err != nil {
		return err
	}
	if m.despawned || area.IsEmpty() {
		return nil
	}

	clipped := m.clip(area)
	if clipped.IsEmpty() {
		return nil
	}
	if m.bounds == nil {
		m.extent = m.extent.Union(clipped)
	}

	// Walk the chunk range once: each overlapped chunk is fetched and
	// dirtied a single time regardless of how many cells it receives.
	minChunk := tilegrid.CellToChunk(clipped.Origin, m.chunkSize)
	maxChunk := tilegrid.CellToChunk(clipped.Max(), m.chunkSize)
	for cy := minChunk.Y; cy <= maxChunk.Y; cy++ {
		for cx := minChunk.X; cx <= maxChunk.X; cx++ {
			coord := tilegrid.ChunkCoord{X: cx, Y: cy}
			chunk := m.storage.ensure(coord)
			origin := tilegrid.ChunkOrigin(coord, m.chunkSize)
			span := tilegrid.AreaFromMinMax(origin,
				tilegrid.IVec2{X: origin.X + m.chunkSize - 1, Y: origin.Y + m.chunkSize - 1})

			for y := max(clipped.Origin.Y, span.Origin.Y); y <= min(clipped.Max().Y, span.Max().Y); y++ {
				for x := max(clipped.Origin.X, span.Origin.X); x <= min(clipped.Max().X, span.Max().X); x++ {
					cell := tilegrid.IVec2{X: x, Y: y}
					chunk.set(tilegrid.CellInChunk(cell, m.chunkSize), b.build(cell))
				}
			}
			m.storage.markDirty(coord)
		}
	}
	return nil
}

// UpdateRect partially mutates the existing tiles in the inclusive area.
// Cells with no tile are skipped, never created. The whole operation is
// validated before any tile changes, so a layer conflict aborts it
// without partial effects.
func (m *Tilemap) UpdateRect(area tilegrid.Area, u TileUpdater) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.despawned || area.IsEmpty() {
		return nil
	}
	clipped := m.clip(area)

	if u.Layer != nil {
		var conflict error
		clipped.Each(func(cell tilegrid.IVec2) {
			if conflict != nil {
				return
			}
			if t := m.tileAt(cell); t != nil && t.IsAnimated() {
				conflict = fmt.Errorf("tilemap %q at %v: %w",
					m.name, cell, tilegrid.ErrLayerConflict)
			}
		})
		if conflict != nil {
			return conflict
		}
	}

	clipped.Each(func(cell tilegrid.IVec2) {
		t := m.tileAt(cell)
		if t == nil {
			return
		}
		// Conflicts were rejected above; apply cannot fail here.
		_ = u.apply(t)
		m.storage.markDirty(tilegrid.CellToChunk(cell, m.chunkSize))
	})
	return nil
}

// Remove frees the tile at the cell. Removing an absent tile is a no-op.
func (m *Tilemap) Remove(cell tilegrid.IVec2) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.despawned {
		return
	}
	coord := tilegrid.CellToChunk(cell, m.chunkSize)
	chunk := m.storage.get(coord)
	if chunk == nil {
		return
	}
	if !chunk.remove(tilegrid.CellInChunk(cell, m.chunkSize)) {
		return
	}
	if chunk.Len() == 0 {
		m.storage.queueRelease(coord)
		return
	}
	m.storage.markDirty(coord)
}

// Despawn frees every tile and queues all render-side chunk buffers for
// release on the next extraction cycle. Further edits are no-ops and Get
// reports absent for every cell. Despawning twice is harmless.
func (m *Tilemap) Despawn() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.despawned {
		return
	}
	m.storage.releaseAll()
	m.despawned = true
	m.version++
	tilegrid.Logger().Info("tilemap despawned", "map", m.name, "id", uint32(m.id))
}

// Get returns the tile record at the cell. Absence is the only failure
// signal; out-of-range input never panics.
func (m *Tilemap) Get(cell tilegrid.IVec2) (Tile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.despawned {
		return Tile{}, false
	}
	chunk := m.storage.get(tilegrid.CellToChunk(cell, m.chunkSize))
	if chunk == nil {
		return Tile{}, false
	}
	return chunk.get(tilegrid.CellInChunk(cell, m.chunkSize))
}

// SetTransform replaces the world transform and invalidates the
// render-side uniform block.
func (m *Tilemap) SetTransform(tf tilegrid.Transform) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transform = tf
	m.version++
}

// Transform returns the current world transform.
func (m *Tilemap) Transform() tilegrid.Transform {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transform
}

// SetOpacity changes one stack layer's opacity and invalidates the
// render-side uniform block. Layers outside the stack are ignored.
func (m *Tilemap) SetOpacity(layer int, opacity float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if layer < 0 || layer >= MaxLayerCount {
		return
	}
	m.opacities[layer] = opacity
	m.version++
}

// Extent returns the written-cell bounding box of an unbounded map, or
// the declared bounds of a bounded one.
func (m *Tilemap) Extent() tilegrid.Area {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bounds != nil {
		return *m.bounds
	}
	return m.extent
}

// admit checks a cell against the declared bounds and grows the extent of
// unbounded maps. Callers hold the lock.
func (m *Tilemap) admit(cell tilegrid.IVec2) bool {
	if m.bounds != nil {
		return m.bounds.Contains(cell)
	}
	m.extent = m.extent.UnionCell(cell)
	return true
}

// clip restricts an area to the declared bounds. Callers hold the lock.
func (m *Tilemap) clip(area tilegrid.Area) tilegrid.Area {
	if m.bounds == nil {
		return area
	}
	lo := tilegrid.IVec2{
		X: max(area.Origin.X, m.bounds.Origin.X),
		Y: max(area.Origin.Y, m.bounds.Origin.Y),
	}
	hi := tilegrid.IVec2{
		X: min(area.Max().X, m.bounds.Max().X),
		Y: min(area.Max().Y, m.bounds.Max().Y),
	}
	if hi.X < lo.X || hi.Y < lo.Y {
		return tilegrid.Area{}
	}
	return tilegrid.AreaFromMinMax(lo, hi)
}

// tileAt returns a pointer to the live tile at a cell, or nil.
// Callers hold the lock.
func (m *Tilemap) tileAt(cell tilegrid.IVec2) *Tile {
	chunk := m.storage.get(tilegrid.CellToChunk(cell, m.chunkSize))
	if chunk == nil {
		return nil
	}
	return chunk.at(tilegrid.CellInChunk(cell, m.chunkSize))
}

// setLocked writes a validated tile. Callers hold the lock and have
// already checked bounds.
func (m *Tilemap) setLocked(cell tilegrid.IVec2, b *TileBuilder) {
	coord := tilegrid.CellToChunk(cell, m.chunkSize)
	chunk := m.storage.ensure(coord)
	chunk.set(tilegrid.CellInChunk(cell, m.chunkSize), b.build(cell))
	m.storage.markDirty(coord)
}

// validateBuilder rejects contract violations before any state changes.
// Callers hold the lock.
func (m *Tilemap) validateBuilder(b *TileBuilder, at tilegrid.IVec2) error {
	if b.hasLayers && b.animation != NoAnimation {
		return fmt.Errorf("tilemap %q at %v: %w", m.name, at, tilegrid.ErrLayerConflict)
	}
	if b.animation != NoAnimation {
		if int(b.animation) < 0 || int(b.animation) >= len(m.animations) {
			return fmt.Errorf("tilemap %q at %v: animation %d: %w",
				m.name, at, b.animation, tilegrid.ErrAnimationNotRegistered)
		}
	}
	if m.texture != nil {
		count := m.texture.Desc.TileCount()
		for _, l := range b.layers {
			if !l.IsEmpty() && l.TextureIndex >= count {
				return fmt.Errorf("tilemap %q at %v: texture index %d: %w (atlas holds %d tiles)",
					m.name, at, l.TextureIndex, tilegrid.ErrTextureOutOfAtlas, count)
			}
		}
	}
	return nil
}
