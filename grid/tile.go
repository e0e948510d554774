package grid

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/tilegrid"
)

// MaxLayerCount is the number of stacked sub-tiles a single cell can hold.
// It matches the width of the packed per-instance texture index attribute.
const MaxLayerCount = 4

// EmptyLayer marks an unoccupied layer slot in a tile's stack.
const EmptyLayer int32 = -1

// NoAnimation marks a tile whose layers are plain texture indices.
const NoAnimation AnimationID = -1

// TileLayer is one stacked sub-tile: a texture index into the tilemap's
// atlas plus a flip state.
type TileLayer struct {
	TextureIndex int32
	Flip         tilegrid.Flip
}

// NewTileLayer creates an empty layer. Assign a texture with
// WithTextureIndex before attaching it to a tile.
func NewTileLayer() TileLayer {
	return TileLayer{TextureIndex: EmptyLayer}
}

// WithTextureIndex sets the layer's texture index.
func (l TileLayer) WithTextureIndex(i int32) TileLayer {
	l.TextureIndex = i
	return l
}

// WithFlip sets the layer's flip state.
func (l TileLayer) WithFlip(f tilegrid.Flip) TileLayer {
	l.Flip = f
	return l
}

// IsEmpty reports whether the layer slot is unoccupied.
func (l TileLayer) IsEmpty() bool { return l.TextureIndex < 0 }

// Tile is one cell's record: up to MaxLayerCount stacked layers or a
// single whole-tile animation, a color tint and a visibility flag.
// Tiles are plain values; the chunk arena owns them.
type Tile struct {
	// Cell is the absolute cell coordinate of the tile.
	Cell tilegrid.IVec2

	// Layers is the texture stack, bottom first. Slots with a negative
	// texture index are empty. Ignored while Animation is set.
	Layers [MaxLayerCount]TileLayer

	// Animation references the owning tilemap's animation table, or
	// NoAnimation for a static tile.
	Animation AnimationID

	// Color is the per-tile RGBA tint, multiplied over every layer.
	Color mgl32.Vec4

	// Visible excludes the tile from packed buffers when false without
	// removing it from storage.
	Visible bool
}

// IsAnimated reports whether the tile references an animation instead of
// static texture layers.
func (t *Tile) IsAnimated() bool { return t.Animation != NoAnimation }

// TopLayer returns the index of the highest occupied layer, or -1 when
// the stack is empty.
func (t *Tile) TopLayer() int {
	for i := MaxLayerCount - 1; i >= 0; i-- {
		if !t.Layers[i].IsEmpty() {
			return i
		}
	}
	return -1
}

// OpaqueWhite is the default tile tint.
var OpaqueWhite = mgl32.Vec4{1, 1, 1, 1}

// TileBuilder accumulates the description of a tile for Set and FillRect.
// A builder may carry static texture layers or an animation reference,
// never both; the conflict is surfaced when the builder is applied.
type TileBuilder struct {
	layers    [MaxLayerCount]TileLayer
	hasLayers bool
	animation AnimationID
	color     mgl32.Vec4
	visible   bool
}

// NewTileBuilder creates a builder for a visible, untinted, static tile
// with an empty layer stack.
func NewTileBuilder() *TileBuilder {
	b := &TileBuilder{
		animation: NoAnimation,
		color:     OpaqueWhite,
		visible:   true,
	}
	for i := range b.layers {
		b.layers[i] = NewTileLayer()
	}
	return b
}

// WithLayer assigns a layer at the given stack index (0 = bottom).
// Indices outside [0, MaxLayerCount) are ignored.
func (b *TileBuilder) WithLayer(index int, layer TileLayer) *TileBuilder {
	if index < 0 || index >= MaxLayerCount {
		return b
	}
	b.layers[index] = layer
	b.hasLayers = true
	return b
}

// WithAnimation makes the tile animated, referencing an animation
// registered on the tilemap.
func (b *TileBuilder) WithAnimation(id AnimationID) *TileBuilder {
	b.animation = id
	return b
}

// WithColor sets the tile's RGBA tint.
func (b *TileBuilder) WithColor(c mgl32.Vec4) *TileBuilder {
	b.color = c
	return b
}

// WithVisible sets the tile's visibility flag.
func (b *TileBuilder) WithVisible(v bool) *TileBuilder {
	b.visible = v
	return b
}

// build materializes the tile record at a cell. The caller has already
// validated the builder against the tilemap.
func (b *TileBuilder) build(cell tilegrid.IVec2) Tile {
	return Tile{
		Cell:      cell,
		Layers:    b.layers,
		Animation: b.animation,
		Color:     b.color,
		Visible:   b.visible,
	}
}

// LayerPosition selects where a LayerUpdater inserts into a tile's stack.
type LayerPosition int

const (
	// LayerPositionTop appends above the highest occupied layer.
	LayerPositionTop LayerPosition = iota

	// LayerPositionBottom inserts at the bottom, shifting the stack up.
	// The top layer is dropped if the stack is full.
	LayerPositionBottom

	// LayerPositionIndex overwrites the slot given by LayerUpdater.Index.
	LayerPositionIndex
)

// LayerUpdater describes a partial layer mutation for UpdateRect.
type LayerUpdater struct {
	Position LayerPosition
	Index    int
	Layer    TileLayer
}

// TileUpdater describes a partial tile mutation for UpdateRect. Nil
// fields are left untouched; coordinates with no existing tile are
// skipped, never created.
type TileUpdater struct {
	Layer   *LayerUpdater
	Color   *mgl32.Vec4
	Visible *bool
}

// apply mutates the tile in place. Returns ErrLayerConflict when a
// texture layer is pushed into an animated tile.
func (u *TileUpdater) apply(t *Tile) error {
	if u.Layer != nil {
		if t.IsAnimated() {
			return tilegrid.ErrLayerConflict
		}
		switch u.Layer.Position {
		case LayerPositionTop:
			top := t.TopLayer()
			idx := top + 1
			if idx >= MaxLayerCount {
				idx = MaxLayerCount - 1
			}
			t.Layers[idx] = u.Layer.Layer
		case LayerPositionBottom:
			for i := MaxLayerCount - 1; i > 0; i-- {
				t.Layers[i] = t.Layers[i-1]
			}
			t.Layers[0] = u.Layer.Layer
		case LayerPositionIndex:
			if u.Layer.Index >= 0 && u.Layer.Index < MaxLayerCount {
				t.Layers[u.Layer.Index] = u.Layer.Layer
			}
		}
	}
	if u.Color != nil {
		t.Color = *u.Color
	}
	if u.Visible != nil {
		t.Visible = *u.Visible
	}
	return nil
}
