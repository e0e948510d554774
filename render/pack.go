// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/grid"
)

// Material distinguishes the render pipelines a chunk buffer feeds.
type Material uint32

const (
	// MaterialTextured samples the tilemap's atlas texture.
	MaterialTextured Material = iota

	// MaterialPureColor draws untextured tinted quads. Tilemaps without
	// a texture binding use it and never gate on texture readiness.
	MaterialPureColor
)

// String returns the material name.
func (m Material) String() string {
	switch m {
	case MaterialTextured:
		return "Textured"
	case MaterialPureColor:
		return "PureColor"
	default:
		return "Unknown"
	}
}

// GPU instance layout. These structures match the per-instance vertex
// attributes consumed by the host's tilemap shader and use explicit
// padding for alignment compatibility.

// TileInstance is the packed per-tile instance attribute block.
//
// Byte layout (little-endian, 64 bytes):
//
//	offset  0: GridIndex   sint32x2 — absolute cell coordinate
//	offset  8: Anim        sint32   — animation slot, -1 for static
//	offset 12: Padding     uint32
//	offset 16: TexIndices  sint32x4 — per-layer texture index, -1 empty
//	offset 32: Flip        uint32x4 — per-layer flip bits
//	offset 48: Color       float32x4 — RGBA tint
type TileInstance struct {
	GridIndex  [2]int32
	Anim       int32
	Padding    uint32
	TexIndices [4]int32
	Flip       [4]uint32
	Color      [4]float32
}

// TileInstanceSize is the byte size of one packed instance.
const TileInstanceSize = 64

// animPatchOffset is the byte offset of TexIndices[0] inside an instance,
// the only field the per-frame animation patch rewrites.
const animPatchOffset = 16

// encode appends the instance's little-endian byte representation to dst.
func (i *TileInstance) encode(dst []byte) []byte {
	var tmp [TileInstanceSize]byte
	binary.LittleEndian.PutUint32(tmp[0:], uint32(i.GridIndex[0]))
	binary.LittleEndian.PutUint32(tmp[4:], uint32(i.GridIndex[1]))
	binary.LittleEndian.PutUint32(tmp[8:], uint32(i.Anim))
	binary.LittleEndian.PutUint32(tmp[12:], i.Padding)
	for n := 0; n < 4; n++ {
		binary.LittleEndian.PutUint32(tmp[16+n*4:], uint32(i.TexIndices[n]))
		binary.LittleEndian.PutUint32(tmp[32+n*4:], i.Flip[n])
		binary.LittleEndian.PutUint32(tmp[48+n*4:], math.Float32bits(i.Color[n]))
	}
	return append(dst, tmp[:]...)
}

// encodeInstances serializes a packed instance slice.
func encodeInstances(instances []TileInstance, dst []byte) []byte {
	dst = dst[:0]
	for n := range instances {
		dst = instances[n].encode(dst)
	}
	return dst
}

// packTiles converts one chunk's extracted tiles into instance attributes.
// Input order is preserved (extraction supplies row-major order), which
// makes the output deterministic for incremental diffing and fixtures.
// Invisible tiles are skipped. Returns the instances and the indices of
// animated ones for the per-frame patch.
func packTiles(tiles []grid.Tile, anims []grid.Animation, clock float64, dst []TileInstance) ([]TileInstance, []int) {
	dst = dst[:0]
	var animSlots []int
	for n := range tiles {
		t := &tiles[n]
		if !t.Visible {
			continue
		}

		inst := TileInstance{
			GridIndex: [2]int32{t.Cell.X, t.Cell.Y},
			Anim:      int32(t.Animation),
			Color:     [4]float32{t.Color.X(), t.Color.Y(), t.Color.Z(), t.Color.W()},
		}
		for l := 0; l < grid.MaxLayerCount; l++ {
			inst.TexIndices[l] = grid.EmptyLayer
		}

		if t.IsAnimated() {
			inst.TexIndices[0] = anims[t.Animation].FrameAt(clock)
			animSlots = append(animSlots, len(dst))
		} else {
			for l := 0; l < grid.MaxLayerCount; l++ {
				if !t.Layers[l].IsEmpty() {
					inst.TexIndices[l] = t.Layers[l].TextureIndex
					inst.Flip[l] = uint32(t.Layers[l].Flip)
				}
			}
		}
		dst = append(dst, inst)
	}
	return dst, animSlots
}

// TilemapUniform is the per-tilemap uniform block.
//
// Byte layout (little-endian, 64 bytes, 16-byte aligned):
//
//	offset  0: Translation    float32x2
//	offset  8: SlotSize       float32x2
//	offset 16: RenderSize     float32x2
//	offset 24: TileType       uint32
//	offset 28: Rotation       uint32
//	offset 32: LayerOpacities float32x4
//	offset 48: ZOrder         sint32
//	offset 52: Padding        uint32x3
type TilemapUniform struct {
	Translation    [2]float32
	SlotSize       [2]float32
	RenderSize     [2]float32
	TileType       uint32
	Rotation       uint32
	LayerOpacities [4]float32
	ZOrder         int32
	Padding        [3]uint32
}

// TilemapUniformSize is the byte size of the uniform block.
const TilemapUniformSize = 64

// uniformFromDescriptor fills the uniform block from a map descriptor.
func uniformFromDescriptor(d *grid.Descriptor) TilemapUniform {
	u := TilemapUniform{
		Translation: [2]float32{d.Transform.Translation.X(), d.Transform.Translation.Y()},
		SlotSize:    [2]float32{d.SlotSize.X(), d.SlotSize.Y()},
		RenderSize:  [2]float32{d.RenderSize.X(), d.RenderSize.Y()},
		TileType:    uint32(d.TileType),
		Rotation:    uint32(d.Transform.Rotation),
		ZOrder:      d.Transform.ZOrder,
	}
	copy(u.LayerOpacities[:], d.Opacities[:])
	return u
}

// encode appends the uniform's little-endian byte representation to dst.
func (u *TilemapUniform) encode(dst []byte) []byte {
	var tmp [TilemapUniformSize]byte
	binary.LittleEndian.PutUint32(tmp[0:], math.Float32bits(u.Translation[0]))
	binary.LittleEndian.PutUint32(tmp[4:], math.Float32bits(u.Translation[1]))
	binary.LittleEndian.PutUint32(tmp[8:], math.Float32bits(u.SlotSize[0]))
	binary.LittleEndian.PutUint32(tmp[12:], math.Float32bits(u.SlotSize[1]))
	binary.LittleEndian.PutUint32(tmp[16:], math.Float32bits(u.RenderSize[0]))
	binary.LittleEndian.PutUint32(tmp[20:], math.Float32bits(u.RenderSize[1]))
	binary.LittleEndian.PutUint32(tmp[24:], u.TileType)
	binary.LittleEndian.PutUint32(tmp[28:], u.Rotation)
	for n := 0; n < 4; n++ {
		binary.LittleEndian.PutUint32(tmp[32+n*4:], math.Float32bits(u.LayerOpacities[n]))
	}
	binary.LittleEndian.PutUint32(tmp[48:], uint32(u.ZOrder))
	return append(dst, tmp[:]...)
}

// ChunkKey identifies one chunk buffer: (tilemap id, chunk coordinate).
// The material is implied by the tilemap's texture binding.
type ChunkKey struct {
	Map   grid.MapID
	Coord tilegrid.ChunkCoord
}

// Pack mixes the key into a single uint64 for cache shard selection.
func (k ChunkKey) Pack() uint64 {
	const mix = 0x9E3779B97F4A7C15
	h := uint64(k.Map) * mix
	h ^= uint64(uint32(k.Coord.X)) << 32
	h ^= uint64(uint32(k.Coord.Y))
	return h * mix
}
