// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"slices"

	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/grid"
)

// DrawSubmission is one ready-to-record draw: a single chunk of a single
// tilemap as seen by a single camera. The host binds the named buffers
// and texture and issues an instanced quad draw of InstanceCount.
type DrawSubmission struct {
	Camera        CameraID
	Map           grid.MapID
	Chunk         tilegrid.ChunkCoord
	Material      Material
	Texture       grid.TextureHandle // zero for MaterialPureColor
	InstanceBuf   BufferHandle
	InstanceCount int
	UniformBuf    BufferHandle
	SortKey       uint64
}

// DrawPhase collects submissions for one frame. After Sort, submissions
// are grouped by camera and ordered by sort key within each camera, so
// lower layers draw first.
type DrawPhase struct {
	items []DrawSubmission
}

func (ph *DrawPhase) Add(sub DrawSubmission) {
	ph.items = append(ph.items, sub)
}

// Sort orders by camera, then sort key. The sort is stable, so chunks of
// the same tilemap keep their insertion order.
func (ph *DrawPhase) Sort() {
	slices.SortStableFunc(ph.items, func(a, b DrawSubmission) int {
		if a.Camera != b.Camera {
			if a.Camera < b.Camera {
				return -1
			}
			return 1
		}
		if a.SortKey != b.SortKey {
			if a.SortKey < b.SortKey {
				return -1
			}
			return 1
		}
		return 0
	})
}

// Items returns the collected submissions. Call after Sort for draw order.
func (ph *DrawPhase) Items() []DrawSubmission {
	return ph.items
}

// ForCamera returns the contiguous run of submissions for one camera.
// Valid only after Sort.
func (ph *DrawPhase) ForCamera(id CameraID) []DrawSubmission {
	lo, _ := slices.BinarySearchFunc(ph.items, id, func(s DrawSubmission, id CameraID) int {
		if s.Camera < id {
			return -1
		}
		if s.Camera > id {
			return 1
		}
		return 0
	})
	hi := lo
	for hi < len(ph.items) && ph.items[hi].Camera == id {
		hi++
	}
	return ph.items[lo:hi]
}

// Reset empties the phase for the next frame, keeping capacity.
func (ph *DrawPhase) Reset() {
	ph.items = ph.items[:0]
}

// sortKey biases the signed z-order into the high bits so negative layers
// sort below positive ones, and keeps the map ID in the low bits so chunks
// of the same tilemap stay adjacent.
func sortKey(zOrder int32, id grid.MapID) uint64 {
	biased := uint64(uint32(zOrder) ^ 1<<31)
	return biased<<32 | uint64(id)
}

// Queue emits a submission for every visible, clean, non-empty chunk of
// every map whose texture is ready. A map with a pending texture is
// skipped whole this frame and retried on the next; its chunk buffers are
// already built, so readiness is the only thing it waits for.
func (p *Pipeline) Queue(phase *DrawPhase) {
	for id, em := range p.maps {
		if em.texturePending(p.textures) {
			p.log().Debug("tilemap texture not ready, skipping",
				"map", em.desc.Name, "id", id)
			continue
		}
		var tex grid.TextureHandle
		if em.desc.Texture != nil {
			tex = em.desc.Texture.Handle
		}
		key := sortKey(em.desc.Transform.ZOrder, id)
		for _, cam := range p.cameras {
			set := p.visible[cam.ID]
			for coord, rc := range em.chunks {
				if _, ok := set[rc.key]; !ok {
					continue
				}
				if rc.state != ChunkStateClean || len(rc.instances) == 0 {
					continue
				}
				phase.Add(DrawSubmission{
					Camera:        cam.ID,
					Map:           id,
					Chunk:         coord,
					Material:      em.material,
					Texture:       tex,
					InstanceBuf:   rc.buffer,
					InstanceCount: len(rc.instances),
					UniformBuf:    em.uniformBuffer,
					SortKey:       key,
				})
			}
		}
	}
	phase.Sort()
}
