// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/grid"
)

// Extract synchronizes the render-side mirror with the simulation side.
// It drains each tilemap's pending changes under the map's own lock, so
// edits made after it returns land in the next frame, never tear this
// one. It also flushes the previous frame's deferred buffer releases,
// which is the only point the pipeline destroys GPU memory.
func (p *Pipeline) Extract(maps []*grid.Tilemap) {
	p.flushReleases()

	seen := make(map[grid.MapID]struct{}, len(maps))
	for _, m := range maps {
		d := m.Descriptor()
		seen[d.ID] = struct{}{}

		ch := m.DrainChanges()
		em := p.maps[d.ID]
		if ch.Despawned {
			// A despawned map the host keeps listing gets no mirror.
			if em != nil {
				p.releaseMap(d.ID, em)
			}
			continue
		}
		if em == nil {
			em = newExtractedMap(d)
			p.maps[d.ID] = em
			p.log().Debug("tilemap mirrored", "map", d.Name, "id", d.ID)
		} else if d.Version != em.desc.Version {
			em.applyDescriptor(d)
		}
		for _, coord := range ch.Released {
			p.releaseChunk(em, coord)
		}
		for _, delta := range ch.Dirty {
			p.adoptChunk(em, delta.Coord)
			em.applyDelta(delta)
		}
	}

	// Maps the host stopped listing are despawned from the pipeline's
	// point of view.
	for id, em := range p.maps {
		if _, ok := seen[id]; !ok {
			p.releaseMap(id, em)
		}
	}
}

// adoptChunk reclaims a retired slot for a chunk about to repopulate at
// the same coordinate, reusing its allocations and GPU buffer.
func (p *Pipeline) adoptChunk(em *extractedMap, coord tilegrid.ChunkCoord) {
	if _, ok := em.chunks[coord]; ok {
		return
	}
	key := ChunkKey{Map: em.desc.ID, Coord: coord}
	ret, ok := p.retired.Take(key)
	if !ok {
		return
	}
	em.chunks[coord] = &RenderChunk{
		key:       key,
		aabb:      em.chunkAABB(coord),
		instances: ret.instances[:0],
		scratch:   ret.scratch[:0],
		buffer:    ret.buffer,
		bufferCap: ret.bufferCap,
	}
}

// releaseChunk retires one chunk. The slot, GPU buffer included, moves
// into the retired cache; the buffer is destroyed only if the entry is
// evicted before being readopted.
func (p *Pipeline) releaseChunk(em *extractedMap, coord tilegrid.ChunkCoord) {
	rc, ok := em.chunks[coord]
	if !ok {
		return
	}
	delete(em.chunks, coord)
	rc.state = ChunkStateReleased
	p.retired.Set(rc.key, retiredChunk{
		instances: rc.instances,
		scratch:   rc.scratch,
		buffer:    rc.buffer,
		bufferCap: rc.bufferCap,
	})
}

// releaseMap retires every chunk of a map, queues its uniform buffer for
// destruction and drops the mirror. Safe to call for an already-released
// map.
func (p *Pipeline) releaseMap(id grid.MapID, em *extractedMap) {
	for coord := range em.chunks {
		p.releaseChunk(em, coord)
	}
	if em.uniformBuffer != 0 {
		p.pendingRelease = append(p.pendingRelease, em.uniformBuffer)
		em.uniformBuffer = 0
	}
	delete(p.maps, id)
	p.log().Debug("tilemap released", "map", em.desc.Name, "id", id)
}
