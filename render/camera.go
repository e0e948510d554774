// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "github.com/gogpu/tilegrid"

// CameraID distinguishes cameras when several render the same frame.
type CameraID uint32

// Camera is the per-frame view supplied by the host: a world-space view
// rectangle. Each camera culls independently; no camera's result affects
// another's.
type Camera struct {
	ID   CameraID
	View tilegrid.AABB
}

// DefaultCullMargin is the default world-space margin added around every
// camera's view rectangle before intersection tests, so chunks whose
// tiles overhang their bounds slightly don't pop at the view edge.
const DefaultCullMargin float32 = 16

// visibleSet is one camera's culling result for a frame.
type visibleSet map[ChunkKey]struct{}

// Cull computes, for each camera, the set of chunks whose world bounds
// intersect the camera's expanded view rectangle. Chunks failing the test
// are excluded from Prepare and Queue for that camera this frame but keep
// their last-built buffers, so a reappearing chunk pays no rebuild cost
// unless it is also dirty.
func (p *Pipeline) Cull(cameras []Camera) {
	p.cameras = append(p.cameras[:0], cameras...)
	clear(p.visible)

	for _, cam := range cameras {
		view := cam.View.Expand(p.cullMargin)
		set := make(visibleSet)
		for _, em := range p.maps {
			for _, rc := range em.chunks {
				if rc.state == ChunkStateReleased {
					continue
				}
				if rc.aabb.Intersects(view) {
					set[rc.key] = struct{}{}
				}
			}
		}
		p.visible[cam.ID] = set
	}
}

// unionVisible merges every camera's visible set: Prepare rebuilds a
// chunk if any camera will draw it.
func (p *Pipeline) unionVisible() visibleSet {
	if len(p.visible) == 1 {
		for _, set := range p.visible {
			return set
		}
	}
	union := make(visibleSet)
	for _, set := range p.visible {
		for key := range set {
			union[key] = struct{}{}
		}
	}
	return union
}
