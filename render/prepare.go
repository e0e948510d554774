// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Prepare advances the animation clock and uploads whatever the visible
// set needs this frame: refreshed uniform blocks, rebuilt instance
// buffers for dirty chunks, and the per-instance animation patch for
// clean animated chunks. Dirty chunks no camera can see are skipped and
// stay dirty; their rebuild is deferred, not dropped.
func (p *Pipeline) Prepare(delta float64) error {
	p.clock += delta
	union := p.unionVisible()

	for _, em := range p.maps {
		if em.uniformDirty {
			if err := p.uploadUniform(em); err != nil {
				return err
			}
		}
		for _, rc := range em.chunks {
			if rc.state == ChunkStateEmpty || rc.state == ChunkStateReleased {
				continue
			}
			if _, vis := union[rc.key]; !vis {
				continue
			}
			var err error
			switch {
			case rc.state == ChunkStateDirty:
				err = p.rebuildChunk(em, rc)
			case rc.HasAnimation():
				err = p.patchAnimations(em, rc)
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// uploadUniform re-encodes and uploads a map's uniform block.
func (p *Pipeline) uploadUniform(em *extractedMap) error {
	em.uniformBytes = em.uniform.encode(em.uniformBytes[:0])
	if em.uniformBuffer == 0 {
		h, err := p.uploader.CreateBuffer(
			fmt.Sprintf("tilemap/%s/uniform", em.desc.Name),
			TilemapUniformSize,
			gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("render: tilemap %q uniform buffer: %w", em.desc.Name, err)
		}
		em.uniformBuffer = h
	}
	if err := p.uploader.WriteBuffer(em.uniformBuffer, 0, em.uniformBytes); err != nil {
		return fmt.Errorf("render: tilemap %q uniform upload: %w", em.desc.Name, err)
	}
	em.uniformDirty = false
	return nil
}

// rebuildChunk repacks a dirty chunk's tiles and uploads the full
// instance buffer, growing it when the packed size exceeds its capacity.
// The outgrown buffer is queued for deferred destruction, never destroyed
// mid-frame.
func (p *Pipeline) rebuildChunk(em *extractedMap, rc *RenderChunk) error {
	rc.instances, rc.animSlots = packTiles(rc.tiles, em.desc.Animations, p.clock, rc.instances)
	if len(rc.instances) == 0 {
		rc.state = ChunkStateEmpty
		return nil
	}
	rc.scratch = encodeInstances(rc.instances, rc.scratch)

	need := uint64(len(rc.scratch))
	if rc.buffer == 0 || rc.bufferCap < need {
		if rc.buffer != 0 {
			p.pendingRelease = append(p.pendingRelease, rc.buffer)
		}
		label := fmt.Sprintf("tilemap/%s/chunk(%d,%d)",
			em.desc.Name, rc.key.Coord.X, rc.key.Coord.Y)
		h, err := p.uploader.CreateBuffer(label, need,
			gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
		if err != nil {
			return fmt.Errorf("render: chunk %v buffer: %w", rc.key.Coord, err)
		}
		rc.buffer = h
		rc.bufferCap = need
	}
	if err := p.uploader.WriteBuffer(rc.buffer, 0, rc.scratch); err != nil {
		return fmt.Errorf("render: chunk %v upload: %w", rc.key.Coord, err)
	}
	rc.state = ChunkStateClean

	p.log().Debug("chunk rebuilt",
		"map", em.desc.Name,
		"chunk", rc.key.Coord,
		"instances", len(rc.instances),
		"animated", len(rc.animSlots))
	return nil
}

// patchAnimations writes the current frame index of each animated
// instance whose frame changed. Each patch is a 4-byte write into the
// existing buffer; the chunk is never repacked for animation alone.
func (p *Pipeline) patchAnimations(em *extractedMap, rc *RenderChunk) error {
	for _, slot := range rc.animSlots {
		inst := &rc.instances[slot]
		frame := em.desc.Animations[inst.Anim].FrameAt(p.clock)
		if frame == inst.TexIndices[0] {
			continue
		}
		inst.TexIndices[0] = frame

		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], uint32(frame))
		off := uint64(slot)*TileInstanceSize + animPatchOffset
		if err := p.uploader.WriteBuffer(rc.buffer, off, buf[:]); err != nil {
			return fmt.Errorf("render: chunk %v animation patch: %w", rc.key.Coord, err)
		}
	}
	return nil
}
