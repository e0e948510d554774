// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"log/slog"

	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/cache"
	"github.com/gogpu/tilegrid/grid"
)

// DefaultRetainedChunks is the default per-shard capacity of the
// retired-chunk cache. Release storms from despawning large maps stay
// bounded by it.
const DefaultRetainedChunks = 64

// retiredChunk is a released chunk's reusable allocations. The buffer is
// not destroyed on release: a chunk repopulated at the same coordinate
// takes the slot back, buffer included. Eviction from the cache is what
// finally queues the buffer for destruction.
type retiredChunk struct {
	instances []TileInstance
	scratch   []byte
	buffer    BufferHandle
	bufferCap uint64
}

// Pipeline drives the per-frame stages over a set of tilemaps:
//
//	Extract → Cull → Prepare → Queue
//
// It owns the render-side mirror of every tilemap it has seen, the GPU
// buffers behind them and the retired-chunk cache. A Pipeline is not safe
// for concurrent use; the host runs the stages from one render goroutine
// in the order above.
type Pipeline struct {
	uploader Uploader
	textures *TextureStore

	cullMargin float32

	maps    map[grid.MapID]*extractedMap
	cameras []Camera
	visible map[CameraID]visibleSet
	retired *cache.Cache[ChunkKey, retiredChunk]

	// pendingRelease holds buffers queued for destruction. They are
	// destroyed at the start of the next Extract, after the previous
	// frame's GPU work has been submitted, never mid-frame.
	pendingRelease []BufferHandle

	// clock is the accumulated animation time in seconds.
	clock float64
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCullMargin sets the world-space margin added around camera views.
func WithCullMargin(margin float32) Option {
	return func(p *Pipeline) { p.cullMargin = margin }
}

// WithRetainedChunks sets the retired-chunk cache's per-shard capacity.
func WithRetainedChunks(capacity int) Option {
	return func(p *Pipeline) {
		p.retired = cache.New(capacity, ChunkKey.Pack, p.evictRetired)
	}
}

// WithTextureStore shares an existing texture store with the pipeline.
func WithTextureStore(store *TextureStore) Option {
	return func(p *Pipeline) { p.textures = store }
}

// NewPipeline creates a pipeline over the given uploader.
func NewPipeline(uploader Uploader, opts ...Option) *Pipeline {
	p := &Pipeline{
		uploader:   uploader,
		textures:   NewTextureStore(),
		cullMargin: DefaultCullMargin,
		maps:       make(map[grid.MapID]*extractedMap),
		visible:    make(map[CameraID]visibleSet),
	}
	p.retired = cache.New(DefaultRetainedChunks, ChunkKey.Pack, p.evictRetired)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Textures returns the pipeline's texture store, through which the host
// reports atlas uploads.
func (p *Pipeline) Textures() *TextureStore { return p.textures }

// Clock returns the accumulated animation time in seconds.
func (p *Pipeline) Clock() float64 { return p.clock }

func (p *Pipeline) log() *slog.Logger { return tilegrid.Logger() }

// evictRetired queues an evicted retired buffer for deferred destruction.
func (p *Pipeline) evictRetired(_ ChunkKey, ret retiredChunk) {
	if ret.buffer != 0 {
		p.pendingRelease = append(p.pendingRelease, ret.buffer)
	}
}

// flushReleases destroys every buffer queued since the last flush.
func (p *Pipeline) flushReleases() {
	for _, h := range p.pendingRelease {
		p.uploader.DestroyBuffer(h)
	}
	p.pendingRelease = p.pendingRelease[:0]
}

// Frame is one frame's input to RunFrame.
type Frame struct {
	// Maps lists every live tilemap. A map the pipeline has mirrored
	// that is absent here is treated as despawned.
	Maps []*grid.Tilemap

	// Cameras lists the views to cull and queue for.
	Cameras []Camera

	// Delta is the time in seconds since the previous frame; it advances
	// the shared animation clock.
	Delta float64
}

// RunFrame runs the four stages in order and fills the phase with sorted
// submissions. The phase is reset first, so it can be reused across
// frames.
func (p *Pipeline) RunFrame(frame Frame, phase *DrawPhase) error {
	phase.Reset()
	p.Extract(frame.Maps)
	p.Cull(frame.Cameras)
	if err := p.Prepare(frame.Delta); err != nil {
		return err
	}
	p.Queue(phase)
	return nil
}

// Shutdown releases every GPU buffer the pipeline owns: live chunk and
// uniform buffers, retired buffers and anything already queued. The
// pipeline must not be used afterwards.
func (p *Pipeline) Shutdown() {
	for id, em := range p.maps {
		p.releaseMap(id, em)
	}
	p.retired.Clear()
	p.flushReleases()
}
