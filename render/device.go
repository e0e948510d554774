// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/tilegrid/grid"
)

// DeviceHandle provides GPU device access from the host application.
//
// Key principle: tilegrid RECEIVES the device from the host, it does NOT
// create one. The host application implements (or forwards) the
// gpucontext.DeviceProvider interface and passes it in, sharing GPU
// resources between tilegrid and the rest of the stack.
//
// DeviceHandle is an alias for gpucontext.DeviceProvider, providing a
// tilegrid-specific name for the interface while maintaining full
// compatibility with the gpucontext ecosystem.
type DeviceHandle = gpucontext.DeviceProvider

// Texture represents a host-owned GPU texture atlas resource.
// The pipeline never samples or copies it; it only needs dimensions and
// a view for the host's bind groups.
type Texture interface {
	// Width returns the texture width in pixels.
	Width() uint32

	// Height returns the texture height in pixels.
	Height() uint32

	// Format returns the texture pixel format.
	Format() gputypes.TextureFormat

	// CreateView creates a view for this texture.
	CreateView() TextureView
}

// TextureView represents a view into a texture, used by the host to bind
// the atlas to shader stages.
type TextureView interface {
	// Destroy releases resources associated with this view.
	Destroy()
}

// NullDeviceHandle is a DeviceHandle that provides nil implementations.
// Used for CPU-only operation where no GPU is available.
type NullDeviceHandle struct{}

// Device returns nil for the null device.
func (NullDeviceHandle) Device() gpucontext.Device { return nil }

// Queue returns nil for the null device.
func (NullDeviceHandle) Queue() gpucontext.Queue { return nil }

// Adapter returns nil for the null device.
func (NullDeviceHandle) Adapter() gpucontext.Adapter { return nil }

// AdapterInfo returns zero-value adapter info for the null device.
func (NullDeviceHandle) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{}
}

// SurfaceFormat returns undefined format for the null device.
func (NullDeviceHandle) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatUndefined
}

// Ensure NullDeviceHandle implements DeviceHandle.
var _ DeviceHandle = NullDeviceHandle{}

// TextureStore tracks which tilemap atlas textures are confirmed loaded.
//
// A still-loading texture is a valid, non-erroring condition: chunks of a
// tilemap whose atlas is pending are excluded from Queue and retried every
// frame until the host marks the handle ready. Tilemaps without a texture
// binding (pure color) never consult the store.
type TextureStore struct {
	mu    sync.RWMutex
	ready map[grid.TextureHandle]Texture
}

// NewTextureStore creates an empty texture store.
func NewTextureStore() *TextureStore {
	return &TextureStore{ready: make(map[grid.TextureHandle]Texture)}
}

// MarkReady records that the texture behind a handle finished loading.
// tex may be nil when the host tracks the resource itself.
func (s *TextureStore) MarkReady(handle grid.TextureHandle, tex Texture) {
	s.mu.Lock()
	s.ready[handle] = tex
	s.mu.Unlock()
}

// Remove forgets a handle, returning it to the pending state.
func (s *TextureStore) Remove(handle grid.TextureHandle) {
	s.mu.Lock()
	delete(s.ready, handle)
	s.mu.Unlock()
}

// Ready reports whether the texture behind a handle is loaded.
func (s *TextureStore) Ready(handle grid.TextureHandle) bool {
	s.mu.RLock()
	_, ok := s.ready[handle]
	s.mu.RUnlock()
	return ok
}

// Get returns the texture registered for a handle, if any.
func (s *TextureStore) Get(handle grid.TextureHandle) (Texture, bool) {
	s.mu.RLock()
	tex, ok := s.ready[handle]
	s.mu.RUnlock()
	return tex, ok
}
