// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/tilegrid/internal/gpu"
)

// BufferHandle is an opaque handle to a GPU buffer owned by an Uploader.
// The zero handle is never issued and always invalid.
type BufferHandle = gpu.BufferHandle

// Uploader owns GPU buffer lifetimes for the prepare stage. The pipeline
// calls it for every chunk rebuild, uniform refresh and deferred release;
// it performs no other GPU work.
//
// Implementations must be safe for concurrent use: chunk rebuilds within
// one Prepare call are independent and may be parallelized.
type Uploader interface {
	// CreateBuffer allocates a buffer and returns its handle.
	CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (BufferHandle, error)

	// WriteBuffer copies data into the buffer at the given offset.
	WriteBuffer(handle BufferHandle, offset uint64, data []byte) error

	// DestroyBuffer releases the buffer. Unknown handles are a no-op.
	DestroyBuffer(handle BufferHandle)
}

// NewDeviceUploader wraps a host-provided hal device and queue in an
// Uploader backed by real GPU buffers.
func NewDeviceUploader(device hal.Device, queue hal.Queue) (Uploader, error) {
	return gpu.NewBackend(device, queue)
}

// NullUploader is an Uploader that tracks buffer handles and sizes but
// holds no GPU resources. Used for CPU-only operation and tests, in the
// same spirit as NullDeviceHandle.
type NullUploader struct {
	mu      sync.Mutex
	nextID  BufferHandle
	sizes   map[BufferHandle]uint64
	creates int
	writes  int
}

// NewNullUploader creates an empty null uploader.
func NewNullUploader() *NullUploader {
	return &NullUploader{nextID: 1, sizes: make(map[BufferHandle]uint64)}
}

// CreateBuffer issues a handle and records the requested size.
func (u *NullUploader) CreateBuffer(_ string, size uint64, _ gputypes.BufferUsage) (BufferHandle, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	h := u.nextID
	u.nextID++
	u.sizes[h] = size
	u.creates++
	return h, nil
}

// WriteBuffer validates the write range and discards the data.
func (u *NullUploader) WriteBuffer(handle BufferHandle, offset uint64, data []byte) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	size, ok := u.sizes[handle]
	if !ok {
		return fmt.Errorf("render: unknown buffer handle %d", handle)
	}
	if offset+uint64(len(data)) > size {
		return fmt.Errorf("render: write of %d bytes at %d exceeds buffer size %d",
			len(data), offset, size)
	}
	u.writes++
	return nil
}

// DestroyBuffer forgets the handle.
func (u *NullUploader) DestroyBuffer(handle BufferHandle) {
	u.mu.Lock()
	delete(u.sizes, handle)
	u.mu.Unlock()
}

// Live returns the number of buffers not yet destroyed.
func (u *NullUploader) Live() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sizes)
}

// Creates returns the total number of CreateBuffer calls.
func (u *NullUploader) Creates() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.creates
}

// Writes returns the total number of successful WriteBuffer calls.
func (u *NullUploader) Writes() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.writes
}

// Ensure both uploaders satisfy the interface.
var (
	_ Uploader = (*NullUploader)(nil)
	_ Uploader = (*gpu.Backend)(nil)
)
