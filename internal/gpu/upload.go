// Package gpu provides the wgpu-backed buffer upload backend for the
// tilegrid render pipeline.
package gpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Upload backend errors.
var (
	// ErrNilDevice is returned when creating a backend without a device.
	ErrNilDevice = errors.New("gpu: device is nil")

	// ErrNilQueue is returned when creating a backend without a queue.
	ErrNilQueue = errors.New("gpu: queue is nil")

	// ErrInvalidBufferSize is returned when buffer size is zero.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrUnknownBuffer is returned when operating on a handle the backend
	// did not issue, or one that has already been destroyed.
	ErrUnknownBuffer = errors.New("gpu: unknown buffer handle")

	// ErrWriteOutOfRange is returned when a write exceeds the buffer.
	ErrWriteOutOfRange = errors.New("gpu: write exceeds buffer size")
)

// BufferHandle is an opaque handle to a GPU buffer owned by the backend.
// The zero handle is never issued and always invalid.
type BufferHandle uint64

// copyBufferAlignment is the required alignment for copy operations.
// Buffer sizes and write lengths are padded up to it.
const copyBufferAlignment uint64 = 4

// alignUp pads n to the next multiple of copyBufferAlignment.
func alignUp(n uint64) uint64 {
	return (n + copyBufferAlignment - 1) &^ (copyBufferAlignment - 1)
}

// trackedBuffer pairs a hal buffer with its resolved (aligned) size.
type trackedBuffer struct {
	buf  hal.Buffer
	size uint64
}

// Backend creates, writes and destroys GPU buffers on a host-provided
// hal device and queue. It never creates a device itself.
//
// Backend is safe for concurrent use; the handle table is guarded so the
// prepare stage may upload chunks from parallel workers.
type Backend struct {
	device hal.Device
	queue  hal.Queue

	mu      sync.Mutex
	nextID  BufferHandle
	buffers map[BufferHandle]trackedBuffer
}

// NewBackend wraps a hal device and queue in an upload backend.
func NewBackend(device hal.Device, queue hal.Queue) (*Backend, error) {
	if device == nil {
		return nil, ErrNilDevice
	}
	if queue == nil {
		return nil, ErrNilQueue
	}
	return &Backend{
		device:  device,
		queue:   queue,
		nextID:  1,
		buffers: make(map[BufferHandle]trackedBuffer),
	}, nil
}

// CreateBuffer allocates a GPU buffer and returns its handle.
// The size is aligned up to the copy alignment before allocation.
func (b *Backend) CreateBuffer(label string, size uint64, usage gputypes.BufferUsage) (BufferHandle, error) {
	if size == 0 {
		return 0, fmt.Errorf("%w: size is 0", ErrInvalidBufferSize)
	}
	if usage == 0 {
		return 0, fmt.Errorf("buffer usage is empty")
	}

	alignedSize := alignUp(size)
	halBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  alignedSize,
		Usage: usage,
	})
	if err != nil {
		return 0, fmt.Errorf("buffer creation failed: %w", err)
	}

	b.mu.Lock()
	handle := b.nextID
	b.nextID++
	b.buffers[handle] = trackedBuffer{buf: halBuf, size: alignedSize}
	b.mu.Unlock()

	slogger().Debug("buffer created",
		"handle", uint64(handle), "label", label, "size", alignedSize)
	return handle, nil
}

// WriteBuffer copies data into the buffer at the given offset.
func (b *Backend) WriteBuffer(handle BufferHandle, offset uint64, data []byte) error {
	b.mu.Lock()
	tracked, ok := b.buffers[handle]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownBuffer, handle)
	}
	if offset+uint64(len(data)) > tracked.size {
		return fmt.Errorf("%w: offset %d + %d bytes > size %d",
			ErrWriteOutOfRange, offset, len(data), tracked.size)
	}

	b.queue.WriteBuffer(tracked.buf, offset, data)
	return nil
}

// DestroyBuffer releases the buffer. Destroying an unknown or already
// destroyed handle is a no-op: release runs one frame behind the edits
// that caused it, so double-release must stay harmless.
func (b *Backend) DestroyBuffer(handle BufferHandle) {
	b.mu.Lock()
	tracked, ok := b.buffers[handle]
	if ok {
		delete(b.buffers, handle)
	}
	b.mu.Unlock()
	if !ok {
		return
	}

	b.device.DestroyBuffer(tracked.buf)
	slogger().Debug("buffer destroyed", "handle", uint64(handle))
}

// BufferCount returns the number of live buffers, for leak assertions.
func (b *Backend) BufferCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buffers)
}
