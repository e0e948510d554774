// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render turns tilegrid's simulation-side tile storage into GPU
// draw submissions, one frame at a time.
//
// # Pipeline
//
// A Pipeline runs four stages in strict order per frame:
//
//	Extract  — one-directional copy of tilemap/tile deltas into the
//	           render-side mirror; despawns become deferred releases.
//	Cull     — per camera, intersect chunk world AABBs with the view
//	           rectangle; invisible chunks keep their buffers.
//	Prepare  — rebuild packed instance buffers for dirty visible chunks,
//	           upload them, refresh per-map uniform blocks, patch
//	           animation frames.
//	Queue    — emit one draw submission per visible prepared chunk into
//	           a sorted DrawPhase.
//
// The mirror is written only by Extract and Prepare, and read only by
// Cull and Queue. Simulation-side edits synchronize with the pipeline
// exclusively inside Extract, so they may run concurrently with the
// previous frame's stages.
//
// # GPU boundary
//
// The package produces packed buffers and uniform blocks through an
// Uploader; it never creates a device, encodes commands or owns
// pipelines. Hosts with a wgpu device wrap it with NewDeviceUploader;
// tests and CPU-only hosts use NewNullUploader.
package render
