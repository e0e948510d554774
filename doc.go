// Package tilegrid renders very large 2-D grid worlds as chunked GPU batches.
//
// # Overview
//
// tilegrid turns sparse, frequently edited per-cell tile data (millions of
// addressable cells, only a fraction occupied) into compact, spatially
// batched draw submissions every frame. Tiles live in a simulation-side
// chunked store (grid.Tilemap); a per-frame pipeline mirrors edits into a
// render-side representation, culls chunks against cameras, rebuilds only
// the dirty visible chunk buffers, and emits sorted draw submissions for
// the host's GPU layer to execute.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/tilegrid"
//	    "github.com/gogpu/tilegrid/grid"
//	    "github.com/gogpu/tilegrid/render"
//	)
//
//	tm, _ := grid.NewTilemapBuilder("terrain", tilegrid.TileTypeSquare,
//	    mgl32.Vec2{16, 16}, mgl32.Vec2{16, 16}).Build()
//
//	tm.FillRect(tilegrid.NewArea(tilegrid.IVec2{}, 20, 10),
//	    grid.NewTileBuilder().WithLayer(0, grid.NewTileLayer().WithTextureIndex(0)))
//
//	pipe := render.NewPipeline(render.NewNullUploader())
//	var phase render.DrawPhase
//	pipe.RunFrame(render.Frame{
//	    Maps:    []*grid.Tilemap{tm},
//	    Cameras: []render.Camera{cam},
//	    Delta:   dt,
//	}, &phase)
//
// # Architecture
//
// The library is organized into:
//   - Root: leaf types (coordinates, tile types, flips, areas, AABBs, errors)
//   - grid: sparse chunk-indexed tile storage with batch mutation
//   - render: extract → cull → prepare → queue pipeline and packed buffers
//   - cache: sharded retention cache for retired chunk buffers
//   - internal/gpu: wgpu-backed buffer upload backend
//
// # Coordinate System
//
// World space follows the usual 2D game convention:
//   - Y increases upward
//   - Cell (0,0) sits at the bottom-left of a tilemap
//   - Cell coordinates are signed; chunk coordinates are floor(cell/chunkSize)
//
// # Scope
//
// tilegrid owns tile storage and buffer preparation only. Map-format
// ingestion, shader source, pipeline/bind-group setup and asset loading
// belong to the host, which feeds the core tile edits, texture handles and
// camera transforms and consumes packed buffers, uniform blocks and draw
// submissions.
package tilegrid
