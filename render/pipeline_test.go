// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/tilegrid"
	"github.com/gogpu/tilegrid/grid"
)

func newTestMap(t *testing.T, opts ...func(*grid.TilemapBuilder)) *grid.Tilemap {
	t.Helper()
	b := grid.NewTilemapBuilder("test", tilegrid.TileTypeSquare,
		mgl32.Vec2{16, 16}, mgl32.Vec2{16, 16}).
		WithChunkSize(16)
	for _, opt := range opts {
		opt(b)
	}
	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func setTile(t *testing.T, m *grid.Tilemap, x, y int32) {
	t.Helper()
	b := grid.NewTileBuilder().WithLayer(0, grid.NewTileLayer().WithTextureIndex(0))
	if err := m.Set(tilegrid.IVec2{X: x, Y: y}, b); err != nil {
		t.Fatalf("Set(%d, %d): %v", x, y, err)
	}
}

func wideCamera() Camera {
	return Camera{ID: 1, View: tilegrid.NewAABB(-1e6, -1e6, 1e6, 1e6)}
}

func runFrame(t *testing.T, p *Pipeline, frame Frame, phase *DrawPhase) {
	t.Helper()
	if err := p.RunFrame(frame, phase); err != nil {
		t.Fatalf("RunFrame: %v", err)
	}
}

func TestRunFrameQueuesChunk(t *testing.T) {
	m := newTestMap(t)
	for x := int32(0); x < 3; x++ {
		setTile(t, m, x, 0)
	}

	up := NewNullUploader()
	p := NewPipeline(up)
	var phase DrawPhase
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}, &phase)

	items := phase.Items()
	if len(items) != 1 {
		t.Fatalf("submissions = %d, want 1", len(items))
	}
	sub := items[0]
	if sub.InstanceCount != 3 {
		t.Errorf("InstanceCount = %d, want 3", sub.InstanceCount)
	}
	if sub.Material != MaterialPureColor {
		t.Errorf("Material = %v, want PureColor", sub.Material)
	}
	if sub.InstanceBuf == 0 || sub.UniformBuf == 0 {
		t.Error("submission carries zero buffer handles")
	}
	if sub.Chunk != (tilegrid.ChunkCoord{X: 0, Y: 0}) {
		t.Errorf("Chunk = %v, want (0, 0)", sub.Chunk)
	}

	// One uniform buffer, one chunk buffer.
	if up.Creates() != 2 {
		t.Errorf("buffer creates = %d, want 2", up.Creates())
	}
	if up.Writes() != 2 {
		t.Errorf("buffer writes = %d, want 2", up.Writes())
	}
}

func TestTextureReadinessGatesQueueOnly(t *testing.T) {
	m := newTestMap(t, func(b *grid.TilemapBuilder) {
		b.WithTexture(7, grid.AtlasDescriptor{
			Size:     tilegrid.IVec2{X: 64, Y: 64},
			TileSize: tilegrid.IVec2{X: 16, Y: 16},
		})
	})
	setTile(t, m, 0, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	frame := Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}
	var phase DrawPhase

	runFrame(t, p, frame, &phase)
	if n := len(phase.Items()); n != 0 {
		t.Fatalf("pending texture produced %d submissions", n)
	}
	// The chunk was still prepared; only Queue waits for the texture.
	created := up.Creates()
	if created != 2 {
		t.Errorf("buffer creates = %d, want 2", created)
	}

	p.Textures().MarkReady(7, nil)
	runFrame(t, p, frame, &phase)
	items := phase.Items()
	if len(items) != 1 {
		t.Fatalf("submissions after MarkReady = %d, want 1", len(items))
	}
	if items[0].Material != MaterialTextured || items[0].Texture != 7 {
		t.Errorf("submission = %+v, want textured atlas 7", items[0])
	}
	// Nothing was rebuilt for the retry.
	if up.Creates() != created {
		t.Errorf("retry created %d extra buffers", up.Creates()-created)
	}
}

func TestCullDefersInvisibleDirtyChunks(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)     // chunk (0, 0), world 0..256
	setTile(t, m, 100, 100) // chunk (6, 6), world 1536..1792

	up := NewNullUploader()
	p := NewPipeline(up)
	var phase DrawPhase

	near := Camera{ID: 1, View: tilegrid.NewAABB(0, 0, 100, 100)}
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{near}}, &phase)
	items := phase.Items()
	if len(items) != 1 || items[0].Chunk != (tilegrid.ChunkCoord{X: 0, Y: 0}) {
		t.Fatalf("near camera items = %+v, want only chunk (0, 0)", items)
	}
	// Only the visible chunk was uploaded.
	if up.Creates() != 2 {
		t.Errorf("buffer creates = %d, want 2", up.Creates())
	}

	// The deferred chunk rebuilds when a camera finally sees it.
	far := Camera{ID: 1, View: tilegrid.NewAABB(1600, 1600, 1700, 1700)}
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{far}}, &phase)
	items = phase.Items()
	if len(items) != 1 || items[0].Chunk != (tilegrid.ChunkCoord{X: 6, Y: 6}) {
		t.Fatalf("far camera items = %+v, want only chunk (6, 6)", items)
	}
	if up.Creates() != 3 {
		t.Errorf("buffer creates = %d, want 3", up.Creates())
	}
}

func TestReincludedChunkReusesBuffer(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	near := Camera{ID: 1, View: tilegrid.NewAABB(0, 0, 100, 100)}
	away := Camera{ID: 1, View: tilegrid.NewAABB(5000, 5000, 5100, 5100)}
	var phase DrawPhase

	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{near}}, &phase)
	if len(phase.Items()) != 1 {
		t.Fatalf("submissions = %d, want 1", len(phase.Items()))
	}
	creates, writes := up.Creates(), up.Writes()

	// Panning away culls the clean chunk but keeps its buffer.
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{away}}, &phase)
	if n := len(phase.Items()); n != 0 {
		t.Fatalf("culled chunk produced %d submissions", n)
	}

	// Panning back draws it again with zero upload cost.
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{near}}, &phase)
	if len(phase.Items()) != 1 {
		t.Fatalf("reincluded chunk missing from queue")
	}
	if up.Creates() != creates || up.Writes() != writes {
		t.Errorf("reinclusion cost %d creates, %d writes; want 0",
			up.Creates()-creates, up.Writes()-writes)
	}
}

func TestChunkBufferReuse(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)
	setTile(t, m, 1, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	frame := Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}
	var phase DrawPhase

	runFrame(t, p, frame, &phase)
	created := up.Creates()

	// Rewriting a tile dirties the chunk but the packed size is
	// unchanged, so the rebuild reuses the buffer.
	setTile(t, m, 1, 0)
	runFrame(t, p, frame, &phase)
	if up.Creates() != created {
		t.Errorf("same-size rebuild created %d buffers", up.Creates()-created)
	}

	// Growing the chunk outgrows the buffer: a new one is created and
	// the old one is destroyed on the next extract.
	setTile(t, m, 2, 0)
	runFrame(t, p, frame, &phase)
	if up.Creates() != created+1 {
		t.Fatalf("growth created %d buffers, want 1", up.Creates()-created)
	}
	liveBefore := up.Live()
	runFrame(t, p, frame, &phase)
	if up.Live() != liveBefore-1 {
		t.Errorf("outgrown buffer not destroyed: live %d -> %d", liveBefore, up.Live())
	}
}

func TestDespawnReleasesEverything(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	var phase DrawPhase
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}, &phase)
	if up.Live() != 2 {
		t.Fatalf("live buffers = %d, want 2", up.Live())
	}

	m.Despawn()
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}, &phase)
	if n := len(phase.Items()); n != 0 {
		t.Errorf("despawned map produced %d submissions", n)
	}
	// A second frame with the map still listed must not release twice.
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}, &phase)

	p.Shutdown()
	if up.Live() != 0 {
		t.Errorf("live buffers after Shutdown = %d, want 0", up.Live())
	}
}

func TestDespawnedMapNotRemirrored(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	frame := Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}
	var phase DrawPhase
	runFrame(t, p, frame, &phase)

	m.Despawn()
	runFrame(t, p, frame, &phase)
	creates := up.Creates()

	// A despawned map the host keeps listing must not be mirrored and
	// immediately torn down again every frame.
	for i := 0; i < 3; i++ {
		runFrame(t, p, frame, &phase)
	}
	if len(p.maps) != 0 {
		t.Errorf("despawned map left %d mirrors", len(p.maps))
	}
	if up.Creates() != creates {
		t.Errorf("despawned map created %d buffers", up.Creates()-creates)
	}
	p.Shutdown()
	if up.Live() != 0 {
		t.Errorf("live buffers after Shutdown = %d, want 0", up.Live())
	}
}

func TestUnlistedMapIsReleased(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	var phase DrawPhase
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}, &phase)

	// Dropping the map from the frame input despawns its mirror.
	runFrame(t, p, Frame{Cameras: []Camera{wideCamera()}}, &phase)
	if n := len(phase.Items()); n != 0 {
		t.Errorf("unlisted map produced %d submissions", n)
	}
	p.Shutdown()
	if up.Live() != 0 {
		t.Errorf("live buffers after Shutdown = %d, want 0", up.Live())
	}
}

func TestAnimationPatchWithoutRebuild(t *testing.T) {
	m := newTestMap(t)
	anim, err := m.RegisterAnimation([]int32{3, 4}, 1)
	if err != nil {
		t.Fatalf("RegisterAnimation: %v", err)
	}
	if err := m.Set(tilegrid.IVec2{}, grid.NewTileBuilder().WithAnimation(anim)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	up := NewNullUploader()
	p := NewPipeline(up)
	frame := Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}
	var phase DrawPhase

	runFrame(t, p, frame, &phase)
	creates, writes := up.Creates(), up.Writes()

	// Advancing the clock past the frame boundary patches 4 bytes in
	// place; no buffer is created and no full rebuild happens.
	frame.Delta = 1.0
	runFrame(t, p, frame, &phase)
	if up.Creates() != creates {
		t.Errorf("animation advance created %d buffers", up.Creates()-creates)
	}
	if up.Writes() != writes+1 {
		t.Errorf("animation advance wrote %d times, want 1", up.Writes()-writes)
	}

	// A frame that lands on the same animation frame writes nothing.
	frame.Delta = 0
	runFrame(t, p, frame, &phase)
	if up.Writes() != writes+1 {
		t.Errorf("unchanged frame wrote %d times", up.Writes()-writes-1)
	}
	if len(phase.Items()) != 1 {
		t.Errorf("animated chunk missing from queue")
	}
}

func TestQueueOrdersByZOrder(t *testing.T) {
	back := newTestMap(t, func(b *grid.TilemapBuilder) {
		b.WithTransform(tilegrid.Transform{ZOrder: -2})
	})
	front := newTestMap(t, func(b *grid.TilemapBuilder) {
		b.WithTransform(tilegrid.Transform{ZOrder: 5})
	})
	setTile(t, back, 0, 0)
	setTile(t, front, 0, 0)

	p := NewPipeline(NewNullUploader())
	var phase DrawPhase
	// List the front map first to prove ordering comes from z, not input.
	runFrame(t, p, Frame{
		Maps:    []*grid.Tilemap{front, back},
		Cameras: []Camera{wideCamera()},
	}, &phase)

	items := phase.Items()
	if len(items) != 2 {
		t.Fatalf("submissions = %d, want 2", len(items))
	}
	if items[0].Map != back.ID() || items[1].Map != front.ID() {
		t.Errorf("draw order = [%d, %d], want back (%d) before front (%d)",
			items[0].Map, items[1].Map, back.ID(), front.ID())
	}
}

func TestInvisibleTilesMakeEmptyChunk(t *testing.T) {
	m := newTestMap(t)
	b := grid.NewTileBuilder().
		WithLayer(0, grid.NewTileLayer().WithTextureIndex(0)).
		WithVisible(false)
	if err := m.Set(tilegrid.IVec2{}, b); err != nil {
		t.Fatalf("Set: %v", err)
	}

	up := NewNullUploader()
	p := NewPipeline(up)
	var phase DrawPhase
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}, &phase)

	if n := len(phase.Items()); n != 0 {
		t.Errorf("empty chunk produced %d submissions", n)
	}
	// Only the uniform buffer exists; no degenerate instance buffer.
	if up.Creates() != 1 {
		t.Errorf("buffer creates = %d, want 1", up.Creates())
	}
}

func TestTransformChangeMovesChunks(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	cam := Camera{ID: 1, View: tilegrid.NewAABB(0, 0, 100, 100)}
	frame := Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{cam}}
	var phase DrawPhase

	runFrame(t, p, frame, &phase)
	if len(phase.Items()) != 1 {
		t.Fatalf("submissions = %d, want 1", len(phase.Items()))
	}
	writes := up.Writes()

	// Translating the map far away moves its chunk bounds out of view.
	m.SetTransform(tilegrid.Transform{Translation: mgl32.Vec2{10000, 0}})
	runFrame(t, p, frame, &phase)
	if n := len(phase.Items()); n != 0 {
		t.Errorf("moved map still produced %d submissions", n)
	}
	// The uniform block was rewritten for the new transform.
	if up.Writes() != writes+1 {
		t.Errorf("transform change wrote %d times, want 1", up.Writes()-writes)
	}
}

func TestRetiredChunkBufferReadopted(t *testing.T) {
	m := newTestMap(t)
	cell := tilegrid.IVec2{X: 0, Y: 0}
	setTile(t, m, 0, 0)

	up := NewNullUploader()
	p := NewPipeline(up)
	frame := Frame{Maps: []*grid.Tilemap{m}, Cameras: []Camera{wideCamera()}}
	var phase DrawPhase
	runFrame(t, p, frame, &phase)
	created := up.Creates()

	// Emptying the chunk releases it; repopulating the same coordinate
	// takes the retired slot back, GPU buffer included.
	m.Remove(cell)
	runFrame(t, p, frame, &phase)
	if n := len(phase.Items()); n != 0 {
		t.Fatalf("released chunk produced %d submissions", n)
	}

	setTile(t, m, 0, 0)
	runFrame(t, p, frame, &phase)
	if len(phase.Items()) != 1 {
		t.Fatalf("repopulated chunk missing from queue")
	}
	if up.Creates() != created {
		t.Errorf("readoption created %d buffers, want 0", up.Creates()-created)
	}
}

func TestIndependentCameras(t *testing.T) {
	m := newTestMap(t)
	setTile(t, m, 0, 0)     // chunk (0, 0)
	setTile(t, m, 100, 100) // chunk (6, 6)

	p := NewPipeline(NewNullUploader())
	var phase DrawPhase
	cams := []Camera{
		{ID: 1, View: tilegrid.NewAABB(0, 0, 100, 100)},
		{ID: 2, View: tilegrid.NewAABB(1600, 1600, 1700, 1700)},
	}
	runFrame(t, p, Frame{Maps: []*grid.Tilemap{m}, Cameras: cams}, &phase)

	one := phase.ForCamera(1)
	two := phase.ForCamera(2)
	if len(one) != 1 || one[0].Chunk != (tilegrid.ChunkCoord{X: 0, Y: 0}) {
		t.Errorf("camera 1 sees %+v, want chunk (0, 0)", one)
	}
	if len(two) != 1 || two[0].Chunk != (tilegrid.ChunkCoord{X: 6, Y: 6}) {
		t.Errorf("camera 2 sees %+v, want chunk (6, 6)", two)
	}
}
