package grid

// AnimationID indexes a tilemap's animation table.
type AnimationID int32

// Animation is one registered frame sequence. Frames are texture indices
// into the tilemap's atlas, advanced at a fixed rate against the shared
// frame clock.
type Animation struct {
	// Frames lists the texture index shown for each step, in order.
	Frames []int32

	// FPS is the number of frames advanced per second.
	FPS float32
}

// FrameAt returns the texture index shown at the given elapsed time in
// seconds. The sequence loops.
func (a Animation) FrameAt(elapsed float64) int32 {
	if len(a.Frames) == 0 {
		return 0
	}
	step := int(elapsed*float64(a.FPS)) % len(a.Frames)
	if step < 0 {
		step += len(a.Frames)
	}
	return a.Frames[step]
}
