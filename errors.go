package tilegrid

import "errors"

// Storage-layer contract violations. These indicate a bug in the caller or
// its configuration, not a recoverable runtime condition: the operation
// that raised one is aborted and the error identifies the tilemap and
// coordinate involved. Match with errors.Is.
var (
	// ErrLayerConflict is returned when a plain texture layer is added to
	// a tile that holds an animation (or vice versa) at the same stack
	// slot. Silently dropping the layer would corrupt visual state
	// invisibly, so the conflict is surfaced immediately.
	ErrLayerConflict = errors.New("tilegrid: texture layer conflicts with animated tile")

	// ErrAnimationNotRegistered is returned when a tile references an
	// animation id that was never registered on its tilemap.
	ErrAnimationNotRegistered = errors.New("tilegrid: animation not registered")

	// ErrTextureOutOfAtlas is returned when a texture index or animation
	// frame falls outside the tilemap's texture atlas.
	ErrTextureOutOfAtlas = errors.New("tilegrid: texture index outside atlas")

	// ErrTooManyChunks is returned by the tilemap builder when the
	// declared bounds and chunk size would produce more chunks than the
	// safety limit allows. Increase the chunk size or disable the check.
	ErrTooManyChunks = errors.New("tilegrid: chunk count exceeds safety limit")

	// ErrInvalidDescriptor is returned by the tilemap builder for
	// descriptors that cannot describe a drawable map (zero sizes,
	// non-positive chunk size).
	ErrInvalidDescriptor = errors.New("tilegrid: invalid tilemap descriptor")
)

// fatalErrors lists the contract-violation sentinels. Out-of-bounds edits
// and not-yet-ready textures are deliberately absent: the former are silent
// no-ops so batch operations stay robust against partially-out-of-range
// rectangles, the latter are deferred and retried every frame.
var fatalErrors = []error{
	ErrLayerConflict,
	ErrAnimationNotRegistered,
	ErrTextureOutOfAtlas,
	ErrTooManyChunks,
	ErrInvalidDescriptor,
}

// IsFatal reports whether err wraps one of the contract-violation
// sentinels. Fatal errors are caller bugs: they must not be retried, and
// the mutation that produced them was not applied.
func IsFatal(err error) bool {
	for _, sentinel := range fatalErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
