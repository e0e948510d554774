// Package grid implements the simulation-side tile storage of tilegrid.
//
// A Tilemap is a named grid instance owning sparse, chunk-indexed tile
// records. Point and batch mutation (Set, FillRect, UpdateRect, Remove)
// mark the owning chunks dirty; the render pipeline drains those dirty
// sets once per frame through DrainChanges and never reads tile state any
// other way, so edits may run concurrently with the previous frame's
// render stages.
package grid
