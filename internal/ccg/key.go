// Package ccg implements the uniform grid representation of a subdivided
// surface: per-level addressing keys, parametric grid coordinates and the
// SubdivCCG sample arrays that sculpting edits live.
package ccg

import "github.com/Faultbox/multires/pkg/math"

// Per-sample element sizes in bytes.
const (
	PositionSize = 12 // one float3
	MaskSize     = 4  // one float
)

// MaxLevel bounds subdivision levels so grid arithmetic stays in int range.
const MaxLevel = 14

// Key describes the addressing geometry of one subdivision level.
type Key struct {
	Level     int
	ElemSize  int // bytes per sample
	GridSize  int // samples per grid side
	GridArea  int // samples per grid
	GridBytes int
	HasMask   bool
}

// GridSize returns the number of samples along one grid side at level.
// It is 2^level + 1, so level 2 gives a 5x5 grid. Level 0 is the corner
// grid of 2x2 samples; a single-sample grid has no u/v spacing.
func GridSize(level int) int {
	return 1<<level + 1
}

// GridArea returns the number of samples in one grid at level.
func GridArea(level int) int {
	s := GridSize(level)
	return s * s
}

// NewKey builds the key for level.
func NewKey(level int, hasMask bool) Key {
	elem := PositionSize
	if hasMask {
		elem += MaskSize
	}
	size := GridSize(level)
	return Key{
		Level:     level,
		ElemSize:  elem,
		GridSize:  size,
		GridArea:  size * size,
		GridBytes: size * size * elem,
		HasMask:   hasMask,
	}
}

// GridXYToVert returns the flat sample index of (x, y) on grid gridIndex.
// Grids are laid out back to back, each row-major.
func GridXYToVert(key Key, gridIndex, x, y int) int {
	return gridIndex*key.GridArea + y*key.GridSize + x
}

// VertToGridXY is the inverse of GridXYToVert.
func VertToGridXY(key Key, vert int) (gridIndex, x, y int) {
	gridIndex = vert / key.GridArea
	offset := vert - gridIndex*key.GridArea
	return gridIndex, offset % key.GridSize, offset / key.GridSize
}

// GridCoord addresses a point on one grid in normalized parametric space.
type GridCoord struct {
	GridIndex int
	U, V      float32
}

// GridCoordFromXY converts integer sample coordinates at gridSize into a
// GridCoord.
func GridCoordFromXY(gridIndex, x, y, gridSize int) GridCoord {
	return GridCoord{GridIndex: gridIndex, U: GridU(x, gridSize), V: GridU(y, gridSize)}
}

// GridU returns the parametric position of sample index i on a grid side of
// gridSize samples. It is exact at both ends: 0 and gridSize-1 map to 0 and 1.
func GridU(i, gridSize int) float32 {
	return float32(i) / float32(gridSize-1)
}

// CoordToIndex maps a parametric coordinate in [0, 1] onto the nearest sample
// index of a grid with gridSize samples per side.
func CoordToIndex(t float32, gridSize int) int {
	return int(math.Round32(t * float32(gridSize-1)))
}
