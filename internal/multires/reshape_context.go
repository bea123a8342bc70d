package multires

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/ccg"
	"github.com/Faultbox/multires/internal/logger"
	"github.com/Faultbox/multires/pkg/math"
)

// Reshape errors.
var (
	ErrNoContext      = errors.New("reshape context is nil")
	ErrNilMesh        = errors.New("mesh is nil")
	ErrLevelAboveTop  = errors.New("reshape level above top level")
	ErrGridCount      = errors.New("grid count differs from mesh corner count")
	ErrUnallocated    = errors.New("displacement grid not allocated")
	ErrNilSubdivCCG   = errors.New("subdiv ccg is nil")
	ErrInvalidWorkers = errors.New("worker count must be positive")
)

// GridElement is a write view of one stored sample. Displacement is never
// nil; Mask is nil when the mesh has no paint mask layer. The pointers are
// only valid until the mesh layers are next replaced, so callers must not
// keep them past the current pass.
type GridElement struct {
	Displacement *math.Vec3
	Mask         *float32
}

// LevelInfo describes one level taking part in a reshape.
type LevelInfo struct {
	Level    int
	GridSize int
}

// ReshapeContext binds a mesh to the level being reshaped.
type ReshapeContext struct {
	mesh    *Mesh
	top     LevelInfo
	reshape LevelInfo
}

// NewReshapeContext prepares mesh for reshaping at level. Missing or
// stale displacement grids are allocated at the top level.
func NewReshapeContext(mesh *Mesh, level int) (*ReshapeContext, error) {
	if mesh == nil {
		return nil, ErrNilMesh
	}
	if level < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	if level > mesh.TotalLevels {
		return nil, fmt.Errorf("%w: %d > %d", ErrLevelAboveTop, level, mesh.TotalLevels)
	}
	if n := mesh.EnsureGrids(); n > 0 {
		logger.Debug("allocated multires grids",
			zap.Int("grids", n),
			zap.Int("level", mesh.TotalLevels))
	}
	return &ReshapeContext{
		mesh:    mesh,
		top:     LevelInfo{Level: mesh.TotalLevels, GridSize: ccg.GridSize(mesh.TotalLevels)},
		reshape: LevelInfo{Level: level, GridSize: ccg.GridSize(level)},
	}, nil
}

// Mesh returns the bound mesh.
func (c *ReshapeContext) Mesh() *Mesh {
	return c.mesh
}

// Top returns the level the grids are stored at.
func (c *ReshapeContext) Top() LevelInfo {
	return c.top
}

// Reshape returns the level being reshaped.
func (c *ReshapeContext) Reshape() LevelInfo {
	return c.reshape
}

// NumGrids returns the number of grids in the bound mesh.
func (c *ReshapeContext) NumGrids() int {
	return c.mesh.NumCorners()
}

// ElementForGridCoord resolves the stored sample nearest to coord.
// coord must address an existing grid with u and v in [0, 1]; anything else
// is a caller bug and panics through the slice bounds check.
func (c *ReshapeContext) ElementForGridCoord(coord ccg.GridCoord) GridElement {
	grid := &c.mesh.Disps[coord.GridIndex]
	if !grid.Allocated() {
		panic(fmt.Sprintf("multires: %v: grid %d", ErrUnallocated, coord.GridIndex))
	}
	size := ccg.GridSize(grid.Level)
	x := ccg.CoordToIndex(coord.U, size)
	y := ccg.CoordToIndex(coord.V, size)

	var elem GridElement
	elem.Displacement = &grid.Disps[y*size+x]

	if c.mesh.Masks != nil {
		mg := &c.mesh.Masks[coord.GridIndex]
		if mg.Data == nil {
			panic(fmt.Sprintf("multires: %v: mask grid %d", ErrUnallocated, coord.GridIndex))
		}
		msize := ccg.GridSize(mg.Level)
		mx := ccg.CoordToIndex(coord.U, msize)
		my := ccg.CoordToIndex(coord.V, msize)
		elem.Mask = &mg.Data[my*msize+mx]
	}
	return elem
}
