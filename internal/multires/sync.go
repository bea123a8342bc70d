package multires

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/ccg"
	"github.com/Faultbox/multires/internal/logger"
)

type syncOptions struct {
	workers int
}

// SyncOption configures a grid synchronization pass.
type SyncOption func(*syncOptions)

// WithWorkers spreads grids over n goroutines. Grids write to disjoint
// storage, so the result is identical to a serial pass.
func WithWorkers(n int) SyncOption {
	return func(o *syncOptions) {
		o.workers = n
	}
}

func buildSyncOptions(opts []SyncOption) (syncOptions, error) {
	o := syncOptions{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.workers < 1 {
		return o, fmt.Errorf("%w: %d", ErrInvalidWorkers, o.workers)
	}
	return o, nil
}

// checkSource verifies everything the per-sample loop relies on, so no
// sample is written when a precondition does not hold.
func (c *ReshapeContext) checkSource(sc *ccg.SubdivCCG) error {
	if sc == nil {
		return ErrNilSubdivCCG
	}
	if err := sc.Validate(c.reshape.Level); err != nil {
		return err
	}
	if sc.NumGrids != c.NumGrids() {
		return fmt.Errorf("%w: %d grids, %d corners", ErrGridCount, sc.NumGrids, c.NumGrids())
	}
	for i, g := range c.mesh.Disps {
		if !g.Allocated() {
			return fmt.Errorf("%w: grid %d", ErrUnallocated, i)
		}
		if len(g.Disps) != ccg.GridArea(g.Level) {
			return fmt.Errorf("%w: displacement grid %d has %d samples at level %d", ErrLayerSize, i, len(g.Disps), g.Level)
		}
	}
	if c.mesh.Masks == nil {
		return nil
	}
	if len(c.mesh.Masks) != c.NumGrids() {
		return fmt.Errorf("%w: %d mask grids, %d corners", ErrLayerSize, len(c.mesh.Masks), c.NumGrids())
	}
	for i, g := range c.mesh.Masks {
		if g.Data == nil {
			return fmt.Errorf("%w: mask grid %d", ErrUnallocated, i)
		}
		if len(g.Data) != ccg.GridArea(g.Level) {
			return fmt.Errorf("%w: mask grid %d has %d samples at level %d", ErrLayerSize, i, len(g.Data), g.Level)
		}
	}
	return nil
}

// AssignFinalCoordsFromCCG copies every sample of the sculpted surface at
// the reshape level into the stored grids.
//
// Positions are always copied. Masks are copied only when the surface has
// mask data and the mesh has a paint mask layer: the mesh decides which
// layers exist. After an undo step that predates the mask layer the surface
// may still carry masks; those are dropped rather than resurrecting the
// layer.
//
// The returned bool reports completion. Callers must tag derived geometry
// for update afterwards; nothing is recomputed here.
func (c *ReshapeContext) AssignFinalCoordsFromCCG(sc *ccg.SubdivCCG, opts ...SyncOption) (bool, error) {
	if c == nil {
		return false, ErrNoContext
	}
	o, err := buildSyncOptions(opts)
	if err != nil {
		return false, err
	}
	if err := c.checkSource(sc); err != nil {
		return false, fmt.Errorf("assign final coords: %w", err)
	}

	start := time.Now()
	key := sc.Key(c.reshape.Level)
	numGrids := sc.NumGrids

	workers := min(o.workers, numGrids)
	if workers <= 1 {
		for g := 0; g < numGrids; g++ {
			c.assignGridFromCCG(key, sc, g)
		}
	} else {
		var wg sync.WaitGroup
		chunk := (numGrids + workers - 1) / workers
		for first := 0; first < numGrids; first += chunk {
			last := min(first+chunk, numGrids)
			wg.Add(1)
			go func(first, last int) {
				defer wg.Done()
				for g := first; g < last; g++ {
					c.assignGridFromCCG(key, sc, g)
				}
			}(first, last)
		}
		wg.Wait()
	}

	if sc.HasMask() && !c.mesh.HasMaskLayer() {
		logger.Warn("paint mask present on surface but not on mesh, mask left untouched",
			zap.Stringer("mesh", c.mesh.ID))
	}
	logger.Debug("assigned final coords from ccg",
		zap.Int("grids", numGrids),
		zap.Int("grid_size", key.GridSize),
		zap.Int("level", c.reshape.Level),
		zap.Int("workers", max(workers, 1)),
		zap.Bool("masks", sc.HasMask() && c.mesh.HasMaskLayer()),
		zap.Duration("took", time.Since(start)))

	return true, nil
}

func (c *ReshapeContext) assignGridFromCCG(key ccg.Key, sc *ccg.SubdivCCG, gridIndex int) {
	size := c.reshape.GridSize
	hasMask := sc.HasMask()
	for y := 0; y < size; y++ {
		v := ccg.GridU(y, size)
		for x := 0; x < size; x++ {
			u := ccg.GridU(x, size)
			vert := ccg.GridXYToVert(key, gridIndex, x, y)

			elem := c.ElementForGridCoord(ccg.GridCoord{GridIndex: gridIndex, U: u, V: v})
			if elem.Displacement == nil {
				panic(fmt.Sprintf("multires: no displacement for grid %d at (%d, %d)", gridIndex, x, y))
			}
			*elem.Displacement = sc.Positions[vert]

			if hasMask && elem.Mask != nil {
				*elem.Mask = sc.Masks[vert]
			}
		}
	}
}

// LoadIntoCCG fills the surface at the reshape level from the stored grids.
// It is the inverse of AssignFinalCoordsFromCCG and runs when sculpting
// starts. Surface masks are zeroed where the mesh has no mask layer.
func (c *ReshapeContext) LoadIntoCCG(sc *ccg.SubdivCCG) error {
	if c == nil {
		return ErrNoContext
	}
	if err := c.checkSource(sc); err != nil {
		return fmt.Errorf("load into ccg: %w", err)
	}
	key := sc.Key(c.reshape.Level)
	size := c.reshape.GridSize
	for g := 0; g < sc.NumGrids; g++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				vert := ccg.GridXYToVert(key, g, x, y)
				elem := c.ElementForGridCoord(ccg.GridCoordFromXY(g, x, y, size))
				sc.Positions[vert] = *elem.Displacement
				if !sc.HasMask() {
					continue
				}
				if elem.Mask != nil {
					sc.Masks[vert] = *elem.Mask
				} else {
					sc.Masks[vert] = 0
				}
			}
		}
	}
	return nil
}
