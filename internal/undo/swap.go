package undo

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/backup"
	"github.com/Faultbox/multires/internal/ccg"
	"github.com/Faultbox/multires/internal/logger"
	"github.com/Faultbox/multires/internal/multires"
)

// swap replaces the layers of m with those recorded in step.
//
// The mesh runtime is moved aside while the layers change. It is handed back
// when the step keeps the top level, with the evaluated surface refreshed
// from the restored grids, and released otherwise so the next evaluation
// rebuilds it.
func (s *Stack) swap(m *multires.Mesh, step *Step) error {
	if step.numGrids != m.NumCorners() {
		return fmt.Errorf("%w: step %q has %d grids, mesh %d corners",
			ErrForeignMeshShape, step.Name, step.numGrids, m.NumCorners())
	}
	l, err := s.decode(step)
	if err != nil {
		return err
	}

	runtime := backup.NewRegistry()
	if err := runtime.CaptureAll(m); err != nil {
		return err
	}

	prevLevels := m.TotalLevels
	m.TotalLevels = l.totalLevels
	if err := m.SetLayers(l.disps, l.masks); err != nil {
		m.TotalLevels = prevLevels
		if rerr := runtime.RestoreAll(m); rerr != nil {
			logger.Error("restoring runtime after failed swap", zap.Error(rerr))
		}
		return err
	}

	if prevLevels != l.totalLevels {
		logger.Debug("undo swap changed top level, dropping runtime",
			zap.String("step", step.Name),
			zap.Int("from", prevLevels),
			zap.Int("to", l.totalLevels))
		return runtime.DiscardAll()
	}

	if err := runtime.RestoreAll(m); err != nil {
		return err
	}
	return refreshSurface(m)
}

// refreshSurface reloads an evaluated surface kept in the runtime cache slot
// from the freshly swapped grids. A surface that cannot be reloaded is
// released.
func refreshSurface(m *multires.Mesh) error {
	sc, ok := m.Runtime.Cache.(*ccg.SubdivCCG)
	if !ok || sc == nil {
		return nil
	}
	rc, err := multires.NewReshapeContext(m, sc.Level)
	if err == nil {
		err = rc.LoadIntoCCG(sc)
	}
	if err != nil {
		logger.Warn("evaluated surface no longer matches mesh, releasing it", zap.Error(err))
		m.Runtime.Cache.Release()
		m.Runtime.Cache = nil
	}
	return nil
}
