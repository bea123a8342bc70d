package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/ccg"
	"github.com/Faultbox/multires/internal/config"
	"github.com/Faultbox/multires/internal/logger"
	"github.com/Faultbox/multires/internal/multires"
	"github.com/Faultbox/multires/internal/undo"
	"github.com/Faultbox/multires/pkg/math"
)

// demoResult collects the checksums the demo prints.
type demoResult struct {
	Original   uint64
	Sculpted   uint64
	Resynced   uint64
	AfterUndo  uint64
	AfterRedo  uint64
	Tags       multires.UpdateTag
	Compressed int
}

// runDemo sculpts a bump into a synthetic mesh, reshapes it, syncs a second
// time and walks the undo history back and forth.
func runDemo(cfg *config.Config, w io.Writer) error {
	res, err := demo(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Original:   %016x\n", res.Original)
	fmt.Fprintf(w, "Sculpted:   %016x\n", res.Sculpted)
	fmt.Fprintf(w, "Resynced:   %016x (idempotent: %v)\n", res.Resynced, res.Resynced == res.Sculpted)
	fmt.Fprintf(w, "After undo: %016x (matches original: %v)\n", res.AfterUndo, res.AfterUndo == res.Original)
	fmt.Fprintf(w, "After redo: %016x (matches sculpted: %v)\n", res.AfterRedo, res.AfterRedo == res.Sculpted)
	fmt.Fprintf(w, "Undo bytes: %d\n", res.Compressed)
	return nil
}

func demo(cfg *config.Config) (*demoResult, error) {
	level := cfg.Demo.Level
	mesh, err := multires.NewMesh(cfg.Demo.FaceSizes, level)
	if err != nil {
		return nil, err
	}
	mesh.EnsureGrids()
	if cfg.Demo.WithMask {
		mesh.AddMaskLayer()
	}

	history, err := undo.NewStack(cfg.Undo.MaxSteps, cfg.Undo.Compression)
	if err != nil {
		return nil, err
	}
	defer history.Close()

	res := &demoResult{Original: mesh.Checksum()}
	if _, err := history.Push("original", mesh); err != nil {
		return nil, err
	}

	// Evaluate the sculpt surface from the stored grids.
	surface, err := ccg.New(level, mesh.NumCorners(), cfg.Demo.WithMask)
	if err != nil {
		return nil, err
	}
	rc, err := multires.NewReshapeContext(mesh, level)
	if err != nil {
		return nil, err
	}
	if err := rc.LoadIntoCCG(surface); err != nil {
		return nil, err
	}
	mesh.Runtime.Cache = surface

	sculptBump(surface)

	reshaper := &multires.Reshaper{
		Workers: cfg.Reshape.Workers,
		Tagger: multires.UpdateTaggerFunc(func(m *multires.Mesh, tags multires.UpdateTag) {
			res.Tags |= tags
			logger.Info("mesh tagged for update",
				zap.Stringer("mesh", m.ID),
				zap.Int("tags", int(tags)))
		}),
	}
	if err := reshaper.FromCCG(mesh, surface, level); err != nil {
		return nil, err
	}
	res.Sculpted = mesh.Checksum()
	if _, err := history.Push("sculpt", mesh); err != nil {
		return nil, err
	}

	if err := reshaper.FromCCG(mesh, surface, level); err != nil {
		return nil, err
	}
	res.Resynced = mesh.Checksum()

	if _, err := history.Undo(mesh); err != nil {
		return nil, err
	}
	res.AfterUndo = mesh.Checksum()
	if _, err := history.Redo(mesh); err != nil {
		return nil, err
	}
	res.AfterRedo = mesh.Checksum()
	res.Compressed = history.Current().CompressedSize()

	mesh.Runtime.Release()
	return res, nil
}

// sculptBump raises every grid towards its center and paints a matching
// mask falloff.
func sculptBump(sc *ccg.SubdivCCG) {
	size := ccg.GridSize(sc.Level)
	sc.Fill(func(g, x, y int) (math.Vec3, float32) {
		u, v := ccg.GridU(x, size), ccg.GridU(y, size)
		falloff := math.Clamp01(1 - 2*math.Vec3{X: u - 0.5, Y: v - 0.5}.Length())
		p := sc.Position(g, x, y)
		return p.Add(math.Vec3{X: u, Y: v, Z: 0.25 * falloff}), falloff
	})
}
