// Package multires holds the persisted multiresolution displacement data of a
// mesh and the reshape machinery that writes sculpted grid surfaces back into
// it.
package multires

import (
	"github.com/Faultbox/multires/internal/ccg"
	"github.com/Faultbox/multires/pkg/math"
)

// DispGrid is the stored displacement grid of one face corner.
// Disps is row-major with GridSize(Level) samples per side; it is nil while
// the grid is unallocated.
type DispGrid struct {
	Level int
	Disps []math.Vec3
}

// Allocated reports whether the grid has storage.
func (g *DispGrid) Allocated() bool {
	return g.Disps != nil
}

// MaskGrid is the stored paint mask grid of one face corner.
type MaskGrid struct {
	Level int
	Data  []float32
}

// DispLayer holds one DispGrid per face corner.
type DispLayer []DispGrid

// MaskLayer holds one MaskGrid per face corner. A nil MaskLayer means the
// mesh has no paint mask.
type MaskLayer []MaskGrid

func newDispGrid(level int) DispGrid {
	return DispGrid{Level: level, Disps: make([]math.Vec3, ccg.GridArea(level))}
}

func newMaskGrid(level int) MaskGrid {
	return MaskGrid{Level: level, Data: make([]float32, ccg.GridArea(level))}
}

// Clone returns a deep copy.
func (l DispLayer) Clone() DispLayer {
	if l == nil {
		return nil
	}
	out := make(DispLayer, len(l))
	for i, g := range l {
		out[i].Level = g.Level
		if g.Disps != nil {
			out[i].Disps = append([]math.Vec3(nil), g.Disps...)
		}
	}
	return out
}

// Clone returns a deep copy.
func (l MaskLayer) Clone() MaskLayer {
	if l == nil {
		return nil
	}
	out := make(MaskLayer, len(l))
	for i, g := range l {
		out[i].Level = g.Level
		if g.Data != nil {
			out[i].Data = append([]float32(nil), g.Data...)
		}
	}
	return out
}
