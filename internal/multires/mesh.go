package multires

import (
	"encoding/binary"
	"errors"
	"fmt"
	stdmath "math"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/Faultbox/multires/internal/backup"
	"github.com/Faultbox/multires/internal/ccg"
)

// Mesh errors.
var (
	ErrInvalidFace  = errors.New("face must have at least 3 corners")
	ErrInvalidLevel = errors.New("invalid multires level")
	ErrLayerSize    = errors.New("layer size does not match corner count")
)

// Mesh is the coarse control mesh together with its persisted multires
// layers. Every face corner owns one grid.
type Mesh struct {
	ID          uuid.UUID
	FaceSizes   []int
	TotalLevels int
	Disps       DispLayer
	Masks       MaskLayer

	// Runtime holds the derived evaluator and grid surface. It is never
	// persisted.
	Runtime backup.Slots

	numCorners int
}

// NewMesh creates a mesh from per-face corner counts. Grids are left
// unallocated until EnsureGrids.
func NewMesh(faceSizes []int, totalLevels int) (*Mesh, error) {
	if totalLevels < 0 || totalLevels > ccg.MaxLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, totalLevels)
	}
	n := 0
	for i, s := range faceSizes {
		if s < 3 {
			return nil, fmt.Errorf("%w: face %d has %d", ErrInvalidFace, i, s)
		}
		n += s
	}
	return &Mesh{
		ID:          uuid.New(),
		FaceSizes:   append([]int(nil), faceSizes...),
		TotalLevels: totalLevels,
		Disps:       make(DispLayer, n),
		numCorners:  n,
	}, nil
}

// RuntimeSlots implements backup.Owner.
func (m *Mesh) RuntimeSlots() *backup.Slots {
	return &m.Runtime
}

// SessionID implements backup.IdentifiedOwner.
func (m *Mesh) SessionID() uuid.UUID {
	return m.ID
}

// NumCorners returns the number of face corners, which is the grid count.
func (m *Mesh) NumCorners() int {
	return m.numCorners
}

// HasMaskLayer reports whether the mesh carries a paint mask layer.
func (m *Mesh) HasMaskLayer() bool {
	return m.Masks != nil
}

// AddMaskLayer creates a zeroed paint mask layer at the top level. It is a
// no-op when the layer exists.
func (m *Mesh) AddMaskLayer() {
	if m.Masks != nil {
		return
	}
	m.Masks = make(MaskLayer, m.numCorners)
	for i := range m.Masks {
		m.Masks[i] = newMaskGrid(m.TotalLevels)
	}
}

// RemoveMaskLayer drops the paint mask layer.
func (m *Mesh) RemoveMaskLayer() {
	m.Masks = nil
}

// EnsureGrids allocates every displacement grid that is missing or stored at
// a level other than the top level, and does the same for mask grids when the
// mask layer exists. The mask layer itself is never created here. It returns
// the number of grids (re)allocated.
func (m *Mesh) EnsureGrids() int {
	allocated := 0
	for i := range m.Disps {
		g := &m.Disps[i]
		if g.Allocated() && g.Level == m.TotalLevels {
			continue
		}
		*g = newDispGrid(m.TotalLevels)
		allocated++
	}
	for i := range m.Masks {
		g := &m.Masks[i]
		if g.Data != nil && g.Level == m.TotalLevels {
			continue
		}
		*g = newMaskGrid(m.TotalLevels)
		allocated++
	}
	return allocated
}

// SetLayers replaces both layers. They must match the corner count; a nil mask
// layer removes the paint mask.
func (m *Mesh) SetLayers(disps DispLayer, masks MaskLayer) error {
	if len(disps) != m.numCorners {
		return fmt.Errorf("%w: %d displacement grids, %d corners", ErrLayerSize, len(disps), m.numCorners)
	}
	if masks != nil && len(masks) != m.numCorners {
		return fmt.Errorf("%w: %d mask grids, %d corners", ErrLayerSize, len(masks), m.numCorners)
	}
	m.Disps = disps
	m.Masks = masks
	return nil
}

// Checksum digests the layer contents, mask presence included. Equal
// checksums mean byte-identical layers with overwhelming probability.
func (m *Mesh) Checksum() uint64 {
	d := xxhash.New()
	var buf [12]byte

	writeInt := func(v int) {
		binary.LittleEndian.PutUint32(buf[:4], uint32(v))
		_, _ = d.Write(buf[:4])
	}

	writeInt(len(m.Disps))
	for _, g := range m.Disps {
		writeInt(g.Level)
		writeInt(len(g.Disps))
		for _, p := range g.Disps {
			b := p.Bits()
			binary.LittleEndian.PutUint32(buf[0:4], b[0])
			binary.LittleEndian.PutUint32(buf[4:8], b[1])
			binary.LittleEndian.PutUint32(buf[8:12], b[2])
			_, _ = d.Write(buf[:12])
		}
	}

	if m.Masks == nil {
		writeInt(-1)
		return d.Sum64()
	}
	writeInt(len(m.Masks))
	for _, g := range m.Masks {
		writeInt(g.Level)
		writeInt(len(g.Data))
		for _, f := range g.Data {
			binary.LittleEndian.PutUint32(buf[:4], stdmath.Float32bits(f))
			_, _ = d.Write(buf[:4])
		}
	}
	return d.Sum64()
}
