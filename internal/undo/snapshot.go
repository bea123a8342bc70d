package undo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Faultbox/multires/internal/ccg"
	"github.com/Faultbox/multires/internal/multires"
	pmath "github.com/Faultbox/multires/pkg/math"
)

// ErrCorruptSnapshot is returned when a decoded step does not parse.
var ErrCorruptSnapshot = errors.New("corrupt undo snapshot")

const snapshotVersion = 1

// layers is the persisted multires state an undo step captures.
type layers struct {
	totalLevels int
	disps       multires.DispLayer
	masks       multires.MaskLayer
}

// encodeLayers serializes mesh layers. Integers are uint32 little-endian,
// floats their IEEE-754 bits. A grid with no storage has length 0 and is
// restored unallocated.
func encodeLayers(m *multires.Mesh) []byte {
	size := 16
	for _, g := range m.Disps {
		size += 8 + len(g.Disps)*ccg.PositionSize
	}
	for _, g := range m.Masks {
		size += 8 + len(g.Data)*ccg.MaskSize
	}
	b := make([]byte, 0, size)
	b = binary.LittleEndian.AppendUint32(b, snapshotVersion)
	b = binary.LittleEndian.AppendUint32(b, uint32(m.TotalLevels))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(m.Disps)))
	for _, g := range m.Disps {
		b = binary.LittleEndian.AppendUint32(b, uint32(g.Level))
		b = binary.LittleEndian.AppendUint32(b, uint32(len(g.Disps)))
		for _, p := range g.Disps {
			for _, bits := range p.Bits() {
				b = binary.LittleEndian.AppendUint32(b, bits)
			}
		}
	}
	if m.Masks == nil {
		return binary.LittleEndian.AppendUint32(b, math.MaxUint32)
	}
	b = binary.LittleEndian.AppendUint32(b, uint32(len(m.Masks)))
	for _, g := range m.Masks {
		b = binary.LittleEndian.AppendUint32(b, uint32(g.Level))
		b = binary.LittleEndian.AppendUint32(b, uint32(len(g.Data)))
		for _, f := range g.Data {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(f))
		}
	}
	return b
}

type reader struct {
	b   []byte
	err error
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	if len(r.b) < 4 {
		r.err = fmt.Errorf("%w: truncated", ErrCorruptSnapshot)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.b)
	r.b = r.b[4:]
	return v
}

// count reads a length and checks there are at least n*elem bytes left for it.
func (r *reader) count(elem int) int {
	n := r.u32()
	if r.err == nil && int(n) > len(r.b)/elem {
		r.err = fmt.Errorf("%w: length %d exceeds data", ErrCorruptSnapshot, n)
		return 0
	}
	return int(n)
}

func decodeLayers(b []byte) (layers, error) {
	r := &reader{b: b}
	var out layers
	if v := r.u32(); r.err == nil && v != snapshotVersion {
		return out, fmt.Errorf("%w: version %d", ErrCorruptSnapshot, v)
	}
	out.totalLevels = int(r.u32())

	out.disps = make(multires.DispLayer, r.count(8))
	for i := range out.disps {
		out.disps[i].Level = int(r.u32())
		n := r.count(ccg.PositionSize)
		if n == 0 || r.err != nil {
			continue
		}
		d := make([]pmath.Vec3, n)
		for j := range d {
			d[j] = pmath.Vec3FromBits([3]uint32{r.u32(), r.u32(), r.u32()})
		}
		out.disps[i].Disps = d
	}

	numMasks := r.u32()
	if r.err == nil && numMasks != math.MaxUint32 {
		if int(numMasks) > len(r.b)/8 {
			return out, fmt.Errorf("%w: %d mask grids", ErrCorruptSnapshot, numMasks)
		}
		out.masks = make(multires.MaskLayer, numMasks)
		for i := range out.masks {
			out.masks[i].Level = int(r.u32())
			n := r.count(ccg.MaskSize)
			if n == 0 || r.err != nil {
				continue
			}
			d := make([]float32, n)
			for j := range d {
				d[j] = math.Float32frombits(r.u32())
			}
			out.masks[i].Data = d
		}
	}
	if r.err != nil {
		return out, r.err
	}
	if len(r.b) != 0 {
		return out, fmt.Errorf("%w: %d trailing bytes", ErrCorruptSnapshot, len(r.b))
	}
	return out, nil
}
