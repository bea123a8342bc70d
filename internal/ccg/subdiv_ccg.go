package ccg

import (
	"errors"
	"fmt"

	"github.com/Faultbox/multires/pkg/math"
)

// SubdivCCG errors.
var (
	ErrInvalidLevel   = errors.New("invalid subdivision level")
	ErrArrayLength    = errors.New("sample array length does not match grid key")
	ErrLevelMismatch  = errors.New("level differs from evaluated level")
	ErrReleased       = errors.New("subdiv ccg released")
	ErrGridOutOfRange = errors.New("grid index out of range")
)

// SubdivCCG is the evaluated grid surface that sculpt tools deform.
// Positions and Masks are indexed by GridXYToVert with the key at Level.
// Masks is empty when the surface carries no paint mask.
type SubdivCCG struct {
	Level     int
	NumGrids  int
	Positions []math.Vec3
	Masks     []float32

	released bool
}

// New allocates a surface of numGrids grids at level. Masks are allocated only
// when withMask is set.
func New(level, numGrids int, withMask bool) (*SubdivCCG, error) {
	if level < 0 || level > MaxLevel {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	if numGrids < 0 {
		return nil, fmt.Errorf("%w: %d grids", ErrGridOutOfRange, numGrids)
	}
	n := numGrids * GridArea(level)
	c := &SubdivCCG{
		Level:     level,
		NumGrids:  numGrids,
		Positions: make([]math.Vec3, n),
	}
	if withMask {
		c.Masks = make([]float32, n)
	}
	return c, nil
}

// HasMask reports whether mask samples are available.
func (c *SubdivCCG) HasMask() bool {
	return len(c.Masks) != 0
}

// Key returns the addressing key for level.
func (c *SubdivCCG) Key(level int) Key {
	return NewKey(level, c.HasMask())
}

// NumVerts returns the number of samples per array at the evaluated level.
func (c *SubdivCCG) NumVerts() int {
	return c.NumGrids * GridArea(c.Level)
}

// Validate checks that the sample arrays can be addressed with the key for
// level.
func (c *SubdivCCG) Validate(level int) error {
	if c.released {
		return ErrReleased
	}
	if level != c.Level {
		return fmt.Errorf("%w: asked %d, evaluated %d", ErrLevelMismatch, level, c.Level)
	}
	want := c.NumGrids * GridArea(level)
	if len(c.Positions) != want {
		return fmt.Errorf("%w: %d positions, want %d", ErrArrayLength, len(c.Positions), want)
	}
	if len(c.Masks) != 0 && len(c.Masks) != want {
		return fmt.Errorf("%w: %d masks, want %d", ErrArrayLength, len(c.Masks), want)
	}
	return nil
}

// Position returns the sample at (x, y) on grid gridIndex.
func (c *SubdivCCG) Position(gridIndex, x, y int) math.Vec3 {
	return c.Positions[GridXYToVert(c.Key(c.Level), gridIndex, x, y)]
}

// SetPosition writes the sample at (x, y) on grid gridIndex.
func (c *SubdivCCG) SetPosition(gridIndex, x, y int, p math.Vec3) {
	c.Positions[GridXYToVert(c.Key(c.Level), gridIndex, x, y)] = p
}

// Fill sets every position (and mask, when present) from fn.
func (c *SubdivCCG) Fill(fn func(gridIndex, x, y int) (math.Vec3, float32)) {
	key := c.Key(c.Level)
	for g := 0; g < c.NumGrids; g++ {
		for y := 0; y < key.GridSize; y++ {
			for x := 0; x < key.GridSize; x++ {
				vert := GridXYToVert(key, g, x, y)
				p, m := fn(g, x, y)
				c.Positions[vert] = p
				if c.HasMask() {
					c.Masks[vert] = m
				}
			}
		}
	}
}

// Release drops the sample arrays. The surface must be re-evaluated before
// further use.
func (c *SubdivCCG) Release() {
	c.Positions = nil
	c.Masks = nil
	c.released = true
}

// Released reports whether Release has been called.
func (c *SubdivCCG) Released() bool {
	return c.released
}
