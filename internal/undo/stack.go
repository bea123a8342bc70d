// Package undo records the persisted multires layers of a mesh as compressed
// steps and swaps them back in, keeping the mesh's evaluated runtime alive
// across the swap when it is still usable.
package undo

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/logger"
	"github.com/Faultbox/multires/internal/multires"
)

// Stack errors.
var (
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrNothingToRedo    = errors.New("nothing to redo")
	ErrInvalidMaxSteps  = errors.New("max steps must be at least 1")
	ErrUnknownLevel     = errors.New("unknown compression level")
	ErrStackClosed      = errors.New("undo stack closed")
	ErrDigestMismatch   = errors.New("undo step digest mismatch")
	ErrForeignMeshShape = errors.New("undo step recorded for a different corner count")
)

// Step is one recorded state.
type Step struct {
	Name     string
	Digest   uint64 // xxhash of the uncompressed payload
	RawSize  int
	numGrids int
	payload  []byte
}

// CompressedSize returns the stored size in bytes.
func (s *Step) CompressedSize() int {
	return len(s.payload)
}

// Stack is a bounded linear undo history. The step at the cursor is the
// state the mesh is currently in.
type Stack struct {
	maxSteps int
	steps    []*Step
	cursor   int

	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewStack returns a stack keeping at most maxSteps steps, compressing with
// the named zstd level ("fastest", "default", "better", "best").
func NewStack(maxSteps int, level string) (*Stack, error) {
	if maxSteps < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxSteps, maxSteps)
	}
	ok, lvl := zstd.EncoderLevelFromString(level)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(lvl), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating zstd decoder: %w", err)
	}
	return &Stack{maxSteps: maxSteps, cursor: -1, enc: enc, dec: dec}, nil
}

// Close releases the codec resources.
func (s *Stack) Close() error {
	if s.enc == nil {
		return nil
	}
	err := s.enc.Close()
	s.dec.Close()
	s.enc, s.dec = nil, nil
	return err
}

// Len returns the number of recorded steps.
func (s *Stack) Len() int {
	return len(s.steps)
}

// Current returns the step at the cursor, or nil when the stack is empty.
func (s *Stack) Current() *Step {
	if s.cursor < 0 {
		return nil
	}
	return s.steps[s.cursor]
}

// CanUndo reports whether Undo has a step to go back to.
func (s *Stack) CanUndo() bool {
	return s.cursor > 0
}

// CanRedo reports whether Redo has a step to go forward to.
func (s *Stack) CanRedo() bool {
	return s.cursor+1 < len(s.steps)
}

// Push records the mesh layers as a new step, dropping any redo steps.
// It returns false when the layers are identical to the current step, in
// which case nothing is recorded.
func (s *Stack) Push(name string, m *multires.Mesh) (bool, error) {
	if s.enc == nil {
		return false, ErrStackClosed
	}
	raw := encodeLayers(m)
	digest := xxhash.Sum64(raw)
	if cur := s.Current(); cur != nil && cur.Digest == digest && cur.RawSize == len(raw) {
		logger.Debug("undo push skipped, layers unchanged", zap.String("step", name))
		return false, nil
	}

	step := &Step{
		Name:     name,
		Digest:   digest,
		RawSize:  len(raw),
		numGrids: m.NumCorners(),
		payload:  s.enc.EncodeAll(raw, nil),
	}

	s.steps = append(s.steps[:s.cursor+1], step)
	if over := len(s.steps) - s.maxSteps; over > 0 {
		clear(s.steps[:over])
		s.steps = s.steps[over:]
	}
	s.cursor = len(s.steps) - 1

	logger.Debug("undo step pushed",
		zap.String("step", name),
		zap.Int("raw", step.RawSize),
		zap.Int("compressed", step.CompressedSize()),
		zap.Int("steps", len(s.steps)))
	return true, nil
}

// Undo moves the cursor back one step and loads it into m.
func (s *Stack) Undo(m *multires.Mesh) (*Step, error) {
	if !s.CanUndo() {
		return nil, ErrNothingToUndo
	}
	step := s.steps[s.cursor-1]
	if err := s.swap(m, step); err != nil {
		return nil, err
	}
	s.cursor--
	return step, nil
}

// Redo moves the cursor forward one step and loads it into m.
func (s *Stack) Redo(m *multires.Mesh) (*Step, error) {
	if !s.CanRedo() {
		return nil, ErrNothingToRedo
	}
	step := s.steps[s.cursor+1]
	if err := s.swap(m, step); err != nil {
		return nil, err
	}
	s.cursor++
	return step, nil
}

func (s *Stack) decode(step *Step) (layers, error) {
	if s.dec == nil {
		return layers{}, ErrStackClosed
	}
	raw, err := s.dec.DecodeAll(step.payload, make([]byte, 0, step.RawSize))
	if err != nil {
		return layers{}, fmt.Errorf("decompressing step %q: %w", step.Name, err)
	}
	if xxhash.Sum64(raw) != step.Digest {
		return layers{}, fmt.Errorf("%w: step %q", ErrDigestMismatch, step.Name)
	}
	return decodeLayers(raw)
}
