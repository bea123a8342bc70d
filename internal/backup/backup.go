// Package backup keeps expensive derived runtime state alive across
// operations that rebuild the structure owning it, such as an undo step swap.
//
// A Backup moves the owner's runtime slots out on Capture. The caller then
// terminates it exactly once, with RestoreTo or Discard.
package backup

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/logger"
)

// Backup errors.
var (
	ErrNilOwner       = errors.New("backup owner is nil")
	ErrBackupFinished = errors.New("backup already restored or discarded")
	ErrNotCaptured    = errors.New("backup holds nothing to restore")
)

// Resource is a piece of runtime state that must be released explicitly.
type Resource interface {
	Release()
}

// Slots holds the runtime state an owner carries next to its persisted data.
// A nil slot is empty.
type Slots struct {
	Handle Resource // e.g. the subdivision evaluator
	Cache  Resource // e.g. the evaluated grid surface
}

// Empty reports whether both slots are unset.
func (s *Slots) Empty() bool {
	return s.Handle == nil && s.Cache == nil
}

// Release frees and clears both slots.
func (s *Slots) Release() {
	if s.Handle != nil {
		s.Handle.Release()
		s.Handle = nil
	}
	if s.Cache != nil {
		s.Cache.Release()
		s.Cache = nil
	}
}

// Owner is anything carrying runtime slots.
type Owner interface {
	RuntimeSlots() *Slots
}

// State is the lifecycle position of a Backup.
type State int

// Backup states.
const (
	StateEmpty State = iota
	StateCaptured
	StateRestored
	StateDiscarded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "Empty"
	case StateCaptured:
		return "Captured"
	case StateRestored:
		return "Restored"
	case StateDiscarded:
		return "Discarded"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Backup is a snapshot of one owner's runtime slots.
type Backup struct {
	slots Slots
	state State
}

// Capture moves owner's runtime slots into a new Backup and leaves the owner
// empty.
func Capture(owner Owner) (*Backup, error) {
	if owner == nil {
		return nil, ErrNilOwner
	}
	b := &Backup{}
	b.captureFrom(owner.RuntimeSlots())
	return b, nil
}

func (b *Backup) captureFrom(src *Slots) {
	b.slots = *src
	*src = Slots{}
	b.state = StateCaptured
}

// State returns the current lifecycle state.
func (b *Backup) State() State {
	return b.state
}

// RestoreTo moves the captured slots back into owner.
//
// If owner already holds runtime state, that state wins and the captured
// slots are released instead. Two live handles for one logical resource must
// never coexist, so this is not reported as an error.
func (b *Backup) RestoreTo(owner Owner) error {
	if err := b.checkLive(); err != nil {
		return err
	}
	if owner == nil {
		return ErrNilOwner
	}
	dst := owner.RuntimeSlots()
	if dst.Empty() {
		*dst = b.slots
	} else {
		logger.Debug("runtime backup dropped, owner already rebuilt its state",
			zap.Bool("had_handle", b.slots.Handle != nil),
			zap.Bool("had_cache", b.slots.Cache != nil))
		b.slots.Release()
	}
	b.slots = Slots{}
	b.state = StateRestored
	return nil
}

// Discard releases the captured slots without restoring them.
func (b *Backup) Discard() error {
	if err := b.checkLive(); err != nil {
		return err
	}
	b.slots.Release()
	b.state = StateDiscarded
	return nil
}

func (b *Backup) checkLive() error {
	switch b.state {
	case StateCaptured:
		return nil
	case StateEmpty:
		return ErrNotCaptured
	default:
		return fmt.Errorf("%w: state %s", ErrBackupFinished, b.state)
	}
}
