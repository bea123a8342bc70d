package backup

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/multires/internal/logger"
)

// ErrDuplicateOwner is returned when one owner is captured twice in a registry.
var ErrDuplicateOwner = errors.New("owner already captured")

// IdentifiedOwner is an Owner with a stable session identifier. The identifier
// survives the rebuild that replaces the owner's persisted data.
type IdentifiedOwner interface {
	Owner
	SessionID() uuid.UUID
}

// Registry holds the backups of many owners for the duration of one rebuild.
type Registry struct {
	backups map[uuid.UUID]*Backup
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{backups: make(map[uuid.UUID]*Backup)}
}

// Len returns the number of backups still pending.
func (r *Registry) Len() int {
	return len(r.backups)
}

// CaptureAll captures every owner. On error, backups taken so far are
// restored to their owners before returning.
func (r *Registry) CaptureAll(owners ...IdentifiedOwner) error {
	var taken []IdentifiedOwner
	for _, o := range owners {
		if o == nil {
			r.restoreTaken(taken)
			return ErrNilOwner
		}
		id := o.SessionID()
		if _, ok := r.backups[id]; ok {
			r.restoreTaken(taken)
			return fmt.Errorf("%w: %s", ErrDuplicateOwner, id)
		}
		b, err := Capture(o)
		if err != nil {
			r.restoreTaken(taken)
			return err
		}
		r.backups[id] = b
		taken = append(taken, o)
	}
	logger.Debug("runtime backups captured", zap.Int("owners", len(owners)))
	return nil
}

func (r *Registry) restoreTaken(taken []IdentifiedOwner) {
	for _, o := range taken {
		id := o.SessionID()
		_ = r.backups[id].RestoreTo(o)
		delete(r.backups, id)
	}
}

// RestoreAll restores every owner that has a backup. Backups whose owner did
// not come back are discarded. The registry is empty afterwards.
func (r *Registry) RestoreAll(owners ...IdentifiedOwner) error {
	var errs []error
	for _, o := range owners {
		if o == nil {
			continue
		}
		id := o.SessionID()
		b, ok := r.backups[id]
		if !ok {
			continue
		}
		if err := b.RestoreTo(o); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", id, err))
		}
		delete(r.backups, id)
	}
	if n := len(r.backups); n > 0 {
		logger.Debug("discarding backups of vanished owners", zap.Int("count", n))
	}
	errs = append(errs, r.DiscardAll())
	return errors.Join(errs...)
}

// DiscardAll releases every pending backup.
func (r *Registry) DiscardAll() error {
	var errs []error
	for id, b := range r.backups {
		if err := b.Discard(); err != nil {
			errs = append(errs, fmt.Errorf("discard %s: %w", id, err))
		}
		delete(r.backups, id)
	}
	return errors.Join(errs...)
}
