package backup

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

// probe counts live resources.
type probe struct {
	live int
}

type resource struct {
	name  string
	probe *probe
	freed bool
}

func (p *probe) alloc(name string) *resource {
	p.live++
	return &resource{name: name, probe: p}
}

func (r *resource) Release() {
	if r.freed {
		panic("double release of " + r.name)
	}
	r.freed = true
	r.probe.live--
}

type owner struct {
	id    uuid.UUID
	slots Slots
}

func (o *owner) RuntimeSlots() *Slots { return &o.slots }
func (o *owner) SessionID() uuid.UUID { return o.id }

func newOwner(p *probe) *owner {
	return &owner{
		id:    uuid.New(),
		slots: Slots{Handle: p.alloc("handle"), Cache: p.alloc("cache")},
	}
}

func TestCaptureClearsOwner(t *testing.T) {
	p := &probe{}
	o := newOwner(p)

	b, err := Capture(o)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if !o.slots.Empty() {
		t.Error("expected owner slots cleared after capture")
	}
	if b.State() != StateCaptured {
		t.Errorf("State() = %v, want Captured", b.State())
	}
	if p.live != 2 {
		t.Errorf("live resources = %d, want 2", p.live)
	}
	_ = b.Discard()
}

func TestCaptureRestoreOntoEmptyOwner(t *testing.T) {
	p := &probe{}
	o := newOwner(p)
	before := o.slots

	b, _ := Capture(o)
	if err := b.RestoreTo(o); err != nil {
		t.Fatalf("RestoreTo failed: %v", err)
	}
	if o.slots != before {
		t.Errorf("owner slots = %+v, want %+v", o.slots, before)
	}
	if p.live != 2 {
		t.Errorf("live resources = %d, want 2", p.live)
	}
	if b.State() != StateRestored {
		t.Errorf("State() = %v, want Restored", b.State())
	}
}

func TestRestoreOntoRebuiltOwnerKeepsOwnerState(t *testing.T) {
	p := &probe{}
	o := newOwner(p)

	b, _ := Capture(o)

	// The rebuild path created fresh state meanwhile.
	fresh := Slots{Handle: p.alloc("fresh handle"), Cache: p.alloc("fresh cache")}
	o.slots = fresh

	if err := b.RestoreTo(o); err != nil {
		t.Fatalf("RestoreTo failed: %v", err)
	}
	if o.slots != fresh {
		t.Error("expected rebuilt owner state to win")
	}
	if p.live != 2 {
		t.Errorf("live resources = %d, want 2 (backup freed)", p.live)
	}
}

func TestRestoreOntoPartiallyRebuiltOwner(t *testing.T) {
	p := &probe{}
	o := newOwner(p)
	b, _ := Capture(o)

	o.slots.Cache = p.alloc("fresh cache")
	if err := b.RestoreTo(o); err != nil {
		t.Fatalf("RestoreTo failed: %v", err)
	}
	if o.slots.Handle != nil {
		t.Error("expected captured handle not to be merged into a non-empty owner")
	}
	if p.live != 1 {
		t.Errorf("live resources = %d, want 1", p.live)
	}
}

func TestCaptureDiscard(t *testing.T) {
	p := &probe{}
	o := newOwner(p)

	b, _ := Capture(o)
	rebuilt := p.alloc("rebuilt cache")
	o.slots.Cache = rebuilt

	if err := b.Discard(); err != nil {
		t.Fatalf("Discard failed: %v", err)
	}
	if p.live != 1 {
		t.Errorf("live resources = %d, want 1 (only the rebuilt one)", p.live)
	}
	if o.slots.Cache != rebuilt || o.slots.Handle != nil {
		t.Errorf("owner slots = %+v, want only the rebuilt cache", o.slots)
	}
	if b.State() != StateDiscarded {
		t.Errorf("State() = %v, want Discarded", b.State())
	}
}

func TestTerminateTwice(t *testing.T) {
	p := &probe{}

	tests := []struct {
		name   string
		first  func(b *Backup, o *owner) error
		second func(b *Backup, o *owner) error
	}{
		{"restore restore", func(b *Backup, o *owner) error { return b.RestoreTo(o) }, func(b *Backup, o *owner) error { return b.RestoreTo(o) }},
		{"restore discard", func(b *Backup, o *owner) error { return b.RestoreTo(o) }, func(b *Backup, o *owner) error { return b.Discard() }},
		{"discard restore", func(b *Backup, o *owner) error { return b.Discard() }, func(b *Backup, o *owner) error { return b.RestoreTo(o) }},
		{"discard discard", func(b *Backup, o *owner) error { return b.Discard() }, func(b *Backup, o *owner) error { return b.Discard() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newOwner(p)
			b, _ := Capture(o)
			if err := tt.first(b, o); err != nil {
				t.Fatalf("first call failed: %v", err)
			}
			if err := tt.second(b, o); !errors.Is(err, ErrBackupFinished) {
				t.Errorf("second call err = %v, want ErrBackupFinished", err)
			}
			o.slots.Release()
		})
	}
	if p.live != 0 {
		t.Errorf("live resources = %d, want 0", p.live)
	}
}

func TestZeroBackup(t *testing.T) {
	var b Backup
	if err := b.Discard(); !errors.Is(err, ErrNotCaptured) {
		t.Errorf("Discard on zero Backup = %v, want ErrNotCaptured", err)
	}
	if _, err := Capture(nil); !errors.Is(err, ErrNilOwner) {
		t.Errorf("Capture(nil) = %v, want ErrNilOwner", err)
	}
}

func TestStateString(t *testing.T) {
	if StateDiscarded.String() != "Discarded" {
		t.Errorf("String() = %q, want Discarded", StateDiscarded.String())
	}
	if State(42).String() != "Unknown(42)" {
		t.Errorf("String() = %q, want Unknown(42)", State(42).String())
	}
}
