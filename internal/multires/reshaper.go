package multires

import (
	"fmt"

	"github.com/Faultbox/multires/internal/ccg"
)

// UpdateTag names derived data that must be recomputed after a reshape.
type UpdateTag int

// Update tags.
const (
	TagGeometry UpdateTag = 1 << iota // positions changed
	TagNormals
	TagBounds
	TagMask
)

// UpdateTagger receives invalidation requests. The dependency and draw
// layers implement it; this package never recomputes anything itself.
type UpdateTagger interface {
	TagUpdate(mesh *Mesh, tags UpdateTag)
}

// UpdateTaggerFunc adapts a function to UpdateTagger.
type UpdateTaggerFunc func(mesh *Mesh, tags UpdateTag)

// TagUpdate calls f.
func (f UpdateTaggerFunc) TagUpdate(mesh *Mesh, tags UpdateTag) {
	f(mesh, tags)
}

// Reshaper pushes sculpted surfaces back into a mesh and reports what went
// stale.
type Reshaper struct {
	Tagger  UpdateTagger
	Workers int
}

// FromCCG reshapes mesh at level from sc and tags the mesh for update.
func (r *Reshaper) FromCCG(mesh *Mesh, sc *ccg.SubdivCCG, level int) error {
	rc, err := NewReshapeContext(mesh, level)
	if err != nil {
		return fmt.Errorf("reshape: %w", err)
	}
	var opts []SyncOption
	if r.Workers > 0 {
		opts = append(opts, WithWorkers(r.Workers))
	}
	ok, err := rc.AssignFinalCoordsFromCCG(sc, opts...)
	if err != nil {
		return fmt.Errorf("reshape: %w", err)
	}
	if !ok || r.Tagger == nil {
		return nil
	}
	tags := TagGeometry | TagNormals | TagBounds
	if sc.HasMask() && mesh.HasMaskLayer() {
		tags |= TagMask
	}
	r.Tagger.TagUpdate(mesh, tags)
	return nil
}
