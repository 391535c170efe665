// Package registry encapsulates the process-wide mutable state §9 calls
// out explicitly: the active-WeightVector cache and the loaded neural net
// parameters. Both are replaced by atomic pointer swap rather than
// in-place mutation, so concurrent readers never observe a torn update.
// There are no module-load side effects; callers must call Init.
package registry

import (
	"sync/atomic"

	"fundamentalengine/pkg/models"
)

// weightKey identifies one owner's active-vector slot in the snapshot map.
type weightKey = string

// snapshot is an immutable copy-on-write map of scope -> active vector.
// Readers take the current *snapshot and never see a torn update because
// writers always build a brand new map and swap the pointer.
type snapshot struct {
	active map[weightKey]*models.WeightVector
}

// Registry is the process-wide registry instance. Use Default for the
// normal singleton, or New for isolated test instances.
type Registry struct {
	weights atomic.Pointer[snapshot]
	net     atomic.Pointer[NetParams]
}

// NetParams is an opaque pointer target for the loaded EnsembleNet
// parameters; the ensemble/net package defines the concrete type, and the
// registry holds it as a plain interface{} so that registry does not
// import net. Callers type-assert Payload themselves.
type NetParams struct {
	Payload interface{}
}

func New() *Registry {
	r := &Registry{}
	r.weights.Store(&snapshot{active: make(map[weightKey]*models.WeightVector)})
	return r
}

// Init resets the registry to an empty, ready state. Explicit init avoids
// implicit module-load side effects.
func (r *Registry) Init() {
	r.weights.Store(&snapshot{active: make(map[weightKey]*models.WeightVector)})
	r.net.Store(nil)
}

// Shutdown releases registry state. Present for symmetry with Init and for
// callers that want a clean teardown between test cases.
func (r *Registry) Shutdown() {
	r.weights.Store(&snapshot{active: make(map[weightKey]*models.WeightVector)})
	r.net.Store(nil)
}

// ActiveWeight returns the currently active vector for scope, or nil.
func (r *Registry) ActiveWeight(scope models.Scope) *models.WeightVector {
	snap := r.weights.Load()
	return snap.active[scope.String()]
}

// SetActiveWeight installs v as the active vector for its owner scope,
// replacing the whole map (copy-on-write) so concurrent readers holding
// the prior snapshot are unaffected.
func (r *Registry) SetActiveWeight(v *models.WeightVector) {
	old := r.weights.Load()
	next := &snapshot{active: make(map[weightKey]*models.WeightVector, len(old.active)+1)}
	for k, val := range old.active {
		next.active[k] = val
	}
	next.active[v.OwnerScope.String()] = v
	// Single-writer-at-a-time per scope is enforced by lock.Registry at
	// call sites (WeightTrainer/IndustryTrainer), so a plain store here
	// is race-free without a compare-and-swap loop.
	r.weights.Store(next)
}

// Net returns the currently loaded EnsembleNet parameters payload, or nil
// if no trained network has been loaded (callers fall back to the default
// weight table per §4.E).
func (r *Registry) Net() interface{} {
	p := r.net.Load()
	if p == nil {
		return nil
	}
	return p.Payload
}

// SetNet atomically swaps in a freshly loaded, immutable network snapshot.
func (r *Registry) SetNet(payload interface{}) {
	r.net.Store(&NetParams{Payload: payload})
}

// Default is the process-wide singleton most callers use.
var Default = New()
