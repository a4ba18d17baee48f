package core

import (
	"context"
	"errors"
	"sync"

	"github.com/signalsfoundry/geointel-engine/internal/logging"
	"github.com/signalsfoundry/geointel-engine/model"
)

// RenderSurface is the external map/render collaborator consuming ground
// tracks. The core never implements rendering; it only drives the
// register/update/unregister contract.
type RenderSurface interface {
	AddLayer(targetID string) error
	UpdateLayer(targetID string, track model.GroundTrack, selected bool) error
	RemoveLayer(targetID string) error
}

// TargetState is the lifecycle state of one render target.
type TargetState int

const (
	TargetUninitialized TargetState = iota
	TargetActive
)

// RenderRegistry tracks render-target lifecycle as an explicit
// Uninitialized → Active → Uninitialized state machine keyed by target
// identity. Register is idempotent, Unregister fully clears state, and
// the register/update/unregister sequence is repeatable without leaking
// prior registrations.
type RenderRegistry struct {
	mu      sync.Mutex
	surface RenderSurface
	log     logging.Logger
	states  map[string]TargetState
}

// NewRenderRegistry wires a registry to the external render surface.
func NewRenderRegistry(surface RenderSurface, log logging.Logger) *RenderRegistry {
	if log == nil {
		log = logging.Noop()
	}
	return &RenderRegistry{
		surface: surface,
		log:     log,
		states:  make(map[string]TargetState),
	}
}

// Register initialises a render target. Registering an already-active
// target is a no-op.
func (r *RenderRegistry) Register(ctx context.Context, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.states[targetID] == TargetActive {
		return nil
	}
	if err := r.surface.AddLayer(targetID); err != nil {
		return r.skipUnavailable(ctx, "register", targetID, err)
	}
	r.states[targetID] = TargetActive
	return nil
}

// UpdateTrack pushes a freshly computed track to an active target. The
// selection identifier is passed through on every call and compared
// against the track's object; it is never stored here. Updates against
// targets that were never registered are rejected.
func (r *RenderRegistry) UpdateTrack(ctx context.Context, targetID string, track model.GroundTrack, selection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.states[targetID] != TargetActive {
		return r.skipUnavailable(ctx, "update", targetID, ErrRenderTargetUnavailable)
	}
	selected := selection != "" && selection == track.ObjectID
	if err := r.surface.UpdateLayer(targetID, track, selected); err != nil {
		return r.skipUnavailable(ctx, "update", targetID, err)
	}
	return nil
}

// Unregister tears a target down, releasing all registered visualization
// state so a later Register starts clean. Unregistering an unknown
// target is a no-op.
func (r *RenderRegistry) Unregister(ctx context.Context, targetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.states[targetID] != TargetActive {
		delete(r.states, targetID)
		return nil
	}
	delete(r.states, targetID)
	if err := r.surface.RemoveLayer(targetID); err != nil {
		return r.skipUnavailable(ctx, "unregister", targetID, err)
	}
	return nil
}

// State reports a target's current lifecycle state.
func (r *RenderRegistry) State(targetID string) TargetState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[targetID]
}

// ActiveCount returns the number of currently active registrations.
func (r *RenderRegistry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, st := range r.states {
		if st == TargetActive {
			n++
		}
	}
	return n
}

// skipUnavailable logs surface rejections and swallows them: the caller
// retries on its next natural refresh cycle, never in a loop here.
// Errors other than target unavailability propagate.
func (r *RenderRegistry) skipUnavailable(ctx context.Context, op, targetID string, err error) error {
	if errors.Is(err, ErrRenderTargetUnavailable) {
		r.log.Warn(ctx, "render surface rejected layer operation",
			logging.String("op", op),
			logging.String("target_id", targetID),
			logging.String("error", err.Error()),
		)
		return nil
	}
	return err
}
