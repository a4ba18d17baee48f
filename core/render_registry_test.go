package core

import (
	"context"
	"errors"
	"testing"

	"github.com/signalsfoundry/geointel-engine/model"
)

// fakeSurface records layer operations and can be told to reject them.
type fakeSurface struct {
	adds, updates, removes int
	failWith               error
	lastSelected           bool
}

func (f *fakeSurface) AddLayer(targetID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.adds++
	return nil
}

func (f *fakeSurface) UpdateLayer(targetID string, track model.GroundTrack, selected bool) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.updates++
	f.lastSelected = selected
	return nil
}

func (f *fakeSurface) RemoveLayer(targetID string) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.removes++
	return nil
}

func TestRenderRegistry_RegisterIsIdempotent(t *testing.T) {
	surface := &fakeSurface{}
	reg := NewRenderRegistry(surface, nil)
	ctx := context.Background()

	if err := reg.Register(ctx, "map-1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := reg.Register(ctx, "map-1"); err != nil {
		t.Fatalf("second Register error: %v", err)
	}
	if surface.adds != 1 {
		t.Errorf("AddLayer calls = %d, want 1 (second register is a no-op)", surface.adds)
	}
	if reg.ActiveCount() != 1 {
		t.Errorf("active count = %d, want 1", reg.ActiveCount())
	}
}

func TestRenderRegistry_LifecycleRepeats(t *testing.T) {
	surface := &fakeSurface{}
	reg := NewRenderRegistry(surface, nil)
	ctx := context.Background()

	// Register, unregister, re-register twice in a row: no errors and
	// exactly one active registration at the end.
	for i := 0; i < 2; i++ {
		if err := reg.Register(ctx, "map-1"); err != nil {
			t.Fatalf("Register %d error: %v", i, err)
		}
		if err := reg.Unregister(ctx, "map-1"); err != nil {
			t.Fatalf("Unregister %d error: %v", i, err)
		}
	}
	if err := reg.Register(ctx, "map-1"); err != nil {
		t.Fatalf("final Register error: %v", err)
	}

	if reg.ActiveCount() != 1 {
		t.Errorf("active count = %d, want exactly 1", reg.ActiveCount())
	}
	if surface.adds != 3 || surface.removes != 2 {
		t.Errorf("adds/removes = %d/%d, want 3/2", surface.adds, surface.removes)
	}
}

func TestRenderRegistry_UnregisterUnknownIsNoop(t *testing.T) {
	surface := &fakeSurface{}
	reg := NewRenderRegistry(surface, nil)

	if err := reg.Unregister(context.Background(), "never-registered"); err != nil {
		t.Fatalf("Unregister error: %v", err)
	}
	if surface.removes != 0 {
		t.Errorf("RemoveLayer calls = %d, want 0", surface.removes)
	}
}

func TestRenderRegistry_UpdateSelectionPassThrough(t *testing.T) {
	surface := &fakeSurface{}
	reg := NewRenderRegistry(surface, nil)
	ctx := context.Background()

	if err := reg.Register(ctx, "map-1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	track := model.GroundTrack{ObjectID: "sat-7", Points: []model.GroundTrackPoint{{}}}

	if err := reg.UpdateTrack(ctx, "map-1", track, "sat-7"); err != nil {
		t.Fatalf("UpdateTrack error: %v", err)
	}
	if !surface.lastSelected {
		t.Errorf("expected track to render selected when selection matches")
	}

	if err := reg.UpdateTrack(ctx, "map-1", track, "sat-9"); err != nil {
		t.Fatalf("UpdateTrack error: %v", err)
	}
	if surface.lastSelected {
		t.Errorf("expected track to render unselected when selection differs")
	}
}

func TestRenderRegistry_UnavailableTargetSkipped(t *testing.T) {
	surface := &fakeSurface{}
	reg := NewRenderRegistry(surface, nil)
	ctx := context.Background()

	// Update against a target that was never registered: logged and
	// skipped, retried on the next natural refresh, never an error.
	if err := reg.UpdateTrack(ctx, "missing", model.GroundTrack{}, ""); err != nil {
		t.Fatalf("UpdateTrack error: %v", err)
	}
	if surface.updates != 0 {
		t.Errorf("UpdateLayer calls = %d, want 0", surface.updates)
	}

	// A surface reporting unavailability is likewise non-fatal.
	if err := reg.Register(ctx, "map-1"); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	surface.failWith = ErrRenderTargetUnavailable
	if err := reg.UpdateTrack(ctx, "map-1", model.GroundTrack{}, ""); err != nil {
		t.Fatalf("UpdateTrack with unavailable surface: %v", err)
	}

	// Other surface failures propagate.
	surface.failWith = errors.New("wire torn")
	if err := reg.UpdateTrack(ctx, "map-1", model.GroundTrack{}, ""); err == nil {
		t.Fatalf("expected non-unavailability error to propagate")
	}
}
