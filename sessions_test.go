package main

import (
	"errors"
	"sync"
	"testing"

	"cropedit/internal/crop"
)

func TestSessionStore_CreateGetDelete(t *testing.T) {
	store := NewSessionStore(crop.WithMinSize(40))
	s := store.Create("a.png", halvesImage(100, 100), crop.Bounds{Width: 100, Height: 100}, crop.ShapeSquare)
	if s.ID == "" {
		t.Fatalf("session without id")
	}
	got, err := store.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("get: %v", err)
	}
	if s.editor.MinSize() != 40 {
		t.Fatalf("store options not applied: min size %v", s.editor.MinSize())
	}
	if err := store.Delete(s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.Delete(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestSession_ApplyCountsEffectiveEvents(t *testing.T) {
	store := NewSessionStore()
	s := store.Create("a.png", halvesImage(400, 400), crop.Bounds{Width: 400, Height: 400}, crop.ShapeRectangle)
	state, applied := s.Apply([]crop.PointerEvent{
		crop.Move(10, 10),                // idle, ignored
		crop.Down(crop.HandleN, 150, 50), // starts the gesture
		crop.Move(150, 240),              // would leave height 10, rejected
		crop.Move(150, 230),              // -10 from the re-anchored position
		crop.Up(),
	})
	if applied != 3 {
		t.Fatalf("expected 3 effective events, got %d", applied)
	}
	want := crop.Region{X: 50, Y: 40, Width: 200, Height: 210}
	if state.Region != want {
		t.Fatalf("expected %v, got %v", want, state.Region)
	}
}

func TestSession_ConcurrentEventsStayInBounds(t *testing.T) {
	store := NewSessionStore()
	bounds := crop.Bounds{Width: 400, Height: 400}
	s := store.Create("a.png", halvesImage(400, 400), bounds, crop.ShapeRectangle)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Apply([]crop.PointerEvent{
					crop.Down(crop.HandleSE, 0, 0),
					crop.Move(float64(i*10), float64(j*3)),
					crop.Up(),
				})
			}
		}()
	}
	wg.Wait()
	if st := s.State(); !st.Region.Within(bounds) || st.State != crop.StateIdle {
		t.Fatalf("unexpected final state %+v", st)
	}
}
