package main

import (
	"errors"
	"image"
	"sync"

	"github.com/google/uuid"

	"cropedit/internal/crop"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is one image opened in the editor. The editor itself is
// single-threaded; mu makes requests for the same session take turns so
// pointer events are applied in arrival order.
type Session struct {
	ID       string
	Filename string

	mu     sync.Mutex
	editor *crop.Editor
	source image.Image
}

type SessionState struct {
	ID        string         `json:"id"`
	Filename  string         `json:"filename"`
	Region    crop.Region    `json:"region"`
	Bounds    crop.Bounds    `json:"bounds"`
	Shape     crop.Shape     `json:"shape"`
	State     crop.State     `json:"state"`
	Handle    crop.Handle    `json:"handle"`
	Effective crop.Effective `json:"effective"`
	Label     string         `json:"label"`
	Native    ImageInfo      `json:"native"`
}

func (s *Session) state() SessionState {
	eff := s.editor.Effective()
	st := SessionState{
		ID:        s.ID,
		Filename:  s.Filename,
		Region:    s.editor.Region(),
		Bounds:    s.editor.Bounds(),
		Shape:     s.editor.Shape(),
		State:     s.editor.State(),
		Effective: eff,
		Label:     eff.Label(),
	}
	if g, ok := s.editor.Gesture(); ok {
		st.Handle = g.Handle
	}
	if s.source != nil {
		b := s.source.Bounds()
		st.Native = ImageInfo{Width: b.Dx(), Height: b.Dy()}
	}
	return st
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state()
}

// Apply dispatches events in order and returns the resulting state along
// with how many of them changed the editor.
func (s *Session) Apply(events []crop.PointerEvent) (SessionState, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := 0
	for _, ev := range events {
		if s.editor.Dispatch(ev) {
			applied++
		}
	}
	return s.state(), applied
}

func (s *Session) SetShape(shape crop.Shape) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.SetShape(shape)
	return s.state()
}

func (s *Session) SetLayout(b crop.Bounds) SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.SetBounds(b)
	return s.state()
}

// Export crops the session image with the current region and shape.
func (s *Session) Export() (image.Image, crop.Shape, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	shape := s.editor.Shape()
	out, err := crop.Export(s.source, s.editor.Region(), shape, s.editor.Bounds())
	if err != nil {
		return nil, shape, err
	}
	return out, shape, nil
}

func (s *Session) Preview() (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := crop.Preview(s.source, s.editor.Region(), s.editor.Shape(), s.editor.Bounds())
	if err != nil {
		return nil, err
	}
	return out, nil
}

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	options  []crop.Option
}

// NewSessionStore returns an empty store; opts are applied to every editor
// it creates.
func NewSessionStore(opts ...crop.Option) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		options:  opts,
	}
}

func (s *SessionStore) Create(filename string, src image.Image, container crop.Bounds, shape crop.Shape) *Session {
	opts := append([]crop.Option{crop.WithShape(shape)}, s.options...)
	sess := &Session{
		ID:       uuid.NewString(),
		Filename: filename,
		editor:   crop.NewEditor(container, opts...),
		source:   src,
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
