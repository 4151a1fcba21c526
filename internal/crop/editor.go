package crop

import "fmt"

// State is the coarse phase of the pointer controller.
type State int

const (
	StateIdle State = iota
	StateDragging
)

func (s State) String() string {
	if s == StateDragging {
		return "dragging"
	}
	return "idle"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "idle":
		*s = StateIdle
	case "dragging":
		*s = StateDragging
	default:
		return fmt.Errorf("unknown editor state %q", string(text))
	}
	return nil
}

// LeavePolicy decides what happens to an in-flight gesture when the pointer
// leaves the container.
type LeavePolicy int

const (
	// LeaveCommit keeps whatever the gesture has applied so far.
	LeaveCommit LeavePolicy = iota
	// LeaveRollback restores the region as it was at pointer-down.
	LeaveRollback
)

func (p LeavePolicy) String() string {
	if p == LeaveRollback {
		return "rollback"
	}
	return "commit"
}

func ParseLeavePolicy(s string) (LeavePolicy, error) {
	switch s {
	case "commit", "":
		return LeaveCommit, nil
	case "rollback":
		return LeaveRollback, nil
	}
	return LeaveCommit, fmt.Errorf("unknown leave policy %q", s)
}

// Gesture is the state of a held pointer button.
type Gesture struct {
	Handle Handle `json:"handle"`
	// Anchor is the last pointer position seen; every move is applied as a
	// delta from it and then becomes the new anchor.
	Anchor Point `json:"anchor"`
	// origin is the region at pointer-down, used by LeaveRollback.
	origin Region
}

// Editor owns a crop region and turns pointer events into geometry updates.
// It is not safe for concurrent use.
type Editor struct {
	region  Region
	bounds  Bounds
	shape   Shape
	minSize float64
	leave   LeavePolicy
	drag    *Gesture
}

type Option func(*Editor)

func WithMinSize(v float64) Option {
	return func(e *Editor) {
		if v > 0 {
			e.minSize = v
		}
	}
}

func WithRegion(r Region) Option {
	return func(e *Editor) { e.region = r }
}

func WithShape(s Shape) Option {
	return func(e *Editor) { e.shape = s }
}

func WithLeavePolicy(p LeavePolicy) Option {
	return func(e *Editor) { e.leave = p }
}

// NewEditor creates an idle editor on a container of the given size. The
// initial region defaults to DefaultRegion and is fitted into bounds.
func NewEditor(bounds Bounds, opts ...Option) *Editor {
	e := &Editor{
		region:  DefaultRegion,
		bounds:  bounds,
		minSize: DefaultMinSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.region = Fit(e.region, e.bounds, e.minSize)
	return e
}

func (e *Editor) Region() Region { return e.region }
func (e *Editor) Bounds() Bounds { return e.bounds }
func (e *Editor) Shape() Shape { return e.shape }
func (e *Editor) MinSize() float64 { return e.minSize }
func (e *Editor) LeavePolicy() LeavePolicy { return e.leave }

// Effective returns the region as the current shape presents it.
func (e *Editor) Effective() Effective {
	return ApplyShape(e.shape, e.region)
}

func (e *Editor) State() State {
	if e.drag != nil {
		return StateDragging
	}
	return StateIdle
}

// Gesture returns the active gesture, if any.
func (e *Editor) Gesture() (Gesture, bool) {
	if e.drag == nil {
		return Gesture{}, false
	}
	return *e.drag, true
}

// SetShape switches the shape policy. The stored region is untouched. A
// gesture on a handle the new shape does not offer ends as a release.
func (e *Editor) SetShape(s Shape) {
	e.shape = s
	if e.drag != nil && !s.Offers(e.drag.Handle) {
		e.drag = nil
	}
}

// SetBounds records a new container size after a layout change and fits the
// region into it. Empty bounds are stored as-is; exporting then fails. The
// rollback target of an active gesture is fitted too.
func (e *Editor) SetBounds(b Bounds) {
	e.bounds = b
	e.region = Fit(e.region, b, e.minSize)
	if e.drag != nil {
		e.drag.origin = Fit(e.drag.origin, b, e.minSize)
	}
}

// PointerDown starts a gesture. It returns false when a gesture is already
// active or the current shape does not offer h.
func (e *Editor) PointerDown(h Handle, p Point) bool {
	if e.drag != nil || !e.shape.Offers(h) {
		return false
	}
	e.drag = &Gesture{Handle: h, Anchor: p, origin: e.region}
	return true
}

// PointerMove applies the delta since the previous pointer position and
// reports whether the region changed.
func (e *Editor) PointerMove(p Point) bool {
	if e.drag == nil {
		return false
	}
	d := p.Sub(e.drag.Anchor)
	prev := e.region
	if e.drag.Handle == HandleMove {
		e.region = Translate(e.region, d.X, d.Y, e.bounds)
	} else {
		e.region = Resize(e.region, e.drag.Handle, d.X, d.Y, e.bounds, e.minSize)
	}
	e.drag.Anchor = p
	return e.region != prev
}

// PointerUp ends the gesture, keeping its result.
func (e *Editor) PointerUp() {
	e.drag = nil
}

// PointerLeave ends the gesture as an implicit release; with LeaveRollback
// the region is restored to its value at pointer-down.
func (e *Editor) PointerLeave() {
	if e.drag == nil {
		return
	}
	if e.leave == LeaveRollback {
		e.region = e.drag.origin
	}
	e.drag = nil
}

// Dispatch routes ev to the matching pointer operation and reports whether
// the editor changed.
func (e *Editor) Dispatch(ev PointerEvent) bool {
	switch ev.Type {
	case EventDown:
		return e.PointerDown(ev.Handle, ev.Point())
	case EventMove:
		return e.PointerMove(ev.Point())
	case EventUp:
		active := e.drag != nil
		e.PointerUp()
		return active
	case EventLeave:
		active := e.drag != nil
		e.PointerLeave()
		return active
	}
	return false
}
