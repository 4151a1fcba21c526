package crop

import "fmt"

type EventType int

const (
	EventDown EventType = iota + 1
	EventMove
	EventUp
	EventLeave
)

var eventNames = map[EventType]string{
	EventDown:  "down",
	EventMove:  "move",
	EventUp:    "up",
	EventLeave: "leave",
}

func (t EventType) String() string {
	if name, ok := eventNames[t]; ok {
		return name
	}
	return fmt.Sprintf("event(%d)", int(t))
}

func (t EventType) MarshalText() ([]byte, error) {
	if _, ok := eventNames[t]; !ok {
		return nil, fmt.Errorf("unknown event type %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *EventType) UnmarshalText(text []byte) error {
	for k, name := range eventNames {
		if name == string(text) {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown event type %q", string(text))
}

// PointerEvent is a single pointer sample in display space. Handle is only
// read for EventDown.
type PointerEvent struct {
	Type   EventType `json:"type"`
	Handle Handle    `json:"handle,omitempty"`
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
}

func (ev PointerEvent) Point() Point {
	return Point{X: ev.X, Y: ev.Y}
}

func Down(h Handle, x, y float64) PointerEvent {
	return PointerEvent{Type: EventDown, Handle: h, X: x, Y: y}
}

func Move(x, y float64) PointerEvent {
	return PointerEvent{Type: EventMove, X: x, Y: y}
}

func Up() PointerEvent    { return PointerEvent{Type: EventUp} }
func Leave() PointerEvent { return PointerEvent{Type: EventLeave} }
