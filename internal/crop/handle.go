package crop

import "fmt"

// Handle identifies what a pointer gesture grabbed: the region body or one of
// the eight resize affordances.
type Handle int

const (
	HandleNone Handle = iota
	HandleMove
	HandleN
	HandleS
	HandleE
	HandleW
	HandleNE
	HandleNW
	HandleSE
	HandleSW
)

var handleNames = map[Handle]string{
	HandleNone: "none",
	HandleMove: "move",
	HandleN:    "resize-n",
	HandleS:    "resize-s",
	HandleE:    "resize-e",
	HandleW:    "resize-w",
	HandleNE:   "resize-ne",
	HandleNW:   "resize-nw",
	HandleSE:   "resize-se",
	HandleSW:   "resize-sw",
}

func (h Handle) String() string {
	if name, ok := handleNames[h]; ok {
		return name
	}
	return fmt.Sprintf("handle(%d)", int(h))
}

// ParseHandle accepts the names produced by Handle.String.
func ParseHandle(s string) (Handle, error) {
	for h, name := range handleNames {
		if name == s {
			return h, nil
		}
	}
	return HandleNone, fmt.Errorf("unknown handle %q", s)
}

func (h Handle) MarshalText() ([]byte, error) {
	if _, ok := handleNames[h]; !ok {
		return nil, fmt.Errorf("unknown handle %d", int(h))
	}
	return []byte(h.String()), nil
}

func (h *Handle) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*h = HandleNone
		return nil
	}
	parsed, err := ParseHandle(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// IsResize reports whether h is one of the eight compass handles.
func (h Handle) IsResize() bool {
	_, ok := resizeRules[h]
	return ok
}

// edge says which side of an axis a resize handle drags.
type edge int

const (
	edgeFixed    edge = iota
	edgeLeading       // north or west: position and size move together
	edgeTrailing      // south or east: only size moves
)

type axisRules struct {
	horizontal edge
	vertical   edge
}

var resizeRules = map[Handle]axisRules{
	HandleN:  {horizontal: edgeFixed, vertical: edgeLeading},
	HandleS:  {horizontal: edgeFixed, vertical: edgeTrailing},
	HandleE:  {horizontal: edgeTrailing, vertical: edgeFixed},
	HandleW:  {horizontal: edgeLeading, vertical: edgeFixed},
	HandleNE: {horizontal: edgeTrailing, vertical: edgeLeading},
	HandleNW: {horizontal: edgeLeading, vertical: edgeLeading},
	HandleSE: {horizontal: edgeTrailing, vertical: edgeTrailing},
	HandleSW: {horizontal: edgeLeading, vertical: edgeTrailing},
}
