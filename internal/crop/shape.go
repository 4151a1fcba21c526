package crop

import (
	"fmt"
	"math"
)

// Shape constrains how the stored region is interpreted at render and export
// time. It never changes the stored region itself.
type Shape int

const (
	ShapeRectangle Shape = iota
	ShapeSquare
	ShapeCircle
)

var shapeNames = [...]string{
	ShapeRectangle: "rectangle",
	ShapeSquare:    "square",
	ShapeCircle:    "circle",
}

func (s Shape) String() string {
	if s < 0 || int(s) >= len(shapeNames) {
		return fmt.Sprintf("shape(%d)", int(s))
	}
	return shapeNames[s]
}

func ParseShape(s string) (Shape, error) {
	for i, name := range shapeNames {
		if name == s {
			return Shape(i), nil
		}
	}
	return ShapeRectangle, fmt.Errorf("unknown shape %q", s)
}

func (s Shape) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(shapeNames) {
		return nil, fmt.Errorf("unknown shape %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Shape) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*s = ShapeRectangle
		return nil
	}
	parsed, err := ParseShape(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Offers reports whether the shape exposes h as a draggable affordance. A
// circle can only be moved or resized from its south-east corner.
func (s Shape) Offers(h Handle) bool {
	if h == HandleNone {
		return false
	}
	if s == ShapeCircle {
		return h == HandleMove || h == HandleSE
	}
	return true
}

// Effective is a region after the shape policy has been applied. For circles
// X, Y, Width and Height describe the bounding square of the disk.
type Effective struct {
	Shape   Shape   `json:"shape"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	CenterX float64 `json:"cx"`
	CenterY float64 `json:"cy"`
	Radius  float64 `json:"radius,omitempty"`
}

// ApplyShape maps a stored region to what is drawn and exported for shape s.
func ApplyShape(s Shape, r Region) Effective {
	e := Effective{
		Shape:   s,
		X:       r.X,
		Y:       r.Y,
		Width:   r.Width,
		Height:  r.Height,
		CenterX: r.X + r.Width/2,
		CenterY: r.Y + r.Height/2,
	}
	switch s {
	case ShapeSquare:
		e.Height = r.Width
		e.CenterY = r.Y + r.Width/2
	case ShapeCircle:
		e.Radius = r.Width / 2
		e.Y = e.CenterY - e.Radius
		e.Height = r.Width
	}
	return e
}

// Contains reports whether the display-space point (x, y) is inside the
// effective shape.
func (e Effective) Contains(x, y float64) bool {
	if e.Shape == ShapeCircle {
		return math.Hypot(x-e.CenterX, y-e.CenterY) <= e.Radius
	}
	return x >= e.X && x < e.X+e.Width && y >= e.Y && y < e.Y+e.Height
}

// Label is the size caption shown next to the editor.
func (e Effective) Label() string {
	if e.Shape == ShapeCircle {
		return fmt.Sprintf("Diameter: %s px", formatPx(e.Width))
	}
	return fmt.Sprintf("Crop area: %s × %s px", formatPx(e.Width), formatPx(e.Height))
}

func formatPx(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
