// Package crop models an interactive crop rectangle: pointer-driven move and
// resize in display space, shape constraints, and export to source pixels.
package crop

import "fmt"

// DefaultMinSize is the smallest width or height a region may be resized to.
const DefaultMinSize = 20

// Point is a pointer position in display space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Bounds is the size of the display surface the region lives on.
type Bounds struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the surface has no area.
func (b Bounds) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Region is the crop rectangle in display-space units. X and Y are the
// top-left corner.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultRegion is the region a new editor starts with.
var DefaultRegion = Region{X: 50, Y: 50, Width: 200, Height: 200}

func (r Region) String() string {
	return fmt.Sprintf("region(x=%.2f,y=%.2f,w=%.2f,h=%.2f)", r.X, r.Y, r.Width, r.Height)
}

// Within reports whether r lies fully inside b.
func (r Region) Within(b Bounds) bool {
	return r.X >= 0 && r.Y >= 0 && r.X+r.Width <= b.Width && r.Y+r.Height <= b.Height
}

// Translate shifts r by (dx, dy) and saturates it against the edges of b.
func Translate(r Region, dx, dy float64, b Bounds) Region {
	r.X = clamp(r.X+dx, 0, b.Width-r.Width)
	r.Y = clamp(r.Y+dy, 0, b.Height-r.Height)
	return r
}

// Resize drags the edges selected by h by (dx, dy). Each axis is validated on
// its own: a leading-edge update that would shrink below minSize or cross the
// origin is dropped for that axis, while trailing edges are clamped to
// [minSize, remaining space]. When less than minSize remains, the remaining
// space wins. Non-resize handles leave r unchanged.
func Resize(r Region, h Handle, dx, dy float64, b Bounds, minSize float64) Region {
	rules, ok := resizeRules[h]
	if !ok {
		return r
	}
	r.X, r.Width = resizeAxis(rules.horizontal, r.X, r.Width, dx, b.Width, minSize)
	r.Y, r.Height = resizeAxis(rules.vertical, r.Y, r.Height, dy, b.Height, minSize)
	return r
}

func resizeAxis(e edge, pos, size, d, limit, minSize float64) (float64, float64) {
	switch e {
	case edgeLeading:
		newSize := size - d
		newPos := pos + d
		if newSize >= minSize && newPos >= 0 {
			return newPos, newSize
		}
		return pos, size
	case edgeTrailing:
		room := limit - pos
		return pos, clamp(size+d, min(minSize, room), room)
	default:
		return pos, size
	}
}

// Fit returns r adjusted so that it lies inside b: the region is first
// shrunk to at most the size of b (never below minSize unless b itself is
// smaller) and then translated inside.
func Fit(r Region, b Bounds, minSize float64) Region {
	if b.Empty() {
		return r
	}
	r.Width = clamp(r.Width, minSize, b.Width)
	r.Height = clamp(r.Height, minSize, b.Height)
	r.Width = min(r.Width, b.Width)
	r.Height = min(r.Height, b.Height)
	return Translate(r, 0, 0, b)
}

// clamp bounds v to [lo, hi]. The lower bound wins when hi < lo.
func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}
