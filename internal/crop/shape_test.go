package crop

import "testing"

func TestApplyShape(t *testing.T) {
	r := Region{X: 20, Y: 30, Width: 100, Height: 160}

	rect := ApplyShape(ShapeRectangle, r)
	if rect.X != 20 || rect.Y != 30 || rect.Width != 100 || rect.Height != 160 {
		t.Fatalf("rectangle is not identity: %+v", rect)
	}

	sq := ApplyShape(ShapeSquare, r)
	if sq.Width != 100 || sq.Height != 100 || sq.Y != 30 {
		t.Fatalf("square should take its height from width: %+v", sq)
	}

	c := ApplyShape(ShapeCircle, r)
	if c.Radius != 50 || c.Width != 100 || c.Height != 100 {
		t.Fatalf("circle diameter should equal width: %+v", c)
	}
	if c.CenterX != 70 || c.CenterY != 110 {
		t.Fatalf("circle centre = (%v,%v), want (70,110)", c.CenterX, c.CenterY)
	}
	if c.Y != 60 {
		t.Fatalf("circle bounding square top = %v, want 60", c.Y)
	}
}

func TestEffective_Contains(t *testing.T) {
	c := ApplyShape(ShapeCircle, Region{X: 0, Y: 0, Width: 100, Height: 100})
	if !c.Contains(50, 50) || !c.Contains(50, 1) {
		t.Fatalf("points inside the disk reported outside")
	}
	if c.Contains(2, 2) || c.Contains(99, 99) {
		t.Fatalf("corner points reported inside the disk")
	}
	rect := ApplyShape(ShapeRectangle, Region{X: 10, Y: 10, Width: 20, Height: 20})
	if !rect.Contains(10, 10) || rect.Contains(30, 30) {
		t.Fatalf("rectangle containment is half-open")
	}
}

func TestEffective_Label(t *testing.T) {
	r := Region{X: 0, Y: 0, Width: 120, Height: 80.5}
	tests := []struct {
		shape Shape
		want  string
	}{
		{ShapeRectangle, "Crop area: 120 × 80.5 px"},
		{ShapeSquare, "Crop area: 120 × 120 px"},
		{ShapeCircle, "Diameter: 120 px"},
	}
	for _, tt := range tests {
		if got := ApplyShape(tt.shape, r).Label(); got != tt.want {
			t.Fatalf("%v label = %q, want %q", tt.shape, got, tt.want)
		}
	}
}

func TestShape_Text(t *testing.T) {
	for _, s := range []Shape{ShapeRectangle, ShapeSquare, ShapeCircle} {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("marshal %v: %v", s, err)
		}
		var got Shape
		if err := got.UnmarshalText(text); err != nil || got != s {
			t.Fatalf("unmarshal %q = %v, %v", text, got, err)
		}
	}
	if _, err := ParseShape("ellipse"); err == nil {
		t.Fatalf("expected error for unknown shape")
	}
}
