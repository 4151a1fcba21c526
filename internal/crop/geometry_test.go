package crop

import (
	"math/rand/v2"
	"testing"
)

var container = Bounds{Width: 400, Height: 400}

func TestTranslate_ClampsToRightEdge(t *testing.T) {
	r := Region{X: 50, Y: 50, Width: 200, Height: 200}
	got := Translate(r, 250, 0, container)
	if got.X != 200 || got.Y != 50 {
		t.Fatalf("expected x=200 y=50, got %v", got)
	}
	if got.Width != 200 || got.Height != 200 {
		t.Fatalf("translate changed size: %v", got)
	}
}

func TestTranslate_ClampsToOrigin(t *testing.T) {
	r := Region{X: 50, Y: 50, Width: 200, Height: 200}
	got := Translate(r, -1000, -75, container)
	if got.X != 0 || got.Y != 0 {
		t.Fatalf("expected clamp to origin, got %v", got)
	}
}

func TestTranslate_ZeroDeltaIsIdentity(t *testing.T) {
	regions := []Region{
		{X: 0, Y: 0, Width: 20, Height: 20},
		{X: 50, Y: 50, Width: 200, Height: 200},
		{X: 200, Y: 380, Width: 200, Height: 20},
		{X: 0, Y: 0, Width: 400, Height: 400},
	}
	for _, r := range regions {
		if got := Translate(r, 0, 0, container); got != r {
			t.Fatalf("translate(0,0) of %v returned %v", r, got)
		}
	}
}

func TestTranslate_StaysInside(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 2000; i++ {
		w := float64(20 + rng.IntN(380))
		h := float64(20 + rng.IntN(380))
		r := Region{
			X:      float64(rng.IntN(int(container.Width-w) + 1)),
			Y:      float64(rng.IntN(int(container.Height-h) + 1)),
			Width:  w,
			Height: h,
		}
		dx := float64(rng.IntN(1601) - 800)
		dy := float64(rng.IntN(1601) - 800)
		got := Translate(r, dx, dy, container)
		if !got.Within(container) {
			t.Fatalf("translate(%v, %v, %v) escaped bounds: %v", r, dx, dy, got)
		}
	}
}

func TestResize_NorthBelowMinSizeIsNoop(t *testing.T) {
	r := Region{X: 50, Y: 50, Width: 200, Height: 200}
	got := Resize(r, HandleN, 0, 190, container, 20)
	if got != r {
		t.Fatalf("expected no change, got %v", got)
	}
}

func TestResize_NorthAboveOriginIsNoop(t *testing.T) {
	r := Region{X: 50, Y: 50, Width: 200, Height: 200}
	got := Resize(r, HandleN, 0, -60, container, 20)
	if got != r {
		t.Fatalf("expected no change, got %v", got)
	}
}

func TestResize_SingleAxis(t *testing.T) {
	r := Region{X: 50, Y: 50, Width: 200, Height: 200}
	tests := []struct {
		name   string
		handle Handle
		dx, dy float64
		want   Region
	}{
		{"north grows", HandleN, 0, -30, Region{X: 50, Y: 20, Width: 200, Height: 230}},
		{"north shrinks", HandleN, 0, 100, Region{X: 50, Y: 150, Width: 200, Height: 100}},
		{"south grows", HandleS, 0, 40, Region{X: 50, Y: 50, Width: 200, Height: 240}},
		{"south clamps to bounds", HandleS, 0, 500, Region{X: 50, Y: 50, Width: 200, Height: 350}},
		{"south clamps to min size", HandleS, 0, -500, Region{X: 50, Y: 50, Width: 200, Height: 20}},
		{"west grows", HandleW, -50, 0, Region{X: 0, Y: 50, Width: 250, Height: 200}},
		{"west rejected past origin", HandleW, -51, 0, r},
		{"east clamps to bounds", HandleE, 1000, 0, Region{X: 50, Y: 50, Width: 350, Height: 200}},
		{"east clamps to min size", HandleE, -1000, 0, Region{X: 50, Y: 50, Width: 20, Height: 200}},
		{"north ignores dx", HandleN, 70, -10, Region{X: 50, Y: 40, Width: 200, Height: 210}},
		{"east ignores dy", HandleE, 10, 70, Region{X: 50, Y: 50, Width: 210, Height: 200}},
		{"move is not a resize", HandleMove, 10, 10, r},
		{"none is not a resize", HandleNone, 10, 10, r},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resize(r, tt.handle, tt.dx, tt.dy, container, 20)
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestResize_CompoundAxesIndependent(t *testing.T) {
	r := Region{X: 50, Y: 50, Width: 200, Height: 200}
	// horizontal part is valid, vertical part would shrink below the floor
	got := Resize(r, HandleNW, -20, 190, container, 20)
	want := Region{X: 30, Y: 50, Width: 220, Height: 200}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Resize(r, HandleSE, 30, 30, container, 20)
	want = Region{X: 50, Y: 50, Width: 230, Height: 230}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Resize(r, HandleNE, 500, -10, container, 20)
	want = Region{X: 50, Y: 40, Width: 350, Height: 210}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}

	got = Resize(r, HandleSW, 10, -10, container, 20)
	want = Region{X: 60, Y: 50, Width: 190, Height: 190}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestResize_KeepsMinSizeAndBounds(t *testing.T) {
	handles := []Handle{HandleN, HandleS, HandleE, HandleW, HandleNE, HandleNW, HandleSE, HandleSW}
	rng := rand.New(rand.NewPCG(3, 4))
	r := DefaultRegion
	for i := 0; i < 5000; i++ {
		h := handles[rng.IntN(len(handles))]
		dx := float64(rng.IntN(301) - 150)
		dy := float64(rng.IntN(301) - 150)
		r = Resize(r, h, dx, dy, container, 20)
		if r.Width < 20 || r.Height < 20 {
			t.Fatalf("step %d: %v %v,%v shrank below min size: %v", i, h, dx, dy, r)
		}
		if !r.Within(container) {
			t.Fatalf("step %d: %v %v,%v escaped bounds: %v", i, h, dx, dy, r)
		}
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		bounds Bounds
		want   Region
	}{
		{"already inside", DefaultRegion, container, DefaultRegion},
		{"translated back", Region{X: 300, Y: 300, Width: 200, Height: 200}, container, Region{X: 200, Y: 200, Width: 200, Height: 200}},
		{"shrunk to bounds", Region{X: 50, Y: 50, Width: 200, Height: 200}, Bounds{Width: 120, Height: 90}, Region{X: 0, Y: 0, Width: 120, Height: 90}},
		{"empty bounds leave region", DefaultRegion, Bounds{}, DefaultRegion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(tt.region, tt.bounds, 20)
			if got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestHandle_TextRoundTrip(t *testing.T) {
	for h, name := range handleNames {
		parsed, err := ParseHandle(name)
		if err != nil || parsed != h {
			t.Fatalf("ParseHandle(%q) = %v, %v", name, parsed, err)
		}
	}
	if _, err := ParseHandle("resize-north"); err == nil {
		t.Fatalf("expected error for unknown handle")
	}
	if HandleMove.IsResize() || HandleNone.IsResize() || !HandleSW.IsResize() {
		t.Fatalf("unexpected IsResize classification")
	}
}

func TestResize_TrailingEdgeCappedByRoomBelowMinSize(t *testing.T) {
	b := Bounds{Width: 10, Height: 10}
	r := Region{Width: 10, Height: 10}
	for _, d := range []float64{-8, -3, 0, 4, 50} {
		got := Resize(r, HandleSE, d, d, b, DefaultMinSize)
		if !got.Within(b) {
			t.Fatalf("delta %v: %v outside %v", d, got, b)
		}
		if got.Width != 10 || got.Height != 10 {
			t.Fatalf("delta %v: expected the full 10x10 room, got %v", d, got)
		}
	}
}
