package crop

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"reflect"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// PreconditionError is returned when an export is requested without the
// inputs it needs. No raster is produced in that case.
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string {
	return "crop precondition failed: " + e.Reason
}

// Scale holds the display-to-native factors for each axis.
type Scale struct {
	X float64
	Y float64
}

// ScaleFor returns the factors mapping display space onto src.
func ScaleFor(src image.Image, display Bounds) (Scale, error) {
	if isNilImage(src) {
		return Scale{}, &PreconditionError{Reason: "no source image"}
	}
	if display.Empty() {
		return Scale{}, &PreconditionError{Reason: fmt.Sprintf("empty container %gx%g", display.Width, display.Height)}
	}
	b := src.Bounds()
	if b.Empty() {
		return Scale{}, &PreconditionError{Reason: "source image has no pixels"}
	}
	return Scale{
		X: float64(b.Dx()) / display.Width,
		Y: float64(b.Dy()) / display.Height,
	}, nil
}

// NativeRect maps an effective region to source pixel coordinates, relative
// to the source's top-left corner. Circles map to the square around the
// disk, with the diameter taken from the horizontal scale.
func (s Scale) NativeRect(e Effective) image.Rectangle {
	if e.Shape == ShapeCircle {
		d := pixels(e.Width * s.X)
		x0 := int(math.Round(e.CenterX*s.X - float64(d)/2))
		y0 := int(math.Round(e.CenterY*s.Y - float64(d)/2))
		return image.Rect(x0, y0, x0+d, y0+d)
	}
	x0 := int(math.Round(e.X * s.X))
	y0 := int(math.Round(e.Y * s.Y))
	return image.Rect(x0, y0, x0+pixels(e.Width*s.X), y0+pixels(e.Height*s.Y))
}

// Export crops src to the region as seen through shape. region is in
// display space and display is the size the source was shown at. Circles
// come back as a square raster whose pixels outside the disk are
// transparent.
func Export(src image.Image, region Region, shape Shape, display Bounds) (*image.NRGBA, error) {
	scale, err := ScaleFor(src, display)
	if err != nil {
		return nil, err
	}
	e := ApplyShape(shape, region)
	rect := scale.NativeRect(e).Add(src.Bounds().Min)
	raster := sample(src, rect)
	if shape != ShapeCircle {
		return raster, nil
	}
	mask := diskMask(rect.Dx())
	out := image.NewNRGBA(raster.Bounds())
	xdraw.DrawMask(out, out.Bounds(), raster, image.Point{}, mask, image.Point{}, xdraw.Src)
	return out, nil
}

// isNilImage catches both a nil interface and a typed nil pointer such as
// (*image.NRGBA)(nil), whose Bounds method would panic.
func isNilImage(src image.Image) bool {
	if src == nil {
		return true
	}
	v := reflect.ValueOf(src)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// ExportFilename is the download name for an export of the given shape.
func ExportFilename(shape Shape) string {
	return fmt.Sprintf("cropped-%s.png", shape)
}

// sample copies rect out of src. Parts of rect outside the source are left
// transparent so the raster always has rect's size.
func sample(src image.Image, rect image.Rectangle) *image.NRGBA {
	b := src.Bounds()
	if rect.In(b) {
		return imaging.Crop(src, rect)
	}
	dst := imaging.New(rect.Dx(), rect.Dy(), color.Transparent)
	inter := rect.Intersect(b)
	if inter.Empty() {
		return dst
	}
	return imaging.Paste(dst, imaging.Crop(src, inter), inter.Min.Sub(rect.Min))
}

// kappa places cubic control points so four curves approximate a circle.
const kappa = 0.5522847498

// diskMask rasterises an anti-aliased disk filling a d×d square.
func diskMask(d int) *image.Alpha {
	r := float32(d) / 2
	cx, cy := r, r
	k := r * kappa

	z := vector.NewRasterizer(d, d)
	z.MoveTo(cx+r, cy)
	z.CubeTo(cx+r, cy+k, cx+k, cy+r, cx, cy+r)
	z.CubeTo(cx-k, cy+r, cx-r, cy+k, cx-r, cy)
	z.CubeTo(cx-r, cy-k, cx-k, cy-r, cx, cy-r)
	z.CubeTo(cx+k, cy-r, cx+r, cy-k, cx+r, cy)
	z.ClosePath()

	mask := image.NewAlpha(image.Rect(0, 0, d, d))
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

func pixels(v float64) int {
	return max(1, int(math.Round(v)))
}
