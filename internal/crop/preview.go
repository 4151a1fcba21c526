package crop

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// overlayShade darkens everything outside the crop area by 40%.
var overlayShade = color.NRGBA{A: 102}

// Preview renders src at display size with the area outside the effective
// region dimmed, the way the editor surface shows it.
func Preview(src image.Image, region Region, shape Shape, display Bounds) (*image.NRGBA, error) {
	if _, err := ScaleFor(src, display); err != nil {
		return nil, err
	}
	w, h := pixels(display.Width), pixels(display.Height)
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	e := ApplyShape(shape, region)
	outside := image.NewAlpha(dst.Bounds())
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !e.Contains(float64(x)+0.5, float64(y)+0.5) {
				outside.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	xdraw.DrawMask(dst, dst.Bounds(), image.NewUniform(overlayShade), image.Point{}, outside, image.Point{}, xdraw.Over)
	return dst, nil
}
