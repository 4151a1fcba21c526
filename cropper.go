package main

import (
	"context"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	"cropedit/internal/crop"
)

// ImagingCropper is an implementation of the Cropper interface
// using the disintegration/imaging library
type ImagingCropper struct {
	// Format is the encoding used for results. The zero value is JPEG in
	// imaging's enumeration, so NewImagingCropper sets PNG to keep the alpha
	// channel of circular crops.
	Format imaging.Format
}

// NewImagingCropper creates a new instance of ImagingCropper
func NewImagingCropper() *ImagingCropper {
	return &ImagingCropper{Format: imaging.PNG}
}

// Decode reads an image honouring its EXIF orientation, so display space and
// native space share the same axes.
func (c *ImagingCropper) Decode(r io.Reader) (image.Image, error) {
	src, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return src, nil
}

func (c *ImagingCropper) Encode(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, c.Format, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// Crop implements the Cropper interface. It reads an image from r, exports
// the display-space region described by spec and writes the result to w.
func (c *ImagingCropper) Crop(ctx context.Context, r io.Reader, w io.Writer, spec CropSpec) error {
	src, err := c.Decode(r)
	if err != nil {
		return err
	}

	out, err := crop.Export(src, spec.Region, spec.Shape, spec.Container)
	if err != nil {
		return err
	}

	return c.Encode(w, out)
}
