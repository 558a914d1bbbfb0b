// Package capture acquires sample images for the matcher, either live from the
// screen or from stored stills.
//
// Acquisition is the only place images enter the system. Everything downstream
// works on the arrays produced by separating these images, so sources only
// need to hand back an image.Image and report failures as errors.
package capture

import (
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"
)

// Source produces a sample image on demand.
type Source interface {
	Acquire(ctx context.Context) (image.Image, error)
}

// Func adapts an ordinary function to a Source.
type Func func(ctx context.Context) (image.Image, error)

// Acquire calls f.
func (f Func) Acquire(ctx context.Context) (image.Image, error) { return f(ctx) }

// Still acquires a stored image file.
type Still struct {
	Path  string
	Cache *ImageCache // optional; a nil cache reads the file every time
}

// Acquire loads the still.
func (s Still) Acquire(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Cache != nil {
		return s.Cache.Load(s.Path)
	}
	img, err := imaging.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", s.Path, err)
	}
	return img, nil
}

// Screen grabs a screenshot of one display.
type Screen struct {
	// Display is the index of the display to capture.
	Display int
	// Bounds limits the capture to a rectangle in desktop coordinates. When
	// nil the whole display is captured.
	Bounds *image.Rectangle
}

// Acquire captures the screen.
func (s Screen) Acquire(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n := screenshot.NumActiveDisplays(); s.Display < 0 || s.Display >= n {
		return nil, fmt.Errorf("display %d not available (%d active)", s.Display, n)
	}
	rect := screenshot.GetDisplayBounds(s.Display)
	if s.Bounds != nil {
		rect = s.Bounds.Intersect(rect)
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("screen capture failed: %w", err)
	}
	return img, nil
}

// Resized wraps a source and resamples every acquired image to Width x Height
// with a Lanczos filter. A zero dimension preserves the aspect ratio.
type Resized struct {
	Source Source
	Width  int
	Height int
}

// Acquire acquires from the wrapped source and resizes the result.
func (r Resized) Acquire(ctx context.Context) (image.Image, error) {
	img, err := r.Source.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	if r.Width == 0 && r.Height == 0 {
		return img, nil
	}
	return imaging.Resize(img, r.Width, r.Height, imaging.Lanczos), nil
}

// Image is a Source that always returns the same in-memory image.
type Image struct {
	Img image.Image
}

// Acquire returns the wrapped image.
func (i Image) Acquire(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return i.Img, nil
}
