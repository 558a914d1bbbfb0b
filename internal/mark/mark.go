// Package mark renders debugging artifacts: outlined matches on stored
// images, correlation surfaces and base64 snippets for remote clients.
package mark

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/skeye/internal/capture"
	"github.com/ironsheep/skeye/internal/geom"
)

// DefaultColor is the outline colour used when none is configured.
const DefaultColor = "#ff0000"

// Marker draws region outlines onto copies of stored images.
type Marker struct {
	Color     color.NRGBA
	Thickness int
	Cache     *capture.ImageCache
}

// NewMarker parses hex (e.g. "#00ff88") as the outline colour. An empty
// string selects DefaultColor.
func NewMarker(hex string, cache *capture.ImageCache) (*Marker, error) {
	c, err := ParseColor(hex)
	if err != nil {
		return nil, err
	}
	return &Marker{Color: c, Thickness: 2, Cache: cache}, nil
}

// ParseColor converts a hex colour string into an opaque NRGBA.
func ParseColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		hex = DefaultColor
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// Mark outlines roi on the image at source and writes the result to dest.
// The output format follows the extension of dest.
func (m *Marker) Mark(source, dest string, roi geom.ROI) error {
	img, err := m.load(source)
	if err != nil {
		return err
	}
	out := m.Outline(img, roi)
	if err := imaging.Save(out, dest); err != nil {
		return fmt.Errorf("failed to save marked image %s: %w", dest, err)
	}
	return nil
}

// Outline returns a copy of img with the border of roi drawn in the marker
// colour. Parts of the border outside the image are skipped.
func (m *Marker) Outline(img image.Image, roi geom.ROI) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	rect := roi.Rect().Add(b.Min)
	t := m.Thickness
	if t < 1 {
		t = 1
	}

	set := func(x, y int) {
		if image.Pt(x, y).In(b) {
			out.SetNRGBA(x, y, m.Color)
		}
	}
	for i := 0; i < t; i++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			set(x, rect.Min.Y+i)
			set(x, rect.Max.Y-1-i)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			set(rect.Min.X+i, y)
			set(rect.Max.X-1-i, y)
		}
	}
	return out
}

func (m *Marker) load(path string) (image.Image, error) {
	if m.Cache != nil {
		return m.Cache.Load(path)
	}
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

// SnippetResult is a cropped region encoded for transport.
type SnippetResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Snippet crops roi out of img and returns it as a base64 PNG. The region is
// clipped to the image; an empty result is an error.
func Snippet(img image.Image, roi geom.ROI) (*SnippetResult, error) {
	b := img.Bounds()
	clipped := roi.Clip(geom.Shape{Rows: b.Dy(), Cols: b.Dx()})
	if clipped.Empty() {
		return nil, fmt.Errorf("snippet %s lies outside image bounds %dx%d", roi, b.Dx(), b.Dy())
	}

	cropped := imaging.Crop(img, clipped.Rect().Add(b.Min))

	var buf bytes.Buffer
	if err := png.Encode(&buf, cropped); err != nil {
		return nil, fmt.Errorf("failed to encode snippet: %w", err)
	}

	return &SnippetResult{
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}
