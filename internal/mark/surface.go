package mark

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/imgio"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SurfaceImage min-max scales a correlation surface into an 8-bit gray image.
// A flat surface renders black.
func SurfaceImage(surface mat.Matrix) *image.Gray {
	rows, cols := surface.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	data := values(surface)
	if len(data) == 0 {
		return img
	}

	lo, hi := floats.Min(data), floats.Max(data)
	span := hi - lo
	for i, v := range data {
		var g uint8
		if span > 0 {
			g = uint8(math.Round((v - lo) / span * 255))
		}
		img.Pix[(i/cols)*img.Stride+i%cols] = g
	}
	return img
}

// WinnerImage marks every position holding the surface maximum white and
// everything else black.
func WinnerImage(surface mat.Matrix) *image.Gray {
	rows, cols := surface.Dims()
	img := image.NewGray(image.Rect(0, 0, cols, rows))
	data := values(surface)
	if len(data) == 0 {
		return img
	}

	peak := floats.Max(data)
	for i, v := range data {
		if v == peak {
			img.SetGray(i%cols, i/cols, color.Gray{Y: 255})
		}
	}
	return img
}

// SaveSurface writes SurfaceImage(surface) to path as PNG.
func SaveSurface(path string, surface mat.Matrix) error {
	if err := imgio.Save(path, SurfaceImage(surface), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save surface %s: %w", path, err)
	}
	return nil
}

// SaveWinner writes WinnerImage(surface) to path as PNG.
func SaveWinner(path string, surface mat.Matrix) error {
	if err := imgio.Save(path, WinnerImage(surface), imgio.PNGEncoder()); err != nil {
		return fmt.Errorf("failed to save winner %s: %w", path, err)
	}
	return nil
}

func values(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	out := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out = append(out, m.At(r, c))
		}
	}
	return out
}
