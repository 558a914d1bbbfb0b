package plane

import (
	"errors"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/geom"
)

// ErrEmptyImage is returned when separating an image with no pixels.
var ErrEmptyImage = errors.New("image has no pixels")

// Cache stores channel filters keyed by shape.
//
// A requested shape that fits inside the largest filter computed so far is
// served as a slice of that filter; otherwise a fresh filter is computed and
// becomes the new largest. Both paths yield identical channel maps.
//
// Cache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Without a limit the cache grows by one entry per distinct shape. Screens and
// stills usually come in a handful of resolutions, so this stays small; long
// running processes fed arbitrary sizes should set a limit or call Clear.
type Cache struct {
	mu      sync.Mutex
	filters map[geom.Shape]*Filter
	largest *Filter
	limit   int
}

// NewCache creates an empty cache storing at most limit shapes. A limit of 0
// means unbounded. Once full, filters for new shapes are still returned but
// not stored.
func NewCache(limit int) *Cache {
	return &Cache{
		filters: make(map[geom.Shape]*Filter),
		limit:   limit,
	}
}

// Filter returns the channel filter for shape.
func (c *Cache) Filter(shape geom.Shape) *Filter {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.filters[shape]; ok {
		return f
	}

	var f *Filter
	if c.largest != nil && shape.Fits(c.largest.shape) {
		f = c.largest.slice(shape)
	} else {
		f = NewFilter(shape)
		c.largest = f
	}

	if c.limit <= 0 || len(c.filters) < c.limit {
		c.filters[shape] = f
	}
	return f
}

// Len returns the number of stored shapes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.filters)
}

// Clear drops every stored filter.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.filters = make(map[geom.Shape]*Filter)
	c.largest = nil
	c.mu.Unlock()
}

// Separate reduces img to a 2-D array holding, at each position, the sample of
// the channel the filter assigns to it (0 = red, 1 = green, 2 = blue).
// Grayscale images have equal channels and separate to their gray values.
func (c *Cache) Separate(img image.Image) (*mat.Dense, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyImage
	}
	src := imaging.Clone(img)
	shape := geom.Shape{Rows: b.Dy(), Cols: b.Dx()}
	f := c.Filter(shape)

	data := make([]float64, shape.Rows*shape.Cols)
	for r := 0; r < shape.Rows; r++ {
		row := src.Pix[r*src.Stride:]
		for col := 0; col < shape.Cols; col++ {
			data[r*shape.Cols+col] = float64(row[col*4+f.Channel(r, col)])
		}
	}
	return mat.NewDense(shape.Rows, shape.Cols, data), nil
}

// Compose scatters each value of data into the channel its position belongs
// to, producing an opaque colour image. The other two channels stay zero and
// values are clamped to [0, 255].
func (c *Cache) Compose(data mat.Matrix) *image.NRGBA {
	shape := geom.ShapeOf(data)
	out := image.NewNRGBA(image.Rect(0, 0, shape.Cols, shape.Rows))
	if shape.Empty() {
		return out
	}
	f := c.Filter(shape)

	for r := 0; r < shape.Rows; r++ {
		for col := 0; col < shape.Cols; col++ {
			px := color.NRGBA{A: 255}
			v := toByte(data.At(r, col))
			switch f.Channel(r, col) {
			case 0:
				px.R = v
			case 1:
				px.G = v
			case 2:
				px.B = v
			}
			out.SetNRGBA(col, r, px)
		}
	}
	return out
}

// Preview separates img and composes the result back into a viewable image,
// showing what the matcher actually sees.
func (c *Cache) Preview(img image.Image) (*image.NRGBA, error) {
	data, err := c.Separate(img)
	if err != nil {
		return nil, err
	}
	return c.Compose(data), nil
}

func toByte(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}
