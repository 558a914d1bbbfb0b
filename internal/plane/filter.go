package plane

import (
	"github.com/ironsheep/skeye/internal/geom"
)

// Channels is the number of channel groups a filter partitions positions into.
const Channels = 3

// Filter maps every position of a fixed shape to its channel.
//
// A Filter may be a view into a larger filter's table, in which case stride is
// the larger filter's column count.
type Filter struct {
	shape    geom.Shape
	stride   int
	channels []uint8
}

// NewFilter computes the channel map for shape from scratch.
func NewFilter(shape geom.Shape) *Filter {
	if shape.Empty() {
		return &Filter{}
	}
	channels := make([]uint8, shape.Rows*shape.Cols)
	for r := 0; r < shape.Rows; r++ {
		for c := 0; c < shape.Cols; c++ {
			channels[r*shape.Cols+c] = channelAt(r, c)
		}
	}
	return &Filter{shape: shape, stride: shape.Cols, channels: channels}
}

func channelAt(r, c int) uint8 {
	rowEven := r%2 == 0
	colEven := c%2 == 0
	switch {
	case rowEven && colEven:
		return 2
	case rowEven != colEven:
		return 1
	default:
		return 0
	}
}

// slice returns a view of f restricted to shape, which must fit inside f.
func (f *Filter) slice(shape geom.Shape) *Filter {
	if shape.Empty() {
		return &Filter{}
	}
	return &Filter{shape: shape, stride: f.stride, channels: f.channels}
}

// Shape returns the shape the filter was derived for.
func (f *Filter) Shape() geom.Shape {
	return f.shape
}

// Channel returns the channel assigned to position (r, c).
func (f *Filter) Channel(r, c int) int {
	return int(f.channels[r*f.stride+c])
}

// Indices returns the row-major flat positions (r*cols + c) that belong to ch.
func (f *Filter) Indices(ch int) []int {
	var out []int
	for r := 0; r < f.shape.Rows; r++ {
		for c := 0; c < f.shape.Cols; c++ {
			if f.Channel(r, c) == ch {
				out = append(out, r*f.shape.Cols+c)
			}
		}
	}
	return out
}

// Equal reports whether f and o have the same shape and channel assignment.
func (f *Filter) Equal(o *Filter) bool {
	if f.shape != o.shape {
		return false
	}
	for r := 0; r < f.shape.Rows; r++ {
		for c := 0; c < f.shape.Cols; c++ {
			if f.Channel(r, c) != o.Channel(r, c) {
				return false
			}
		}
	}
	return true
}
