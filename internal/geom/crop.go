package geom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrOutOfBounds is returned when a region does not fit inside the array it crops.
var ErrOutOfBounds = errors.New("region outside array bounds")

// Crop returns the view of m covered by roi. The region must be non-empty and
// lie entirely inside m.
func Crop(m *mat.Dense, roi ROI) (*mat.Dense, error) {
	s := ShapeOf(m)
	if roi.Empty() || roi.Clip(s) != roi {
		return nil, fmt.Errorf("crop %v of %v array: %w", roi, s, ErrOutOfBounds)
	}
	return m.Slice(roi.Rows.Start, roi.Rows.End, roi.Cols.Start, roi.Cols.End).(*mat.Dense), nil
}

// CropClip returns the view of m covered by roi after truncating the region to
// the array bounds, together with the region actually used. The view is nil
// when nothing of roi overlaps m.
func CropClip(m *mat.Dense, roi ROI) (*mat.Dense, ROI) {
	clipped := roi.Clip(ShapeOf(m))
	if clipped.Empty() {
		return nil, clipped
	}
	return m.Slice(clipped.Rows.Start, clipped.Rows.End, clipped.Cols.Start, clipped.Cols.End).(*mat.Dense), clipped
}
