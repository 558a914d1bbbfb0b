// Package geom holds the row/column geometry shared by the matcher, the
// percept model and the visual maps.
//
// # Coordinate System
//
// All coordinates are 0-based and expressed as (row, column), matching the
// layout of the 2-D arrays the matcher works on:
//   - Row: vertical position (0 = topmost row)
//   - Col: horizontal position (0 = leftmost column)
//   - Spans are half-open: Start is inclusive, End is exclusive
//
// Conversions to image.Rectangle map columns to X and rows to Y.
package geom

import (
	"fmt"
	"image"

	"gonum.org/v1/gonum/mat"
)

// Shape is the size of a 2-D array.
type Shape struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

// Fits reports whether s is componentwise no larger than o.
func (s Shape) Fits(o Shape) bool {
	return s.Rows <= o.Rows && s.Cols <= o.Cols
}

// Empty reports whether the shape covers no positions.
func (s Shape) Empty() bool {
	return s.Rows <= 0 || s.Cols <= 0
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Rows, s.Cols)
}

// ShapeOf returns the dimensions of m, or the zero shape for a nil matrix.
func ShapeOf(m mat.Matrix) Shape {
	if m == nil {
		return Shape{}
	}
	r, c := m.Dims()
	return Shape{Rows: r, Cols: c}
}

// Point is a (row, column) position.
type Point struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Add translates p by o.
func (p Point) Add(o Point) Point {
	return Point{Row: p.Row + o.Row, Col: p.Col + o.Col}
}

// XY returns the point as (x, y) screen coordinates.
func (p Point) XY() (x, y int) {
	return p.Col, p.Row
}

// Span is a half-open integer range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of positions covered by the span.
func (s Span) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether i lies in [Start, End).
func (s Span) Contains(i int) bool {
	return s.Start <= i && i < s.End
}

// ROI is a rectangular region of interest given as a row span and a column span.
type ROI struct {
	Rows Span `json:"rows"`
	Cols Span `json:"cols"`
}

// NewROI builds a region from its row range [r0, r1) and column range [c0, c1).
func NewROI(r0, r1, c0, c1 int) ROI {
	return ROI{Rows: Span{r0, r1}, Cols: Span{c0, c1}}
}

// At returns the region of the given shape whose top-left corner is p.
func At(p Point, s Shape) ROI {
	return NewROI(p.Row, p.Row+s.Rows, p.Col, p.Col+s.Cols)
}

// TopLeft returns the first position covered by the region.
func (r ROI) TopLeft() Point {
	return Point{Row: r.Rows.Start, Col: r.Cols.Start}
}

// Shape returns the region's dimensions.
func (r ROI) Shape() Shape {
	return Shape{Rows: r.Rows.Len(), Cols: r.Cols.Len()}
}

// Empty reports whether the region covers no positions.
func (r ROI) Empty() bool {
	return r.Shape().Empty()
}

// Contains reports whether p lies inside the region.
func (r ROI) Contains(p Point) bool {
	return r.Rows.Contains(p.Row) && r.Cols.Contains(p.Col)
}

// Translate shifts the region by p.
func (r ROI) Translate(p Point) ROI {
	return NewROI(r.Rows.Start+p.Row, r.Rows.End+p.Row, r.Cols.Start+p.Col, r.Cols.End+p.Col)
}

// Clip restricts the region to the bounds of an array of shape s.
func (r ROI) Clip(s Shape) ROI {
	clip := func(v, hi int) int {
		if v < 0 {
			return 0
		}
		if v > hi {
			return hi
		}
		return v
	}
	return NewROI(
		clip(r.Rows.Start, s.Rows), clip(r.Rows.End, s.Rows),
		clip(r.Cols.Start, s.Cols), clip(r.Cols.End, s.Cols),
	)
}

// Within reports whether r lies entirely inside o.
func (r ROI) Within(o ROI) bool {
	return r.Rows.Start >= o.Rows.Start && r.Rows.End <= o.Rows.End &&
		r.Cols.Start >= o.Cols.Start && r.Cols.End <= o.Cols.End
}

// Center returns the integer midpoint of the region.
func (r ROI) Center() Point {
	return Point{
		Row: floorDiv(r.Rows.Start+r.Rows.End, 2),
		Col: floorDiv(r.Cols.Start+r.Cols.End, 2),
	}
}

// Rect converts the region to an image rectangle (x = column, y = row).
func (r ROI) Rect() image.Rectangle {
	return image.Rect(r.Cols.Start, r.Rows.Start, r.Cols.End, r.Rows.End)
}

// FromRect converts an image rectangle to a region.
func FromRect(rect image.Rectangle) ROI {
	return NewROI(rect.Min.Y, rect.Max.Y, rect.Min.X, rect.Max.X)
}

func (r ROI) String() string {
	return fmt.Sprintf("rows[%d:%d] cols[%d:%d]", r.Rows.Start, r.Rows.End, r.Cols.Start, r.Cols.End)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
