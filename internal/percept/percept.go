// Package percept models located objects and the coordinate frames they form.
//
// A Percept is a located rectangular region: its pixel data, its offset inside
// the parent percept it was found in, and a reference to that parent. The
// absolute position of a percept is the sum of the offsets along its parent
// chain, which is what lets a search run inside a previously located object
// and still report screen coordinates.
//
// Percepts are immutable and only ever point to older percepts, so the parent
// chain cannot form a cycle. A percept never knows its children.
package percept

import (
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/geom"
)

// Percept is a located region of an image.
type Percept struct {
	data   *mat.Dense
	offset geom.Point
	parent *Percept
}

// New creates a percept holding data found at offset inside parent. A nil
// parent means offset is relative to the scene.
func New(data *mat.Dense, offset geom.Point, parent *Percept) *Percept {
	return &Percept{data: data, offset: offset, parent: parent}
}

// Root creates a percept spanning a whole scene.
func Root(data *mat.Dense) *Percept {
	return New(data, geom.Point{}, nil)
}

// Data returns the percept's pixel data. Callers must not modify it.
func (p *Percept) Data() *mat.Dense { return p.data }

// Offset returns the top-left position relative to the parent.
func (p *Percept) Offset() geom.Point { return p.offset }

// Parent returns the percept this one was found in, or nil for a root.
func (p *Percept) Parent() *Percept { return p.parent }

// Shape returns the dimensions of the percept's data.
func (p *Percept) Shape() geom.Shape { return geom.ShapeOf(p.data) }

// Local returns the region the percept covers in its parent's frame.
func (p *Percept) Local() geom.ROI {
	return geom.At(p.offset, p.Shape())
}

// TopLeft returns the percept's top-left position in scene coordinates.
func (p *Percept) TopLeft() geom.Point {
	pos := p.offset
	for a := p.parent; a != nil; a = a.parent {
		pos = pos.Add(a.offset)
	}
	return pos
}

// Region returns the area covered by the percept in scene coordinates.
func (p *Percept) Region() geom.ROI {
	return geom.At(p.TopLeft(), p.Shape())
}

// Center returns the midpoint of Region.
func (p *Percept) Center() geom.Point {
	return p.Region().Center()
}

// Depth returns the number of ancestors above the percept.
func (p *Percept) Depth() int {
	n := 0
	for a := p.parent; a != nil; a = a.parent {
		n++
	}
	return n
}
