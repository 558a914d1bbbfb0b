package cogs

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/geom"
	"github.com/ironsheep/skeye/internal/percept"
)

// Descriptor names a pipeline of What and Where steps that finds one object
// in a frame.
type Descriptor struct {
	Label string
	Steps Pipe
}

// Describe creates a descriptor.
func Describe(label string, steps ...Command) *Descriptor {
	return &Descriptor{Label: label, Steps: Pipe(steps)}
}

// Invoke runs the descriptor's steps. The visual map in env supplies the
// reference image and zones.
func (d *Descriptor) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	if env.Map == nil {
		return nil, ErrNoMap
	}
	out, err := d.Steps.Invoke(ctx, args, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Label, err)
	}
	return out, nil
}

func (*Descriptor) command() {}

// VisualMap is the memory of one scene: a separated reference image, the
// descriptors of objects that can be found from it, and named zones used to
// classify located objects.
type VisualMap struct {
	Reference   *mat.Dense
	Descriptors []*Descriptor
	Zones       map[string][]geom.ROI
}

// NewVisualMap creates a visual map over reference.
func NewVisualMap(reference *mat.Dense, descriptors ...*Descriptor) *VisualMap {
	return &VisualMap{
		Reference:   reference,
		Descriptors: descriptors,
		Zones:       make(map[string][]geom.ROI),
	}
}

// Descriptor returns the descriptor with the given label.
func (m *VisualMap) Descriptor(label string) (*Descriptor, error) {
	for _, d := range m.Descriptors {
		if d.Label == label {
			return d, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, label)
}

// Zone returns the ROIs registered under name.
func (m *VisualMap) Zone(name string) ([]geom.ROI, error) {
	rois, ok := m.Zones[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, name)
	}
	return rois, nil
}

// Locate searches for the labelled object in the frame described by input.
func (m *VisualMap) Locate(ctx context.Context, label string, input *percept.Percept, env *Env) (*percept.Percept, error) {
	d, err := m.Descriptor(label)
	if err != nil {
		return nil, err
	}
	return m.evaluate(ctx, d, input, env)
}

func (m *VisualMap) evaluate(ctx context.Context, d *Descriptor, input *percept.Percept, env *Env) (*percept.Percept, error) {
	out, err := d.Invoke(ctx, Args{input}, env.withMap(m))
	if err != nil {
		return nil, err
	}
	p, ok := out.(*percept.Percept)
	if !ok {
		return nil, fmt.Errorf("%s: %w", d.Label, ErrNoPercept)
	}
	return p, nil
}

// Memory is the ordered list of visual maps a bot knows.
type Memory []*VisualMap

// At returns the i-th visual map.
func (m Memory) At(i int) (*VisualMap, error) {
	if i < 0 || i >= len(m) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrMapIndex, i, len(m))
	}
	return m[i], nil
}
