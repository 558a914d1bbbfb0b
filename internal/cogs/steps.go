package cogs

import (
	"context"
	"fmt"

	"github.com/ironsheep/skeye/internal/geom"
	"github.com/ironsheep/skeye/internal/match"
	"github.com/ironsheep/skeye/internal/percept"
)

// What differentiates an object: it crops the visual map's reference image to
// ROI and searches the input percept for that template.
type What struct {
	ROI           geom.ROI
	MinConfidence float64
}

// Invoke returns the match as a child of the input percept, or a
// *ConfidenceError when it scores under MinConfidence.
func (w What) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	in, err := perceptArg(args)
	if err != nil {
		return nil, err
	}
	if env.Map == nil {
		return nil, ErrNoMap
	}

	template, err := geom.Crop(env.Map.Reference, w.ROI)
	if err != nil {
		return nil, fmt.Errorf("template %s: %w", w.ROI, err)
	}
	m, err := match.Search(in.Data(), template)
	if err != nil {
		return nil, err
	}

	if m.Truncated {
		env.Log.Warn().
			Stringer("template", w.ROI).
			Stringer("spot", m.Region()).
			Msg("match truncated at frame edge")
	}
	if m.Confidence < w.MinConfidence {
		env.Log.Debug().
			Float64("confidence", m.Confidence).
			Float64("min", w.MinConfidence).
			Stringer("template", w.ROI).
			Msg("match rejected")
		return nil, &ConfidenceError{Confidence: m.Confidence, Min: w.MinConfidence}
	}
	return percept.New(m.Spot, m.TopLeft, in), nil
}

func (What) command() {}

// Where integrates a located object into the zone it overlaps most.
//
// Every position the percept covers in its parent's frame votes for each ROI
// of Zone containing it. The winner is the ROI that first reached the
// highest count while scanning positions row by row. The result is a new
// percept spanning the winning ROI inside the same parent. A root percept
// votes in scene coordinates and is narrowed to the part of its own data the
// winner covers. When no position falls in any ROI the input comes back
// unchanged.
type Where struct {
	Zone string
}

// Invoke narrows the input percept to the zone it overlaps most.
func (w Where) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	in, err := perceptArg(args)
	if err != nil {
		return nil, err
	}
	if env.Map == nil {
		return nil, ErrNoMap
	}
	rois, err := env.Map.Zone(w.Zone)
	if err != nil {
		return nil, err
	}

	winner, ok := vote(in.Local(), rois)
	if !ok {
		env.Log.Debug().Str("zone", w.Zone).Stringer("region", in.Region()).Msg("no zone hit")
		return in, nil
	}

	parent := in.Parent()
	if parent == nil {
		origin := in.Offset()
		data, used := geom.CropClip(in.Data(), winner.Translate(geom.Point{Row: -origin.Row, Col: -origin.Col}))
		if data == nil {
			return in, nil
		}
		return percept.New(data, used.Translate(origin).TopLeft(), nil), nil
	}

	data, used := geom.CropClip(parent.Data(), winner)
	if data == nil {
		return in, nil
	}
	return percept.New(data, used.TopLeft(), parent), nil
}

func (Where) command() {}

// vote tallies, for every position of region, each ROI of rois containing it.
// A candidate takes the lead only by strictly exceeding the current top count.
func vote(region geom.ROI, rois []geom.ROI) (geom.ROI, bool) {
	var (
		counts = make(map[geom.ROI]int, len(rois))
		top    int
		winner geom.ROI
	)
	for r := region.Rows.Start; r < region.Rows.End; r++ {
		for c := region.Cols.Start; c < region.Cols.End; c++ {
			p := geom.Point{Row: r, Col: c}
			for _, roi := range rois {
				if !roi.Contains(p) {
					continue
				}
				counts[roi]++
				if n := counts[roi]; n > top {
					top = n
					winner = roi
				}
			}
		}
	}
	return winner, top > 0
}
