package cogs

import (
	"context"
	"fmt"

	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/mark"
)

// Click clicks the centre of the input percept and passes the percept on.
type Click struct {
	Button effector.Button
}

// Invoke clicks the centre of the input percept and returns the percept.
func (c Click) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	p, err := perceptArg(args)
	if err != nil {
		return nil, err
	}
	if env.Effector == nil {
		return nil, ErrNoEffector
	}
	x, y := p.Center().XY()
	env.Log.Info().Int("x", x).Int("y", y).Stringer("button", c.Button).Msg("click")
	if err := env.Effector.Click(x, y, c.Button); err != nil {
		return nil, fmt.Errorf("click at (%d, %d): %w", x, y, err)
	}
	return p, nil
}

func (Click) command() {}

// Run launches a program.
type Run struct {
	Command string
}

// Invoke starts the command through the effector.
func (r Run) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	if env.Effector == nil {
		return nil, ErrNoEffector
	}
	env.Log.Info().Str("command", r.Command).Msg("run")
	if err := env.Effector.Run(r.Command); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	return nil, nil
}

func (Run) command() {}

// Write types text.
type Write struct {
	Text string
}

// Invoke types the text through the effector.
func (w Write) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	if env.Effector == nil {
		return nil, ErrNoEffector
	}
	env.Log.Info().Int("chars", len(w.Text)).Msg("write")
	if err := env.Effector.Write(w.Text); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	return nil, nil
}

func (Write) command() {}

// Mark outlines the input percept's region on a copy of the image at Source
// and saves it to SaveAs. A nil input is passed through without drawing.
type Mark struct {
	Source string
	SaveAs string
}

// Invoke outlines the input percept and returns it.
func (m Mark) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	if len(args) == 0 || args[0] == nil {
		return nil, nil
	}
	p, err := perceptArg(args)
	if err != nil {
		return nil, err
	}

	marker := env.Marker
	if marker == nil {
		if marker, err = mark.NewMarker("", nil); err != nil {
			return nil, err
		}
	}
	if err := marker.Mark(m.Source, m.SaveAs, p.Region()); err != nil {
		return nil, err
	}
	env.Log.Debug().Str("dest", m.SaveAs).Stringer("region", p.Region()).Msg("marked")
	return p, nil
}

func (Mark) command() {}
