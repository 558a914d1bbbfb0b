package cogs

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/ironsheep/skeye/internal/capture"
	"github.com/ironsheep/skeye/internal/geom"
	"github.com/ironsheep/skeye/internal/percept"
)

// PollPolicy bounds the polling loop of Locate. Zero limits mean unbounded.
type PollPolicy struct {
	// Delay is the pause before every acquisition, including the first.
	Delay time.Duration
	// MaxAttempts caps the number of acquisitions.
	MaxAttempts int
	// MaxDuration caps the time spent polling.
	MaxDuration time.Duration
	// SkipUnchanged skips evaluating frames whose difference hash equals that
	// of the previously rejected frame.
	SkipUnchanged bool
}

// Locate finds a labelled object from one of the bot's visual maps.
//
// Given an input percept, Locate evaluates the descriptor on it once. Without
// one, it polls: wait, acquire a frame from Source (or the Env's source),
// separate it and evaluate, retrying only when the match scores below
// confidence. Any other failure stops the loop.
type Locate struct {
	Map    int
	Label  string
	Source capture.Source
	Poll   PollPolicy
}

// Invoke evaluates the descriptor on the input percept, or polls when there is none.
func (l *Locate) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	m, err := env.Memory.At(l.Map)
	if err != nil {
		return nil, err
	}
	d, err := m.Descriptor(l.Label)
	if err != nil {
		return nil, err
	}

	if len(args) > 0 && args[0] != nil {
		in, err := perceptArg(args)
		if err != nil {
			return nil, err
		}
		return m.evaluate(ctx, d, in, env)
	}
	return l.poll(ctx, m, d, env)
}

func (*Locate) command() {}

func (l *Locate) poll(ctx context.Context, m *VisualMap, d *Descriptor, env *Env) (*percept.Percept, error) {
	log := env.Log.With().Int("map", l.Map).Str("label", l.Label).Logger()
	start := time.Now()

	var (
		last     error
		lastHash *goimagehash.ImageHash
	)
	for attempt := 1; ; attempt++ {
		if l.Poll.MaxAttempts > 0 && attempt > l.Poll.MaxAttempts {
			return nil, exhausted(attempt-1, last)
		}
		if l.Poll.MaxDuration > 0 && attempt > 1 && time.Since(start) >= l.Poll.MaxDuration {
			return nil, exhausted(attempt-1, last)
		}
		if err := sleep(ctx, l.Poll.Delay); err != nil {
			return nil, err
		}

		frame, img, err := env.perceive(ctx, l.Source)
		if err != nil {
			return nil, fmt.Errorf("acquire frame: %w", err)
		}

		var hash *goimagehash.ImageHash
		if l.Poll.SkipUnchanged {
			hash = frameHash(img)
			if unchanged(hash, lastHash) {
				log.Debug().Int("attempt", attempt).Msg("frame unchanged, skipped")
				continue
			}
		}

		p, err := m.evaluate(ctx, d, frame, env)
		if err == nil {
			log.Debug().Int("attempt", attempt).Stringer("region", p.Region()).Msg("located")
			return p, nil
		}
		if !errors.Is(err, ErrBelowConfidence) {
			return nil, err
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("no match yet")
		last = err
		lastHash = hash
	}
}

func exhausted(attempts int, last error) error {
	if last == nil {
		return fmt.Errorf("%w after %d attempts", ErrPollExhausted, attempts)
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrPollExhausted, attempts, last)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func frameHash(img image.Image) *goimagehash.ImageHash {
	h, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return nil
	}
	return h
}

func unchanged(a, b *goimagehash.ImageHash) bool {
	if a == nil || b == nil {
		return false
	}
	d, err := a.Distance(b)
	return err == nil && d == 0
}

// Look acquires a frame and runs a single What step over all of it, against
// the visual map in scope.
type Look struct {
	Source        capture.Source
	ROI           geom.ROI
	MinConfidence float64
}

// Invoke acquires a frame and searches it.
func (l *Look) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	frame, _, err := env.perceive(ctx, l.Source)
	if err != nil {
		return nil, fmt.Errorf("acquire frame: %w", err)
	}
	return What{ROI: l.ROI, MinConfidence: l.MinConfidence}.Invoke(ctx, Args{frame}, env)
}

func (*Look) command() {}

// Lookout runs Perceptor with the Map-th visual map in scope, then locates
// each of Labels inside the percept it returns. Outputs come back as a
// []Value in label order.
type Lookout struct {
	Perceptor Command
	Map       int
	Labels    []string
}

// Invoke runs the perceptor and locates every label inside its result.
func (l *Lookout) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	m, err := env.Memory.At(l.Map)
	if err != nil {
		return nil, err
	}
	scoped := env.withMap(m)

	out, err := l.Perceptor.Invoke(ctx, args, scoped)
	if err != nil {
		return nil, err
	}
	in, err := perceptArg(Args{out})
	if err != nil {
		return nil, err
	}

	found := make([]Value, 0, len(l.Labels))
	for _, label := range l.Labels {
		p, err := m.Locate(ctx, label, in, scoped)
		if err != nil {
			return nil, err
		}
		found = append(found, p)
	}
	return found, nil
}

func (*Lookout) command() {}

// Zoomin runs Perceptor once and hands its output to each of Actions. Outputs
// come back as a []Value in action order.
type Zoomin struct {
	Perceptor Command
	Actions   []Command
}

// Invoke runs the perceptor and each action on its result.
func (z *Zoomin) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	in, err := z.Perceptor.Invoke(ctx, args, env)
	if err != nil {
		return nil, err
	}
	outs := make([]Value, 0, len(z.Actions))
	for _, a := range z.Actions {
		out, err := a.Invoke(ctx, Args{in}, env)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func (*Zoomin) command() {}
