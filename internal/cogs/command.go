package cogs

import (
	"context"
	"image"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/capture"
	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/mark"
	"github.com/ironsheep/skeye/internal/percept"
	"github.com/ironsheep/skeye/internal/plane"
)

// Value is anything a command returns: usually a *percept.Percept, a []Value
// of collected outputs, Args, or nil.
type Value any

// Args is the positional input of a command. A command that returns Args
// hands them to the next command of a Pipe as-is instead of as one argument.
type Args []Value

// Command is a step that can be composed into batches and pipes.
//
// The set of commands is closed; Func adapts arbitrary functions.
type Command interface {
	Invoke(ctx context.Context, args Args, env *Env) (Value, error)
	command()
}

// Env is the context shared by every command of a run.
type Env struct {
	// Memory is the bot's list of visual maps.
	Memory Memory
	// Map is the visual map descriptor steps currently evaluate against.
	Map *VisualMap

	Planes   *plane.Cache
	Source   capture.Source
	Effector effector.Effector
	Marker   *mark.Marker
	Log      zerolog.Logger
}

// withMap returns a shallow copy of e scoped to m.
func (e *Env) withMap(m *VisualMap) *Env {
	c := *e
	c.Map = m
	return &c
}

// perceive acquires a frame from src and separates it into a root percept.
func (e *Env) perceive(ctx context.Context, src capture.Source) (*percept.Percept, image.Image, error) {
	if src == nil {
		src = e.Source
	}
	if src == nil {
		return nil, nil, ErrNoSource
	}
	img, err := src.Acquire(ctx)
	if err != nil {
		return nil, nil, err
	}
	data, err := e.separate(img)
	if err != nil {
		return nil, nil, err
	}
	return percept.Root(data), img, nil
}

func (e *Env) separate(img image.Image) (*mat.Dense, error) {
	if e.Planes == nil {
		return nil, ErrNoPlanes
	}
	return e.Planes.Separate(img)
}

// Func adapts a plain function to a Command.
type Func func(ctx context.Context, args Args, env *Env) (Value, error)

// Invoke calls f.
func (f Func) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	return f(ctx, args, env)
}

func (Func) command() {}

// Batch invokes every command with the same input and returns their outputs,
// as a []Value, in order. Each command gets its own copy of the input, so a
// command that rewrites its arguments cannot affect the others. The first
// error aborts the batch.
type Batch []Command

// Invoke runs each command on its own copy of args.
func (b Batch) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	outs := make([]Value, 0, len(b))
	for _, c := range b {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := c.Invoke(ctx, append(Args(nil), args...), env)
		if err != nil {
			return nil, err
		}
		outs = append(outs, out)
	}
	return outs, nil
}

func (Batch) command() {}

// Pipe invokes its commands in sequence. The first one receives the pipe's
// input; each later one receives the previous output, passed through when it
// is Args and wrapped as a single argument otherwise. The result is the last
// output. An error aborts the pipe with no partial result.
type Pipe []Command

// Invoke threads args through the commands and returns the last output.
func (p Pipe) Invoke(ctx context.Context, args Args, env *Env) (Value, error) {
	var out Value = args
	for _, c := range p {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := c.Invoke(ctx, args, env)
		if err != nil {
			return nil, err
		}
		out = next
		if a, ok := next.(Args); ok {
			args = a
		} else {
			args = Args{next}
		}
	}
	return out, nil
}

func (Pipe) command() {}

// Bot is a programmable agent: a memory of visual maps plus a batch of
// top-level commands.
type Bot struct {
	Memory   Memory
	Commands Batch
}

// NewBot creates a bot from its memory and commands.
func NewBot(memory Memory, commands ...Command) *Bot {
	return &Bot{Memory: memory, Commands: Batch(commands)}
}

// Run executes the bot's commands once, with no input, and returns their
// outputs in order.
func (b *Bot) Run(ctx context.Context, env *Env) ([]Value, error) {
	scoped := *env
	scoped.Memory = b.Memory
	out, err := b.Commands.Invoke(ctx, nil, &scoped)
	if err != nil {
		return nil, err
	}
	return out.([]Value), nil
}

// perceptArg returns the first argument as a percept.
func perceptArg(args Args) (*percept.Percept, error) {
	if len(args) == 0 {
		return nil, ErrNoPercept
	}
	p, ok := args[0].(*percept.Percept)
	if !ok || p == nil {
		return nil, ErrNoPercept
	}
	return p, nil
}
