package cogs

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/plane"
)

// grayNoise returns a reproducible random grayscale image.
func grayNoise(seed int64, w, h int) *image.Gray {
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	return img
}

func newEnv(t *testing.T) (*Env, *effector.Recorder) {
	t.Helper()
	rec := &effector.Recorder{}
	return &Env{
		Planes:   plane.NewCache(0),
		Effector: rec,
		Log:      zerolog.Nop(),
	}, rec
}

// add returns a step that adds n to its single int argument and records
// the env it saw.
func add(n int, trace *[]string, name string, seen *[]*Env) Func {
	return func(ctx context.Context, args Args, env *Env) (Value, error) {
		*trace = append(*trace, name)
		*seen = append(*seen, env)
		return args[0].(int) + n, nil
	}
}

func TestPipe_ComposesInOrder(t *testing.T) {
	env, _ := newEnv(t)
	var trace []string
	var seen []*Env

	f := add(1, &trace, "f", &seen)
	g := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		trace = append(trace, "g")
		seen = append(seen, env)
		return args[0].(int) * 10, nil
	})
	h := add(-3, &trace, "h", &seen)

	out, err := Pipe{f, g, h}.Invoke(context.Background(), Args{4}, env)
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if out != (4+1)*10-3 {
		t.Errorf("got %v, want %d", out, (4+1)*10-3)
	}
	if !reflect.DeepEqual(trace, []string{"f", "g", "h"}) {
		t.Errorf("call order: %v", trace)
	}
	for i, e := range seen {
		if e != env {
			t.Errorf("step %d saw a different env", i)
		}
	}
}

func TestPipe_AbortsOnError(t *testing.T) {
	env, _ := newEnv(t)
	hCalled := false

	f := Func(func(ctx context.Context, args Args, env *Env) (Value, error) { return 1, nil })
	g := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		return nil, &ConfidenceError{Confidence: 0.2, Min: 0.9}
	})
	h := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		hCalled = true
		return 3, nil
	})

	out, err := Pipe{f, g, h}.Invoke(context.Background(), Args{0}, env)
	if !errors.Is(err, ErrBelowConfidence) {
		t.Fatalf("expected ErrBelowConfidence, got %v", err)
	}
	if out != nil {
		t.Errorf("expected no partial output, got %v", out)
	}
	if hCalled {
		t.Error("step after the failing one was invoked")
	}
}

func TestPipe_ArgsPassThrough(t *testing.T) {
	env, _ := newEnv(t)

	split := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		return Args{args[0], "extra"}, nil
	})
	count := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		return len(args), nil
	})
	wrap := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		return []Value{"a", "b", "c"}, nil
	})

	tests := []struct {
		name string
		pipe Pipe
		want Value
	}{
		{"args are spread", Pipe{split, count}, 2},
		{"other slices are wrapped", Pipe{wrap, count}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := tt.pipe.Invoke(context.Background(), Args{"x"}, env)
			if err != nil {
				t.Fatal(err)
			}
			if out != tt.want {
				t.Errorf("got %v, want %v", out, tt.want)
			}
		})
	}
}

func TestPipe_Empty(t *testing.T) {
	env, _ := newEnv(t)
	out, err := Pipe{}.Invoke(context.Background(), Args{7}, env)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, Args{7}) {
		t.Errorf("empty pipe should return its input, got %v", out)
	}
}

func TestBatch_SameInputOrderedOutputs(t *testing.T) {
	env, _ := newEnv(t)
	side := 0
	input := &mat.Dense{}

	step := func(id int) Func {
		return func(ctx context.Context, args Args, env *Env) (Value, error) {
			if len(args) != 1 || args[0] != input {
				t.Errorf("step %d got %v, want the original input", id, args)
			}
			side += id
			return id * side, nil
		}
	}

	out, err := Batch{step(1), step(2), step(3)}.Invoke(context.Background(), Args{input}, env)
	if err != nil {
		t.Fatal(err)
	}
	want := []Value{1 * 1, 2 * 3, 3 * 6}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("got %v, want %v", out, want)
	}
}

func TestBatch_StepsCannotRewriteSharedInput(t *testing.T) {
	env, _ := newEnv(t)

	clobber := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		args[0] = "clobbered"
		return nil, nil
	})
	read := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		return args[0], nil
	})

	in := Args{"x"}
	out, err := Batch{clobber, read}.Invoke(context.Background(), in, env)
	if err != nil {
		t.Fatal(err)
	}
	if got := out.([]Value)[1]; got != "x" {
		t.Errorf("second step got %v, want x", got)
	}
	if in[0] != "x" {
		t.Errorf("caller's args changed to %v", in)
	}
}

func TestBatch_AbortsOnError(t *testing.T) {
	env, _ := newEnv(t)
	boom := errors.New("boom")
	called := 0

	ok := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		called++
		return nil, nil
	})
	fail := Func(func(ctx context.Context, args Args, env *Env) (Value, error) { return nil, boom })

	if _, err := (Batch{ok, fail, ok}).Invoke(context.Background(), nil, env); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if called != 1 {
		t.Errorf("steps after the failure ran: called=%d", called)
	}
}

func TestBatch_Cancelled(t *testing.T) {
	env, _ := newEnv(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	step := Func(func(ctx context.Context, args Args, env *Env) (Value, error) {
		t.Error("step ran after cancellation")
		return nil, nil
	})
	if _, err := (Batch{step}).Invoke(ctx, nil, env); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMemory_At(t *testing.T) {
	m := Memory{NewVisualMap(mat.NewDense(1, 1, nil))}

	if _, err := m.At(0); err != nil {
		t.Errorf("At(0): %v", err)
	}
	for _, i := range []int{-1, 1} {
		if _, err := m.At(i); !errors.Is(err, ErrMapIndex) {
			t.Errorf("At(%d): expected ErrMapIndex, got %v", i, err)
		}
	}
}

func TestVisualMap_UnknownLabel(t *testing.T) {
	m := NewVisualMap(mat.NewDense(1, 1, nil), Describe("ok"))
	if _, err := m.Descriptor("missing"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestConfidenceError(t *testing.T) {
	var err error = &ConfidenceError{Confidence: 0.5, Min: 0.8}
	if !errors.Is(err, ErrBelowConfidence) {
		t.Error("ConfidenceError should match ErrBelowConfidence")
	}
	var ce *ConfidenceError
	if !errors.As(err, &ce) || ce.Min != 0.8 {
		t.Errorf("errors.As failed: %v", ce)
	}
}
