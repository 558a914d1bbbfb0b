// Package script turns a loaded bot script into a runnable cogs.Bot.
package script

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ironsheep/skeye/internal/capture"
	"github.com/ironsheep/skeye/internal/cogs"
	"github.com/ironsheep/skeye/internal/config"
	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/geom"
	"github.com/ironsheep/skeye/internal/mark"
	"github.com/ironsheep/skeye/internal/plane"
)

// Deps are the collaborators a bot runs against.
type Deps struct {
	Images   *capture.ImageCache
	Planes   *plane.Cache
	Live     capture.Source // used by Locate and Look without a source
	Effector effector.Effector
}

func (d *Deps) defaults() {
	if d.Images == nil {
		d.Images = capture.NewImageCache()
	}
	if d.Planes == nil {
		d.Planes = plane.NewCache(0)
	}
	if d.Live == nil {
		d.Live = capture.Screen{}
	}
	if d.Effector == nil {
		d.Effector = effector.NewDesktop()
	}
}

// Build loads the reference images of s and assembles its bot and the
// environment to run it in.
func Build(ctx context.Context, s *config.Script, d Deps, log zerolog.Logger) (*cogs.Bot, *cogs.Env, error) {
	d.defaults()
	b := builder{script: s, deps: d}

	memory := make(cogs.Memory, 0, len(s.Memory))
	for i, m := range s.Memory {
		vm, err := b.visualMap(ctx, m)
		if err != nil {
			return nil, nil, fmt.Errorf("memory[%d]: %w", i, err)
		}
		memory = append(memory, vm)
	}

	commands := make([]cogs.Command, 0, len(s.Commands))
	for i, c := range s.Commands {
		cmd, err := b.command(c)
		if err != nil {
			return nil, nil, fmt.Errorf("commands[%d]: %w", i, err)
		}
		commands = append(commands, cmd)
	}

	marker, err := mark.NewMarker(s.MarkColor, d.Images)
	if err != nil {
		return nil, nil, err
	}
	env := &cogs.Env{
		Planes:   d.Planes,
		Source:   d.Live,
		Effector: d.Effector,
		Marker:   marker,
		Log:      log,
	}

	log.Debug().Int("maps", len(memory)).Int("commands", len(commands)).Msg("bot built")
	return cogs.NewBot(memory, commands...), env, nil
}

type builder struct {
	script *config.Script
	deps   Deps
}

func (b *builder) visualMap(ctx context.Context, m config.Map) (*cogs.VisualMap, error) {
	src := capture.Resized{
		Source: capture.Still{Path: m.Reference, Cache: b.deps.Images},
		Width:  m.Width,
		Height: m.Height,
	}
	img, err := src.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := b.deps.Planes.Separate(img)
	if err != nil {
		return nil, fmt.Errorf("reference %s: %w", m.Reference, err)
	}

	vm := cogs.NewVisualMap(ref)
	for name, regions := range m.Zones {
		rois := make([]geom.ROI, len(regions))
		for i, r := range regions {
			rois[i] = r.ROI()
		}
		vm.Zones[strings.ToLower(name)] = rois
	}
	for _, d := range m.Descriptors {
		steps := make([]cogs.Command, 0, len(d.Steps))
		for _, st := range d.Steps {
			if st.What != nil {
				steps = append(steps, cogs.What{ROI: st.What.ROI(), MinConfidence: st.What.MinConfidence})
			} else {
				steps = append(steps, cogs.Where{Zone: strings.ToLower(st.Where)})
			}
		}
		vm.Descriptors = append(vm.Descriptors, cogs.Describe(d.Label, steps...))
	}
	return vm, nil
}

func (b *builder) source(path string) capture.Source {
	if path == "" {
		return nil
	}
	return capture.Still{Path: path, Cache: b.deps.Images}
}

func (b *builder) commands(list []config.Command) ([]cogs.Command, error) {
	out := make([]cogs.Command, 0, len(list))
	for i, c := range list {
		cmd, err := b.command(c)
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out = append(out, cmd)
	}
	return out, nil
}

func (b *builder) command(c config.Command) (cogs.Command, error) {
	switch c.Kind() {
	case "pipe":
		cmds, err := b.commands(c.Pipe)
		return cogs.Pipe(cmds), err
	case "batch":
		cmds, err := b.commands(c.Batch)
		return cogs.Batch(cmds), err
	case "locate":
		poll := c.Locate.Poll.Apply(b.script.Poll)
		return &cogs.Locate{
			Map:    c.Locate.Map,
			Label:  c.Locate.Label,
			Source: b.source(c.Locate.Source),
			Poll: cogs.PollPolicy{
				Delay:         poll.Delay,
				MaxAttempts:   poll.MaxAttempts,
				MaxDuration:   poll.MaxDuration,
				SkipUnchanged: poll.SkipUnchanged,
			},
		}, nil
	case "look":
		return &cogs.Look{
			Source:        b.source(c.Look.Source),
			ROI:           c.Look.Region.ROI(),
			MinConfidence: c.Look.MinConfidence,
		}, nil
	case "lookout":
		p, err := b.command(c.Lookout.Perceptor)
		if err != nil {
			return nil, fmt.Errorf("perceptor: %w", err)
		}
		return &cogs.Lookout{Perceptor: p, Map: c.Lookout.Map, Labels: c.Lookout.Labels}, nil
	case "zoomin":
		p, err := b.command(c.Zoomin.Perceptor)
		if err != nil {
			return nil, fmt.Errorf("perceptor: %w", err)
		}
		actions, err := b.commands(c.Zoomin.Actions)
		if err != nil {
			return nil, fmt.Errorf("actions%w", err)
		}
		return &cogs.Zoomin{Perceptor: p, Actions: actions}, nil
	case "click":
		button, err := effector.ParseButton(c.Click)
		if err != nil {
			return nil, err
		}
		return cogs.Click{Button: button}, nil
	case "run":
		return cogs.Run{Command: c.Run}, nil
	case "write":
		return cogs.Write{Text: c.Write}, nil
	case "mark":
		return cogs.Mark{Source: c.Mark.Source, SaveAs: c.Mark.SaveAs}, nil
	}
	return nil, fmt.Errorf("unsupported command %q", c.Kind())
}
