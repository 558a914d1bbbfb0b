// Package config loads bot scripts: the visual maps a bot remembers and the
// commands it runs.
//
// Scripts are YAML, JSON or TOML files (chosen by extension) read through
// viper. Settings outside memory and commands can be overridden with SKEYE_*
// environment variables, e.g. SKEYE_POLL_DELAY=250ms.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/geom"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid script")

// Script is a complete bot description.
type Script struct {
	LogLevel  string    `mapstructure:"log_level"`
	LogFile   string    `mapstructure:"log_file"`
	MarkColor string    `mapstructure:"mark_color"`
	Poll      Poll      `mapstructure:"poll"`
	Memory    []Map     `mapstructure:"memory"`
	Commands  []Command `mapstructure:"commands"`
}

// Poll holds the default polling policy of live Locate commands.
type Poll struct {
	Delay         time.Duration `mapstructure:"delay"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	MaxDuration   time.Duration `mapstructure:"max_duration"`
	SkipUnchanged bool          `mapstructure:"skip_unchanged"`
}

// Map is one visual map: a reference image, optionally resized on load, its
// descriptors and its zones.
type Map struct {
	Reference   string              `mapstructure:"reference"`
	Width       int                 `mapstructure:"width"`
	Height      int                 `mapstructure:"height"`
	Descriptors []Descriptor        `mapstructure:"descriptors"`
	Zones       map[string][]Region `mapstructure:"zones"`
}

// Region is a rectangle given as [start, end) row and column ranges.
type Region struct {
	Rows []int `mapstructure:"rows"`
	Cols []int `mapstructure:"cols"`
}

// ROI converts the region. It assumes Validate passed.
func (r Region) ROI() geom.ROI {
	return geom.NewROI(r.Rows[0], r.Rows[1], r.Cols[0], r.Cols[1])
}

// Descriptor is a labelled sequence of steps.
type Descriptor struct {
	Label string `mapstructure:"label"`
	Steps []Step `mapstructure:"steps"`
}

// Step is either a what or a where step.
type Step struct {
	What  *What  `mapstructure:"what"`
	Where string `mapstructure:"where"`
}

// What locates a crop of the reference image.
type What struct {
	Region        `mapstructure:",squash"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// Command is one node of the command tree. Exactly one field is set.
type Command struct {
	Pipe    []Command `mapstructure:"pipe"`
	Batch   []Command `mapstructure:"batch"`
	Locate  *Locate   `mapstructure:"locate"`
	Look    *Look     `mapstructure:"look"`
	Lookout *Lookout  `mapstructure:"lookout"`
	Zoomin  *Zoomin   `mapstructure:"zoomin"`
	Click   string    `mapstructure:"click"`
	Run     string    `mapstructure:"run"`
	Write   string    `mapstructure:"write"`
	Mark    *Mark     `mapstructure:"mark"`
}

// Locate finds a labelled object. An empty Source polls the screen.
type Locate struct {
	Map    int           `mapstructure:"map"`
	Label  string        `mapstructure:"label"`
	Source string        `mapstructure:"source"`
	Poll   *PollOverride `mapstructure:"poll"`
}

// PollOverride replaces single fields of the script's poll policy. Unset
// fields keep the script's values.
type PollOverride struct {
	Delay         *time.Duration `mapstructure:"delay"`
	MaxAttempts   *int           `mapstructure:"max_attempts"`
	MaxDuration   *time.Duration `mapstructure:"max_duration"`
	SkipUnchanged *bool          `mapstructure:"skip_unchanged"`
}

// Apply returns base with the fields set in o replaced. A nil o returns base.
func (o *PollOverride) Apply(base Poll) Poll {
	if o == nil {
		return base
	}
	if o.Delay != nil {
		base.Delay = *o.Delay
	}
	if o.MaxAttempts != nil {
		base.MaxAttempts = *o.MaxAttempts
	}
	if o.MaxDuration != nil {
		base.MaxDuration = *o.MaxDuration
	}
	if o.SkipUnchanged != nil {
		base.SkipUnchanged = *o.SkipUnchanged
	}
	return base
}

// Look runs one what step over a freshly acquired frame.
type Look struct {
	Source        string `mapstructure:"source"`
	Region        `mapstructure:",squash"`
	MinConfidence float64 `mapstructure:"min_confidence"`
}

// Lookout locates several labels inside the perceptor's result.
type Lookout struct {
	Perceptor Command  `mapstructure:"perceptor"`
	Map       int      `mapstructure:"map"`
	Labels    []string `mapstructure:"labels"`
}

// Zoomin feeds the perceptor's result to several actions.
type Zoomin struct {
	Perceptor Command   `mapstructure:"perceptor"`
	Actions   []Command `mapstructure:"actions"`
}

// Mark outlines the input percept on Source and saves it to SaveAs.
type Mark struct {
	Source string `mapstructure:"source"`
	SaveAs string `mapstructure:"save_as"`
}

// Load reads and validates the script at path. Relative image paths are
// resolved against the script's directory.
func Load(path string) (*Script, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("SKEYE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("mark_color", "#ff0000")
	v.SetDefault("poll.delay", time.Second)
	v.SetDefault("poll.max_attempts", 0)
	v.SetDefault("poll.max_duration", time.Duration(0))
	v.SetDefault("poll.skip_unchanged", false)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read script %s: %w", path, err)
	}

	var s Script
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to decode script %s: %w", path, err)
	}
	s.resolve(filepath.Dir(path))

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) resolve(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i := range s.Memory {
		m := &s.Memory[i]
		m.Reference = abs(m.Reference)
		// viper lowercases map keys, so zone references follow suit.
		for j := range m.Descriptors {
			for k := range m.Descriptors[j].Steps {
				st := &m.Descriptors[j].Steps[k]
				st.Where = strings.ToLower(st.Where)
			}
		}
	}
	if s.LogFile != "" {
		s.LogFile = abs(s.LogFile)
	}

	var walk func(c *Command)
	walk = func(c *Command) {
		for i := range c.Pipe {
			walk(&c.Pipe[i])
		}
		for i := range c.Batch {
			walk(&c.Batch[i])
		}
		switch {
		case c.Locate != nil:
			c.Locate.Source = abs(c.Locate.Source)
		case c.Look != nil:
			c.Look.Source = abs(c.Look.Source)
		case c.Lookout != nil:
			walk(&c.Lookout.Perceptor)
		case c.Zoomin != nil:
			walk(&c.Zoomin.Perceptor)
			for i := range c.Zoomin.Actions {
				walk(&c.Zoomin.Actions[i])
			}
		case c.Mark != nil:
			c.Mark.Source = abs(c.Mark.Source)
			c.Mark.SaveAs = abs(c.Mark.SaveAs)
		}
	}
	for i := range s.Commands {
		walk(&s.Commands[i])
	}
}

// Validate checks the script for structural errors.
func (s *Script) Validate() error {
	if s.Poll.Delay < 0 || s.Poll.MaxAttempts < 0 || s.Poll.MaxDuration < 0 {
		return fmt.Errorf("%w: poll limits must not be negative", ErrInvalid)
	}

	for i, m := range s.Memory {
		if m.Reference == "" {
			return fmt.Errorf("%w: memory[%d]: reference image required", ErrInvalid, i)
		}
		if m.Width < 0 || m.Height < 0 {
			return fmt.Errorf("%w: memory[%d]: negative resize", ErrInvalid, i)
		}
		for name, regions := range m.Zones {
			for j, r := range regions {
				if err := r.validate(); err != nil {
					return fmt.Errorf("%w: memory[%d].zones.%s[%d]: %v", ErrInvalid, i, name, j, err)
				}
			}
		}
		seen := make(map[string]bool)
		for j, d := range m.Descriptors {
			if err := d.validate(m, seen); err != nil {
				return fmt.Errorf("%w: memory[%d].descriptors[%d]: %v", ErrInvalid, i, j, err)
			}
		}
	}

	for i, c := range s.Commands {
		if err := c.validate(s, false); err != nil {
			return fmt.Errorf("%w: commands[%d]: %v", ErrInvalid, i, err)
		}
	}
	return nil
}

func (r Region) validate() error {
	for _, span := range []struct {
		name string
		v    []int
	}{{"rows", r.Rows}, {"cols", r.Cols}} {
		if len(span.v) != 2 {
			return fmt.Errorf("%s must be [start, end]", span.name)
		}
		if span.v[0] < 0 || span.v[0] >= span.v[1] {
			return fmt.Errorf("%s %v must satisfy 0 <= start < end", span.name, span.v)
		}
	}
	return nil
}

func (d Descriptor) validate(m Map, seen map[string]bool) error {
	if d.Label == "" {
		return errors.New("label required")
	}
	if seen[d.Label] {
		return fmt.Errorf("duplicate label %q", d.Label)
	}
	seen[d.Label] = true
	if len(d.Steps) == 0 {
		return fmt.Errorf("%q: at least one step required", d.Label)
	}
	for k, st := range d.Steps {
		switch {
		case st.What != nil && st.Where != "":
			return fmt.Errorf("%q step %d: what and where are exclusive", d.Label, k)
		case st.What != nil:
			if err := st.What.Region.validate(); err != nil {
				return fmt.Errorf("%q step %d: %v", d.Label, k, err)
			}
		case st.Where != "":
			if _, ok := m.Zones[st.Where]; !ok {
				return fmt.Errorf("%q step %d: unknown zone %q", d.Label, k, st.Where)
			}
		default:
			return fmt.Errorf("%q step %d: empty step", d.Label, k)
		}
	}
	return nil
}

// Kind returns the name of the command's variant, or "" when none is set.
func (c Command) Kind() string {
	var kinds []string
	if c.Pipe != nil {
		kinds = append(kinds, "pipe")
	}
	if c.Batch != nil {
		kinds = append(kinds, "batch")
	}
	if c.Locate != nil {
		kinds = append(kinds, "locate")
	}
	if c.Look != nil {
		kinds = append(kinds, "look")
	}
	if c.Lookout != nil {
		kinds = append(kinds, "lookout")
	}
	if c.Zoomin != nil {
		kinds = append(kinds, "zoomin")
	}
	if c.Click != "" {
		kinds = append(kinds, "click")
	}
	if c.Run != "" {
		kinds = append(kinds, "run")
	}
	if c.Write != "" {
		kinds = append(kinds, "write")
	}
	if c.Mark != nil {
		kinds = append(kinds, "mark")
	}
	return strings.Join(kinds, ",")
}

// validate checks c. inMap reports whether a lookout has put a visual map in
// scope, which look commands need.
func (c Command) validate(s *Script, inMap bool) error {
	kind := c.Kind()
	switch kind {
	case "":
		return errors.New("empty command")
	case "pipe", "batch":
		list := c.Pipe
		if kind == "batch" {
			list = c.Batch
		}
		for i, sub := range list {
			if err := sub.validate(s, inMap); err != nil {
				return fmt.Errorf("%s[%d]: %v", kind, i, err)
			}
		}
	case "locate":
		if err := s.checkLabel(c.Locate.Map, c.Locate.Label); err != nil {
			return err
		}
		if p := c.Locate.Poll.Apply(Poll{}); p.Delay < 0 || p.MaxAttempts < 0 || p.MaxDuration < 0 {
			return errors.New("poll limits must not be negative")
		}
	case "look":
		if !inMap {
			return errors.New("look needs a visual map in scope; use it inside a lookout perceptor")
		}
		if err := c.Look.Region.validate(); err != nil {
			return fmt.Errorf("look: %v", err)
		}
	case "lookout":
		if err := c.Lookout.Perceptor.validate(s, true); err != nil {
			return fmt.Errorf("lookout perceptor: %v", err)
		}
		for _, l := range c.Lookout.Labels {
			if err := s.checkLabel(c.Lookout.Map, l); err != nil {
				return err
			}
		}
	case "zoomin":
		if err := c.Zoomin.Perceptor.validate(s, inMap); err != nil {
			return fmt.Errorf("zoomin perceptor: %v", err)
		}
		for i, a := range c.Zoomin.Actions {
			if err := a.validate(s, inMap); err != nil {
				return fmt.Errorf("zoomin actions[%d]: %v", i, err)
			}
		}
	case "click":
		if _, err := effector.ParseButton(c.Click); err != nil {
			return err
		}
	case "run", "write":
	case "mark":
		if c.Mark.Source == "" || c.Mark.SaveAs == "" {
			return errors.New("mark needs source and save_as")
		}
	default:
		return fmt.Errorf("command sets several kinds: %s", kind)
	}
	return nil
}

func (s *Script) checkLabel(index int, label string) error {
	if index < 0 || index >= len(s.Memory) {
		return fmt.Errorf("map %d not in memory (%d maps)", index, len(s.Memory))
	}
	for _, d := range s.Memory[index].Descriptors {
		if d.Label == label {
			return nil
		}
	}
	return fmt.Errorf("map %d has no descriptor %q", index, label)
}
