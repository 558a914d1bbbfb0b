package script

import (
	"context"
	"errors"
	"image"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/ironsheep/skeye/internal/capture"
	"github.com/ironsheep/skeye/internal/cogs"
	"github.com/ironsheep/skeye/internal/config"
	"github.com/ironsheep/skeye/internal/effector"
	"github.com/ironsheep/skeye/internal/percept"
)

func noisePNG(t *testing.T, dir, name string, seed int64, w, h int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	path := filepath.Join(dir, name)
	if err := imaging.Save(img, path); err != nil {
		t.Fatal(err)
	}
	return path
}

func region(r0, r1, c0, c1 int) config.Region {
	return config.Region{Rows: []int{r0, r1}, Cols: []int{c0, c1}}
}

func keypad(t *testing.T) (*config.Script, string) {
	t.Helper()
	dir := t.TempDir()
	ref := noisePNG(t, dir, "keypad.png", 1, 60, 40)

	return &config.Script{
		MarkColor: "#ff0000",
		Poll:      config.Poll{MaxAttempts: 2},
		Memory: []config.Map{{
			Reference: ref,
			Descriptors: []config.Descriptor{
				{Label: "pad", Steps: []config.Step{{What: &config.What{Region: region(5, 35, 10, 50), MinConfidence: 0.99}}}},
				{Label: "7", Steps: []config.Step{
					{What: &config.What{Region: region(12, 20, 22, 30), MinConfidence: 0.99}},
					{Where: "keys"},
				}},
			},
			Zones: map[string][]config.Region{
				// Zones are relative to the pad, the frame keys are found in.
				"keys": {region(5, 17, 10, 22), region(5, 17, 22, 34)},
			},
		}},
		Commands: []config.Command{
			{Run: "keypad-app"},
			{Zoomin: &config.Zoomin{
				Perceptor: config.Command{Locate: &config.Locate{Map: 0, Label: "pad", Source: ref}},
				Actions: []config.Command{
					{Pipe: []config.Command{
						{Locate: &config.Locate{Map: 0, Label: "7"}},
						{Click: "left"},
						{Mark: &config.Mark{Source: ref, SaveAs: filepath.Join(dir, "marked.png")}},
					}},
				},
			}},
			{Write: "7\n"},
		},
	}, dir
}

func TestBuild_RunsKeypadScript(t *testing.T) {
	s, dir := keypad(t)
	if err := s.Validate(); err != nil {
		t.Fatalf("fixture invalid: %v", err)
	}
	rec := &effector.Recorder{}

	bot, env, err := Build(context.Background(), s, Deps{Effector: rec}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(bot.Memory) != 1 || len(bot.Commands) != 3 {
		t.Fatalf("bot shape: %d maps, %d commands", len(bot.Memory), len(bot.Commands))
	}

	outs, err := bot.Run(context.Background(), env)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	key := outs[1].([]cogs.Value)[0].(*percept.Percept)
	// The 8x8 template snaps to the first key zone of the pad.
	if got, want := key.Region().String(), "rows[10:22] cols[20:32]"; got != want {
		t.Errorf("key region: got %s, want %s", got, want)
	}

	want := []effector.Call{
		{Action: "run", Arg: "keypad-app"},
		{Action: "click", X: 26, Y: 16, Button: "left"},
		{Action: "write", Arg: "7\n"},
	}
	got := rec.Calls()
	if len(got) != len(want) {
		t.Fatalf("effector calls: got %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "marked.png")); err != nil {
		t.Errorf("mark output missing: %v", err)
	}
}

func TestBuild_LiveSourceDefault(t *testing.T) {
	s, _ := keypad(t)
	live := capture.Func(func(ctx context.Context) (image.Image, error) {
		return nil, errors.New("no display")
	})

	bot, env, err := Build(context.Background(), s, Deps{Live: live, Effector: &effector.Recorder{}}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if env.Source == nil {
		t.Fatal("env should carry the live source")
	}

	loc := bot.Commands[1].(*cogs.Zoomin).Actions[0].(cogs.Pipe)[0].(*cogs.Locate)
	if loc.Source != nil {
		t.Error("locate without a source should fall back to the live source")
	}
	if loc.Poll.MaxAttempts != 2 {
		t.Errorf("script poll policy not applied: %+v", loc.Poll)
	}
}

func TestBuild_PartialPollOverride(t *testing.T) {
	s, _ := keypad(t)
	s.Poll = config.Poll{Delay: 5 * time.Millisecond, MaxAttempts: 2, SkipUnchanged: true}
	attempts := 4
	inner := s.Commands[1].Zoomin.Actions[0].Pipe[0].Locate
	inner.Poll = &config.PollOverride{MaxAttempts: &attempts}

	bot, _, err := Build(context.Background(), s, Deps{Effector: &effector.Recorder{}}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	loc := bot.Commands[1].(*cogs.Zoomin).Actions[0].(cogs.Pipe)[0].(*cogs.Locate)
	want := cogs.PollPolicy{Delay: 5 * time.Millisecond, MaxAttempts: 4, SkipUnchanged: true}
	if loc.Poll != want {
		t.Errorf("overridden locate poll: got %+v, want %+v", loc.Poll, want)
	}

	outer := bot.Commands[1].(*cogs.Zoomin).Perceptor.(*cogs.Locate)
	if outer.Poll.MaxAttempts != 2 || outer.Poll.Delay != 5*time.Millisecond {
		t.Errorf("locate without override should use the script poll: %+v", outer.Poll)
	}
}

func TestBuild_ResizedReference(t *testing.T) {
	s, _ := keypad(t)
	s.Memory[0].Width = 30

	bot, _, err := Build(context.Background(), s, Deps{Effector: &effector.Recorder{}}, zerolog.Nop())
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if r, c := bot.Memory[0].Reference.Dims(); r != 20 || c != 30 {
		t.Errorf("reference dims: got %dx%d, want 20x30", r, c)
	}
}

func TestBuild_MissingReference(t *testing.T) {
	s, _ := keypad(t)
	s.Memory[0].Reference = filepath.Join(t.TempDir(), "gone.png")

	if _, _, err := Build(context.Background(), s, Deps{Effector: &effector.Recorder{}}, zerolog.Nop()); err == nil {
		t.Error("expected error for missing reference")
	}
}

func TestBuild_BadMarkColor(t *testing.T) {
	s, _ := keypad(t)
	s.MarkColor = "purple"

	if _, _, err := Build(context.Background(), s, Deps{Effector: &effector.Recorder{}}, zerolog.Nop()); err == nil {
		t.Error("expected error for bad colour")
	}
}
