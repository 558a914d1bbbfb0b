// Package effector drives the desktop with coordinates produced by the
// matcher: mouse clicks, keyboard input and program launches.
package effector

import (
	"fmt"
	"strings"
	"sync"
)

// Button identifies a mouse button.
type Button int

const (
	Left Button = iota
	Right
)

func (b Button) String() string {
	switch b {
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return fmt.Sprintf("button(%d)", int(b))
}

// ParseButton converts "left" or "right" (case-insensitive) to a Button.
func ParseButton(s string) (Button, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "":
		return Left, nil
	case "right":
		return Right, nil
	}
	return Left, fmt.Errorf("unknown mouse button %q", s)
}

// Effector performs actions on the desktop.
type Effector interface {
	Click(x, y int, button Button) error
	Run(command string) error
	Write(text string) error
}

// Call is one recorded effector invocation.
type Call struct {
	Action string `json:"action"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
	Button string `json:"button,omitempty"`
	Arg    string `json:"arg,omitempty"`
}

// Recorder is an Effector that only records what it was asked to do. It backs
// dry runs and tests.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
}

// Click records a click.
func (r *Recorder) Click(x, y int, button Button) error {
	r.record(Call{Action: "click", X: x, Y: y, Button: button.String()})
	return nil
}

// Run records a program launch.
func (r *Recorder) Run(command string) error {
	r.record(Call{Action: "run", Arg: command})
	return nil
}

// Write records typed text.
func (r *Recorder) Write(text string) error {
	r.record(Call{Action: "write", Arg: text})
	return nil
}

// Calls returns a copy of everything recorded so far.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

func (r *Recorder) record(c Call) {
	r.mu.Lock()
	r.calls = append(r.calls, c)
	r.mu.Unlock()
}
