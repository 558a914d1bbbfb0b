package effector

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/go-vgo/robotgo"
)

// DefaultClickDelay is the pause between moving the pointer and clicking.
const DefaultClickDelay = 100 * time.Millisecond

// Desktop drives the real mouse and keyboard.
type Desktop struct {
	// ClickDelay is the pause between moving the pointer and pressing the
	// button, giving the UI time to react to hover.
	ClickDelay time.Duration
}

// NewDesktop returns a Desktop with the default click delay.
func NewDesktop() *Desktop {
	return &Desktop{ClickDelay: DefaultClickDelay}
}

// Click moves the pointer to (x, y) and clicks button once.
func (d *Desktop) Click(x, y int, button Button) error {
	robotgo.Move(x, y)
	if d.ClickDelay > 0 {
		time.Sleep(d.ClickDelay)
	}
	robotgo.Click(button.String(), false)
	return nil
}

// Run starts command through the platform shell without waiting for it.
func (d *Desktop) Run(command string) error {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/C", command)
	} else {
		cmd = exec.Command("sh", "-c", command)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to run %q: %w", command, err)
	}
	go cmd.Wait() //nolint:errcheck // detached program, exit status is not ours
	return nil
}

// Write types text; newlines press Enter.
func (d *Desktop) Write(text string) error {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if line != "" {
			robotgo.TypeStr(line)
		}
		if i < len(lines)-1 {
			if err := robotgo.KeyTap("enter"); err != nil {
				return fmt.Errorf("failed to press enter: %w", err)
			}
		}
	}
	return nil
}
