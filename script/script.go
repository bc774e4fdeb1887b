package script

import (
	"fmt"
	"time"

	"github.com/moffa90/go-dfplayer/protocol"
)

// Script is a parsed command script.
type Script struct {
	// Steps in file order
	Steps []*Step
}

// Commands returns the number of command steps.
func (s *Script) Commands() int {
	n := 0
	for _, step := range s.Steps {
		if step.Kind == StepCommand {
			n++
		}
	}
	return n
}

// StepKind identifies what a Step does.
type StepKind int

// Step kinds.
const (
	// StepCommand sends Command to the module
	StepCommand StepKind = iota

	// StepSleep pauses for Duration
	StepSleep

	// StepWait blocks until a response matching Until arrives, or
	// Duration elapses when it is non-zero
	StepWait
)

func (k StepKind) String() string {
	switch k {
	case StepCommand:
		return "command"
	case StepSleep:
		return "sleep"
	case StepWait:
		return "wait"
	default:
		return fmt.Sprintf("step(%d)", int(k))
	}
}

// Step is a single script line.
type Step struct {
	// Line is the 1-based source line number
	Line int

	Kind StepKind

	// Command is set for StepCommand
	Command protocol.Command

	// Duration is the sleep length for StepSleep and the optional
	// timeout for StepWait
	Duration time.Duration

	// Until is set for StepWait
	Until Condition
}

func (s *Step) String() string {
	switch s.Kind {
	case StepCommand:
		return s.Command.String()
	case StepSleep:
		return "sleep " + s.Duration.String()
	case StepWait:
		if s.Duration > 0 {
			return fmt.Sprintf("wait %s %s", s.Until, s.Duration)
		}
		return "wait " + s.Until.String()
	default:
		return s.Kind.String()
	}
}

// Condition matches module responses for a wait step.
type Condition struct {
	// Kind is the response kind to wait for. The zero value matches
	// the end of playback on any source.
	Kind protocol.ResponseKind

	// Disk must match for the disk status kinds
	Disk protocol.Disk
}

// Match reports whether r satisfies the condition.
func (c Condition) Match(r protocol.Response) bool {
	switch {
	case c.Kind == 0:
		return r.IsFinishPlayback()
	case r.Kind != c.Kind:
		return false
	case r.IsFinishPlayback():
		return true
	default:
		return r.Disk == c.Disk
	}
}

func (c Condition) String() string {
	switch c.Kind {
	case 0:
		return "finished"
	case protocol.RespUDiskFinishPlayback:
		return "finished udisk"
	case protocol.RespTfFinishPlayback:
		return "finished tf"
	case protocol.RespFlashFinishPlayback:
		return "finished flash"
	case protocol.RespDiskOnline:
		return "online " + c.Disk.String()
	case protocol.RespDiskInserted:
		return "inserted " + c.Disk.String()
	case protocol.RespDiskRemoved:
		return "removed " + c.Disk.String()
	default:
		return c.Kind.String()
	}
}
