package player

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-dfplayer/script"
)

// Play runs every step of s in order:
//   - command steps are sent with Send
//   - sleep steps pause for their duration
//   - wait steps block on WaitFor until a matching event arrives, failing
//     with *WaitTimeoutError if the step has a timeout and it expires
//
// Run must be active for wait steps and acknowledged sends to complete.
// The operation can be cancelled via context.
//
// Example:
//
//	s, _ := script.Parse("intro.txt")
//	go p.Run(ctx)
//	err := p.Play(ctx, s)
func (p *Player) Play(ctx context.Context, s *script.Script) error {
	if s == nil {
		return fmt.Errorf("script cannot be nil")
	}

	startTime := time.Now()
	total := len(s.Steps)

	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}

		if err := p.runStep(ctx, step); err != nil {
			return fmt.Errorf("line %d (%s): %w", step.Line, step, err)
		}

		p.reportProgress(Progress{
			Step:        i + 1,
			TotalSteps:  total,
			Line:        step.Line,
			Description: step.String(),
			Percentage:  float64(i+1) / float64(total) * 100,
			ElapsedTime: time.Since(startTime),
		})
	}

	p.logInfo("script complete",
		"steps", total,
		"commands", s.Commands(),
		"elapsed", time.Since(startTime).String(),
	)

	return nil
}

func (p *Player) runStep(ctx context.Context, step *script.Step) error {
	switch step.Kind {
	case script.StepCommand:
		return p.Send(ctx, step.Command)

	case script.StepSleep:
		timer := time.NewTimer(step.Duration)
		defer timer.Stop()
		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}

	case script.StepWait:
		waitCtx := ctx
		if step.Duration > 0 {
			var cancel context.CancelFunc
			waitCtx, cancel = context.WithTimeout(ctx, step.Duration)
			defer cancel()
		}

		resp, err := p.WaitFor(waitCtx, step.Until.Match)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return &WaitTimeoutError{Condition: step.Until.String(), Timeout: step.Duration}
			}
			return err
		}
		p.logDebug("wait satisfied", "condition", step.Until.String(), "response", resp.String())
		return nil

	default:
		return fmt.Errorf("unknown step kind %s", step.Kind)
	}
}

// reportProgress calls the progress callback if configured.
func (p *Player) reportProgress(progress Progress) {
	if p.config.ProgressCallback != nil {
		p.config.ProgressCallback(progress)
	}
}
