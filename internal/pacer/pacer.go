// Package pacer spreads a number of events evenly over a number of steps.
//
// After k of S steps the pacer has released exactly ceil(E*k/S) of E events,
// so the per-step counts differ by at most one and all E events are out after
// S steps. The schedule then repeats.
//
// Rounding up front-loads the schedule: 2 events over 5 steps release as
// 1,0,1,0,0 and 1 event over 2 steps as 1,0, so the first event always
// arrives on the first step rather than at the end of the window.
package pacer

import (
	"errors"
	"fmt"
)

// ErrInvalidSchedule is returned by Configure for a non-positive step count
// or a negative event count.
var ErrInvalidSchedule = errors.New("invalid pacing schedule")

// Pacer is a metered event schedule. The zero value releases nothing until
// Configure is called.
//
// Pacer is not safe for concurrent use.
type Pacer struct {
	steps     int
	events    int
	step      int
	delivered int
}

// New returns a pacer configured for events over steps.
func New(steps, events int) (*Pacer, error) {
	p := &Pacer{}
	if err := p.Configure(steps, events); err != nil {
		return nil, err
	}
	return p, nil
}

// Configure replaces the schedule and restarts it.
func (p *Pacer) Configure(steps, events int) error {
	if steps < 1 || events < 0 {
		return fmt.Errorf("%w: %d events over %d steps", ErrInvalidSchedule, events, steps)
	}
	p.steps = steps
	p.events = events
	p.step = 0
	p.delivered = 0
	return nil
}

// Advance completes one step and returns how many events fall due in it.
func (p *Pacer) Advance() int {
	if p.steps == 0 {
		return 0
	}
	p.step++
	target := ceilDiv(p.events*p.step, p.steps)
	due := target - p.delivered
	p.delivered = target

	if p.step == p.steps {
		p.step = 0
		p.delivered = 0
	}
	return due
}

// Delivered returns the events released so far in the current cycle.
func (p *Pacer) Delivered() int { return p.delivered }

// Step returns the position inside the current cycle.
func (p *Pacer) Step() int { return p.step }

// Steps returns the configured cycle length.
func (p *Pacer) Steps() int { return p.steps }

// Events returns the configured events per cycle.
func (p *Pacer) Events() int { return p.events }

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
