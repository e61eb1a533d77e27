// Copyright 2025 EURECOM
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Contributors:
//   Giulio CAROTA
//   Thomas DU
//   Adlen KSENTINI

package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/source"
)

var transitions = map[models.ControllerState][]models.Transition{

	models.Steady: {
		{To: models.Steady, Probability: 0.80, Action: models.NoAction},
		{To: models.Probing, Probability: 0.15, Action: models.ActionStartProbe}, // look for spare bandwidth
		{To: models.Degraded, Probability: 0.05, Action: models.ActionLowerRate}, // congestion
	},
	models.Probing: {
		{To: models.Probing, Probability: 0.90, Action: models.ActionIncreasePace},
		{To: models.Steady, Probability: 0.10, Action: models.ActionStopProbe}, // probe abandoned
	},
	// entered only when the source reports the probe done
	models.Saturated: {
		{To: models.Steady, Probability: 1.0, Action: models.ActionRaiseRate},
	},
	models.Degraded: {
		{To: models.Degraded, Probability: 0.60, Action: models.ActionRecover},
		{To: models.Steady, Probability: 0.30, Action: models.ActionRecover},
		{To: models.Degraded, Probability: 0.10, Action: models.NoAction},
	},
}

// NextState draws the next state of the chain from current.
func NextState(rng *rand.Rand, current models.ControllerState) (models.ControllerState, models.ControllerAction) {
	rnd := rng.Float64()
	cumulative := 0.0
	for _, t := range transitions[current] {
		cumulative += t.Probability
		if rnd < cumulative {
			return t.To, t.Action
		}
	}
	return current, models.NoAction // fallback
}

// SignalSender is the command side of a source.
type SignalSender interface {
	SetRateTarget(rate float64) error
	DecreaseDegradation() error
	StartProbe(targetKbps float64) error
	IncreaseProbePace() error
	StopProbe() error
}

// ProbeStatus is the probe completion flag of a source.
type ProbeStatus interface {
	ProbeDone() bool
	ResetProbeDone()
}

type Config struct {
	StepInterval time.Duration
	// ProbeKbps is the probe target and the rate adopted after a successful probe.
	ProbeKbps float64
	Seed      uint64
}

// Autopilot drives a source through a Markov chain of adaptation states,
// issuing the signal attached to each transition. It stands in for an
// external controller.
type Autopilot struct {
	name    string
	control SignalSender
	probe   ProbeStatus
	rng     *rand.Rand
	clock   clock.WithTicker
	logger  logr.Logger

	stepInterval time.Duration
	probeKbps    float64
	rateKbps     float64
	state        models.ControllerState
}

func New(name string, control SignalSender, probe ProbeStatus, cfg Config, clk clock.WithTicker, logger logr.Logger) *Autopilot {
	return &Autopilot{
		name:         name,
		control:      control,
		probe:        probe,
		rng:          rand.New(rand.NewPCG(cfg.Seed, cfg.Seed)),
		clock:        clk,
		logger:       logger.WithName("autopilot").WithValues("source", name),
		stepInterval: cfg.StepInterval,
		probeKbps:    cfg.ProbeKbps,
		rateKbps:     cfg.ProbeKbps,
		state:        models.Steady,
	}
}

func (a *Autopilot) State() models.ControllerState {
	return a.state
}

func (a *Autopilot) RateKbps() float64 {
	return a.rateKbps
}

// Step performs one transition. A probing source whose probe is done moves to
// Saturated regardless of the draw.
func (a *Autopilot) Step() error {
	var next models.ControllerState
	var action models.ControllerAction
	if a.state == models.Probing && a.probe.ProbeDone() {
		next, action = models.Saturated, models.NoAction
	} else {
		next, action = NextState(a.rng, a.state)
	}

	if err := a.apply(action); err != nil {
		return fmt.Errorf("autopilot %s: %s from %s: %w", a.name, action, a.state, err)
	}
	if next != a.state {
		a.logger.V(logging.VERBOSE).Info("Controller transition", "from", a.state, "to", next, "action", action)
	}
	a.state = next
	return nil
}

func (a *Autopilot) apply(action models.ControllerAction) error {
	switch action {
	case models.ActionStartProbe:
		a.probe.ResetProbeDone()
		return a.control.StartProbe(a.probeKbps)
	case models.ActionIncreasePace:
		return a.control.IncreaseProbePace()
	case models.ActionStopProbe:
		return a.control.StopProbe()
	case models.ActionRaiseRate:
		if err := a.control.StopProbe(); err != nil {
			return err
		}
		a.rateKbps = a.probeKbps
		return a.control.SetRateTarget(a.rateKbps)
	case models.ActionLowerRate:
		a.rateKbps /= 2
		return a.control.SetRateTarget(a.rateKbps)
	case models.ActionRecover:
		return a.control.DecreaseDegradation()
	default:
		return nil
	}
}

// Run steps the chain every StepInterval until ctx is done or the source
// stops accepting signals.
func (a *Autopilot) Run(ctx context.Context) error {
	ticker := a.clock.NewTicker(a.stepInterval)
	defer ticker.Stop()

	a.logger.V(logging.DEFAULT).Info("Autopilot started", "stepInterval", a.stepInterval, "probeKbps", a.probeKbps)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C():
			if err := a.Step(); err != nil {
				if errors.Is(err, source.ErrClosed) {
					a.logger.V(logging.VERBOSE).Info("Source closed, autopilot stopped")
					return nil
				}
				return err
			}
		}
	}
}
