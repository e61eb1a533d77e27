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

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/utils/clock"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/logging"
	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
)

// minTickPeriodMs is the timer resolution.
const minTickPeriodMs = 1

// A Source is a running emission loop. It ticks at the period reported by its
// policy, emits the units the policy sizes, and applies the signals received
// on its Control handle. Policy and pacer are only touched by the loop
// goroutine.
type Source struct {
	policy Policy
	prober *ProbeTracker
	clock  clock.WithTicker
	logger logr.Logger

	control   *Control
	data      *DataChannel
	telemetry *Telemetry

	done chan struct{}
	err  error
}

type Option func(*Source)

// WithClock replaces the real clock driving the ticks.
func WithClock(c clock.WithTicker) Option {
	return func(s *Source) {
		s.clock = c
	}
}

func WithLogger(logger logr.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// Spawn starts the emission loop of policy and returns without blocking.
// The loop runs until ctx is done, the Control handle is closed, or a unit
// can no longer be delivered on the DataChannel.
func Spawn(ctx context.Context, policy Policy, opts ...Option) *Source {
	s := &Source{
		policy:    policy,
		clock:     clock.RealClock{},
		logger:    logr.Discard(),
		control:   newControl(),
		data:      newDataChannel(),
		telemetry: &Telemetry{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	tickPeriodMs := policy.TickPeriodMs()
	if tickPeriodMs < minTickPeriodMs {
		tickPeriodMs = minTickPeriodMs
	}
	s.prober = NewProbeTracker(tickPeriodMs)

	// the ticker is registered before Spawn returns, so the first tick is
	// one full period after this call
	ticker := s.clock.NewTicker(time.Duration(tickPeriodMs) * time.Millisecond)
	go s.run(ctx, ticker)

	return s
}

func (s *Source) Control() *Control     { return s.control }
func (s *Source) Data() *DataChannel    { return s.data }
func (s *Source) Telemetry() *Telemetry { return s.telemetry }
func (s *Source) Done() <-chan struct{} { return s.done }

// TickPeriod is the emission cadence, fixed when the source was spawned.
func (s *Source) TickPeriod() time.Duration {
	return time.Duration(s.prober.TickPeriodMs()) * time.Millisecond
}

// Err returns the error that stopped the loop, or nil if it was torn down by
// its owner. It must only be called after Done is closed.
func (s *Source) Err() error {
	return s.err
}

func (s *Source) run(ctx context.Context, ticker clock.Ticker) {
	s.logger.V(logging.DEFAULT).Info("Traffic source started", "tickPeriodMs", s.prober.TickPeriodMs())
	defer func() {
		ticker.Stop()
		s.control.Close()
		s.data.queue.close()
		if s.err != nil {
			s.logger.Error(s.err, "Traffic source aborted", "bytesEmitted", s.telemetry.BytesEmitted())
		} else {
			s.logger.V(logging.DEFAULT).Info("Traffic source stopped", "bytesEmitted", s.telemetry.BytesEmitted())
		}
		close(s.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if err := s.onTick(); err != nil {
				s.err = err
				return
			}
		case <-s.control.inbox.ready:
			signal, ok := s.control.inbox.tryPop()
			if !ok {
				if s.control.inbox.drained() {
					return
				}
				continue
			}
			s.onSignal(signal)
		}
	}
}

func (s *Source) onTick() error {
	size := s.policy.NextChunkSize()
	if size <= 0 {
		// idle tick
		return nil
	}

	if probe, ok := s.prober.Next(); ok {
		s.telemetry.addBytes(probe.Len())
		if err := s.data.queue.push(probe); err != nil {
			return fmt.Errorf("%w: %w", ErrProbeUndeliverable, err)
		}
	}

	datum := models.NewDatum(s.policy.CurrentLevel(), size)
	s.logger.V(logging.TRACE).Info("Added new data unit", "level", datum.Level, "size", datum.Len())
	s.telemetry.addBytes(datum.Len())
	if err := s.data.queue.push(datum); err != nil {
		return fmt.Errorf("%w: %w", ErrDataChannelClosed, err)
	}
	return nil
}

func (s *Source) onSignal(signal models.AdaptSignal) {
	logger := s.logger.WithValues("signal", signal.String())

	switch signal.Kind {
	case models.SetRateTarget:
		s.policy.ApplyRateTarget(signal.Rate)
	case models.DecreaseDegradation:
		s.policy.DecreaseDegradation()
	case models.StartProbe:
		s.prober.Start(signal.TargetKbps)
		logger.V(logging.VERBOSE).Info("Probe started",
			"targetPace", s.prober.TargetPace(), "delta", s.prober.Delta())
	case models.IncreaseProbePace:
		if !s.prober.Step() {
			if s.telemetry.markProbeDone() {
				logger.V(logging.DEFAULT).Info("Probe completed", "pace", s.prober.Pace())
			}
			return
		}
		logger.V(logging.DEBUG).Info("Probe pace increased", "pace", s.prober.Pace())
	case models.StopProbe:
		s.prober.Stop()
		logger.V(logging.VERBOSE).Info("Probe stopped")
	default:
		logger.Error(nil, "Ignoring unknown adapt signal")
	}
}
