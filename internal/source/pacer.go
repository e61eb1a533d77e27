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
	"math"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
)

// NumProbeSteps is the number of pace increases needed to go from zero to the
// target pace.
const NumProbeSteps = 5

// ProbeTracker sizes probe units so that probing bandwidth ramps up to a
// target by additive increase, spread evenly over the ticks of one second.
//
// It is owned by a single emission loop and is not safe for concurrent use.
type ProbeTracker struct {
	// tick period of the owning source, fixed at construction
	tickPeriodMs uint64

	targetKbps float64
	// probe size per tick once the ramp is complete
	targetPace int
	// current probe size per tick
	pace int
	// increase applied by each Step
	delta int
}

func NewProbeTracker(tickPeriodMs uint64) *ProbeTracker {
	return &ProbeTracker{tickPeriodMs: tickPeriodMs}
}

// Start activates probing towards targetKbps. The first probe is already one
// step into the ramp. A target too small to be split in NumProbeSteps yields a
// zero delta, and the first Step then reports saturation.
func (p *ProbeTracker) Start(targetKbps float64) {
	p.targetKbps = targetKbps

	bytesPerSec := targetKbps * 1000.0 / 8.0
	ticksPerSec := 1000.0 / float64(p.tickPeriodMs)
	p.targetPace = truncateBytes(bytesPerSec / ticksPerSec)

	p.delta = p.targetPace / NumProbeSteps
	p.pace = p.delta
}

// Step is the additive increase. It returns false, leaving the pace
// unchanged, once another increase would go past the target pace or when
// there is nothing to increase by.
func (p *ProbeTracker) Step() bool {
	if p.delta > 0 && p.pace+p.delta <= p.targetPace {
		p.pace += p.delta
		return true
	}
	return false
}

func (p *ProbeTracker) Stop() {
	p.targetKbps = 0
	p.targetPace = 0
	p.pace = 0
	p.delta = 0
}

// Next returns the probe unit for the current tick, if probing is active.
// It does not advance the ramp.
func (p *ProbeTracker) Next() (models.Datum, bool) {
	if p.targetPace > 0 {
		return models.NewProbeDatum(p.pace), true
	}
	return models.Datum{}, false
}

func (p *ProbeTracker) Active() bool {
	return p.targetPace > 0
}

func (p *ProbeTracker) TickPeriodMs() uint64 { return p.tickPeriodMs }
func (p *ProbeTracker) TargetKbps() float64  { return p.targetKbps }
func (p *ProbeTracker) TargetPace() int      { return p.targetPace }
func (p *ProbeTracker) Pace() int            { return p.pace }
func (p *ProbeTracker) Delta() int           { return p.delta }

// truncateBytes converts toward zero, mapping negative and NaN values to 0.
func truncateBytes(v float64) int {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}
