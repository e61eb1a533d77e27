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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/models"
)

func TestProbeTracker_Start(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		tickPeriodMs   uint64
		targetKbps     float64
		wantTargetPace int
		wantDelta      int
	}{
		{name: "20ms tick at 800kbps", tickPeriodMs: 20, targetKbps: 800, wantTargetPace: 2000, wantDelta: 400},
		{name: "10ms tick at 1000kbps", tickPeriodMs: 10, targetKbps: 1000, wantTargetPace: 1250, wantDelta: 250},
		{name: "100ms tick at 64kbps", tickPeriodMs: 100, targetKbps: 64, wantTargetPace: 800, wantDelta: 160},
		{name: "fractional pace truncated", tickPeriodMs: 33, targetKbps: 333, wantTargetPace: 1373, wantDelta: 274},
		{name: "pace below steps gives zero delta", tickPeriodMs: 20, targetKbps: 1, wantTargetPace: 2, wantDelta: 0},
		{name: "zero target", tickPeriodMs: 20, targetKbps: 0, wantTargetPace: 0, wantDelta: 0},
		{name: "negative target", tickPeriodMs: 20, targetKbps: -500, wantTargetPace: 0, wantDelta: 0},
		{name: "NaN target", tickPeriodMs: 20, targetKbps: math.NaN(), wantTargetPace: 0, wantDelta: 0},
		{name: "one second tick", tickPeriodMs: 1000, targetKbps: 8, wantTargetPace: 1000, wantDelta: 200},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := NewProbeTracker(tc.tickPeriodMs)
			p.Start(tc.targetKbps)

			assert.Equal(t, tc.wantTargetPace, p.TargetPace(), "target pace")
			assert.Equal(t, tc.wantDelta, p.Delta(), "delta")
			assert.Equal(t, tc.wantDelta, p.Pace(), "first pace must be one step into the ramp")
			assert.Equal(t, tc.tickPeriodMs, p.TickPeriodMs())
		})
	}
}

func TestProbeTracker_StartMatchesFormula(t *testing.T) {
	t.Parallel()

	for _, tickPeriodMs := range []uint64{1, 5, 16, 20, 40, 100, 250} {
		for _, kbps := range []float64{8, 100, 750, 1200, 2500, 10000} {
			p := NewProbeTracker(tickPeriodMs)
			p.Start(kbps)

			want := int(math.Floor(kbps * 1000 / 8 / (1000 / float64(tickPeriodMs))))
			require.Equal(t, want, p.TargetPace(), "tick=%d kbps=%v", tickPeriodMs, kbps)
			require.Equal(t, want/NumProbeSteps, p.Delta(), "tick=%d kbps=%v", tickPeriodMs, kbps)
			require.Equal(t, p.Delta(), p.Pace(), "tick=%d kbps=%v", tickPeriodMs, kbps)
		}
	}
}

func TestProbeTracker_StepRampsToTarget(t *testing.T) {
	t.Parallel()

	p := NewProbeTracker(20)
	p.Start(800)
	require.Equal(t, 400, p.Pace())

	var paces []int
	for range 4 {
		require.True(t, p.Step())
		paces = append(paces, p.Pace())
	}
	assert.Equal(t, []int{800, 1200, 1600, 2000}, paces)

	assert.False(t, p.Step(), "fifth step must report saturation")
	assert.Equal(t, 2000, p.Pace(), "saturated step must not change the pace")
	assert.False(t, p.Step())
	assert.Equal(t, 2000, p.Pace())
}

func TestProbeTracker_StepIsMonotoneAndBounded(t *testing.T) {
	t.Parallel()

	p := NewProbeTracker(33)
	p.Start(333)

	prev := p.Pace()
	saturated := false
	for range 20 {
		increased := p.Step()
		if saturated {
			require.False(t, increased, "saturation is sticky until the next start")
		}
		if increased {
			require.Equal(t, prev+p.Delta(), p.Pace())
		} else {
			saturated = true
			require.Equal(t, prev, p.Pace())
		}
		require.LessOrEqual(t, p.Pace(), p.TargetPace())
		prev = p.Pace()
	}
	assert.True(t, saturated)
	assert.Equal(t, 1370, p.Pace())
}

func TestProbeTracker_ZeroDeltaSaturatesImmediately(t *testing.T) {
	t.Parallel()

	p := NewProbeTracker(20)
	p.Start(1)
	require.Equal(t, 2, p.TargetPace())

	assert.False(t, p.Step())
	assert.Equal(t, 0, p.Pace())
}

func TestProbeTracker_StopResets(t *testing.T) {
	t.Parallel()

	for steps := range 8 {
		p := NewProbeTracker(20)
		p.Start(800)
		for range steps {
			p.Step()
		}
		p.Stop()

		assert.Zero(t, p.TargetKbps(), "steps=%d", steps)
		assert.Zero(t, p.TargetPace(), "steps=%d", steps)
		assert.Zero(t, p.Pace(), "steps=%d", steps)
		assert.Zero(t, p.Delta(), "steps=%d", steps)
		assert.False(t, p.Active())
		assert.Equal(t, uint64(20), p.TickPeriodMs(), "tick period survives a stop")

		p.Stop()
		assert.Zero(t, p.TargetPace(), "stop is idempotent")
	}
}

func TestProbeTracker_Next(t *testing.T) {
	t.Parallel()

	p := NewProbeTracker(20)
	_, ok := p.Next()
	assert.False(t, ok, "inactive tracker produces no probe")

	p.Start(800)
	d, ok := p.Next()
	require.True(t, ok)
	assert.Equal(t, models.NewProbeDatum(400), d)
	assert.True(t, d.IsProbe())

	// Next does not advance the ramp
	d, _ = p.Next()
	assert.Equal(t, 400, d.Len())

	p.Step()
	d, _ = p.Next()
	assert.Equal(t, 800, d.Len())

	p.Stop()
	_, ok = p.Next()
	assert.False(t, ok)
}

func TestProbeTracker_NextWithZeroTarget(t *testing.T) {
	t.Parallel()

	p := NewProbeTracker(20)
	p.Start(0)
	_, ok := p.Next()
	assert.False(t, ok)
}

func TestProbeTracker_NextWithZeroDeltaEmitsEmptyProbe(t *testing.T) {
	t.Parallel()

	p := NewProbeTracker(20)
	p.Start(1)
	d, ok := p.Next()
	require.True(t, ok, "target pace is positive, probing is active")
	assert.Equal(t, 0, d.Len())
}
