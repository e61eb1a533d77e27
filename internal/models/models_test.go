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

package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatum(t *testing.T) {
	d := NewDatum(3, 1500)
	assert.False(t, d.IsProbe())
	assert.Equal(t, 1500, d.Len())

	p := NewProbeDatum(400)
	assert.True(t, p.IsProbe())
	assert.Equal(t, ProbeLevel, p.Level)

	assert.Equal(t, 0, NewDatum(1, -10).Len(), "negative sizes clamp to zero")
}

func TestAdaptSignal(t *testing.T) {
	testCases := []struct {
		signal  AdaptSignal
		want    string
		wantErr bool
	}{
		{signal: NewSetRateTarget(1200), want: "SetRateTarget(1200.00)"},
		{signal: NewSetRateTarget(math.Inf(-1)), want: "SetRateTarget(-Inf)"},
		{signal: NewDecreaseDegradation(), want: "DecreaseDegradation"},
		{signal: NewStartProbe(800), want: "StartProbe(800.00kbps)"},
		{signal: NewIncreaseProbePace(), want: "IncreaseProbePace"},
		{signal: NewStopProbe(), want: "StopProbe"},
		{signal: AdaptSignal{Kind: "Reboot"}, want: "Reboot", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.signal.String())
			if tc.wantErr {
				assert.Error(t, tc.signal.Validate())
			} else {
				assert.NoError(t, tc.signal.Validate())
			}
		})
	}
}

func TestTrafficStats_Report(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	stats := NewTrafficStats("cam-1", start)
	assert.Equal(t, ProbeLevel, stats.LastLevel, "no regular unit yet")

	stats.NewUnit(NewDatum(2, 1000), start.Add(100*time.Millisecond))
	stats.NewUnit(NewProbeDatum(500), start.Add(200*time.Millisecond))
	stats.NewUnit(NewDatum(1, 1000), start.Add(300*time.Millisecond))

	assert.Equal(t, int64(3), stats.NumOfUnits)
	assert.Equal(t, int64(2500), stats.TotalBytes)
	assert.Equal(t, int64(2), stats.NumDataUnits)
	assert.Equal(t, int64(1), stats.NumProbes)
	assert.Equal(t, 1, stats.LastLevel, "probes do not change the level")

	report := stats.GenerateReport(start.Add(time.Second))
	require.Equal(t, time.Second, report.Window)
	assert.InDelta(t, 16000.0, report.DataBitrate, 1e-9)
	assert.InDelta(t, 4000.0, report.ProbeBitrate, 1e-9)
	assert.InDelta(t, 3.0, report.UnitRate, 1e-9)
	assert.Contains(t, report.Dumps(), "cam-1")

	// the next window starts empty, totals keep growing
	stats.NewUnit(NewDatum(1, 250), start.Add(1500*time.Millisecond))
	report = stats.GenerateReport(start.Add(3 * time.Second))
	assert.Equal(t, 2*time.Second, report.Window)
	assert.InDelta(t, 1000.0, report.DataBitrate, 1e-9)
	assert.Zero(t, report.ProbeBitrate)
	assert.Equal(t, int64(2750), report.TotalBytes)
}

func TestTrafficStats_EmptyWindow(t *testing.T) {
	now := time.Now()
	report := NewTrafficStats("idle", now).GenerateReport(now)
	assert.Zero(t, report.Window)
	assert.Zero(t, report.DataBitrate)
	assert.Zero(t, report.UnitRate)
}

func TestControllerStateString(t *testing.T) {
	assert.Equal(t, "STEADY", Steady.String())
	assert.Equal(t, "SATURATED", Saturated.String())
	assert.Equal(t, "UNKNOWN", ControllerState(9).String())
}
