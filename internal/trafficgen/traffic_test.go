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

package trafficgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPolicy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     ProfileConfig
		want    any
		wantErr bool
	}{
		{
			name: "video",
			cfg:  ProfileConfig{Name: "cam", Profile: ProfileVideo, TickPeriodMs: 20, LadderKbps: []float64{300, 750}},
			want: &VideoTraffic{},
		},
		{
			name: "voip",
			cfg:  ProfileConfig{Name: "call", Profile: ProfileVoIP, TickPeriodMs: 20},
			want: &VoIPTraffic{},
		},
		{
			name: "iot",
			cfg:  ProfileConfig{Name: "sensor", Profile: ProfileIoT, TickPeriodMs: 100, ChunkBytes: 200, HeartbeatTicks: 10},
			want: &IoTTraffic{},
		},
		{
			name: "web",
			cfg:  ProfileConfig{Name: "browser", Profile: ProfileWeb, TickPeriodMs: 10, BitrateKbps: 2000, BurstTicks: 5, IdleTicks: 5},
			want: &WebTraffic{},
		},
		{
			name:    "video without ladder",
			cfg:     ProfileConfig{Name: "cam", Profile: ProfileVideo, TickPeriodMs: 20},
			wantErr: true,
		},
		{
			name:    "unknown profile",
			cfg:     ProfileConfig{Name: "x", Profile: "ftp", TickPeriodMs: 20},
			wantErr: true,
		},
		{
			name:    "zero tick period",
			cfg:     ProfileConfig{Name: "call", Profile: ProfileVoIP},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			policy, err := NewPolicy(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tc.want, policy)
			assert.Equal(t, tc.cfg.TickPeriodMs, policy.TickPeriodMs())
		})
	}
}

func TestVideoTraffic(t *testing.T) {
	t.Parallel()

	v := NewVideoTraffic(20, []float64{3000, 300, 1500, 750}, 1)
	assert.Equal(t, []float64{300, 750, 1500, 3000}, v.LadderKbps, "ladder is sorted")
	assert.Equal(t, 1, v.CurrentLevel())
	assert.Equal(t, 1875, v.NextChunkSize(), "750kbps over 20ms")
	assert.Equal(t, 2, v.Degradation())

	v.ApplyRateTarget(1600)
	assert.Equal(t, 2, v.CurrentLevel())
	assert.Equal(t, 3750, v.NextChunkSize())
	assert.Equal(t, 1600.0, v.RateTarget())

	v.ApplyRateTarget(100)
	assert.Equal(t, 0, v.CurrentLevel(), "lowest level when nothing fits")

	for range 5 {
		v.DecreaseDegradation()
	}
	assert.Equal(t, 3, v.CurrentLevel(), "recovery stops at the top of the ladder")
	assert.Equal(t, 0, v.Degradation())
}

func TestVideoTraffic_StartLevelClamped(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NewVideoTraffic(20, []float64{300, 750}, 9).CurrentLevel())
	assert.Equal(t, 0, NewVideoTraffic(20, []float64{300, 750}, -2).CurrentLevel())
}

func TestVoIPTraffic(t *testing.T) {
	t.Parallel()

	v := NewVoIPTraffic(20, 0)
	assert.Equal(t, DefaultVoIPFrameBytes, v.NextChunkSize())
	v.ApplyRateTarget(8)
	v.DecreaseDegradation()
	assert.Equal(t, DefaultVoIPFrameBytes, v.NextChunkSize(), "codec rate is fixed")
	assert.Equal(t, 8.0, v.RateTarget())
	assert.Equal(t, 0, v.CurrentLevel())
}

func TestIoTTraffic_IdleBetweenHeartbeats(t *testing.T) {
	t.Parallel()

	i := NewIoTTraffic(100, 200, 3)
	var sizes []int
	for range 7 {
		sizes = append(sizes, i.NextChunkSize())
	}
	assert.Equal(t, []int{200, 0, 0, 200, 0, 0, 200}, sizes)
}

func TestIoTTraffic_RateTargetStretchesHeartbeat(t *testing.T) {
	t.Parallel()

	i := NewIoTTraffic(100, 200, 1)
	// 4kbps over 100ms is 50 bytes per tick
	i.ApplyRateTarget(4)
	assert.Equal(t, 4, i.HeartbeatTicks)

	i.ApplyRateTarget(0)
	assert.Equal(t, 4, i.HeartbeatTicks, "non positive targets are ignored")
}

func TestWebTraffic_BurstAndIdle(t *testing.T) {
	t.Parallel()

	w := NewWebTraffic(10, 800, 2, 3)
	var sizes []int
	for range 10 {
		sizes = append(sizes, w.NextChunkSize())
	}
	assert.Equal(t, []int{1000, 1000, 0, 0, 0, 1000, 1000, 0, 0, 0}, sizes)
	assert.Equal(t, 1, w.CurrentLevel())
}

func TestWebTraffic_Throttle(t *testing.T) {
	t.Parallel()

	w := NewWebTraffic(10, 800, 1, 0)
	w.ApplyRateTarget(400)
	assert.Equal(t, 500, w.NextChunkSize())
	assert.Equal(t, 0, w.CurrentLevel())

	w.ApplyRateTarget(5000)
	assert.Equal(t, 1000, w.NextChunkSize(), "never above the configured bitrate")

	w.ApplyRateTarget(400)
	w.DecreaseDegradation()
	assert.Equal(t, 1000, w.NextChunkSize())
	assert.Equal(t, 1, w.CurrentLevel())
}
