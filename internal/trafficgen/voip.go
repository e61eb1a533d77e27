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

// DefaultVoIPFrameBytes is a 20ms G.711 frame.
const DefaultVoIPFrameBytes = 160

// VoIPTraffic simulates voice traffic with one small frame per tick
type VoIPTraffic struct {
	TickMs     uint64
	FrameBytes int

	rateTarget float64
}

// NewVoIPTraffic creates a VoIP traffic policy
func NewVoIPTraffic(tickMs uint64, frameBytes int) *VoIPTraffic {
	if frameBytes <= 0 {
		frameBytes = DefaultVoIPFrameBytes
	}
	return &VoIPTraffic{
		TickMs:     tickMs,
		FrameBytes: frameBytes,
	}
}

func (v *VoIPTraffic) TickPeriodMs() uint64 { return v.TickMs }
func (v *VoIPTraffic) NextChunkSize() int   { return v.FrameBytes }
func (v *VoIPTraffic) CurrentLevel() int    { return 0 }

// ApplyRateTarget only records the target, the codec rate is fixed.
func (v *VoIPTraffic) ApplyRateTarget(rate float64) {
	v.rateTarget = rate
}

func (v *VoIPTraffic) DecreaseDegradation() {}

func (v *VoIPTraffic) RateTarget() float64 {
	return v.rateTarget
}
