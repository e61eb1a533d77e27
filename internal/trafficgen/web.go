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

// WebTraffic simulates bursty HTTP traffic (web browsing)
type WebTraffic struct {
	TickMs      uint64
	BitrateKbps float64 // bitrate during burst
	BurstTicks  int     // duration of burst activity
	IdleTicks   int     // duration of idle period

	baseKbps float64
	ticks    int
	degraded bool
}

// NewWebTraffic creates a new WebTraffic policy
func NewWebTraffic(tickMs uint64, bitrateKbps float64, burstTicks, idleTicks int) *WebTraffic {
	if burstTicks <= 0 {
		burstTicks = 1
	}
	if idleTicks < 0 {
		idleTicks = 0
	}
	return &WebTraffic{
		TickMs:      tickMs,
		BitrateKbps: bitrateKbps,
		BurstTicks:  burstTicks,
		IdleTicks:   idleTicks,
		baseKbps:    bitrateKbps,
	}
}

func (w *WebTraffic) TickPeriodMs() uint64 {
	return w.TickMs
}

// NextChunkSize emits during the burst phase and skips the idle phase
func (w *WebTraffic) NextChunkSize() int {
	inBurst := w.ticks%(w.BurstTicks+w.IdleTicks) < w.BurstTicks
	w.ticks++
	if !inBurst {
		return 0
	}
	return chunkSize(w.BitrateKbps, w.TickMs)
}

// CurrentLevel is 1 at the configured bitrate and 0 when throttled
func (w *WebTraffic) CurrentLevel() int {
	if w.degraded {
		return 0
	}
	return 1
}

// ApplyRateTarget throttles the burst bitrate to rate (kbps), never above the
// configured bitrate.
func (w *WebTraffic) ApplyRateTarget(rate float64) {
	if rate <= 0 {
		return
	}
	if rate < w.baseKbps {
		w.BitrateKbps = rate
		w.degraded = true
		return
	}
	w.BitrateKbps = w.baseKbps
	w.degraded = false
}

// DecreaseDegradation restores the configured bitrate.
func (w *WebTraffic) DecreaseDegradation() {
	w.BitrateKbps = w.baseKbps
	w.degraded = false
}
