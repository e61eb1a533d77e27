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

import "sort"

// VideoTraffic simulates adaptive video streaming over a bitrate ladder.
// Levels index the ladder from the lowest bitrate.
type VideoTraffic struct {
	TickMs     uint64
	LadderKbps []float64 // ascending

	level      int
	rateTarget float64
}

// NewVideoTraffic creates a new VideoTraffic policy
func NewVideoTraffic(tickMs uint64, ladderKbps []float64, startLevel int) *VideoTraffic {
	ladder := append([]float64(nil), ladderKbps...)
	sort.Float64s(ladder)

	v := &VideoTraffic{
		TickMs:     tickMs,
		LadderKbps: ladder,
	}
	v.level = v.clampLevel(startLevel)
	return v
}

func (v *VideoTraffic) TickPeriodMs() uint64 {
	return v.TickMs
}

func (v *VideoTraffic) NextChunkSize() int {
	if len(v.LadderKbps) == 0 {
		return 0
	}
	return chunkSize(v.LadderKbps[v.level], v.TickMs)
}

func (v *VideoTraffic) CurrentLevel() int {
	return v.level
}

// ApplyRateTarget switches to the highest level whose bitrate fits in rate
// (kbps), or to the lowest level if none does.
func (v *VideoTraffic) ApplyRateTarget(rate float64) {
	v.rateTarget = rate
	level := 0
	for i, kbps := range v.LadderKbps {
		if kbps <= rate {
			level = i
		}
	}
	v.level = level
}

// DecreaseDegradation moves one level up the ladder.
func (v *VideoTraffic) DecreaseDegradation() {
	v.level = v.clampLevel(v.level + 1)
}

// Degradation is the number of levels below the top of the ladder.
func (v *VideoTraffic) Degradation() int {
	if len(v.LadderKbps) == 0 {
		return 0
	}
	return len(v.LadderKbps) - 1 - v.level
}

func (v *VideoTraffic) RateTarget() float64 {
	return v.rateTarget
}

func (v *VideoTraffic) clampLevel(level int) int {
	if level < 0 || len(v.LadderKbps) == 0 {
		return 0
	}
	if level >= len(v.LadderKbps) {
		return len(v.LadderKbps) - 1
	}
	return level
}
