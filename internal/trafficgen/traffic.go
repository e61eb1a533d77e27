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
	"fmt"

	"gitlab.eurecom.fr/open-exposure/coresim/traffic-source/internal/source"
)

const (
	ProfileVideo = "video"
	ProfileVoIP  = "voip"
	ProfileIoT   = "iot"
	ProfileWeb   = "web"
)

// ProfileConfig describes one traffic source of an experiment. Only the
// fields relevant to Profile are used.
type ProfileConfig struct {
	Name         string `yaml:"name" json:"name"`
	Profile      string `yaml:"profile" json:"profile"`
	TickPeriodMs uint64 `yaml:"tickPeriodMs" json:"tickPeriodMs"`

	// video
	LadderKbps []float64 `yaml:"ladderKbps,omitempty" json:"ladderKbps,omitempty"`
	StartLevel int       `yaml:"startLevel,omitempty" json:"startLevel,omitempty"`

	// voip, iot
	ChunkBytes int `yaml:"chunkBytes,omitempty" json:"chunkBytes,omitempty"`
	// iot
	HeartbeatTicks int `yaml:"heartbeatTicks,omitempty" json:"heartbeatTicks,omitempty"`

	// web
	BitrateKbps float64 `yaml:"bitrateKbps,omitempty" json:"bitrateKbps,omitempty"`
	BurstTicks  int     `yaml:"burstTicks,omitempty" json:"burstTicks,omitempty"`
	IdleTicks   int     `yaml:"idleTicks,omitempty" json:"idleTicks,omitempty"`
}

// NewPolicy builds the policy driving a source from its profile.
func NewPolicy(cfg ProfileConfig) (source.Policy, error) {
	if cfg.TickPeriodMs == 0 {
		return nil, fmt.Errorf("source %q: tick period must be positive", cfg.Name)
	}

	switch cfg.Profile {
	case ProfileVideo:
		if len(cfg.LadderKbps) == 0 {
			return nil, fmt.Errorf("source %q: video profile needs a bitrate ladder", cfg.Name)
		}
		return NewVideoTraffic(cfg.TickPeriodMs, cfg.LadderKbps, cfg.StartLevel), nil
	case ProfileVoIP:
		return NewVoIPTraffic(cfg.TickPeriodMs, cfg.ChunkBytes), nil
	case ProfileIoT:
		return NewIoTTraffic(cfg.TickPeriodMs, cfg.ChunkBytes, cfg.HeartbeatTicks), nil
	case ProfileWeb:
		return NewWebTraffic(cfg.TickPeriodMs, cfg.BitrateKbps, cfg.BurstTicks, cfg.IdleTicks), nil
	default:
		return nil, fmt.Errorf("source %q: unknown traffic profile %q", cfg.Name, cfg.Profile)
	}
}

// chunkSize returns the bytes to emit per tick to sustain bitrateKbps.
func chunkSize(bitrateKbps float64, tickPeriodMs uint64) int {
	if bitrateKbps <= 0 {
		return 0
	}
	return int(bitrateKbps * float64(tickPeriodMs) / 8)
}
