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

import "fmt"

type AdaptSignalKind string

const (
	SetRateTarget       AdaptSignalKind = "SetRateTarget"
	DecreaseDegradation AdaptSignalKind = "DecreaseDegradation"
	StartProbe          AdaptSignalKind = "StartProbe"
	IncreaseProbePace   AdaptSignalKind = "IncreaseProbePace"
	StopProbe           AdaptSignalKind = "StopProbe"
)

// AdaptSignal is a command sent by an external controller to a running source.
// Rate is only meaningful for SetRateTarget, TargetKbps only for StartProbe.
type AdaptSignal struct {
	Kind       AdaptSignalKind `json:"kind" yaml:"kind"`
	Rate       float64         `json:"rate,omitempty" yaml:"rate,omitempty"`
	TargetKbps float64         `json:"targetKbps,omitempty" yaml:"targetKbps,omitempty"`
}

func NewSetRateTarget(rate float64) AdaptSignal {
	return AdaptSignal{Kind: SetRateTarget, Rate: rate}
}

func NewDecreaseDegradation() AdaptSignal {
	return AdaptSignal{Kind: DecreaseDegradation}
}

func NewStartProbe(targetKbps float64) AdaptSignal {
	return AdaptSignal{Kind: StartProbe, TargetKbps: targetKbps}
}

func NewIncreaseProbePace() AdaptSignal {
	return AdaptSignal{Kind: IncreaseProbePace}
}

func NewStopProbe() AdaptSignal {
	return AdaptSignal{Kind: StopProbe}
}

// Validate checks that the signal kind is known.
func (s AdaptSignal) Validate() error {
	switch s.Kind {
	case SetRateTarget, DecreaseDegradation, StartProbe, IncreaseProbePace, StopProbe:
		return nil
	default:
		return fmt.Errorf("unknown adapt signal kind %q", s.Kind)
	}
}

func (s AdaptSignal) String() string {
	switch s.Kind {
	case SetRateTarget:
		return fmt.Sprintf("%s(%.2f)", s.Kind, s.Rate)
	case StartProbe:
		return fmt.Sprintf("%s(%.2fkbps)", s.Kind, s.TargetKbps)
	default:
		return string(s.Kind)
	}
}
