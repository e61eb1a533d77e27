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

type ControllerState int

const (
	Steady    ControllerState = iota
	Probing                   // probe started, pace ramping
	Saturated                 // probe pace reached its target
	Degraded                  // rate target lowered, recovering
)

func (s ControllerState) String() string {
	switch s {
	case Steady:
		return "STEADY"
	case Probing:
		return "PROBING"
	case Saturated:
		return "SATURATED"
	case Degraded:
		return "DEGRADED"
	default:
		return "UNKNOWN"
	}
}

type ControllerAction string

const (
	NoAction           ControllerAction = "NONE"
	ActionStartProbe   ControllerAction = "START_PROBE"
	ActionIncreasePace ControllerAction = "INC_PACE"
	ActionStopProbe    ControllerAction = "STOP_PROBE"
	ActionRaiseRate    ControllerAction = "RAISE_RATE"
	ActionLowerRate    ControllerAction = "LOWER_RATE"
	ActionRecover      ControllerAction = "DEC_DEGRADATION"
)

type Transition struct {
	To          ControllerState
	Probability float64
	Action      ControllerAction
}
