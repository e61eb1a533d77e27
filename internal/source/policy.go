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

// Experiment decides what a source emits on each tick.
type Experiment interface {
	// TickPeriodMs is read once when the source is spawned.
	TickPeriodMs() uint64
	// NextChunkSize returns the bytes to emit on this tick, 0 to skip it.
	NextChunkSize() int
	CurrentLevel() int
}

// Adapter reacts to the rate and degradation commands of a controller.
type Adapter interface {
	ApplyRateTarget(rate float64)
	DecreaseDegradation()
}

// Policy is the collaborator driving a source. Its methods are only ever
// called from the emission loop, so implementations need no locking.
type Policy interface {
	Experiment
	Adapter
}
