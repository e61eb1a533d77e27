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

// ProbeLevel is the level carried by probe units. Regular data never uses it.
const ProbeLevel = -1

// Datum is a data unit emitted by a traffic source, either on a tick or as
// a probe. It is passed by value and never mutated after creation.
type Datum struct {
	Level int // quality tier chosen by the policy, ProbeLevel for probes
	Size  int // payload size in bytes
}

// NewDatum creates a regular data unit
func NewDatum(level int, size int) Datum {
	if size < 0 {
		size = 0
	}
	return Datum{Level: level, Size: size}
}

// NewProbeDatum creates a probe unit of the given size
func NewProbeDatum(size int) Datum {
	return NewDatum(ProbeLevel, size)
}

func (d Datum) IsProbe() bool {
	return d.Level == ProbeLevel
}

// Len returns the payload size in bytes.
func (d Datum) Len() int {
	return d.Size
}
