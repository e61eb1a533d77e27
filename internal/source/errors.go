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

import "errors"

var (
	// ErrClosed is returned when sending on, or receiving from, a closed and drained queue.
	ErrClosed = errors.New("queue closed")

	// ErrDataChannelClosed ends the emission loop when a regular unit cannot be delivered.
	ErrDataChannelClosed = errors.New("data channel closed")

	// ErrProbeUndeliverable ends the emission loop when a probe unit cannot be delivered.
	// It means the consumer was released before the source, which is a wiring error of the owner.
	ErrProbeUndeliverable = errors.New("failed to send probing unit")
)
