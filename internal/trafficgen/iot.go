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

// IoTTraffic simulates periodic status updates from IoT devices. Ticks
// between two heartbeats are idle.
type IoTTraffic struct {
	TickMs         uint64
	PacketSize     int // bytes
	HeartbeatTicks int // ticks between updates

	ticks int
}

// NewIoTTraffic creates an IoT traffic policy
func NewIoTTraffic(tickMs uint64, pktSize int, heartbeatTicks int) *IoTTraffic {
	if heartbeatTicks <= 0 {
		heartbeatTicks = 1
	}
	return &IoTTraffic{
		TickMs:         tickMs,
		PacketSize:     pktSize,
		HeartbeatTicks: heartbeatTicks,
	}
}

func (i *IoTTraffic) TickPeriodMs() uint64 {
	return i.TickMs
}

// NextChunkSize emits a packet on the first tick and every HeartbeatTicks after
func (i *IoTTraffic) NextChunkSize() int {
	size := 0
	if i.ticks%i.HeartbeatTicks == 0 {
		size = i.PacketSize
	}
	i.ticks++
	return size
}

func (i *IoTTraffic) CurrentLevel() int {
	return 0
}

// ApplyRateTarget stretches the heartbeat so the average rate stays below
// rate (kbps). The heartbeat never gets shorter than one tick.
func (i *IoTTraffic) ApplyRateTarget(rate float64) {
	if rate <= 0 || i.PacketSize <= 0 {
		return
	}
	perTick := chunkSize(rate, i.TickMs)
	if perTick <= 0 {
		perTick = 1
	}
	heartbeat := (i.PacketSize + perTick - 1) / perTick
	if heartbeat < 1 {
		heartbeat = 1
	}
	i.HeartbeatTicks = heartbeat
}

func (i *IoTTraffic) DecreaseDegradation() {}
